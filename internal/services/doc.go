// Package services wraps the shopping-list backend's REST API.
//
// Every service sends through one [http.Client] whose transport is the session pipeline, so requests are
// authenticated and CSRF-protected without the services knowing about tokens.
//
// # Services
//
//   - [APIService] : raw requests ([APIService.Get], [APIService.Post], ...) and the JSON helper [APIService.Do]
//   - [UserService] : signup, login, logout and the CSRF token endpoint
//   - [ListService] : list CRUD
//   - [ItemService] : item CRUD plus the list-level actions add-by-name, remove-by-name, toggle and uncheck-all
//
// # Error Handling
//
// A non-2xx response or a transport failure becomes an [*HTTPError]. Its message is the payload's "message"
// field, then its "error" field, then the transport error text, then "Network or server error". HTTPError
// matches [shared.ErrAPIRequest], and 401 responses also match [shared.ErrNotAuthenticated]. 404 responses from
// the list and item services are reported as [shared.ErrListNotFound] and [shared.ErrItemNotFound].
package services
