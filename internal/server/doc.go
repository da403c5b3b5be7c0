// Package server is a local stand-in for the shopping-list backend, used for development and end-to-end tests.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [MuxRouter] implementation uses gorilla/mux internally, so routes carry path variables and method matching.
//
// # Backend Contract
//
// All API routes live under /api:
//   - POST /users/signup, POST /users/login : {user, accessToken, csrfToken} and a refresh cookie
//   - POST /users/refresh : {accessToken}; the refresh cookie is rotated on every use
//   - POST /users/logout : drops the server session and expires the refresh cookie
//   - GET /users/csrf-token : {csrfToken}, a signed token bound to a CSRF cookie
//   - /lists and /items : list and item CRUD for the signed-in user
//
// Every POST, PUT, PATCH and DELETE must carry an x-csrf-token header issued for the caller's CSRF cookie, or the
// request is rejected with 403 {"message":"invalid csrf token"}. Issuing a token does not revoke earlier ones. List and item routes need
// "Authorization: Bearer <jwt>" and answer 401 otherwise. Access tokens are HS256 JWTs.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
// [JoinHandler] serves the share-link page for lists this way.
//
// All state is in memory and lost when the process exits.
package server
