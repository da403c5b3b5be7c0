// Package session keeps the client's credentials for the shopping-list backend and applies them to every outgoing
// request.
//
// # Components
//
//   - [Store] : the in-memory access token, its expiry decoded from the token's exp claim, and the slot holding
//     the refresh currently in flight
//   - [CSRFRegistry] : the current anti-forgery token
//   - [Refresher] : exchanges the refresh cookie for a new access token, at most one exchange at a time
//   - [Transport] : an [http.RoundTripper] that decorates requests with the CSRF and bearer tokens and recovers
//     once from CSRF (403) and authorization (401) failures
//   - [Manager] : the session context tying the above to one [http.Client], with [Manager.Bootstrap] running the
//     startup sequence
//
// # Request Pipeline
//
// For every request that is not marked with [SkipHeader] the transport, in this order:
//  1. attaches [CSRFHeader] to POST, PUT, PATCH and DELETE requests when a CSRF token is known
//  2. waits for a refresh when the stored access token is expired
//  3. attaches "Authorization: Bearer <token>" when a token is stored
//  4. dispatches the request
//
// A 403 whose message mentions "csrf" re-fetches the CSRF token and resends once. Requests rejected together share
// one fetch. A 401 refreshes the access token
// and resends once, unless the request context was marked with [WithoutRefresh]. A resent request is never retried
// again.
//
// # Single Flight
//
// Concurrent callers that need a refresh share one exchange. The exchange runs detached from the caller that
// started it, so a caller giving up (context cancellation) does not fail the refresh for the others. A refresh that
// settles after [Store.ClearTokens] leaves the store alone and does not notify the navigator.
//
// # Persistence
//
// The access token lives in memory only. The refresh credential is a cookie the backend sets; whatever
// [http.CookieJar] the client carries decides whether it outlives the process.
package session
