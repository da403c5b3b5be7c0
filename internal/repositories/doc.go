// Package repositories implements SQLite persistence for the client.
//
// Key Implementations:
//   - [CookieRepository] : cookies received from the backend, so the refresh cookie outlives the process. It
//     satisfies session.CookieStore.
//   - [ListRepository] : the local cache of lists, written by the sync task
//   - [ItemRepository] : the cached items of each list
//
// Tables are created by the embedded migrations in the shared package.
package repositories
