// Package models defines the entities exchanged with the shopping-list backend and kept in the local cache.
//
// The package contains three groups of types:
//
// 1. Wire types: JSON bodies of the backend's REST API
//   - [User] and [Credentials] : accounts and the login/signup payload
//   - [AuthResponse] : body returned by login and signup
//   - [List], [ListBase] : shopping lists
//   - [Item], [ItemBase], [ItemUpdate] : list entries and partial updates
//
// 2. Derived views
//   - [ListExport] : a list together with its items, as exported and cached
//
// 3. Local persistence
//   - [Cookie] : a stored cookie carrying the refresh credential between runs
//
// [CategoryFor] infers an item's category from its name using a fixed table of common groceries.
package models
