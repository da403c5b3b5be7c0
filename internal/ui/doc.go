// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI moves between four views:
//  1. [LoadingView] : Shown until the session's bootstrap has finished
//  2. [LoginView] : Email and password form, shown when no session could be restored or after the session expired
//  3. [ListsView] : Browse the user's shopping lists
//  4. [ItemsView] : Check off, add and remove items of one list
//
// The [Model] implements bubbletea's Init/Update/View pattern and receives results of backend calls as [Msg]
// values. [Model.Navigator] returns the hook the session calls when a refresh fails; it never blocks and the
// model answers by switching to the login view.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, q) with contextual help rendered by
// charmbracelet/bubbles/help.
package ui
