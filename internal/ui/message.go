package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/cartx/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgReady MsgKind = iota
	MsgSignedOut
	MsgLoggedIn
	MsgListsFetched
	MsgItemsFetched
	MsgItemChanged
)

type loggedIn struct {
	user *models.User
	err  error
}

type listsFetched struct {
	lists []models.List
	err   error
}

type itemsFetched struct {
	items []models.Item
	err   error
}

type itemChanged struct {
	status string
	err    error
}

// readyMsg is the constructor for [MsgReady]
func readyMsg(authenticated bool) Msg {
	return Msg{kind: MsgReady, data: authenticated}
}

// signedOutMsg is the constructor for [MsgSignedOut]
func signedOutMsg(err error) Msg {
	return Msg{kind: MsgSignedOut, data: err}
}

// loggedInMsg is the constructor for [MsgLoggedIn]
func loggedInMsg(user *models.User, err error) Msg {
	return Msg{kind: MsgLoggedIn, data: loggedIn{user, err}}
}

// listsFetchedMsg is the constructor for [MsgListsFetched]
func listsFetchedMsg(lists []models.List, err error) Msg {
	return Msg{kind: MsgListsFetched, data: listsFetched{lists, err}}
}

// itemsFetchedMsg is the constructor for [MsgItemsFetched]
func itemsFetchedMsg(items []models.Item, err error) Msg {
	return Msg{kind: MsgItemsFetched, data: itemsFetched{items, err}}
}

// itemChangedMsg is the constructor for [MsgItemChanged]
func itemChangedMsg(status string, err error) Msg {
	return Msg{kind: MsgItemChanged, data: itemChanged{status, err}}
}
