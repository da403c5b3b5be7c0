package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/cartx/internal/models"
	"github.com/desertthunder/cartx/internal/services"
	"github.com/desertthunder/cartx/internal/session"
	"github.com/desertthunder/cartx/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoadingView ViewState = iota
	LoginView
	ListsView
	ItemsView
)

// Session is the part of [session.Manager] the TUI watches.
type Session interface {
	Ready() <-chan struct{}
	Authenticated() bool
}

// Authenticator signs the user in ([services.UserService]).
type Authenticator interface {
	Login(ctx context.Context, creds models.Credentials) (*models.User, error)
}

// ItemActions are the item operations bound to keys ([services.ItemService]).
type ItemActions interface {
	ByList(ctx context.Context, listID string) ([]models.Item, error)
	AddByName(ctx context.Context, listID, name string) (*models.Item, bool, error)
	RemoveByName(ctx context.Context, listID, name string) (*models.Item, bool, error)
	Toggle(ctx context.Context, item models.Item) (*models.Item, error)
}

// Deps are the collaborators of a [Model].
type Deps struct {
	Session Session
	Auth    Authenticator
	Lists   services.Lists
	Items   ItemActions
}

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	view      ViewState
	deps      Deps
	signedOut chan error
	width     int
	height    int
	email     textinput.Model
	password  textinput.Model
	focus     int
	listList  list.Model
	itemList  list.Model
	current   *models.List
	adding    bool
	addInput  textinput.Model
	user      *models.User
	busy      bool
	status    string
	err       error
	help      help.Model
	keys      keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, deps Deps) *Model {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.Prompt = ""
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.Prompt = ""
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	add := textinput.New()
	add.Placeholder = "Item name"
	add.CharLimit = 100

	return &Model{
		ctx:       ctx,
		view:      LoadingView,
		deps:      deps,
		signedOut: make(chan error, 1),
		email:     email,
		password:  password,
		addInput:  add,
		listList:  newList("Shopping Lists", nil),
		itemList:  newList("Items", nil),
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

func newList(title string, items []list.Item) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	return l
}

// Navigator returns the hook to install with [session.Manager.SetNavigator]. It never blocks: while a sign-out is
// already pending further notifications are dropped.
func (m *Model) Navigator() session.Navigator {
	return session.NavigatorFunc(func(err error) {
		select {
		case m.signedOut <- err:
		default:
		}
	})
}

// State returns the current view.
func (m *Model) State() ViewState { return m.view }

// Init waits for the session bootstrap and starts listening for sign-outs.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.waitForReady(), m.waitForSignOut())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.listList.SetSize(msg.Width-4, msg.Height-6)
		m.itemList.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case LoadingView:
			if msg.String() == "ctrl+c" || msg.String() == "q" {
				return m, tea.Quit
			}
			return m, nil
		case LoginView:
			return m.handleLoginKeys(msg)
		case ListsView:
			return m.handleListsKeys(msg)
		case ItemsView:
			return m.handleItemsKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgReady:
		if msg.data.(bool) {
			m.view = ListsView
			m.busy = true
			return m, m.fetchLists()
		}
		return m, m.showLogin("")

	case MsgSignedOut:
		m.user = nil
		m.current = nil
		m.busy = false
		m.adding = false
		status := "Session expired, please sign in again"
		if m.view == LoadingView {
			status = ""
		}
		return m, tea.Batch(m.showLogin(status), m.waitForSignOut())

	case MsgLoggedIn:
		data := msg.data.(loggedIn)
		m.busy = false
		if data.err != nil {
			m.err = data.err
			m.password.Reset()
			return m, nil
		}
		m.user = data.user
		m.err = nil
		m.status = fmt.Sprintf("Signed in as %s", data.user.Email)
		m.password.Reset()
		m.view = ListsView
		m.busy = true
		return m, m.fetchLists()

	case MsgListsFetched:
		data := msg.data.(listsFetched)
		m.busy = false
		if data.err != nil {
			return m, m.fail(data.err)
		}
		m.err = nil
		return m, m.listList.SetItems(listEntries(data.lists))

	case MsgItemsFetched:
		data := msg.data.(itemsFetched)
		m.busy = false
		if data.err != nil {
			return m, m.fail(data.err)
		}
		m.err = nil
		return m, m.itemList.SetItems(itemEntries(data.items))

	case MsgItemChanged:
		data := msg.data.(itemChanged)
		if data.err != nil {
			m.busy = false
			return m, m.fail(data.err)
		}
		m.err = nil
		m.status = data.status
		return m, m.fetchItems()
	}
	return m, nil
}

// fail records err. Errors that mean the session is gone lead back to the login form.
func (m *Model) fail(err error) tea.Cmd {
	if errors.Is(err, session.ErrRefreshFailed) || errors.Is(err, shared.ErrNotAuthenticated) {
		return m.showLogin("Session expired, please sign in again")
	}
	m.err = err
	return nil
}

func (m *Model) showLogin(status string) tea.Cmd {
	m.view = LoginView
	m.status = status
	m.err = nil
	m.focus = 0
	m.password.Blur()
	m.email.Focus()
	return textinput.Blink
}

func (m *Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "tab", "shift+tab", "up", "down":
		return m, m.switchField()
	case "enter":
		if m.focus == 0 {
			return m, m.switchField()
		}
		if m.busy {
			return m, nil
		}
		creds := models.Credentials{Email: strings.TrimSpace(m.email.Value()), Password: m.password.Value()}
		if err := creds.Validate(); err != nil {
			m.err = err
			return m, nil
		}
		m.busy = true
		m.err = nil
		return m, m.login(creds)
	}

	var cmd tea.Cmd
	if m.focus == 0 {
		m.email, cmd = m.email.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m *Model) switchField() tea.Cmd {
	if m.focus == 0 {
		m.focus = 1
		m.email.Blur()
		m.password.Focus()
	} else {
		m.focus = 0
		m.password.Blur()
		m.email.Focus()
	}
	return textinput.Blink
}

func (m *Model) handleListsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.listList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.listList, cmd = m.listList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.refresh):
		m.busy = true
		return m, m.fetchLists()
	case key.Matches(msg, m.keys.enter):
		if selected, ok := m.listList.SelectedItem().(listEntry); ok {
			l := selected.list
			m.current = &l
			m.view = ItemsView
			m.busy = true
			m.status = ""
			m.itemList.Title = l.Name
			m.itemList.ResetSelected()
			return m, tea.Batch(m.itemList.SetItems(nil), m.fetchItems())
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.listList, cmd = m.listList.Update(msg)
	return m, cmd
}

func (m *Model) handleItemsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.adding {
		return m.handleAddKeys(msg)
	}
	if m.itemList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.itemList, cmd = m.itemList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		if m.itemList.FilterState() != list.Unfiltered {
			break
		}
		m.view = ListsView
		m.current = nil
		m.status = ""
		m.err = nil
		return m, nil
	case key.Matches(msg, m.keys.refresh):
		m.busy = true
		return m, m.fetchItems()
	case key.Matches(msg, m.keys.add):
		m.adding = true
		m.addInput.Reset()
		m.addInput.Focus()
		return m, textinput.Blink
	case key.Matches(msg, m.keys.toggle):
		if selected, ok := m.itemList.SelectedItem().(itemEntry); ok && !m.busy {
			m.busy = true
			return m, m.toggle(selected.item)
		}
		return m, nil
	case key.Matches(msg, m.keys.remove):
		if selected, ok := m.itemList.SelectedItem().(itemEntry); ok && !m.busy {
			m.busy = true
			return m, m.remove(selected.item.Name)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.itemList, cmd = m.itemList.Update(msg)
	return m, cmd
}

func (m *Model) handleAddKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.adding = false
		m.addInput.Blur()
		return m, nil
	case "enter":
		name := strings.TrimSpace(m.addInput.Value())
		m.adding = false
		m.addInput.Blur()
		if name == "" {
			return m, nil
		}
		m.busy = true
		return m, m.add(name)
	}

	var cmd tea.Cmd
	m.addInput, cmd = m.addInput.Update(msg)
	return m, cmd
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case ListsView:
		m.listList, cmd = m.listList.Update(msg)
	case ItemsView:
		m.itemList, cmd = m.itemList.Update(msg)
	case LoginView:
		if m.focus == 0 {
			m.email, cmd = m.email.Update(msg)
		} else {
			m.password, cmd = m.password.Update(msg)
		}
	}
	return m, cmd
}

func (m *Model) waitForReady() tea.Cmd {
	s := m.deps.Session
	return func() tea.Msg {
		select {
		case <-s.Ready():
			return readyMsg(s.Authenticated())
		case <-m.ctx.Done():
			return tea.Quit()
		}
	}
}

func (m *Model) waitForSignOut() tea.Cmd {
	ch := m.signedOut
	return func() tea.Msg {
		select {
		case err := <-ch:
			return signedOutMsg(err)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) login(creds models.Credentials) tea.Cmd {
	return func() tea.Msg {
		user, err := m.deps.Auth.Login(m.ctx, creds)
		return loggedInMsg(user, err)
	}
}

func (m *Model) fetchLists() tea.Cmd {
	return func() tea.Msg {
		lists, err := m.deps.Lists.All(m.ctx)
		return listsFetchedMsg(lists, err)
	}
}

func (m *Model) fetchItems() tea.Cmd {
	if m.current == nil {
		return nil
	}
	id := m.current.ID
	return func() tea.Msg {
		items, err := m.deps.Items.ByList(m.ctx, id)
		return itemsFetchedMsg(items, err)
	}
}

func (m *Model) toggle(item models.Item) tea.Cmd {
	return func() tea.Msg {
		updated, err := m.deps.Items.Toggle(m.ctx, item)
		if err != nil {
			return itemChangedMsg("", err)
		}
		state := "unchecked"
		if updated.Checked {
			state = "checked"
		}
		return itemChangedMsg(fmt.Sprintf("%s %s", updated.Name, state), nil)
	}
}

func (m *Model) add(name string) tea.Cmd {
	id := m.current.ID
	return func() tea.Msg {
		item, created, err := m.deps.Items.AddByName(m.ctx, id, name)
		if err != nil {
			return itemChangedMsg("", err)
		}
		if created {
			return itemChangedMsg(fmt.Sprintf("Added %s to %s", item.Name, item.Category), nil)
		}
		return itemChangedMsg(fmt.Sprintf("%s quantity is now %d", item.Name, item.Quantity), nil)
	}
}

func (m *Model) remove(name string) tea.Cmd {
	id := m.current.ID
	return func() tea.Msg {
		item, deleted, err := m.deps.Items.RemoveByName(m.ctx, id, name)
		if err != nil {
			return itemChangedMsg("", err)
		}
		if deleted {
			return itemChangedMsg(fmt.Sprintf("Removed %s", item.Name), nil)
		}
		return itemChangedMsg(fmt.Sprintf("%s quantity is now %d", item.Name, item.Quantity), nil)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case LoadingView:
		body = m.renderLoading()
	case LoginView:
		body = m.renderLogin()
	case ListsView:
		body = m.renderLists()
	case ItemsView:
		body = m.renderItems()
	}
	return body + m.renderStatus()
}

func (m *Model) renderStatus() string {
	switch {
	case m.err != nil:
		return "\n" + styles.err.Render(fmt.Sprintf("Error: %v", m.err))
	case m.busy:
		return "\n" + styles.help.Render("Working...")
	case m.status != "":
		return "\n" + styles.ok.Render(m.status)
	}
	return ""
}

func (m *Model) renderLoading() string {
	return styles.title.Render("cartx") + "\n" + styles.help.Render("Restoring session...") + "\n"
}

func (m *Model) renderLogin() string {
	title := styles.title.Render("Sign in")
	form := fmt.Sprintf("%s%s\n%s%s\n",
		styles.label.Render("Email"), m.email.View(),
		styles.label.Render("Password"), m.password.View(),
	)
	submit := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "sign in"))
	quit := key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "quit"))
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.next, submit, quit})
	return fmt.Sprintf("%s\n%s\n%s\n", title, form, helpView)
}

func (m *Model) renderLists() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.refresh, m.keys.quit}
	return fmt.Sprintf("%s\n\n%s\n", m.listList.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderItems() string {
	if m.adding {
		return fmt.Sprintf("%s\n\n%s %s\n%s\n",
			m.itemList.View(),
			styles.warn.Render("Add:"), m.addInput.View(),
			styles.help.Render("enter to add • esc to cancel"),
		)
	}
	helpKeys := []key.Binding{m.keys.toggle, m.keys.add, m.keys.remove, m.keys.back, m.keys.quit}
	return fmt.Sprintf("%s\n\n%s\n", m.itemList.View(), m.help.ShortHelpView(helpKeys))
}
