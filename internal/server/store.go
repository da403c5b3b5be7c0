package server

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/cartx/internal/models"
	"github.com/desertthunder/cartx/internal/shared"
)

var (
	errEmailTaken = errors.New("email already registered")
	errNotFound   = errors.New("not found")
)

type account struct {
	user models.User
	hash []byte
}

type refreshSession struct {
	userID    string
	expiresAt time.Time
}

type listRecord struct {
	list  models.List
	owner string
	seq   int
}

type itemRecord struct {
	item models.Item
	seq  int
}

// store holds all backend state in memory.
type store struct {
	mu       sync.Mutex
	seq      int
	accounts map[string]*account // keyed by normalized email
	byID     map[string]*account
	sessions map[string]refreshSession
	lists    map[string]*listRecord
	items    map[string]*itemRecord
}

func newStore() *store {
	return &store{
		accounts: make(map[string]*account),
		byID:     make(map[string]*account),
		sessions: make(map[string]refreshSession),
		lists:    make(map[string]*listRecord),
		items:    make(map[string]*itemRecord),
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *store) next() int {
	s.seq++
	return s.seq
}

func (s *store) createAccount(email string, hash []byte) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := emailKey(email)
	if _, ok := s.accounts[key]; ok {
		return models.User{}, errEmailTaken
	}

	a := &account{user: models.User{ID: shared.GenerateID(), Email: strings.TrimSpace(email)}, hash: hash}
	s.accounts[key] = a
	s.byID[a.user.ID] = a
	return a.user, nil
}

func (s *store) accountByEmail(email string) (*account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[emailKey(email)]
	return a, ok
}

func (s *store) userByID(id string) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return models.User{}, false
	}
	return a.user, true
}

// openSession stores a refresh session and returns its opaque id.
func (s *store) openSession(userID string, expiresAt time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := shared.GenerateID()
	s.sessions[id] = refreshSession{userID: userID, expiresAt: expiresAt}
	return id
}

// consumeSession removes and returns a refresh session. Each id is usable once.
func (s *store) consumeSession(id string) (refreshSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	return sess, ok
}

func (s *store) createList(owner, name string) models.List {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := &listRecord{
		list:  models.List{ID: shared.GenerateID(), ListBase: models.ListBase{Name: strings.TrimSpace(name)}},
		owner: owner,
		seq:   s.next(),
	}
	s.lists[rec.list.ID] = rec
	return rec.list
}

func (s *store) listsFor(owner string) []models.List {
	s.mu.Lock()
	defer s.mu.Unlock()

	var recs []*listRecord
	for _, rec := range s.lists {
		if rec.owner == owner {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })

	lists := make([]models.List, 0, len(recs))
	for _, rec := range recs {
		lists = append(lists, rec.list)
	}
	return lists
}

// ownedList must be called with mu held.
func (s *store) ownedList(owner, id string) (*listRecord, bool) {
	rec, ok := s.lists[id]
	if !ok || rec.owner != owner {
		return nil, false
	}
	return rec, true
}

func (s *store) list(owner, id string) (models.List, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.ownedList(owner, id)
	if !ok {
		return models.List{}, false
	}
	return rec.list, true
}

func (s *store) deleteList(owner, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ownedList(owner, id); !ok {
		return false
	}
	delete(s.lists, id)
	for itemID, rec := range s.items {
		if rec.item.ListID == id {
			delete(s.items, itemID)
		}
	}
	return true
}

func (s *store) createItem(owner string, base models.ItemBase) (models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ownedList(owner, base.ListID); !ok {
		return models.Item{}, errNotFound
	}

	rec := &itemRecord{item: models.Item{ID: shared.GenerateID(), ItemBase: base}, seq: s.next()}
	s.items[rec.item.ID] = rec
	return rec.item, nil
}

func (s *store) itemsFor(owner, listID string) ([]models.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ownedList(owner, listID); !ok {
		return nil, false
	}

	var recs []*itemRecord
	for _, rec := range s.items {
		if rec.item.ListID == listID {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })

	items := make([]models.Item, 0, len(recs))
	for _, rec := range recs {
		items = append(items, rec.item)
	}
	return items, true
}

// ownedItem must be called with mu held.
func (s *store) ownedItem(owner, id string) (*itemRecord, bool) {
	rec, ok := s.items[id]
	if !ok {
		return nil, false
	}
	if _, ok := s.ownedList(owner, rec.item.ListID); !ok {
		return nil, false
	}
	return rec, true
}

func (s *store) updateItem(owner, id string, update models.ItemUpdate) (models.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.ownedItem(owner, id)
	if !ok {
		return models.Item{}, false
	}
	rec.item = update.Apply(rec.item)
	return rec.item, true
}

func (s *store) deleteItem(owner, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ownedItem(owner, id); !ok {
		return false
	}
	delete(s.items, id)
	return true
}
