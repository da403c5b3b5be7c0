package models

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

var ErrValidation = errors.New("validation failed")

// Validator is implemented by payloads checked before they are sent.
type Validator interface {
	Validate() error
}

// User is an account as returned by the backend. The password never leaves the server.
type User struct {
	ID    string `json:"_id"`
	Email string `json:"email"`
}

// Credentials is the login and signup payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Email) == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		return fmt.Errorf("%w: invalid email %q", ErrValidation, c.Email)
	}
	if c.Password == "" {
		return fmt.Errorf("%w: password is required", ErrValidation)
	}
	return nil
}

// AuthResponse is returned by login and signup. AccessToken is absent when the server only sets cookies.
type AuthResponse struct {
	User        User   `json:"user"`
	AccessToken string `json:"accessToken,omitempty"`
	CSRFToken   string `json:"csrfToken,omitempty"`
}

// ListBase is the payload for creating a list.
type ListBase struct {
	Name string `json:"name"`
}

func (l ListBase) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return fmt.Errorf("%w: list name is required", ErrValidation)
	}
	return nil
}

// List is a shopping list.
type List struct {
	ID string `json:"_id"`
	ListBase
}

// ItemBase holds every field of an item except its identifier.
type ItemBase struct {
	ListID      string  `json:"listId"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Checked     bool    `json:"checked"`
	Price       float64 `json:"price"`
	Unit        string  `json:"unit"`
	Quantity    int     `json:"quantity"`
	Description string  `json:"description"`
}

func (i ItemBase) Validate() error {
	if i.ListID == "" {
		return fmt.Errorf("%w: item list id is required", ErrValidation)
	}
	if strings.TrimSpace(i.Name) == "" {
		return fmt.Errorf("%w: item name is required", ErrValidation)
	}
	if i.Quantity < 0 {
		return fmt.Errorf("%w: item quantity must not be negative", ErrValidation)
	}
	if i.Price < 0 {
		return fmt.Errorf("%w: item price must not be negative", ErrValidation)
	}
	return nil
}

// Item is an entry of a list.
type Item struct {
	ID string `json:"_id"`
	ItemBase
}

// NewItem returns an unchecked item of quantity one, categorised by [CategoryFor].
func NewItem(listID, name string) ItemBase {
	name = strings.TrimSpace(name)
	return ItemBase{
		ListID:   listID,
		Name:     name,
		Category: CategoryFor(name),
		Quantity: 1,
	}
}

// ItemUpdate is a partial update. Nil fields are left unchanged.
type ItemUpdate struct {
	Name        *string  `json:"name,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Checked     *bool    `json:"checked,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Unit        *string  `json:"unit,omitempty"`
	Quantity    *int     `json:"quantity,omitempty"`
	Description *string  `json:"description,omitempty"`
}

func (u ItemUpdate) Validate() error {
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return fmt.Errorf("%w: item name must not be empty", ErrValidation)
	}
	if u.Quantity != nil && *u.Quantity < 0 {
		return fmt.Errorf("%w: item quantity must not be negative", ErrValidation)
	}
	if u.Price != nil && *u.Price < 0 {
		return fmt.Errorf("%w: item price must not be negative", ErrValidation)
	}
	return nil
}

// Empty reports whether the update changes nothing.
func (u ItemUpdate) Empty() bool {
	return u == ItemUpdate{}
}

// Apply returns item with the update's non-nil fields copied in.
func (u ItemUpdate) Apply(item Item) Item {
	if u.Name != nil {
		item.Name = *u.Name
	}
	if u.Category != nil {
		item.Category = *u.Category
	}
	if u.Checked != nil {
		item.Checked = *u.Checked
	}
	if u.Price != nil {
		item.Price = *u.Price
	}
	if u.Unit != nil {
		item.Unit = *u.Unit
	}
	if u.Quantity != nil {
		item.Quantity = *u.Quantity
	}
	if u.Description != nil {
		item.Description = *u.Description
	}
	return item
}

// ListExport is a list with its items.
type ListExport struct {
	List     List      `json:"list"`
	Items    []Item    `json:"items"`
	SyncedAt time.Time `json:"synced_at,omitzero"`
}

// Remaining counts the unchecked items.
func (e ListExport) Remaining() int {
	n := 0
	for _, item := range e.Items {
		if !item.Checked {
			n++
		}
	}
	return n
}

// FindByName returns the first item whose name matches name case-insensitively, ignoring surrounding space.
func FindByName(items []Item, name string) (Item, bool) {
	name = strings.TrimSpace(name)
	for _, item := range items {
		if strings.EqualFold(item.Name, name) {
			return item, true
		}
	}
	return Item{}, false
}

// Cookie is a persisted cookie. A zero ExpiresAt marks a session cookie.
type Cookie struct {
	Host      string
	Name      string
	Value     string
	Path      string
	ExpiresAt time.Time
	Secure    bool
	HTTPOnly  bool
	UpdatedAt time.Time
}

// Expired reports whether the cookie has an expiry at or before now.
func (c Cookie) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

func Ptr[T any](v T) *T { return &v }
