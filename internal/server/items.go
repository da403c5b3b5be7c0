package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/desertthunder/cartx/internal/models"
	"github.com/gorilla/mux"
)

// CreateItem adds an item to one of the caller's lists. A missing category is inferred from the name.
func (s *Server) CreateItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body models.ItemBase
		if !decodeRequest(&body, w, r) {
			return
		}
		if err := body.Validate(); err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Category == "" {
			body.Category = models.CategoryFor(body.Name)
		}

		item, err := s.data.createItem(userID(r), body)
		if errors.Is(err, errNotFound) {
			writeMessage(w, http.StatusNotFound, "List not found")
			return
		}
		writeJSON(w, http.StatusCreated, item)
	}
}

// ListItems answers with the items of a list in creation order.
func (s *Server) ListItems() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, ok := s.data.itemsFor(userID(r), mux.Vars(r)["listId"])
		if !ok {
			writeMessage(w, http.StatusNotFound, "List not found")
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

// UpdateItem applies a partial update to an item.
func (s *Server) UpdateItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body models.ItemUpdate
		if !decodeRequest(&body, w, r) {
			return
		}
		if err := body.Validate(); err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}

		item, ok := s.data.updateItem(userID(r), mux.Vars(r)["id"], body)
		if !ok {
			writeMessage(w, http.StatusNotFound, "Item not found")
			return
		}
		writeJSON(w, http.StatusOK, item)
	}
}

// DeleteItem removes an item.
func (s *Server) DeleteItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.data.deleteItem(userID(r), mux.Vars(r)["id"]) {
			writeMessage(w, http.StatusNotFound, "Item not found")
			return
		}
		writeMessage(w, http.StatusOK, "Item deleted")
	}
}
