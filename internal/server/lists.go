package server

import (
	"net/http"

	"github.com/desertthunder/cartx/internal/models"
	"github.com/gorilla/mux"
)

// AllLists answers with the caller's lists in creation order.
func (s *Server) AllLists() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.data.listsFor(userID(r)))
	}
}

// CreateList creates a list owned by the caller.
func (s *Server) CreateList() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body models.ListBase
		if !decodeRequest(&body, w, r) {
			return
		}
		if err := body.Validate(); err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}

		list := s.data.createList(userID(r), body.Name)
		s.logger.Debug("list created", "id", list.ID, "name", list.Name)
		writeJSON(w, http.StatusCreated, list)
	}
}

// GetList answers with a single list.
func (s *Server) GetList() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, ok := s.data.list(userID(r), mux.Vars(r)["id"])
		if !ok {
			writeMessage(w, http.StatusNotFound, "List not found")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// DeleteList removes a list and its items.
func (s *Server) DeleteList() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.data.deleteList(userID(r), mux.Vars(r)["id"]) {
			writeMessage(w, http.StatusNotFound, "List not found")
			return
		}
		writeMessage(w, http.StatusOK, "List deleted")
	}
}
