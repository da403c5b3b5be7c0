package server

import (
	"fmt"
	"html"
	"net/http"

	"github.com/gorilla/mux"
)

// JoinHandler serves the page behind a shared list link. It points the visitor at the command that opens the list
// in the terminal.
//
// Implements the Handler interface for registration with a Router.
type JoinHandler struct{}

// NewJoinHandler creates a new [JoinHandler].
func NewJoinHandler() *JoinHandler {
	return &JoinHandler{}
}

// Routes returns the HTTP routes this handler serves.
func (h *JoinHandler) Routes() []string {
	return []string{"/list/join/{id}"}
}

// ServeHTTP renders the join page for the list id in the path.
func (h *JoinHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := mux.Vars(r)["id"]
	if id == "" {
		http.Error(w, "Missing list id", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `
<!DOCTYPE html>
<html>
<head>
    <title>Join shopping list</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #2E7D32; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
        code { background: #eee; padding: 0.2rem 0.4rem; border-radius: 4px; }
    </style>
</head>
<body>
    <div class="container">
        <h1>You've been invited to a shopping list</h1>
        <p>Open it from your terminal with <code>cartx lists show %s</code></p>
    </div>
</body>
</html>
`, html.EscapeString(id))
}
