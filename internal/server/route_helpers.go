package server

import (
	"net/http"
	"sort"
	"strings"

	"github.com/ternarybob/neighborhood/internal/handlers"
)

// RouteHandler is a function type for HTTP handlers
type RouteHandler func(http.ResponseWriter, *http.Request)

// MethodRouter maps HTTP methods to handlers. Nil handlers are ignored.
type MethodRouter map[string]RouteHandler

// allow lists the methods with a handler, for the Allow header
func (m MethodRouter) allow() string {
	methods := make([]string, 0, len(m))
	for method, h := range m {
		if h != nil {
			methods = append(methods, method)
		}
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}

// RouteByMethod dispatches on r.Method and answers 405 with an Allow header
// when no handler matches
func RouteByMethod(w http.ResponseWriter, r *http.Request, routes MethodRouter) {
	if handler := routes[r.Method]; handler != nil {
		handler(w, r)
		return
	}
	w.Header().Set("Allow", routes.allow())
	handlers.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

// RouteResourceCollection routes GET to list and POST to create
func RouteResourceCollection(w http.ResponseWriter, r *http.Request, list, create RouteHandler) {
	RouteByMethod(w, r, MethodRouter{
		http.MethodGet:  list,
		http.MethodPost: create,
	})
}

// RouteResourceItem routes GET, PUT and DELETE on a single resource
func RouteResourceItem(w http.ResponseWriter, r *http.Request, get, update, remove RouteHandler) {
	RouteByMethod(w, r, MethodRouter{
		http.MethodGet:    get,
		http.MethodPut:    update,
		http.MethodDelete: remove,
	})
}
