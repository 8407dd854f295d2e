package handler

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RouteMatcher names the route a request is for, to keep metric and span cardinality bounded
type RouteMatcher interface {
	Match(r *http.Request) string
}

// MuxRouteMatcher matches routes of a mux router
type MuxRouteMatcher struct {
	Router *mux.Router
}

// Match returns the name of the mux route for r, falling back to its path template, or "unknown"
func (m *MuxRouteMatcher) Match(r *http.Request) string {
	var match mux.RouteMatch
	// Route is nil on a match of the NotFoundHandler
	if !m.Router.Match(r, &match) || match.Route == nil {
		return "unknown"
	}

	if name := match.Route.GetName(); name != "" {
		return name
	}

	if tmpl, err := match.Route.GetPathTemplate(); err == nil {
		return tmpl
	}

	return "unknown"
}
