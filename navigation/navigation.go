// Package navigation models the client's route surface: which routes need a
// session, where to send the user instead, and how a navigation request is
// delivered to the host UI.
package navigation

import (
	"context"
	"path"
	"strings"
	"sync"
)

// Default routes of the task client.
const (
	RouteLogin  = "/login"
	RouteTasks  = "/tasks"
	RouteStatus = "/status"
	RouteRoot   = "/"
)

// Routes names the entry points used by guards and the logout flow.
type Routes struct {
	// Login is the unauthenticated entry point.
	Login string
	// Home is where "/" and unknown paths land, and where a valid session
	// is sent away from Login.
	Home string
	// Protected routes require a valid session. Subpaths are included.
	Protected []string
	// Public routes are reachable in any state.
	Public []string
}

// DefaultRoutes returns the routes of the task client.
func DefaultRoutes() Routes {
	return Routes{
		Login:     RouteLogin,
		Home:      RouteTasks,
		Protected: []string{RouteTasks},
		Public:    []string{RouteStatus},
	}
}

// Navigator moves the host UI to a route. replace asks the host to replace
// the current history entry instead of pushing a new one.
type Navigator interface {
	Navigate(ctx context.Context, route string, replace bool)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, route string, replace bool)

func (f NavigatorFunc) Navigate(ctx context.Context, route string, replace bool) {
	f(ctx, route, replace)
}

// Nop discards navigation requests.
type Nop struct{}

func (Nop) Navigate(context.Context, string, bool) {}

// Entry is one recorded navigation.
type Entry struct {
	Route   string
	Replace bool
}

// Recorder keeps a history of navigation requests.
type Recorder struct {
	mu      sync.Mutex
	history []Entry
}

func (r *Recorder) Navigate(_ context.Context, route string, replace bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if replace && len(r.history) > 0 {
		r.history[len(r.history)-1] = Entry{Route: route, Replace: true}
		return
	}
	r.history = append(r.history, Entry{Route: route, Replace: replace})
}

// Current returns the route of the latest entry, or "".
func (r *Recorder) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.history) == 0 {
		return ""
	}
	return r.history[len(r.history)-1].Route
}

// History returns a copy of the recorded entries.
func (r *Recorder) History() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.history...)
}

// Clean normalizes a request path.
func Clean(p string) string {
	if p == "" {
		return RouteRoot
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

func matches(p, route string) bool {
	route = Clean(route)
	return p == route || (route != RouteRoot && strings.HasPrefix(p, route+"/"))
}

func matchesAny(p string, routes []string) bool {
	for _, r := range routes {
		if matches(p, r) {
			return true
		}
	}
	return false
}
