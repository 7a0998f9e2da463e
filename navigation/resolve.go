package navigation

// Session is the part of the session state route decisions depend on.
type Session struct {
	Authenticated bool
	Expired       bool
}

// Valid reports whether the session may enter protected routes.
func (s Session) Valid() bool {
	return s.Authenticated && !s.Expired
}

// Reason explains a Decision.
type Reason string

const (
	ReasonAllowed          Reason = "allowed"
	ReasonNotAuthenticated Reason = "not_authenticated"
	ReasonExpired          Reason = "expired"
	ReasonAlreadySignedIn  Reason = "already_signed_in"
	ReasonFallback         Reason = "fallback"
)

// Decision is the outcome of resolving a path.
type Decision struct {
	// Path is the cleaned path that was asked for.
	Path string
	// Route is where the user ends up. It equals Path when Allow is true.
	Route string
	// Allow is true when Path may be rendered as is.
	Allow  bool
	Reason Reason
}

// Redirect reports whether the user is sent somewhere else.
func (d Decision) Redirect() bool {
	return !d.Allow
}

// Resolve decides where a request for p ends up given the session state.
//
// Protected routes send invalid sessions to Login. Login sends valid sessions
// to Home. "/" and unknown paths fall back to Home, which is then resolved
// again. Public routes always pass.
func Resolve(s Session, routes Routes, p string) Decision {
	p = Clean(p)
	d := resolveOnce(s, routes, p)
	if d.Reason == ReasonFallback {
		next := resolveOnce(s, routes, d.Route)
		if next.Redirect() {
			next.Path = p
			return next
		}
	}
	return d
}

func resolveOnce(s Session, routes Routes, p string) Decision {
	login := Clean(routes.Login)
	home := Clean(routes.Home)

	switch {
	case matchesAny(p, routes.Public):
		return Decision{Path: p, Route: p, Allow: true, Reason: ReasonAllowed}
	case p == login:
		if s.Valid() {
			return Decision{Path: p, Route: home, Reason: ReasonAlreadySignedIn}
		}
		return Decision{Path: p, Route: p, Allow: true, Reason: ReasonAllowed}
	case p == home || matchesAny(p, routes.Protected):
		if !s.Authenticated {
			return Decision{Path: p, Route: login, Reason: ReasonNotAuthenticated}
		}
		if s.Expired {
			return Decision{Path: p, Route: login, Reason: ReasonExpired}
		}
		return Decision{Path: p, Route: p, Allow: true, Reason: ReasonAllowed}
	default:
		return Decision{Path: p, Route: home, Reason: ReasonFallback}
	}
}
