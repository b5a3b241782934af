package client

// Route describes what a view demands of the session. A protected view
// requires authentication (optionally a role); a public-only view (login,
// register) must not be shown to an authenticated user.
type Route struct {
	Protected    bool
	PublicOnly   bool
	RequiredRole string // checked only when non-empty and Protected
}

// Decision is the gate's verdict. Exactly one of Render, Placeholder or a
// non-empty Redirect is set.
type Decision struct {
	Render      bool
	Placeholder bool
	Redirect    string
}

// Landing targets for redirects.
const (
	LoginPath        = "/login"
	EventsPath       = "/events"
	UnauthorizedPath = "/unauthorized"
)

// Gate decides whether the requested route may render given the current
// session state. It is a pure function: navigation itself is performed by
// whoever consumes the Decision.
//
// While the session is still resolving (Uninitialized or Loading) the gate
// asks for a placeholder and never redirects, so the user is not bounced to
// the login screen an instant before the restored session lands.
func Gate(state State, profile Profile, route Route) Decision {
	switch state {
	case StateUninitialized, StateLoading:
		return Decision{Placeholder: true}
	case StateAnonymous:
		if route.Protected {
			return Decision{Redirect: LoginPath}
		}
		return Decision{Render: true}
	case StateAuthenticated:
		if route.PublicOnly {
			return Decision{Redirect: EventsPath}
		}
		if route.Protected && route.RequiredRole != "" && profile.Role != route.RequiredRole {
			return Decision{Redirect: UnauthorizedPath}
		}
		return Decision{Render: true}
	default:
		return Decision{Placeholder: true}
	}
}
