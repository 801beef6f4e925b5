package menu

import (
	"context"
	"net/url"
)

// Location identifies a navigation target.
type Location struct {
	Name  string
	Path  string
	Query url.Values
}

// URL renders the location as path plus encoded query.
func (l Location) URL() string {
	if len(l.Query) == 0 {
		return l.Path
	}
	return l.Path + "?" + l.Query.Encode()
}

// Session is the login state a navigation is evaluated against.
type Session interface {
	// LoggedIn reports whether a token is present.
	LoggedIn() bool
	// Role is empty until the user info has been loaded.
	Role() string
	LoadInfo(ctx context.Context) error
	Logout(ctx context.Context)
}

type Action int

const (
	ActionAllow Action = iota
	ActionRedirect
)

// Decision is the outcome of a guarded navigation.
type Decision struct {
	Action   Action
	Redirect Location
	// LoggedOut is set when the session was cleared while deciding.
	LoggedOut bool
}

// LoginRedirect builds the login location for a blocked navigation to. The
// original query is preserved and redirect names the requested route; an
// unnamed target such as "/" carries no redirect.
func LoginRedirect(to Location) Location {
	q := url.Values{}
	for k, v := range to.Query {
		q[k] = append([]string(nil), v...)
	}
	if to.Name != "" {
		q.Set("redirect", to.Name)
	} else {
		q.Del("redirect")
	}
	return Location{Name: LoginName, Path: "/login", Query: q}
}

// Resolve runs the login guard for a navigation to the given location.
func Resolve(ctx context.Context, to Location, s Session) Decision {
	if s != nil && s.LoggedIn() {
		if s.Role() != "" {
			return Decision{Action: ActionAllow}
		}
		if err := s.LoadInfo(ctx); err == nil {
			return Decision{Action: ActionAllow}
		}
		s.Logout(ctx)
		return Decision{Action: ActionRedirect, Redirect: LoginRedirect(to), LoggedOut: true}
	}
	if to.Name == LoginName {
		return Decision{Action: ActionAllow}
	}
	return Decision{Action: ActionRedirect, Redirect: LoginRedirect(to)}
}
