// Package menu holds the console's route table, the role-aware menu tree
// builder and the login guard applied to page navigations.
package menu

import (
	"path"
	"strings"
)

// Meta carries visibility and permission annotations for a route.
type Meta struct {
	Locale       string   `json:"locale,omitempty"`
	Icon         string   `json:"icon,omitempty"`
	RequiresAuth bool     `json:"requiresAuth"`
	Order        int      `json:"order,omitempty"`
	Roles        []string `json:"roles,omitempty"`
	// HideInMenu is tri-state: unset, explicitly hidden or explicitly visible.
	HideInMenu         *bool  `json:"hideInMenu,omitempty"`
	HideChildrenInMenu bool   `json:"hideChildrenInMenu,omitempty"`
	ActiveMenu         string `json:"activeMenu,omitempty"`
}

// Route is a navigable section. Child paths are relative to their parent.
type Route struct {
	Name     string   `json:"name"`
	Path     string   `json:"path"`
	Redirect string   `json:"redirect,omitempty"`
	Meta     Meta     `json:"meta"`
	Children []*Route `json:"children"`
}

// Principal is the identity a menu is built for.
type Principal struct {
	Role          string
	Authenticated bool
}

func Visible(v bool) *bool {
	return &v
}

func (r *Route) hidden() bool {
	return r.Meta.HideInMenu != nil && *r.Meta.HideInMenu
}

func (r *Route) clone() *Route {
	if r == nil {
		return nil
	}
	cp := *r
	if r.Meta.Roles != nil {
		cp.Meta.Roles = append([]string(nil), r.Meta.Roles...)
	}
	if r.Meta.HideInMenu != nil {
		cp.Meta.HideInMenu = Visible(*r.Meta.HideInMenu)
	}
	if r.Children != nil {
		cp.Children = cloneRoutes(r.Children)
	}
	return &cp
}

func cloneRoutes(routes []*Route) []*Route {
	out := make([]*Route, 0, len(routes))
	for _, r := range routes {
		if r != nil {
			out = append(out, r.clone())
		}
	}
	return out
}

// Lookup resolves a URL path to the deepest matching route. The boolean is
// false when nothing matched.
func Lookup(routes []*Route, urlPath string) (*Route, bool) {
	clean := path.Clean("/" + strings.TrimSpace(urlPath))
	var best *Route
	bestLen := -1
	var walk func(nodes []*Route, parent string)
	walk = func(nodes []*Route, parent string) {
		for _, r := range nodes {
			if r == nil {
				continue
			}
			full := r.Path
			if !strings.HasPrefix(full, "/") {
				full = path.Join(parent, full)
			}
			if clean == full || strings.HasPrefix(clean, strings.TrimSuffix(full, "/")+"/") {
				if len(full) > bestLen {
					best, bestLen = r, len(full)
				}
			}
			walk(r.Children, full)
		}
	}
	walk(routes, "/")
	if best == nil || (best.Path == "/" && clean != "/") {
		return nil, false
	}
	return best, true
}

// FindByName returns the first route with the given name at any depth.
func FindByName(routes []*Route, name string) (*Route, bool) {
	for _, r := range routes {
		if r == nil {
			continue
		}
		if r.Name == name {
			return r, true
		}
		if found, ok := FindByName(r.Children, name); ok {
			return found, true
		}
	}
	return nil, false
}
