package menu

import (
	"sort"

	"easynetes/internal/models"
)

// CanAccess reports whether the principal may open the route.
func (p Principal) CanAccess(r *Route) bool {
	if r == nil {
		return false
	}
	if !r.Meta.RequiresAuth {
		return true
	}
	if !p.Authenticated {
		return false
	}
	if len(r.Meta.Roles) == 0 {
		return true
	}
	role := models.NormalizeRole(p.Role)
	for _, candidate := range r.Meta.Roles {
		if candidate == models.AnyRole {
			return true
		}
		if role != "" && models.NormalizeRole(candidate) == role {
			return true
		}
	}
	return false
}

// BuildMenuTree returns the part of routes the principal may see, sorted by
// Meta.Order at every level. The input is not modified.
func BuildMenuTree(routes []*Route, p Principal) []*Route {
	return filterRoutes(cloneRoutes(routes), p)
}

func sortByOrder(nodes []*Route) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Meta.Order < nodes[j].Meta.Order
	})
}

// filterRoutes decides children before their parent.
func filterRoutes(nodes []*Route, p Principal) []*Route {
	sortByOrder(nodes)
	out := make([]*Route, 0, len(nodes))
	for _, node := range nodes {
		if node.hidden() || !p.CanAccess(node) {
			continue
		}
		if node.Meta.HideChildrenInMenu || len(node.Children) == 0 {
			node.Children = []*Route{}
			out = append(out, node)
			continue
		}
		children := filterRoutes(node.Children, p)
		if len(children) > 0 {
			node.Children = children
			out = append(out, node)
			continue
		}
		// No visible children left: keep as a leaf only when explicitly visible.
		if node.Meta.HideInMenu != nil {
			node.Children = []*Route{}
			out = append(out, node)
		}
	}
	return out
}
