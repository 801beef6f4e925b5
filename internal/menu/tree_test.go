package menu

import (
	"testing"

	"easynetes/internal/models"
)

func names(routes []*Route) []string {
	out := make([]string, 0, len(routes))
	for _, r := range routes {
		out = append(out, r.Name)
	}
	return out
}

func walk(routes []*Route, fn func(*Route)) {
	for _, r := range routes {
		fn(r)
		walk(r.Children, fn)
	}
}

func TestBuildMenuTreeAdminSeesAllSections(t *testing.T) {
	tree := BuildMenuTree(AppRoutes(), Principal{Role: "admin", Authenticated: true})
	got := names(tree)
	want := []string{"service", "cmdb", "kubernetes", "settings", "user"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	settings := tree[3]
	if len(settings.Children) != 2 {
		t.Fatalf("expected admin to see both settings children, got %v", names(settings.Children))
	}
}

func TestBuildMenuTreeWildcardRoleForAnyAuthenticated(t *testing.T) {
	tree := BuildMenuTree(AppRoutes(), Principal{Role: "viewer", Authenticated: true})
	cmdb, ok := FindByName(tree, "cmdb")
	if !ok {
		t.Fatalf("expected cmdb section for viewer")
	}
	if got := names(cmdb.Children); len(got) != 2 || got[0] != "Zone" || got[1] != "Host" {
		t.Fatalf("expected wildcard children visible, got %v", got)
	}
	// settings children are admin-only; the section itself is explicitly visible
	// so it survives as a leaf.
	settings, ok := FindByName(tree, "settings")
	if !ok {
		t.Fatalf("expected settings kept as leaf")
	}
	if len(settings.Children) != 0 || settings.Children == nil {
		t.Fatalf("expected empty non-nil children, got %#v", settings.Children)
	}
}

func TestBuildMenuTreeUnauthenticatedSeesNothing(t *testing.T) {
	tree := BuildMenuTree(AppRoutes(), Principal{})
	if len(tree) != 0 {
		t.Fatalf("expected empty tree for anonymous principal, got %v", names(tree))
	}
}

func TestBuildMenuTreeHideInMenuNeverAppears(t *testing.T) {
	routes := []*Route{
		{Name: "a", Path: "/a", Meta: Meta{HideInMenu: Visible(true)}},
		{Name: "b", Path: "/b", Children: []*Route{
			{Name: "b1", Path: "b1", Meta: Meta{HideInMenu: Visible(true)}},
			{Name: "b2", Path: "b2", Children: []*Route{
				{Name: "b2x", Path: "x", Meta: Meta{HideInMenu: Visible(true)}},
				{Name: "b2y", Path: "y"},
			}},
		}},
	}
	tree := BuildMenuTree(AllRoutes(), Principal{Role: "admin", Authenticated: true})
	tree = append(tree, BuildMenuTree(routes, Principal{Role: "admin", Authenticated: true})...)
	walk(tree, func(r *Route) {
		if r.hidden() {
			t.Fatalf("hidden route %q leaked into menu", r.Name)
		}
		switch r.Name {
		case LoginName, NotFoundName, RedirectName, "a", "b1", "b2x":
			t.Fatalf("route %q must not appear", r.Name)
		}
	})
	if _, ok := FindByName(tree, "b2y"); !ok {
		t.Fatalf("expected visible grandchild b2y")
	}
}

func TestBuildMenuTreeDropsParentWithoutVisibleChildren(t *testing.T) {
	routes := []*Route{
		{Name: "implicit", Path: "/implicit", Meta: Meta{RequiresAuth: true}, Children: []*Route{
			{Name: "adminOnly", Path: "x", Meta: Meta{RequiresAuth: true, Roles: []string{"admin"}}},
		}},
		{Name: "explicit", Path: "/explicit", Meta: Meta{RequiresAuth: true, HideInMenu: Visible(false)}, Children: []*Route{
			{Name: "adminOnly2", Path: "y", Meta: Meta{RequiresAuth: true, Roles: []string{"admin"}}},
		}},
	}
	tree := BuildMenuTree(routes, Principal{Role: "user", Authenticated: true})
	if got := names(tree); len(got) != 1 || got[0] != "explicit" {
		t.Fatalf("expected only the explicitly visible parent, got %v", got)
	}
}

func TestBuildMenuTreeStableSortByOrder(t *testing.T) {
	routes := []*Route{
		{Name: "c", Path: "/c", Meta: Meta{Order: 2}},
		{Name: "a", Path: "/a"},
		{Name: "d", Path: "/d", Meta: Meta{Order: 2}},
		{Name: "b", Path: "/b", Meta: Meta{Order: -1}},
		{Name: "e", Path: "/e"},
		{Name: "p", Path: "/p", Meta: Meta{Order: 1}, Children: []*Route{
			{Name: "p2", Path: "2", Meta: Meta{Order: 5}},
			{Name: "p1", Path: "1", Meta: Meta{Order: 1}},
			{Name: "p1b", Path: "1b", Meta: Meta{Order: 1}},
		}},
	}
	tree := BuildMenuTree(routes, Principal{Authenticated: true})
	got := names(tree)
	want := []string{"b", "a", "e", "p", "c", "d"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	walk(tree, func(r *Route) {
		for i := 1; i < len(r.Children); i++ {
			if r.Children[i-1].Meta.Order > r.Children[i].Meta.Order {
				t.Fatalf("children of %q not sorted: %v", r.Name, names(r.Children))
			}
		}
	})
	if kids := names(tree[3].Children); kids[0] != "p1" || kids[1] != "p1b" || kids[2] != "p2" {
		t.Fatalf("unexpected child order %v", kids)
	}
}

func TestBuildMenuTreeDoesNotMutateInput(t *testing.T) {
	routes := AppRoutes()
	_ = BuildMenuTree(routes, Principal{Role: "viewer", Authenticated: true})
	settings, _ := FindByName(routes, "settings")
	if len(settings.Children) != 2 {
		t.Fatalf("input routes mutated: %v", names(settings.Children))
	}
}

func TestCanAccessCaseInsensitiveRole(t *testing.T) {
	r := &Route{Meta: Meta{RequiresAuth: true, Roles: []string{"Admin"}}}
	if !(Principal{Role: " ADMIN ", Authenticated: true}).CanAccess(r) {
		t.Fatalf("expected case-insensitive role match")
	}
	if (Principal{Role: string(models.RoleOperator), Authenticated: true}).CanAccess(r) {
		t.Fatalf("operator must not access admin route")
	}
	if (Principal{Role: "admin"}).CanAccess(r) {
		t.Fatalf("unauthenticated principal must not access protected route")
	}
}

func TestLookup(t *testing.T) {
	routes := AllRoutes()
	cases := map[string]string{
		"/cmdb/host":           "Host",
		"/cmdb/host/":          "Host",
		"/cmdb":                "cmdb",
		"/cmdb/unknown":        "cmdb",
		"/login":               LoginName,
		"/kubernetes/workload": "Workload",
	}
	for p, want := range cases {
		r, ok := Lookup(routes, p)
		if !ok || r.Name != want {
			t.Fatalf("Lookup(%q): expected %q, got %+v", p, want, r)
		}
	}
	if _, ok := Lookup(routes, "/nowhere"); ok {
		t.Fatalf("expected no match for /nowhere")
	}
}
