package menu

import "easynetes/internal/models"

// Well-known route names outside the menu.
const (
	LoginName    = "login"
	NotFoundName = "notFound"
	RedirectName = "Redirect"
)

func child(path, name, locale string, roleList ...string) *Route {
	if len(roleList) == 0 {
		roleList = []string{models.AnyRole}
	}
	return &Route{
		Path: path,
		Name: name,
		Meta: Meta{Locale: locale, RequiresAuth: true, Roles: roleList},
	}
}

func section(path, name, locale, icon string, order int, children ...*Route) *Route {
	return &Route{
		Path: path,
		Name: name,
		Meta: Meta{
			Locale:       locale,
			Icon:         icon,
			RequiresAuth: true,
			Order:        order,
			HideInMenu:   Visible(false),
		},
		Children: children,
	}
}

// AppRoutes returns a fresh copy of the console's route table.
func AppRoutes() []*Route {
	return []*Route{
		section("/service", "service", "项目服务", "icon-apps", 1,
			child("tree", "Tree", "服务树"),
			child("metaData", "MetaData", "元数据"),
		),
		section("/cmdb", "cmdb", "主机资产", "icon-storage", 2,
			child("zone", "Zone", "可用区"),
			child("host", "Host", "主机"),
		),
		section("/kubernetes", "kubernetes", "容器集群", "icon-common", 3,
			child("cluster", "Cluster", "集群管理"),
			child("namespace", "Namespace", "命名空间"),
			child("workload", "Workload", "工作负载"),
		),
		section("/settings", "settings", "系统设置", "icon-tool", 4,
			child("jenkins", "Jenkins", "Jenkins", string(models.RoleAdmin)),
			child("git", "Git", "Git", string(models.RoleAdmin)),
		),
		section("/user", "user", "用户中心", "icon-user", 5,
			child("info", "Info", "用户信息"),
			child("setting", "Setting", "用户设置"),
		),
	}
}

// BaseRoutes are registered alongside AppRoutes but never shown in the menu.
func BaseRoutes() []*Route {
	return []*Route{
		{
			Path: "/login",
			Name: LoginName,
			Meta: Meta{RequiresAuth: false, HideInMenu: Visible(true)},
		},
		{
			Path: "/redirect",
			Name: "redirectWrapper",
			Meta: Meta{RequiresAuth: true, HideInMenu: Visible(true)},
			Children: []*Route{{
				Path: ":path",
				Name: RedirectName,
				Meta: Meta{RequiresAuth: true, HideInMenu: Visible(true)},
			}},
		},
		{
			Path: "/not-found",
			Name: NotFoundName,
			Meta: Meta{RequiresAuth: false, HideInMenu: Visible(true)},
		},
	}
}

// AllRoutes is BaseRoutes followed by AppRoutes.
func AllRoutes() []*Route {
	return append(BaseRoutes(), AppRoutes()...)
}
