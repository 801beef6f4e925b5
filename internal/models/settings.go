package models

import "time"

// Integration kinds managed under /api/v1/settings.
const (
	IntegrationJenkins = "jenkins"
	IntegrationGit     = "git"
)

// MaskedSecret replaces stored tokens in API responses.
const MaskedSecret = "******"

// IntegrationSettings holds connection details for a CI/CD integration.
type IntegrationSettings struct {
	Kind          string    `json:"kind"`
	URL           string    `json:"url" validate:"omitempty,url"`
	Username      string    `json:"username" validate:"omitempty,max=64"`
	Token         string    `json:"token,omitempty" validate:"omitempty,max=256"`
	DefaultBranch string    `json:"defaultBranch,omitempty" validate:"omitempty,max=128"`
	Enabled       bool      `json:"enabled"`
	UpdatedTime   Timestamp `json:"updatedTime"`
}

// Masked returns a copy safe to send to clients.
func (s IntegrationSettings) Masked() IntegrationSettings {
	if s.Token != "" {
		s.Token = MaskedSecret
	}
	return s
}

func IsIntegrationKind(kind string) bool {
	return kind == IntegrationJenkins || kind == IntegrationGit
}

// AppSettings is the console layout state persisted per user.
type AppSettings struct {
	Theme        string `json:"theme" validate:"omitempty,oneof=light dark"`
	ColorWeak    bool   `json:"colorWeak"`
	Navbar       bool   `json:"navbar"`
	Menu         bool   `json:"menu"`
	TopMenu      bool   `json:"topMenu"`
	HideMenu     bool   `json:"hideMenu"`
	MenuCollapse bool   `json:"menuCollapse"`
	Footer       bool   `json:"footer"`
	MenuWidth    int    `json:"menuWidth" validate:"omitempty,min=120,max=480"`
	TabBar       bool   `json:"tabBar"`
}

func DefaultAppSettings() AppSettings {
	return AppSettings{
		Theme:     "light",
		Navbar:    true,
		Menu:      true,
		Footer:    true,
		MenuWidth: 220,
	}
}

// UserInfo is the session profile returned by /api/user/info.
type UserInfo struct {
	Name             string    `json:"name"`
	Avatar           string    `json:"avatar"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone"`
	Role             string    `json:"role"`
	AccountID        string    `json:"accountId"`
	RegistrationDate Timestamp `json:"registrationDate"`
	LastLoginTime    Timestamp `json:"lastLoginTime"`
}

// HostEvent is pushed to websocket subscribers on inventory changes.
type HostEvent struct {
	Type string      `json:"type"`
	Host *HostRecord `json:"host"`
	At   time.Time   `json:"at"`
}

const (
	HostEventCreated = "host.created"
	HostEventUpdated = "host.updated"
	HostEventDeleted = "host.deleted"
)
