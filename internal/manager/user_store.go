package manager

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"easynetes/internal/models"
	"easynetes/internal/utils"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)

// User holds authentication data, profile and console settings for an account.
type User struct {
	Username     string              `json:"username"`
	PasswordHash string              `json:"password_hash"`
	Role         models.Role         `json:"role"`
	AccountID    string              `json:"account_id"`
	Email        string              `json:"email,omitempty"`
	Phone        string              `json:"phone,omitempty"`
	Avatar       string              `json:"avatar,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	LastLogin    time.Time           `json:"last_login,omitempty"`
	Settings     *models.AppSettings `json:"settings,omitempty"`
}

// Info renders the session profile for the console.
func (u *User) Info() models.UserInfo {
	return models.UserInfo{
		Name:             u.Username,
		Avatar:           u.Avatar,
		Email:            u.Email,
		Phone:            u.Phone,
		Role:             string(u.Role),
		AccountID:        u.AccountID,
		RegistrationDate: models.NewTimestamp(u.CreatedAt),
		LastLoginTime:    models.NewTimestamp(u.LastLogin),
	}
}

func (u *User) clone() *User {
	cp := *u
	if u.Settings != nil {
		s := *u.Settings
		cp.Settings = &s
	}
	return &cp
}

// UserStore manages persistent users with a JSON file backend.
type UserStore struct {
	path  string
	mu    sync.RWMutex
	users map[string]*User
}

// NewUserStore initializes a user store at the configured path.
func NewUserStore(paths *utils.Paths) *UserStore {
	return &UserStore{path: paths.UsersFile(), users: make(map[string]*User)}
}

// Path returns the absolute path to the users.json backing file.
func (s *UserStore) Path() string {
	return s.path
}

// Load reads users from disk; a missing file is an empty store.
func (s *UserStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = make(map[string]*User)
	if s.path == "" {
		return errors.New("user store path not set")
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return os.MkdirAll(filepath.Dir(s.path), 0o755)
	}
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	var list []*User
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	for _, u := range list {
		if u != nil && u.Username != "" {
			s.users[u.Username] = u
		}
	}
	return nil
}

// saveLocked writes users to disk atomically with 0600 permissions.
// Caller MUST hold s.mu (write lock).
func (s *UserStore) saveLocked() error {
	list := make([]*User, 0, len(s.users))
	for _, u := range s.users {
		list = append(list, u)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Username < list[j].Username })
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// IsEmpty reports whether no users exist.
func (s *UserStore) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users) == 0
}

// Get returns a copy of the user by username.
func (s *UserStore) Get(username string) (*User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[username]
	if !ok {
		return nil, false
	}
	return u.clone(), true
}

// CreateUser creates a new user with a pre-hashed password.
func (s *UserStore) CreateUser(username, passwordHash string, role models.Role) (*User, error) {
	if username == "" || passwordHash == "" {
		return nil, errors.New("username and password hash required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[username]; exists {
		return nil, ErrUserExists
	}
	u := &User{
		Username:     username,
		PasswordHash: passwordHash,
		Role:         role,
		AccountID:    uuid.NewString(),
		CreatedAt:    time.Now(),
	}
	s.users[username] = u
	if err := s.saveLocked(); err != nil {
		delete(s.users, username)
		return nil, err
	}
	return u.clone(), nil
}

func (s *UserStore) mutate(username string, fn func(u *User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return ErrUserNotFound
	}
	fn(u)
	return s.saveLocked()
}

// SetPassword updates the password hash for a user.
func (s *UserStore) SetPassword(username, passwordHash string) error {
	return s.mutate(username, func(u *User) { u.PasswordHash = passwordHash })
}

// SetRole updates a user's role.
func (s *UserStore) SetRole(username string, role models.Role) error {
	return s.mutate(username, func(u *User) { u.Role = role })
}

// SetProfile updates contact details.
func (s *UserStore) SetProfile(username, email, phone, avatar string) error {
	return s.mutate(username, func(u *User) {
		u.Email, u.Phone, u.Avatar = email, phone, avatar
	})
}

// TouchLogin records a successful login.
func (s *UserStore) TouchLogin(username string, at time.Time) error {
	return s.mutate(username, func(u *User) { u.LastLogin = at })
}

// AppSettings returns the user's console settings, or the defaults.
func (s *UserStore) AppSettings(username string) (models.AppSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[username]
	if !ok {
		return models.AppSettings{}, ErrUserNotFound
	}
	if u.Settings == nil {
		return models.DefaultAppSettings(), nil
	}
	return *u.Settings, nil
}

// SetAppSettings replaces the user's console settings.
func (s *UserStore) SetAppSettings(username string, settings models.AppSettings) error {
	return s.mutate(username, func(u *User) { u.Settings = &settings })
}

// Users returns a snapshot list of users sorted by username.
func (s *UserStore) Users() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}

// Delete removes a user by username.
func (s *UserStore) Delete(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[username]; !ok {
		return ErrUserNotFound
	}
	delete(s.users, username)
	return s.saveLocked()
}

// AdminCount returns the number of users with admin role.
func (s *UserStore) AdminCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, u := range s.users {
		if u.Role == models.RoleAdmin {
			count++
		}
	}
	return count
}
