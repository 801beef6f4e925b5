package manager

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"easynetes/internal/config"
	"easynetes/internal/models"
	"easynetes/internal/utils"
)

func plainHash(p string) (string, error) { return "hashed:" + p, nil }

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	return &config.Config{
		RootPath: root,
		Logging:  config.Logging{Level: "debug", Format: "json"},
		Database: config.Database{Type: "sqlite", DSN: filepath.Join(root, "data", "test.db")},
		Security: config.Security{AdminUser: "root", AdminEmail: "root@example.com", TokenExpireTime: time.Hour},
	}
}

func newTestManager(t *testing.T, cfg *config.Config) *Manager {
	t.Helper()
	paths := utils.NewPaths(cfg.RootPath)
	if err := paths.DeployRoot(nil); err != nil {
		t.Fatalf("deploy root: %v", err)
	}
	m, err := newWithLogger(context.Background(), cfg, paths, utils.NewNopLogger())
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	t.Cleanup(m.Shutdown)
	return m
}

func TestNewCreatesLayout(t *testing.T) {
	cfg := newTestConfig(t)
	m, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer m.Shutdown()
	if !m.Paths.CheckRoot() {
		t.Fatalf("expected root layout under %s", cfg.RootPath)
	}
	if _, err := os.Stat(cfg.Database.DSN); err != nil {
		t.Fatalf("expected sqlite file: %v", err)
	}
	if m.Hosts == nil || m.Settings == nil || m.Kube == nil {
		t.Fatalf("stores not wired: %+v", m)
	}
}

func TestBootstrapAdminGeneratesPassword(t *testing.T) {
	m := newTestManager(t, newTestConfig(t))
	pw, err := m.BootstrapAdmin(plainHash)
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if len(pw) != 24 {
		t.Fatalf("expected generated 24 char password, got %q", pw)
	}
	u, ok := m.Users.Get("root")
	if !ok {
		t.Fatalf("admin not created")
	}
	if u.Role != models.RoleAdmin || u.PasswordHash != "hashed:"+pw || u.Email != "root@example.com" {
		t.Fatalf("unexpected admin %+v", u)
	}

	again, err := m.BootstrapAdmin(plainHash)
	if err != nil || again != "" {
		t.Fatalf("second bootstrap should be a no-op, got %q %v", again, err)
	}
}

func TestBootstrapAdminConfiguredPassword(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Security.AdminUser = ""
	cfg.Security.AdminPassword = "s3cret!"
	m := newTestManager(t, cfg)
	pw, err := m.BootstrapAdmin(plainHash)
	if err != nil || pw != "s3cret!" {
		t.Fatalf("bootstrap: %q %v", pw, err)
	}
	if _, ok := m.Users.Get("admin"); !ok {
		t.Fatalf("expected default admin username")
	}
}

func TestBootstrapAdminHashError(t *testing.T) {
	m := newTestManager(t, newTestConfig(t))
	boom := errors.New("boom")
	if _, err := m.BootstrapAdmin(func(string) (string, error) { return "", boom }); !errors.Is(err, boom) {
		t.Fatalf("expected hash error, got %v", err)
	}
	if !m.Users.IsEmpty() {
		t.Fatalf("no user should be created on hash failure")
	}
}

func TestUserStorePersistence(t *testing.T) {
	paths := utils.NewPaths(t.TempDir())
	store := NewUserStore(paths)
	if err := store.Load(); err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if _, err := store.CreateUser("alice", "h1", models.RoleAdmin); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.CreateUser("alice", "h2", models.RoleViewer); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	if _, err := store.CreateUser("bob", "h3", models.RoleViewer); err != nil {
		t.Fatalf("create bob: %v", err)
	}
	settings := models.DefaultAppSettings()
	settings.Theme = "dark"
	if err := store.SetAppSettings("bob", settings); err != nil {
		t.Fatalf("set settings: %v", err)
	}
	if err := store.SetRole("missing", models.RoleAdmin); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	info, err := os.Stat(store.Path())
	if err != nil {
		t.Fatalf("stat users file: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600 permissions, got %v", info.Mode().Perm())
	}

	reloaded := NewUserStore(paths)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	users := reloaded.Users()
	if len(users) != 2 || users[0].Username != "alice" || users[1].Username != "bob" {
		t.Fatalf("unexpected users %+v", users)
	}
	got, err := reloaded.AppSettings("bob")
	if err != nil || got.Theme != "dark" {
		t.Fatalf("settings not persisted: %+v %v", got, err)
	}
	def, err := reloaded.AppSettings("alice")
	if err != nil || def != models.DefaultAppSettings() {
		t.Fatalf("expected default settings, got %+v %v", def, err)
	}
	if reloaded.AdminCount() != 1 {
		t.Fatalf("expected 1 admin")
	}
	if err := reloaded.Delete("alice"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if reloaded.AdminCount() != 0 {
		t.Fatalf("expected 0 admins after delete")
	}
}

func TestUserInfo(t *testing.T) {
	created := time.Date(2024, 3, 1, 8, 0, 0, 0, time.Local)
	u := &User{Username: "alice", Role: models.RoleOperator, AccountID: "acc-1", CreatedAt: created}
	info := u.Info()
	if info.Name != "alice" || info.Role != "operator" || info.AccountID != "acc-1" {
		t.Fatalf("unexpected info %+v", info)
	}
	if !info.RegistrationDate.Equal(created) || !info.LastLoginTime.IsZero() {
		t.Fatalf("unexpected dates %+v", info)
	}
}

func TestComputeHealth(t *testing.T) {
	if got := computeHealth(0, 0, 0); got != 100 {
		t.Fatalf("idle host should be 100, got %v", got)
	}
	if got := computeHealth(100, 100, 100); got != 0 {
		t.Fatalf("saturated host should be 0, got %v", got)
	}
	if got := computeHealth(90, 10, 20); got >= 50 {
		t.Fatalf("busy cpu should dominate, got %v", got)
	}
}

func TestTelemetrySnapshot(t *testing.T) {
	tel := NewTelemetry(t.TempDir())
	snap := tel.Snapshot(context.Background())
	if snap == nil || snap.CPUCores <= 0 || snap.Platform == "" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if snap.HealthPercent < 0 || snap.HealthPercent > 100 {
		t.Fatalf("health out of range: %v", snap.HealthPercent)
	}
	tel.Start()
	tel.Start()
	tel.Stop()
	tel.Stop()
}
