// Package manager owns the long-lived services of the console: the
// database, the user store, the Kubernetes clusters and the host telemetry
// sampler.
package manager

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"easynetes/internal/config"
	"easynetes/internal/db"
	"easynetes/internal/kube"
	"easynetes/internal/models"
	"easynetes/internal/utils"
)

// PasswordHasher turns a plaintext password into a stored hash.
type PasswordHasher func(password string) (string, error)

type Manager struct {
	Config    *config.Config
	Paths     *utils.Paths
	Log       *utils.Logger
	DB        *db.DB
	Hosts     *db.HostStore
	Settings  *db.SettingsStore
	Users     *UserStore
	Kube      *kube.Registry
	Telemetry *Telemetry
	StartedAt time.Time
}

// New prepares the root directory, opens the database and loads users.
func New(ctx context.Context, cfg *config.Config) (*Manager, error) {
	if cfg == nil {
		return nil, errors.New("manager: nil config")
	}
	paths := utils.NewPaths(cfg.RootPath)
	fresh := !paths.CheckRoot()
	if err := paths.DeployRoot(nil); err != nil {
		return nil, fmt.Errorf("prepare root %s: %w", cfg.RootPath, err)
	}
	logger := utils.NewLoggerWithOptions(paths.LogFile(), utils.LoggerOptions{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Stdout: true,
	})
	if fresh {
		logger.Writef("Initialized root directory %s", paths.RootPath)
	}

	m, err := newWithLogger(ctx, cfg, paths, logger)
	if err != nil {
		logger.Close()
		return nil, err
	}
	return m, nil
}

func newWithLogger(ctx context.Context, cfg *config.Config, paths *utils.Paths, logger *utils.Logger) (*Manager, error) {
	database, err := db.Open(ctx, db.Options{
		Type:            cfg.Database.Type,
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, err
	}
	logger.Writef("Database ready (%s)", database.Type)

	users := NewUserStore(paths)
	if err := users.Load(); err != nil {
		database.Close()
		return nil, fmt.Errorf("load users: %w", err)
	}

	registry, err := kube.FromConfig(cfg.Kubernetes)
	if err != nil {
		database.Close()
		return nil, err
	}
	for _, c := range registry.List() {
		logger.Writef("Kubernetes cluster %s registered (%s)", c.Name, c.Server)
	}

	return &Manager{
		Config:    cfg,
		Paths:     paths,
		Log:       logger,
		DB:        database,
		Hosts:     database.Hosts(),
		Settings:  database.Settings(),
		Users:     users,
		Kube:      registry,
		Telemetry: NewTelemetry(paths.RootPath),
		StartedAt: time.Now(),
	}, nil
}

// Start launches background workers.
func (m *Manager) Start() {
	m.Telemetry.Start()
}

// Shutdown stops workers and releases the database and log files.
func (m *Manager) Shutdown() {
	if m == nil {
		return
	}
	if m.Telemetry != nil {
		m.Telemetry.Stop()
	}
	if m.DB != nil {
		if err := m.DB.Close(); err != nil {
			m.Log.Errorf("Database close failed: %v", err)
		}
	}
	m.Log.Write("Manager stopped")
	m.Log.Close()
}

// BootstrapAdmin creates the configured admin account when the user store
// is empty. Without a configured password a random one is generated and
// logged once. It returns the plaintext password it used, or "" when
// nothing was created.
func (m *Manager) BootstrapAdmin(hash PasswordHasher) (string, error) {
	if !m.Users.IsEmpty() {
		return "", nil
	}
	sec := m.Config.Security
	username := strings.TrimSpace(sec.AdminUser)
	if username == "" {
		username = "admin"
	}
	password := sec.AdminPassword
	generated := false
	if password == "" {
		buf := make([]byte, 12)
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		password = hex.EncodeToString(buf)
		generated = true
	}
	hashed, err := hash(password)
	if err != nil {
		return "", err
	}
	if _, err := m.Users.CreateUser(username, hashed, models.RoleAdmin); err != nil {
		return "", err
	}
	if sec.AdminEmail != "" {
		if err := m.Users.SetProfile(username, sec.AdminEmail, "", ""); err != nil {
			return "", err
		}
	}
	if generated {
		m.Log.Writef("Created admin user %q with generated password %s; change it after first login", username, password)
	} else {
		m.Log.Writef("Created admin user %q from configuration", username)
	}
	return password, nil
}

// Uptime reports how long the manager has been running.
func (m *Manager) Uptime() time.Duration {
	return time.Since(m.StartedAt).Round(time.Second)
}
