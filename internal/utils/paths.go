// Package utils contains logging and filesystem path helpers used
// throughout easynetes.
package utils

import (
	"os"
	"path/filepath"
)

// Paths resolves filesystem locations under the configured root.
type Paths struct {
	RootPath string `json:"root_path"`
}

// NewPaths constructs Paths rooted at the specified directory.
func NewPaths(rootPath string) *Paths {
	return &Paths{RootPath: rootPath}
}

// LogsDir returns the logs directory.
func (p *Paths) LogsDir() string {
	return filepath.Join(p.RootPath, "logs")
}

// ConfigDir returns the application configuration directory.
func (p *Paths) ConfigDir() string {
	return filepath.Join(p.RootPath, "config")
}

// DataDir holds the embedded SQLite database.
func (p *Paths) DataDir() string {
	return filepath.Join(p.RootPath, "data")
}

// UsersFile returns the path to the user database file.
func (p *Paths) UsersFile() string {
	return filepath.Join(p.ConfigDir(), "users.json")
}

// LogFile returns the main log file path.
func (p *Paths) LogFile() string {
	return filepath.Join(p.LogsDir(), "easynetes.log")
}

// CheckRoot verifies that core directories exist under the root path.
func (p *Paths) CheckRoot() bool {
	for _, dir := range []string{p.RootPath, p.LogsDir(), p.ConfigDir(), p.DataDir()} {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return false
		}
	}
	return true
}

// DeployRoot creates the root directory structure (idempotent).
func (p *Paths) DeployRoot(logger *Logger) error {
	for _, dir := range []struct{ path, label string }{
		{p.RootPath, "root"},
		{p.LogsDir(), "logs"},
		{p.ConfigDir(), "config"},
		{p.DataDir(), "data"},
	} {
		if err := os.MkdirAll(dir.path, 0o755); err != nil {
			return err
		}
		if logger != nil {
			logger.Writef("Ensured %s path: %s", dir.label, dir.path)
		}
	}
	return nil
}
