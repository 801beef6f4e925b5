// Package config loads easynetes settings from YAML, environment variables
// and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// EnvPrefix prefixes environment overrides, e.g. EASYNETES_SERVER_PORT.
	EnvPrefix = "easynetes"
	fileName  = "easynetes"
)

type Config struct {
	RootPath   string     `mapstructure:"root_path" yaml:"root_path"`
	Logging    Logging    `mapstructure:"logging" yaml:"logging"`
	Server     Server     `mapstructure:"server" yaml:"server"`
	Database   Database   `mapstructure:"database" yaml:"database"`
	Security   Security   `mapstructure:"security" yaml:"security"`
	Kubernetes Kubernetes `mapstructure:"kubernetes" yaml:"kubernetes"`
	Mock       Mock       `mapstructure:"mock" yaml:"mock"`
}

type Logging struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type Server struct {
	BindAddress        string        `mapstructure:"bind_address" yaml:"bind_address"`
	Port               int           `mapstructure:"port" yaml:"port"`
	ReadTimeout        time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout       time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	TerminationTimeout time.Duration `mapstructure:"termination_timeout" yaml:"termination_timeout"`
	StaticDir          string        `mapstructure:"static_dir" yaml:"static_dir"`
	SecureCookies      bool          `mapstructure:"secure_cookies" yaml:"secure_cookies"`
	TLSCert            string        `mapstructure:"tls_cert" yaml:"tls_cert"`
	TLSKey             string        `mapstructure:"tls_key" yaml:"tls_key"`
}

// Addr is the listen address for http.Server.
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.BindAddress, s.Port)
}

type Database struct {
	Type            string        `mapstructure:"type" yaml:"type"`
	DSN             string        `mapstructure:"dsn" yaml:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" yaml:"conn_max_lifetime"`
}

type Security struct {
	SecretKey       string        `mapstructure:"secret_key" yaml:"secret_key"`
	TokenExpireTime time.Duration `mapstructure:"token_expire_time" yaml:"token_expire_time"`
	AdminUser       string        `mapstructure:"admin_user" yaml:"admin_user"`
	AdminPassword   string        `mapstructure:"admin_password" yaml:"admin_password"`
	AdminEmail      string        `mapstructure:"admin_email" yaml:"admin_email"`
	RateLimit       float64       `mapstructure:"rate_limit" yaml:"rate_limit"`
	RateBurst       int           `mapstructure:"rate_burst" yaml:"rate_burst"`
}

type Cluster struct {
	Name       string `mapstructure:"name" yaml:"name"`
	Kubeconfig string `mapstructure:"kubeconfig" yaml:"kubeconfig"`
	Context    string `mapstructure:"context" yaml:"context"`
}

type Kubernetes struct {
	Clusters []Cluster     `mapstructure:"clusters" yaml:"clusters"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type Mock struct {
	Enabled  bool          `mapstructure:"enabled" yaml:"enabled"`
	MinDelay time.Duration `mapstructure:"min_delay" yaml:"min_delay"`
	MaxDelay time.Duration `mapstructure:"max_delay" yaml:"max_delay"`
}

// Defaults returns the built-in configuration keyed by viper path.
func Defaults() map[string]any {
	return map[string]any{
		"root_path":                  ".",
		"logging.level":              "info",
		"logging.format":             "json",
		"server.bind_address":        "0.0.0.0",
		"server.port":                8080,
		"server.read_timeout":        "10s",
		"server.write_timeout":       "30s",
		"server.termination_timeout": "10s",
		"server.static_dir":          "",
		"server.secure_cookies":      false,
		"database.type":              "sqlite",
		"database.dsn":               "",
		"database.max_open_conns":    25,
		"database.max_idle_conns":    25,
		"database.conn_max_lifetime": "5m",
		"security.secret_key":        "",
		"security.token_expire_time": "1h",
		"security.admin_user":        "admin",
		"security.admin_password":    "",
		"security.admin_email":       "",
		"security.rate_limit":        100.0 / 60.0,
		"security.rate_burst":        20,
		"kubernetes.timeout":         "15s",
		"mock.enabled":               false,
		"mock.min_delay":             "600ms",
		"mock.max_delay":             "1000ms",
	}
}

// Load reads easynetes.yaml from the explicit path (if non-empty) or the
// standard search locations, then applies env and flag overrides.
func Load(cmd *cobra.Command, explicitPath string) (*Config, error) {
	v := viper.New()
	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}

	v.SetConfigName(fileName)
	v.SetConfigType("yaml")
	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/easynetes")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.AutomaticEnv()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if cmd != nil {
		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	c.applyDerived()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDerived() {
	if c.RootPath != "" {
		if abs, err := filepath.Abs(c.RootPath); err == nil {
			c.RootPath = abs
		}
	}
	c.Database.Type = strings.ToLower(strings.TrimSpace(c.Database.Type))
	if c.Database.Type == "sqlite" && c.Database.DSN == "" {
		c.Database.DSN = filepath.Join(c.RootPath, "data", "easynetes.db")
	}
	if c.Mock.MaxDelay < c.Mock.MinDelay {
		c.Mock.MaxDelay = c.Mock.MinDelay
	}
}

// Validate reports configuration errors that would prevent startup.
func (c *Config) Validate() error {
	switch c.Database.Type {
	case "sqlite", "mysql", "postgres":
	default:
		return fmt.Errorf("unsupported database type %q", c.Database.Type)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if (c.Server.TLSCert == "") != (c.Server.TLSKey == "") {
		return errors.New("server.tls_cert and server.tls_key must be set together")
	}
	seen := make(map[string]struct{}, len(c.Kubernetes.Clusters))
	for _, cl := range c.Kubernetes.Clusters {
		if strings.TrimSpace(cl.Name) == "" {
			return errors.New("kubernetes cluster entry without name")
		}
		if _, dup := seen[cl.Name]; dup {
			return fmt.Errorf("duplicate kubernetes cluster %q", cl.Name)
		}
		seen[cl.Name] = struct{}{}
	}
	return nil
}

// YAML renders the effective configuration with secrets redacted.
func (c *Config) YAML() ([]byte, error) {
	cp := *c
	if cp.Security.SecretKey != "" {
		cp.Security.SecretKey = "******"
	}
	if cp.Security.AdminPassword != "" {
		cp.Security.AdminPassword = "******"
	}
	return yaml.Marshal(&cp)
}

// WriteFile stores the configuration at path with owner-only permissions.
func WriteFile(c *Config, path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}
