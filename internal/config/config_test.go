package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "easynetes.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	root := t.TempDir()
	path := writeYAML(t, "root_path: "+root+"\n")
	c, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Server.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", c.Server.Port)
	}
	if c.Security.TokenExpireTime != time.Hour {
		t.Fatalf("expected 1h token expiry, got %v", c.Security.TokenExpireTime)
	}
	if c.Database.Type != "sqlite" || c.Database.DSN != filepath.Join(root, "data", "easynetes.db") {
		t.Fatalf("unexpected database defaults %+v", c.Database)
	}
	if c.Mock.Enabled || c.Mock.MinDelay != 600*time.Millisecond || c.Mock.MaxDelay != time.Second {
		t.Fatalf("unexpected mock defaults %+v", c.Mock)
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := writeYAML(t, `
server:
  port: 9000
  termination_timeout: 3s
database:
  type: MySQL
  dsn: "user:pass@tcp(db:3306)/cmdb?parseTime=true"
kubernetes:
  clusters:
    - name: dev
      kubeconfig: /tmp/dev.kubeconfig
    - name: prod
      context: prod-admin
mock:
  enabled: true
  min_delay: 0s
  max_delay: 0s
`)
	t.Setenv("EASYNETES_SERVER_PORT", "9100")
	c, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Server.Port != 9100 {
		t.Fatalf("expected env override 9100, got %d", c.Server.Port)
	}
	if c.Server.TerminationTimeout != 3*time.Second {
		t.Fatalf("expected 3s termination timeout, got %v", c.Server.TerminationTimeout)
	}
	if c.Database.Type != "mysql" {
		t.Fatalf("expected normalized db type, got %q", c.Database.Type)
	}
	if len(c.Kubernetes.Clusters) != 2 || c.Kubernetes.Clusters[1].Context != "prod-admin" {
		t.Fatalf("unexpected clusters %+v", c.Kubernetes.Clusters)
	}
	if !c.Mock.Enabled {
		t.Fatalf("expected mock enabled")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"db type":   "database:\n  type: oracle\n",
		"port":      "server:\n  port: 70000\n",
		"tls pair":  "server:\n  tls_cert: /tmp/cert.pem\n",
		"dup kube":  "kubernetes:\n  clusters:\n    - name: a\n    - name: a\n",
		"anon kube": "kubernetes:\n  clusters:\n    - kubeconfig: /x\n",
	}
	for name, body := range cases {
		if _, err := Load(nil, writeYAML(t, body)); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(nil, filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing explicit config file")
	}
}

func TestYAMLRedactsSecrets(t *testing.T) {
	c := &Config{Security: Security{SecretKey: "s3cr3t", AdminPassword: "hunter22"}}
	out, err := c.YAML()
	if err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if strings.Contains(string(out), "s3cr3t") || strings.Contains(string(out), "hunter22") {
		t.Fatalf("secrets leaked: %s", out)
	}
	if c.Security.SecretKey != "s3cr3t" {
		t.Fatalf("YAML must not modify the receiver")
	}
}

func TestWriteFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "easynetes.yaml")
	in := &Config{
		RootPath: t.TempDir(),
		Server:   Server{Port: 8181, ReadTimeout: 2 * time.Second},
		Database: Database{Type: "postgres", DSN: "postgres://u:p@localhost/cmdb"},
	}
	if err := WriteFile(in, path); err != nil {
		t.Fatalf("write: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600, got %v", info.Mode().Perm())
	}
	out, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if out.Server.Port != 8181 || out.Server.ReadTimeout != 2*time.Second || out.Database.Type != "postgres" {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}
