package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"easynetes/internal/config"
	"easynetes/internal/manager"
)

// initTestApp builds an App over a temp root and an in-memory database.
func initTestApp(t *testing.T, mutate func(*config.Config)) *App {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg, err := config.Load(nil, "")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cfg.RootPath = t.TempDir()
	cfg.Database.Type = "sqlite"
	cfg.Database.DSN = ":memory:"
	cfg.Security.AdminPassword = "bootstrap-pass"
	if mutate != nil {
		mutate(cfg)
	}
	m, err := manager.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("manager.New: %v", err)
	}
	t.Cleanup(m.Shutdown)
	a := newApp(m)
	t.Cleanup(a.rateLimiter.Stop)
	return a
}

func TestPublicEndpoints(t *testing.T) {
	r := initTestApp(t, nil).setupRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("/healthz expected 200, got %d", w.Code)
	}
	var health map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &health); err != nil {
		t.Fatalf("/healthz invalid JSON: %v", err)
	}
	if health["status"] != "ok" {
		t.Fatalf("/healthz expected status=ok, got %#v", health)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/version", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"version"`) {
		t.Fatalf("/api/version unexpected %d %s", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("missing request id header")
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(w.Body.String(), "easynetes_http_requests_total") {
		t.Fatalf("/metrics missing request counter")
	}
}

func TestProtectedRoutes(t *testing.T) {
	r := initTestApp(t, nil).setupRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/host", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous API call expected 401, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/kubernetes/cluster", nil))
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/login?redirect=Cluster" {
		t.Fatalf("anonymous page expected login redirect, got %d %q", w.Code, w.Header().Get("Location"))
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST to page path expected 405, got %d", w.Code)
	}
}

func TestBootstrapAdminLogin(t *testing.T) {
	a := initTestApp(t, nil)
	pw, err := a.manager.BootstrapAdmin(a.authService.HashPassword)
	if err != nil || pw != "bootstrap-pass" {
		t.Fatalf("bootstrap: %q %v", pw, err)
	}
	r := a.setupRouter()

	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "bootstrap-pass"})
	req := httptest.NewRequest(http.MethodPost, "/api/user/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("login: %d %s", w.Code, w.Body.String())
	}
	var env struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil || env.Data.Token == "" {
		t.Fatalf("no token: %s", w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Authorization", "Bearer "+env.Data.Token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"admin"`) {
		t.Fatalf("admin user list: %d %s", w.Code, w.Body.String())
	}
}

func TestMockMode(t *testing.T) {
	r := initTestApp(t, func(c *config.Config) {
		c.Mock.Enabled = true
		c.Mock.MinDelay = 0
		c.Mock.MaxDelay = 0
	}).setupRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/cmdb?current=1&pageSize=5", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"total":30`) {
		t.Fatalf("mock host list: %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/kubernetes/clusters", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("unmocked route should reach auth, got %d", w.Code)
	}
}

func TestConfigCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"config", "--root_path", t.TempDir()})
	if err := root.Execute(); err != nil {
		t.Fatalf("config: %v", err)
	}
	if !strings.Contains(out.String(), "database:") || !strings.Contains(out.String(), "kubernetes:") {
		t.Fatalf("unexpected config output:\n%s", out.String())
	}
}
