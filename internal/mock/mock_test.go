package mock

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"easynetes/internal/config"
	"easynetes/internal/models"
)

type listEnvelope struct {
	Data   []models.HostRecord `json:"data"`
	Total  int64               `json:"total"`
	Status string              `json:"status"`
	Code   int                 `json:"code"`
}

func newMockRouter(s *Server) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(s.Middleware())
	r.GET("/api/v1/kubernetes/clusters", func(c *gin.Context) {
		c.String(http.StatusTeapot, "real")
	})
	return r
}

func TestHostFixturePaging(t *testing.T) {
	r := newMockRouter(New(config.Mock{}, nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/cmdb?current=3&pageSize=10", nil))
	var env listEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Total != 30 || len(env.Data) != 10 || env.Code != models.CodeOK {
		t.Fatalf("unexpected page total=%d len=%d code=%d", env.Total, len(env.Data), env.Code)
	}
	first := env.Data[0]
	if first.ID != 21 || first.HostID != "host-1-21" || first.HostName != "mysql-21.dev.com" ||
		first.HostIP != "192.168.1.21" || first.HostSSHPort != 22 || first.HostType != "裸金属" || !first.Status {
		t.Fatalf("unexpected fixture row %+v", first)
	}
	if first.CreatedTime.Day() != 21 || first.CreatedTime.Hour() != 15 || first.CreatedTime.Minute() != 30 {
		t.Fatalf("unexpected fixture time %v", first.CreatedTime)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/host?current=4&pageSize=10", nil))
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	if env.Total != 30 || len(env.Data) != 0 {
		t.Fatalf("out of range page should be empty, got %d rows", len(env.Data))
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/host?current=46116860184273881&pageSize=200", nil))
	env = listEnvelope{}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("huge page: %d %q", w.Code, w.Body.String())
	}
	if w.Code != http.StatusOK || env.Total != 30 || env.Data == nil || len(env.Data) != 0 {
		t.Fatalf("huge page should be empty with true total, got %d total=%d rows=%d", w.Code, env.Total, len(env.Data))
	}
}

func TestUserMocks(t *testing.T) {
	r := newMockRouter(New(config.Mock{}, nil))

	post := func(path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := post("/api/user/login", `{"username":"anyone","password":"anything"}`)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"token":"mock-`) {
		t.Fatalf("login mock: %d %s", w.Code, w.Body.String())
	}
	w = post("/api/user/login", `{"username":"anyone"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty password should fail, got %d", w.Code)
	}
	w = post("/api/user/login", `{"username":`)
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "invalid request format") {
		t.Fatalf("malformed login body: %d %s", w.Code, w.Body.String())
	}

	w = post("/api/user/info", "")
	if !strings.Contains(w.Body.String(), `"role":"admin"`) {
		t.Fatalf("info mock: %s", w.Body.String())
	}
	w = post("/api/user/menu", "")
	if !strings.Contains(w.Body.String(), `"Jenkins"`) {
		t.Fatalf("admin menu should include settings: %s", w.Body.String())
	}
	w = post("/api/user/logout", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Fatalf("logout mock: %s", w.Body.String())
	}
}

func TestUnmatchedFallsThrough(t *testing.T) {
	r := newMockRouter(New(config.Mock{}, nil))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/kubernetes/clusters", nil))
	if w.Code != http.StatusTeapot || w.Body.String() != "real" {
		t.Fatalf("expected real handler, got %d %q", w.Code, w.Body.String())
	}

	// method mismatch also falls through
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/user/login", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("GET login is not mocked, got %d", w.Code)
	}
}

func TestDelayRange(t *testing.T) {
	s := New(config.Mock{MinDelay: 10 * time.Millisecond, MaxDelay: 20 * time.Millisecond}, nil)
	for i := 0; i < 100; i++ {
		d := s.delay()
		if d < 10*time.Millisecond || d > 20*time.Millisecond {
			t.Fatalf("delay %v outside range", d)
		}
	}
	if d := New(config.Mock{}, nil).delay(); d != 0 {
		t.Fatalf("zero config should disable delay, got %v", d)
	}
	if d := New(config.Mock{MinDelay: 5 * time.Millisecond, MaxDelay: 5 * time.Millisecond}, nil).delay(); d != 5*time.Millisecond {
		t.Fatalf("fixed delay expected, got %v", d)
	}
}

func TestRegisterCustomMock(t *testing.T) {
	s := New(config.Mock{}, nil)
	s.Register("", `^/api/v1/kubernetes/`, func(c *gin.Context) {
		c.JSON(http.StatusOK, models.Success("mocked"))
	})
	r := newMockRouter(s)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/kubernetes/clusters", nil))
	if !strings.Contains(w.Body.String(), "mocked") {
		t.Fatalf("custom mock not used: %s", w.Body.String())
	}
}
