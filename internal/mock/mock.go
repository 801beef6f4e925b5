// Package mock answers console API calls with canned envelopes so the
// frontend can run without a database, cluster or user store.
package mock

import (
	"context"
	"math/rand"
	"net/http"
	"regexp"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"easynetes/internal/config"
	"easynetes/internal/utils"
)

type route struct {
	method  string
	pattern *regexp.Regexp
	handle  gin.HandlerFunc
}

// Server is a regexp-keyed set of canned responses.
type Server struct {
	minDelay time.Duration
	maxDelay time.Duration
	logger   *utils.Logger

	mu     sync.RWMutex
	routes []route
	rnd    *rand.Rand
	rndMu  sync.Mutex
}

// New builds a Server with the console's default mocks registered.
func New(cfg config.Mock, logger *utils.Logger) *Server {
	s := &Server{
		minDelay: cfg.MinDelay,
		maxDelay: cfg.MaxDelay,
		logger:   logger,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	registerDefaults(s)
	return s
}

// Register adds a mock. pattern is matched against the request URI, query
// included. An empty method matches any method.
func (s *Server) Register(method, pattern string, h gin.HandlerFunc) {
	re := regexp.MustCompile(pattern)
	s.mu.Lock()
	s.routes = append(s.routes, route{method: method, pattern: re, handle: h})
	s.mu.Unlock()
}

func (s *Server) match(r *http.Request) gin.HandlerFunc {
	s.mu.RLock()
	defer s.mu.RUnlock()
	uri := r.URL.RequestURI()
	for _, rt := range s.routes {
		if rt.method != "" && rt.method != r.Method {
			continue
		}
		if rt.pattern.MatchString(uri) {
			return rt.handle
		}
	}
	return nil
}

// delay picks the simulated latency in [minDelay, maxDelay].
func (s *Server) delay() time.Duration {
	if s.maxDelay <= 0 {
		return 0
	}
	span := s.maxDelay - s.minDelay
	if span <= 0 {
		return s.minDelay
	}
	s.rndMu.Lock()
	n := s.rnd.Int63n(int64(span) + 1)
	s.rndMu.Unlock()
	return s.minDelay + time.Duration(n)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Middleware serves matching requests from the mocks and aborts the chain.
// Unmatched requests continue to the real handlers.
func (s *Server) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := s.match(c.Request)
		if h == nil {
			c.Next()
			return
		}
		if err := sleep(c.Request.Context(), s.delay()); err != nil {
			c.Abort()
			return
		}
		if s.logger != nil {
			s.logger.Writef("mock %s %s", c.Request.Method, c.Request.URL.RequestURI())
		}
		h(c)
		c.Abort()
	}
}
