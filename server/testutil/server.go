package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/plan3/commonauth/logger"
	"github.com/plan3/commonauth/server"
)

// Server wraps a server.Server with an httptest.Server that starts on the
// first request, so routes and plugins can be registered beforehand.
type Server struct {
	srv  *server.Server
	once sync.Once
	ts   *httptest.Server
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// RequestOption modifies an outgoing request.
type RequestOption func(*http.Request)

// New creates a server with the default middleware and a discarding logger.
// It is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := server.Config{Host: "127.0.0.1"}
	cfg.ApplyDefaults()
	srv := server.New(cfg, logger.Nop())
	srv.ApplyDefaults("test", nil)

	s := &Server{srv: srv}
	t.Cleanup(func() {
		if s.ts != nil {
			s.ts.Close()
		}
	})
	return s
}

// Server returns the wrapped server.
func (s *Server) Server() *server.Server {
	return s.srv
}

// URL starts the test server if needed and returns its base URL.
func (s *Server) URL() string {
	s.once.Do(func() {
		s.ts = httptest.NewServer(s.srv.Handler())
	})
	return s.ts.URL
}

// Get performs a GET request against path.
func (s *Server) Get(t testing.TB, path string, opts ...RequestOption) Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, s.URL()+path, http.NoBody)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	for _, opt := range opts {
		opt(req)
	}

	resp, err := s.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}
}

// Authorization sets the Authorization header to "<scheme> <token>".
func Authorization(scheme, token string) RequestOption {
	return func(r *http.Request) {
		r.Header.Set("Authorization", scheme+" "+token)
	}
}

// Header sets an arbitrary request header.
func Header(key, value string) RequestOption {
	return func(r *http.Request) {
		r.Header.Set(key, value)
	}
}
