package server

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/pipegraph/config"
	"github.com/kbukum/pipegraph/errors"
	"github.com/kbukum/pipegraph/logger"
	"github.com/kbukum/pipegraph/resilience"
	"github.com/kbukum/pipegraph/security"
	"github.com/kbukum/pipegraph/security/tlstest"
)

func newTestServer() *Server {
	return New(config.ServerConfig{Addr: "127.0.0.1:0"})
}

func do(h http.Handler, method, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, path, http.NoBody))
	return rr
}

func TestRecovery(t *testing.T) {
	s := newTestServer()
	s.Engine().GET("/boom", func(*gin.Context) { panic("test panic") })

	rr := do(s.Handler(), http.MethodGet, "/boom")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	var body errors.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if body.Error.Code != errors.ErrCodeInternal {
		t.Errorf("expected INTERNAL_ERROR, got %s", body.Error.Code)
	}
}

func TestRequestID(t *testing.T) {
	s := newTestServer()
	s.Engine().GET("/id", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	rr := do(s.Handler(), http.MethodGet, "/id")
	id := rr.Header().Get(HeaderRequestID)
	if id == "" || rr.Body.String() != id {
		t.Errorf("expected generated id in header and context, got %q and %q", id, rr.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/id", http.NoBody)
	req.Header.Set(HeaderRequestID, "abc")
	rr = httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	if rr.Header().Get(HeaderRequestID) != "abc" {
		t.Errorf("expected existing id to be kept, got %q", rr.Header().Get(HeaderRequestID))
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "test", &buf)

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(RequestLogger(log))
	engine.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	engine.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	do(engine, http.MethodGet, "/healthz")
	if buf.Len() != 0 {
		t.Errorf("health checks must not be logged, got %s", buf.String())
	}
	do(engine, http.MethodGet, "/missing")
	if !strings.Contains(buf.String(), `"level":"warn"`) || !strings.Contains(buf.String(), `"status":404`) {
		t.Errorf("expected warn entry with status, got %s", buf.String())
	}
}

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	limiter := resilience.NewRateLimiter(resilience.RateLimiterConfig{Name: "measure", Rate: 0.001, Burst: 2})
	engine.POST("/m", RateLimit(limiter), func(c *gin.Context) { RespondAccepted(c, "ok") })

	for i := 0; i < 2; i++ {
		if rr := do(engine, http.MethodPost, "/m"); rr.Code != http.StatusAccepted {
			t.Fatalf("request %d: expected 202, got %d", i, rr.Code)
		}
	}
	rr := do(engine, http.MethodPost, "/m")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), string(errors.ErrCodeRateLimited)) {
		t.Errorf("expected RATE_LIMITED body, got %s", rr.Body.String())
	}
}

func TestRespondWithError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/stale", func(c *gin.Context) { RespondWithError(c, errors.StaleSnapshot(1, 2)) })
	engine.GET("/plain", func(c *gin.Context) { RespondWithError(c, fmt.Errorf("boom")) })
	engine.GET("/ok", func(c *gin.Context) { RespondOK(c, map[string]int{"n": 1}) })

	if rr := do(engine, http.MethodGet, "/stale"); rr.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rr.Code)
	}
	if rr := do(engine, http.MethodGet, "/plain"); rr.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rr.Code)
	}
	if rr := do(engine, http.MethodGet, "/ok"); rr.Body.String() != `{"data":{"n":1}}` {
		t.Errorf("unexpected body %s", rr.Body.String())
	}
}

func TestLifecycle(t *testing.T) {
	s := newTestServer()
	s.Engine().GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	ctx := context.Background()

	if s.Name() != "http-server" {
		t.Errorf("unexpected name %q", s.Name())
	}
	if h := s.Health(ctx); h.Status != "down" {
		t.Errorf("expected down before start, got %s", h.Status)
	}
	if err := s.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if h := s.Health(ctx); h.Status != "up" {
		t.Errorf("expected up, got %s", h.Status)
	}

	resp, err := http.Get("http://" + s.Addr() + "/ping")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	if err := s.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestLifecycleTLS(t *testing.T) {
	certs := tlstest.GenerateTLSCerts(t)
	s := New(config.ServerConfig{
		Addr: "127.0.0.1:0",
		TLS: security.TLSConfig{
			CertFile:     certs.CertFile,
			KeyFile:      certs.KeyFile,
			ClientCAFile: certs.CAFile,
		},
	})
	s.Engine().GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, c.Request.Proto) })
	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() { _ = s.Stop(ctx) }()

	url := "https://" + s.Addr() + "/ping"

	anonymous := &http.Client{Transport: &http.Transport{
		TLSClientConfig: &tls.Config{RootCAs: certs.CertPool},
	}}
	if resp, err := anonymous.Get(url); err == nil {
		resp.Body.Close()
		t.Fatal("expected handshake failure without a client certificate")
	}

	client := &http.Client{Transport: &http.Transport{
		TLSClientConfig: &tls.Config{
			RootCAs:      certs.CertPool,
			Certificates: []tls.Certificate{certs.ServerTLS},
		},
		ForceAttemptHTTP2: true,
	}}
	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if resp.ProtoMajor != 2 {
		t.Errorf("expected HTTP/2 over TLS, got %s", resp.Proto)
	}
}

func TestStartRejectsBadTLS(t *testing.T) {
	s := New(config.ServerConfig{
		Addr: "127.0.0.1:0",
		TLS:  security.TLSConfig{CertFile: "/nonexistent/tls.crt", KeyFile: "/nonexistent/tls.key"},
	})
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected start error for missing certificate")
	}
	if h := s.Health(context.Background()); h.Status != "down" {
		t.Errorf("expected down after failed start, got %s", h.Status)
	}
}
