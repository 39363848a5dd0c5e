package api

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/signald/serverconf/internal/auth"
	"github.com/signald/serverconf/internal/config"
	"github.com/signald/serverconf/internal/models"
	"github.com/signald/serverconf/internal/service"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	_ "github.com/signald/serverconf/docs"
)

func setupRouter(t *testing.T) (http.Handler, *auth.TokenAuthenticator) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.Server{}, &models.AuditLog{}, &models.Setting{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	authenticator, err := auth.NewTokenAuthenticator("test-secret")
	if err != nil {
		t.Fatalf("NewTokenAuthenticator failed: %v", err)
	}

	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "development"},
		Auth:   config.AuthConfig{Type: "jwt"},
	}
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRouter(cfg, db, service.New(db, nil, nil), authenticator, quiet), authenticator
}

func TestRouter_WritesRequireToken(t *testing.T) {
	router, authenticator := setupRouter(t)
	body := `{"uuid": "97c17f0c-e53b-426f-8ffa-95052d4e0a01", "service_url": "https://chat.signal.org"}`

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/v1/servers", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	token, err := authenticator.Issue("operator", time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("POST", "/api/v1/servers", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 with token, got %d: %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/v1/servers/97c17f0c-e53b-426f-8ffa-95052d4e0a01", nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected public read to succeed, got %d", w.Code)
	}
}

func TestRouter_Health(t *testing.T) {
	router, _ := setupRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/health", nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestRouter_ServesAPIDocs(t *testing.T) {
	router, _ := setupRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/docs/doc.json", nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	for _, want := range []string{`"/servers/{uuid}"`, `"protocol.ServerConfig"`, `"BearerAuth"`} {
		if !strings.Contains(w.Body.String(), want) {
			t.Errorf("doc.json missing %s", want)
		}
	}
}
