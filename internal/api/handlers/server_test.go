package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/signald/serverconf/internal/models"
	"github.com/signald/serverconf/internal/protocol"
	"github.com/signald/serverconf/internal/service"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB creates a sqlite DB with the server tables migrated.
func setupTestDB(t *testing.T) *gorm.DB {
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
	return db
}

// setupRouter creates a Gin engine with the server routes registered.
func setupRouter(store ServerStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewServerHandler(store)
	servers := r.Group("/api/v1/servers")
	{
		servers.GET("", h.ListServers)
		servers.GET("/:uuid", h.GetServer)
		servers.POST("", h.CreateServer)
		servers.DELETE("/:uuid", h.DeleteServer)
	}
	return r
}

func doRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != "" {
		req, _ = http.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, path, nil)
	}
	router.ServeHTTP(w, req)
	return w
}

const createBody = `{
	"service_url": "https://chat.signal.org",
	"cdn_urls": [{"number": 2, "url": "https://cdn2.signal.org"}, {"number": 0, "url": "https://cdn.signal.org"}],
	"zk_param": "AAEC",
	"unidentified_sender_root": "cm9vdA==",
	"ca": "Y2E=",
	"key_backup_service_id": null
}`

func TestCreateAndGetServer(t *testing.T) {
	router := setupRouter(service.New(setupTestDB(t), nil, nil))

	w := doRequest(router, "POST", "/api/v1/servers", createBody)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var created protocol.ServerConfig
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if created.UUID == uuid.Nil {
		t.Fatal("expected generated uuid")
	}
	if len(created.CDNURLs) != 2 || created.CDNURLs[0].Number != 0 {
		t.Errorf("cdn_urls = %+v, want sorted by number", created.CDNURLs)
	}

	w = doRequest(router, "GET", "/api/v1/servers/"+created.UUID.String(), "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var raw map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if raw["zk_param"] != "AAEC" {
		t.Errorf("zk_param = %v", raw["zk_param"])
	}
	if v, ok := raw["key_backup_service_id"]; !ok || v != nil {
		t.Errorf("key_backup_service_id = %v (present=%v), want null", v, ok)
	}

	w = doRequest(router, "GET", "/api/v1/servers", "")
	var list []protocol.ServerConfig
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to decode list: %v", err)
	}
	if len(list) != 1 || list[0].UUID != created.UUID {
		t.Errorf("list = %+v", list)
	}
}

func TestCreateServer_BadInput(t *testing.T) {
	router := setupRouter(service.New(setupTestDB(t), nil, nil))

	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{"malformed json", `{`, ""},
		{"bad uuid", `{"uuid": "nope", "service_url": "https://chat.signal.org"}`, ""},
		{"bad base64", `{"service_url": "https://chat.signal.org", "zk_param": "not-base64!"}`, "zk_param"},
		{"bad proxy", `{"service_url": "https://chat.signal.org", "proxy": "not a url"}`, "proxy"},
		{"missing service url", `{"zk_param": "AAEC"}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, "POST", "/api/v1/servers", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
			var resp ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Field != tt.wantField {
				t.Errorf("field = %q, want %q", resp.Field, tt.wantField)
			}
		})
	}
}

func TestCreateServer_Conflict(t *testing.T) {
	router := setupRouter(service.New(setupTestDB(t), nil, nil))
	body := `{"uuid": "97c17f0c-e53b-426f-8ffa-95052d4e0a01", "service_url": "https://chat.signal.org"}`

	if w := doRequest(router, "POST", "/api/v1/servers", body); w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if w := doRequest(router, "POST", "/api/v1/servers", body); w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGetServer_NotFoundAndBadUUID(t *testing.T) {
	router := setupRouter(service.New(setupTestDB(t), nil, nil))

	if w := doRequest(router, "GET", "/api/v1/servers/"+uuid.NewString(), ""); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	if w := doRequest(router, "GET", "/api/v1/servers/not-a-uuid", ""); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestDeleteServer(t *testing.T) {
	router := setupRouter(service.New(setupTestDB(t), nil, nil))
	id := "97c17f0c-e53b-426f-8ffa-95052d4e0a01"
	doRequest(router, "POST", "/api/v1/servers", `{"uuid": "`+id+`", "service_url": "https://chat.signal.org"}`)

	if w := doRequest(router, "DELETE", "/api/v1/servers/"+id, ""); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", w.Code, w.Body.String())
	}
	if w := doRequest(router, "DELETE", "/api/v1/servers/"+id, ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

// failingStore returns a fixed error from every call.
type failingStore struct{ err error }

func (s failingStore) List(context.Context) ([]protocol.ServerConfig, error) { return nil, s.err }
func (s failingStore) Get(context.Context, uuid.UUID) (*protocol.ServerConfig, error) {
	return nil, s.err
}
func (s failingStore) Create(context.Context, protocol.ServerConfig, string) (*protocol.ServerConfig, error) {
	return nil, s.err
}
func (s failingStore) Delete(context.Context, uuid.UUID, string) error { return s.err }

func TestWriteError_ServerFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"storage", errors.New("disk on fire")},
		{"constructor", &protocol.ConstructionError{Err: errors.New("collaborator refused")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupRouter(failingStore{err: tt.err})
			w := doRequest(router, "POST", "/api/v1/servers", `{"service_url": "https://chat.signal.org"}`)
			if w.Code != http.StatusInternalServerError {
				t.Fatalf("expected 500, got %d: %s", w.Code, w.Body.String())
			}
			if strings.Contains(w.Body.String(), "disk on fire") {
				t.Error("internal error details should not leak to clients")
			}
		})
	}
}
