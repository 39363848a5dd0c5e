package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/signald/serverconf/internal/audit"
	"github.com/signald/serverconf/internal/cache"
	"github.com/signald/serverconf/internal/models"
	"github.com/signald/serverconf/internal/protocol"
	"github.com/signald/serverconf/internal/serverfile"
	"gorm.io/gorm"
)

// ServerService contains the business logic for the server registry.
// Records are converted to and from the wire form at this boundary; callers
// only ever see protocol.ServerConfig.
type ServerService struct {
	db    *gorm.DB
	cache cache.Cache
	ctor  protocol.Constructor
}

// New creates a new ServerService. A nil cache disables caching and a nil
// constructor selects protocol.DefaultConstructor.
func New(db *gorm.DB, c cache.Cache, ctor protocol.Constructor) *ServerService {
	if c == nil {
		c = cache.NewNop()
	}
	if ctor == nil {
		ctor = protocol.DefaultConstructor
	}
	return &ServerService{db: db, cache: c, ctor: ctor}
}

// List returns every server, oldest first.
func (s *ServerService) List(ctx context.Context) ([]protocol.ServerConfig, error) {
	var records []models.Server
	if err := s.db.WithContext(ctx).Order("created_at ASC").Order("uuid ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list servers: %w", err)
	}

	servers := make([]protocol.ServerConfig, len(records))
	for i := range records {
		servers[i] = protocol.FromPersisted(&records[i])
	}
	return servers, nil
}

// Get returns a single server by uuid.
func (s *ServerService) Get(ctx context.Context, id uuid.UUID) (*protocol.ServerConfig, error) {
	if cached, ok := s.cached(ctx, id); ok {
		return cached, nil
	}

	var record models.Server
	if err := s.db.WithContext(ctx).Where("uuid = ?", id).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get server: %w", err)
	}

	server := protocol.FromPersisted(&record)
	s.store(ctx, server)
	return &server, nil
}

// Create decodes cfg into a persisted record and stores it. A nil uuid is
// replaced by a random one.
func (s *ServerService) Create(ctx context.Context, cfg protocol.ServerConfig, actor string) (*protocol.ServerConfig, error) {
	if cfg.UUID == uuid.Nil {
		cfg.UUID = uuid.New()
	}
	return s.create(ctx, cfg, actor, audit.ActionCreateServer, nil)
}

// create stores cfg and records a single audit entry for action.
func (s *ServerService) create(ctx context.Context, cfg protocol.ServerConfig, actor, action string, details map[string]interface{}) (*protocol.ServerConfig, error) {
	record, err := cfg.ToPersisted(s.ctor)
	if err != nil {
		return nil, err
	}

	if details == nil {
		details = map[string]interface{}{}
	}
	details["service_url"] = record.ServiceURL
	details["cdn_count"] = len(record.CDNURLs)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := serverExists(tx, record.UUID)
		if err != nil {
			return err
		}
		if exists {
			return &ConflictError{UUID: record.UUID}
		}
		if err := tx.Create(record).Error; err != nil {
			// a concurrent insert of the same uuid won the race
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return &ConflictError{UUID: record.UUID}
			}
			return fmt.Errorf("create server: %w", err)
		}
		return audit.LogAction(tx, actor, action, resourceName(record.UUID), details)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Server created", "uuid", record.UUID, "service_url", record.ServiceURL, "actor", actor, "action", action)

	server := protocol.FromPersisted(record)
	s.store(ctx, server)
	return &server, nil
}

// Delete removes a server by uuid.
func (s *ServerService) Delete(ctx context.Context, id uuid.UUID, actor string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("uuid = ?", id).Delete(&models.Server{})
		if result.Error != nil {
			return fmt.Errorf("delete server: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return audit.LogAction(tx, actor, audit.ActionDeleteServer, resourceName(id), nil)
	})
	if err != nil {
		return err
	}

	if err := s.cache.Delete(ctx, id); err != nil {
		slog.Warn("Failed to evict cached server", "uuid", id, "error", err)
	}
	slog.Info("Server deleted", "uuid", id, "actor", actor)
	return nil
}

// Import stores definitions read from files. Definitions must carry a uuid
// so that importing the same file twice is a no-op; servers that already
// exist are skipped rather than updated. Each stored server gets one
// import_server audit entry.
func (s *ServerService) Import(ctx context.Context, defs []serverfile.Definition, actor string) (*ImportResult, error) {
	result := &ImportResult{}
	for _, def := range defs {
		if def.Server.UUID == uuid.Nil {
			return result, &ValidationError{
				Field:   "uuid",
				Message: fmt.Sprintf("%s: server %q has no uuid", def.Path, def.Server.ServiceURL),
			}
		}

		_, err := s.create(ctx, def.Server, actor, audit.ActionImportServer, map[string]interface{}{
			"path": def.Path,
		})
		var conflict *ConflictError
		switch {
		case errors.As(err, &conflict):
			result.Skipped = append(result.Skipped, def.Server.UUID)
			slog.Debug("Server already present, skipping", "uuid", def.Server.UUID, "path", def.Path)
		case err != nil:
			return result, fmt.Errorf("%s: %w", def.Path, err)
		default:
			result.Created = append(result.Created, def.Server.UUID)
		}
	}
	return result, nil
}

func (s *ServerService) cached(ctx context.Context, id uuid.UUID) (*protocol.ServerConfig, bool) {
	data, ok, err := s.cache.Get(ctx, id)
	if err != nil {
		slog.Warn("Server cache lookup failed", "uuid", id, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var server protocol.ServerConfig
	if err := json.Unmarshal(data, &server); err != nil {
		slog.Warn("Discarding unreadable cache entry", "uuid", id, "error", err)
		return nil, false
	}
	return &server, true
}

func (s *ServerService) store(ctx context.Context, server protocol.ServerConfig) {
	data, err := json.Marshal(server)
	if err != nil {
		slog.Warn("Failed to encode server for cache", "uuid", server.UUID, "error", err)
		return
	}
	if err := s.cache.Set(ctx, server.UUID, data); err != nil {
		slog.Warn("Failed to cache server", "uuid", server.UUID, "error", err)
	}
}

func serverExists(tx *gorm.DB, id uuid.UUID) (bool, error) {
	var count int64
	if err := tx.Model(&models.Server{}).Where("uuid = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check server: %w", err)
	}
	return count > 0, nil
}

func resourceName(id uuid.UUID) string {
	return "server:" + id.String()
}
