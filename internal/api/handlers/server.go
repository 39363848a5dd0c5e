package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/signald/serverconf/internal/auth"
	"github.com/signald/serverconf/internal/models"
	"github.com/signald/serverconf/internal/protocol"
	"github.com/signald/serverconf/internal/service"
)

// ServerStore is the part of service.ServerService the handlers need
type ServerStore interface {
	List(ctx context.Context) ([]protocol.ServerConfig, error)
	Get(ctx context.Context, id uuid.UUID) (*protocol.ServerConfig, error)
	Create(ctx context.Context, cfg protocol.ServerConfig, actor string) (*protocol.ServerConfig, error)
	Delete(ctx context.Context, id uuid.UUID, actor string) error
}

// ServerHandler serves the server registry
type ServerHandler struct {
	store ServerStore
}

// NewServerHandler creates a new ServerHandler
func NewServerHandler(store ServerStore) *ServerHandler {
	return &ServerHandler{store: store}
}

// ListServers godoc
// @Summary List all registered servers
// @Tags servers
// @Produce json
// @Success 200 {array} protocol.ServerConfig
// @Failure 500 {object} ErrorResponse
// @Router /servers [get]
func (h *ServerHandler) ListServers(c *gin.Context) {
	servers, err := h.store.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, servers)
}

// GetServer godoc
// @Summary Get a server by uuid
// @Tags servers
// @Produce json
// @Param uuid path string true "Server UUID"
// @Success 200 {object} protocol.ServerConfig
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /servers/{uuid} [get]
func (h *ServerHandler) GetServer(c *gin.Context) {
	id, ok := parseUUID(c)
	if !ok {
		return
	}
	server, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, server)
}

// CreateServer godoc
// @Summary Register a server
// @Description Binary fields are standard base64. A missing uuid is generated.
// @Tags servers
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param server body protocol.ServerConfig true "Server configuration"
// @Success 201 {object} protocol.ServerConfig
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /servers [post]
func (h *ServerHandler) CreateServer(c *gin.Context) {
	var req protocol.ServerConfig
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	server, err := h.store.Create(c.Request.Context(), req, auth.ActorFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, server)
}

// DeleteServer godoc
// @Summary Delete a server
// @Tags servers
// @Security BearerAuth
// @Param uuid path string true "Server UUID"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /servers/{uuid} [delete]
func (h *ServerHandler) DeleteServer(c *gin.Context) {
	id, ok := parseUUID(c)
	if !ok {
		return
	}
	if err := h.store.Delete(c.Request.Context(), id, auth.ActorFromContext(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseUUID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid server uuid", Field: "uuid"})
		return uuid.Nil, false
	}
	return id, true
}

// writeError maps service and conversion errors to HTTP responses.
func writeError(c *gin.Context, err error) {
	var (
		decodeErr       *protocol.DecodeError
		proxyErr        *protocol.InvalidProxyError
		constructionErr *protocol.ConstructionError
		validationErr   *service.ValidationError
		conflictErr     *service.ConflictError
	)

	switch {
	case errors.As(err, &decodeErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Field: decodeErr.Field})
	case errors.As(err, &proxyErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Field: "proxy"})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Field: validationErr.Field})
	case errors.As(err, &constructionErr) && errors.Is(err, models.ErrInvalidServer):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Server not found"})
	default:
		slog.Error("Server request failed", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
	}
}
