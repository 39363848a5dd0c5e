package handlers

import (
	"net/http"
	"runtime"

	"github.com/gin-gonic/gin"
	"github.com/signald/serverconf/internal/db"
	"gorm.io/gorm"
)

// InfoHandler handles instance info requests
type InfoHandler struct {
	db *gorm.DB
}

// NewInfoHandler creates a new InfoHandler
func NewInfoHandler(database *gorm.DB) *InfoHandler {
	return &InfoHandler{db: database}
}

// InfoResponse represents the instance info response
type InfoResponse struct {
	InstanceID string `json:"instance_id"`
	Version    string `json:"version"`
	GoVersion  string `json:"go_version"`
	OS         string `json:"os"`
	Arch       string `json:"arch"`
}

// GetInfo godoc
// @Summary Get instance information
// @Description Returns the unique instance ID and version
// @Tags system
// @Produce json
// @Success 200 {object} InfoResponse
// @Failure 500 {object} ErrorResponse
// @Router /info [get]
func (h *InfoHandler) GetInfo(c *gin.Context) {
	instanceID, err := db.GetInstanceID(h.db)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Failed to retrieve instance ID",
		})
		return
	}

	c.JSON(http.StatusOK, InfoResponse{
		InstanceID: instanceID,
		Version:    Version,
		GoVersion:  runtime.Version(),
		OS:         runtime.GOOS,
		Arch:       runtime.GOARCH,
	})
}
