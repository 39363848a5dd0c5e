package audit

import (
	"encoding/json"
	"time"

	"github.com/signald/serverconf/internal/models"
	"gorm.io/gorm"
)

// LogAction records an audit log entry
func LogAction(db *gorm.DB, actor, action, resource string, details interface{}) error {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		detailsJSON = []byte("{}")
	}

	log := models.AuditLog{
		Actor:       actor,
		Action:      action,
		Resource:    resource,
		DetailsJSON: string(detailsJSON),
		Timestamp:   time.Now(),
	}

	return db.Create(&log).Error
}

// Audit actions constants
const (
	ActionCreateServer = "create_server"
	ActionDeleteServer = "delete_server"
	ActionImportServer = "import_server"
)
