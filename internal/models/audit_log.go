package models

import (
	"time"
)

// AuditLog records a change made to the server registry
type AuditLog struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	Actor       string    `gorm:"index;not null" json:"actor"`   // token subject, or "cli"/"seed"
	Action      string    `gorm:"not null" json:"action"`        // e.g., "create_server", "delete_server"
	Resource    string    `gorm:"not null" json:"resource"`      // e.g., "server:<uuid>"
	DetailsJSON string    `gorm:"type:text" json:"details_json"` // Additional context in JSON
	Timestamp   time.Time `gorm:"not null;index" json:"timestamp"`
}
