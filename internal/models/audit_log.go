package models

import (
	"time"

	"gorm.io/datatypes"
)

type AuditLog struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	ActorID   *uint          `gorm:"index" json:"actor_id,omitempty"`
	Action    string         `gorm:"size:255;not null" json:"action"`
	Data      datatypes.JSON `json:"data"`
	CreatedAt time.Time      `json:"created_at"`
}
