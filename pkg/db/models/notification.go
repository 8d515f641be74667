package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/spooltrack/spooltrack-backend/pkg/enums"
)

// Notification stores in-app notification payloads scoped to users.
type Notification struct {
	ID        uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index"`
	Kind      enums.NotificationKind `gorm:"type:text;not null"`
	Title     string                 `gorm:"type:text;not null"`
	Body      string                 `gorm:"type:text;not null"`
	SpoolID   *uuid.UUID             `gorm:"column:spool_id;type:uuid"`
	ReadAt    *time.Time             `gorm:"column:read_at"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
}
