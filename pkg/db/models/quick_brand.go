package models

import (
	"time"

	"github.com/google/uuid"
)

// QuickBrand is a user-scoped brand shortcut offered in spool forms.
type QuickBrand struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_quick_brands_user_brand"`
	Brand     string    `gorm:"type:text;not null;uniqueIndex:idx_quick_brands_user_brand"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
