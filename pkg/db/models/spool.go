package models

import (
	"time"

	"github.com/google/uuid"
)

// Spool tracks one physical filament spool owned by a user.
//
// TotalWeight is fixed at creation; RemainingWeight only moves through the
// ledger (print consumption) or an explicit manual correction.
type Spool struct {
	ID              uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	Material        string    `gorm:"type:text;not null"`
	ColorName       string    `gorm:"column:color_name;type:text;not null"`
	Color           string    `gorm:"type:text;not null"`
	Brand           string    `gorm:"type:text;not null"`
	TotalWeight     float64   `gorm:"column:total_weight;not null"`
	RemainingWeight float64   `gorm:"column:remaining_weight;not null"`
	Price           float64   `gorm:"not null;default:0"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
