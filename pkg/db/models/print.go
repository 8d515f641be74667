package models

import (
	"time"

	"github.com/google/uuid"
)

// Print is the immutable header row of one recorded print job.
//
// Material, Brand, ColorName, Color, WeightUsed, and Cost describe the first
// line item so single-spool history reads need no join; they are snapshots
// taken at record time and never follow later spool edits.
type Print struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index"`
	Name       string     `gorm:"type:text;not null"`
	SpoolID    *uuid.UUID `gorm:"column:spool_id;type:uuid"`
	Material   string     `gorm:"type:text;not null"`
	Brand      string     `gorm:"type:text;not null"`
	ColorName  string     `gorm:"column:color_name;type:text;not null"`
	Color      string     `gorm:"type:text;not null"`
	WeightUsed float64    `gorm:"column:weight_used;not null"`
	Cost       float64    `gorm:"not null"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`

	Filaments []PrintFilament `gorm:"foreignKey:PrintID"`
}
