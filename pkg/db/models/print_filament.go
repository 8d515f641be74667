package models

import "github.com/google/uuid"

// PrintFilament is one consumption line item of a print. Descriptor columns
// are snapshots so history survives spool deletion (SpoolID goes null, the
// text stays).
type PrintFilament struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	PrintID    uuid.UUID  `gorm:"column:print_id;type:uuid;not null;index"`
	SpoolID    *uuid.UUID `gorm:"column:spool_id;type:uuid"`
	Material   string     `gorm:"type:text;not null"`
	Brand      string     `gorm:"type:text;not null"`
	ColorName  string     `gorm:"column:color_name;type:text;not null"`
	Color      string     `gorm:"type:text;not null"`
	WeightUsed float64    `gorm:"column:weight_used;not null"`
	Cost       float64    `gorm:"not null"`
}
