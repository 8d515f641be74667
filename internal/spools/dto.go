package spools

import (
	"time"

	"github.com/google/uuid"

	"github.com/spooltrack/spooltrack-backend/pkg/db/models"
)

// CreateSpoolRequest carries the payload for adding a spool to inventory.
// RemainingWeight defaults to TotalWeight when omitted.
type CreateSpoolRequest struct {
	Material        string   `json:"material" validate:"required,max=80"`
	ColorName       string   `json:"color_name" validate:"required,max=80"`
	Color           string   `json:"color" validate:"required,max=40"`
	Brand           string   `json:"brand" validate:"required,max=120"`
	TotalWeight     float64  `json:"total_weight" validate:"required,gt=0"`
	RemainingWeight *float64 `json:"remaining_weight,omitempty" validate:"omitempty,gte=0"`
	Price           float64  `json:"price" validate:"gte=0"`
}

// UpdateSpoolRequest updates spool metadata. RemainingWeight, when present,
// is a manual correction and goes through the same range checks and low-stock
// notification as AdjustRemaining.
type UpdateSpoolRequest struct {
	Material        string   `json:"material" validate:"required,max=80"`
	ColorName       string   `json:"color_name" validate:"required,max=80"`
	Color           string   `json:"color" validate:"required,max=40"`
	Brand           string   `json:"brand" validate:"required,max=120"`
	Price           float64  `json:"price" validate:"gte=0"`
	RemainingWeight *float64 `json:"remaining_weight,omitempty" validate:"omitempty,gte=0"`
}

// AdjustRemainingRequest carries a manual remaining-weight correction.
type AdjustRemainingRequest struct {
	RemainingWeight *float64 `json:"remaining_weight" validate:"required,gte=0"`
}

// SpoolDTO is the transport shape for a spool.
type SpoolDTO struct {
	ID              uuid.UUID `json:"id"`
	Material        string    `json:"material"`
	ColorName       string    `json:"color_name"`
	Color           string    `json:"color"`
	Brand           string    `json:"brand"`
	TotalWeight     float64   `json:"total_weight"`
	RemainingWeight float64   `json:"remaining_weight"`
	Price           float64   `json:"price"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// StatsDTO aggregates the user's inventory.
type StatsDTO struct {
	SpoolCount        int64   `json:"spool_count"`
	TotalRemaining    float64 `json:"total_remaining_weight"`
	DistinctMaterials int64   `json:"distinct_materials"`
	ResidualValue     float64 `json:"residual_value"`
	TotalSpent        float64 `json:"total_spent"`
}

func FromModel(s *models.Spool) *SpoolDTO {
	if s == nil {
		return nil
	}
	return &SpoolDTO{
		ID:              s.ID,
		Material:        s.Material,
		ColorName:       s.ColorName,
		Color:           s.Color,
		Brand:           s.Brand,
		TotalWeight:     s.TotalWeight,
		RemainingWeight: s.RemainingWeight,
		Price:           s.Price,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

func FromModels(rows []models.Spool) []SpoolDTO {
	out := make([]SpoolDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
