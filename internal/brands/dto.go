package brands

import (
	"time"

	"github.com/google/uuid"

	"github.com/spooltrack/spooltrack-backend/pkg/db/models"
)

// AddBrandRequest carries the payload for adding a quick brand.
type AddBrandRequest struct {
	Brand string `json:"brand" validate:"required,max=120"`
}

// BrandDTO is the transport shape for a quick brand entry.
type BrandDTO struct {
	ID        uuid.UUID `json:"id"`
	Brand     string    `json:"brand"`
	CreatedAt time.Time `json:"created_at"`
}

func FromModel(b *models.QuickBrand) *BrandDTO {
	if b == nil {
		return nil
	}
	return &BrandDTO{
		ID:        b.ID,
		Brand:     b.Brand,
		CreatedAt: b.CreatedAt,
	}
}

func FromModels(rows []models.QuickBrand) []BrandDTO {
	out := make([]BrandDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
