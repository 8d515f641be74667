package prints

import (
	"time"

	"github.com/google/uuid"

	"github.com/spooltrack/spooltrack-backend/pkg/db/models"
)

// PrintItemRequest names one spool and how much filament the print consumed
// from it.
type PrintItemRequest struct {
	SpoolID    uuid.UUID `json:"spool_id" validate:"required"`
	WeightUsed float64   `json:"weight_used" validate:"required,gt=0"`
}

// RecordPrintRequest is the payload for logging a print job.
type RecordPrintRequest struct {
	Name  string             `json:"name" validate:"required,max=200"`
	Items []PrintItemRequest `json:"items" validate:"required,min=1,dive"`
}

// LineItemDTO is one immutable consumption line of a recorded print.
type LineItemDTO struct {
	ID         uuid.UUID  `json:"id"`
	SpoolID    *uuid.UUID `json:"spool_id,omitempty"`
	Material   string     `json:"material"`
	Brand      string     `json:"brand"`
	ColorName  string     `json:"color_name"`
	Color      string     `json:"color"`
	WeightUsed float64    `json:"weight_used"`
	Cost       float64    `json:"cost"`
}

// PrintDTO is the transport shape of a print record with its line items.
// WeightUsed and Cost are the totals across all line items.
type PrintDTO struct {
	ID         uuid.UUID     `json:"id"`
	Name       string        `json:"name"`
	SpoolID    *uuid.UUID    `json:"spool_id,omitempty"`
	Material   string        `json:"material"`
	Brand      string        `json:"brand"`
	ColorName  string        `json:"color_name"`
	Color      string        `json:"color"`
	WeightUsed float64       `json:"weight_used"`
	Cost       float64       `json:"cost"`
	CreatedAt  time.Time     `json:"created_at"`
	Items      []LineItemDTO `json:"items"`
}

// ListPrintsResponse is one cursor page of print history.
type ListPrintsResponse struct {
	Prints     []PrintDTO `json:"prints"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

func lineItemFromModel(f *models.PrintFilament) LineItemDTO {
	return LineItemDTO{
		ID:         f.ID,
		SpoolID:    f.SpoolID,
		Material:   f.Material,
		Brand:      f.Brand,
		ColorName:  f.ColorName,
		Color:      f.Color,
		WeightUsed: f.WeightUsed,
		Cost:       f.Cost,
	}
}

func FromModel(p *models.Print) *PrintDTO {
	if p == nil {
		return nil
	}
	items := make([]LineItemDTO, 0, len(p.Filaments))
	for i := range p.Filaments {
		items = append(items, lineItemFromModel(&p.Filaments[i]))
	}
	return &PrintDTO{
		ID:         p.ID,
		Name:       p.Name,
		SpoolID:    p.SpoolID,
		Material:   p.Material,
		Brand:      p.Brand,
		ColorName:  p.ColorName,
		Color:      p.Color,
		WeightUsed: p.WeightUsed,
		Cost:       p.Cost,
		CreatedAt:  p.CreatedAt,
		Items:      items,
	}
}
