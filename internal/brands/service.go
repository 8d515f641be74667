package brands

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spooltrack/spooltrack-backend/pkg/db/models"
	pkgerrors "github.com/spooltrack/spooltrack-backend/pkg/errors"
)

// DefaultBrands are seeded for every new account so the first spool form has
// sensible suggestions.
var DefaultBrands = []string{"Prusament", "Hatchbox", "eSUN", "Polymaker", "Overture"}

// Service defines the behavior needed by the brands controller.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]BrandDTO, error)
	Add(ctx context.Context, userID uuid.UUID, req AddBrandRequest) (*BrandDTO, error)
	Remove(ctx context.Context, userID uuid.UUID, brand string) error
}

type brandRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.QuickBrand, error)
	Upsert(ctx context.Context, userID uuid.UUID, brand string) (*models.QuickBrand, error)
	Delete(ctx context.Context, userID uuid.UUID, brand string) (int64, error)
}

type service struct {
	brands brandRepository
}

// ServiceParams bundles the dependencies required to build a brands service.
type ServiceParams struct {
	BrandRepo brandRepository
}

// NewService constructs a quick-brands service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.BrandRepo == nil {
		return nil, fmt.Errorf("brand repository is required")
	}
	return &service{brands: params.BrandRepo}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]BrandDTO, error) {
	rows, err := s.brands.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list quick brands")
	}
	return FromModels(rows), nil
}

func (s *service) Add(ctx context.Context, userID uuid.UUID, req AddBrandRequest) (*BrandDTO, error) {
	brand := strings.TrimSpace(req.Brand)
	if brand == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "brand is required")
	}

	row, err := s.brands.Upsert(ctx, userID, brand)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "upsert quick brand")
	}
	return FromModel(row), nil
}

func (s *service) Remove(ctx context.Context, userID uuid.UUID, brand string) error {
	brand = strings.TrimSpace(brand)
	if brand == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "brand is required")
	}

	removed, err := s.brands.Delete(ctx, userID, brand)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete quick brand")
	}
	if removed == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "brand not found")
	}
	return nil
}
