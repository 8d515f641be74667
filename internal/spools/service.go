package spools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/spooltrack/spooltrack-backend/pkg/config"
	"github.com/spooltrack/spooltrack-backend/pkg/db/models"
	pkgerrors "github.com/spooltrack/spooltrack-backend/pkg/errors"
)

// Service defines the behavior needed by the spools controller.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]SpoolDTO, error)
	Create(ctx context.Context, userID uuid.UUID, req CreateSpoolRequest) (*SpoolDTO, error)
	Update(ctx context.Context, userID, spoolID uuid.UUID, req UpdateSpoolRequest) (*SpoolDTO, error)
	AdjustRemaining(ctx context.Context, userID, spoolID uuid.UUID, newRemaining float64) (*SpoolDTO, error)
	Delete(ctx context.Context, userID, spoolID uuid.UUID) error
	Stats(ctx context.Context, userID uuid.UUID) (*StatsDTO, error)
}

type spoolRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Spool, error)
	FindByIDForUser(ctx context.Context, userID, spoolID uuid.UUID) (*models.Spool, error)
	Create(ctx context.Context, spool *models.Spool) error
	UpdateFields(ctx context.Context, userID, spoolID uuid.UUID, updates map[string]any) (int64, error)
	SetRemaining(ctx context.Context, userID, spoolID uuid.UUID, newRemaining float64) (int64, error)
	Delete(ctx context.Context, userID, spoolID uuid.UUID) (int64, error)
	Stats(ctx context.Context, userID uuid.UUID) (*StatsDTO, error)
}

type brandUpserter interface {
	Upsert(ctx context.Context, userID uuid.UUID, brand string) (*models.QuickBrand, error)
}

type lowStockNotifier interface {
	NotifyLowStock(ctx context.Context, spool models.Spool, remaining float64)
	ClearLowStock(ctx context.Context, spoolID uuid.UUID)
}

type service struct {
	spools    spoolRepository
	brands    brandUpserter
	notifier  lowStockNotifier
	inventory config.InventoryConfig
}

// ServiceParams bundles the dependencies required to build a spools service.
type ServiceParams struct {
	SpoolRepo spoolRepository
	BrandRepo brandUpserter
	Notifier  lowStockNotifier
	Inventory config.InventoryConfig
}

// NewService constructs a spools service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.SpoolRepo == nil {
		return nil, fmt.Errorf("spool repository is required")
	}
	if params.BrandRepo == nil {
		return nil, fmt.Errorf("brand repository is required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier is required")
	}
	return &service{
		spools:    params.SpoolRepo,
		brands:    params.BrandRepo,
		notifier:  params.Notifier,
		inventory: params.Inventory,
	}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]SpoolDTO, error) {
	rows, err := s.spools.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list spools")
	}
	return FromModels(rows), nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, req CreateSpoolRequest) (*SpoolDTO, error) {
	if req.TotalWeight <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total_weight must be greater than zero")
	}
	if req.Price < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}

	remaining := req.TotalWeight
	if req.RemainingWeight != nil {
		remaining = *req.RemainingWeight
	}
	if remaining < 0 || remaining > req.TotalWeight {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "remaining_weight must be between 0 and total_weight")
	}

	spool := &models.Spool{
		UserID:          userID,
		Material:        strings.TrimSpace(req.Material),
		ColorName:       strings.TrimSpace(req.ColorName),
		Color:           strings.TrimSpace(req.Color),
		Brand:           strings.TrimSpace(req.Brand),
		TotalWeight:     req.TotalWeight,
		RemainingWeight: remaining,
		Price:           req.Price,
	}
	if spool.Material == "" || spool.ColorName == "" || spool.Color == "" || spool.Brand == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "material, color_name, color, and brand are required")
	}

	if err := s.spools.Create(ctx, spool); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create spool")
	}

	if _, err := s.brands.Upsert(ctx, userID, spool.Brand); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "upsert quick brand")
	}

	return FromModel(spool), nil
}

func (s *service) Update(ctx context.Context, userID, spoolID uuid.UUID, req UpdateSpoolRequest) (*SpoolDTO, error) {
	if req.Price < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}

	spool, err := s.findSpool(ctx, userID, spoolID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{
		"material":   strings.TrimSpace(req.Material),
		"color_name": strings.TrimSpace(req.ColorName),
		"color":      strings.TrimSpace(req.Color),
		"brand":      strings.TrimSpace(req.Brand),
		"price":      req.Price,
	}
	if req.RemainingWeight != nil {
		remaining := *req.RemainingWeight
		if remaining < 0 || remaining > spool.TotalWeight {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "remaining_weight must be between 0 and total_weight")
		}
		updates["remaining_weight"] = remaining
	}

	affected, err := s.spools.UpdateFields(ctx, userID, spoolID, updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update spool")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "spool not found")
	}

	updated, err := s.findSpool(ctx, userID, spoolID)
	if err != nil {
		return nil, err
	}

	if brand, ok := updates["brand"].(string); ok && brand != "" {
		if _, err := s.brands.Upsert(ctx, userID, brand); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "upsert quick brand")
		}
	}

	if req.RemainingWeight != nil {
		s.maybeNotify(ctx, *updated, updated.RemainingWeight)
	}
	return FromModel(updated), nil
}

// AdjustRemaining is the manual correction path (drying, respooling,
// weighing). Out-of-range corrections are rejected, not clamped.
func (s *service) AdjustRemaining(ctx context.Context, userID, spoolID uuid.UUID, newRemaining float64) (*SpoolDTO, error) {
	spool, err := s.findSpool(ctx, userID, spoolID)
	if err != nil {
		return nil, err
	}
	if newRemaining < 0 || newRemaining > spool.TotalWeight {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "remaining_weight must be between 0 and total_weight")
	}

	affected, err := s.spools.SetRemaining(ctx, userID, spoolID, newRemaining)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "set remaining weight")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "spool not found")
	}

	spool.RemainingWeight = newRemaining
	s.maybeNotify(ctx, *spool, newRemaining)
	return FromModel(spool), nil
}

func (s *service) Delete(ctx context.Context, userID, spoolID uuid.UUID) error {
	affected, err := s.spools.Delete(ctx, userID, spoolID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete spool")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "spool not found")
	}
	return nil
}

func (s *service) Stats(ctx context.Context, userID uuid.UUID) (*StatsDTO, error) {
	stats, err := s.spools.Stats(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "compute stats")
	}
	return stats, nil
}

func (s *service) findSpool(ctx context.Context, userID, spoolID uuid.UUID) (*models.Spool, error) {
	spool, err := s.spools.FindByIDForUser(ctx, userID, spoolID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "spool not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup spool")
	}
	return spool, nil
}

// maybeNotify alerts at or below the threshold; a correction back above it
// clears the alert dedupe mark so the next crossing fires again.
func (s *service) maybeNotify(ctx context.Context, spool models.Spool, remaining float64) {
	if remaining <= s.inventory.LowStockThresholdGrams {
		s.notifier.NotifyLowStock(ctx, spool, remaining)
		return
	}
	s.notifier.ClearLowStock(ctx, spool.ID)
}
