package spools

import (
	"context"

	"github.com/google/uuid"
	"github.com/spooltrack/spooltrack-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository exposes spool persistence operations. Every query is scoped to
// the owning user.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a spools repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListByUser returns the user's spools, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Spool, error) {
	var spools []models.Spool
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&spools).Error; err != nil {
		return nil, err
	}
	return spools, nil
}

// FindByIDForUser loads one spool scoped to the owner.
func (r *Repository) FindByIDForUser(ctx context.Context, userID, spoolID uuid.UUID) (*models.Spool, error) {
	var spool models.Spool
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", spoolID, userID).
		First(&spool).Error; err != nil {
		return nil, err
	}
	return &spool, nil
}

// Create inserts a new spool row.
func (r *Repository) Create(ctx context.Context, spool *models.Spool) error {
	return r.db.WithContext(ctx).Create(spool).Error
}

// UpdateFields applies a scoped partial update and reports the rows touched.
// total_weight is never part of updates; it is fixed at creation.
func (r *Repository) UpdateFields(ctx context.Context, userID, spoolID uuid.UUID, updates map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Spool{}).
		Where("id = ? AND user_id = ?", spoolID, userID).
		Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// SetRemaining performs the scoped manual-correction update.
func (r *Repository) SetRemaining(ctx context.Context, userID, spoolID uuid.UUID, newRemaining float64) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Spool{}).
		Where("id = ? AND user_id = ?", spoolID, userID).
		Update("remaining_weight", newRemaining)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// Delete removes the spool. Historical line items keep a nulled spool
// reference via the FK's ON DELETE SET NULL.
func (r *Repository) Delete(ctx context.Context, userID, spoolID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", spoolID, userID).
		Delete(&models.Spool{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

type statsRow struct {
	SpoolCount        int64
	TotalRemaining    float64
	DistinctMaterials int64
	ResidualValue     float64
	TotalSpent        float64
}

// Stats computes the per-user inventory aggregate in one query.
func (r *Repository) Stats(ctx context.Context, userID uuid.UUID) (*StatsDTO, error) {
	var row statsRow
	err := r.db.WithContext(ctx).
		Model(&models.Spool{}).
		Select(`COUNT(*) AS spool_count,
			COALESCE(SUM(remaining_weight), 0) AS total_remaining,
			COUNT(DISTINCT material) AS distinct_materials,
			COALESCE(SUM(CASE WHEN total_weight > 0 THEN remaining_weight / total_weight * price ELSE 0 END), 0) AS residual_value,
			COALESCE(SUM(price), 0) AS total_spent`).
		Where("user_id = ?", userID).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &StatsDTO{
		SpoolCount:        row.SpoolCount,
		TotalRemaining:    row.TotalRemaining,
		DistinctMaterials: row.DistinctMaterials,
		ResidualValue:     row.ResidualValue,
		TotalSpent:        row.TotalSpent,
	}, nil
}
