package brands

import (
	"context"

	"github.com/google/uuid"
	"github.com/spooltrack/spooltrack-backend/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository exposes quick-brand persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a brands repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListByUser returns the user's quick brands sorted alphabetically.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.QuickBrand, error) {
	var brands []models.QuickBrand
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("brand ASC").
		Find(&brands).Error; err != nil {
		return nil, err
	}
	return brands, nil
}

// Upsert inserts the brand for the user, ignoring the row if it already exists.
func (r *Repository) Upsert(ctx context.Context, userID uuid.UUID, brand string) (*models.QuickBrand, error) {
	row := &models.QuickBrand{
		UserID: userID,
		Brand:  brand,
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "brand"}},
			DoNothing: true,
		}).
		Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// Delete removes the brand entry scoped to the user. Returns the number of
// rows removed so callers can distinguish a no-op delete.
func (r *Repository) Delete(ctx context.Context, userID uuid.UUID, brand string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND brand = ?", userID, brand).
		Delete(&models.QuickBrand{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
