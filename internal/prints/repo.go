package prints

import (
	"context"

	"github.com/google/uuid"
	"github.com/spooltrack/spooltrack-backend/pkg/db/models"
	"github.com/spooltrack/spooltrack-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository exposes the ledger's persistence operations. Inside RecordPrint
// it is bound to the ledger transaction; for history reads it runs on the
// shared connection.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a prints repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindSpoolForUser loads one spool scoped to the owner.
func (r *Repository) FindSpoolForUser(ctx context.Context, userID, spoolID uuid.UUID) (*models.Spool, error) {
	var spool models.Spool
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", spoolID, userID).
		First(&spool).Error; err != nil {
		return nil, err
	}
	return &spool, nil
}

// DecrementRemaining applies the conditional stock decrement. The
// remaining_weight guard makes the read-validate-write sequence safe under
// concurrent prints: a stale availability check surfaces here as zero rows.
func (r *Repository) DecrementRemaining(ctx context.Context, userID, spoolID uuid.UUID, weight float64) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Spool{}).
		Where("id = ? AND user_id = ? AND remaining_weight >= ?", spoolID, userID, weight).
		Update("remaining_weight", gorm.Expr("remaining_weight - ?", weight))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// CreatePrint persists the print header together with its line items.
// Surrogate keys are assigned client-side so the created ids come back with
// the commit result.
func (r *Repository) CreatePrint(ctx context.Context, print *models.Print) error {
	if print.ID == uuid.Nil {
		print.ID = uuid.New()
	}
	for i := range print.Filaments {
		if print.Filaments[i].ID == uuid.Nil {
			print.Filaments[i].ID = uuid.New()
		}
	}
	return r.db.WithContext(ctx).Create(print).Error
}

// ListByUser returns one page of print history, newest first, with line
// items preloaded. Callers pass limit+1 to detect the next page.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Print, error) {
	query := r.db.WithContext(ctx).
		Preload("Filaments").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit)

	if cursor != nil {
		query = query.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var prints []models.Print
	if err := query.Find(&prints).Error; err != nil {
		return nil, err
	}
	return prints, nil
}
