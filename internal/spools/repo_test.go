package spools

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/spooltrack/spooltrack-backend/pkg/db/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:spools_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.User{}, &models.Spool{}, &models.QuickBrand{}))
	return conn
}

func mustCreateTestUser(t *testing.T, conn *gorm.DB) *models.User {
	t.Helper()
	user := &models.User{
		ID:           uuid.New(),
		Username:     fmt.Sprintf("st_test_%s", uuid.NewString()),
		Email:        fmt.Sprintf("st_test_%s@example.com", uuid.NewString()),
		PasswordHash: "hash",
		IsActive:     true,
	}
	require.NoError(t, conn.Create(user).Error)
	return user
}

func mustCreateTestSpool(t *testing.T, conn *gorm.DB, userID uuid.UUID, remaining float64) *models.Spool {
	t.Helper()
	spool := &models.Spool{
		ID:              uuid.New(),
		UserID:          userID,
		Material:        "PLA",
		ColorName:       "Galaxy Black",
		Color:           "#111111",
		Brand:           "Prusament",
		TotalWeight:     1000,
		RemainingWeight: remaining,
		Price:           20,
	}
	require.NoError(t, conn.Create(spool).Error)
	return spool
}

func TestRepositoryListNewestFirst(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	user := mustCreateTestUser(t, conn)

	older := mustCreateTestSpool(t, conn, user.ID, 1000)
	require.NoError(t, conn.Model(older).UpdateColumn("created_at", time.Now().Add(-time.Hour)).Error)
	newer := mustCreateTestSpool(t, conn, user.ID, 500)

	listed, err := repo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	require.Equal(t, newer.ID, listed[0].ID)
	require.Equal(t, older.ID, listed[1].ID)
}

func TestRepositoryScopedFindRejectsOtherOwner(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	owner := mustCreateTestUser(t, conn)
	stranger := mustCreateTestUser(t, conn)
	spool := mustCreateTestSpool(t, conn, owner.ID, 800)

	found, err := repo.FindByIDForUser(ctx, owner.ID, spool.ID)
	require.NoError(t, err)
	require.Equal(t, spool.ID, found.ID)

	_, err = repo.FindByIDForUser(ctx, stranger.ID, spool.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositorySetRemainingIsScoped(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	owner := mustCreateTestUser(t, conn)
	stranger := mustCreateTestUser(t, conn)
	spool := mustCreateTestSpool(t, conn, owner.ID, 800)

	affected, err := repo.SetRemaining(ctx, stranger.ID, spool.ID, 100)
	require.NoError(t, err)
	require.Zero(t, affected)

	affected, err = repo.SetRemaining(ctx, owner.ID, spool.ID, 100)
	require.NoError(t, err)
	require.EqualValues(t, 1, affected)

	reloaded, err := repo.FindByIDForUser(ctx, owner.ID, spool.ID)
	require.NoError(t, err)
	require.Equal(t, 100.0, reloaded.RemainingWeight)
}

func TestRepositoryUpdateFieldsLeavesTotalWeightAlone(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	user := mustCreateTestUser(t, conn)
	spool := mustCreateTestSpool(t, conn, user.ID, 800)

	affected, err := repo.UpdateFields(ctx, user.ID, spool.ID, map[string]any{
		"brand": "Overture",
		"price": 30.0,
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, affected)

	reloaded, err := repo.FindByIDForUser(ctx, user.ID, spool.ID)
	require.NoError(t, err)
	require.Equal(t, "Overture", reloaded.Brand)
	require.Equal(t, 30.0, reloaded.Price)
	require.Equal(t, 1000.0, reloaded.TotalWeight)
}

func TestRepositoryDeleteIsScoped(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	owner := mustCreateTestUser(t, conn)
	stranger := mustCreateTestUser(t, conn)
	spool := mustCreateTestSpool(t, conn, owner.ID, 800)

	affected, err := repo.Delete(ctx, stranger.ID, spool.ID)
	require.NoError(t, err)
	require.Zero(t, affected)

	affected, err = repo.Delete(ctx, owner.ID, spool.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, affected)
}

func TestRepositoryStatsAggregates(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	user := mustCreateTestUser(t, conn)

	// 1000g total / 500g left at $20 -> residual $10
	mustCreateTestSpool(t, conn, user.ID, 500)
	petg := &models.Spool{
		ID:              uuid.New(),
		UserID:          user.ID,
		Material:        "PETG",
		ColorName:       "Clear",
		Color:           "#eeeeee",
		Brand:           "Overture",
		TotalWeight:     750,
		RemainingWeight: 750,
		Price:           30,
	}
	require.NoError(t, conn.Create(petg).Error)

	stats, err := repo.Stats(ctx, user.ID)
	require.NoError(t, err)
	require.EqualValues(t, 2, stats.SpoolCount)
	require.InDelta(t, 1250, stats.TotalRemaining, 1e-9)
	require.EqualValues(t, 2, stats.DistinctMaterials)
	require.InDelta(t, 40, stats.ResidualValue, 1e-9)
	require.InDelta(t, 50, stats.TotalSpent, 1e-9)
}

func TestRepositoryStatsEmptyUser(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)

	stats, err := repo.Stats(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Zero(t, stats.SpoolCount)
	require.Zero(t, stats.TotalRemaining)
}
