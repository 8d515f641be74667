package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/spooltrack/spooltrack-backend/pkg/db/models"
	"github.com/spooltrack/spooltrack-backend/pkg/enums"
	pkgerrors "github.com/spooltrack/spooltrack-backend/pkg/errors"
)

type stubNotificationRepo struct {
	rows       []models.Notification
	markedRows int64
	markedAll  int64
	exists     bool
}

func (s *stubNotificationRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error) {
	return s.rows, nil
}

func (s *stubNotificationRepo) MarkRead(ctx context.Context, userID, notificationID uuid.UUID, at time.Time) (int64, error) {
	return s.markedRows, nil
}

func (s *stubNotificationRepo) MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	return s.markedAll, nil
}

func (s *stubNotificationRepo) FindByIDForUser(ctx context.Context, userID, notificationID uuid.UUID) (*models.Notification, error) {
	if s.exists {
		return &models.Notification{ID: notificationID, UserID: userID}, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func TestListReturnsDTOs(t *testing.T) {
	readAt := time.Now().UTC()
	repo := &stubNotificationRepo{rows: []models.Notification{
		{ID: uuid.New(), Kind: enums.NotificationKindLowStock, Title: "Low filament", Body: "150g left"},
		{ID: uuid.New(), Kind: enums.NotificationKindSystem, Title: "Welcome", ReadAt: &readAt},
	}}
	svc, err := NewService(ServiceParams{NotificationRepo: repo})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	out, err := svc.List(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(out))
	}
	if out[0].Kind != enums.NotificationKindLowStock || out[0].ReadAt != nil {
		t.Fatalf("unexpected first notification: %+v", out[0])
	}
	if out[1].ReadAt == nil {
		t.Fatalf("read timestamp should pass through")
	}
}

func TestMarkReadStampsUnread(t *testing.T) {
	svc, _ := NewService(ServiceParams{NotificationRepo: &stubNotificationRepo{markedRows: 1}})

	if err := svc.MarkRead(context.Background(), uuid.New(), uuid.New()); err != nil {
		t.Fatalf("mark read: %v", err)
	}
}

func TestMarkReadIsIdempotentForAlreadyRead(t *testing.T) {
	svc, _ := NewService(ServiceParams{NotificationRepo: &stubNotificationRepo{markedRows: 0, exists: true}})

	if err := svc.MarkRead(context.Background(), uuid.New(), uuid.New()); err != nil {
		t.Fatalf("already-read mark should succeed, got %v", err)
	}
}

func TestMarkReadUnknownNotificationIsNotFound(t *testing.T) {
	svc, _ := NewService(ServiceParams{NotificationRepo: &stubNotificationRepo{markedRows: 0, exists: false}})

	err := svc.MarkRead(context.Background(), uuid.New(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMarkAllReadReportsCount(t *testing.T) {
	svc, _ := NewService(ServiceParams{NotificationRepo: &stubNotificationRepo{markedAll: 4}})

	resp, err := svc.MarkAllRead(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("mark all read: %v", err)
	}
	if resp.Marked != 4 {
		t.Fatalf("expected 4 marked, got %d", resp.Marked)
	}
}
