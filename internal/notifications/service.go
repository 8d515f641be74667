package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/spooltrack/spooltrack-backend/pkg/db/models"
	"github.com/spooltrack/spooltrack-backend/pkg/enums"
	pkgerrors "github.com/spooltrack/spooltrack-backend/pkg/errors"
)

// NotificationDTO is the transport shape for an in-app notification.
type NotificationDTO struct {
	ID        uuid.UUID              `json:"id"`
	Kind      enums.NotificationKind `json:"kind"`
	Title     string                 `json:"title"`
	Body      string                 `json:"body"`
	SpoolID   *uuid.UUID             `json:"spool_id,omitempty"`
	ReadAt    *time.Time             `json:"read_at,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// MarkAllReadResponse reports how many notifications were stamped.
type MarkAllReadResponse struct {
	Marked int64 `json:"marked"`
}

// Service defines the behavior needed by the notifications controller.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]NotificationDTO, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (*MarkAllReadResponse, error)
}

type notificationRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID, at time.Time) (int64, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error)
	FindByIDForUser(ctx context.Context, userID, notificationID uuid.UUID) (*models.Notification, error)
}

// listLimit caps how many notifications one listing returns.
const listLimit = 100

type service struct {
	notifications notificationRepository
}

// ServiceParams bundles the dependencies required to build a notifications service.
type ServiceParams struct {
	NotificationRepo notificationRepository
}

// NewService constructs a notifications service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.NotificationRepo == nil {
		return nil, fmt.Errorf("notification repository is required")
	}
	return &service{notifications: params.NotificationRepo}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]NotificationDTO, error) {
	rows, err := s.notifications.ListByUser(ctx, userID, listLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list notifications")
	}
	out := make([]NotificationDTO, 0, len(rows))
	for i := range rows {
		out = append(out, fromModel(&rows[i]))
	}
	return out, nil
}

// MarkRead is idempotent: marking an already-read notification succeeds
// without moving its read timestamp.
func (s *service) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	affected, err := s.notifications.MarkRead(ctx, userID, notificationID, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark notification read")
	}
	if affected > 0 {
		return nil
	}

	if _, err := s.notifications.FindByIDForUser(ctx, userID, notificationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup notification")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) (*MarkAllReadResponse, error) {
	marked, err := s.notifications.MarkAllRead(ctx, userID, time.Now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark all notifications read")
	}
	return &MarkAllReadResponse{Marked: marked}, nil
}

func fromModel(n *models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:        n.ID,
		Kind:      n.Kind,
		Title:     n.Title,
		Body:      n.Body,
		SpoolID:   n.SpoolID,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}
