package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/spooltrack/spooltrack-backend/internal/notifications"
	pkgerrors "github.com/spooltrack/spooltrack-backend/pkg/errors"
)

type stubNotificationsService struct {
	listResp    []notifications.NotificationDTO
	markErr     error
	markAllResp *notifications.MarkAllReadResponse
	err         error

	markedID uuid.UUID
}

func (s *stubNotificationsService) List(ctx context.Context, userID uuid.UUID) ([]notifications.NotificationDTO, error) {
	return s.listResp, s.err
}

func (s *stubNotificationsService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	s.markedID = notificationID
	return s.markErr
}

func (s *stubNotificationsService) MarkAllRead(ctx context.Context, userID uuid.UUID) (*notifications.MarkAllReadResponse, error) {
	return s.markAllResp, s.err
}

func TestListNotificationsReturnsRows(t *testing.T) {
	now := time.Now()
	svc := &stubNotificationsService{listResp: []notifications.NotificationDTO{
		{ID: uuid.New(), Title: "Low filament: Prusament PLA Galaxy Black", CreatedAt: now},
	}}

	req := authedRequest(t, http.MethodGet, "/api/v1/notifications", nil, uuid.New())
	resp := httptest.NewRecorder()

	ListNotifications(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data struct {
			Notifications []notifications.NotificationDTO `json:"notifications"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Notifications) != 1 {
		t.Fatalf("unexpected payload: %+v", envelope.Data)
	}
}

func TestMarkNotificationReadPassesID(t *testing.T) {
	notificationID := uuid.New()
	svc := &stubNotificationsService{}

	req := authedRequest(t, http.MethodPost, "/api/v1/notifications/"+notificationID.String()+"/read", nil, uuid.New())
	req = withURLParam(req, "notificationId", notificationID.String())
	resp := httptest.NewRecorder()

	MarkNotificationRead(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.markedID != notificationID {
		t.Fatalf("expected mark for %s, got %s", notificationID, svc.markedID)
	}
}

func TestMarkNotificationReadInvalidID(t *testing.T) {
	req := authedRequest(t, http.MethodPost, "/api/v1/notifications/nope/read", nil, uuid.New())
	req = withURLParam(req, "notificationId", "nope")
	resp := httptest.NewRecorder()

	MarkNotificationRead(&stubNotificationsService{}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestMarkNotificationReadUnknownID(t *testing.T) {
	notificationID := uuid.New()
	svc := &stubNotificationsService{markErr: pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")}

	req := authedRequest(t, http.MethodPost, "/api/v1/notifications/"+notificationID.String()+"/read", nil, uuid.New())
	req = withURLParam(req, "notificationId", notificationID.String())
	resp := httptest.NewRecorder()

	MarkNotificationRead(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestMarkAllNotificationsReadReturnsCount(t *testing.T) {
	svc := &stubNotificationsService{markAllResp: &notifications.MarkAllReadResponse{Marked: 3}}

	req := authedRequest(t, http.MethodPost, "/api/v1/notifications/read-all", nil, uuid.New())
	resp := httptest.NewRecorder()

	MarkAllNotificationsRead(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data notifications.MarkAllReadResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Marked != 3 {
		t.Fatalf("expected 3 marked, got %d", envelope.Data.Marked)
	}
}
