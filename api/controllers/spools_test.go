package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/spooltrack/spooltrack-backend/api/middleware"
	"github.com/spooltrack/spooltrack-backend/internal/spools"
	pkgerrors "github.com/spooltrack/spooltrack-backend/pkg/errors"
)

type stubSpoolsService struct {
	listResp   []spools.SpoolDTO
	createResp *spools.SpoolDTO
	updateResp *spools.SpoolDTO
	adjustResp *spools.SpoolDTO
	statsResp  *spools.StatsDTO
	err        error

	adjustedTo float64
	deletedID  uuid.UUID
}

func (s *stubSpoolsService) List(ctx context.Context, userID uuid.UUID) ([]spools.SpoolDTO, error) {
	return s.listResp, s.err
}

func (s *stubSpoolsService) Create(ctx context.Context, userID uuid.UUID, req spools.CreateSpoolRequest) (*spools.SpoolDTO, error) {
	return s.createResp, s.err
}

func (s *stubSpoolsService) Update(ctx context.Context, userID, spoolID uuid.UUID, req spools.UpdateSpoolRequest) (*spools.SpoolDTO, error) {
	return s.updateResp, s.err
}

func (s *stubSpoolsService) AdjustRemaining(ctx context.Context, userID, spoolID uuid.UUID, newRemaining float64) (*spools.SpoolDTO, error) {
	s.adjustedTo = newRemaining
	return s.adjustResp, s.err
}

func (s *stubSpoolsService) Delete(ctx context.Context, userID, spoolID uuid.UUID) error {
	s.deletedID = spoolID
	return s.err
}

func (s *stubSpoolsService) Stats(ctx context.Context, userID uuid.UUID) (*spools.StatsDTO, error) {
	return s.statsResp, s.err
}

func authedRequest(t *testing.T, method, target string, body io.Reader, userID uuid.UUID) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req.WithContext(middleware.WithUserID(req.Context(), userID.String()))
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestSpoolListReturnsSpools(t *testing.T) {
	svc := &stubSpoolsService{listResp: []spools.SpoolDTO{
		{ID: uuid.New(), Material: "PLA", Brand: "Prusament", RemainingWeight: 750},
	}}

	req := authedRequest(t, http.MethodGet, "/api/v1/spools", nil, uuid.New())
	resp := httptest.NewRecorder()

	SpoolList(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data struct {
			Spools []spools.SpoolDTO `json:"spools"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Spools) != 1 || envelope.Data.Spools[0].Material != "PLA" {
		t.Fatalf("unexpected payload: %+v", envelope.Data)
	}
}

func TestSpoolListRequiresUserContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/spools", nil)
	resp := httptest.NewRecorder()

	SpoolList(&stubSpoolsService{}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestSpoolCreateReturnsCreated(t *testing.T) {
	created := &spools.SpoolDTO{ID: uuid.New(), Material: "PETG", TotalWeight: 1000, RemainingWeight: 1000}
	svc := &stubSpoolsService{createResp: created}

	payload := `{"material":"PETG","color_name":"Clear","color":"#eeeeee","brand":"Overture","total_weight":1000,"price":22}`
	req := authedRequest(t, http.MethodPost, "/api/v1/spools", bytes.NewReader([]byte(payload)), uuid.New())
	resp := httptest.NewRecorder()

	SpoolCreate(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
}

func TestSpoolCreateRejectsMissingFields(t *testing.T) {
	req := authedRequest(t, http.MethodPost, "/api/v1/spools", bytes.NewReader([]byte(`{"material":"PLA"}`)), uuid.New())
	resp := httptest.NewRecorder()

	SpoolCreate(&stubSpoolsService{}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestSpoolUpdateInvalidIDRejected(t *testing.T) {
	payload := `{"material":"PLA","color_name":"Black","color":"#000","brand":"eSUN","price":20}`
	req := authedRequest(t, http.MethodPut, "/api/v1/spools/not-a-uuid", bytes.NewReader([]byte(payload)), uuid.New())
	req = withURLParam(req, "spoolId", "not-a-uuid")
	resp := httptest.NewRecorder()

	SpoolUpdate(&stubSpoolsService{}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestSpoolAdjustRemainingPassesValue(t *testing.T) {
	spoolID := uuid.New()
	svc := &stubSpoolsService{adjustResp: &spools.SpoolDTO{ID: spoolID, RemainingWeight: 420}}

	req := authedRequest(t, http.MethodPatch, "/api/v1/spools/"+spoolID.String()+"/remaining", bytes.NewReader([]byte(`{"remaining_weight":420}`)), uuid.New())
	req = withURLParam(req, "spoolId", spoolID.String())
	resp := httptest.NewRecorder()

	SpoolAdjustRemaining(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.adjustedTo != 420 {
		t.Fatalf("expected adjustment to 420, got %v", svc.adjustedTo)
	}
}

func TestSpoolAdjustRemainingRequiresValue(t *testing.T) {
	spoolID := uuid.New()
	req := authedRequest(t, http.MethodPatch, "/api/v1/spools/"+spoolID.String()+"/remaining", bytes.NewReader([]byte(`{}`)), uuid.New())
	req = withURLParam(req, "spoolId", spoolID.String())
	resp := httptest.NewRecorder()

	SpoolAdjustRemaining(&stubSpoolsService{}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestSpoolDeleteNotFound(t *testing.T) {
	spoolID := uuid.New()
	svc := &stubSpoolsService{err: pkgerrors.New(pkgerrors.CodeNotFound, "spool not found")}

	req := authedRequest(t, http.MethodDelete, "/api/v1/spools/"+spoolID.String(), nil, uuid.New())
	req = withURLParam(req, "spoolId", spoolID.String())
	resp := httptest.NewRecorder()

	SpoolDelete(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestSpoolStatsReturnsAggregates(t *testing.T) {
	svc := &stubSpoolsService{statsResp: &spools.StatsDTO{SpoolCount: 4, TotalRemaining: 2300, ResidualValue: 51.5}}

	req := authedRequest(t, http.MethodGet, "/api/v1/stats", nil, uuid.New())
	resp := httptest.NewRecorder()

	SpoolStats(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data spools.StatsDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.SpoolCount != 4 || envelope.Data.ResidualValue != 51.5 {
		t.Fatalf("unexpected stats payload: %+v", envelope.Data)
	}
}
