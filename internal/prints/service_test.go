package prints

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/spooltrack/spooltrack-backend/pkg/config"
	"github.com/spooltrack/spooltrack-backend/pkg/db/models"
	pkgerrors "github.com/spooltrack/spooltrack-backend/pkg/errors"
	"github.com/spooltrack/spooltrack-backend/pkg/pagination"
)

type stubTxRunner struct{}

func (s stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type decrementCall struct {
	spoolID uuid.UUID
	weight  float64
}

type stubLedgerStore struct {
	spools     map[uuid.UUID]*models.Spool
	decrements []decrementCall
	refuseAll  bool
	created    *models.Print
}

func newStubLedgerStore() *stubLedgerStore {
	return &stubLedgerStore{spools: map[uuid.UUID]*models.Spool{}}
}

func (s *stubLedgerStore) FindSpoolForUser(ctx context.Context, userID, spoolID uuid.UUID) (*models.Spool, error) {
	if sp, ok := s.spools[spoolID]; ok && sp.UserID == userID {
		clone := *sp
		return &clone, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubLedgerStore) DecrementRemaining(ctx context.Context, userID, spoolID uuid.UUID, weight float64) (int64, error) {
	if s.refuseAll {
		return 0, nil
	}
	sp, ok := s.spools[spoolID]
	if !ok || sp.UserID != userID || sp.RemainingWeight < weight {
		return 0, nil
	}
	sp.RemainingWeight -= weight
	s.decrements = append(s.decrements, decrementCall{spoolID: spoolID, weight: weight})
	return 1, nil
}

func (s *stubLedgerStore) CreatePrint(ctx context.Context, print *models.Print) error {
	print.ID = uuid.New()
	s.created = print
	return nil
}

type stubHistoryStore struct {
	rows []models.Print
}

func (s *stubHistoryStore) ListByUser(ctx context.Context, userID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Print, error) {
	if limit > len(s.rows) {
		limit = len(s.rows)
	}
	return s.rows[:limit], nil
}

type stubNotifier struct {
	calls []struct {
		spoolID   uuid.UUID
		remaining float64
	}
}

func (s *stubNotifier) NotifyLowStock(ctx context.Context, spool models.Spool, remaining float64) {
	s.calls = append(s.calls, struct {
		spoolID   uuid.UUID
		remaining float64
	}{spool.ID, remaining})
}

type ledgerTestSetup struct {
	service  Service
	store    *stubLedgerStore
	history  *stubHistoryStore
	notifier *stubNotifier
	userID   uuid.UUID
}

func newLedgerTestSetup(t *testing.T) *ledgerTestSetup {
	t.Helper()
	store := newStubLedgerStore()
	history := &stubHistoryStore{}
	notifier := &stubNotifier{}
	svc, err := NewService(ServiceParams{
		TxRunner: stubTxRunner{},
		StoreFactory: func(tx *gorm.DB) ledgerStore {
			return store
		},
		History:   history,
		Notifier:  notifier,
		Inventory: config.InventoryConfig{LowStockThresholdGrams: 200},
		TxTimeout: 10 * time.Second,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &ledgerTestSetup{service: svc, store: store, history: history, notifier: notifier, userID: uuid.New()}
}

func (s *ledgerTestSetup) addSpool(t *testing.T, remaining, total, price float64) *models.Spool {
	t.Helper()
	spool := &models.Spool{
		ID:              uuid.New(),
		UserID:          s.userID,
		Material:        "PLA",
		ColorName:       "Galaxy Black",
		Color:           "#111111",
		Brand:           "Prusament",
		TotalWeight:     total,
		RemainingWeight: remaining,
		Price:           price,
	}
	s.store.spools[spool.ID] = spool
	return spool
}

func TestRecordPrintComputesLinearCost(t *testing.T) {
	setup := newLedgerTestSetup(t)
	spool := setup.addSpool(t, 1000, 1000, 20)

	resp, err := setup.service.RecordPrint(context.Background(), setup.userID, RecordPrintRequest{
		Name:  "vase",
		Items: []PrintItemRequest{{SpoolID: spool.ID, WeightUsed: 850}},
	})
	if err != nil {
		t.Fatalf("record print: %v", err)
	}

	if math.Abs(resp.Cost-17) > 1e-9 {
		t.Fatalf("expected cost 17, got %v", resp.Cost)
	}
	if resp.WeightUsed != 850 {
		t.Fatalf("expected total weight 850, got %v", resp.WeightUsed)
	}
	if len(resp.Items) != 1 || math.Abs(resp.Items[0].Cost-17) > 1e-9 {
		t.Fatalf("unexpected line items: %+v", resp.Items)
	}
	if resp.SpoolID == nil || *resp.SpoolID != spool.ID {
		t.Fatalf("primary spool should be the first item's spool")
	}
	if spool.RemainingWeight != 150 {
		t.Fatalf("expected 150g remaining, got %v", spool.RemainingWeight)
	}

	// 150g is at or below the 200g threshold.
	if len(setup.notifier.calls) != 1 {
		t.Fatalf("expected one low-stock notification, got %d", len(setup.notifier.calls))
	}
	if setup.notifier.calls[0].remaining != 150 {
		t.Fatalf("expected notification at 150g, got %v", setup.notifier.calls[0].remaining)
	}
}

func TestRecordPrintHalfSpoolCostsHalfPrice(t *testing.T) {
	setup := newLedgerTestSetup(t)
	spool := setup.addSpool(t, 1000, 1000, 25)

	resp, err := setup.service.RecordPrint(context.Background(), setup.userID, RecordPrintRequest{
		Name:  "benchy fleet",
		Items: []PrintItemRequest{{SpoolID: spool.ID, WeightUsed: 500}},
	})
	if err != nil {
		t.Fatalf("record print: %v", err)
	}
	if math.Abs(resp.Cost-12.5) > 1e-9 {
		t.Fatalf("half the spool should cost half the price, got %v", resp.Cost)
	}
}

func TestRecordPrintRejectsOverdraw(t *testing.T) {
	setup := newLedgerTestSetup(t)
	spool := setup.addSpool(t, 150, 1000, 20)

	_, err := setup.service.RecordPrint(context.Background(), setup.userID, RecordPrintRequest{
		Name:  "too big",
		Items: []PrintItemRequest{{SpoolID: spool.ID, WeightUsed: 200}},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok || details["requested"] != 200.0 || details["remaining"] != 150.0 {
		t.Fatalf("unexpected overdraw details: %v", typed.Details())
	}
	if spool.RemainingWeight != 150 {
		t.Fatalf("spool must be unchanged after rejection, got %v", spool.RemainingWeight)
	}
	if len(setup.notifier.calls) != 0 {
		t.Fatalf("rejected print must not notify")
	}
}

func TestRecordPrintMultiSpoolKeepsCallerOrder(t *testing.T) {
	setup := newLedgerTestSetup(t)
	first := setup.addSpool(t, 1000, 1000, 20)
	second := setup.addSpool(t, 750, 750, 30)

	resp, err := setup.service.RecordPrint(context.Background(), setup.userID, RecordPrintRequest{
		Name: "two-tone sign",
		Items: []PrintItemRequest{
			{SpoolID: first.ID, WeightUsed: 100},
			{SpoolID: second.ID, WeightUsed: 75},
		},
	})
	if err != nil {
		t.Fatalf("record print: %v", err)
	}
	if len(resp.Items) != 2 {
		t.Fatalf("expected 2 line items, got %d", len(resp.Items))
	}
	if *resp.Items[0].SpoolID != first.ID || *resp.Items[1].SpoolID != second.ID {
		t.Fatalf("line items must keep the caller's order")
	}
	if resp.SpoolID == nil || *resp.SpoolID != first.ID {
		t.Fatalf("primary spool must be the first item's spool")
	}
	// 100/1000*20 + 75/750*30 = 2 + 3
	if math.Abs(resp.Cost-5) > 1e-9 {
		t.Fatalf("expected total cost 5, got %v", resp.Cost)
	}
	if resp.WeightUsed != 175 {
		t.Fatalf("expected total weight 175, got %v", resp.WeightUsed)
	}
}

func TestRecordPrintDuplicateSpoolItemsAccumulate(t *testing.T) {
	setup := newLedgerTestSetup(t)
	spool := setup.addSpool(t, 100, 1000, 20)

	_, err := setup.service.RecordPrint(context.Background(), setup.userID, RecordPrintRequest{
		Name: "double dip",
		Items: []PrintItemRequest{
			{SpoolID: spool.ID, WeightUsed: 60},
			{SpoolID: spool.ID, WeightUsed: 60},
		},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock across duplicate items, got %v", err)
	}
}

func TestRecordPrintUnknownSpoolIsNotFound(t *testing.T) {
	setup := newLedgerTestSetup(t)

	_, err := setup.service.RecordPrint(context.Background(), setup.userID, RecordPrintRequest{
		Name:  "ghost",
		Items: []PrintItemRequest{{SpoolID: uuid.New(), WeightUsed: 10}},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRecordPrintOtherUsersSpoolIsNotFound(t *testing.T) {
	setup := newLedgerTestSetup(t)
	spool := setup.addSpool(t, 1000, 1000, 20)
	spool.UserID = uuid.New()

	_, err := setup.service.RecordPrint(context.Background(), setup.userID, RecordPrintRequest{
		Name:  "not mine",
		Items: []PrintItemRequest{{SpoolID: spool.ID, WeightUsed: 10}},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for foreign spool, got %v", err)
	}
}

func TestRecordPrintZeroRowDecrementIsInsufficientStock(t *testing.T) {
	setup := newLedgerTestSetup(t)
	spool := setup.addSpool(t, 1000, 1000, 20)
	setup.store.refuseAll = true

	_, err := setup.service.RecordPrint(context.Background(), setup.userID, RecordPrintRequest{
		Name:  "raced",
		Items: []PrintItemRequest{{SpoolID: spool.ID, WeightUsed: 100}},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock on lost race, got %v", err)
	}
}

func TestRecordPrintValidation(t *testing.T) {
	setup := newLedgerTestSetup(t)
	spool := setup.addSpool(t, 1000, 1000, 20)

	cases := []struct {
		name string
		req  RecordPrintRequest
	}{
		{"empty name", RecordPrintRequest{Name: "  ", Items: []PrintItemRequest{{SpoolID: spool.ID, WeightUsed: 10}}}},
		{"no items", RecordPrintRequest{Name: "empty"}},
		{"zero weight", RecordPrintRequest{Name: "zero", Items: []PrintItemRequest{{SpoolID: spool.ID, WeightUsed: 0}}}},
		{"negative weight", RecordPrintRequest{Name: "neg", Items: []PrintItemRequest{{SpoolID: spool.ID, WeightUsed: -5}}}},
		{"nil spool", RecordPrintRequest{Name: "nil", Items: []PrintItemRequest{{WeightUsed: 5}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := setup.service.RecordPrint(context.Background(), setup.userID, tc.req)
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestRecordPrintAboveThresholdStaysQuiet(t *testing.T) {
	setup := newLedgerTestSetup(t)
	spool := setup.addSpool(t, 1000, 1000, 20)

	if _, err := setup.service.RecordPrint(context.Background(), setup.userID, RecordPrintRequest{
		Name:  "small",
		Items: []PrintItemRequest{{SpoolID: spool.ID, WeightUsed: 100}},
	}); err != nil {
		t.Fatalf("record print: %v", err)
	}
	if len(setup.notifier.calls) != 0 {
		t.Fatalf("no notification expected at 900g remaining, got %v", setup.notifier.calls)
	}
}

func TestListPaginatesWithNextCursor(t *testing.T) {
	setup := newLedgerTestSetup(t)
	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		setup.history.rows = append(setup.history.rows, models.Print{
			ID:        uuid.New(),
			UserID:    setup.userID,
			Name:      "print",
			CreatedAt: now.Add(-time.Duration(i) * time.Minute),
		})
	}

	resp, err := setup.service.List(context.Background(), setup.userID, pagination.Params{Limit: 2})
	if err != nil {
		t.Fatalf("list prints: %v", err)
	}
	if len(resp.Prints) != 2 {
		t.Fatalf("expected 2 prints, got %d", len(resp.Prints))
	}
	if resp.NextCursor == "" {
		t.Fatalf("expected next cursor when more rows exist")
	}

	cursor, err := pagination.ParseCursor(resp.NextCursor)
	if err != nil {
		t.Fatalf("returned cursor should parse: %v", err)
	}
	if cursor.ID != resp.Prints[1].ID {
		t.Fatalf("cursor should point at the last returned print")
	}
}

func TestListRejectsInvalidCursor(t *testing.T) {
	setup := newLedgerTestSetup(t)

	_, err := setup.service.List(context.Background(), setup.userID, pagination.Params{Cursor: "not-base64!!"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
