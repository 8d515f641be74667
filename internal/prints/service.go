package prints

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/spooltrack/spooltrack-backend/pkg/config"
	"github.com/spooltrack/spooltrack-backend/pkg/db/models"
	pkgerrors "github.com/spooltrack/spooltrack-backend/pkg/errors"
	"github.com/spooltrack/spooltrack-backend/pkg/logger"
	"github.com/spooltrack/spooltrack-backend/pkg/metrics"
	"github.com/spooltrack/spooltrack-backend/pkg/pagination"
)

// Service is the consumption ledger: it applies print jobs against spool
// stock and serves the resulting history.
type Service interface {
	RecordPrint(ctx context.Context, userID uuid.UUID, req RecordPrintRequest) (*PrintDTO, error)
	List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*ListPrintsResponse, error)
}

// TxRunner runs a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ledgerStore interface {
	FindSpoolForUser(ctx context.Context, userID, spoolID uuid.UUID) (*models.Spool, error)
	DecrementRemaining(ctx context.Context, userID, spoolID uuid.UUID, weight float64) (int64, error)
	CreatePrint(ctx context.Context, print *models.Print) error
}

type historyStore interface {
	ListByUser(ctx context.Context, userID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Print, error)
}

type lowStockNotifier interface {
	NotifyLowStock(ctx context.Context, spool models.Spool, remaining float64)
}

type service struct {
	tx        TxRunner
	stores    func(tx *gorm.DB) ledgerStore
	history   historyStore
	notifier  lowStockNotifier
	inventory config.InventoryConfig
	txTimeout time.Duration
	metrics   *metrics.InventoryMetrics
	logg      *logger.Logger
}

// ServiceParams bundles the dependencies required to build the ledger
// service. StoreFactory defaults to the concrete GORM repo; Metrics and
// Logger may be nil.
type ServiceParams struct {
	TxRunner     TxRunner
	StoreFactory func(tx *gorm.DB) ledgerStore
	History      historyStore
	Notifier     lowStockNotifier
	Inventory    config.InventoryConfig
	TxTimeout    time.Duration
	Metrics      *metrics.InventoryMetrics
	Logger       *logger.Logger
}

// NewService constructs the ledger service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.History == nil {
		return nil, fmt.Errorf("history store is required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier is required")
	}
	if params.StoreFactory == nil {
		params.StoreFactory = func(tx *gorm.DB) ledgerStore {
			return NewRepository(tx)
		}
	}
	return &service{
		tx:        params.TxRunner,
		stores:    params.StoreFactory,
		history:   params.History,
		notifier:  params.Notifier,
		inventory: params.Inventory,
		txTimeout: params.TxTimeout,
		metrics:   params.Metrics,
		logg:      params.Logger,
	}, nil
}

// spoolState carries a spool snapshot plus its remaining weight after the
// decrements staged so far in this call.
type spoolState struct {
	spool     models.Spool
	remaining float64
}

// RecordPrint deducts weight from every referenced spool, computes per-line
// and total costs, and appends the immutable print record, all inside one
// transaction. Either every write commits or none does.
func (s *service) RecordPrint(ctx context.Context, userID uuid.UUID, req RecordPrintRequest) (*PrintDTO, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if len(req.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "items must not be empty")
	}
	for _, item := range req.Items {
		if item.SpoolID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "spool_id is required")
		}
		if item.WeightUsed <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "weight_used must be greater than zero")
		}
	}

	// Spool rows are touched in ascending id order so concurrent multi-spool
	// prints cannot deadlock each other.
	ordered := make([]PrintItemRequest, len(req.Items))
	copy(ordered, req.Items)
	sort.SliceStable(ordered, func(i, j int) bool {
		return bytes.Compare(ordered[i].SpoolID[:], ordered[j].SpoolID[:]) < 0
	})

	staged := make(map[uuid.UUID]*spoolState, len(ordered))
	var created *models.Print

	// The transaction is detached from the caller's cancellation: once
	// started it either commits or fully aborts, never half-applies because
	// the client went away. The timeout still bounds a stuck lock.
	txCtx := context.WithoutCancel(ctx)
	if s.txTimeout > 0 {
		var cancel context.CancelFunc
		txCtx, cancel = context.WithTimeout(txCtx, s.txTimeout)
		defer cancel()
	}

	err := s.tx.WithTx(txCtx, func(tx *gorm.DB) error {
		store := s.stores(tx)

		for _, item := range ordered {
			state, ok := staged[item.SpoolID]
			if !ok {
				spool, err := store.FindSpoolForUser(txCtx, userID, item.SpoolID)
				if err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return pkgerrors.New(pkgerrors.CodeNotFound, "spool not found").
							WithDetails(map[string]any{"spool_id": item.SpoolID})
					}
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "fetch spool")
				}
				state = &spoolState{spool: *spool, remaining: spool.RemainingWeight}
				staged[item.SpoolID] = state
			}

			if item.WeightUsed > state.remaining {
				return insufficientStockError(item.SpoolID, item.WeightUsed, state.remaining)
			}

			affected, err := store.DecrementRemaining(txCtx, userID, item.SpoolID, item.WeightUsed)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrement spool")
			}
			if affected == 0 {
				// A concurrent print consumed the stock between our read and
				// the conditional update.
				return insufficientStockError(item.SpoolID, item.WeightUsed, state.remaining)
			}
			state.remaining -= item.WeightUsed
		}

		totalWeight := decimal.Zero
		totalCost := decimal.Zero
		lines := make([]models.PrintFilament, 0, len(req.Items))
		for _, item := range req.Items {
			spool := staged[item.SpoolID].spool
			cost := lineCost(spool, item.WeightUsed)
			spoolID := item.SpoolID
			lines = append(lines, models.PrintFilament{
				SpoolID:    &spoolID,
				Material:   spool.Material,
				Brand:      spool.Brand,
				ColorName:  spool.ColorName,
				Color:      spool.Color,
				WeightUsed: item.WeightUsed,
				Cost:       cost.InexactFloat64(),
			})
			totalWeight = totalWeight.Add(decimal.NewFromFloat(item.WeightUsed))
			totalCost = totalCost.Add(cost)
		}

		primary := staged[req.Items[0].SpoolID].spool
		primaryID := primary.ID
		print := &models.Print{
			UserID:     userID,
			Name:       name,
			SpoolID:    &primaryID,
			Material:   primary.Material,
			Brand:      primary.Brand,
			ColorName:  primary.ColorName,
			Color:      primary.Color,
			WeightUsed: totalWeight.InexactFloat64(),
			Cost:       totalCost.InexactFloat64(),
			Filaments:  lines,
		}
		if err := store.CreatePrint(txCtx, print); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create print record")
		}

		created = print
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			if typed.Code() == pkgerrors.CodeInsufficientStock {
				s.metrics.IncInsufficientStock()
			}
			return nil, typed
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ledger transaction timed out")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "ledger transaction")
	}

	s.metrics.IncPrintRecorded()
	s.dispatchLowStock(ctx, staged)

	return FromModel(created), nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*ListPrintsResponse, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.history.ListByUser(ctx, userID, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list prints")
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[limit-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	prints := make([]PrintDTO, 0, len(rows))
	for i := range rows {
		prints = append(prints, *FromModel(&rows[i]))
	}
	return &ListPrintsResponse{Prints: prints, NextCursor: next}, nil
}

// dispatchLowStock runs strictly after commit. Notifier latency and failures
// stay off the request path; the notifier itself is fire-and-forget.
func (s *service) dispatchLowStock(ctx context.Context, staged map[uuid.UUID]*spoolState) {
	for _, state := range staged {
		if state.remaining > s.inventory.LowStockThresholdGrams {
			continue
		}
		spool := state.spool
		spool.RemainingWeight = state.remaining
		if s.logg != nil {
			s.logg.Info(s.logg.WithSpoolID(ctx, spool.ID.String()), "spool crossed low-stock threshold")
		}
		s.notifier.NotifyLowStock(ctx, spool, state.remaining)
	}
}

// lineCost is the weight-proportional share of the spool's purchase price.
// Decimal arithmetic keeps the share exactly linear before the one float
// conversion at the storage boundary.
func lineCost(spool models.Spool, weightUsed float64) decimal.Decimal {
	if spool.TotalWeight <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(spool.Price).
		Div(decimal.NewFromFloat(spool.TotalWeight)).
		Mul(decimal.NewFromFloat(weightUsed))
}

func insufficientStockError(spoolID uuid.UUID, requested, remaining float64) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, "not enough filament remaining").
		WithDetails(map[string]any{
			"spool_id":  spoolID,
			"requested": requested,
			"remaining": remaining,
		})
}
