package notifier

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spooltrack/spooltrack-backend/pkg/db/models"
	"github.com/spooltrack/spooltrack-backend/pkg/enums"
	"github.com/spooltrack/spooltrack-backend/pkg/logger"
	"github.com/spooltrack/spooltrack-backend/pkg/metrics"
)

// alertDedupeTTL bounds how often one spool can re-alert while it stays
// below the threshold.
const alertDedupeTTL = 24 * time.Hour

type notificationWriter interface {
	Create(ctx context.Context, notification *models.Notification) error
}

type alertDeduper interface {
	MarkLowStockAlert(ctx context.Context, spoolID string, ttl time.Duration) (bool, error)
	ClearLowStockAlert(ctx context.Context, spoolID string) error
}

type mailSender interface {
	Enabled() bool
	SendLowStockAlert(ctx context.Context, spool models.Spool, remaining float64) error
}

// Notifier is the ledger's best-effort alerting collaborator. Delivery runs
// asynchronously; failures are logged and never reach the caller.
type Notifier struct {
	notifications notificationWriter
	dedupe        alertDeduper
	mailer        mailSender
	metrics       *metrics.InventoryMetrics
	logg          *logger.Logger

	wg sync.WaitGroup
}

// Params bundles the dependencies required to build a notifier. Dedupe,
// Mailer, Metrics, and Logger are optional.
type Params struct {
	NotificationRepo notificationWriter
	Dedupe           alertDeduper
	Mailer           mailSender
	Metrics          *metrics.InventoryMetrics
	Logger           *logger.Logger
}

// New constructs a notifier with the provided dependencies.
func New(params Params) (*Notifier, error) {
	if params.NotificationRepo == nil {
		return nil, fmt.Errorf("notification repository is required")
	}
	return &Notifier{
		notifications: params.NotificationRepo,
		dedupe:        params.Dedupe,
		mailer:        params.Mailer,
		metrics:       params.Metrics,
		logg:          params.Logger,
	}, nil
}

// NotifyLowStock dispatches a low-stock alert for the spool. It returns
// immediately; delivery happens on a detached context so a finished request
// cannot cancel it.
func (n *Notifier) NotifyLowStock(ctx context.Context, spool models.Spool, remaining float64) {
	detached := context.WithoutCancel(ctx)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.deliver(detached, spool, remaining)
	}()
}

// ClearLowStock drops the spool's alert dedupe mark so the next threshold
// crossing alerts again. Called when stock is corrected back above the
// threshold.
func (n *Notifier) ClearLowStock(ctx context.Context, spoolID uuid.UUID) {
	if n.dedupe == nil {
		return
	}
	if err := n.dedupe.ClearLowStockAlert(ctx, spoolID.String()); err != nil {
		n.logError(ctx, "clear low-stock alert mark", err)
	}
}

// Flush waits for in-flight deliveries. Used on shutdown and in tests.
func (n *Notifier) Flush() {
	n.wg.Wait()
}

func (n *Notifier) deliver(ctx context.Context, spool models.Spool, remaining float64) {
	if n.dedupe != nil {
		fresh, err := n.dedupe.MarkLowStockAlert(ctx, spool.ID.String(), alertDedupeTTL)
		if err != nil {
			// Dedupe is advisory; on store trouble we still alert.
			n.logError(ctx, "mark low-stock alert", err)
		} else if !fresh {
			return
		}
	}

	spoolID := spool.ID
	notification := &models.Notification{
		UserID:  spool.UserID,
		Kind:    enums.NotificationKindLowStock,
		Title:   fmt.Sprintf("Low filament: %s %s %s", spool.Brand, spool.Material, spool.ColorName),
		Body:    fmt.Sprintf("%.0fg remaining of %.0fg.", remaining, spool.TotalWeight),
		SpoolID: &spoolID,
	}
	if err := n.notifications.Create(ctx, notification); err != nil {
		n.logError(ctx, "write low-stock notification", err)
		return
	}
	n.metrics.IncLowStockAlert()

	if n.mailer != nil && n.mailer.Enabled() {
		if err := n.mailer.SendLowStockAlert(ctx, spool, remaining); err != nil {
			n.logError(ctx, "send low-stock email", err)
		}
	}
}

func (n *Notifier) logError(ctx context.Context, msg string, err error) {
	if n.logg != nil {
		n.logg.Error(ctx, msg, err)
	}
}
