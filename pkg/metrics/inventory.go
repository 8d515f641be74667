package metrics

import "github.com/prometheus/client_golang/prometheus"

// InventoryMetrics tracks consumption ledger outcomes.
type InventoryMetrics struct {
	printsRecorded    prometheus.Counter
	insufficientStock prometheus.Counter
	lowStockAlerts    prometheus.Counter
}

// NewInventoryMetrics registers the ledger metrics on the provided registerer.
func NewInventoryMetrics(reg prometheus.Registerer) *InventoryMetrics {
	if reg == nil {
		return &InventoryMetrics{}
	}
	printsRecorded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "prints_recorded_total",
		Help: "Print jobs committed to the ledger.",
	})
	insufficientStock := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "prints_insufficient_stock_total",
		Help: "Print submissions rejected for insufficient remaining filament.",
	})
	lowStockAlerts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "low_stock_alerts_total",
		Help: "Low-stock notifications dispatched.",
	})
	reg.MustRegister(printsRecorded, insufficientStock, lowStockAlerts)
	return &InventoryMetrics{
		printsRecorded:    printsRecorded,
		insufficientStock: insufficientStock,
		lowStockAlerts:    lowStockAlerts,
	}
}

// IncPrintRecorded increments the committed prints counter.
func (m *InventoryMetrics) IncPrintRecorded() {
	if m == nil || m.printsRecorded == nil {
		return
	}
	m.printsRecorded.Inc()
}

// IncInsufficientStock increments the rejected submissions counter.
func (m *InventoryMetrics) IncInsufficientStock() {
	if m == nil || m.insufficientStock == nil {
		return
	}
	m.insufficientStock.Inc()
}

// IncLowStockAlert increments the dispatched alerts counter.
func (m *InventoryMetrics) IncLowStockAlert() {
	if m == nil || m.lowStockAlerts == nil {
		return
	}
	m.lowStockAlerts.Inc()
}
