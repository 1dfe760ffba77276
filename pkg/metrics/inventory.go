package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// InventoryMetrics records deduction and occupancy outcomes. All methods are
// nil-safe so callers can run without a registry (tests, one-off tools).
type InventoryMetrics struct {
	deductionsApplied *prometheus.CounterVec
	deductionsSkipped *prometheus.CounterVec
	insufficientStock *prometheus.CounterVec
	tableConflicts    prometheus.Counter
}

// NewInventoryMetrics registers the inventory metrics on the provided registerer.
func NewInventoryMetrics(reg prometheus.Registerer) *InventoryMetrics {
	if reg == nil {
		return &InventoryMetrics{}
	}
	applied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_deductions_applied_total",
		Help: "Order line deductions written to the ledger.",
	}, []string{"kind"})
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_deductions_skipped_total",
		Help: "Order line deductions skipped because a claim already existed.",
	}, []string{"kind"})
	insufficient := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_insufficient_stock_total",
		Help: "Deductions rejected because stock would have gone negative.",
	}, []string{"kind"})
	conflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "table_occupancy_conflicts_total",
		Help: "Table claims rejected because another live order held the table.",
	})
	reg.MustRegister(applied, skipped, insufficient, conflicts)
	return &InventoryMetrics{
		deductionsApplied: applied,
		deductionsSkipped: skipped,
		insufficientStock: insufficient,
		tableConflicts:    conflicts,
	}
}

// IncApplied counts a committed deduction for the given ref kind.
func (m *InventoryMetrics) IncApplied(kind string) {
	if m == nil || m.deductionsApplied == nil {
		return
	}
	m.deductionsApplied.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncSkipped counts a deduction short-circuited by an existing claim.
func (m *InventoryMetrics) IncSkipped(kind string) {
	if m == nil || m.deductionsSkipped == nil {
		return
	}
	m.deductionsSkipped.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncInsufficient counts a rejected deduction.
func (m *InventoryMetrics) IncInsufficient(kind string) {
	if m == nil || m.insufficientStock == nil {
		return
	}
	m.insufficientStock.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncTableConflict counts a rejected table claim.
func (m *InventoryMetrics) IncTableConflict() {
	if m == nil || m.tableConflicts == nil {
		return
	}
	m.tableConflicts.Inc()
}

func normalizeLabel(kind string) string {
	if kind == "" {
		return "unknown"
	}
	return kind
}
