package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DomainMetrics counts cart and wallet domain operations. All methods are
// nil-safe so services can run without a registerer in tests.
type DomainMetrics struct {
	cartOps      *prometheus.CounterVec
	walletTxns   *prometheus.CounterVec
	walletDenied *prometheus.CounterVec
	previews     *prometheus.CounterVec
}

// NewDomainMetrics registers the domain metrics on the provided registerer.
func NewDomainMetrics(reg prometheus.Registerer) *DomainMetrics {
	if reg == nil {
		return &DomainMetrics{}
	}
	cartOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_operations_total",
		Help: "Completed cart operations by kind.",
	}, []string{"operation"})
	walletTxns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wallet_transactions_total",
		Help: "Recorded wallet ledger entries by type and status.",
	}, []string{"type", "status"})
	walletDenied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wallet_denials_total",
		Help: "Rejected wallet operations by reason.",
	}, []string{"reason"})
	previews := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "discount_previews_total",
		Help: "Discount preview evaluations by result.",
	}, []string{"result"})
	reg.MustRegister(cartOps, walletTxns, walletDenied, previews)
	return &DomainMetrics{
		cartOps:      cartOps,
		walletTxns:   walletTxns,
		walletDenied: walletDenied,
		previews:     previews,
	}
}

// IncCartOperation increments the counter for a completed cart operation.
func (m *DomainMetrics) IncCartOperation(operation string) {
	if m == nil || m.cartOps == nil {
		return
	}
	m.cartOps.WithLabelValues(normalizeLabel(operation)).Inc()
}

// IncWalletTransaction increments the ledger entry counter.
func (m *DomainMetrics) IncWalletTransaction(txType, status string) {
	if m == nil || m.walletTxns == nil {
		return
	}
	m.walletTxns.WithLabelValues(normalizeLabel(txType), normalizeLabel(status)).Inc()
}

// IncWalletDenial increments the rejected-operation counter.
func (m *DomainMetrics) IncWalletDenial(reason string) {
	if m == nil || m.walletDenied == nil {
		return
	}
	m.walletDenied.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncDiscountPreview increments the preview counter.
func (m *DomainMetrics) IncDiscountPreview(result string) {
	if m == nil || m.previews == nil {
		return
	}
	m.previews.WithLabelValues(normalizeLabel(result)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
