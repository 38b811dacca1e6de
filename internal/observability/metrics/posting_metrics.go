// Package metrics exposes posting-engine health counters. Cardinality stays
// low: document type and policy outcome only, never org or document ids.
package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Config carries the constant labels stamped on every series.
type Config struct {
	ServiceName string
	Environment string
}

// PostingMetrics captures document lifecycle throughput and policy friction.
type PostingMetrics struct {
	documentsPosted  *prometheus.CounterVec
	documentsVoided  *prometheus.CounterVec
	idempotentReplay *prometheus.CounterVec
	stockWarnings    *prometheus.CounterVec
	stockBlocks      prometheus.Counter
	lockDateBlocks   *prometheus.CounterVec
}

var (
	postingMetricsOnce sync.Once
	postingMetrics     *PostingMetrics
)

// Posting returns the singleton posting metrics registry.
func Posting() *PostingMetrics {
	return PostingWithConfig(Config{})
}

// PostingWithConfig returns the singleton posting metrics registry using
// config labels.
func PostingWithConfig(cfg Config) *PostingMetrics {
	postingMetricsOnce.Do(func() {
		postingMetrics = newPostingMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return postingMetrics
}

// ResetPostingMetricsForTest resets the posting metrics singleton for tests.
func ResetPostingMetricsForTest() {
	postingMetricsOnce = sync.Once{}
	postingMetrics = nil
}

func newPostingMetrics(registerer prometheus.Registerer, cfg Config) *PostingMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "folio"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	documentsPosted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "folio_documents_posted_total",
		Help:        "Documents posted to the general ledger by type.",
		ConstLabels: constLabels,
	}, []string{"type"})
	documentsVoided := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "folio_documents_voided_total",
		Help:        "Posted documents reversed by type.",
		ConstLabels: constLabels,
	}, []string{"type"})
	idempotentReplay := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "folio_idempotent_replays_total",
		Help:        "Requests answered from a stored idempotency record by scope.",
		ConstLabels: constLabels,
	}, []string{"scope"})
	stockWarnings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "folio_negative_stock_warnings_total",
		Help:        "Postings that drove on-hand negative under WARN or an override.",
		ConstLabels: constLabels,
	}, []string{"policy"})
	stockBlocks := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "folio_negative_stock_blocks_total",
		Help:        "Postings aborted by the BLOCK negative-stock policy.",
		ConstLabels: constLabels,
	})
	lockDateBlocks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "folio_lock_date_blocks_total",
		Help:        "Mutations rejected because the transaction date was locked.",
		ConstLabels: constLabels,
	}, []string{"action"})

	registerer.MustRegister(
		documentsPosted,
		documentsVoided,
		idempotentReplay,
		stockWarnings,
		stockBlocks,
		lockDateBlocks,
	)

	return &PostingMetrics{
		documentsPosted:  documentsPosted,
		documentsVoided:  documentsVoided,
		idempotentReplay: idempotentReplay,
		stockWarnings:    stockWarnings,
		stockBlocks:      stockBlocks,
		lockDateBlocks:   lockDateBlocks,
	}
}

// IncDocumentPosted increments the posted counter for a document type.
func (m *PostingMetrics) IncDocumentPosted(docType string) {
	if m == nil || m.documentsPosted == nil {
		return
	}
	m.documentsPosted.WithLabelValues(docType).Inc()
}

// IncDocumentVoided increments the voided counter for a document type.
func (m *PostingMetrics) IncDocumentVoided(docType string) {
	if m == nil || m.documentsVoided == nil {
		return
	}
	m.documentsVoided.WithLabelValues(docType).Inc()
}

// IncIdempotentReplay increments the replay counter for an operation scope.
func (m *PostingMetrics) IncIdempotentReplay(scope string) {
	if m == nil || m.idempotentReplay == nil {
		return
	}
	m.idempotentReplay.WithLabelValues(scope).Inc()
}

// AddStockWarnings counts negative-on-hand warnings attached to a posting.
func (m *PostingMetrics) AddStockWarnings(policy string, count int) {
	if m == nil || m.stockWarnings == nil || count <= 0 {
		return
	}
	m.stockWarnings.WithLabelValues(policy).Add(float64(count))
}

// IncStockBlock counts a posting aborted by the BLOCK policy.
func (m *PostingMetrics) IncStockBlock() {
	if m == nil || m.stockBlocks == nil {
		return
	}
	m.stockBlocks.Inc()
}

// IncLockDateBlock counts a mutation rejected by the accounting lock date.
func (m *PostingMetrics) IncLockDateBlock(action string) {
	if m == nil || m.lockDateBlocks == nil {
		return
	}
	m.lockDateBlocks.WithLabelValues(action).Inc()
}
