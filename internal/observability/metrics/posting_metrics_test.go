package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPostingCounters(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newPostingMetrics(registry, Config{ServiceName: "folio", Environment: "test"})

	m.IncDocumentPosted("bill")
	m.IncDocumentPosted("bill")
	m.IncDocumentVoided("debit_note")
	m.IncIdempotentReplay("document.post")
	m.AddStockWarnings("warn", 3)
	m.IncStockBlock()
	m.IncLockDateBlock("document.post")

	if got := testutil.ToFloat64(m.documentsPosted.WithLabelValues("bill")); got != 2 {
		t.Fatalf("expected 2 bills posted, got %v", got)
	}
	if got := testutil.ToFloat64(m.documentsVoided.WithLabelValues("debit_note")); got != 1 {
		t.Fatalf("expected 1 void, got %v", got)
	}
	if got := testutil.ToFloat64(m.stockWarnings.WithLabelValues("warn")); got != 3 {
		t.Fatalf("expected 3 warnings, got %v", got)
	}
	if got := testutil.ToFloat64(m.stockBlocks); got != 1 {
		t.Fatalf("expected 1 block, got %v", got)
	}
}

func TestAddStockWarnings_IgnoresNonPositive(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newPostingMetrics(registry, Config{ServiceName: "folio", Environment: "test"})

	m.AddStockWarnings("warn", 0)
	m.AddStockWarnings("warn", -2)

	if got := testutil.ToFloat64(m.stockWarnings.WithLabelValues("warn")); got != 0 {
		t.Fatalf("expected no warnings recorded, got %v", got)
	}
}

func TestNilReceiverIsSafe(t *testing.T) {
	var m *PostingMetrics
	m.IncDocumentPosted("bill")
	m.IncDocumentVoided("bill")
	m.IncIdempotentReplay("document.void")
	m.AddStockWarnings("block", 1)
	m.IncStockBlock()
	m.IncLockDateBlock("document.void")
}
