package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPaymentMetricsCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPaymentMetrics(reg)

	m.IncCheckout("success")
	m.IncCheckout("success")
	m.IncCheckout("empty_cart")
	m.IncVerification("payment_failed")
	m.ObserveGateway("initialize", 120*time.Millisecond)

	if got := testutil.ToFloat64(m.checkouts.WithLabelValues("success")); got != 2 {
		t.Fatalf("checkout success count = %v", got)
	}
	if got := testutil.ToFloat64(m.checkouts.WithLabelValues("empty_cart")); got != 1 {
		t.Fatalf("checkout empty_cart count = %v", got)
	}
	if got := testutil.ToFloat64(m.verifications.WithLabelValues("payment_failed")); got != 1 {
		t.Fatalf("verification count = %v", got)
	}
}

func TestPaymentMetricsNilSafe(t *testing.T) {
	var m *PaymentMetrics
	m.IncCheckout("success")
	m.IncVerification("success")
	m.ObserveGateway("verify", time.Second)

	empty := NewPaymentMetrics(nil)
	empty.IncCheckout("")
}
