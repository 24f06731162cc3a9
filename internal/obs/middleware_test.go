package obs_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/storefront-checkout/internal/obs"
)

func TestHTTPMetricsLabels(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := obs.NewHTTPMetrics("checkout", []float64{10, 1}, registry)

	r := chi.NewRouter()
	r.Use(obs.HTTPObs{Metrics: metrics}.Middleware)
	r.Get("/orders/{id}/confirmation", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/orders/ord_1/confirmation", nil))
	require.Equal(t, http.StatusNoContent, rr.Code)

	total := testutil.ToFloat64(metrics.ReqTotal.WithLabelValues(http.MethodGet, "/orders/{id}/confirmation", "204"))
	require.Equal(t, float64(1), total)
	require.NotZero(t, testutil.CollectAndCount(metrics.ReqDur))
	require.NotZero(t, testutil.CollectAndCount(metrics.RespBytes))
	require.Equal(t, float64(0), testutil.ToFloat64(metrics.InFlight))
}

func TestHTTPMetricsReuseRegisteredCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()
	first := obs.NewHTTPMetrics("checkout", nil, registry)
	second := obs.NewHTTPMetrics("checkout", nil, registry)
	require.Same(t, first.ReqTotal, second.ReqTotal)
	require.Same(t, first.ReqDur, second.ReqDur)
}

func TestStatusRecorderKeepsFirstStatus(t *testing.T) {
	rec := obs.NewStatusRecorder(httptest.NewRecorder())
	_, err := rec.Write([]byte("ok"))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Status())
	require.EqualValues(t, 2, rec.BytesWritten())
}

func TestParseBucketsCSV(t *testing.T) {
	require.Nil(t, obs.ParseBucketsCSV("  "))
	require.Equal(t, []float64{5, 12.5}, obs.ParseBucketsCSV("5, x, -1, 0, 12.5,"))
}

func TestRoutePatternContext(t *testing.T) {
	require.Empty(t, obs.RoutePatternFromContext(context.Background()))
	ctx := obs.WithRoutePattern(context.Background(), "/checkout/financing")
	require.Equal(t, "/checkout/financing", obs.RoutePatternFromContext(ctx))
}

func TestDomainMetricsRegisterOnce(t *testing.T) {
	registry := prometheus.NewRegistry()
	obs.MustRegisterDomainMetrics("checkout_test", registry)
	obs.MustRegisterDomainMetrics("checkout_test", registry)
	require.NotNil(t, obs.HandoffReads)
	require.NotNil(t, obs.HandoffWrites)
	require.NotNil(t, obs.BulkDiscountEvaluations)
	require.NotNil(t, obs.FinancingDerivations)

	obs.FinancingDerivations.WithLabelValues("installment").Inc()
	require.GreaterOrEqual(t, testutil.ToFloat64(obs.FinancingDerivations.WithLabelValues("installment")), float64(1))
}
