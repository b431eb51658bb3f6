package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fintech-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestMiddleware_CountsByRoutePattern(t *testing.T) {
	c := New("test")

	r := gin.New()
	r.Use(c.Middleware())
	r.POST("/api/v1/accounts/:number/deposit", func(ctx *gin.Context) {
		ctx.Status(http.StatusOK)
	})

	for _, n := range []string{"100200300400", "500600700800"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/accounts/"+n+"/deposit", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	got := testutil.ToFloat64(c.httpRequestsTotal.WithLabelValues("POST", "/api/v1/accounts/:number/deposit", "200"))
	assert.Equal(t, float64(2), got)
}

func TestMiddleware_UnknownRoute(t *testing.T) {
	c := New("test")

	r := gin.New()
	r.Use(c.Middleware())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, float64(1), testutil.ToFloat64(c.httpRequestsTotal.WithLabelValues("GET", "unknown", "404")))
}

func TestObserveSettlement(t *testing.T) {
	c := New("test")

	c.ObserveSettlement(&ports.SettlementReport{
		Scanned:   5,
		Settled:   2,
		Stopped:   1,
		Skipped:   1,
		Failed:    1,
		Collected: 750_000,
	}, 2*time.Second)

	assert.Equal(t, float64(1), testutil.ToFloat64(c.settlementRuns.WithLabelValues(string(ports.SettlementRunCompleted))))
	assert.Equal(t, float64(2), testutil.ToFloat64(c.settlementCards.WithLabelValues("settled")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.settlementCards.WithLabelValues("stopped")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.settlementCards.WithLabelValues("failed")))
	assert.Equal(t, float64(750_000), testutil.ToFloat64(c.settlementCollected))
}

func TestSettlementRun(t *testing.T) {
	c := New("test")

	c.SettlementRun(ports.SettlementRunLocked)
	c.SettlementRun(ports.SettlementRunLocked)
	c.SettlementRun(ports.SettlementRunFailed)

	assert.Equal(t, float64(2), testutil.ToFloat64(c.settlementRuns.WithLabelValues(string(ports.SettlementRunLocked))))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.settlementRuns.WithLabelValues(string(ports.SettlementRunFailed))))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	c := New("fintech-ledger")
	c.SettlementRun(ports.SettlementRunCompleted)

	r := gin.New()
	r.GET("/metrics", c.Handler())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `fintech_ledger_settlement_runs_total{result="completed"} 1`), body)
	assert.Contains(t, body, "go_goroutines")
}
