package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsHandlerCountsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics(prometheus.NewRegistry())

	router := gin.New()
	router.Use(m.Handler())
	router.GET("/lists", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for range 3 {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/lists", nil))
	}

	got := testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/lists", "200"))
	assert.Equal(t, 3.0, got)
}

func TestMetricsHandlerLabelsUnmatchedRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics(prometheus.NewRegistry())

	router := gin.New()
	router.Use(m.Handler())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	got := testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "unmatched", "404"))
	assert.Equal(t, 1.0, got)
}

func TestRecordOutboundCountsByEndpointAndStatus(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordOutbound("lists", 200)
	m.RecordOutbound("lists", 200)
	m.RecordOutbound("profiles.create", 409)
	m.RecordOutbound("list.subscribe", 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.outbound.WithLabelValues("lists", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.outbound.WithLabelValues("profiles.create", "409")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.outbound.WithLabelValues("list.subscribe", "0")))
}
