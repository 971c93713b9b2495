package handlers

import (
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/skycast-app/skycast/internal/server/middlewares"
	"go.uber.org/zap"
)

// appMetrics holds pipeline-level counters.
type appMetrics struct {
	mutex          sync.RWMutex
	searchesTotal  int64
	searchFailures int64
	locatesTotal   int64
	locatesPending int64
}

type MetricsHandler struct {
	logger *zap.Logger
	http   *middlewares.MetricsMiddleware
	app    *appMetrics
}

func NewMetricsHandler(logger *zap.Logger, httpMetrics *middlewares.MetricsMiddleware) *MetricsHandler {
	return &MetricsHandler{
		logger: logger,
		http:   httpMetrics,
		app:    &appMetrics{},
	}
}

// RecordSearch counts a search-flow completion.
func (h *MetricsHandler) RecordSearch(success bool) {
	h.app.mutex.Lock()
	h.app.searchesTotal++
	if !success {
		h.app.searchFailures++
	}
	h.app.mutex.Unlock()
}

// RecordLocate counts a current-location flow completion.
func (h *MetricsHandler) RecordLocate(ready bool) {
	h.app.mutex.Lock()
	h.app.locatesTotal++
	if !ready {
		h.app.locatesPending++
	}
	h.app.mutex.Unlock()
}

// ServeMetrics exposes the counters in Prometheus text format.
func (h *MetricsHandler) ServeMetrics(c *gin.Context) {
	response := ""

	if h.http != nil {
		stats := h.http.Stats()

		response += "# HELP http_requests_total Total number of HTTP requests\n"
		response += "# TYPE http_requests_total counter\n"
		for key, count := range stats.RequestsTotal {
			response += "http_requests_total{route_status=\"" + key + "\"} " + strconv.FormatInt(count, 10) + "\n"
		}

		response += "\n# HELP http_request_duration_seconds_avg Average duration of HTTP requests\n"
		response += "# TYPE http_request_duration_seconds_avg gauge\n"
		response += "http_request_duration_seconds_avg " + strconv.FormatFloat(stats.AvgDuration, 'f', 6, 64) + "\n"

		response += "\n# HELP http_active_requests Number of active HTTP requests\n"
		response += "# TYPE http_active_requests gauge\n"
		response += "http_active_requests " + strconv.FormatInt(stats.ActiveRequests, 10) + "\n"
	}

	h.app.mutex.RLock()
	response += "\n# HELP pipeline_searches_total Total city searches\n"
	response += "# TYPE pipeline_searches_total counter\n"
	response += "pipeline_searches_total " + strconv.FormatInt(h.app.searchesTotal, 10) + "\n"

	response += "\n# HELP pipeline_search_failures_total Total failed city searches\n"
	response += "# TYPE pipeline_search_failures_total counter\n"
	response += "pipeline_search_failures_total " + strconv.FormatInt(h.app.searchFailures, 10) + "\n"

	response += "\n# HELP pipeline_locates_total Total current-location fetches\n"
	response += "# TYPE pipeline_locates_total counter\n"
	response += "pipeline_locates_total " + strconv.FormatInt(h.app.locatesTotal, 10) + "\n"

	response += "\n# HELP pipeline_locates_pending_total Current-location fetches that stayed pending\n"
	response += "# TYPE pipeline_locates_pending_total counter\n"
	response += "pipeline_locates_pending_total " + strconv.FormatInt(h.app.locatesPending, 10) + "\n"
	h.app.mutex.RUnlock()

	c.Header("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	c.String(200, response)
}
