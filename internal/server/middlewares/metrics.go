package middlewares

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HTTPStats is a point-in-time copy of the HTTP request metrics.
type HTTPStats struct {
	RequestsTotal  map[string]int64
	AvgDuration    float64
	ActiveRequests int64
}

type MetricsMiddleware struct {
	logger *zap.Logger

	mutex            sync.RWMutex
	requestsTotal    map[string]int64
	requestDurations []float64
	activeRequests   int64
}

func NewMetricsMiddleware(logger *zap.Logger) *MetricsMiddleware {
	return &MetricsMiddleware{
		logger:        logger,
		requestsTotal: make(map[string]int64),
	}
}

func (m *MetricsMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		m.mutex.Lock()
		m.activeRequests++
		m.mutex.Unlock()

		c.Next()

		duration := time.Since(start).Seconds()
		key := c.Request.Method + " " + c.FullPath() + "_" + strconv.Itoa(c.Writer.Status())

		m.mutex.Lock()
		m.requestsTotal[key]++
		m.requestDurations = append(m.requestDurations, duration)
		m.activeRequests--

		// Keep only the last 1000 durations to bound memory.
		if len(m.requestDurations) > 1000 {
			m.requestDurations = m.requestDurations[len(m.requestDurations)-1000:]
		}
		m.mutex.Unlock()
	}
}

// Stats returns a copy of the accumulated HTTP metrics for the exposition
// handler.
func (m *MetricsMiddleware) Stats() HTTPStats {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	totals := make(map[string]int64, len(m.requestsTotal))
	for k, v := range m.requestsTotal {
		totals[k] = v
	}

	var avg float64
	if len(m.requestDurations) > 0 {
		sum := 0.0
		for _, d := range m.requestDurations {
			sum += d
		}
		avg = sum / float64(len(m.requestDurations))
	}

	return HTTPStats{
		RequestsTotal:  totals,
		AvgDuration:    avg,
		ActiveRequests: m.activeRequests,
	}
}
