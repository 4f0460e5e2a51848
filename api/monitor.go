package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"churchhub/services"
)

var startTime = time.Now()

// MonitorController exposes a plain system-status endpoint for probes and
// capacity dashboards.
type MonitorController struct {
	Hub *services.FeedHub
}

// NewMonitorController creates a monitor controller.
func NewMonitorController(hub *services.FeedHub) *MonitorController {
	return &MonitorController{Hub: hub}
}

// Status reports process and feed health.
func (c *MonitorController) Status(ctx *gin.Context) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	status := gin.H{
		"status":           "ok",
		"uptime_seconds":   int64(time.Since(startTime).Seconds()),
		"goroutines":       runtime.NumGoroutine(),
		"heap_alloc_bytes": mem.HeapAlloc,
		"num_gc":           mem.NumGC,
		"feed_connections": c.Hub.GetConnectionCount(),
	}

	if kafka := c.Hub.GetKafkaService(); kafka != nil {
		status["stream"] = kafka.GetMetrics()
	} else {
		status["stream"] = "disabled"
	}

	ctx.JSON(http.StatusOK, status)
}
