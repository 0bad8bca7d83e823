package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/wifipass/internal/monitoring"
)

// HealthHandler exposes liveness and readiness probes.
type HealthHandler struct {
	manager *monitoring.HealthManager
}

// NewHealthHandler constructs a HealthHandler.
func NewHealthHandler(manager *monitoring.HealthManager) *HealthHandler {
	return &HealthHandler{manager: manager}
}

// Summary reports the overall readiness status without individual checks.
func (h *HealthHandler) Summary(c *gin.Context) {
	report := h.manager.EvaluateReadiness(c.Request.Context())
	c.JSON(reportStatus(report), gin.H{
		"success":    report.Success,
		"status":     report.Status,
		"checked_at": report.CheckedAt,
	})
}

// Live reports whether the process is able to serve requests.
func (h *HealthHandler) Live(c *gin.Context) {
	report := h.manager.EvaluateLiveness(c.Request.Context())
	c.JSON(reportStatus(report), report)
}

// Ready reports whether every dependency is reachable.
func (h *HealthHandler) Ready(c *gin.Context) {
	report := h.manager.EvaluateReadiness(c.Request.Context())
	c.JSON(reportStatus(report), report)
}

func reportStatus(report monitoring.HealthReport) int {
	if report.Success {
		return http.StatusOK
	}
	return http.StatusServiceUnavailable
}
