package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/wifipass/internal/services"
	appErrors "github.com/charlesng35/wifipass/pkg/errors"
	"github.com/charlesng35/wifipass/pkg/response"
)

const (
	defaultPerPage    = 20
	maxPerPage        = 100
	defaultSalesLimit = 10
	defaultEventLimit = 50
)

// AdminHandler backs the operator console: session table, session history, sales and dashboard.
type AdminHandler struct {
	sessions  *services.SessionManager
	events    *services.SessionEventService
	payments  *services.PaymentService
	dashboard *services.DashboardService
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(
	sessions *services.SessionManager,
	events *services.SessionEventService,
	payments *services.PaymentService,
	dashboard *services.DashboardService,
) *AdminHandler {
	return &AdminHandler{
		sessions:  sessions,
		events:    events,
		payments:  payments,
		dashboard: dashboard,
	}
}

// ListSessions returns a filtered, paginated page of the session table.
func (h *AdminHandler) ListSessions(c *gin.Context) {
	var state services.SessionState
	if raw := strings.TrimSpace(c.Query("state")); raw != "" {
		parsed, ok := services.ParseSessionState(strings.ToLower(raw))
		if !ok {
			response.Error(c, appErrors.NewBadRequest("state must be one of pending, active, disconnected, expired"))
			return
		}
		state = parsed
	}

	page := parseIntQuery(c, "page", 1)
	if page < 1 {
		page = 1
	}
	perPage := parseIntQuery(c, "per_page", defaultPerPage)
	if perPage < 1 || perPage > maxPerPage {
		perPage = defaultPerPage
	}

	sessions := h.sessions.List(services.ListSessionsOptions{
		Search: c.Query("search"),
		State:  state,
	})

	total := len(sessions)
	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}

	views := services.NewSessionViews(sessions[start:end], h.sessions.Now())
	response.SuccessWithMeta(c, http.StatusOK, views, response.NewMeta(page, perPage, total))
}

// SessionEvents returns the archived lifecycle history of one access code.
func (h *AdminHandler) SessionEvents(c *gin.Context) {
	if h.events == nil {
		response.Error(c, appErrors.ErrServiceUnavailable)
		return
	}

	events, err := h.events.ListForToken(c.Request.Context(), c.Param("token"), parseIntQuery(c, "limit", defaultEventLimit))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, events)
}

// Sales lists the most recent successful purchases with running totals.
func (h *AdminHandler) Sales(c *gin.Context) {
	ctx := c.Request.Context()

	sales, err := h.payments.ListRecent(ctx, parseIntQuery(c, "limit", defaultSalesLimit))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	totals, err := h.payments.Totals(ctx)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"sales":  sales,
		"totals": totals,
	})
}

// Dashboard returns the operator overview.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	summary, err := h.dashboard.Summary(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, summary)
}
