package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/wifipass/internal/models"
	"github.com/charlesng35/wifipass/internal/services"
	"github.com/charlesng35/wifipass/pkg/response"
)

// PlanHandler serves the plan catalog to customers and operators.
type PlanHandler struct {
	catalog *services.PlanCatalogService
}

// NewPlanHandler constructs a PlanHandler.
func NewPlanHandler(catalog *services.PlanCatalogService) *PlanHandler {
	return &PlanHandler{catalog: catalog}
}

type planDTO struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Price           int64  `json:"price"`
	DurationSeconds int64  `json:"duration_seconds"`
	DurationLabel   string `json:"duration_label"`
	SpeedMbps       int    `json:"speed_mbps"`
	Enabled         bool   `json:"enabled"`
}

func mapPlan(plan *models.Plan) planDTO {
	return planDTO{
		ID:              plan.ID,
		Name:            plan.Name,
		Price:           plan.PriceMinorUnits,
		DurationSeconds: plan.DurationSeconds,
		DurationLabel:   services.FormatPlanDuration(plan.DurationSeconds),
		SpeedMbps:       plan.SpeedMbps,
		Enabled:         plan.Enabled,
	}
}

func mapPlans(plans []models.Plan) []planDTO {
	out := make([]planDTO, 0, len(plans))
	for i := range plans {
		out = append(out, mapPlan(&plans[i]))
	}
	return out
}

// ListEnabled returns the plans offered on the purchase screen.
func (h *PlanHandler) ListEnabled(c *gin.Context) {
	h.list(c, false)
}

// ListAll returns every plan, including disabled ones, for the admin console.
func (h *PlanHandler) ListAll(c *gin.Context) {
	h.list(c, true)
}

func (h *PlanHandler) list(c *gin.Context, includeDisabled bool) {
	plans, err := h.catalog.List(c.Request.Context(), includeDisabled)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, mapPlans(plans))
}

// Create adds a plan.
func (h *PlanHandler) Create(c *gin.Context) {
	var req services.CreatePlanInput
	if !bindAndValidate(c, &req) {
		return
	}

	plan, err := h.catalog.Create(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, mapPlan(plan))
}

// Update patches mutable plan fields.
func (h *PlanHandler) Update(c *gin.Context) {
	var req services.UpdatePlanInput
	if !bindAndValidate(c, &req) {
		return
	}

	plan, err := h.catalog.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, mapPlan(plan))
}

// Toggle flips whether a plan can be purchased. Existing sessions are unaffected.
func (h *PlanHandler) Toggle(c *gin.Context) {
	plan, err := h.catalog.Toggle(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, mapPlan(plan))
}

// Delete removes a plan.
func (h *PlanHandler) Delete(c *gin.Context) {
	if err := h.catalog.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
