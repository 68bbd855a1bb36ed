package http

import (
	"context"

	"github.com/labstack/echo/v4"

	"kotvukai/internal/domain"
)

type PlanLister interface {
	List(ctx context.Context) ([]domain.Plan, error)
}

type PlanHandler struct {
	plans PlanLister
}

func NewPlanHandler(plans PlanLister) *PlanHandler {
	return &PlanHandler{plans: plans}
}

// ListPlans returns subscription tiers
// GET /api/plans
func (h *PlanHandler) ListPlans(c echo.Context) error {
	plans, err := h.plans.List(c.Request().Context())
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to get plans", err)
	}
	return SuccessResponse(c, plans)
}
