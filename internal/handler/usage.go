package handler

import (
	"docquiz/internal/domain"
	"docquiz/internal/dto"
	"docquiz/internal/middleware"
	"docquiz/internal/service"
	"docquiz/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// UsageHandler exposes the quota gate to other services
type UsageHandler struct {
	gate      service.UsageGate
	validator *validation.Validator
}

func NewUsageHandler(gate service.UsageGate, validator *validation.Validator) *UsageHandler {
	return &UsageHandler{gate: gate, validator: validator}
}

// CheckUsage godoc
// @Summary Check and consume a usage unit
// @Description Admits one unit of the resource for the user's plan, or denies with an upgrade hint
// @Tags usage
// @Accept json
// @Produce json
// @Param request body dto.UsageRequest true "Usage request"
// @Success 200 {object} dto.UsageResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 403 {object} dto.QuotaExceededResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Security ApiKeyAuth
// @Router /usage [post]
func (h *UsageHandler) CheckUsage(c *fiber.Ctx) error {
	var req dto.UsageRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewError(domain.CodeInvalidInput, "Invalid request body", err)
	}
	if errs := h.validator.ValidateUsageRequest(&req); len(errs) > 0 {
		return errs
	}
	if err := middleware.AuthorizeUser(c, req.UserID); err != nil {
		return err
	}

	resource, err := domain.ParseResourceType(req.Type)
	if err != nil {
		return domain.NewInvalidInputError(err.Error())
	}

	decision, err := h.gate.CheckAndConsume(c.UserContext(), req.UserID, resource)
	if err != nil {
		return err
	}

	resp := dto.UsageResponse{
		Success:   true,
		Type:      string(decision.Resource),
		Used:      decision.Used,
		Remaining: decision.Remaining(),
		Plan:      decision.Plan,
	}
	if decision.Limit != domain.Unlimited {
		limit := decision.Limit
		resp.Limit = &limit
	}
	return c.JSON(resp)
}
