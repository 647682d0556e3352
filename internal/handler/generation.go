package handler

import (
	"context"
	"time"

	"docquiz/internal/domain"
	"docquiz/internal/dto"
	"docquiz/internal/middleware"
	"docquiz/internal/service"
	"docquiz/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// GenerationHandler handles question generation requests
type GenerationHandler struct {
	pipeline  service.GenerationPipeline
	validator *validation.Validator
	timeout   time.Duration
}

// NewGenerationHandler bounds every generation run by timeout (zero disables it).
func NewGenerationHandler(pipeline service.GenerationPipeline, validator *validation.Validator, timeout time.Duration) *GenerationHandler {
	return &GenerationHandler{
		pipeline:  pipeline,
		validator: validator,
		timeout:   timeout,
	}
}

// Generate godoc
// @Summary Generate quiz questions from a document
// @Description Extracts text from an uploaded document, asks the language model for multiple-choice questions and appends them to the quiz
// @Tags generation
// @Accept json
// @Produce json
// @Param request body dto.GenerateRequest true "Generation request"
// @Success 200 {object} dto.GenerateResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 403 {object} dto.QuotaExceededResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Security ApiKeyAuth
// @Router /generate [post]
func (h *GenerationHandler) Generate(c *fiber.Ctx) error {
	var req dto.GenerateRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewError(domain.CodeInvalidInput, "Invalid request body", err)
	}
	if errs := h.validator.ValidateGenerateRequest(&req); len(errs) > 0 {
		return errs
	}
	if err := middleware.AuthorizeUser(c, req.UserID); err != nil {
		return err
	}

	// fasthttp never cancels this context when the client disconnects, so the
	// timeout is what bounds a run.
	ctx := c.UserContext()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	result, err := h.pipeline.Generate(ctx, service.GenerateRequest{
		UserID:                 req.UserID,
		QuizID:                 req.QuizID,
		DocumentID:             req.DocumentID,
		RequestedQuestionCount: req.RequestedQuestionCount,
	})
	if err != nil {
		return err
	}

	return c.JSON(dto.GenerateResponse{Success: true, Count: result.Count})
}
