package middleware

import (
	"errors"
	"net/http"

	"docquiz/internal/domain"
	"docquiz/internal/dto"
	"docquiz/internal/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrorResponse represents the standard error response structure
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details string                 `json:"details,omitempty"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// ValidationErrorResponse represents validation error response
type ValidationErrorResponse struct {
	Error  string                   `json:"error"`
	Code   string                   `json:"code"`
	Errors []domain.ValidationError `json:"errors"`
}

// ErrorHandler is the application-wide fiber error handler. Error causes are
// exposed as details only when isProduction is false.
func ErrorHandler(isProduction bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		log := logger.Get()

		var validationErrs domain.ValidationErrors
		if errors.As(err, &validationErrs) {
			log.Warn("Validation errors occurred",
				zap.String("path", c.Path()),
				zap.Int("error_count", len(validationErrs)),
			)
			return c.Status(http.StatusBadRequest).JSON(ValidationErrorResponse{
				Error:  "Request validation failed",
				Code:   string(domain.CodeValidation),
				Errors: validationErrs,
			})
		}

		var domainErr *domain.DomainError
		if errors.As(err, &domainErr) {
			status := mapDomainErrorToHTTPStatus(domainErr)

			fields := []zap.Field{
				zap.String("path", c.Path()),
				zap.String("code", string(domainErr.Code)),
				zap.String("message", domainErr.Message),
				zap.Int("status", status),
				zap.Error(domainErr.Cause),
			}
			if status >= http.StatusInternalServerError {
				log.Error("Domain error occurred", fields...)
			} else {
				log.Warn("Domain error occurred", fields...)
			}

			if domainErr.Code == domain.CodeQuotaExceeded {
				plan, _ := domainErr.Context["plan"].(string)
				return c.Status(status).JSON(dto.QuotaExceededResponse{
					Upgrade: true,
					Plan:    plan,
					Message: domainErr.Message,
				})
			}

			response := ErrorResponse{
				Error: domainErr.Message,
				Code:  string(domainErr.Code),
			}
			if !isProduction {
				if domainErr.Cause != nil {
					response.Details = domainErr.Cause.Error()
				}
				if len(domainErr.Context) > 0 {
					response.Context = domainErr.Context
				}
			}
			return c.Status(status).JSON(response)
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			log.Warn("Fiber error occurred",
				zap.Int("code", fiberErr.Code),
				zap.String("message", fiberErr.Message),
			)
			return c.Status(fiberErr.Code).JSON(ErrorResponse{
				Error: fiberErr.Message,
				Code:  "HTTP_ERROR",
			})
		}

		log.Error("Unknown error occurred",
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		response := ErrorResponse{
			Error: "Internal server error",
			Code:  string(domain.CodeInternal),
		}
		if !isProduction {
			response.Details = err.Error()
		}
		return c.Status(http.StatusInternalServerError).JSON(response)
	}
}

// mapDomainErrorToHTTPStatus maps domain errors to HTTP status codes
func mapDomainErrorToHTTPStatus(err *domain.DomainError) int {
	switch err.Code {
	case domain.CodeNotFound, domain.CodeDocumentNotFound, domain.CodeQuizNotFound:
		return http.StatusNotFound
	case domain.CodeInvalidInput, domain.CodeValidation, domain.CodeMissingField,
		domain.CodeInvalidFormat, domain.CodeOutOfRange, domain.CodeUnsupportedFormat:
		return http.StatusBadRequest
	case domain.CodeUnauthorized:
		return http.StatusUnauthorized
	case domain.CodeForbidden, domain.CodeQuotaExceeded:
		return http.StatusForbidden
	case domain.CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
