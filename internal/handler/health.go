package handler

import (
	"context"
	"time"

	"docquiz/internal/domain"
	"docquiz/internal/dto"

	"github.com/gofiber/fiber/v2"
)

// Pinger is satisfied by *sqlx.DB and *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler reports database and cache reachability
type HealthHandler struct {
	db       Pinger
	cache    domain.Cache
	provider string
}

// NewHealthHandler accepts a nil cache when Redis is not configured.
func NewHealthHandler(db Pinger, cache domain.Cache, provider string) *HealthHandler {
	return &HealthHandler{db: db, cache: cache, provider: provider}
}

// Health godoc
// @Summary Service health
// @Tags health
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Failure 503 {object} dto.HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	resp := dto.HealthResponse{Status: "ok", Checks: map[string]string{}, Provider: h.provider}
	if err := h.db.PingContext(ctx); err != nil {
		resp.Status = "degraded"
		resp.Checks["database"] = err.Error()
	} else {
		resp.Checks["database"] = "ok"
	}
	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			resp.Status = "degraded"
			resp.Checks["redis"] = err.Error()
		} else {
			resp.Checks["redis"] = "ok"
		}
	}

	status := fiber.StatusOK
	if resp.Status != "ok" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(resp)
}
