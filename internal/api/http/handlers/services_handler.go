package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/salon-token-service/internal/domain"
	apperrors "github.com/spec-kit/salon-token-service/pkg/util"
)

// ServicesHandler exposes the per-queue service catalog.
type ServicesHandler struct {
	queues domain.QueueSet
}

// NewServicesHandler constructs handler.
func NewServicesHandler(queues domain.QueueSet) *ServicesHandler {
	return &ServicesHandler{queues: queues}
}

// List GET /api/services?queue=male. Without a queue parameter the whole
// catalog is returned.
func (h *ServicesHandler) List(c *fiber.Ctx) error {
	queue := strings.ToLower(strings.TrimSpace(c.Query("queue")))
	if queue == "" {
		catalog := make(map[string][]string, len(h.queues.Categories()))
		for _, category := range h.queues.Categories() {
			catalog[category] = h.queues.ServicesFor(category)
		}
		return c.JSON(fiber.Map{"data": catalog})
	}

	if !h.queues.Contains(queue) {
		return apperrors.NewValidationError("unknown queue category", map[string]any{
			"queue":      queue,
			"categories": h.queues.Categories(),
		})
	}
	return c.JSON(fiber.Map{"data": h.queues.ServicesFor(queue)})
}
