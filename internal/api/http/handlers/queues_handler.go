package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/salon-token-service/internal/api/dto"
	"github.com/spec-kit/salon-token-service/internal/repository"
	"github.com/spec-kit/salon-token-service/internal/service"
)

// QueuesHandler manages per-queue endpoints.
type QueuesHandler struct {
	service *service.QueueService
}

// NewQueuesHandler constructs handler.
func NewQueuesHandler(queueService *service.QueueService) *QueuesHandler {
	return &QueuesHandler{service: queueService}
}

// ServeNext POST /api/queues/:queue/serve-next. An empty queue answers
// 204 rather than an error.
func (h *QueuesHandler) ServeNext(c *fiber.Ctx) error {
	token, err := h.service.ServeNext(c.UserContext(), c.Params("queue"))
	if err != nil {
		if errors.Is(err, repository.ErrNoTokensWaiting) {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromToken(token)})
}

// Waiting GET /api/queues/:queue/waiting.
func (h *QueuesHandler) Waiting(c *fiber.Ctx) error {
	tokens, err := h.service.ListWaiting(c.UserContext(), c.Params("queue"))
	if err != nil {
		return err
	}
	items := make([]dto.TokenResponse, 0, len(tokens))
	for i := range tokens {
		items = append(items, dto.FromToken(&tokens[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Serving GET /api/queues/:queue/serving.
func (h *QueuesHandler) Serving(c *fiber.Ctx) error {
	token, err := h.service.CurrentServing(c.UserContext(), c.Params("queue"))
	if err != nil {
		return err
	}
	if token == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(fiber.Map{"data": dto.FromToken(token)})
}

// Recent GET /api/queues/:queue/recent returns the last issued token
// regardless of status.
func (h *QueuesHandler) Recent(c *fiber.Ctx) error {
	token, err := h.service.MostRecentIssued(c.UserContext(), c.Params("queue"))
	if err != nil {
		return err
	}
	if token == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(fiber.Map{"data": dto.FromToken(token)})
}
