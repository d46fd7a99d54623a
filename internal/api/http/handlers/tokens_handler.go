package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/salon-token-service/internal/api/dto"
	"github.com/spec-kit/salon-token-service/internal/service"
	apperrors "github.com/spec-kit/salon-token-service/pkg/util"
)

// TokensHandler manages token submission and direct serve endpoints.
type TokensHandler struct {
	service *service.QueueService
}

// NewTokensHandler constructs handler.
func NewTokensHandler(queueService *service.QueueService) *TokensHandler {
	return &TokensHandler{service: queueService}
}

// Submit POST /api/tokens.
func (h *TokensHandler) Submit(c *fiber.Ctx) error {
	var req dto.SubmitTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	token, err := h.service.SubmitToken(c.UserContext(), service.SubmitTokenInput{
		Queue:   req.Queue,
		Service: req.Service,
		Name:    req.Name,
		Mobile:  req.Mobile,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.FromToken(token)})
}

// Get GET /api/tokens/:id.
func (h *TokensHandler) Get(c *fiber.Ctx) error {
	token, err := h.service.GetToken(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromToken(token)})
}

// Serve POST /api/tokens/:id/serve.
func (h *TokensHandler) Serve(c *fiber.Ctx) error {
	token, err := h.service.ServeSpecific(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromToken(token)})
}
