package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/salon-token-service/internal/api/dto"
	"github.com/spec-kit/salon-token-service/internal/service"
	apperrors "github.com/spec-kit/salon-token-service/pkg/util"
)

// OTPHandler manages the mobile verification precondition.
type OTPHandler struct {
	service *service.OTPService
}

// NewOTPHandler constructs handler.
func NewOTPHandler(otpService *service.OTPService) *OTPHandler {
	return &OTPHandler{service: otpService}
}

// Send POST /api/otp/send.
func (h *OTPHandler) Send(c *fiber.Ctx) error {
	var req dto.OTPSendRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	code, err := h.service.Send(c.UserContext(), req.Mobile)
	if err != nil {
		return err
	}
	response := fiber.Map{"message": "otp sent"}
	if code != "" {
		// Dev-mode convenience only; production delivery goes via SMS.
		response["code"] = code
	}
	return c.JSON(fiber.Map{"data": response})
}

// Verify POST /api/otp/verify.
func (h *OTPHandler) Verify(c *fiber.Ctx) error {
	var req dto.OTPVerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	if err := h.service.Verify(c.UserContext(), req.Mobile, req.Code); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"message": "mobile verified"}})
}
