package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/agrimandi/internal/services"
)

// OTPHandler manages phone-scoped OTP endpoints. These are the only routes
// that do not require a bearer token: possession of the phone is the factor.
type OTPHandler struct {
	otp *services.OTPService
}

// NewOTPHandler constructs an OTPHandler.
func NewOTPHandler(otp *services.OTPService) *OTPHandler {
	return &OTPHandler{otp: otp}
}

type sendOTPRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Type        string `json:"type"`
}

// SendOTP dispatches a fresh verification code.
func (h *OTPHandler) SendOTP(c *fiber.Ctx) error {
	var req sendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	purpose := req.Type
	if purpose != "signup" && purpose != "login" {
		return fiber.NewError(fiber.StatusBadRequest, "type must be signup or login")
	}

	if err := h.otp.RequestOTP(c.Context(), req.PhoneNumber, purpose); err != nil {
		return writeFlowError(c, err)
	}

	return c.JSON(fiber.Map{"success": true})
}

type verifyOTPRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	OTP         string `json:"otp"`
}

// VerifyOTP validates a submitted code.
func (h *OTPHandler) VerifyOTP(c *fiber.Ctx) error {
	var req verifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.otp.VerifyOTP(c.Context(), req.PhoneNumber, req.OTP); err != nil {
		return writeFlowError(c, err)
	}

	return c.JSON(fiber.Map{"verified": true})
}
