package handlers

import (
	"encoding/json"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/example/agrimandi/internal/config"
	"github.com/example/agrimandi/internal/models"
	"github.com/example/agrimandi/internal/services"
	"github.com/example/agrimandi/internal/utils"
)

// AadhaarHandler manages the Aadhaar identity endpoints.
type AadhaarHandler struct {
	cfg      *config.Config
	identity *services.IdentityService
	telegram *services.TelegramService
}

// NewAadhaarHandler constructs an AadhaarHandler.
func NewAadhaarHandler(cfg *config.Config, identity *services.IdentityService, telegram *services.TelegramService) *AadhaarHandler {
	return &AadhaarHandler{cfg: cfg, identity: identity, telegram: telegram}
}

type aadhaarRequest struct {
	Action string `json:"action"`
}

type aadhaarSignupRequest struct {
	AadhaarNumber string `json:"aadhaarNumber"`
	Name          string `json:"name"`
	DateOfBirth   string `json:"dateOfBirth"`
	PhoneNumber   string `json:"phoneNumber"`
}

type aadhaarLoginRequest struct {
	AadhaarNumber string `json:"aadhaarNumber"`
}

type aadhaarVerifyRequest struct {
	AadhaarNumber string `json:"aadhaarNumber"`
	OTP           string `json:"otp"`
}

// Handle dispatches POST /aadhaar-auth by its action discriminator.
func (h *AadhaarHandler) Handle(c *fiber.Ctx) error {
	var req aadhaarRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	switch req.Action {
	case "signup":
		var params aadhaarSignupRequest
		if err := json.Unmarshal(c.Body(), &params); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid params")
		}
		return h.signup(c, params)
	case "login":
		var params aadhaarLoginRequest
		if err := json.Unmarshal(c.Body(), &params); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid params")
		}
		return h.login(c, params)
	case "verify":
		var params aadhaarVerifyRequest
		if err := json.Unmarshal(c.Body(), &params); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid params")
		}
		return h.verify(c, params)
	default:
		return fiber.NewError(fiber.StatusBadRequest, "unsupported action")
	}
}

func (h *AadhaarHandler) signup(c *fiber.Ctx, req aadhaarSignupRequest) error {
	user, err := h.identity.Signup(c.Context(), services.SignupParams{
		Name:          req.Name,
		AadhaarNumber: req.AadhaarNumber,
		DateOfBirth:   req.DateOfBirth,
		Phone:         req.PhoneNumber,
	})
	if err != nil {
		return writeFlowError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"user":    publicUser(user),
	})
}

func (h *AadhaarHandler) login(c *fiber.Ctx, req aadhaarLoginRequest) error {
	user, err := h.identity.Login(c.Context(), req.AadhaarNumber)
	if err != nil {
		return writeFlowError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    publicUser(user),
	})
}

func (h *AadhaarHandler) verify(c *fiber.Ctx, req aadhaarVerifyRequest) error {
	user, err := h.identity.Verify(c.Context(), req.AadhaarNumber, req.OTP)
	if err != nil {
		return writeFlowError(c, err)
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	if h.telegram != nil {
		notify := *user
		go func() {
			if err := h.telegram.NotifySignup(services.SignupNotification{
				Name:     notify.Name,
				Phone:    notify.Phone,
				UserType: notify.UserType,
			}); err != nil {
				log.Printf("[Aadhaar] Telegram signup notification failed: %v", err)
			}
		}()
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    publicUser(user),
		"token":   token,
	})
}

func publicUser(user *models.User) fiber.Map {
	return fiber.Map{
		"id":                user.ID,
		"name":              user.Name,
		"phone":             user.Phone,
		"user_type":         user.UserType,
		"is_verified":       user.IsVerified,
		"profile_completed": user.ProfileCompleted,
	}
}
