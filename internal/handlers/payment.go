package handlers

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/agrimandi/internal/middleware"
	"github.com/example/agrimandi/internal/models"
	"github.com/example/agrimandi/internal/services"
	"github.com/example/agrimandi/internal/utils"
)

// PaymentHandler manages the payment reconciliation endpoints.
type PaymentHandler struct {
	db      *gorm.DB
	payment *services.PaymentService
}

// NewPaymentHandler constructs a PaymentHandler.
func NewPaymentHandler(db *gorm.DB, payment *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{db: db, payment: payment}
}

// paymentRequest is the action envelope; each action unmarshals the raw body
// into its own typed request before any work happens.
type paymentRequest struct {
	Action string `json:"action"`
}

type createOrderRequest struct {
	Amount            float64         `json:"amount"`
	ServiceType       string          `json:"service_type"`
	ProductID         string          `json:"product_id"`
	DeliveryPartnerID string          `json:"delivery_partner_id"`
	Metadata          json.RawMessage `json:"metadata"`
}

type verifyPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
	TransactionID     string `json:"transaction_id"`
}

type abandonRequest struct {
	TransactionID string `json:"transaction_id"`
}

// Handle dispatches POST /payment by its action discriminator.
func (h *PaymentHandler) Handle(c *fiber.Ctx) error {
	var req paymentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	switch req.Action {
	case "create_order":
		var params createOrderRequest
		if err := json.Unmarshal(c.Body(), &params); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid params")
		}
		return h.createOrder(c, userID, params)
	case "verify_payment":
		var params verifyPaymentRequest
		if err := json.Unmarshal(c.Body(), &params); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid params")
		}
		return h.verifyPayment(c, params)
	case "abandon":
		var params abandonRequest
		if err := json.Unmarshal(c.Body(), &params); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid params")
		}
		return h.abandon(c, params)
	default:
		return fiber.NewError(fiber.StatusBadRequest, "unsupported action")
	}
}

func (h *PaymentHandler) createOrder(c *fiber.Ctx, userID uuid.UUID, req createOrderRequest) error {
	params := services.CreateOrderParams{
		Amount:      req.Amount,
		ServiceType: req.ServiceType,
		Metadata:    req.Metadata,
	}
	if req.ProductID != "" {
		id, err := uuid.Parse(req.ProductID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid product_id")
		}
		params.ProductID = &id
	}
	if req.DeliveryPartnerID != "" {
		id, err := uuid.Parse(req.DeliveryPartnerID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid delivery_partner_id")
		}
		params.DeliveryPartnerID = &id
	}

	checkout, err := h.payment.CreateOrder(c.Context(), userID, params)
	if err != nil {
		return writeFlowError(c, err)
	}

	return c.JSON(fiber.Map{
		"order_id":       checkout.OrderID,
		"amount":         checkout.Amount,
		"currency":       checkout.Currency,
		"key_id":         checkout.KeyID,
		"transaction_id": checkout.TransactionID,
	})
}

func (h *PaymentHandler) verifyPayment(c *fiber.Ctx, req verifyPaymentRequest) error {
	txnID, err := uuid.Parse(req.TransactionID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid transaction_id")
	}

	txn, err := h.payment.VerifyPayment(c.Context(), services.VerifyPaymentParams{
		GatewayOrderID:   req.RazorpayOrderID,
		GatewayPaymentID: req.RazorpayPaymentID,
		GatewaySignature: req.RazorpaySignature,
		TransactionID:    txnID,
	})
	if err != nil {
		return writeFlowError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":     txn.Status == models.TransactionStatusCompleted,
		"transaction": txn,
	})
}

func (h *PaymentHandler) abandon(c *fiber.Ctx, req abandonRequest) error {
	txnID, err := uuid.Parse(req.TransactionID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid transaction_id")
	}

	txn, err := h.payment.Abandon(c.Context(), txnID)
	if err != nil {
		return writeFlowError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"transaction": txn,
	})
}

// ListTransactions returns the authenticated user's payment history.
func (h *PaymentHandler) ListTransactions(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Transaction{}).Where("user_id = ?", userID)

	if status := strings.TrimSpace(c.Query("status")); status != "" {
		query = query.Where("status = ?", status)
	}
	if serviceType := strings.TrimSpace(c.Query("service_type")); serviceType != "" {
		query = query.Where("service_type = ?", serviceType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var txns []models.Transaction
	if err := query.
		Order("created_at desc").
		Limit(pg.Limit).
		Offset(pg.Offset).
		Find(&txns).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    txns,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// writeFlowError converts a services.FlowError into the boundary response
// shape; anything else bubbles up to the fiber error handler.
func writeFlowError(c *fiber.Ctx, err error) error {
	var flowErr *services.FlowError
	if errors.As(err, &flowErr) {
		return c.Status(flowErr.Status).JSON(fiber.Map{
			"error": fiber.Map{
				"code":      flowErr.Code,
				"message":   flowErr.Message,
				"retryable": flowErr.Retryable,
			},
		})
	}
	return err
}
