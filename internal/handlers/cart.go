package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/agrimandi/internal/middleware"
	"github.com/example/agrimandi/internal/models"
	"github.com/example/agrimandi/internal/pricing"
	"github.com/example/agrimandi/internal/services"
)

// CartHandler manages the buyer's cart. Fee and total columns are never
// trusted from the client; every write reprices the line through the pricing
// package.
type CartHandler struct {
	db *gorm.DB
}

// NewCartHandler constructs a CartHandler.
func NewCartHandler(db *gorm.DB) *CartHandler {
	return &CartHandler{db: db}
}

// ListCart returns the user's cart with a grand total.
func (h *CartHandler) ListCart(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var items []models.CartItem
	if err := h.db.Preload("Product").Preload("DeliveryPartner").
		Where("user_id = ?", userID).
		Order("created_at asc").
		Find(&items).Error; err != nil {
		return err
	}

	var total float64
	for _, item := range items {
		total += item.LineTotal
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    items,
		"total":   total,
	})
}

type cartItemRequest struct {
	ProductID         string `json:"product_id"`
	DeliveryPartnerID string `json:"delivery_partner_id"`
	Quantity          int    `json:"quantity"`
}

// AddItem adds a product line to the cart, pricing it server-side.
func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req cartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid product_id")
	}

	var product models.Product
	if err := h.db.First(&product, "id = ? AND is_active = true", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	item := models.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  req.Quantity,
		UnitPrice: product.Price,
	}

	var partner *models.DeliveryPartner
	if req.DeliveryPartnerID != "" {
		partnerID, err := uuid.Parse(req.DeliveryPartnerID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid delivery_partner_id")
		}
		var p models.DeliveryPartner
		if err := h.db.First(&p, "id = ?", partnerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "delivery partner not found")
			}
			return err
		}
		partner = &p
		item.DeliveryPartnerID = &p.ID
	}

	if err := priceCartItem(&item, &product, partner); err != nil {
		return writeFlowError(c, err)
	}

	if err := h.db.Create(&item).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": item})
}

type updateCartItemRequest struct {
	Quantity          int    `json:"quantity"`
	DeliveryPartnerID string `json:"delivery_partner_id"`
}

// UpdateItem changes quantity or delivery partner and reprices the line.
func (h *CartHandler) UpdateItem(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var item models.CartItem
	if err := h.db.First(&item, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "cart item not found")
		}
		return err
	}

	var req updateCartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Quantity != 0 {
		item.Quantity = req.Quantity
	}
	if req.DeliveryPartnerID != "" {
		partnerID, err := uuid.Parse(req.DeliveryPartnerID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid delivery_partner_id")
		}
		item.DeliveryPartnerID = &partnerID
	}

	var product models.Product
	if err := h.db.First(&product, "id = ?", item.ProductID).Error; err != nil {
		return err
	}

	var partner *models.DeliveryPartner
	if item.DeliveryPartnerID != nil {
		var p models.DeliveryPartner
		if err := h.db.First(&p, "id = ?", *item.DeliveryPartnerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "delivery partner not found")
			}
			return err
		}
		partner = &p
	}

	item.UnitPrice = product.Price
	if err := priceCartItem(&item, &product, partner); err != nil {
		return writeFlowError(c, err)
	}

	if err := h.db.Save(&item).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": item})
}

// RemoveItem deletes one cart line.
func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	result := h.db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.CartItem{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "cart item not found")
	}

	return c.JSON(fiber.Map{"success": true})
}

// ClearCart deletes every line in the user's cart.
func (h *CartHandler) ClearCart(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	if err := h.db.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true})
}

// priceCartItem fills DeliveryFee and LineTotal from the product, quantity
// and the distance to the chosen partner.
func priceCartItem(item *models.CartItem, product *models.Product, partner *models.DeliveryPartner) error {
	var distance, rate float64
	if partner != nil {
		distance = pricing.DistanceKm(partner.Latitude, partner.Longitude, product.Latitude, product.Longitude)
		rate = partner.RatePerKm
	}

	quote, err := pricing.NewQuote(item.UnitPrice, item.Quantity, product.Quantity, distance, rate)
	if err != nil {
		if errors.Is(err, pricing.ErrInvalidQuantity) {
			return services.ErrInvalidQuantity("quantity must be between 1 and the available stock")
		}
		return err
	}

	item.DeliveryFee = quote.DeliveryFee
	item.LineTotal = quote.Total
	return nil
}
