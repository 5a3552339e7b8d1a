package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/agrimandi/internal/models"
	"github.com/example/agrimandi/internal/utils"
)

// PartnerHandler manages delivery partner endpoints.
type PartnerHandler struct {
	db *gorm.DB
}

// NewPartnerHandler constructs a PartnerHandler.
func NewPartnerHandler(db *gorm.DB) *PartnerHandler {
	return &PartnerHandler{db: db}
}

// ListPartners returns delivery partners, by default only available ones.
func (h *PartnerHandler) ListPartners(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.DeliveryPartner{})

	if c.Query("include_unavailable") != "true" {
		query = query.Where("is_available = true")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var partners []models.DeliveryPartner
	if err := query.
		Order("rate_per_km asc").
		Limit(pg.Limit).
		Offset(pg.Offset).
		Find(&partners).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    partners,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetPartner returns one delivery partner.
func (h *PartnerHandler) GetPartner(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var partner models.DeliveryPartner
	if err := h.db.First(&partner, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "delivery partner not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": partner})
}

type partnerRequest struct {
	Name        string  `json:"name"`
	Phone       string  `json:"phone"`
	VehicleType string  `json:"vehicle_type"`
	RatePerKm   float64 `json:"rate_per_km"`
	Location    string  `json:"location"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// CreatePartner registers a delivery partner.
func (h *PartnerHandler) CreatePartner(c *fiber.Ctx) error {
	var req partnerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Name == "" || req.RatePerKm < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "missing or invalid fields")
	}

	phone, ok := utils.NormalizePhone(req.Phone)
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, "invalid phone number")
	}

	partner := models.DeliveryPartner{
		Name:        req.Name,
		Phone:       phone,
		VehicleType: req.VehicleType,
		RatePerKm:   req.RatePerKm,
		Location:    req.Location,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		IsAvailable: true,
	}

	if err := h.db.Create(&partner).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": partner})
}
