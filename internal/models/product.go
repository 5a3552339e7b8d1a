package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Product is a produce listing owned by a farmer.
type Product struct {
	BaseModel
	FarmerID    uuid.UUID      `gorm:"type:uuid;index" json:"farmer_id"`
	Farmer      *User          `json:"farmer,omitempty"`
	Name        string         `json:"name"`
	Category    string         `gorm:"index" json:"category"`
	Description string         `json:"description"`
	Price       float64        `json:"price"`
	Unit        string         `json:"unit"`
	Quantity    int            `json:"quantity"`
	Location    string         `json:"location"`
	Latitude    float64        `json:"latitude"`
	Longitude   float64        `json:"longitude"`
	Images      pq.StringArray `gorm:"type:text[]" json:"images"`
	IsActive    bool           `json:"is_active"`
}

// DeliveryPartner is a courier a buyer can hire for an order. The delivery
// fee is derived from RatePerKm and the distance to the seller.
type DeliveryPartner struct {
	BaseModel
	Name        string  `json:"name"`
	Phone       string  `gorm:"uniqueIndex" json:"phone"`
	VehicleType string  `json:"vehicle_type"`
	RatePerKm   float64 `json:"rate_per_km"`
	Location    string  `json:"location"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	IsAvailable bool    `json:"is_available"`
}
