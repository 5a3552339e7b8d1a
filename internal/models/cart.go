package models

import "github.com/google/uuid"

// CartItem holds one selected product in a buyer's cart together with the
// chosen delivery partner. DeliveryFee and LineTotal are always recomputed
// server-side so that LineTotal == UnitPrice*Quantity + DeliveryFee at every
// read.
type CartItem struct {
	BaseModel
	UserID            uuid.UUID        `gorm:"type:uuid;index" json:"user_id"`
	ProductID         uuid.UUID        `gorm:"type:uuid;index" json:"product_id"`
	Product           *Product         `json:"product,omitempty"`
	DeliveryPartnerID *uuid.UUID       `gorm:"type:uuid" json:"delivery_partner_id"`
	DeliveryPartner   *DeliveryPartner `json:"delivery_partner,omitempty"`
	Quantity          int              `json:"quantity"`
	UnitPrice         float64          `json:"unit_price"`
	DeliveryFee       float64          `json:"delivery_fee"`
	LineTotal         float64          `json:"line_total"`
}
