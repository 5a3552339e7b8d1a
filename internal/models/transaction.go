package models

import "github.com/google/uuid"

// Transaction statuses. A transaction is created pending and moves to exactly
// one terminal status; terminal statuses are never reversed and rows are
// never deleted (audit record).
const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
	TransactionStatusAbandoned = "abandoned"
)

// Service types a payment can be created for.
const (
	ServiceTypePurchase = "produce_purchase"
	ServiceTypeDelivery = "delivery_hire"
)

// Transaction records one payment attempt against the gateway.
type Transaction struct {
	BaseModel
	UserID            uuid.UUID  `gorm:"type:uuid;index" json:"user_id"`
	GatewayOrderID    string     `gorm:"uniqueIndex" json:"gateway_order_id"`
	GatewayPaymentID  string     `json:"gateway_payment_id"`
	GatewaySignature  string     `json:"gateway_signature"`
	Amount            float64    `json:"amount"`
	Currency          string     `json:"currency"`
	Status            string     `gorm:"index" json:"status"`
	ServiceType       string     `json:"service_type"`
	ProductID         *uuid.UUID `gorm:"type:uuid" json:"product_id"`
	DeliveryPartnerID *uuid.UUID `gorm:"type:uuid" json:"delivery_partner_id"`
	Metadata          []byte     `gorm:"type:jsonb" json:"metadata"`
}

// IsTerminal reports whether the transaction has reached a final status.
func (t *Transaction) IsTerminal() bool {
	return t.Status != TransactionStatusPending
}
