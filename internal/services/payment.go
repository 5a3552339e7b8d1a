package services

import (
	"context"
	"errors"
	"log"
	"math"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/agrimandi/internal/models"
)

// PaymentGateway is the slice of the gateway the payment flow needs.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string, notes map[string]string) (*GatewayOrder, error)
	KeyID() string
	VerifySignature(orderID, paymentID, signature string) bool
}

// TransactionStore persists payment transactions.
type TransactionStore interface {
	Create(ctx context.Context, txn *models.Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	Update(ctx context.Context, txn *models.Transaction) error
}

// ErrTransactionMissing is returned by stores when no row matches.
var ErrTransactionMissing = errors.New("transaction record not found")

// PaymentService orchestrates the order-and-payment reconciliation flow:
// mint a gateway order, record a pending transaction, verify the checkout
// callback signature and finalize the transaction exactly once.
type PaymentService struct {
	store    TransactionStore
	gateway  PaymentGateway
	telegram *TelegramService
}

// NewPaymentService constructs a PaymentService.
func NewPaymentService(store TransactionStore, gateway PaymentGateway, telegram *TelegramService) *PaymentService {
	return &PaymentService{store: store, gateway: gateway, telegram: telegram}
}

// CreateOrderParams describes one payment intent.
type CreateOrderParams struct {
	Amount            float64
	ServiceType       string
	ProductID         *uuid.UUID
	DeliveryPartnerID *uuid.UUID
	Metadata          []byte
}

// CheckoutParams is what the client-side checkout widget needs.
type CheckoutParams struct {
	OrderID       string    `json:"order_id"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
	KeyID         string    `json:"key_id"`
	TransactionID uuid.UUID `json:"transaction_id"`
}

// CreateOrder mints a gateway order and records a pending transaction. The
// row is persisted only after the gateway accepts, so a gateway failure
// leaves nothing behind and the caller may simply retry.
func (s *PaymentService) CreateOrder(ctx context.Context, userID uuid.UUID, params CreateOrderParams) (*CheckoutParams, error) {
	if params.Amount <= 0 {
		return nil, ErrValidation("amount must be greater than zero")
	}
	if params.ServiceType != models.ServiceTypePurchase && params.ServiceType != models.ServiceTypeDelivery {
		return nil, ErrValidation("unknown service type")
	}

	receipt := uuid.NewString()
	amountPaise := int64(math.Round(params.Amount * 100))

	order, err := s.gateway.CreateOrder(ctx, amountPaise, "INR", receipt, map[string]string{
		"service_type": params.ServiceType,
	})
	if err != nil {
		log.Printf("[Payment] gateway order creation failed: %v", err)
		return nil, ErrGatewayUnavailable("payment gateway unavailable")
	}

	txn := &models.Transaction{
		UserID:            userID,
		GatewayOrderID:    order.ID,
		Amount:            params.Amount,
		Currency:          order.Currency,
		Status:            models.TransactionStatusPending,
		ServiceType:       params.ServiceType,
		ProductID:         params.ProductID,
		DeliveryPartnerID: params.DeliveryPartnerID,
		Metadata:          params.Metadata,
	}

	if err := s.store.Create(ctx, txn); err != nil {
		return nil, err
	}

	return &CheckoutParams{
		OrderID:       order.ID,
		Amount:        order.Amount,
		Currency:      order.Currency,
		KeyID:         s.gateway.KeyID(),
		TransactionID: txn.ID,
	}, nil
}

// VerifyPaymentParams carries the checkout callback fields.
type VerifyPaymentParams struct {
	GatewayOrderID   string
	GatewayPaymentID string
	GatewaySignature string
	TransactionID    uuid.UUID
}

// VerifyPayment checks the callback signature and finalizes the transaction.
// A matching signature completes it, a forged one fails it; either way the
// final record is returned. Once a transaction is terminal, repeated calls
// short-circuit and return the stored record without re-running the update.
func (s *PaymentService) VerifyPayment(ctx context.Context, params VerifyPaymentParams) (*models.Transaction, error) {
	txn, err := s.store.FindByID(ctx, params.TransactionID)
	if err != nil {
		if errors.Is(err, ErrTransactionMissing) {
			return nil, ErrTransactionNotFound()
		}
		return nil, err
	}

	if txn.GatewayOrderID != params.GatewayOrderID {
		return nil, ErrTransactionNotFound()
	}

	if txn.IsTerminal() {
		return txn, nil
	}

	if s.gateway.VerifySignature(params.GatewayOrderID, params.GatewayPaymentID, params.GatewaySignature) {
		txn.Status = models.TransactionStatusCompleted
	} else {
		txn.Status = models.TransactionStatusFailed
	}
	txn.GatewayPaymentID = params.GatewayPaymentID
	txn.GatewaySignature = params.GatewaySignature

	if err := s.store.Update(ctx, txn); err != nil {
		return nil, err
	}

	if txn.Status == models.TransactionStatusCompleted && s.telegram != nil {
		notify := *txn
		go func() {
			if err := s.telegram.NotifyPaymentSuccess(PaymentSuccessNotification{
				TransactionID:  notify.ID.String(),
				GatewayOrderID: notify.GatewayOrderID,
				ServiceType:    notify.ServiceType,
				Amount:         notify.Amount,
				Currency:       notify.Currency,
			}); err != nil {
				log.Printf("[Payment] Telegram payment success notification failed: %v", err)
			}
		}()
	}

	return txn, nil
}

// Abandon marks a pending transaction as abandoned when the user dismisses
// the checkout. Terminal transactions are returned unchanged.
func (s *PaymentService) Abandon(ctx context.Context, transactionID uuid.UUID) (*models.Transaction, error) {
	txn, err := s.store.FindByID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, ErrTransactionMissing) {
			return nil, ErrTransactionNotFound()
		}
		return nil, err
	}

	if txn.IsTerminal() {
		return txn, nil
	}

	txn.Status = models.TransactionStatusAbandoned
	if err := s.store.Update(ctx, txn); err != nil {
		return nil, err
	}

	return txn, nil
}

// gormTransactionStore is the Postgres-backed TransactionStore.
type gormTransactionStore struct {
	db *gorm.DB
}

// NewTransactionStore wraps a gorm connection as a TransactionStore.
func NewTransactionStore(db *gorm.DB) TransactionStore {
	return &gormTransactionStore{db: db}
}

func (s *gormTransactionStore) Create(ctx context.Context, txn *models.Transaction) error {
	return s.db.WithContext(ctx).Create(txn).Error
}

func (s *gormTransactionStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var txn models.Transaction
	if err := s.db.WithContext(ctx).First(&txn, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionMissing
		}
		return nil, err
	}
	return &txn, nil
}

func (s *gormTransactionStore) Update(ctx context.Context, txn *models.Transaction) error {
	return s.db.WithContext(ctx).Save(txn).Error
}
