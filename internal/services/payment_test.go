package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/agrimandi/internal/models"
)

// fakeGateway implements PaymentGateway for testing.
type fakeGateway struct {
	failCreate bool
	validSig   string
	created    int
	lastAmount int64
}

func (g *fakeGateway) CreateOrder(_ context.Context, amountPaise int64, currency, receipt string, _ map[string]string) (*GatewayOrder, error) {
	if g.failCreate {
		return nil, errors.New("connection refused")
	}
	g.created++
	g.lastAmount = amountPaise
	return &GatewayOrder{
		ID:       "order_test_123",
		Amount:   amountPaise,
		Currency: currency,
		Receipt:  receipt,
		Status:   "created",
	}, nil
}

func (g *fakeGateway) KeyID() string { return "rzp_test_key" }

func (g *fakeGateway) VerifySignature(_, _, signature string) bool {
	return signature == g.validSig
}

// fakeTxnStore implements TransactionStore in memory.
type fakeTxnStore struct {
	txns    map[uuid.UUID]*models.Transaction
	updates int
}

func newFakeTxnStore() *fakeTxnStore {
	return &fakeTxnStore{txns: map[uuid.UUID]*models.Transaction{}}
}

func (s *fakeTxnStore) Create(_ context.Context, txn *models.Transaction) error {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	stored := *txn
	s.txns[txn.ID] = &stored
	return nil
}

func (s *fakeTxnStore) FindByID(_ context.Context, id uuid.UUID) (*models.Transaction, error) {
	txn, ok := s.txns[id]
	if !ok {
		return nil, ErrTransactionMissing
	}
	found := *txn
	return &found, nil
}

func (s *fakeTxnStore) Update(_ context.Context, txn *models.Transaction) error {
	stored := *txn
	s.txns[txn.ID] = &stored
	s.updates++
	return nil
}

func TestCreateOrder(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("rejects non-positive amount", func(t *testing.T) {
		gw := &fakeGateway{}
		store := newFakeTxnStore()
		svc := NewPaymentService(store, gw, nil)

		_, err := svc.CreateOrder(ctx, userID, CreateOrderParams{Amount: 0, ServiceType: models.ServiceTypePurchase})
		assertFlowCode(t, err, CodeValidationError)
		assert.Zero(t, gw.created)

		_, err = svc.CreateOrder(ctx, userID, CreateOrderParams{Amount: -10, ServiceType: models.ServiceTypePurchase})
		assertFlowCode(t, err, CodeValidationError)
	})

	t.Run("rejects unknown service type", func(t *testing.T) {
		svc := NewPaymentService(newFakeTxnStore(), &fakeGateway{}, nil)

		_, err := svc.CreateOrder(ctx, userID, CreateOrderParams{Amount: 100, ServiceType: "bribe"})
		assertFlowCode(t, err, CodeValidationError)
	})

	t.Run("gateway failure persists nothing", func(t *testing.T) {
		store := newFakeTxnStore()
		svc := NewPaymentService(store, &fakeGateway{failCreate: true}, nil)

		_, err := svc.CreateOrder(ctx, userID, CreateOrderParams{Amount: 500, ServiceType: models.ServiceTypePurchase})
		flowErr := assertFlowCode(t, err, CodeGatewayUnavailable)
		assert.True(t, flowErr.Retryable)
		assert.Empty(t, store.txns)
	})

	t.Run("success records pending transaction", func(t *testing.T) {
		gw := &fakeGateway{}
		store := newFakeTxnStore()
		svc := NewPaymentService(store, gw, nil)

		checkout, err := svc.CreateOrder(ctx, userID, CreateOrderParams{Amount: 500, ServiceType: models.ServiceTypePurchase})
		require.NoError(t, err)

		assert.Equal(t, "order_test_123", checkout.OrderID)
		assert.Equal(t, int64(50000), checkout.Amount)
		assert.Equal(t, int64(50000), gw.lastAmount, "gateway receives the amount in paise")
		assert.Equal(t, "INR", checkout.Currency)
		assert.Equal(t, "rzp_test_key", checkout.KeyID)

		txn, err := store.FindByID(ctx, checkout.TransactionID)
		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusPending, txn.Status)
		assert.Equal(t, 500.0, txn.Amount)
		assert.Equal(t, userID, txn.UserID)
	})
}

func TestVerifyPayment(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	setup := func(t *testing.T) (*PaymentService, *fakeTxnStore, uuid.UUID) {
		store := newFakeTxnStore()
		svc := NewPaymentService(store, &fakeGateway{validSig: "good-signature"}, nil)
		checkout, err := svc.CreateOrder(ctx, userID, CreateOrderParams{Amount: 500, ServiceType: models.ServiceTypePurchase})
		require.NoError(t, err)
		return svc, store, checkout.TransactionID
	}

	t.Run("unknown transaction id", func(t *testing.T) {
		svc, _, _ := setup(t)
		_, err := svc.VerifyPayment(ctx, VerifyPaymentParams{
			GatewayOrderID: "order_test_123",
			TransactionID:  uuid.New(),
		})
		assertFlowCode(t, err, CodeTransactionNotFound)
	})

	t.Run("mismatched gateway order id", func(t *testing.T) {
		svc, _, txnID := setup(t)
		_, err := svc.VerifyPayment(ctx, VerifyPaymentParams{
			GatewayOrderID: "order_someone_elses",
			TransactionID:  txnID,
		})
		assertFlowCode(t, err, CodeTransactionNotFound)
	})

	t.Run("forged signature fails the transaction", func(t *testing.T) {
		svc, _, txnID := setup(t)

		txn, err := svc.VerifyPayment(ctx, VerifyPaymentParams{
			GatewayOrderID:   "order_test_123",
			GatewayPaymentID: "pay_abc",
			GatewaySignature: "forged",
			TransactionID:    txnID,
		})
		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusFailed, txn.Status)

		// A later call with the right signature must not resurrect it.
		txn, err = svc.VerifyPayment(ctx, VerifyPaymentParams{
			GatewayOrderID:   "order_test_123",
			GatewayPaymentID: "pay_abc",
			GatewaySignature: "good-signature",
			TransactionID:    txnID,
		})
		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusFailed, txn.Status)
	})

	t.Run("valid signature completes exactly once", func(t *testing.T) {
		svc, store, txnID := setup(t)

		params := VerifyPaymentParams{
			GatewayOrderID:   "order_test_123",
			GatewayPaymentID: "pay_abc",
			GatewaySignature: "good-signature",
			TransactionID:    txnID,
		}

		txn, err := svc.VerifyPayment(ctx, params)
		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusCompleted, txn.Status)
		assert.Equal(t, "pay_abc", txn.GatewayPaymentID)
		updatesAfterFirst := store.updates

		again, err := svc.VerifyPayment(ctx, params)
		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusCompleted, again.Status)
		assert.Equal(t, updatesAfterFirst, store.updates, "terminal verify must not re-run the update")
	})
}

func TestAbandon(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	store := newFakeTxnStore()
	svc := NewPaymentService(store, &fakeGateway{validSig: "good-signature"}, nil)

	checkout, err := svc.CreateOrder(ctx, userID, CreateOrderParams{Amount: 120, ServiceType: models.ServiceTypeDelivery})
	require.NoError(t, err)

	t.Run("pending becomes abandoned", func(t *testing.T) {
		txn, err := svc.Abandon(ctx, checkout.TransactionID)
		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusAbandoned, txn.Status)
	})

	t.Run("terminal state is untouched", func(t *testing.T) {
		txn, err := svc.Abandon(ctx, checkout.TransactionID)
		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusAbandoned, txn.Status)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := svc.Abandon(ctx, uuid.New())
		assertFlowCode(t, err, CodeTransactionNotFound)
	})
}

func assertFlowCode(t *testing.T, err error, code string) *FlowError {
	t.Helper()
	var flowErr *FlowError
	require.ErrorAs(t, err, &flowErr)
	assert.Equal(t, code, flowErr.Code)
	return flowErr
}
