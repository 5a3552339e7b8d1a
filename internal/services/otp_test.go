package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/agrimandi/internal/models"
)

// fakeSMS implements SMSSender for testing.
type fakeSMS struct {
	fail bool
	sent []string
}

func (s *fakeSMS) Send(phone, _ string) error {
	if s.fail {
		return errors.New("provider rejected dispatch")
	}
	s.sent = append(s.sent, phone)
	return nil
}

// fakeOTPStore implements OTPStore over a slice.
type fakeOTPStore struct {
	recs []*models.OTPVerification
}

func (s *fakeOTPStore) Create(_ context.Context, rec *models.OTPVerification) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	rec.CreatedAt = time.Now()
	stored := *rec
	s.recs = append(s.recs, &stored)
	return nil
}

func (s *fakeOTPStore) LatestActive(_ context.Context, phone string) (*models.OTPVerification, error) {
	var latest *models.OTPVerification
	for _, rec := range s.recs {
		if rec.Phone != phone || rec.Verified {
			continue
		}
		if latest == nil || rec.CreatedAt.After(latest.CreatedAt) {
			latest = rec
		}
	}
	if latest == nil {
		return nil, ErrOTPMissing
	}
	found := *latest
	return &found, nil
}

func (s *fakeOTPStore) Update(_ context.Context, rec *models.OTPVerification) error {
	for i, existing := range s.recs {
		if existing.ID == rec.ID {
			stored := *rec
			stored.CreatedAt = existing.CreatedAt
			s.recs[i] = &stored
			return nil
		}
	}
	return ErrOTPMissing
}

func (s *fakeOTPStore) InvalidateOthers(_ context.Context, phone string, keepID uuid.UUID) error {
	for _, rec := range s.recs {
		if rec.Phone == phone && rec.ID != keepID && !rec.Verified {
			rec.ExpiresAt = time.Now()
		}
	}
	return nil
}

func TestRequestOTP(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects malformed phone", func(t *testing.T) {
		store := &fakeOTPStore{}
		sms := &fakeSMS{}
		svc := NewOTPService(store, sms)

		err := svc.RequestOTP(ctx, "12345", "login")
		assertFlowCode(t, err, CodeValidationError)
		assert.Empty(t, sms.sent)
	})

	t.Run("provider failure persists nothing", func(t *testing.T) {
		store := &fakeOTPStore{}
		svc := NewOTPService(store, &fakeSMS{fail: true})

		err := svc.RequestOTP(ctx, "9876543210", "login")
		assertFlowCode(t, err, CodeSMSProviderError)
		assert.Empty(t, store.recs, "no code may be active when the SMS was never sent")
	})

	t.Run("persists a 6-digit code with 5 minute expiry", func(t *testing.T) {
		store := &fakeOTPStore{}
		sms := &fakeSMS{}
		svc := NewOTPService(store, sms)

		require.NoError(t, svc.RequestOTP(ctx, "+919876543210", "signup"))
		require.Len(t, store.recs, 1)
		rec := store.recs[0]
		assert.Equal(t, "9876543210", rec.Phone)
		assert.Len(t, rec.Code, 6)
		assert.WithinDuration(t, time.Now().Add(5*time.Minute), rec.ExpiresAt, 5*time.Second)
		assert.Equal(t, []string{"9876543210"}, sms.sent)
	})
}

func TestVerifyOTP(t *testing.T) {
	ctx := context.Background()
	const phone = "9876543210"

	seed := func(store *fakeOTPStore, code string, expiresAt time.Time) *models.OTPVerification {
		rec := &models.OTPVerification{Phone: phone, Code: code, ExpiresAt: expiresAt}
		require.NoError(t, store.Create(ctx, rec))
		return rec
	}

	t.Run("no record", func(t *testing.T) {
		svc := NewOTPService(&fakeOTPStore{}, &fakeSMS{})
		err := svc.VerifyOTP(ctx, phone, "123456")
		assertFlowCode(t, err, CodeInvalidOrExpiredOTP)
	})

	t.Run("expired record never verifies even with the right code", func(t *testing.T) {
		store := &fakeOTPStore{}
		seed(store, "123456", time.Now().Add(-time.Minute))
		svc := NewOTPService(store, &fakeSMS{})

		err := svc.VerifyOTP(ctx, phone, "123456")
		assertFlowCode(t, err, CodeInvalidOrExpiredOTP)
	})

	t.Run("wrong code counts attempts and locks out after five", func(t *testing.T) {
		store := &fakeOTPStore{}
		seed(store, "123456", time.Now().Add(5*time.Minute))
		svc := NewOTPService(store, &fakeSMS{})

		for i := 0; i < 5; i++ {
			err := svc.VerifyOTP(ctx, phone, "000000")
			assertFlowCode(t, err, CodeInvalidOrExpiredOTP)
		}

		// The correct code is dead after the lockout.
		err := svc.VerifyOTP(ctx, phone, "123456")
		assertFlowCode(t, err, CodeInvalidOrExpiredOTP)
	})

	t.Run("success stamps the record and invalidates siblings", func(t *testing.T) {
		store := &fakeOTPStore{}
		old := seed(store, "111111", time.Now().Add(5*time.Minute))
		time.Sleep(time.Millisecond)
		seed(store, "222222", time.Now().Add(5*time.Minute))
		svc := NewOTPService(store, &fakeSMS{})

		require.NoError(t, svc.VerifyOTP(ctx, phone, "222222"))

		var verified *models.OTPVerification
		for _, rec := range store.recs {
			if rec.Code == "222222" {
				verified = rec
			}
		}
		require.NotNil(t, verified)
		assert.True(t, verified.Verified)
		assert.NotNil(t, verified.UsedAt)

		// The superseded code stops working.
		err := svc.VerifyOTP(ctx, phone, old.Code)
		assertFlowCode(t, err, CodeInvalidOrExpiredOTP)
	})
}

func TestGenerateOTPCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GenerateOTPCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, r := range code {
			assert.GreaterOrEqual(t, r, '0')
			assert.LessOrEqual(t, r, '9')
		}
	}
}
