package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/agrimandi/internal/models"
	"github.com/example/agrimandi/internal/utils"
)

const (
	otpTTL         = 5 * time.Minute
	otpMaxAttempts = 5
)

// SMSSender dispatches one text message.
type SMSSender interface {
	Send(phone, message string) error
}

// OTPStore persists OTP verification records.
type OTPStore interface {
	Create(ctx context.Context, rec *models.OTPVerification) error
	LatestActive(ctx context.Context, phone string) (*models.OTPVerification, error)
	Update(ctx context.Context, rec *models.OTPVerification) error
	InvalidateOthers(ctx context.Context, phone string, keepID uuid.UUID) error
}

// ErrOTPMissing is returned by stores when no active record matches.
var ErrOTPMissing = errors.New("otp record not found")

// OTPService issues and verifies one-time codes sent over SMS.
type OTPService struct {
	store OTPStore
	sms   SMSSender
}

// NewOTPService constructs an OTPService.
func NewOTPService(store OTPStore, sms SMSSender) *OTPService {
	return &OTPService{store: store, sms: sms}
}

// RequestOTP generates a 6-digit code and dispatches it to the phone number.
// The record is persisted only after the SMS provider accepts the dispatch;
// a provider failure leaves no active code behind.
func (s *OTPService) RequestOTP(ctx context.Context, phone, purpose string) error {
	normalized, ok := utils.NormalizePhone(phone)
	if !ok {
		return ErrValidation("invalid phone number")
	}

	code, err := GenerateOTPCode()
	if err != nil {
		return err
	}

	message := fmt.Sprintf("Your AgriMandi verification code is %s. It expires in 5 minutes.", code)
	if err := s.sms.Send(normalized, message); err != nil {
		log.Printf("[OTP] SMS dispatch to %s failed: %v", normalized, err)
		return ErrSMSProvider("could not send verification code")
	}

	rec := &models.OTPVerification{
		Phone:     normalized,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: time.Now().Add(otpTTL),
	}

	return s.store.Create(ctx, rec)
}

// VerifyOTP checks the submitted code against the newest active record for
// the phone number. A successful verification stamps the record and
// invalidates every other outstanding code for that number; after
// otpMaxAttempts failures the record itself stops being accepted.
func (s *OTPService) VerifyOTP(ctx context.Context, phone, code string) error {
	normalized, ok := utils.NormalizePhone(phone)
	if !ok {
		return ErrValidation("invalid phone number")
	}

	rec, err := s.store.LatestActive(ctx, normalized)
	if err != nil {
		if errors.Is(err, ErrOTPMissing) {
			return ErrInvalidOrExpiredOTP()
		}
		return err
	}

	if rec.ExpiresAt.Before(time.Now()) || rec.Attempts >= otpMaxAttempts {
		return ErrInvalidOrExpiredOTP()
	}

	if rec.Code != code {
		rec.Attempts++
		if err := s.store.Update(ctx, rec); err != nil {
			return err
		}
		return ErrInvalidOrExpiredOTP()
	}

	now := time.Now()
	rec.Verified = true
	rec.UsedAt = &now
	if err := s.store.Update(ctx, rec); err != nil {
		return err
	}

	return s.store.InvalidateOthers(ctx, normalized, rec.ID)
}

// GenerateOTPCode returns a 6-digit numeric code from a cryptographic random
// source.
func GenerateOTPCode() (string, error) {
	max := big.NewInt(1000000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// gormOTPStore is the Postgres-backed OTPStore.
type gormOTPStore struct {
	db *gorm.DB
}

// NewOTPStore wraps a gorm connection as an OTPStore.
func NewOTPStore(db *gorm.DB) OTPStore {
	return &gormOTPStore{db: db}
}

func (s *gormOTPStore) Create(ctx context.Context, rec *models.OTPVerification) error {
	return s.db.WithContext(ctx).Create(rec).Error
}

func (s *gormOTPStore) LatestActive(ctx context.Context, phone string) (*models.OTPVerification, error) {
	var rec models.OTPVerification
	err := s.db.WithContext(ctx).
		Where("phone = ? AND verified = false", phone).
		Order("created_at desc").
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOTPMissing
		}
		return nil, err
	}
	return &rec, nil
}

func (s *gormOTPStore) Update(ctx context.Context, rec *models.OTPVerification) error {
	return s.db.WithContext(ctx).Save(rec).Error
}

func (s *gormOTPStore) InvalidateOthers(ctx context.Context, phone string, keepID uuid.UUID) error {
	return s.db.WithContext(ctx).
		Model(&models.OTPVerification{}).
		Where("phone = ? AND id <> ? AND verified = false", phone, keepID).
		Update("expires_at", time.Now()).Error
}
