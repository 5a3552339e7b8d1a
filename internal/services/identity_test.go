package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/agrimandi/internal/models"
)

// fakeUserStore implements UserStore in memory.
type fakeUserStore struct {
	users []*models.User
}

func (s *fakeUserStore) FindByAadhaar(_ context.Context, aadhaar string) (*models.User, error) {
	for _, u := range s.users {
		if u.AadhaarNumber != nil && *u.AadhaarNumber == aadhaar {
			found := *u
			return &found, nil
		}
	}
	return nil, ErrUserMissing
}

func (s *fakeUserStore) FindByPhone(_ context.Context, phone string) (*models.User, error) {
	for _, u := range s.users {
		if u.Phone == phone {
			found := *u
			return &found, nil
		}
	}
	return nil, ErrUserMissing
}

func (s *fakeUserStore) Create(_ context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	stored := *user
	s.users = append(s.users, &stored)
	return nil
}

func (s *fakeUserStore) Update(_ context.Context, user *models.User) error {
	for i, existing := range s.users {
		if existing.ID == user.ID {
			stored := *user
			s.users[i] = &stored
			return nil
		}
	}
	return ErrUserMissing
}

func newIdentityFixture() (*IdentityService, *fakeUserStore, *fakeOTPStore, *fakeSMS) {
	users := &fakeUserStore{}
	otpStore := &fakeOTPStore{}
	sms := &fakeSMS{}
	svc := NewIdentityService(users, NewOTPService(otpStore, sms))
	return svc, users, otpStore, sms
}

func TestSignup(t *testing.T) {
	ctx := context.Background()

	valid := SignupParams{
		Name:          "Ramesh Kumar",
		AadhaarNumber: "123412341234",
		DateOfBirth:   "1985-06-14",
		Phone:         "9876543210",
	}

	t.Run("rejects malformed aadhaar", func(t *testing.T) {
		svc, _, _, _ := newIdentityFixture()
		params := valid
		params.AadhaarNumber = "12341234123"
		_, err := svc.Signup(ctx, params)
		assertFlowCode(t, err, CodeValidationError)

		params.AadhaarNumber = "12341234123a"
		_, err = svc.Signup(ctx, params)
		assertFlowCode(t, err, CodeValidationError)
	})

	t.Run("rejects bad date of birth", func(t *testing.T) {
		svc, _, _, _ := newIdentityFixture()
		params := valid
		params.DateOfBirth = "14/06/1985"
		_, err := svc.Signup(ctx, params)
		assertFlowCode(t, err, CodeValidationError)
	})

	t.Run("creates an unverified farmer and sends an OTP", func(t *testing.T) {
		svc, users, otpStore, sms := newIdentityFixture()

		user, err := svc.Signup(ctx, valid)
		require.NoError(t, err)
		assert.Equal(t, models.UserTypeFarmer, user.UserType)
		assert.False(t, user.IsVerified)
		assert.Len(t, users.users, 1)
		assert.Len(t, otpStore.recs, 1)
		assert.Equal(t, []string{"9876543210"}, sms.sent)
	})

	t.Run("second registration of the same aadhaar is rejected", func(t *testing.T) {
		svc, _, _, _ := newIdentityFixture()

		_, err := svc.Signup(ctx, valid)
		require.NoError(t, err)

		again := valid
		again.Phone = "9123456789"
		_, err = svc.Signup(ctx, again)
		assertFlowCode(t, err, CodeDuplicateIdentity)
	})
}

func TestLoginAndVerify(t *testing.T) {
	ctx := context.Background()

	params := SignupParams{
		Name:          "Ramesh Kumar",
		AadhaarNumber: "123412341234",
		DateOfBirth:   "1985-06-14",
		Phone:         "9876543210",
	}

	t.Run("login for unknown aadhaar", func(t *testing.T) {
		svc, _, _, _ := newIdentityFixture()
		_, err := svc.Login(ctx, "999912341234")
		assertFlowCode(t, err, CodeValidationError)
	})

	t.Run("login retargets the OTP at the stored phone", func(t *testing.T) {
		svc, _, _, sms := newIdentityFixture()
		_, err := svc.Signup(ctx, params)
		require.NoError(t, err)

		_, err = svc.Login(ctx, params.AadhaarNumber)
		require.NoError(t, err)
		assert.Equal(t, []string{"9876543210", "9876543210"}, sms.sent)
	})

	t.Run("verify marks the profile verified and completed", func(t *testing.T) {
		svc, users, otpStore, _ := newIdentityFixture()
		_, err := svc.Signup(ctx, params)
		require.NoError(t, err)

		code := otpStore.recs[0].Code
		user, err := svc.Verify(ctx, params.AadhaarNumber, code)
		require.NoError(t, err)
		assert.True(t, user.IsVerified)
		assert.True(t, user.ProfileCompleted)

		stored, err := users.FindByAadhaar(ctx, params.AadhaarNumber)
		require.NoError(t, err)
		assert.True(t, stored.IsVerified)
		assert.True(t, stored.ProfileCompleted)
	})

	t.Run("verify with a wrong code", func(t *testing.T) {
		svc, _, _, _ := newIdentityFixture()
		_, err := svc.Signup(ctx, params)
		require.NoError(t, err)

		_, err = svc.Verify(ctx, params.AadhaarNumber, "000000")
		assertFlowCode(t, err, CodeInvalidOrExpiredOTP)
	})
}
