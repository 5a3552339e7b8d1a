package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/example/agrimandi/internal/models"
	"github.com/example/agrimandi/internal/utils"
)

// UserStore persists user accounts for the identity flows.
type UserStore interface {
	FindByAadhaar(ctx context.Context, aadhaar string) (*models.User, error)
	FindByPhone(ctx context.Context, phone string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
}

// ErrUserMissing is returned by stores when no account matches.
var ErrUserMissing = errors.New("user record not found")

// IdentityService runs the Aadhaar signup/login/verify flow. Signup and login
// both end with an OTP dispatched to the account's phone; a successful verify
// marks the account verified and profile-completed.
type IdentityService struct {
	users UserStore
	otp   *OTPService
}

// NewIdentityService constructs an IdentityService.
func NewIdentityService(users UserStore, otp *OTPService) *IdentityService {
	return &IdentityService{users: users, otp: otp}
}

// SignupParams collects the fields required to register a farmer identity.
type SignupParams struct {
	Name          string
	AadhaarNumber string
	DateOfBirth   string
	Phone         string
}

// Signup registers a new Aadhaar identity and dispatches a signup OTP.
func (s *IdentityService) Signup(ctx context.Context, params SignupParams) (*models.User, error) {
	if params.Name == "" {
		return nil, ErrValidation("name is required")
	}
	if !utils.ValidAadhaar(params.AadhaarNumber) {
		return nil, ErrValidation("aadhaar number must be exactly 12 digits")
	}

	phone, ok := utils.NormalizePhone(params.Phone)
	if !ok {
		return nil, ErrValidation("invalid phone number")
	}

	dob, err := time.Parse("2006-01-02", params.DateOfBirth)
	if err != nil {
		return nil, ErrValidation("date of birth must be YYYY-MM-DD")
	}

	if _, err := s.users.FindByAadhaar(ctx, params.AadhaarNumber); err == nil {
		return nil, ErrDuplicateIdentity()
	} else if !errors.Is(err, ErrUserMissing) {
		return nil, err
	}

	if _, err := s.users.FindByPhone(ctx, phone); err == nil {
		return nil, ErrValidation("phone number already registered")
	} else if !errors.Is(err, ErrUserMissing) {
		return nil, err
	}

	aadhaar := params.AadhaarNumber
	user := &models.User{
		Name:          params.Name,
		Phone:         phone,
		UserType:      models.UserTypeFarmer,
		AadhaarNumber: &aadhaar,
		DateOfBirth:   &dob,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	if err := s.otp.RequestOTP(ctx, phone, "signup"); err != nil {
		return nil, err
	}

	return user, nil
}

// Login looks up an existing Aadhaar identity and retargets a login OTP at
// the phone number stored for it.
func (s *IdentityService) Login(ctx context.Context, aadhaarNumber string) (*models.User, error) {
	if !utils.ValidAadhaar(aadhaarNumber) {
		return nil, ErrValidation("aadhaar number must be exactly 12 digits")
	}

	user, err := s.users.FindByAadhaar(ctx, aadhaarNumber)
	if err != nil {
		if errors.Is(err, ErrUserMissing) {
			return nil, &FlowError{Code: CodeValidationError, Message: "aadhaar number not registered", Status: http.StatusNotFound}
		}
		return nil, err
	}

	if err := s.otp.RequestOTP(ctx, user.Phone, "login"); err != nil {
		return nil, err
	}

	return user, nil
}

// Verify checks the submitted OTP for the identity's phone and, on success,
// marks the account verified and profile-completed.
func (s *IdentityService) Verify(ctx context.Context, aadhaarNumber, code string) (*models.User, error) {
	if !utils.ValidAadhaar(aadhaarNumber) {
		return nil, ErrValidation("aadhaar number must be exactly 12 digits")
	}

	user, err := s.users.FindByAadhaar(ctx, aadhaarNumber)
	if err != nil {
		if errors.Is(err, ErrUserMissing) {
			return nil, &FlowError{Code: CodeValidationError, Message: "aadhaar number not registered", Status: http.StatusNotFound}
		}
		return nil, err
	}

	if err := s.otp.VerifyOTP(ctx, user.Phone, code); err != nil {
		return nil, err
	}

	user.IsVerified = true
	user.ProfileCompleted = true
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// gormUserStore is the Postgres-backed UserStore.
type gormUserStore struct {
	db *gorm.DB
}

// NewUserStore wraps a gorm connection as a UserStore.
func NewUserStore(db *gorm.DB) UserStore {
	return &gormUserStore{db: db}
}

func (s *gormUserStore) FindByAadhaar(ctx context.Context, aadhaar string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("aadhaar_number = ?", aadhaar).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserMissing
		}
		return nil, err
	}
	return &user, nil
}

func (s *gormUserStore) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("phone = ?", phone).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserMissing
		}
		return nil, err
	}
	return &user, nil
}

func (s *gormUserStore) Create(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *gormUserStore) Update(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Save(user).Error
}
