package models

import (
	"time"
)

// User types.
const (
	UserTypeBuyer  = "buyer"
	UserTypeFarmer = "farmer"
)

// User represents a buyer or farmer account. Farmers register with an
// Aadhaar number and prove phone possession via OTP; buyers may also sign up
// with email and password.
type User struct {
	BaseModel
	Name             string     `json:"name"`
	Email            *string    `gorm:"uniqueIndex" json:"email,omitempty"`
	Phone            string     `gorm:"uniqueIndex" json:"phone"`
	PasswordHash     string     `json:"-"`
	UserType         string     `json:"user_type"`
	AadhaarNumber    *string    `gorm:"uniqueIndex" json:"aadhaar_number,omitempty"`
	DateOfBirth      *time.Time `json:"date_of_birth,omitempty"`
	Location         string     `json:"location"`
	IsVerified       bool       `json:"is_verified"`
	ProfileCompleted bool       `json:"profile_completed"`
}

// OTPVerification keeps track of OTP codes sent to phone numbers.
// At most one unexpired, unverified record per phone is trusted; a successful
// verification invalidates every other record for that number.
type OTPVerification struct {
	BaseModel
	Phone     string     `gorm:"index" json:"phone"`
	Code      string     `json:"-"`
	Purpose   string     `json:"purpose"`
	ExpiresAt time.Time  `json:"expires_at"`
	Attempts  int        `json:"attempts"`
	Verified  bool       `json:"verified"`
	UsedAt    *time.Time `json:"used_at"`
}
