package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is an account for either the public site or the admin panel
type User struct {
	ID                string     `json:"id"`
	Email             string     `json:"email"`
	Username          string     `json:"username"`
	NID               string     `json:"nid,omitempty"`
	PasswordHash      string     `json:"-"`
	Role              string     `json:"role"`
	IsApproved        bool       `json:"is_approved"`
	IsVerified        bool       `json:"is_verified"`
	OTP               string     `json:"-"`
	OTPCreatedAt      *time.Time `json:"-"`
	ResetOTP          string     `json:"-"`
	ResetOTPCreatedAt *time.Time `json:"-"`
	CreatedAt         time.Time  `json:"created_at"`
}
