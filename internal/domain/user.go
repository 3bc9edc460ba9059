package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/nyaruka/phonenumbers"
)

type User struct {
	ID           int64     `json:"id"`
	Role         string    `json:"role"`
	Name         string    `json:"name"`
	Mobile       string    `json:"mobile"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	GoogleID     string    `json:"-"`
	Addresses    []Address `json:"addresses,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Address struct {
	Label    string `json:"label"`
	Line1    string `json:"line1"`
	City     string `json:"city"`
	Postcode string `json:"postcode"`
}

// IsComplete reports whether the account may receive a session token. An
// account linked to an external identity but missing a mobile number is
// still mid-registration.
func (u *User) IsComplete() bool {
	return u.Mobile != ""
}

// UserInfo is the redacted projection returned in session envelopes.
type UserInfo struct {
	ID     int64  `json:"id"`
	Role   string `json:"role"`
	Name   string `json:"name"`
	Mobile string `json:"mobile"`
	Email  string `json:"email,omitempty"`
}

func (u *User) ToUserInfo() *UserInfo {
	return &UserInfo{
		ID:     u.ID,
		Role:   u.Role,
		Name:   u.Name,
		Mobile: u.Mobile,
		Email:  u.Email,
	}
}

type LoginRequest struct {
	Mobile   string `json:"mobile,omitempty"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Mobile   string `json:"mobile"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

type GoogleLoginRequest struct {
	Credential string `json:"credential"`
}

type CompleteRegistrationRequest struct {
	PendingToken string `json:"pendingToken"`
	Mobile       string `json:"mobile"`
}

// Valid user roles
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

var validRoles = map[string]bool{
	RoleCustomer: true,
	RoleAdmin:    true,
}

func IsValidRole(role string) bool {
	return validRoles[role]
}

// mobileRegion is the numbering plan local accounts are validated against.
const mobileRegion = "BD"

// NormalizeMobile validates a mobile number against local format rules and
// returns it in the canonical 01XXXXXXXXX form.
func NormalizeMobile(raw string) (string, error) {
	num, err := phonenumbers.Parse(strings.TrimSpace(raw), mobileRegion)
	if err != nil {
		return "", ErrInvalidMobile
	}
	if !phonenumbers.IsValidNumberForRegion(num, mobileRegion) {
		return "", ErrInvalidMobile
	}
	switch phonenumbers.GetNumberType(num) {
	case phonenumbers.MOBILE, phonenumbers.FIXED_LINE_OR_MOBILE:
	default:
		return "", ErrInvalidMobile
	}
	return fmt.Sprintf("0%d", num.GetNationalNumber()), nil
}

// Validation methods
func (r *RegisterRequest) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	if r.Mobile == "" {
		return fmt.Errorf("mobile is required")
	}
	if r.Email != "" && !isValidEmail(r.Email) {
		return fmt.Errorf("invalid email format")
	}
	if r.Password == "" {
		return fmt.Errorf("password is required")
	}
	if len(r.Password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	return nil
}

func (r *LoginRequest) Validate() error {
	if r.Mobile == "" && r.Email == "" {
		return fmt.Errorf("mobile or email is required")
	}
	if r.Email != "" && !isValidEmail(r.Email) {
		return fmt.Errorf("invalid email format")
	}
	if r.Password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}

func isValidEmail(email string) bool {
	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	return emailRegex.MatchString(email)
}

// Normalize methods
func (r *RegisterRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Mobile = strings.TrimSpace(r.Mobile)
}

func (r *LoginRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Mobile = strings.TrimSpace(r.Mobile)
}
