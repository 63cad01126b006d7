package domain

import (
	"errors"
	"regexp"
	"time"
)

// User is a registered account. PasswordHash is bcrypt; callers never see or
// store the plaintext.
type User struct {
	ID           int64
	DisplayName  string
	Email        string
	Phone        string // optional; digits only, at most 15 (E.164 without the plus)
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

var (
	ErrInvalidDisplayName = errors.New("invalid display name")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrInvalidPhone       = errors.New("invalid phone number")
	ErrInvalidPassword    = errors.New("invalid password")
)

// emailPattern accepts anything of the shape local@domain without being
// opinionated about either side. Deliverability is the mail server's problem.
var emailPattern = regexp.MustCompile(`^[^@]+@[^@]+$`)

var phonePattern = regexp.MustCompile(`^[0-9]+$`)

const (
	MaxDisplayNameLen = 200
	MaxEmailLen       = 254
	MaxPhoneLen       = 15
	MinPasswordLen    = 12
	MaxPasswordLen    = 500
)

// ValidateDisplayName checks a display name: non-empty, at most 200 chars.
func ValidateDisplayName(name string) error {
	if name == "" || len(name) > MaxDisplayNameLen {
		return ErrInvalidDisplayName
	}
	return nil
}

// ValidateEmail checks an email address shape.
func ValidateEmail(email string) error {
	if email == "" || len(email) > MaxEmailLen || !emailPattern.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

// ValidatePhone checks a phone number: digits only, at most 15.
func ValidatePhone(phone string) error {
	if phone == "" || len(phone) > MaxPhoneLen || !phonePattern.MatchString(phone) {
		return ErrInvalidPhone
	}
	return nil
}

// ValidatePassword checks a plaintext password: 12 to 500 chars.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLen || len(password) > MaxPasswordLen {
		return ErrInvalidPassword
	}
	return nil
}
