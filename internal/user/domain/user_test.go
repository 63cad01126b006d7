package domain

import (
	"strings"
	"testing"
)

func TestValidateDisplayName(t *testing.T) {
	if err := ValidateDisplayName("Ada Lovelace"); err != nil {
		t.Fatalf("valid name rejected: %v", err)
	}
	if err := ValidateDisplayName(""); err != ErrInvalidDisplayName {
		t.Errorf("empty name: want ErrInvalidDisplayName, got %v", err)
	}
	if err := ValidateDisplayName(strings.Repeat("x", MaxDisplayNameLen+1)); err != ErrInvalidDisplayName {
		t.Errorf("overlong name: want ErrInvalidDisplayName, got %v", err)
	}
	if err := ValidateDisplayName(strings.Repeat("x", MaxDisplayNameLen)); err != nil {
		t.Errorf("name at limit rejected: %v", err)
	}
}

func TestValidateEmail(t *testing.T) {
	cases := []struct {
		email string
		ok    bool
	}{
		{"user@example.com", true},
		{"a@b", true},
		{"", false},
		{"no-at-sign", false},
		{"two@@ats", false},
		{"@domain", false},
		{"local@", false},
		{strings.Repeat("x", MaxEmailLen) + "@example.com", false},
	}
	for _, tc := range cases {
		err := ValidateEmail(tc.email)
		if tc.ok && err != nil {
			t.Errorf("ValidateEmail(%q): unexpected error %v", tc.email, err)
		}
		if !tc.ok && err != ErrInvalidEmail {
			t.Errorf("ValidateEmail(%q): want ErrInvalidEmail, got %v", tc.email, err)
		}
	}
}

func TestValidatePhone(t *testing.T) {
	cases := []struct {
		phone string
		ok    bool
	}{
		{"36201234567", true},
		{"1", true},
		{strings.Repeat("9", MaxPhoneLen), true},
		{"", false},
		{"+36201234567", false},
		{"1234 5678", false},
		{strings.Repeat("9", MaxPhoneLen+1), false},
	}
	for _, tc := range cases {
		err := ValidatePhone(tc.phone)
		if tc.ok && err != nil {
			t.Errorf("ValidatePhone(%q): unexpected error %v", tc.phone, err)
		}
		if !tc.ok && err != ErrInvalidPhone {
			t.Errorf("ValidatePhone(%q): want ErrInvalidPhone, got %v", tc.phone, err)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword(strings.Repeat("p", MinPasswordLen)); err != nil {
		t.Fatalf("password at minimum length rejected: %v", err)
	}
	if err := ValidatePassword(strings.Repeat("p", MinPasswordLen-1)); err != ErrInvalidPassword {
		t.Errorf("short password: want ErrInvalidPassword, got %v", err)
	}
	if err := ValidatePassword(strings.Repeat("p", MaxPasswordLen+1)); err != ErrInvalidPassword {
		t.Errorf("overlong password: want ErrInvalidPassword, got %v", err)
	}
}
