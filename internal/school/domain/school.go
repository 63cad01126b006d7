// Package domain holds the school-structure entities scoped to an
// institution: classes, groups, lessons, rooms, and teachers.
package domain

import "errors"

// Class is a permanent student cohort.
type Class struct {
	ID            int64  `json:"id"`
	InstitutionID int64  `json:"-"`
	Name          string `json:"name"`
	Headcount     int    `json:"headcount"`
}

// Group is a teaching unit, optionally carved out of a class. Class and
// group names share one namespace inside an institution.
type Group struct {
	ID            int64  `json:"id"`
	InstitutionID int64  `json:"-"`
	Name          string `json:"name"`
	Headcount     int    `json:"headcount"`
	ClassID       *int64 `json:"class_id"`
}

// Lesson is a subject taught at the institution.
type Lesson struct {
	ID            int64  `json:"id"`
	InstitutionID int64  `json:"-"`
	Name          string `json:"name"`
}

// Room is a physical room with a capacity and an optional type label.
type Room struct {
	ID            int64   `json:"id"`
	InstitutionID int64   `json:"-"`
	Name          string  `json:"name"`
	Type          *string `json:"type"`
	Space         int     `json:"space"`
}

// Teacher is a staff record, optionally linked to a member account. A user
// can back at most one teacher record per institution.
type Teacher struct {
	ID            int64  `json:"id"`
	InstitutionID int64  `json:"-"`
	Name          string `json:"name"`
	Job           string `json:"job"`
	UserID        *int64 `json:"user_id"`
}

var (
	ErrInvalidName  = errors.New("invalid name")
	ErrInvalidCount = errors.New("invalid count")
)

const (
	MaxNameLen = 200
	// MaxCount bounds headcounts and room capacities.
	MaxCount = 99999
)

// ValidateName checks an entity name: non-empty, at most 200 chars.
func ValidateName(name string) error {
	if name == "" || len(name) > MaxNameLen {
		return ErrInvalidName
	}
	return nil
}

// ValidateCount checks a headcount or capacity: positive, at most five digits.
func ValidateCount(n int) error {
	if n <= 0 || n > MaxCount {
		return ErrInvalidCount
	}
	return nil
}
