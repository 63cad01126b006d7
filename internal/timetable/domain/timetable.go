// Package domain holds the recurring timetable entries of an institution.
package domain

import (
	"errors"
	"time"
)

// Element is a recurring slot: on the given weekday, for the given
// duration, between the From and Until dates. The group, lesson, teacher,
// and room links are all optional and survive the deletion of their target.
type Element struct {
	ID            int64  `json:"id"`
	InstitutionID int64  `json:"-"`
	// Duration of the slot, wire format "15:04:05".
	Duration string `json:"duration"`
	// Day of the week, 0 = Monday through 6 = Sunday.
	Day int `json:"day"`
	// From and Until bound the date range, wire format "2006-01-02".
	From      string `json:"from"`
	Until     string `json:"until"`
	GroupID   *int64 `json:"group_id"`
	LessonID  *int64 `json:"lesson_id"`
	TeacherID *int64 `json:"teacher_id"`
	RoomID    *int64 `json:"room_id"`
}

var (
	ErrInvalidDuration  = errors.New("invalid duration")
	ErrInvalidDay       = errors.New("invalid day")
	ErrInvalidDateRange = errors.New("invalid date range")
)

const (
	DurationLayout = "15:04:05"
	DateLayout     = "2006-01-02"
)

// Validate checks the element's own fields. Link targets are checked by the
// handler against the repositories.
func (e *Element) Validate() error {
	if _, err := time.Parse(DurationLayout, e.Duration); err != nil {
		return ErrInvalidDuration
	}
	if e.Day < 0 || e.Day > 6 {
		return ErrInvalidDay
	}
	from, err := time.Parse(DateLayout, e.From)
	if err != nil {
		return ErrInvalidDateRange
	}
	until, err := time.Parse(DateLayout, e.Until)
	if err != nil {
		return ErrInvalidDateRange
	}
	if from.After(until) {
		return ErrInvalidDateRange
	}
	return nil
}
