package domain

import "testing"

func validElement() Element {
	return Element{
		Duration: "00:45:00",
		Day:      0,
		From:     "2026-09-01",
		Until:    "2027-06-15",
	}
}

func TestElement_Validate(t *testing.T) {
	e := validElement()
	if err := e.Validate(); err != nil {
		t.Fatalf("valid element rejected: %v", err)
	}
}

func TestElement_ValidateErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Element)
		want   error
	}{
		{"empty duration", func(e *Element) { e.Duration = "" }, ErrInvalidDuration},
		{"bad duration format", func(e *Element) { e.Duration = "45 minutes" }, ErrInvalidDuration},
		{"hour out of range", func(e *Element) { e.Duration = "25:00:00" }, ErrInvalidDuration},
		{"day below range", func(e *Element) { e.Day = -1 }, ErrInvalidDay},
		{"day above range", func(e *Element) { e.Day = 7 }, ErrInvalidDay},
		{"bad from date", func(e *Element) { e.From = "01/09/2026" }, ErrInvalidDateRange},
		{"bad until date", func(e *Element) { e.Until = "" }, ErrInvalidDateRange},
		{"from after until", func(e *Element) { e.From, e.Until = e.Until, e.From }, ErrInvalidDateRange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := validElement()
			tc.mutate(&e)
			if err := e.Validate(); err != tc.want {
				t.Errorf("want %v, got %v", tc.want, err)
			}
		})
	}
}

func TestElement_ValidateSingleDayRange(t *testing.T) {
	e := validElement()
	e.Until = e.From
	if err := e.Validate(); err != nil {
		t.Errorf("from == until should be valid, got %v", err)
	}
}
