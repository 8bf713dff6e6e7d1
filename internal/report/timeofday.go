package report

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidTimeOfDay is returned for times that are not on a half hour
var ErrInvalidTimeOfDay = errors.New("invalid time of day")

const (
	minutesPerDay = 24 * 60
	midnight      = minutesPerDay
)

// TimeOfDay is a shift boundary on a half-hour grid. 00:00 and 00:30 sort
// after 23:30: a shift that runs past midnight ends at "00:00".
type TimeOfDay struct {
	Hour   int
	Minute int
}

// NewTimeOfDay validates hour 0..23 and minute 0 or 30
func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || (minute != 0 && minute != 30) {
		return TimeOfDay{}, fmt.Errorf("%w: %02d:%02d", ErrInvalidTimeOfDay, hour, minute)
	}
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// ParseTimeOfDay parses "HH:MM"; "24:00" and "24:30" are accepted as
// aliases of 00:00 and 00:30
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	if hour == 24 {
		hour = 0
	}
	return NewTimeOfDay(hour, minute)
}

// IsMidnight reports whether t is 00:00
func (t TimeOfDay) IsMidnight() bool {
	return t.Hour == 0 && t.Minute == 0
}

// ComparableMinutes returns minutes since the start of the shift day, with
// 00:00 and 00:30 counted as 1440 and 1470
func (t TimeOfDay) ComparableMinutes() int {
	if t.Hour == 0 {
		return midnight + t.Minute
	}
	return t.Hour*60 + t.Minute
}

// Compare orders by ComparableMinutes
func (t TimeOfDay) Compare(other TimeOfDay) int {
	a, b := t.ComparableMinutes(), other.ComparableMinutes()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(text []byte) error {
	parsed, err := ParseTimeOfDay(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Options lists the picker choices: every half hour from 00:00 to 23:30,
// then 00:00 again as the end-of-day choice
func Options() []TimeOfDay {
	options := make([]TimeOfDay, 0, 49)
	for hour := 0; hour < 24; hour++ {
		options = append(options, TimeOfDay{Hour: hour}, TimeOfDay{Hour: hour, Minute: 30})
	}
	return append(options, TimeOfDay{})
}
