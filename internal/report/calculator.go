package report

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"
)

const (
	// HourlyRate is paid per working hour, rounded up per shift
	HourlyRate = 5.0
	// PaidReceiptRate is deducted for every receipt the customer already paid
	PaidReceiptRate = 3.0
	// MorningTarget is the number of morning deliveries that cancels the
	// incentive adjustment
	MorningTarget = 10
	// DeliveryPrice is charged for every delivery short of MorningTarget
	DeliveryPrice = 3.0
	// MorningLastHour is the last hour counted as morning (16:00-16:59)
	MorningLastHour = 16
)

const zeroAmount = "0.00"

var extraAmountPattern = regexp.MustCompile(`^\d*\.?\d{0,2}$`)

// Delivery is the part of a stored entry the report needs
type Delivery struct {
	Subtotal  float64
	Paid      bool
	Timestamp time.Time
}

// Figures are the derived payroll numbers for one day
type Figures struct {
	WorkingHours          float64 `json:"working_hours"`
	HoursPayment          float64 `json:"hours_payment"`
	PaidReceiptsDeduction float64 `json:"paid_receipts_deduction"`
	ExtraAmount           float64 `json:"extra_amount"`
	UnpaidTotal           float64 `json:"unpaid_total"`
	FinalTotal            float64 `json:"final_total"`
	PaidCount             int     `json:"paid_count"`
	UnpaidCount           int     `json:"unpaid_count"`
	TotalCount            int     `json:"total_count"`
	MorningCount          int     `json:"morning_count"`
}

// WorkingHours returns the shift length in hours. An end of 00:00 means
// the end of the day. The result is not clamped: an end before the start
// gives a negative value.
func WorkingHours(start, end TimeOfDay) float64 {
	endMinutes := end.ComparableMinutes()
	if end.IsMidnight() {
		endMinutes = midnight
	}
	return float64(endMinutes-start.ComparableMinutes()) / 60
}

// HoursPayment returns the hourly pay for a shift, rounded up
func HoursPayment(workingHours float64) float64 {
	return math.Ceil(workingHours * HourlyRate)
}

// PaidReceiptsDeduction returns the deduction for receipts paid in advance
func PaidReceiptsDeduction(paidCount int) float64 {
	return float64(paidCount) * PaidReceiptRate
}

// HasMorningWindow reports whether a shift starting at start has morning
// hours at all
func HasMorningWindow(start TimeOfDay) bool {
	return start.Hour <= MorningLastHour
}

// MorningCount counts entries created between the start hour and 16:59
func MorningCount(entries []Delivery, start TimeOfDay, loc *time.Location) int {
	if !HasMorningWindow(start) {
		return 0
	}
	count := 0
	for _, e := range entries {
		hour := e.Timestamp.In(loc).Hour()
		if hour >= start.Hour && hour <= MorningLastHour {
			count++
		}
	}
	return count
}

// AutoExtraAmount returns the incentive adjustment for missing morning
// deliveries, formatted with two decimals
func AutoExtraAmount(morningCount int, start TimeOfDay) string {
	if !HasMorningWindow(start) || morningCount >= MorningTarget {
		return zeroAmount
	}
	return fmt.Sprintf("%.2f", float64(MorningTarget-morningCount)*DeliveryPrice)
}

// ValidExtraAmount reports whether s is acceptable operator input: digits
// with at most two decimals, possibly incomplete ("", "3.", ".5")
func ValidExtraAmount(s string) bool {
	return extraAmountPattern.MatchString(s)
}

// ParseExtraAmount returns the numeric value of an extra amount, or 0
func ParseExtraAmount(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Recompute refreshes the entry-derived fields of s. The extra amount is
// recalculated unless the operator is editing it, and is always zero for a
// shift starting at 17:00 or later.
func Recompute(s State, entries []Delivery, loc *time.Location) State {
	s.PaidCount, s.UnpaidCount, s.UnpaidTotal = 0, 0, 0
	for _, e := range entries {
		if e.Paid {
			s.PaidCount++
			continue
		}
		s.UnpaidCount++
		s.UnpaidTotal += e.Subtotal
	}

	s.MorningCount = MorningCount(entries, s.StartTime, loc)
	if !s.IsEditingExtra || !HasMorningWindow(s.StartTime) {
		s.ExtraAmount = AutoExtraAmount(s.MorningCount, s.StartTime)
	}
	return s
}
