package delivery

import (
	"time"

	"github.com/zombor/delivery-calculator/internal/parsing"
)

// lateNightCutoff is how long after midnight an entry still counts for the
// previous day's shift
const lateNightCutoff = 30 * time.Minute

// Entry is a recognised receipt stored for the report
type Entry struct {
	ID              string         `json:"id"`
	RawText         string         `json:"raw_text"`
	Format          parsing.Format `json:"format"`
	DeliveryAddress string         `json:"delivery_address"`
	Subtotal        float64        `json:"subtotal"`
	Total           float64        `json:"total"`
	IsPaid          bool           `json:"is_paid"`
	PhoneNumber     string         `json:"phone_number"`
	MaskingCode     string         `json:"masking_code"`
	Timestamp       time.Time      `json:"timestamp"`  // Shift-adjusted creation time
	CreatedAt       time.Time      `json:"created_at"` // Wall-clock capture time
}

// newEntry builds an Entry from a parser result
func newEntry(id string, parsed *parsing.ParsedEntry, now time.Time, loc *time.Location) *Entry {
	return &Entry{
		ID:              id,
		RawText:         parsed.RawText,
		Format:          parsed.Format,
		DeliveryAddress: parsed.DeliveryAddress,
		Subtotal:        parsed.Subtotal,
		IsPaid:          parsed.IsPaid,
		PhoneNumber:     parsed.PhoneNumber,
		MaskingCode:     parsed.MaskingCode,
		Timestamp:       AdjustLateNight(now, loc),
		CreatedAt:       now,
	}
}

// AdjustLateNight moves times in [00:00, 00:30) back to 23:59:59 of the
// previous day so deliveries just after midnight count for the shift that
// started the day before. Other times are returned unchanged.
func AdjustLateNight(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	if local.Sub(midnight) >= lateNightCutoff {
		return t
	}
	return midnight.Add(-time.Second)
}
