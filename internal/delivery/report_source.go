package delivery

import (
	"context"
	"time"

	"github.com/zombor/delivery-calculator/internal/report"
)

// ReportSource feeds stored entries to a report.Aggregator
type ReportSource struct {
	db DB
}

// NewReportSource creates a ReportSource over db
func NewReportSource(db DB) *ReportSource {
	return &ReportSource{db: db}
}

// WatchEntries implements report.Source
func (r *ReportSource) WatchEntries(ctx context.Context, from, to time.Time) (<-chan []report.Delivery, error) {
	in, err := r.db.WatchEntries(ctx, from, to)
	if err != nil {
		return nil, err
	}

	out := make(chan []report.Delivery)
	go func() {
		defer close(out)
		for entries := range in {
			select {
			case out <- reportEntries(entries):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func reportEntries(entries []*Entry) []report.Delivery {
	converted := make([]report.Delivery, 0, len(entries))
	for _, e := range entries {
		converted = append(converted, report.Delivery{
			Subtotal:  e.Subtotal,
			Paid:      e.IsPaid,
			Timestamp: e.Timestamp,
		})
	}
	return converted
}
