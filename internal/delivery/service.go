package delivery

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/delivery-calculator/internal/parsing"
	"github.com/zombor/delivery-calculator/internal/report"
)

// Editable entry fields
const (
	FieldPaid     = "paid"
	FieldSubtotal = "subtotal"
	FieldTotal    = "total"
)

var (
	// ErrNotRecognized is returned when no delivery address could be
	// extracted from the text
	ErrNotRecognized = errors.New("receipt not recognised")

	// ErrEmptyInput is returned for blank text
	ErrEmptyInput = errors.New("empty input")

	// ErrUnknownField is returned when updating a field that cannot be edited
	ErrUnknownField = errors.New("unknown field")

	// ErrInvalidValue is returned when a field value cannot be parsed
	ErrInvalidValue = errors.New("invalid value")
)

// Parser turns receipt text into a parsed entry, or nil
type Parser interface {
	Parse(raw string) *parsing.ParsedEntry
}

// IDGenerator generates unique IDs for entries
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates random UUIDs
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles entry operations
type Service struct {
	db          DB
	parser      Parser
	loc         *time.Location
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, parser Parser, loc *time.Location) *Service {
	return NewServiceWithDeps(db, parser, loc, &defaultIDGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, parser Parser, loc *time.Location, idGen IDGenerator, timeSrc TimeSource) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		db:          db,
		parser:      parser,
		loc:         loc,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// Location returns the time zone days are counted in
func (s *Service) Location() *time.Location {
	return s.loc
}

// Today returns the current calendar day
func (s *Service) Today() report.Date {
	return report.DateOf(s.timeSource.Now(), s.loc)
}

// Capture parses receipt text and stores the resulting entry
func (s *Service) Capture(raw string) (*Entry, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyInput
	}

	parsed := s.parser.Parse(raw)
	if parsed == nil {
		slog.Info("Receipt not recognised", "length", len(raw))
		return nil, ErrNotRecognized
	}

	entry := newEntry(s.idGenerator.Generate(), parsed, s.timeSource.Now(), s.loc)
	if err := s.db.InsertEntry(entry); err != nil {
		return nil, fmt.Errorf("saving entry: %w", err)
	}

	slog.Info("Entry captured",
		"id", entry.ID,
		"format", entry.Format,
		"subtotal", entry.Subtotal,
		"paid", entry.IsPaid,
	)
	return entry, nil
}

// CaptureFrom reads the current text of src and captures it
func (s *Service) CaptureFrom(src TextSource) (*Entry, error) {
	text, err := src.CurrentText()
	if err != nil {
		return nil, fmt.Errorf("reading text: %w", err)
	}
	return s.Capture(text)
}

// GetEntry retrieves an entry by ID
func (s *Service) GetEntry(id string) (*Entry, error) {
	entry, err := s.db.GetEntry(id)
	if err != nil {
		return nil, fmt.Errorf("getting entry: %w", err)
	}
	return entry, nil
}

// ListEntries returns the entries of one day, newest first
func (s *Service) ListEntries(date report.Date) ([]*Entry, error) {
	from, to := date.Bounds(s.loc)
	entries, err := s.db.ListEntries(from, to)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	return entries, nil
}

// UpdateField changes one editable field of an entry
func (s *Service) UpdateField(id, field, value string) (*Entry, error) {
	var mutate func(*Entry)
	switch field {
	case FieldPaid:
		paid, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("%w for %s: %q", ErrInvalidValue, field, value)
		}
		mutate = func(e *Entry) { e.IsPaid = paid }
	case FieldSubtotal, FieldTotal:
		amount, err := parseMoney(value)
		if err != nil {
			return nil, fmt.Errorf("%w for %s: %q", ErrInvalidValue, field, value)
		}
		if field == FieldSubtotal {
			mutate = func(e *Entry) { e.Subtotal = amount }
		} else {
			mutate = func(e *Entry) { e.Total = amount }
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}

	entry, err := s.db.UpdateEntry(id, func(e *Entry) error {
		mutate(e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("updating entry: %w", err)
	}
	slog.Info("Entry updated", "id", id, "field", field, "value", value)
	return entry, nil
}

// parseMoney accepts operator input such as "12.50", "12,50" or "€12.50"
func parseMoney(value string) (float64, error) {
	value = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(value), "€"))
	value = strings.Replace(value, ",", ".", 1)
	amount, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return 0, fmt.Errorf("amount out of range: %v", amount)
	}
	return amount, nil
}

// DeleteEntry removes an entry
func (s *Service) DeleteEntry(id string) error {
	if err := s.db.DeleteEntry(id); err != nil {
		return fmt.Errorf("deleting entry: %w", err)
	}
	slog.Info("Entry deleted", "id", id)
	return nil
}
