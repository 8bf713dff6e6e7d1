package parsing

import (
	"log/slog"
)

// Extractor recognises and extracts one receipt layout
type Extractor interface {
	// Format names the layout this extractor handles
	Format() Format

	// CanParse reports whether the lines structurally belong to this layout
	CanParse(lines []string) bool

	// Parse extracts an entry from the lines, or nil when no delivery
	// address could be found
	Parse(lines []string) *ParsedEntry
}

// Parser dispatches normalized receipt text to the first matching extractor
type Parser struct {
	extractors []Extractor
}

// NewParser creates a Parser with the built-in extractors in priority order.
// The order matters: vendor markers are checked before the online receipt
// extractor, which accepts anything.
func NewParser() *Parser {
	return NewParserWithExtractors(
		justEat{},
		justEatAlternate{},
		shopReceipt{},
		deliveroo{},
		onlineReceipt{},
	)
}

// NewParserWithExtractors creates a Parser with a custom extractor chain
func NewParserWithExtractors(extractors ...Extractor) *Parser {
	return &Parser{extractors: extractors}
}

var defaultParser = NewParser()

// ParseReceipt parses raw receipt text with the built-in extractors
func ParseReceipt(raw string) *ParsedEntry {
	return defaultParser.Parse(raw)
}

// Detect returns the format of the first extractor whose CanParse accepts
// the lines. The second result is false only for a chain without a
// catch-all extractor.
func (p *Parser) Detect(lines []string) (Format, bool) {
	if e := p.match(lines); e != nil {
		return e.Format(), true
	}
	return "", false
}

func (p *Parser) match(lines []string) Extractor {
	for _, e := range p.extractors {
		if e.CanParse(lines) {
			return e
		}
	}
	return nil
}

// Parse normalizes raw text and extracts an entry with the first matching
// extractor. A structurally matching extractor that finds no address ends
// the search: later extractors are not tried.
func (p *Parser) Parse(raw string) *ParsedEntry {
	lines := Normalize(raw)

	e := p.match(lines)
	if e == nil {
		slog.Debug("No receipt format matched", "lines", len(lines))
		return nil
	}

	entry := safeParse(e, lines)
	if entry == nil || entry.DeliveryAddress == "" {
		slog.Debug("Receipt format matched but no address found", "format", e.Format())
		return nil
	}

	entry.RawText = raw
	entry.Format = e.Format()

	slog.Debug("Parsed receipt",
		"format", entry.Format,
		"address", entry.DeliveryAddress,
		"subtotal", entry.Subtotal,
		"paid", entry.IsPaid,
		"phone", entry.PhoneNumber,
		"masking_code", entry.MaskingCode,
	)
	return entry
}

// safeParse runs an extractor, treating a panic as an unrecognised receipt
func safeParse(e Extractor, lines []string) (entry *ParsedEntry) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("Receipt extractor failed", "format", e.Format(), "panic", r)
			entry = nil
		}
	}()
	return e.Parse(lines)
}
