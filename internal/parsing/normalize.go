package parsing

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	lineBreaks  = regexp.MustCompile(`\r\n|\r|\n`)
	whitespace  = regexp.MustCompile(`\s+`)
	phoneShaped = regexp.MustCompile(`^\+?\d{7,}$`)
	eurToken    = regexp.MustCompile(`(?i)eur`)
)

// Normalize splits raw text into trimmed, non-empty lines.
// Line indices of the result are what every extractor works against.
func Normalize(raw string) []string {
	lines := make([]string, 0)
	for _, line := range lineBreaks.Split(raw, -1) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// ParseAmount parses a money amount written with either decimal separator
// and an optional euro sign or EUR suffix. Anything unparsable is 0.
func ParseAmount(text string) float64 {
	text = strings.ReplaceAll(text, "â‚¬", "")
	text = strings.ReplaceAll(text, "€", "")
	text = eurToken.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, ",", ".")
	text = strings.TrimSpace(text)

	value, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	return value
}

// amountAfter parses the amount that follows the euro sign on a line, or
// whatever follows label when the line carries no euro sign.
func amountAfter(line, label string) float64 {
	if i := strings.Index(line, "€"); i >= 0 {
		return ParseAmount(line[i+len("€"):])
	}
	if rest, ok := afterFold(line, label); ok {
		return ParseAmount(strings.TrimPrefix(strings.TrimSpace(rest), ":"))
	}
	return 0
}

// removeSpaces drops every whitespace character
func removeSpaces(s string) string {
	return whitespace.ReplaceAllString(s, "")
}

// isPhoneNumber reports whether a line looks like a bare phone number
func isPhoneNumber(line string) bool {
	return phoneShaped.MatchString(removeSpaces(line))
}

// indexFold is strings.Index with ASCII case folding. Byte offsets refer to s.
func indexFold(s, substr string) int {
	n := len(substr)
	for i := 0; i+n <= len(s); i++ {
		if strings.EqualFold(s[i:i+n], substr) {
			return i
		}
	}
	return -1
}

func containsFold(s, substr string) bool {
	return indexFold(s, substr) >= 0
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// cutPrefixFold returns s without prefix, matched case-insensitively
func cutPrefixFold(s, prefix string) (string, bool) {
	if !hasPrefixFold(s, prefix) {
		return s, false
	}
	return s[len(prefix):], true
}

// afterFold returns the text following the first case-insensitive
// occurrence of marker
func afterFold(s, marker string) (string, bool) {
	i := indexFold(s, marker)
	if i < 0 {
		return "", false
	}
	return s[i+len(marker):], true
}

// lineAt returns lines[i] or "" when i is out of range
func lineAt(lines []string, i int) (string, bool) {
	if i < 0 || i >= len(lines) {
		return "", false
	}
	return lines[i], true
}
