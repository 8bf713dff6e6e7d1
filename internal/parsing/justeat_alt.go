package parsing

import (
	"strings"
)

// justEatAlternate handles the "JustEats" courier app layout, where the
// masking code and address share a line with the proxy number
type justEatAlternate struct{}

func (justEatAlternate) Format() Format { return FormatJustEatAlternate }

func (justEatAlternate) CanParse(lines []string) bool {
	for _, line := range lines {
		if containsFold(line, "JustEats") {
			return true
		}
	}
	return false
}

// Parse applies the paid rules in line order; the last one to fire wins.
func (justEatAlternate) Parse(lines []string) *ParsedEntry {
	entry := &ParsedEntry{PhoneNumber: justEatProxyNumber}

	for i, line := range lines {
		switch {
		case strings.EqualFold(line, "Order Price"):
			if next, ok := lineAt(lines, i+1); ok {
				entry.Subtotal = ParseAmount(next)
			}
		case hasPrefixFold(line, "Paid Amount"):
			entry.IsPaid = amountAfter(line, "Paid Amount") > 0
		case containsFold(line, "Outstanding"):
			entry.IsPaid = amountAfter(line, "Outstanding") <= 0
		case containsFold(line, "Order Paid"), strings.EqualFold(line, "Paid"):
			entry.IsPaid = true
		case hasPrefixFold(line, "code)"):
			rest, _ := cutPrefixFold(line, "code)")
			code, address := splitMaskingCode(rest)
			if address == "" {
				address, _ = lineAt(lines, i+1)
			}
			entry.MaskingCode = code
			entry.DeliveryAddress = strings.TrimSpace(address)
		case containsFold(line, "(masking code)"):
			rest, _ := afterFold(line, "(masking code)")
			entry.MaskingCode, entry.DeliveryAddress = splitMaskingCode(rest)
		}
	}

	if entry.DeliveryAddress == "" {
		return nil
	}
	return entry
}

// splitMaskingCode splits "517616386 Knockard, Dundrum Road" into the code
// and the address that follows it
func splitMaskingCode(text string) (code, address string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", ""
	}
	code = fields[0]
	address = strings.TrimSpace(strings.TrimSpace(text)[len(code):])
	return code, address
}
