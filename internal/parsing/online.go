package parsing

import (
	"strings"
)

// onlineReceipt handles the shop's online ordering receipt and is the
// catch-all for text no vendor extractor claimed
type onlineReceipt struct{}

// shopName is printed above some online receipts' address block
const shopName = "SAN MARINO"

func (onlineReceipt) Format() Format { return FormatOnlineReceipt }

func (onlineReceipt) CanParse([]string) bool { return true }

func (onlineReceipt) Parse(lines []string) *ParsedEntry {
	entry := &ParsedEntry{}
	var address []string
	collecting := false
	foundMarker := false
	foundSubtotal := false

	for i, line := range lines {
		if hasPrefixFold(line, "Accepted:") || (!foundMarker && hasPrefixFold(line, "Placed:")) {
			collecting = true
			foundMarker = true
			address = address[:0]
			continue
		}

		if collecting {
			if !endsOnlineAddress(line) {
				address = append(address, line)
				continue
			}
			collecting = false
			if isPhoneNumber(line) {
				entry.PhoneNumber = internationalNumber(line)
			}
			entry.DeliveryAddress = strings.Join(withoutShopName(address), ", ")
		}

		switch {
		case strings.EqualFold(line, "Subtotal:"):
			if next, ok := lineAt(lines, i+1); ok && !foundSubtotal {
				entry.Subtotal = ParseAmount(next)
				foundSubtotal = true
			}
		case hasPrefixFold(line, "Subtotal:"):
			if !foundSubtotal {
				rest, _ := cutPrefixFold(line, "Subtotal:")
				entry.Subtotal = ParseAmount(rest)
				foundSubtotal = true
			}
		case containsFold(line, "Payment:") && containsFold(line, "Paid"):
			entry.IsPaid = true
		}
	}

	// Receipts without an Accepted:/Placed: header list the address first
	if !foundMarker {
		address = address[:0]
		for _, line := range lines {
			if isPhoneNumber(line) {
				entry.PhoneNumber = internationalNumber(line)
				entry.DeliveryAddress = strings.Join(address, ", ")
				break
			}
			address = append(address, line)
		}
	}

	if entry.DeliveryAddress == "" {
		return nil
	}
	return entry
}

// endsOnlineAddress reports whether a line closes the address block:
// the customer phone, the first order line, or the price section
func endsOnlineAddress(line string) bool {
	return isPhoneNumber(line) ||
		hasPrefixFold(line, "1x") ||
		hasPrefixFold(line, "Subtotal:") ||
		strings.Contains(line, "€")
}

func withoutShopName(lines []string) []string {
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.EqualFold(line, shopName) {
			continue
		}
		kept = append(kept, line)
	}
	return kept
}

// internationalNumber writes a leading + as the 00 international prefix
func internationalNumber(line string) string {
	return strings.ReplaceAll(removeSpaces(line), "+", "00")
}
