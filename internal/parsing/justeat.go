package parsing

import (
	"strings"
)

// justEat handles the JUST EAT order printout
type justEat struct{}

var justEatAddressStops = []string{"To contact", "verification code", "Previous orders"}

func (justEat) Format() Format { return FormatJustEat }

func (justEat) CanParse(lines []string) bool {
	for _, line := range lines {
		if containsFold(line, "JUST EAT") {
			return true
		}
	}
	return false
}

func (justEat) Parse(lines []string) *ParsedEntry {
	entry := &ParsedEntry{PhoneNumber: justEatProxyNumber}
	foundSubtotal := false

	for i, line := range lines {
		switch {
		case strings.EqualFold(line, "Customer details:"):
			entry.DeliveryAddress = strings.Join(justEatAddress(lines[i+1:]), ", ")
		case strings.EqualFold(line, "Subtotal"):
			if next, ok := lineAt(lines, i+1); ok && !foundSubtotal {
				entry.Subtotal = ParseAmount(next)
				foundSubtotal = true
			}
		case containsFold(line, "ORDER HAS BEEN PAID"):
			entry.IsPaid = true
		case containsFold(line, "verification code"):
			if next, ok := lineAt(lines, i+1); ok {
				entry.MaskingCode = removeSpaces(next)
			}
		}
	}

	if entry.DeliveryAddress == "" {
		return nil
	}
	return entry
}

// justEatAddress collects the customer block up to the contact instructions
func justEatAddress(lines []string) []string {
	var address []string
	for _, line := range lines {
		for _, stop := range justEatAddressStops {
			if hasPrefixFold(line, stop) {
				return address
			}
		}
		address = append(address, line)
	}
	return address
}
