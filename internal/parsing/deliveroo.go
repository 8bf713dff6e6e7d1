package parsing

import (
	"strings"
)

// deliveroo handles the Deliveroo order summary
type deliveroo struct{}

func (deliveroo) Format() Format { return FormatDeliveroo }

func (deliveroo) CanParse(lines []string) bool {
	for _, line := range lines {
		if containsFold(line, "deliveroo") {
			return true
		}
	}
	return false
}

func (deliveroo) Parse(lines []string) *ParsedEntry {
	entry := &ParsedEntry{}
	var address []string
	collecting := false

	finishAddress := func() {
		collecting = false
		entry.DeliveryAddress = strings.ReplaceAll(strings.Join(address, ", "), ";", ",")
	}

	for i, line := range lines {
		closesAddress := hasPrefixFold(line, "Customer:") || hasPrefixFold(line, "Phone:")

		switch {
		case hasPrefixFold(line, "Address:"):
			collecting = true
			rest, _ := cutPrefixFold(line, "Address:")
			if rest = strings.TrimSpace(rest); rest != "" {
				address = append(address, rest)
			}
			continue
		case collecting && !closesAddress:
			address = append(address, line)
			continue
		case collecting && closesAddress:
			finishAddress()
		}

		switch {
		case hasPrefixFold(line, "Subtotal"):
			if strings.Contains(line, "€") {
				entry.Subtotal = amountAfter(line, "Subtotal")
			} else if next, ok := lineAt(lines, i+1); ok {
				entry.Subtotal = ParseAmount(next)
			}
		case containsFold(line, "ORDER PAID"):
			entry.IsPaid = true
		case hasPrefixFold(line, "Phone"):
			entry.PhoneNumber = irishLocalNumber(phoneAfterLabel(line, "Phone"))
		case hasPrefixFold(line, "Access code:"):
			rest, _ := cutPrefixFold(line, "Access code:")
			entry.MaskingCode = strings.ReplaceAll(removeSpaces(rest), "-", "")
		}
	}

	if collecting && len(address) > 0 {
		finishAddress()
	}

	if entry.DeliveryAddress == "" {
		return nil
	}
	return entry
}

// phoneAfterLabel returns the digits after "+", or after the label and its
// colon when the number is written without a country prefix
func phoneAfterLabel(line, label string) string {
	if i := strings.Index(line, "+"); i >= 0 {
		return removeSpaces(line[i+1:])
	}
	rest, _ := cutPrefixFold(line, label)
	return removeSpaces(strings.TrimPrefix(strings.TrimSpace(rest), ":"))
}

// irishLocalNumber rewrites the 353 country code to the national 0 prefix
func irishLocalNumber(number string) string {
	if rest, ok := strings.CutPrefix(number, "353"); ok {
		return "0" + rest
	}
	return number
}
