package parsing

import (
	"strings"
)

// shopMarker is printed on every receipt from the shop's own till
const shopMarker = "www.sanmarino.ie"

// shopReceipt handles the shop's point-of-sale printout: shop header,
// "Ph:" shop phone, a date line, the delivery address, then "Phone:"
type shopReceipt struct{}

func (shopReceipt) Format() Format { return FormatShopReceipt }

func (shopReceipt) CanParse(lines []string) bool {
	for _, line := range lines {
		if containsFold(line, shopMarker) {
			return true
		}
	}
	return false
}

func (shopReceipt) Parse(lines []string) *ParsedEntry {
	entry := &ParsedEntry{}
	shopPhoneIdx, customerPhoneIdx := -1, -1

	for i, line := range lines {
		if hasPrefixFold(line, "Ph:") {
			shopPhoneIdx = i
		} else if rest, ok := cutPrefixFold(line, "Phone:"); ok {
			customerPhoneIdx = i
			entry.PhoneNumber = localShopNumber(removeSpaces(rest))
		}
	}

	// Skip the date line printed right after the shop phone
	if shopPhoneIdx != -1 && customerPhoneIdx != -1 && shopPhoneIdx+2 <= customerPhoneIdx {
		entry.DeliveryAddress = strings.Join(lines[shopPhoneIdx+2:customerPhoneIdx], ", ")
	}

	foundSubtotal := false
	for i, line := range lines {
		lower := strings.ToLower(line)
		switch {
		case strings.Contains(lower, "subtotal") || strings.Contains(lower, "sabtotal"):
			if next, ok := lineAt(lines, i+1); ok && !foundSubtotal {
				entry.Subtotal = ParseAmount(next)
				foundSubtotal = true
			}
		case strings.Contains(lower, "payment") || strings.Contains(lower, "paid"):
			entry.IsPaid = true
		}
	}

	if entry.DeliveryAddress == "" {
		return nil
	}
	return entry
}

// localShopNumber adds the Dublin trunk code to local numbers starting with 2
func localShopNumber(number string) string {
	if strings.HasPrefix(number, "2") {
		return "01" + number
	}
	return number
}
