package parsing

// Format identifies which receipt layout produced an entry
type Format string

const (
	FormatJustEat          Format = "just_eat"
	FormatJustEatAlternate Format = "just_eat_alternate"
	FormatShopReceipt      Format = "shop_receipt"
	FormatDeliveroo        Format = "deliveroo"
	FormatOnlineReceipt    Format = "online_receipt"
)

// ParsedEntry contains the information extracted from one receipt.
// An entry is only produced when DeliveryAddress is non-empty.
type ParsedEntry struct {
	RawText         string  `json:"raw_text"`
	Format          Format  `json:"format"`
	DeliveryAddress string  `json:"delivery_address"`
	Subtotal        float64 `json:"subtotal"`
	IsPaid          bool    `json:"is_paid"`
	PhoneNumber     string  `json:"phone_number"`
	MaskingCode     string  `json:"masking_code"`
}

// justEatProxyNumber is the platform number customers are reached through;
// the masking code selects the customer once connected.
const justEatProxyNumber = "014832993"
