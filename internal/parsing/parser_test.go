package parsing

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// receipt joins lines the way they arrive from the clipboard
func receipt(lines ...string) string {
	return strings.Join(lines, "\n")
}

// panickingExtractor claims every receipt and then fails
type panickingExtractor struct{}

func (panickingExtractor) Format() Format              { return "broken" }
func (panickingExtractor) CanParse([]string) bool      { return true }
func (panickingExtractor) Parse([]string) *ParsedEntry { panic("index out of range") }

var _ = Describe("Parser", func() {
	var parser *Parser

	BeforeEach(func() {
		parser = NewParser()
	})

	Describe("Detect", func() {
		var (
			raw    string
			format Format
			ok     bool
		)

		JustBeforeEach(func() {
			format, ok = parser.Detect(Normalize(raw))
		})

		When("a JUST EAT receipt also mentions deliveroo", func() {
			BeforeEach(func() {
				raw = receipt("just eat", "Deliveroo rider")
			})

			It("should prefer the earlier format", func() {
				Expect(ok).To(BeTrue())
				Expect(format).To(Equal(FormatJustEat))
			})
		})

		When("the receipt carries the JustEats marker", func() {
			BeforeEach(func() {
				raw = receipt("JustEats courier", "www.sanmarino.ie")
			})

			It("should detect the alternate layout", func() {
				Expect(format).To(Equal(FormatJustEatAlternate))
			})
		})

		When("the receipt carries the shop URL", func() {
			BeforeEach(func() {
				raw = receipt("WWW.SANMARINO.IE", "deliveroo")
			})

			It("should detect the shop receipt", func() {
				Expect(format).To(Equal(FormatShopReceipt))
			})
		})

		When("the receipt mentions deliveroo", func() {
			BeforeEach(func() {
				raw = receipt("Order via DELIVEROO")
			})

			It("should detect deliveroo", func() {
				Expect(format).To(Equal(FormatDeliveroo))
			})
		})

		When("no vendor marker is present", func() {
			BeforeEach(func() {
				raw = receipt("hello", "world")
			})

			It("should fall back to the online receipt", func() {
				Expect(ok).To(BeTrue())
				Expect(format).To(Equal(FormatOnlineReceipt))
			})
		})

		When("the chain has no catch-all extractor", func() {
			BeforeEach(func() {
				parser = NewParserWithExtractors(justEat{})
				raw = receipt("hello")
			})

			It("should report no match", func() {
				Expect(ok).To(BeFalse())
			})
		})
	})

	Describe("Parse", func() {
		var (
			raw   string
			entry *ParsedEntry
		)

		JustBeforeEach(func() {
			entry = parser.Parse(raw)
		})

		When("parsing a JUST EAT receipt", func() {
			BeforeEach(func() {
				raw = receipt(
					"JUST EAT",
					"Order 4821",
					"Customer details:",
					"12 Main Street",
					"Dundrum",
					"To contact the customer, call",
					"verification code",
					"123 456",
					"Subtotal",
					"12,50",
					"ORDER HAS BEEN PAID",
				)
			})

			It("should join the address lines", func() {
				Expect(entry.DeliveryAddress).To(Equal("12 Main Street, Dundrum"))
			})

			It("should parse the subtotal", func() {
				Expect(entry.Subtotal).To(Equal(12.5))
			})

			It("should mark the entry as paid", func() {
				Expect(entry.IsPaid).To(BeTrue())
			})

			It("should use the platform proxy number", func() {
				Expect(entry.PhoneNumber).To(Equal("014832993"))
			})

			It("should strip spaces from the verification code", func() {
				Expect(entry.MaskingCode).To(Equal("123456"))
			})

			It("should preserve the raw text verbatim", func() {
				Expect(entry.RawText).To(Equal(raw))
			})

			It("should record the format", func() {
				Expect(entry.Format).To(Equal(FormatJustEat))
			})
		})

		When("a JUST EAT receipt has two subtotal lines", func() {
			BeforeEach(func() {
				raw = receipt(
					"JUST EAT",
					"Customer details:",
					"1 Elm Road",
					"Previous orders: 3",
					"Subtotal",
					"10,00",
					"Subtotal",
					"99,00",
				)
			})

			It("should keep the first one", func() {
				Expect(entry.Subtotal).To(Equal(10.0))
			})

			It("should not mark the entry as paid", func() {
				Expect(entry.IsPaid).To(BeFalse())
			})
		})

		When("a JUST EAT receipt has no customer details", func() {
			BeforeEach(func() {
				raw = receipt(
					"JUST EAT",
					"Accepted: 18:00",
					"4 Pine Road",
					"0871234567",
				)
			})

			It("should not fall through to the online receipt", func() {
				Expect(entry).To(BeNil())
			})
		})

		When("parsing an unpaid JustEats receipt", func() {
			BeforeEach(func() {
				raw = receipt(
					"JustEats",
					"Order Price",
					"€24,50",
					"Paid Amount €0,00",
					"Outstanding €24,50",
					"01 483 2993 (masking code) 517616386 Knockard Dundrum Road",
				)
			})

			It("should parse the subtotal from the order price", func() {
				Expect(entry.Subtotal).To(Equal(24.5))
			})

			It("should not mark the entry as paid", func() {
				Expect(entry.IsPaid).To(BeFalse())
			})

			It("should extract the masking code", func() {
				Expect(entry.MaskingCode).To(Equal("517616386"))
			})

			It("should extract the address after the masking code", func() {
				Expect(entry.DeliveryAddress).To(Equal("Knockard Dundrum Road"))
			})

			It("should use the platform proxy number", func() {
				Expect(entry.PhoneNumber).To(Equal("014832993"))
			})
		})

		When("a JustEats receipt has nothing outstanding", func() {
			BeforeEach(func() {
				raw = receipt(
					"JustEats",
					"Paid Amount €0,00",
					"Outstanding €0,00",
					"(masking code) 42 1 Oak Court",
				)
			})

			It("should mark the entry as paid", func() {
				Expect(entry.IsPaid).To(BeTrue())
			})
		})

		When("a JustEats payment confirmation follows an outstanding amount", func() {
			BeforeEach(func() {
				raw = receipt(
					"JustEats",
					"Outstanding €12,00",
					"Order Paid",
					"(masking code) 42 1 Oak Court",
				)
			})

			It("should let the last rule win", func() {
				Expect(entry.IsPaid).To(BeTrue())
			})
		})

		When("a JustEats receipt prints the address below the code", func() {
			BeforeEach(func() {
				raw = receipt(
					"JustEats",
					"code) 123456",
					"5 Elm Park",
				)
			})

			It("should take the code from the marker line", func() {
				Expect(entry.MaskingCode).To(Equal("123456"))
			})

			It("should take the address from the next line", func() {
				Expect(entry.DeliveryAddress).To(Equal("5 Elm Park"))
			})
		})

		When("parsing a shop receipt", func() {
			BeforeEach(func() {
				raw = receipt(
					"San Marino",
					"1 Shop Street",
					"www.sanmarino.ie",
					"Ph: 01 234 5678",
					"12/01/2024 18:30",
					"45 Oak Road",
					"Rathfarnham",
					"Phone: 298 7654",
					"Sabtotal",
					"€18,00",
					"Payment: Card",
				)
			})

			It("should take the address between the shop and customer phones", func() {
				Expect(entry.DeliveryAddress).To(Equal("45 Oak Road, Rathfarnham"))
			})

			It("should add the trunk code to the customer phone", func() {
				Expect(entry.PhoneNumber).To(Equal("012987654"))
			})

			It("should parse the misspelled subtotal", func() {
				Expect(entry.Subtotal).To(Equal(18.0))
			})

			It("should mark the entry as paid", func() {
				Expect(entry.IsPaid).To(BeTrue())
			})

			It("should not set a masking code", func() {
				Expect(entry.MaskingCode).To(BeEmpty())
			})
		})

		When("a shop receipt has a mobile number and no payment line", func() {
			BeforeEach(func() {
				raw = receipt(
					"www.sanmarino.ie",
					"Ph: 01 234 5678",
					"12/01/2024 18:30",
					"9 Cedar Close",
					"Phone: 087 765 4321",
					"Subtotal",
					"11,20",
				)
			})

			It("should keep the number as printed", func() {
				Expect(entry.PhoneNumber).To(Equal("0877654321"))
			})

			It("should not mark the entry as paid", func() {
				Expect(entry.IsPaid).To(BeFalse())
			})

			It("should parse the subtotal", func() {
				Expect(entry.Subtotal).To(Equal(11.2))
			})
		})

		When("a shop receipt has no customer phone", func() {
			BeforeEach(func() {
				raw = receipt(
					"www.sanmarino.ie",
					"Ph: 01 234 5678",
					"12/01/2024 18:30",
					"9 Cedar Close",
				)
			})

			It("should return nil", func() {
				Expect(entry).To(BeNil())
			})
		})

		When("parsing a deliveroo receipt", func() {
			BeforeEach(func() {
				raw = receipt(
					"Deliveroo",
					"Order #123",
					"Address: 7 Beech Hill; Stillorgan",
					"Apartment 4",
					"Customer: Mary",
					"Phone: +353 87 123 4567",
					"Access code: 123-456 789",
					"Subtotal",
					"€21,40",
					"ORDER PAID",
				)
			})

			It("should collect the address and replace semicolons", func() {
				Expect(entry.DeliveryAddress).To(Equal("7 Beech Hill, Stillorgan, Apartment 4"))
			})

			It("should rewrite the country code", func() {
				Expect(entry.PhoneNumber).To(Equal("0871234567"))
			})

			It("should strip the access code", func() {
				Expect(entry.MaskingCode).To(Equal("123456789"))
			})

			It("should parse the subtotal from the next line", func() {
				Expect(entry.Subtotal).To(Equal(21.4))
			})

			It("should mark the entry as paid", func() {
				Expect(entry.IsPaid).To(BeTrue())
			})
		})

		When("a deliveroo address is closed by the phone line", func() {
			BeforeEach(func() {
				raw = receipt(
					"deliveroo",
					"Address:",
					"1 Willow Way",
					"Phone: +353 1 555 0000",
					"Subtotal €8,90",
				)
			})

			It("should end the address at the phone line", func() {
				Expect(entry.DeliveryAddress).To(Equal("1 Willow Way"))
			})

			It("should still parse the phone", func() {
				Expect(entry.PhoneNumber).To(Equal("015550000"))
			})

			It("should parse the inline subtotal", func() {
				Expect(entry.Subtotal).To(Equal(8.9))
			})

			It("should not mark the entry as paid", func() {
				Expect(entry.IsPaid).To(BeFalse())
			})
		})

		When("a deliveroo address runs to the end of the text", func() {
			BeforeEach(func() {
				raw = receipt("deliveroo", "Address: 3 Hazel Grove")
			})

			It("should finalize the address", func() {
				Expect(entry.DeliveryAddress).To(Equal("3 Hazel Grove"))
			})
		})

		When("parsing an accepted online receipt", func() {
			BeforeEach(func() {
				raw = receipt(
					"Accepted: 18:05",
					"SAN MARINO",
					"22 Birch Avenue",
					"Ballinteer",
					"+353871234567",
					"1x Margherita",
					"Subtotal:",
					"€15,50",
					"Payment: Paid online",
				)
			})

			It("should collect the address without the shop name", func() {
				Expect(entry.DeliveryAddress).To(Equal("22 Birch Avenue, Ballinteer"))
			})

			It("should rewrite the plus prefix", func() {
				Expect(entry.PhoneNumber).To(Equal("00353871234567"))
			})

			It("should parse the subtotal from the next line", func() {
				Expect(entry.Subtotal).To(Equal(15.5))
			})

			It("should mark the entry as paid", func() {
				Expect(entry.IsPaid).To(BeTrue())
			})

			It("should record the fallback format", func() {
				Expect(entry.Format).To(Equal(FormatOnlineReceipt))
			})
		})

		When("an online receipt only has a placed marker", func() {
			BeforeEach(func() {
				raw = receipt(
					"Placed: 17:00",
					"3 Ash Lane",
					"0871234567",
					"Subtotal: €9,00",
					"Payment: Cash",
				)
			})

			It("should collect the address after the placed line", func() {
				Expect(entry.DeliveryAddress).To(Equal("3 Ash Lane"))
			})

			It("should keep the national number", func() {
				Expect(entry.PhoneNumber).To(Equal("0871234567"))
			})

			It("should parse the inline subtotal", func() {
				Expect(entry.Subtotal).To(Equal(9.0))
			})

			It("should not mark the entry as paid", func() {
				Expect(entry.IsPaid).To(BeFalse())
			})
		})

		When("an online receipt has an inline subtotal without a currency sign", func() {
			BeforeEach(func() {
				raw = receipt(
					"Accepted: 19:10",
					"8 Elm Court",
					"0861234567",
					"Subtotal: 12,40",
					"Subtotal: 99,00",
				)
			})

			It("should parse the first inline subtotal", func() {
				Expect(entry.Subtotal).To(Equal(12.4))
			})
		})

		When("an online receipt has no marker line", func() {
			BeforeEach(func() {
				raw = receipt("4 Pine Road", "Dublin 16", "0871234567")
			})

			It("should take every line before the phone", func() {
				Expect(entry.DeliveryAddress).To(Equal("4 Pine Road, Dublin 16"))
			})
		})

		When("text matches no vendor and has no phone number", func() {
			BeforeEach(func() {
				raw = receipt("hello", "world")
			})

			It("should return nil", func() {
				Expect(entry).To(BeNil())
			})
		})

		When("text is empty", func() {
			BeforeEach(func() {
				raw = ""
			})

			It("should return nil", func() {
				Expect(entry).To(BeNil())
			})
		})

		When("the matching extractor panics", func() {
			BeforeEach(func() {
				parser = NewParserWithExtractors(panickingExtractor{})
				raw = receipt("anything")
			})

			It("should return nil", func() {
				Expect(entry).To(BeNil())
			})
		})
	})

	Describe("ParseReceipt", func() {
		It("should use the built-in chain", func() {
			entry := ParseReceipt(receipt("deliveroo", "Address: 3 Hazel Grove"))
			Expect(entry).NotTo(BeNil())
			Expect(entry.Format).To(Equal(FormatDeliveroo))
		})
	})
})
