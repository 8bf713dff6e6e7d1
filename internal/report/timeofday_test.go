package report

import (
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("TimeOfDay", func() {
	Describe("ComparableMinutes", func() {
		It("should place midnight after the last half hour of the day", func() {
			Expect(TimeOfDay{Hour: 0, Minute: 0}.ComparableMinutes()).To(BeNumerically(">", TimeOfDay{Hour: 23, Minute: 30}.ComparableMinutes()))
		})

		It("should count 00:00 and 00:30 as 1440 and 1470", func() {
			Expect(TimeOfDay{}.ComparableMinutes()).To(Equal(1440))
			Expect(TimeOfDay{Minute: 30}.ComparableMinutes()).To(Equal(1470))
		})

		It("should count other times from the start of the day", func() {
			Expect(TimeOfDay{Hour: 12, Minute: 30}.ComparableMinutes()).To(Equal(750))
		})
	})

	Describe("Compare", func() {
		It("should order by the end-of-day convention", func() {
			Expect(TimeOfDay{Hour: 0, Minute: 30}.Compare(TimeOfDay{})).To(Equal(1))
			Expect(TimeOfDay{Hour: 23}.Compare(TimeOfDay{})).To(Equal(-1))
			Expect(TimeOfDay{Hour: 9}.Compare(TimeOfDay{Hour: 9})).To(Equal(0))
		})
	})

	Describe("ParseTimeOfDay", func() {
		DescribeTable("valid times",
			func(text string, expected TimeOfDay) {
				t, err := ParseTimeOfDay(text)
				Expect(err).NotTo(HaveOccurred())
				Expect(t).To(Equal(expected))
			},
			Entry("noon", "12:00", TimeOfDay{Hour: 12}),
			Entry("half past", "07:30", TimeOfDay{Hour: 7, Minute: 30}),
			Entry("midnight", "00:00", TimeOfDay{}),
			Entry("24:00 alias", "24:00", TimeOfDay{}),
			Entry("24:30 alias", "24:30", TimeOfDay{Minute: 30}),
		)

		DescribeTable("invalid times",
			func(text string) {
				_, err := ParseTimeOfDay(text)
				Expect(err).To(MatchError(ErrInvalidTimeOfDay))
			},
			Entry("quarter hour", "12:15"),
			Entry("hour out of range", "25:00"),
			Entry("no separator", "1200"),
			Entry("not a number", "noon:00"),
		)
	})

	Describe("JSON", func() {
		It("should round trip through the HH:MM form", func() {
			data, err := json.Marshal(TimeOfDay{Hour: 9, Minute: 30})
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal(`"09:30"`))

			var t TimeOfDay
			Expect(json.Unmarshal(data, &t)).To(Succeed())
			Expect(t).To(Equal(TimeOfDay{Hour: 9, Minute: 30}))
		})
	})

	Describe("Options", func() {
		It("should list every half hour and end with midnight", func() {
			options := Options()
			Expect(options).To(HaveLen(49))
			Expect(options[0]).To(Equal(TimeOfDay{}))
			Expect(options[47]).To(Equal(TimeOfDay{Hour: 23, Minute: 30}))
			Expect(options[48]).To(Equal(TimeOfDay{}))
		})
	})
})

var _ = Describe("Date", func() {
	Describe("Bounds", func() {
		It("should span exactly one calendar day", func() {
			from, to := Date{Year: 2024, Month: time.March, Day: 31}.Bounds(time.UTC)
			Expect(from).To(Equal(time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)))
			Expect(to).To(Equal(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)))
		})
	})

	Describe("ParseDate", func() {
		It("should parse ISO dates", func() {
			d, err := ParseDate("2024-01-15")
			Expect(err).NotTo(HaveOccurred())
			Expect(d).To(Equal(Date{Year: 2024, Month: time.January, Day: 15}))
			Expect(d.String()).To(Equal("2024-01-15"))
		})

		It("returns the error for other layouts", func() {
			_, err := ParseDate("15/01/2024")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("DateOf", func() {
		It("should use the given location", func() {
			loc := time.FixedZone("UTC+2", 2*60*60)
			t := time.Date(2024, 1, 15, 23, 0, 0, 0, time.UTC)
			Expect(DateOf(t, loc)).To(Equal(Date{Year: 2024, Month: time.January, Day: 16}))
		})
	})
})
