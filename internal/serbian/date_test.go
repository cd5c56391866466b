package serbian

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("FormatDateParts", func() {
	It("zero-pads both parts", func() {
		t := time.Date(2026, 1, 22, 9, 5, 0, 0, time.Local)
		date, clock := FormatDateParts(t)
		Expect(date).To(Equal("22.01.2026"))
		Expect(clock).To(Equal("09:05"))
	})
})

var _ = Describe("FormatDateTime", func() {
	It("joins date and clock for display", func() {
		t := time.Date(2026, 1, 22, 14, 30, 0, 0, time.Local)
		Expect(FormatDateTime(t)).To(Equal("22.01.2026, 14:30"))
	})
})

var _ = Describe("ParseDateParts", func() {
	It("reconstructs the instant", func() {
		t, err := ParseDateParts("22.01.2026", "14:30")
		Expect(err).NotTo(HaveOccurred())
		Expect(t).To(Equal(time.Date(2026, 1, 22, 14, 30, 0, 0, time.Local)))
	})

	It("round-trips with FormatDateParts at minute precision", func() {
		for _, t := range []time.Time{
			time.Date(2026, 1, 22, 14, 30, 59, 0, time.Local),
			time.Date(1999, 12, 31, 23, 59, 0, 0, time.Local),
			time.Date(2024, 2, 29, 0, 0, 0, 0, time.Local),
		} {
			date, clock := FormatDateParts(t)
			parsed, err := ParseDateParts(date, clock)
			Expect(err).NotTo(HaveOccurred())
			gotDate, gotClock := FormatDateParts(parsed)
			Expect(gotDate).To(Equal(date))
			Expect(gotClock).To(Equal(clock))
		}
	})

	When("the date is malformed", func() {
		It("returns an error", func() {
			_, err := ParseDateParts("2026-01-22", "14:30")
			Expect(err).To(HaveOccurred())
		})
	})

	When("the clock is malformed", func() {
		It("returns an error", func() {
			_, err := ParseDateParts("22.01.2026", "2pm")
			Expect(err).To(HaveOccurred())
		})
	})
})
