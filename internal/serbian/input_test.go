package serbian

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("FormatAmountInput", func() {
	It("inserts thousands separators while typing", func() {
		Expect(FormatAmountInput("12345", "1.234")).To(Equal("12.345"))
		Expect(FormatAmountInput("12.3456", "12.345")).To(Equal("123.456"))
	})

	It("keeps the comma and caps the fraction at two digits", func() {
		Expect(FormatAmountInput("123.456,", "123.456")).To(Equal("123.456,"))
		Expect(FormatAmountInput("123.456,78", "123.456,")).To(Equal("123.456,78"))
		Expect(FormatAmountInput("123.456,789", "123.456,78")).To(Equal("123.456,78"))
	})

	It("rejects a second comma, reverting to the previous value", func() {
		Expect(FormatAmountInput("123.456,78,", "123.456,78")).To(Equal("123.456,78"))
	})

	It("strips characters that are not digits or commas", func() {
		Expect(FormatAmountInput("1a2b3", "")).To(Equal("123"))
	})

	It("strips leading zeros but keeps an explicit single zero", func() {
		Expect(FormatAmountInput("007", "00")).To(Equal("7"))
		Expect(FormatAmountInput("0", "")).To(Equal("0"))
		Expect(FormatAmountInput("0,5", "0,")).To(Equal("0,5"))
	})

	It("allows clearing the field", func() {
		Expect(FormatAmountInput("", "123")).To(Equal(""))
	})
})
