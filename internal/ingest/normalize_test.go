package ingest_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"expendita/internal/ingest"
	"expendita/internal/receipt"
)

var _ = Describe("Normalize", func() {
	var fields ingest.Fields

	BeforeEach(func() {
		fields = ingest.Fields{
			MerchantName: "Maxi doo",
			TotalCents:   45000,
			Timestamp:    time.Date(2026, 1, 22, 14, 30, 0, 0, time.Local),
			Items: []receipt.LineItem{
				{Name: "Hleb", Quantity: 2, TotalCents: 18400},
			},
		}
	})

	It("maps the fields onto the canonical receipt", func() {
		rec := ingest.Normalize(ingest.FormatDirectPayment, fields, "K:PR|N:Maxi doo|I:RSD450,00", "")

		Expect(rec.MerchantName).To(Equal("Maxi doo"))
		Expect(rec.TotalCents).To(Equal(int64(45000)))
		Expect(rec.Timestamp).To(Equal(fields.Timestamp))
		Expect(rec.RawData).To(Equal("K:PR|N:Maxi doo|I:RSD450,00"))
		Expect(rec.Items).To(Equal(fields.Items))
	})

	It("leaves the verification URL empty for direct payments", func() {
		rec := ingest.Normalize(ingest.FormatDirectPayment, fields, "K:PR|N:Maxi doo", "")

		Expect(rec.VerificationURL).To(BeEmpty())
	})

	It("records the verification URL for remote scans", func() {
		url := "https://suf.purs.gov.rs/v/?vl=abc"
		rec := ingest.Normalize(ingest.FormatRemoteVerification, fields, url, url)

		Expect(rec.VerificationURL).To(Equal(url))
		Expect(rec.RawData).To(Equal(url))
	})
})
