package suf_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"expendita/internal/suf"
)

var _ = Describe("LoadPatterns", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	writePatterns := func(content string) string {
		path := filepath.Join(dir, "patterns.json")
		Expect(os.WriteFile(path, []byte(content), 0644)).To(Succeed())
		return path
	}

	It("overrides only the fields present in the file", func() {
		path := writePatterns(`{"total_label": "Ukupno:\\s*([0-9.,]+)", "total_column": 2}`)

		p, err := suf.LoadPatterns(path)

		Expect(err).ToNot(HaveOccurred())
		Expect(p.TotalLabel).To(Equal(`Ukupno:\s*([0-9.,]+)`))
		Expect(p.TotalColumn).To(Equal(2))
		Expect(p.MerchantLabel).To(Equal(suf.DefaultPatterns().MerchantLabel))
		Expect(p.ItemsTable).To(Equal(suf.DefaultPatterns().ItemsTable))
	})

	It("returns an error when the file does not exist", func() {
		_, err := suf.LoadPatterns(filepath.Join(dir, "missing.json"))

		Expect(err).To(HaveOccurred())
	})

	It("returns an error when the file is not valid JSON", func() {
		path := writePatterns(`not json`)

		_, err := suf.LoadPatterns(path)

		Expect(err).To(HaveOccurred())
	})

	It("returns an error when an override fails to compile", func() {
		path := writePatterns(`{"merchant_label": "(unclosed"}`)

		_, err := suf.LoadPatterns(path)

		Expect(err).To(MatchError(ContainSubstring("compiling merchant label")))
	})
})
