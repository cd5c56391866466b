package receipt_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"expendita/internal/receipt"
)

var _ = Describe("LocalStorage", func() {
	var (
		dir     string
		storage *receipt.LocalStorage
	)

	BeforeEach(func() {
		dir = filepath.Join(GinkgoT().TempDir(), "uploads")
		var err error
		storage, err = receipt.NewLocalStorage(dir)
		Expect(err).ToNot(HaveOccurred())
	})

	It("creates the storage directory", func() {
		info, err := os.Stat(dir)

		Expect(err).ToNot(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())
	})

	It("round-trips a file", func() {
		path, err := storage.Save("scan.jpg", []byte("image data"))
		Expect(err).ToNot(HaveOccurred())
		Expect(path).To(Equal("scan.jpg"))

		data, err := storage.Get(path)
		Expect(err).ToNot(HaveOccurred())
		Expect(data).To(Equal([]byte("image data")))
	})

	It("deletes a saved file", func() {
		_, err := storage.Save("scan.jpg", []byte("image data"))
		Expect(err).ToNot(HaveOccurred())

		Expect(storage.Delete("scan.jpg")).To(Succeed())

		_, err = storage.Get("scan.jpg")
		Expect(err).To(HaveOccurred())
	})

	It("fails to read a missing file", func() {
		_, err := storage.Get("missing.jpg")

		Expect(err).To(HaveOccurred())
	})
})
