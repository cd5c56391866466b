package receipt_test

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"expendita/internal/receipt"
)

type mockDB struct {
	receipts map[uint64]*receipt.Receipt
	nextID   uint64

	createErr error
	updateErr error
	deleteErr error

	deletedIDs []uint64
	deletedAll bool
	lastUpdate receipt.Update
}

func newMockDB() *mockDB {
	return &mockDB{receipts: make(map[uint64]*receipt.Receipt)}
}

func (m *mockDB) CreateReceipt(r *receipt.Receipt) (uint64, error) {
	if m.createErr != nil {
		return 0, m.createErr
	}
	if err := r.Validate(); err != nil {
		return 0, err
	}
	m.nextID++
	r.ID = m.nextID
	m.receipts[r.ID] = r
	return r.ID, nil
}

func (m *mockDB) GetReceipt(id uint64) (*receipt.Receipt, error) {
	r, ok := m.receipts[id]
	if !ok {
		return nil, errors.New("receipt not found")
	}
	return r, nil
}

func (m *mockDB) ListReceipts() ([]*receipt.Receipt, error) {
	receipts := make([]*receipt.Receipt, 0, len(m.receipts))
	for _, r := range m.receipts {
		receipts = append(receipts, r)
	}
	return receipts, nil
}

func (m *mockDB) UpdateReceipt(id uint64, update receipt.Update) (*receipt.Receipt, error) {
	m.lastUpdate = update
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	r, ok := m.receipts[id]
	if !ok {
		return nil, errors.New("receipt not found")
	}
	if update.MerchantName != nil {
		r.MerchantName = *update.MerchantName
	}
	if update.TotalCents != nil {
		r.TotalCents = *update.TotalCents
	}
	if update.Timestamp != nil {
		r.Timestamp = *update.Timestamp
	}
	if update.Filename != nil {
		r.Filename = *update.Filename
	}
	if update.ContentType != nil {
		r.ContentType = *update.ContentType
	}
	return r, nil
}

func (m *mockDB) DeleteReceipt(id uint64) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deletedIDs = append(m.deletedIDs, id)
	delete(m.receipts, id)
	return nil
}

func (m *mockDB) DeleteAllReceipts() error {
	m.deletedAll = true
	m.receipts = make(map[uint64]*receipt.Receipt)
	return nil
}

func (m *mockDB) Close() error { return nil }

type mockStorage struct {
	files map[string][]byte

	saveErr   error
	getErr    error
	deleteErr error

	savedNames   []string
	deletedNames []string
}

func newMockStorage() *mockStorage {
	return &mockStorage{files: make(map[string][]byte)}
}

func (m *mockStorage) Save(filename string, data []byte) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	m.savedNames = append(m.savedNames, filename)
	m.files[filename] = data
	return filename, nil
}

func (m *mockStorage) Get(path string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	data, ok := m.files[path]
	if !ok {
		return nil, errors.New("file not found")
	}
	return data, nil
}

func (m *mockStorage) Delete(path string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deletedNames = append(m.deletedNames, path)
	delete(m.files, path)
	return nil
}

var _ = Describe("Service", func() {
	var (
		db      *mockDB
		storage *mockStorage
		service *receipt.Service
	)

	BeforeEach(func() {
		db = newMockDB()
		storage = newMockStorage()
		service = receipt.NewService(db, storage)
	})

	stored := func(merchant string, filename string) uint64 {
		r := &receipt.Receipt{
			MerchantName: merchant,
			TotalCents:   45000,
			Timestamp:    time.Date(2026, 1, 22, 14, 30, 0, 0, time.Local),
			RawData:      receipt.RawDataManual,
			Filename:     filename,
		}
		id, err := db.CreateReceipt(r)
		Expect(err).ToNot(HaveOccurred())
		return id
	}

	Describe("CreateManual", func() {
		It("parses the typed fields and stores the receipt", func() {
			rec, err := service.CreateManual("Maxi doo", "1.234,56", "22.01.2026", "14:30")

			Expect(err).ToNot(HaveOccurred())
			Expect(rec.ID).ToNot(BeZero())
			Expect(rec.MerchantName).To(Equal("Maxi doo"))
			Expect(rec.TotalCents).To(Equal(int64(123456)))
			Expect(rec.Timestamp).To(Equal(time.Date(2026, 1, 22, 14, 30, 0, 0, time.Local)))
			Expect(rec.RawData).To(Equal(receipt.RawDataManual))
		})

		It("trims the merchant name", func() {
			rec, err := service.CreateManual("  Maxi doo  ", "450,00", "22.01.2026", "14:30")

			Expect(err).ToNot(HaveOccurred())
			Expect(rec.MerchantName).To(Equal("Maxi doo"))
		})

		It("rejects an unparsable total", func() {
			_, err := service.CreateManual("Maxi doo", "abc", "22.01.2026", "14:30")

			Expect(err).To(MatchError(ContainSubstring("parsing total")))
		})

		It("rejects a malformed date", func() {
			_, err := service.CreateManual("Maxi doo", "450,00", "2026-01-22", "14:30")

			Expect(err).To(HaveOccurred())
		})

		It("surfaces validation failures from the store", func() {
			_, err := service.CreateManual("", "450,00", "22.01.2026", "14:30")

			Expect(err).To(MatchError(ContainSubstring("merchant name")))
		})
	})

	Describe("UpdateReceipt", func() {
		var id uint64

		BeforeEach(func() {
			id = stored("Maxi doo", "")
		})

		It("converts the typed total to cents", func() {
			total := "2.184,00"
			rec, err := service.UpdateReceipt(id, receipt.Edit{Total: &total})

			Expect(err).ToNot(HaveOccurred())
			Expect(rec.TotalCents).To(Equal(int64(218400)))
		})

		It("converts the date and clock to a timestamp", func() {
			date, clock := "01.02.2026", "09:15"
			rec, err := service.UpdateReceipt(id, receipt.Edit{Date: &date, Time: &clock})

			Expect(err).ToNot(HaveOccurred())
			Expect(rec.Timestamp).To(Equal(time.Date(2026, 2, 1, 9, 15, 0, 0, time.Local)))
		})

		It("rejects a date without a clock", func() {
			date := "01.02.2026"
			_, err := service.UpdateReceipt(id, receipt.Edit{Date: &date})

			Expect(err).To(MatchError(ContainSubstring("together")))
		})

		It("leaves unset fields out of the update", func() {
			name := "Idea"
			_, err := service.UpdateReceipt(id, receipt.Edit{MerchantName: &name})

			Expect(err).ToNot(HaveOccurred())
			Expect(db.lastUpdate.MerchantName).ToNot(BeNil())
			Expect(db.lastUpdate.TotalCents).To(BeNil())
			Expect(db.lastUpdate.Timestamp).To(BeNil())
		})
	})

	Describe("DeleteReceipt", func() {
		It("removes the uploaded artifact along with the row", func() {
			id := stored("Maxi doo", "1_scan.jpg")
			storage.files["1_scan.jpg"] = []byte("image data")

			Expect(service.DeleteReceipt(id)).To(Succeed())

			Expect(storage.deletedNames).To(ConsistOf("1_scan.jpg"))
			Expect(db.deletedIDs).To(ConsistOf(id))
		})

		It("still deletes the row when the artifact cannot be removed", func() {
			id := stored("Maxi doo", "1_scan.jpg")
			storage.deleteErr = errors.New("permission denied")

			Expect(service.DeleteReceipt(id)).To(Succeed())

			Expect(db.deletedIDs).To(ConsistOf(id))
		})

		It("fails for an unknown receipt", func() {
			Expect(service.DeleteReceipt(42)).To(MatchError(ContainSubstring("not found")))
		})
	})

	Describe("DeleteAllReceipts", func() {
		It("removes every artifact before clearing the database", func() {
			stored("Maxi doo", "1_scan.jpg")
			stored("Idea", "")
			storage.files["1_scan.jpg"] = []byte("image data")

			Expect(service.DeleteAllReceipts()).To(Succeed())

			Expect(storage.deletedNames).To(ConsistOf("1_scan.jpg"))
			Expect(db.deletedAll).To(BeTrue())
		})
	})

	Describe("AttachFile", func() {
		var id uint64

		BeforeEach(func() {
			id = stored("Maxi doo", "")
		})

		It("saves the artifact under a sanitized, ID-prefixed name", func() {
			rec, err := service.AttachFile(id, "IMG 2026-01-22 #1!.jpg", []byte("image data"), "image/jpeg")

			Expect(err).ToNot(HaveOccurred())
			Expect(storage.savedNames).To(HaveLen(1))
			Expect(storage.savedNames[0]).To(Equal("1_IMG 2026-01-22 1.jpg"))
			Expect(rec.Filename).To(Equal("1_IMG 2026-01-22 1.jpg"))
			Expect(rec.ContentType).To(Equal("image/jpeg"))
		})

		It("removes the saved file when linking fails", func() {
			db.updateErr = errors.New("db closed")

			_, err := service.AttachFile(id, "scan.jpg", []byte("image data"), "image/jpeg")

			Expect(err).To(HaveOccurred())
			Expect(storage.deletedNames).To(ConsistOf("1_scan.jpg"))
		})
	})

	Describe("GetReceiptFile", func() {
		It("returns the artifact and its content type", func() {
			id := stored("Maxi doo", "1_scan.jpg")
			db.receipts[id].ContentType = "image/jpeg"
			storage.files["1_scan.jpg"] = []byte("image data")

			data, contentType, err := service.GetReceiptFile(id)

			Expect(err).ToNot(HaveOccurred())
			Expect(data).To(Equal([]byte("image data")))
			Expect(contentType).To(Equal("image/jpeg"))
		})

		It("fails when the receipt has no artifact", func() {
			id := stored("Maxi doo", "")

			_, _, err := service.GetReceiptFile(id)

			Expect(err).To(MatchError(ContainSubstring("has no file")))
		})
	})
})
