package receipt

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"
)

const (
	receiptsBucket = "receipts"
	itemsBucket    = "receipt_items"
)

// Update carries a partial edit; nil fields are left untouched. The updated
// record must still satisfy Validate or the update is rejected.
type Update struct {
	MerchantName    *string
	TotalCents      *int64
	Timestamp       *time.Time
	VerificationURL *string
	RawData         *string
	Filename        *string
	ContentType     *string
}

// DB is the storage boundary for receipts and their line items.
type DB interface {
	// CreateReceipt validates and stores a receipt with its line items,
	// assigning their IDs. Receipts with a non-positive total are rejected.
	CreateReceipt(r *Receipt) (uint64, error)

	// GetReceipt retrieves a receipt and its line items by ID
	GetReceipt(id uint64) (*Receipt, error)

	// ListReceipts returns all receipts, newest first
	ListReceipts() ([]*Receipt, error)

	// UpdateReceipt applies a partial update, re-validating the result
	UpdateReceipt(id uint64, update Update) (*Receipt, error)

	// DeleteReceipt removes a receipt and cascades to its line items
	DeleteReceipt(id uint64) error

	// DeleteAllReceipts removes every receipt and line item
	DeleteAllReceipts() error

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB. Receipts and line items
// live in separate buckets; item keys are prefixed with the receipt ID so a
// delete can cascade with one prefix scan.
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(receiptsBucket)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(itemsBucket)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// CreateReceipt stores a receipt and its line items, assigning IDs from the
// bucket sequences.
func (b *BoltDB) CreateReceipt(r *Receipt) (uint64, error) {
	if err := r.Validate(); err != nil {
		return 0, fmt.Errorf("rejecting receipt: %w", err)
	}

	err := b.db.Update(func(tx *bbolt.Tx) error {
		receipts := tx.Bucket([]byte(receiptsBucket))
		items := tx.Bucket([]byte(itemsBucket))

		id, err := receipts.NextSequence()
		if err != nil {
			return fmt.Errorf("assigning receipt id: %w", err)
		}
		now := time.Now()
		r.ID = id
		r.CreatedAt = now
		r.UpdatedAt = now

		for i := range r.Items {
			itemID, err := items.NextSequence()
			if err != nil {
				return fmt.Errorf("assigning item id: %w", err)
			}
			r.Items[i].ID = itemID
			r.Items[i].ReceiptID = id
			data, err := json.Marshal(&r.Items[i])
			if err != nil {
				return fmt.Errorf("marshaling line item: %w", err)
			}
			if err := items.Put(itemKey(id, itemID), data); err != nil {
				return err
			}
		}

		return putReceipt(receipts, r)
	})
	if err != nil {
		return 0, err
	}
	return r.ID, nil
}

// GetReceipt retrieves a receipt and its line items by ID
func (b *BoltDB) GetReceipt(id uint64) (*Receipt, error) {
	var receipt *Receipt
	err := b.db.View(func(tx *bbolt.Tx) error {
		var err error
		receipt, err = getReceipt(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// ListReceipts returns all receipts with their line items, ordered by
// timestamp descending (ties broken by ID descending).
func (b *BoltDB) ListReceipts() ([]*Receipt, error) {
	receipts := make([]*Receipt, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		byID := make(map[uint64]*Receipt)
		bucket := tx.Bucket([]byte(receiptsBucket))
		err := bucket.ForEach(func(k, v []byte) error {
			var r Receipt
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("unmarshaling receipt: %w", err)
			}
			receipts = append(receipts, &r)
			byID[r.ID] = &r
			return nil
		})
		if err != nil {
			return err
		}

		items := tx.Bucket([]byte(itemsBucket))
		return items.ForEach(func(k, v []byte) error {
			var item LineItem
			if err := json.Unmarshal(v, &item); err != nil {
				return fmt.Errorf("unmarshaling line item: %w", err)
			}
			if r, ok := byID[item.ReceiptID]; ok {
				r.Items = append(r.Items, item)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(receipts, func(i, j int) bool {
		if !receipts[i].Timestamp.Equal(receipts[j].Timestamp) {
			return receipts[i].Timestamp.After(receipts[j].Timestamp)
		}
		return receipts[i].ID > receipts[j].ID
	})
	return receipts, nil
}

// UpdateReceipt applies a partial update and re-validates the result, so an
// edit cannot push a stored receipt outside the invariants.
func (b *BoltDB) UpdateReceipt(id uint64, update Update) (*Receipt, error) {
	var updated *Receipt
	err := b.db.Update(func(tx *bbolt.Tx) error {
		r, err := getReceipt(tx, id)
		if err != nil {
			return err
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
		if update.VerificationURL != nil {
			r.VerificationURL = *update.VerificationURL
		}
		if update.RawData != nil {
			r.RawData = *update.RawData
		}
		if update.Filename != nil {
			r.Filename = *update.Filename
		}
		if update.ContentType != nil {
			r.ContentType = *update.ContentType
		}

		if err := r.Validate(); err != nil {
			return fmt.Errorf("rejecting update: %w", err)
		}
		r.UpdatedAt = time.Now()

		if err := putReceipt(tx.Bucket([]byte(receiptsBucket)), r); err != nil {
			return err
		}
		updated = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteReceipt removes a receipt and cascades to its line items
func (b *BoltDB) DeleteReceipt(id uint64) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		receipts := tx.Bucket([]byte(receiptsBucket))
		if receipts.Get(itob(id)) == nil {
			return fmt.Errorf("receipt not found: %d", id)
		}
		if err := receipts.Delete(itob(id)); err != nil {
			return err
		}

		items := tx.Bucket([]byte(itemsBucket))
		c := items.Cursor()
		prefix := itob(id)
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			if err := c.Delete(); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteAllReceipts removes every receipt and line item
func (b *BoltDB) DeleteAllReceipts() error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{receiptsBucket, itemsBucket} {
			if err := tx.DeleteBucket([]byte(name)); err != nil {
				return fmt.Errorf("clearing bucket %s: %w", name, err)
			}
			if _, err := tx.CreateBucket([]byte(name)); err != nil {
				return fmt.Errorf("recreating bucket %s: %w", name, err)
			}
		}
		return nil
	})
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}

func getReceipt(tx *bbolt.Tx, id uint64) (*Receipt, error) {
	data := tx.Bucket([]byte(receiptsBucket)).Get(itob(id))
	if data == nil {
		return nil, fmt.Errorf("receipt not found: %d", id)
	}
	var r Receipt
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("unmarshaling receipt: %w", err)
	}

	items := tx.Bucket([]byte(itemsBucket))
	c := items.Cursor()
	prefix := itob(id)
	for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
		var item LineItem
		if err := json.Unmarshal(v, &item); err != nil {
			return nil, fmt.Errorf("unmarshaling line item: %w", err)
		}
		r.Items = append(r.Items, item)
	}
	return &r, nil
}

// putReceipt stores the receipt row itself; line items live in their own
// bucket and are stripped before marshaling.
func putReceipt(bucket *bbolt.Bucket, r *Receipt) error {
	stored := *r
	stored.Items = nil
	data, err := json.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("marshaling receipt: %w", err)
	}
	return bucket.Put(itob(r.ID), data)
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func itemKey(receiptID, itemID uint64) []byte {
	return append(itob(receiptID), itob(itemID)...)
}
