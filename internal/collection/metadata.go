package collection

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"
)

var bucketRecords = []byte("records")

// Record is one stored text with its provenance metadata. IDs are assigned
// by the metadata store at insertion time: monotonic, unique within the
// collection, and shared with the similarity index as the join key.
type Record struct {
	ID       int64          `json:"id"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
}

// metadataStore is the durable id -> record table behind a collection,
// one bbolt file per collection.
type metadataStore struct {
	db *bbolt.DB
}

type storedRecord struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func openMetadata(path string) (*metadataStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open metadata db: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketRecords)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create records bucket: %w", err)
	}
	return &metadataStore{db: db}, nil
}

// insert writes one record per text in a single transaction and returns the
// assigned ids. The bucket sequence makes ids monotonic and 1-based.
func (m *metadataStore) insert(texts []string, metadatas []map[string]any) ([]int64, error) {
	ids := make([]int64, 0, len(texts))
	err := m.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketRecords)
		for i, text := range texts {
			seq, err := b.NextSequence()
			if err != nil {
				return err
			}
			rec := storedRecord{Text: text, Metadata: metadatas[i]}
			data, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			if err := b.Put(itob(int64(seq)), data); err != nil {
				return err
			}
			ids = append(ids, int64(seq))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("insert records: %w", err)
	}
	return ids, nil
}

// get looks up a record by id. The second return is false when no record
// exists for the id.
func (m *metadataStore) get(id int64) (Record, bool, error) {
	var rec Record
	found := false
	err := m.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketRecords).Get(itob(id))
		if data == nil {
			return nil
		}
		var stored storedRecord
		if err := json.Unmarshal(data, &stored); err != nil {
			return err
		}
		meta := stored.Metadata
		if meta == nil {
			meta = map[string]any{}
		}
		rec = Record{ID: id, Text: stored.Text, Metadata: meta}
		found = true
		return nil
	})
	return rec, found, err
}

func (m *metadataStore) close() error {
	return m.db.Close()
}

func itob(id int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(id))
	return buf
}
