package checkpoint

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.etcd.io/bbolt"
)

const (
	bucketName = "checkpoints"

	recordVersion = 1
	headerLen     = 1 + 4*8 // version + high-water, size, mtime, line count
)

// BoltDBStore implements Store using BoltDB.
type BoltDBStore struct {
	db *bbolt.DB
}

// NewBoltDBStore opens (or creates) a BoltDB checkpoint store at dbPath.
func NewBoltDBStore(dbPath string) (*BoltDBStore, error) {
	// Short timeout: a locked file means another process holds the store,
	// and waiting longer will not change that.
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb (file may be locked by another process): %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	log.Info().
		Str("db_path", dbPath).
		Msg("BoltDB checkpoint store initialized")

	return &BoltDBStore{db: db}, nil
}

// Get retrieves the checkpoint for a file, or nil if none is stored.
func (s *BoltDBStore) Get(ctx context.Context, path string) (*Record, error) {
	var rec *Record

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}

		val := b.Get([]byte(path))
		if val == nil {
			return nil
		}

		decoded, err := decodeRecord(val)
		if err != nil {
			return err
		}
		rec = decoded
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to get checkpoint: %w", err)
	}

	return rec, nil
}

// Put stores the checkpoint for a file.
func (s *BoltDBStore) Put(ctx context.Context, path string, rec *Record) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}

		return b.Put([]byte(path), encodeRecord(rec))
	})

	if err != nil {
		return fmt.Errorf("failed to put checkpoint: %w", err)
	}

	log.Debug().
		Str("path", path).
		Int64("high_water", rec.HighWater).
		Int("line_starts", len(rec.LineStarts)).
		Msg("Checkpoint updated")

	return nil
}

// Delete removes the checkpoint for a file.
func (s *BoltDBStore) Delete(ctx context.Context, path string) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}

		return b.Delete([]byte(path))
	})

	if err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}

	return nil
}

// List returns the indexed high-water mark for every stored file.
func (s *BoltDBStore) List(ctx context.Context) (map[string]int64, error) {
	result := make(map[string]int64)

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}

		return b.ForEach(func(k, v []byte) error {
			rec, err := decodeRecord(v)
			if err != nil {
				log.Warn().Err(err).Str("path", string(k)).Msg("Skipping unreadable checkpoint")
				return nil
			}
			result[string(k)] = rec.HighWater
			return nil
		})
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}

	return result, nil
}

// Close closes the BoltDB database.
func (s *BoltDBStore) Close() error {
	log.Info().Msg("Closing BoltDB checkpoint store")
	return s.db.Close()
}

// encodeRecord serializes a record as a fixed header followed by the line
// starts, all BigEndian.
func encodeRecord(rec *Record) []byte {
	val := make([]byte, headerLen+8*len(rec.LineStarts))
	val[0] = recordVersion
	binary.BigEndian.PutUint64(val[1:], uint64(rec.HighWater))
	binary.BigEndian.PutUint64(val[9:], uint64(rec.FileSize))
	binary.BigEndian.PutUint64(val[17:], uint64(rec.FileMod.UnixNano()))
	binary.BigEndian.PutUint64(val[25:], uint64(len(rec.LineStarts)))
	for i, start := range rec.LineStarts {
		binary.BigEndian.PutUint64(val[headerLen+8*i:], uint64(start))
	}
	return val
}

func decodeRecord(val []byte) (*Record, error) {
	if len(val) < headerLen {
		return nil, fmt.Errorf("invalid checkpoint value: %d bytes", len(val))
	}
	if val[0] != recordVersion {
		return nil, fmt.Errorf("unsupported checkpoint version %d", val[0])
	}

	rec := &Record{
		HighWater: int64(binary.BigEndian.Uint64(val[1:])),
		FileSize:  int64(binary.BigEndian.Uint64(val[9:])),
		FileMod:   time.Unix(0, int64(binary.BigEndian.Uint64(val[17:]))),
	}

	count := binary.BigEndian.Uint64(val[25:])
	if uint64(len(val)-headerLen) != 8*count {
		return nil, fmt.Errorf("invalid checkpoint value: %d line starts, %d trailing bytes",
			count, len(val)-headerLen)
	}

	rec.LineStarts = make([]int64, count)
	for i := range rec.LineStarts {
		rec.LineStarts[i] = int64(binary.BigEndian.Uint64(val[headerLen+8*i:]))
	}

	return rec, nil
}
