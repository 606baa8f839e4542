package store

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"
)

var (
	bucketReservations          = []byte("reservations")
	bucketReservationsByAddress = []byte("reservations_by_address")
)

// BoltStore persists reservations in a bbolt database so that they survive
// a process restart between signing and broadcast.
type BoltStore struct {
	db *bbolt.DB
}

var _ ReservationStore = (*BoltStore)(nil)

// OpenBoltStore opens or creates the bbolt database at dbPath.
// The parent directory is created if it does not exist.
func OpenBoltStore(dbPath string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("store: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("store: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketReservations, bucketReservationsByAddress} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: create buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error { return s.db.Close() }

// addressKey builds the index key address + 0x00 + outpoint.
func addressKey(address, outpoint string) []byte {
	k := make([]byte, 0, len(address)+1+len(outpoint))
	k = append(k, address...)
	k = append(k, 0)
	return append(k, outpoint...)
}

func addressPrefix(address string) []byte {
	return append([]byte(address), 0)
}

// encodeGob serializes a value using gob encoding.
func encodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeGob deserializes gob-encoded data into a value.
func decodeGob(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

// Reserve stores one reservation per outpoint inside a single transaction.
func (s *BoltStore) Reserve(address string, outpoints []string, txRef string) error {
	if address == "" || txRef == "" || len(outpoints) == 0 {
		return fmt.Errorf("%w: address, outpoints and txRef are required", ErrNilParam)
	}
	now := nowUnix()
	err := s.db.Update(func(tx *bbolt.Tx) error {
		rb := tx.Bucket(bucketReservations)
		ib := tx.Bucket(bucketReservationsByAddress)
		for _, op := range outpoints {
			if data := rb.Get([]byte(op)); data != nil {
				var held Reservation
				if err := decodeGob(data, &held); err != nil {
					return fmt.Errorf("store: decode reservation: %w", err)
				}
				return fmt.Errorf("%w: %s (held by %s)", ErrAlreadyReserved, op, held.TxRef)
			}
			data, err := encodeGob(&Reservation{Outpoint: op, Address: address, TxRef: txRef, CreatedAt: now})
			if err != nil {
				return fmt.Errorf("store: encode reservation: %w", err)
			}
			if err := rb.Put([]byte(op), data); err != nil {
				return fmt.Errorf("store: put reservation: %w", err)
			}
			if err := ib.Put(addressKey(address, op), []byte{}); err != nil {
				return fmt.Errorf("store: put address index: %w", err)
			}
		}
		return nil
	})
	if err == nil {
		log.Debugf("reserved %d outpoints of %s for %s", len(outpoints), address, txRef)
	}
	return err
}

// deleteReservation removes op and its index entry. Missing entries are ignored.
func deleteReservation(tx *bbolt.Tx, op []byte) error {
	rb := tx.Bucket(bucketReservations)
	data := rb.Get(op)
	if data == nil {
		return nil
	}
	var r Reservation
	if err := decodeGob(data, &r); err != nil {
		return fmt.Errorf("store: decode reservation: %w", err)
	}
	if err := rb.Delete(op); err != nil {
		return fmt.Errorf("store: delete reservation: %w", err)
	}
	if err := tx.Bucket(bucketReservationsByAddress).Delete(addressKey(r.Address, r.Outpoint)); err != nil {
		return fmt.Errorf("store: delete address index: %w", err)
	}
	return nil
}

// Release drops the given reservations.
func (s *BoltStore) Release(outpoints []string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, op := range outpoints {
			if err := deleteReservation(tx, []byte(op)); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReleaseByRef drops every reservation held by txRef. It scans the whole
// reservations bucket; the set of in-flight outpoints is small.
func (s *BoltStore) ReleaseByRef(txRef string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		var toDelete [][]byte
		err := tx.Bucket(bucketReservations).ForEach(func(k, v []byte) error {
			var r Reservation
			if err := decodeGob(v, &r); err != nil {
				return fmt.Errorf("store: decode reservation: %w", err)
			}
			if r.TxRef == txRef {
				keyCopy := make([]byte, len(k))
				copy(keyCopy, k)
				toDelete = append(toDelete, keyCopy)
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range toDelete {
			if err := deleteReservation(tx, k); err != nil {
				return err
			}
		}
		return nil
	})
}

// Reserved returns the outpoints held for address via a prefix scan of the
// address index.
func (s *BoltStore) Reserved(address string) (map[string]bool, error) {
	out := make(map[string]bool)
	prefix := addressPrefix(address)
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketReservationsByAddress).Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			out[string(k[len(prefix):])] = true
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: list reserved: %w", err)
	}
	return out, nil
}

// Reconcile drops reservations of address whose outpoint is not in live.
func (s *BoltStore) Reconcile(address string, live map[string]bool) (int, error) {
	prefix := addressPrefix(address)
	n := 0
	err := s.db.Update(func(tx *bbolt.Tx) error {
		var stale [][]byte
		c := tx.Bucket(bucketReservationsByAddress).Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			op := string(k[len(prefix):])
			if !live[op] {
				stale = append(stale, []byte(op))
			}
		}
		for _, op := range stale {
			if err := deleteReservation(tx, op); err != nil {
				return err
			}
		}
		n = len(stale)
		return nil
	})
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Debugf("reconciled %s: dropped %d spent reservations", address, n)
	}
	return n, nil
}
