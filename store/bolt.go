package store

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	sdkerrors "cosmossdk.io/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/ibc-mini/ibc-mini/lightclient"
)

var (
	statesBucket    = []byte("trusted_states")
	envelopesBucket = []byte("proof_envelopes")
)

// stateRecordSize is height(8) || validators_hash(32) || block_hash(32).
const stateRecordSize = 8 + 2*lightclient.HashSize

// BoltStore persists the trusted-state chain in a bbolt file so the audit
// trail survives restarts. Records are written once and never rewritten.
type BoltStore struct {
	mu sync.Mutex
	db *bolt.DB
}

var _ Store = (*BoltStore)(nil)

// OpenBolt opens (or creates) a bbolt-backed store at path.
func OpenBolt(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open trusted state db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(statesBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(envelopesBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Seed(ts lightclient.TrustedState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(statesBucket)
		if k, _ := b.Cursor().First(); k != nil {
			return ErrAlreadySeeded
		}
		return b.Put(heightKey(ts.Height), encodeState(ts))
	})
}

func (s *BoltStore) Advance(ts lightclient.TrustedState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(statesBucket)
		k, _ := b.Cursor().Last()
		if k == nil {
			return ErrEmpty
		}
		latest := binary.BigEndian.Uint64(k)
		if ts.Height <= latest {
			return sdkerrors.Wrapf(ErrNotMonotonic, "height %d <= latest %d", ts.Height, latest)
		}
		return b.Put(heightKey(ts.Height), encodeState(ts))
	})
}

func (s *BoltStore) Latest() (lightclient.TrustedState, error) {
	var ts lightclient.TrustedState
	err := s.db.View(func(tx *bolt.Tx) error {
		k, v := tx.Bucket(statesBucket).Cursor().Last()
		if k == nil {
			return ErrEmpty
		}
		var err error
		ts, err = decodeState(v)
		return err
	})
	return ts, err
}

func (s *BoltStore) At(height uint64) (lightclient.TrustedState, error) {
	var ts lightclient.TrustedState
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(statesBucket).Get(heightKey(height))
		if v == nil {
			return sdkerrors.Wrapf(ErrNotFound, "no trusted state at height %d", height)
		}
		var err error
		ts, err = decodeState(v)
		return err
	})
	return ts, err
}

func (s *BoltStore) Heights() ([]uint64, error) {
	var heights []uint64
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(statesBucket).ForEach(func(k, _ []byte) error {
			heights = append(heights, binary.BigEndian.Uint64(k))
			return nil
		})
	})
	return heights, err
}

func (s *BoltStore) PutEnvelope(height uint64, envelope []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(envelopesBucket).Put(heightKey(height), envelope)
	})
}

func (s *BoltStore) Envelope(height uint64) ([]byte, error) {
	var env []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(envelopesBucket).Get(heightKey(height))
		if v == nil {
			return sdkerrors.Wrapf(ErrNotFound, "no envelope at height %d", height)
		}
		env = make([]byte, len(v))
		copy(env, v)
		return nil
	})
	return env, err
}

func (s *BoltStore) Close() error { return s.db.Close() }

func heightKey(h uint64) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], h)
	return k[:]
}

func encodeState(ts lightclient.TrustedState) []byte {
	buf := make([]byte, stateRecordSize)
	binary.BigEndian.PutUint64(buf[:8], ts.Height)
	copy(buf[8:8+lightclient.HashSize], ts.ValidatorsHash.Bytes())
	copy(buf[8+lightclient.HashSize:], ts.BlockHash.Bytes())
	return buf
}

func decodeState(raw []byte) (lightclient.TrustedState, error) {
	if len(raw) != stateRecordSize {
		return lightclient.TrustedState{}, fmt.Errorf("corrupt trusted state record: %d bytes", len(raw))
	}
	var ts lightclient.TrustedState
	ts.Height = binary.BigEndian.Uint64(raw[:8])
	copy(ts.ValidatorsHash[:], raw[8:8+lightclient.HashSize])
	copy(ts.BlockHash[:], raw[8+lightclient.HashSize:])
	return ts, nil
}
