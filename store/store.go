// Package store keeps the append-only chain of trusted states. Advancement
// is single-writer by construction: every implementation serializes writers,
// so concurrent proof tasks cannot reorder heights. Old states stay
// addressable for auditing.
package store

import (
	"sort"
	"sync"

	sdkerrors "cosmossdk.io/errors"

	"github.com/ibc-mini/ibc-mini/lightclient"
)

// ModuleName is the codespace under which store errors are registered.
const ModuleName = "store"

var (
	// ErrNotFound means no trusted state or envelope exists at the height.
	ErrNotFound = sdkerrors.Register(ModuleName, 2, "not found in trusted state store")

	// ErrNotMonotonic means the store rejected a state that does not advance
	// the latest height.
	ErrNotMonotonic = sdkerrors.Register(ModuleName, 3, "trusted state must advance forward in height")

	// ErrAlreadySeeded means Seed was called on a non-empty store.
	ErrAlreadySeeded = sdkerrors.Register(ModuleName, 4, "trusted state store already seeded")

	// ErrEmpty means the store has no seed yet.
	ErrEmpty = sdkerrors.Register(ModuleName, 5, "trusted state store is empty")
)

// Store is the append-only trusted-state chain plus the proof envelopes that
// advanced it.
type Store interface {
	// Seed installs the genesis (or externally supplied checkpoint) trusted
	// state. Exactly once per store.
	Seed(ts lightclient.TrustedState) error

	// Advance appends a new trusted state. It fails with ErrNotMonotonic
	// unless ts.Height is strictly greater than the latest height.
	Advance(ts lightclient.TrustedState) error

	// Latest returns the most recent trusted state.
	Latest() (lightclient.TrustedState, error)

	// At returns the trusted state recorded at height.
	At(height uint64) (lightclient.TrustedState, error)

	// Heights lists all recorded heights in ascending order.
	Heights() ([]uint64, error)

	// PutEnvelope records the serialized proof envelope that advanced the
	// store to height.
	PutEnvelope(height uint64, envelope []byte) error

	// Envelope returns the proof envelope recorded for height.
	Envelope(height uint64) ([]byte, error)

	// Close releases any underlying resources.
	Close() error
}

// MemStore is an in-memory Store, used by tests and the demo pipeline.
type MemStore struct {
	mu        sync.RWMutex
	states    map[uint64]lightclient.TrustedState
	envelopes map[uint64][]byte
	latest    uint64
	seeded    bool
}

var _ Store = (*MemStore)(nil)

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		states:    make(map[uint64]lightclient.TrustedState),
		envelopes: make(map[uint64][]byte),
	}
}

func (s *MemStore) Seed(ts lightclient.TrustedState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seeded {
		return ErrAlreadySeeded
	}
	s.states[ts.Height] = ts
	s.latest = ts.Height
	s.seeded = true
	return nil
}

func (s *MemStore) Advance(ts lightclient.TrustedState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.seeded {
		return ErrEmpty
	}
	if ts.Height <= s.latest {
		return sdkerrors.Wrapf(ErrNotMonotonic, "height %d <= latest %d", ts.Height, s.latest)
	}
	s.states[ts.Height] = ts
	s.latest = ts.Height
	return nil
}

func (s *MemStore) Latest() (lightclient.TrustedState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.seeded {
		return lightclient.TrustedState{}, ErrEmpty
	}
	return s.states[s.latest], nil
}

func (s *MemStore) At(height uint64) (lightclient.TrustedState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ts, ok := s.states[height]
	if !ok {
		return lightclient.TrustedState{}, sdkerrors.Wrapf(ErrNotFound, "no trusted state at height %d", height)
	}
	return ts, nil
}

func (s *MemStore) Heights() ([]uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	heights := make([]uint64, 0, len(s.states))
	for h := range s.states {
		heights = append(heights, h)
	}
	sort.Slice(heights, func(i, j int) bool { return heights[i] < heights[j] })
	return heights, nil
}

func (s *MemStore) PutEnvelope(height uint64, envelope []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(envelope))
	copy(cp, envelope)
	s.envelopes[height] = cp
	return nil
}

func (s *MemStore) Envelope(height uint64) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	env, ok := s.envelopes[height]
	if !ok {
		return nil, sdkerrors.Wrapf(ErrNotFound, "no envelope at height %d", height)
	}
	cp := make([]byte, len(env))
	copy(cp, env)
	return cp, nil
}

func (s *MemStore) Close() error { return nil }
