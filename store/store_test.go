package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ibc-mini/ibc-mini/lightclient"
)

func testState(height uint64) lightclient.TrustedState {
	ts := lightclient.TrustedState{Height: height}
	ts.BlockHash[31] = byte(height)
	ts.ValidatorsHash[31] = 0x42
	return ts
}

// runStoreSuite exercises the Store contract against any implementation.
func runStoreSuite(t *testing.T, s Store) {
	t.Helper()

	_, err := s.Latest()
	require.ErrorIs(t, err, ErrEmpty)
	require.ErrorIs(t, s.Advance(testState(2)), ErrEmpty)

	require.NoError(t, s.Seed(testState(1)))
	require.ErrorIs(t, s.Seed(testState(1)), ErrAlreadySeeded)

	latest, err := s.Latest()
	require.NoError(t, err)
	require.Equal(t, testState(1), latest)

	// Heights advance strictly, gaps allowed.
	require.NoError(t, s.Advance(testState(5)))
	require.ErrorIs(t, s.Advance(testState(5)), ErrNotMonotonic)
	require.ErrorIs(t, s.Advance(testState(3)), ErrNotMonotonic)
	require.NoError(t, s.Advance(testState(9)))

	latest, err = s.Latest()
	require.NoError(t, err)
	require.Equal(t, uint64(9), latest.Height)

	// Every recorded state stays addressable.
	for _, h := range []uint64{1, 5, 9} {
		ts, err := s.At(h)
		require.NoError(t, err)
		require.Equal(t, testState(h), ts)
	}
	_, err = s.At(4)
	require.ErrorIs(t, err, ErrNotFound)

	heights, err := s.Heights()
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 5, 9}, heights)

	// Envelopes ride alongside their heights.
	_, err = s.Envelope(5)
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, s.PutEnvelope(5, []byte{1, 2, 3}))
	env, err := s.Envelope(5)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, env)

	// The returned slice is a copy.
	env[0] = 0xff
	again, err := s.Envelope(5)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, again)
}

func TestMemStore(t *testing.T) {
	runStoreSuite(t, NewMemStore())
}

func TestBoltStore(t *testing.T) {
	s, err := OpenBolt(filepath.Join(t.TempDir(), "states.db"))
	require.NoError(t, err)
	defer s.Close()
	runStoreSuite(t, s)
}

func TestBoltStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "states.db")

	s, err := OpenBolt(path)
	require.NoError(t, err)
	require.NoError(t, s.Seed(testState(1)))
	require.NoError(t, s.Advance(testState(4)))
	require.NoError(t, s.PutEnvelope(4, []byte{0xaa}))
	require.NoError(t, s.Close())

	s, err = OpenBolt(path)
	require.NoError(t, err)
	defer s.Close()

	latest, err := s.Latest()
	require.NoError(t, err)
	require.Equal(t, testState(4), latest)
	env, err := s.Envelope(4)
	require.NoError(t, err)
	require.Equal(t, []byte{0xaa}, env)

	// Still append-only after reopening.
	require.ErrorIs(t, s.Advance(testState(2)), ErrNotMonotonic)
	require.ErrorIs(t, s.Seed(testState(10)), ErrAlreadySeeded)
}
