package lightclient

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewValidatorSetRejects(t *testing.T) {
	good := newTestChain(t, 1, 1).vals.Validators

	t.Run("empty", func(t *testing.T) {
		_, err := NewValidatorSet(nil)
		require.ErrorIs(t, err, ErrInvalidValidatorSet)
	})

	t.Run("too large", func(t *testing.T) {
		oversized := make([]Validator, MaxValidators+1)
		for i := range oversized {
			oversized[i] = good[0]
		}
		_, err := NewValidatorSet(oversized)
		require.ErrorIs(t, err, ErrInvalidValidatorSet)
	})

	t.Run("zero power", func(t *testing.T) {
		bad := []Validator{{PubKey: good[0].PubKey, VotingPower: 0}}
		_, err := NewValidatorSet(bad)
		require.ErrorIs(t, err, ErrInvalidValidatorSet)
	})

	t.Run("power above cap", func(t *testing.T) {
		bad := []Validator{{PubKey: good[0].PubKey, VotingPower: MaxVotingPower + 1}}
		_, err := NewValidatorSet(bad)
		require.ErrorIs(t, err, ErrInvalidValidatorSet)
	})

	t.Run("undecodable public key", func(t *testing.T) {
		bad := good[0]
		for i := range bad.PubKey {
			bad.PubKey[i] = 0xff
		}
		_, err := NewValidatorSet([]Validator{bad})
		require.ErrorIs(t, err, ErrInvalidValidatorSet)
	})

	t.Run("duplicate public key", func(t *testing.T) {
		_, err := NewValidatorSet([]Validator{good[0], good[0]})
		require.ErrorIs(t, err, ErrInvalidValidatorSet)
	})
}

func TestValidatorSetHash(t *testing.T) {
	chain := newTestChain(t, 3, 2, 1)

	// Deterministic.
	require.Equal(t, chain.vals.Hash(), chain.vals.Hash())

	// Order-sensitive: swapping two members is a different commitment.
	swapped := append([]Validator(nil), chain.vals.Validators...)
	swapped[0], swapped[1] = swapped[1], swapped[0]
	vs2, err := NewValidatorSet(swapped)
	require.NoError(t, err)
	require.NotEqual(t, chain.vals.Hash(), vs2.Hash())

	// Power-sensitive.
	repowered := append([]Validator(nil), chain.vals.Validators...)
	repowered[2].VotingPower++
	vs3, err := NewValidatorSet(repowered)
	require.NoError(t, err)
	require.NotEqual(t, chain.vals.Hash(), vs3.Hash())

	// A strict subset hashes differently even though the padded tail is
	// identical: the leading member count separates them.
	subset, err := NewValidatorSet(chain.vals.Validators[:2])
	require.NoError(t, err)
	require.NotEqual(t, chain.vals.Hash(), subset.Hash())
}

func TestTotalPower(t *testing.T) {
	chain := newTestChain(t, 3, 2, 1)
	require.Equal(t, int64(6), chain.vals.TotalPower().Int64())

	// The tally type must carry sums past uint64.
	big := newTestChain(t, MaxVotingPower, MaxVotingPower, MaxVotingPower)
	expected := big.vals.TotalPower()
	require.Equal(t, "3458764513820540925", expected.String())
}

func TestPublicKeyRange(t *testing.T) {
	chain := newTestChain(t, 1, 1)
	_, err := chain.vals.PublicKey(-1)
	require.Error(t, err)
	_, err = chain.vals.PublicKey(2)
	require.Error(t, err)
	pub, err := chain.vals.PublicKey(1)
	require.NoError(t, err)
	require.Equal(t, chain.vals.Validators[1].PubKey[:], pub.Bytes())
}
