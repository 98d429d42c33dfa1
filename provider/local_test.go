package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ibc-mini/ibc-mini/lightclient"
)

func TestLocalChain(t *testing.T) {
	chain, err := NewLocal(4, 10, nil)
	require.NoError(t, err)
	ctx := context.Background()

	genesis := chain.Genesis()
	require.Equal(t, uint64(1), genesis.Height)
	require.Equal(t, uint64(1), chain.Latest())

	_, err = chain.SignedHeader(ctx, 2)
	require.ErrorIs(t, err, ErrHeightNotFound)
	_, err = chain.ValidatorSet(ctx, 2)
	require.ErrorIs(t, err, ErrHeightNotFound)

	height, err := chain.AppendBlock(0, 1, 2)
	require.NoError(t, err)
	require.Equal(t, uint64(2), height)

	header, err := chain.SignedHeader(ctx, height)
	require.NoError(t, err)
	require.Len(t, header.Commit.Signatures, 3)

	// Locally produced blocks pass the real verifier.
	vals, err := chain.ValidatorSet(ctx, genesis.Height)
	require.NoError(t, err)
	next, err := lightclient.Verify(genesis, header, &header.Commit, vals)
	require.NoError(t, err)
	require.Equal(t, height, next.Height)

	// Headers chain by hash.
	genesisHeader, err := chain.SignedHeader(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, genesisHeader.Hash(), header.PrevBlockHash)
	require.Equal(t, genesis.BlockHash, header.PrevBlockHash)
}

func TestLocalAppendBlockAt(t *testing.T) {
	chain, err := NewLocal(3, 1, nil)
	require.NoError(t, err)

	require.NoError(t, chain.AppendBlockAt(100, 0, 1, 2))
	require.Equal(t, uint64(100), chain.Latest())
	require.ErrorIs(t, chain.AppendBlockAt(50, 0), lightclient.ErrStaleHeader)

	header, err := chain.SignedHeader(context.Background(), 100)
	require.NoError(t, err)
	next, err := lightclient.Verify(chain.Genesis(), header, &header.Commit, mustVals(t, chain))
	require.NoError(t, err)
	require.Equal(t, uint64(100), next.Height)
}

func TestLocalReturnsCopies(t *testing.T) {
	chain, err := NewLocal(3, 1, nil)
	require.NoError(t, err)
	height, err := chain.AppendBlock(0, 1, 2)
	require.NoError(t, err)

	ctx := context.Background()
	header, err := chain.SignedHeader(ctx, height)
	require.NoError(t, err)
	header.AppHash[0] ^= 0xff
	header.Commit.Signatures[0].Signature[0] ^= 0xff

	fresh, err := chain.SignedHeader(ctx, height)
	require.NoError(t, err)
	require.NotEqual(t, header.AppHash, fresh.AppHash)
	require.NotEqual(t, header.Commit.Signatures[0], fresh.Commit.Signatures[0])
}

func TestLocalBadSignerIndex(t *testing.T) {
	chain, err := NewLocal(2, 1, nil)
	require.NoError(t, err)
	_, err = chain.AppendBlock(0, 5)
	require.Error(t, err)
}

func mustVals(t *testing.T, chain *Local) *lightclient.ValidatorSet {
	t.Helper()
	vals, err := chain.ValidatorSet(context.Background(), 1)
	require.NoError(t, err)
	return vals
}
