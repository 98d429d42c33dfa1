package provider

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"sync"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"

	"github.com/ibc-mini/ibc-mini/lightclient"
)

const genesisTime = 1_700_000_000

// Local is an in-process chain simulation backing the demo and the tests. It
// holds the validator private keys and produces signed headers on demand, so
// callers control exactly which validators sign each block.
type Local struct {
	mu      sync.RWMutex
	vals    *lightclient.ValidatorSet
	privs   []*eddsa.PrivateKey
	headers map[uint64]*lightclient.SignedHeader
	latest  uint64
}

// NewLocal creates a local chain with n validators of equal voting power and
// a genesis block at height 1. Keys are drawn from rnd, so a deterministic
// reader yields a reproducible chain; nil falls back to crypto/rand.
func NewLocal(n int, power uint64, rnd io.Reader) (*Local, error) {
	if rnd == nil {
		rnd = rand.Reader
	}
	privs := make([]*eddsa.PrivateKey, n)
	validators := make([]lightclient.Validator, n)
	for i := 0; i < n; i++ {
		priv, err := eddsa.GenerateKey(rnd)
		if err != nil {
			return nil, err
		}
		privs[i] = priv
		var pub [lightclient.PubKeySize]byte
		copy(pub[:], priv.PublicKey.Bytes())
		validators[i] = lightclient.Validator{PubKey: pub, VotingPower: power}
	}
	vals, err := lightclient.NewValidatorSet(validators)
	if err != nil {
		return nil, err
	}

	genesis := &lightclient.SignedHeader{
		Height:         1,
		Time:           genesisTime,
		AppHash:        appHashAt(1),
		ValidatorsHash: vals.Hash(),
	}
	l := &Local{
		vals:    vals,
		privs:   privs,
		headers: map[uint64]*lightclient.SignedHeader{1: genesis},
		latest:  1,
	}
	return l, nil
}

// Genesis returns the trusted state a light client is seeded with.
func (l *Local) Genesis() lightclient.TrustedState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	genesis := l.headers[1]
	return lightclient.TrustedState{
		Height:         genesis.Height,
		ValidatorsHash: genesis.ValidatorsHash,
		BlockHash:      genesis.Hash(),
	}
}

// AppendBlock produces the block at latest+1 signed by the given validator
// indices and returns its height.
func (l *Local) AppendBlock(signers ...int) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.appendAt(l.latest+1, signers)
}

// AppendBlockAt produces a block at an arbitrary height above the current
// tip, leaving a gap the light client is expected to skip over.
func (l *Local) AppendBlockAt(height uint64, signers ...int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if height <= l.latest {
		return lightclient.ErrStaleHeader.Wrapf("local chain is at height %d", l.latest)
	}
	_, err := l.appendAt(height, signers)
	return err
}

func (l *Local) appendAt(height uint64, signers []int) (uint64, error) {
	prev := l.headers[l.latest]
	header := &lightclient.SignedHeader{
		Height:         height,
		Time:           prev.Time + 5*(height-prev.Height),
		PrevBlockHash:  prev.Hash(),
		AppHash:        appHashAt(height),
		ValidatorsHash: l.vals.Hash(),
	}
	msg := header.Hash()
	for _, idx := range signers {
		if idx < 0 || idx >= len(l.privs) {
			return 0, fmt.Errorf("no validator at index %d", idx)
		}
		raw, err := l.privs[idx].Sign(msg.Bytes(), mimc.NewMiMC())
		if err != nil {
			return 0, err
		}
		var sig [lightclient.SignatureSize]byte
		copy(sig[:], raw)
		header.Commit.Signatures = append(header.Commit.Signatures, lightclient.CommitSig{
			ValidatorIndex: uint32(idx),
			Signature:      sig,
		})
	}
	l.headers[height] = header
	l.latest = height
	return height, nil
}

// SignedHeader implements Provider.
func (l *Local) SignedHeader(_ context.Context, height uint64) (*lightclient.SignedHeader, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	header, ok := l.headers[height]
	if !ok {
		return nil, ErrHeightNotFound.Wrapf("height %d", height)
	}
	cp := *header
	cp.Commit.Signatures = append([]lightclient.CommitSig(nil), header.Commit.Signatures...)
	return &cp, nil
}

// ValidatorSet implements Provider.
func (l *Local) ValidatorSet(_ context.Context, height uint64) (*lightclient.ValidatorSet, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if _, ok := l.headers[height]; !ok {
		return nil, ErrHeightNotFound.Wrapf("height %d", height)
	}
	return l.vals, nil
}

// Latest returns the height of the newest block.
func (l *Local) Latest() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.latest
}

// appHashAt derives a deterministic application state root for a height. The
// value is a canonical field element so it round-trips through the circuit.
func appHashAt(height uint64) lightclient.Hash {
	var e fr.Element
	e.SetUint64(height)
	e.Mul(&e, &e).Add(&e, &e)
	b := e.Bytes()
	h, _ := lightclient.HashFromBytes(b[:])
	return h
}
