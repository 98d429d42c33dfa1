package prover

import (
	"context"
	"crypto/rand"
	"sync"
	"testing"
	"time"

	"cosmossdk.io/log"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	eddsacrypto "github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"
	"github.com/stretchr/testify/require"

	"github.com/ibc-mini/ibc-mini/circuit"
	"github.com/ibc-mini/ibc-mini/lightclient"
)

// The trusted setup dominates test time, so every test shares one key set.
var (
	setupOnce sync.Once
	setupKeys *Keys
	setupErr  error
)

func testKeys(t *testing.T) *Keys {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping groth16 setup in short mode")
	}
	setupOnce.Do(func() {
		setupKeys, setupErr = Setup()
	})
	require.NoError(t, setupErr)
	return setupKeys
}

// buildTransition signs a height-2 header with the given subset of four
// equal-power validators and returns the assignment plus its public inputs.
func buildTransition(t *testing.T, signers ...int) (*circuit.TransitionCircuit, lightclient.PublicInputs) {
	t.Helper()
	privs := make([]*eddsacrypto.PrivateKey, 4)
	validators := make([]lightclient.Validator, 4)
	for i := range validators {
		priv, err := eddsacrypto.GenerateKey(rand.Reader)
		require.NoError(t, err)
		privs[i] = priv
		copy(validators[i].PubKey[:], priv.PublicKey.Bytes())
		validators[i].VotingPower = 10
	}
	vals, err := lightclient.NewValidatorSet(validators)
	require.NoError(t, err)

	trusted := lightclient.TrustedState{Height: 1, ValidatorsHash: vals.Hash()}
	header := &lightclient.SignedHeader{
		Height:         2,
		Time:           1_700_000_010,
		ValidatorsHash: vals.Hash(),
	}
	header.AppHash[31] = 2
	msg := header.Hash()
	for _, idx := range signers {
		raw, err := privs[idx].Sign(msg.Bytes(), mimc.NewMiMC())
		require.NoError(t, err)
		sig := lightclient.CommitSig{ValidatorIndex: uint32(idx)}
		copy(sig.Signature[:], raw)
		header.Commit.Signatures = append(header.Commit.Signatures, sig)
	}

	assignment, pub, err := circuit.BuildAssignment(trusted, header, &header.Commit, vals)
	require.NoError(t, err)
	return assignment, pub
}

func TestProveVerifyRoundTrip(t *testing.T) {
	keys := testKeys(t)
	p := New(keys, log.NewNopLogger())
	assignment, pub := buildTransition(t, 0, 1, 2)

	proof, err := p.Prove(context.Background(), assignment)
	require.NoError(t, err)
	require.NoError(t, p.Verify(pub, proof))

	// Any tampering with the bound public inputs must fail verification.
	tampered := pub
	tampered.Accept = false
	require.ErrorIs(t, p.Verify(tampered, proof), ErrVerificationFailed)

	tampered = pub
	tampered.OldStateCommitment, tampered.NewStateCommitment = pub.NewStateCommitment, pub.OldStateCommitment
	require.ErrorIs(t, p.Verify(tampered, proof), ErrVerificationFailed)

	// So must tampering with the proof itself.
	mangled := append([]byte(nil), proof...)
	mangled[0] ^= 0x01
	require.ErrorIs(t, p.Verify(pub, mangled), ErrVerificationFailed)
	require.ErrorIs(t, p.Verify(pub, proof[:16]), ErrVerificationFailed)
}

func TestProveRejectsUnsatisfiableTransition(t *testing.T) {
	keys := testKeys(t)
	p := New(keys, log.NewNopLogger())

	// Two of four is exactly half the power: no proof exists.
	assignment, _ := buildTransition(t, 0, 1)
	_, err := p.Prove(context.Background(), assignment)
	require.ErrorIs(t, err, ErrWitnessUnsatisfiable)
}

func TestProveAbandonsOnCancel(t *testing.T) {
	keys := testKeys(t)
	p := New(keys, log.NewNopLogger())
	assignment, _ := buildTransition(t, 0, 1, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Prove(ctx, assignment)
	require.ErrorIs(t, err, ErrProofGeneration)
}

func TestKeysSaveLoad(t *testing.T) {
	keys := testKeys(t)
	dir := t.TempDir()
	require.NoError(t, keys.Save(dir))

	loaded, err := LoadKeys(dir)
	require.NoError(t, err)
	require.Equal(t, keys.NbConstraints(), loaded.NbConstraints())

	// A proof from the original keys verifies under the reloaded ones.
	p := New(keys, log.NewNopLogger())
	assignment, pub := buildTransition(t, 0, 1, 2)
	proof, err := p.Prove(context.Background(), assignment)
	require.NoError(t, err)
	require.NoError(t, New(loaded, log.NewNopLogger()).Verify(pub, proof))
}

func TestLoadKeysMissingDir(t *testing.T) {
	_, err := LoadKeys(t.TempDir())
	require.Error(t, err)
}

func TestVerifyingKeySerialization(t *testing.T) {
	keys := testKeys(t)
	raw, err := SerializeVerifyingKey(keys.VerifyingKey())
	require.NoError(t, err)
	vk, err := DeserializeVerifyingKey(raw)
	require.NoError(t, err)

	p := New(keys, log.NewNopLogger())
	assignment, pub := buildTransition(t, 0, 1, 2, 3)
	proof, err := p.Prove(context.Background(), assignment)
	require.NoError(t, err)
	require.NoError(t, Verify(vk, pub, proof))

	_, err = DeserializeVerifyingKey(raw[:8])
	require.Error(t, err)
}

func TestPoolProveAll(t *testing.T) {
	keys := testKeys(t)
	pool := NewPool(New(keys, log.NewNopLogger()), 2, 0, log.NewNopLogger())

	a1, pub1 := buildTransition(t, 0, 1, 2)
	a2, pub2 := buildTransition(t, 1, 2, 3)
	proofs, err := pool.ProveAll(context.Background(), []Task{
		{Height: 2, Assignment: a1},
		{Height: 3, Assignment: a2},
	})
	require.NoError(t, err)
	require.Len(t, proofs, 2)
	require.NoError(t, Verify(keys.VerifyingKey(), pub1, proofs[2]))
	require.NoError(t, Verify(keys.VerifyingKey(), pub2, proofs[3]))
}

func TestPoolTimeout(t *testing.T) {
	keys := testKeys(t)
	pool := NewPool(New(keys, log.NewNopLogger()), 1, time.Nanosecond, log.NewNopLogger())

	assignment, _ := buildTransition(t, 0, 1, 2)
	_, err := pool.Prove(context.Background(), 2, assignment)
	require.ErrorIs(t, err, ErrProofGeneration)
}

func TestPoolFailureCancelsBatch(t *testing.T) {
	keys := testKeys(t)
	pool := NewPool(New(keys, log.NewNopLogger()), 2, 0, log.NewNopLogger())

	good, _ := buildTransition(t, 0, 1, 2)
	bad, _ := buildTransition(t, 0) // far below threshold
	_, err := pool.ProveAll(context.Background(), []Task{
		{Height: 2, Assignment: good},
		{Height: 3, Assignment: bad},
	})
	require.Error(t, err)
}
