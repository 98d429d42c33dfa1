// Package prover wraps the Groth16 backend behind the three-phase interface
// the bridge needs: Setup once per circuit shape, Prove per transition,
// Verify anywhere. Key material is created once and shared read-only.
package prover

import (
	"bytes"
	"context"

	sdkerrors "cosmossdk.io/errors"
	"cosmossdk.io/log"
	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/frontend"

	"github.com/ibc-mini/ibc-mini/circuit"
	"github.com/ibc-mini/ibc-mini/lightclient"
)

// Prover generates and verifies transition proofs against one immutable key
// set. It is safe for concurrent use: proving reads the shared keys and owns
// everything else per call.
type Prover struct {
	keys   *Keys
	logger log.Logger
}

// New returns a Prover over the given keys.
func New(keys *Keys, logger log.Logger) *Prover {
	return &Prover{keys: keys, logger: logger}
}

// Keys returns the shared key handle.
func (p *Prover) Keys() *Keys { return p.keys }

// Prove generates a Groth16 proof for the assignment. It returns
// ErrWitnessUnsatisfiable when the assignment does not satisfy the circuit
// (the native verifier would have rejected the transition), and
// ErrProofGeneration when the context is cancelled or times out first.
//
// A timed-out task is abandoned, not interrupted: the backend goroutine runs
// to completion in the background and its result is discarded. The shared
// proving key is read-only throughout, so abandonment cannot corrupt it.
func (p *Prover) Prove(ctx context.Context, assignment *circuit.TransitionCircuit) ([]byte, error) {
	w, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, sdkerrors.Wrapf(ErrWitnessUnsatisfiable, "failed to build witness: %v", err)
	}

	type result struct {
		proof groth16.Proof
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		proof, err := groth16.Prove(p.keys.cs, p.keys.pk, w)
		ch <- result{proof: proof, err: err}
	}()

	select {
	case <-ctx.Done():
		p.logger.Error("proving abandoned", "err", ctx.Err())
		return nil, sdkerrors.Wrapf(ErrProofGeneration, "proving abandoned: %v", ctx.Err())
	case r := <-ch:
		if r.err != nil {
			// The backend rejects exactly when the witness does not satisfy
			// the constraints; no proof is obtainable for such a transition.
			return nil, sdkerrors.Wrapf(ErrWitnessUnsatisfiable, "%v", r.err)
		}
		var buf bytes.Buffer
		if _, err := r.proof.WriteTo(&buf); err != nil {
			return nil, sdkerrors.Wrapf(ErrProofGeneration, "failed to serialize proof: %v", err)
		}
		return buf.Bytes(), nil
	}
}

// Verify checks proofBytes against the prover's verifying key and the public
// inputs. Pure and side-effect free.
func (p *Prover) Verify(pub lightclient.PublicInputs, proofBytes []byte) error {
	return Verify(p.keys.vk, pub, proofBytes)
}

// Verify checks a serialized proof against a verifying key and public inputs.
// Malformed proofs or public-input shapes are rejected with
// ErrVerificationFailed rather than panicking.
func Verify(vk groth16.VerifyingKey, pub lightclient.PublicInputs, proofBytes []byte) error {
	proof := groth16.NewProof(ecc.BN254)
	if _, err := proof.ReadFrom(bytes.NewReader(proofBytes)); err != nil {
		return sdkerrors.Wrapf(ErrVerificationFailed, "failed to read proof: %v", err)
	}
	w, err := publicWitness(pub)
	if err != nil {
		return sdkerrors.Wrapf(ErrVerificationFailed, "failed to build public witness: %v", err)
	}
	if err := groth16.Verify(proof, vk, w); err != nil {
		return sdkerrors.Wrapf(ErrVerificationFailed, "%v", err)
	}
	return nil
}

// publicWitness lays out the public inputs in the circuit's declaration
// order: old state commitment, new state commitment, accept bit.
func publicWitness(pub lightclient.PublicInputs) (witness.Witness, error) {
	w, err := witness.New(ecc.BN254.ScalarField())
	if err != nil {
		return nil, err
	}

	accept := uint64(0)
	if pub.Accept {
		accept = 1
	}

	values := make(chan any, 3)
	values <- pub.OldStateCommitment.Bytes()
	values <- pub.NewStateCommitment.Bytes()
	values <- accept
	close(values)

	if err := w.Fill(3, 0, values); err != nil {
		return nil, err
	}
	return w, nil
}
