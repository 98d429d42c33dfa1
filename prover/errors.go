package prover

import (
	sdkerrors "cosmossdk.io/errors"
)

// ModuleName is the codespace under which proving errors are registered.
const ModuleName = "prover"

var (
	// ErrWitnessUnsatisfiable means the witness does not satisfy the
	// constraint system, so the native verifier would have rejected the
	// same transition. Never retried: the transition itself is invalid.
	ErrWitnessUnsatisfiable = sdkerrors.Register(ModuleName, 2, "witness does not satisfy the constraint system")

	// ErrProofGeneration means proving was abandoned for operational reasons
	// (deadline, cancellation, resources). May be retried with a longer
	// deadline.
	ErrProofGeneration = sdkerrors.Register(ModuleName, 3, "proof generation failed")

	// ErrVerificationFailed means a proof did not verify against the
	// verifying key and public inputs.
	ErrVerificationFailed = sdkerrors.Register(ModuleName, 4, "proof verification failed")
)
