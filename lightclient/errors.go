package lightclient

import (
	sdkerrors "cosmossdk.io/errors"
)

// ModuleName is the codespace under which light client errors are registered.
const ModuleName = "lightclient"

var (
	// ErrStaleHeader means the candidate header does not advance the trusted
	// height.
	ErrStaleHeader = sdkerrors.Register(ModuleName, 2, "header height is not newer than trusted height")

	// ErrValidatorSetMismatch means the supplied validator set does not hash to
	// the commitment held in the trusted state, breaking the chain of trust.
	ErrValidatorSetMismatch = sdkerrors.Register(ModuleName, 3, "validator set does not match trusted commitment")

	// ErrInsufficientVotingPower means the validators with valid signatures do
	// not hold strictly more than 2/3 of the total voting power.
	ErrInsufficientVotingPower = sdkerrors.Register(ModuleName, 4, "insufficient voting power signed the header")

	// ErrInvalidSignature reports a single commit signature that failed to
	// verify. It is never fatal on its own: the verifier discounts the
	// signature and keeps tallying.
	ErrInvalidSignature = sdkerrors.Register(ModuleName, 5, "invalid commit signature")

	// ErrInvalidValidatorSet means the validator set itself is malformed
	// (duplicate keys, undecodable key bytes, or too many validators for the
	// committed circuit shape).
	ErrInvalidValidatorSet = sdkerrors.Register(ModuleName, 6, "invalid validator set")

	// ErrHeightOutOfRange means a height exceeds MaxHeight, the bound both
	// the native verifier and the circuit enforce.
	ErrHeightOutOfRange = sdkerrors.Register(ModuleName, 7, "height exceeds maximum")
)
