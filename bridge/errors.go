package bridge

import sdkerrors "cosmossdk.io/errors"

const codespace = "bridge"

var (
	// ErrMalformedEnvelope is returned when a proof envelope fails strict
	// decoding.
	ErrMalformedEnvelope = sdkerrors.Register(codespace, 2, "malformed proof envelope")
	// ErrSubmissionRejected is returned when the destination verifier
	// contract rejects a submitted proof.
	ErrSubmissionRejected = sdkerrors.Register(codespace, 3, "proof submission rejected")
)
