// Package provider abstracts where signed headers and validator sets come
// from. The light client pipeline only ever talks to a Provider, so the same
// verification path runs against an in-process chain simulation and against a
// remote full node.
package provider

import (
	"context"

	sdkerrors "cosmossdk.io/errors"

	"github.com/ibc-mini/ibc-mini/lightclient"
)

const codespace = "provider"

var (
	// ErrHeightNotFound is returned when the provider has no block at the
	// requested height.
	ErrHeightNotFound = sdkerrors.Register(codespace, 2, "height not found")
	// ErrNetwork wraps transport failures when talking to a remote provider.
	ErrNetwork = sdkerrors.Register(codespace, 3, "network error")
)

// Provider serves signed headers and validator sets by height.
type Provider interface {
	// SignedHeader returns the signed header at the given height.
	SignedHeader(ctx context.Context, height uint64) (*lightclient.SignedHeader, error)

	// ValidatorSet returns the validator set that was active at the given
	// height.
	ValidatorSet(ctx context.Context, height uint64) (*lightclient.ValidatorSet, error)
}
