package lightclient

import (
	"bytes"
	"fmt"

	sdkerrors "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	"github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"
)

const (
	// MaxValidators is the fixed circuit shape bound. The canonical validator
	// set serialization pads to this many slots, so the native commitment and
	// the in-circuit recomputation agree byte for byte.
	MaxValidators = 32

	// PubKeySize is the compressed EdDSA public key length.
	PubKeySize = 32

	// SignatureSize is the EdDSA signature length (compressed R || S).
	SignatureSize = 64

	// MaxVotingPower bounds a single validator's power. The circuit range
	// checks each power to 60 bits, so sums over MaxValidators slots cannot
	// wrap the scalar field.
	MaxVotingPower = uint64(1)<<60 - 1

	// MaxHeight bounds block heights. The circuit range checks heights to
	// 63 bits, so the native verifier enforces the identical bound: both
	// implementations must reject the same inputs.
	MaxHeight = uint64(1)<<63 - 1
)

// Validator is one weighted member of a validator set. Immutable once part of
// a committed set.
type Validator struct {
	PubKey      [PubKeySize]byte `json:"pub_key"`
	VotingPower uint64           `json:"voting_power"`
}

// ValidatorSet is an ordered set of validators, unique by public key and
// frozen for the height it governs.
type ValidatorSet struct {
	Validators []Validator `json:"validators"`

	// points caches the decompressed public keys, index-aligned with
	// Validators.
	points []eddsa.PublicKey
}

// NewValidatorSet validates and builds a validator set. It rejects empty sets,
// sets larger than MaxValidators, duplicate public keys, undecodable key
// bytes, and out-of-range voting powers.
func NewValidatorSet(validators []Validator) (*ValidatorSet, error) {
	if len(validators) == 0 {
		return nil, sdkerrors.Wrap(ErrInvalidValidatorSet, "empty validator set")
	}
	if len(validators) > MaxValidators {
		return nil, sdkerrors.Wrapf(ErrInvalidValidatorSet, "%d validators exceeds maximum %d", len(validators), MaxValidators)
	}

	points := make([]eddsa.PublicKey, len(validators))
	for i, v := range validators {
		if v.VotingPower == 0 || v.VotingPower > MaxVotingPower {
			return nil, sdkerrors.Wrapf(ErrInvalidValidatorSet, "validator %d voting power %d out of range", i, v.VotingPower)
		}
		if _, err := points[i].SetBytes(v.PubKey[:]); err != nil {
			return nil, sdkerrors.Wrapf(ErrInvalidValidatorSet, "validator %d public key: %v", i, err)
		}
		for j := 0; j < i; j++ {
			if bytes.Equal(validators[j].PubKey[:], v.PubKey[:]) {
				return nil, sdkerrors.Wrapf(ErrInvalidValidatorSet, "duplicate public key at indices %d and %d", j, i)
			}
		}
	}

	return &ValidatorSet{Validators: validators, points: points}, nil
}

// Size returns the number of validators in the set.
func (vs *ValidatorSet) Size() int { return len(vs.Validators) }

// TotalPower returns the sum of all voting powers. The sum is carried as a
// sdkmath.Int so it cannot silently wrap.
func (vs *ValidatorSet) TotalPower() sdkmath.Int {
	total := sdkmath.ZeroInt()
	for _, v := range vs.Validators {
		total = total.Add(sdkmath.NewIntFromUint64(v.VotingPower))
	}
	return total
}

// PublicKey returns the decompressed public key of the validator at index i.
func (vs *ValidatorSet) PublicKey(i int) (*eddsa.PublicKey, error) {
	if i < 0 || i >= len(vs.points) {
		return nil, fmt.Errorf("validator index %d out of range [0,%d)", i, len(vs.points))
	}
	return &vs.points[i], nil
}

// Hash returns the deterministic, order-sensitive commitment to the set:
// MiMC(count, A_0.X, A_0.Y, power_0, ..., A_31.X, A_31.Y, power_31), with
// empty slots written as zeroes. The padded fixed-width serialization is what
// lets the circuit recompute the identical digest with a fixed shape.
func (vs *ValidatorSet) Hash() Hash {
	h := newHasher()
	h.writeUint64(uint64(len(vs.Validators)))
	for i := 0; i < MaxValidators; i++ {
		if i < len(vs.points) {
			h.writeElement(&vs.points[i].A.X)
			h.writeElement(&vs.points[i].A.Y)
			h.writeUint64(vs.Validators[i].VotingPower)
		} else {
			h.writeUint64(0)
			h.writeUint64(0)
			h.writeUint64(0)
		}
	}
	return h.sum()
}
