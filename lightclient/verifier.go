package lightclient

import (
	"errors"

	sdkerrors "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
)

// Verify runs the light-client trust check for a single transition and, on
// success, returns the new trusted state
// {header.Height, header.ValidatorsHash, header.Hash()}.
//
// It ensures, in order, short-circuiting on the first failure:
//
//	a) both heights are within MaxHeight, and the header height is strictly
//	   greater than the trusted height (skipping heights is allowed),
//	b) vals is the set committed to by the trusted state, i.e. the set that
//	   is authorized to sign this transition,
//	c) validators holding strictly more than 2/3 of vals' total voting power
//	   produced valid signatures over the canonical header hash.
//
// Individual invalid signatures are discounted rather than fatal; only the
// final tally decides. Verify is pure: it has no side effects and yields the
// same verdict for the same inputs every time. The circuit encoder implements
// the identical predicate, with this function as its oracle.
func Verify(trusted TrustedState, header *SignedHeader, commit *Commit, vals *ValidatorSet) (TrustedState, error) {
	if header == nil || commit == nil {
		return TrustedState{}, errors.New("nil header or commit")
	}
	if vals == nil {
		return TrustedState{}, sdkerrors.Wrap(ErrInvalidValidatorSet, "nil validator set")
	}

	// Heights share the circuit's 63-bit range bound; accepting a larger one
	// natively would make the two implementations disagree.
	if header.Height > MaxHeight || trusted.Height > MaxHeight {
		return TrustedState{}, sdkerrors.Wrapf(ErrHeightOutOfRange,
			"heights %d and %d must not exceed %d", trusted.Height, header.Height, MaxHeight)
	}

	if header.Height <= trusted.Height {
		return TrustedState{}, sdkerrors.Wrapf(ErrStaleHeader,
			"header height %d <= trusted height %d", header.Height, trusted.Height)
	}

	// The signatures must be checked against the set the prior trusted state
	// committed to, never against the header's own claimed set. This is the
	// chain-of-trust link: each transition is authorized by the previous
	// trusted validators.
	if vals.Hash() != trusted.ValidatorsHash {
		return TrustedState{}, sdkerrors.Wrapf(ErrValidatorSetMismatch,
			"validator set hash %s does not match trusted commitment %s",
			vals.Hash(), trusted.ValidatorsHash)
	}

	headerHash := header.Hash()
	tallied := sdkmath.ZeroInt()
	seen := make(map[uint32]bool, len(commit.Signatures))
	for _, sig := range commit.Signatures {
		idx := int(sig.ValidatorIndex)
		if idx >= vals.Size() || seen[sig.ValidatorIndex] {
			// Unknown or duplicate signer: discount.
			continue
		}
		seen[sig.ValidatorIndex] = true

		pub, err := vals.PublicKey(idx)
		if err != nil {
			continue
		}
		ok, err := pub.Verify(sig.Signature[:], headerHash.Bytes(), mimc.NewMiMC())
		if err != nil || !ok {
			// Discounted, not fatal: the threshold check below decides.
			continue
		}
		tallied = tallied.Add(sdkmath.NewIntFromUint64(vals.Validators[idx].VotingPower))
	}

	// Strictly greater than 2/3: compare 3*tallied > 2*total so the check
	// never truncates.
	total := vals.TotalPower()
	if !tallied.MulRaw(3).GT(total.MulRaw(2)) {
		return TrustedState{}, sdkerrors.Wrapf(ErrInsufficientVotingPower,
			"tallied %s of total %s at height %d", tallied, total, header.Height)
	}

	return TrustedState{
		Height:         header.Height,
		ValidatorsHash: header.ValidatorsHash,
		BlockHash:      headerHash,
	}, nil
}
