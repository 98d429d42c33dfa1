// Package circuit re-expresses the light-client trust check of package
// lightclient as a gnark constraint system over BN254. The two
// implementations must agree on every input: the native verifier is the
// oracle, and the differential tests in this package hold the circuit to it.
package circuit

import (
	tedwards "github.com/consensys/gnark-crypto/ecc/twistededwards"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/algebra/native/twistededwards"
	"github.com/consensys/gnark/std/hash/mimc"
	"github.com/consensys/gnark/std/signature/eddsa"

	"github.com/ibc-mini/ibc-mini/lightclient"
)

// MaxValidators fixes the circuit shape. It must equal the padding bound of
// the canonical validator-set serialization or the in-circuit set commitment
// cannot match the native one.
const MaxValidators = lightclient.MaxValidators

// votingPowerBits bounds each voting power so the 3*tally and 2*total
// comparands stay far below the scalar field modulus.
const votingPowerBits = 60

// TransitionCircuit proves one TrustedState -> TrustedState transition. A
// satisfying assignment exists exactly when lightclient.Verify accepts the
// same transition.
//
// Only the two state commitments and the accept bit are public; the full
// validator set, header fields and every signature stay private witness.
type TransitionCircuit struct {
	// Public inputs, in the order the bridge envelope carries them.
	OldStateCommitment frontend.Variable `gnark:",public"`
	NewStateCommitment frontend.Variable `gnark:",public"`
	Accept             frontend.Variable `gnark:",public"`

	// Prior trusted state, bound to OldStateCommitment.
	TrustedHeight         frontend.Variable
	TrustedValidatorsHash frontend.Variable
	TrustedBlockHash      frontend.Variable

	// Candidate header fields, in canonical hash order.
	HeaderHeight         frontend.Variable
	HeaderTime           frontend.Variable
	HeaderPrevBlockHash  frontend.Variable
	HeaderAppHash        frontend.Variable
	HeaderValidatorsHash frontend.Variable

	// Validator set governing the transition, padded with zero slots to
	// MaxValidators. Garbage in padding cannot help a prover: every slot is
	// bound by the trusted set commitment.
	ValCount    frontend.Variable
	PubKeys     [MaxValidators]eddsa.PublicKey
	VotingPower [MaxValidators]frontend.Variable

	// Commit: slot i carries validator i's signature when Present[i] == 1.
	// Absent slots are swapped for the dummy triple below so that every slot
	// runs the identical EdDSA gadget; only Present slots count toward the
	// tally, so the dummy key can never contribute voting power.
	Signatures [MaxValidators]eddsa.Signature
	Present    [MaxValidators]frontend.Variable

	// Prover-chosen dummy key with a valid signature over the header hash.
	DummyPubKey    eddsa.PublicKey
	DummySignature eddsa.Signature
}

// Define encodes the trust-check predicate. The MiMC write orders below are
// a transliteration of the native hashing in package lightclient and must
// never drift from it.
func (c *TransitionCircuit) Define(api frontend.API) error {
	curve, err := twistededwards.NewEdCurve(api, tedwards.BN254)
	if err != nil {
		return err
	}
	h, err := mimc.NewMiMC(api)
	if err != nil {
		return err
	}

	// 1. The private trusted-state fields are exactly the preimage of the
	// public old-state commitment.
	h.Write(c.TrustedHeight, c.TrustedValidatorsHash, c.TrustedBlockHash)
	api.AssertIsEqual(h.Sum(), c.OldStateCommitment)

	// 2. Height advances strictly. Heights are range checked so the
	// comparison cannot be satisfied by field wraparound.
	api.ToBinary(c.TrustedHeight, 63)
	api.ToBinary(c.HeaderHeight, 63)
	api.AssertIsLessOrEqual(api.Add(c.TrustedHeight, 1), c.HeaderHeight)

	// 3. The witness validator set is the one the trusted state committed to.
	h.Reset()
	h.Write(c.ValCount)
	for i := 0; i < MaxValidators; i++ {
		h.Write(c.PubKeys[i].A.X, c.PubKeys[i].A.Y, c.VotingPower[i])
	}
	api.AssertIsEqual(h.Sum(), c.TrustedValidatorsHash)

	// 4. Canonical header hash, the message every signature signs.
	h.Reset()
	h.Write(c.HeaderHeight, c.HeaderTime, c.HeaderPrevBlockHash, c.HeaderAppHash, c.HeaderValidatorsHash)
	headerHash := h.Sum()

	// 5. Signature checks and the voting-power tally.
	tally := frontend.Variable(0)
	total := frontend.Variable(0)
	for i := 0; i < MaxValidators; i++ {
		api.AssertIsBoolean(c.Present[i])
		api.ToBinary(c.VotingPower[i], votingPowerBits)

		pub := eddsa.PublicKey{A: selectPoint(api, c.Present[i], c.PubKeys[i].A, c.DummyPubKey.A)}
		sig := eddsa.Signature{
			R: selectPoint(api, c.Present[i], c.Signatures[i].R, c.DummySignature.R),
			S: api.Select(c.Present[i], c.Signatures[i].S, c.DummySignature.S),
		}
		sigHasher, err := mimc.NewMiMC(api)
		if err != nil {
			return err
		}
		if err := eddsa.Verify(curve, sig, headerHash, pub, &sigHasher); err != nil {
			return err
		}

		tally = api.Add(tally, api.Mul(c.Present[i], c.VotingPower[i]))
		total = api.Add(total, c.VotingPower[i])
	}

	// 6. Strictly greater than 2/3: 2*total + 1 <= 3*tally, the integer form
	// of the native check 3*tally > 2*total.
	api.AssertIsLessOrEqual(api.Add(api.Mul(total, 2), 1), api.Mul(tally, 3))

	// 7. The public new-state commitment is the one the native verifier would
	// produce: MiMC(header height, header validators hash, header hash).
	h.Reset()
	h.Write(c.HeaderHeight, c.HeaderValidatorsHash, headerHash)
	api.AssertIsEqual(h.Sum(), c.NewStateCommitment)

	api.AssertIsEqual(c.Accept, 1)
	return nil
}

func selectPoint(api frontend.API, b frontend.Variable, p1, p0 twistededwards.Point) twistededwards.Point {
	return twistededwards.Point{
		X: api.Select(b, p1.X, p0.X),
		Y: api.Select(b, p1.Y, p0.Y),
	}
}
