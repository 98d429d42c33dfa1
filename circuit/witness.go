package circuit

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	eddsacrypto "github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"
	tedwards "github.com/consensys/gnark-crypto/ecc/twistededwards"

	"github.com/ibc-mini/ibc-mini/lightclient"
)

// dummySignerDomain seeds the deterministic key used to fill absent signature
// slots. Deriving it from the header hash keeps the whole assignment a pure
// function of the transition inputs, which the verifying-key binding relies
// on.
const dummySignerDomain = "ibc-mini/absent-slot-signer/v1"

// BuildAssignment turns one candidate transition into a full circuit
// assignment plus the public inputs it binds.
//
// Signatures that fail native verification (or reference unknown or duplicate
// validators) are discounted here exactly as the native verifier discounts
// them: their slots are marked absent. As a consequence, proving succeeds if
// and only if lightclient.Verify accepts the same inputs: an assignment for
// a rejected transition is simply unsatisfiable.
func BuildAssignment(
	trusted lightclient.TrustedState,
	header *lightclient.SignedHeader,
	commit *lightclient.Commit,
	vals *lightclient.ValidatorSet,
) (*TransitionCircuit, lightclient.PublicInputs, error) {
	if header == nil || commit == nil || vals == nil {
		return nil, lightclient.PublicInputs{}, errors.New("nil transition input")
	}
	if vals.Size() > MaxValidators {
		return nil, lightclient.PublicInputs{}, errors.New("validator set exceeds circuit shape")
	}

	headerHash := header.Hash()

	dummyPriv, err := dummySigner(headerHash)
	if err != nil {
		return nil, lightclient.PublicInputs{}, err
	}
	dummySig, err := dummyPriv.Sign(headerHash.Bytes(), mimc.NewMiMC())
	if err != nil {
		return nil, lightclient.PublicInputs{}, err
	}
	dummyPub := dummyPriv.Public().Bytes()

	pub := lightclient.PublicInputs{
		OldStateCommitment: trusted.Commitment(),
		NewStateCommitment: lightclient.TrustedState{
			Height:         header.Height,
			ValidatorsHash: header.ValidatorsHash,
			BlockHash:      headerHash,
		}.Commitment(),
		Accept: true,
	}

	a := &TransitionCircuit{
		OldStateCommitment: hashToVariable(pub.OldStateCommitment),
		NewStateCommitment: hashToVariable(pub.NewStateCommitment),
		Accept:             1,

		TrustedHeight:         trusted.Height,
		TrustedValidatorsHash: hashToVariable(trusted.ValidatorsHash),
		TrustedBlockHash:      hashToVariable(trusted.BlockHash),

		HeaderHeight:         header.Height,
		HeaderTime:           header.Time,
		HeaderPrevBlockHash:  hashToVariable(header.PrevBlockHash),
		HeaderAppHash:        hashToVariable(header.AppHash),
		HeaderValidatorsHash: hashToVariable(header.ValidatorsHash),

		ValCount: vals.Size(),
	}
	a.DummyPubKey.Assign(tedwards.BN254, dummyPub[:])
	a.DummySignature.Assign(tedwards.BN254, dummySig)

	// Valid signatures by validator index, discounted the same way the native
	// verifier discounts them.
	valid := make(map[uint32][lightclient.SignatureSize]byte, len(commit.Signatures))
	for _, sig := range commit.Signatures {
		idx := int(sig.ValidatorIndex)
		if idx >= vals.Size() {
			continue
		}
		if _, dup := valid[sig.ValidatorIndex]; dup {
			continue
		}
		pk, err := vals.PublicKey(idx)
		if err != nil {
			continue
		}
		ok, err := pk.Verify(sig.Signature[:], headerHash.Bytes(), mimc.NewMiMC())
		if err != nil || !ok {
			continue
		}
		valid[sig.ValidatorIndex] = sig.Signature
	}

	for i := 0; i < MaxValidators; i++ {
		if i < vals.Size() {
			v := vals.Validators[i]
			a.PubKeys[i].Assign(tedwards.BN254, v.PubKey[:])
			a.VotingPower[i] = v.VotingPower
		} else {
			// Padding slots mirror the zeroes of the canonical serialization.
			a.PubKeys[i].A.X = 0
			a.PubKeys[i].A.Y = 0
			a.VotingPower[i] = 0
		}

		if sig, ok := valid[uint32(i)]; ok {
			a.Signatures[i].Assign(tedwards.BN254, sig[:])
			a.Present[i] = 1
		} else {
			a.Signatures[i].Assign(tedwards.BN254, dummySig)
			a.Present[i] = 0
		}
	}

	return a, pub, nil
}

func hashToVariable(h lightclient.Hash) *big.Int {
	return new(big.Int).SetBytes(h.Bytes())
}

// dummySigner derives a throwaway EdDSA key from the header hash via a
// SHA-256 counter stream.
func dummySigner(headerHash lightclient.Hash) (*eddsacrypto.PrivateKey, error) {
	return eddsacrypto.GenerateKey(&counterReader{seed: append([]byte(dummySignerDomain), headerHash.Bytes()...)})
}

type counterReader struct {
	seed    []byte
	counter uint64
	buf     []byte
}

func (r *counterReader) Read(p []byte) (int, error) {
	for len(r.buf) < len(p) {
		var ctr [8]byte
		binary.BigEndian.PutUint64(ctr[:], r.counter)
		r.counter++
		block := sha256.Sum256(append(r.seed, ctr[:]...))
		r.buf = append(r.buf, block[:]...)
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}
