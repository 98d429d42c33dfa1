package lightclient

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// HashSize is the byte length of all hashes and commitments in the light
// client. Every Hash is the canonical big-endian encoding of a BN254 scalar
// field element, so the same value can be consumed unchanged by the circuit.
const HashSize = 32

// Hash is a MiMC digest over the BN254 scalar field.
type Hash [HashSize]byte

// Bytes returns the hash as a byte slice.
func (h Hash) Bytes() []byte { return h[:] }

// String returns the hex encoding of the hash.
func (h Hash) String() string { return hex.EncodeToString(h[:]) }

// IsZero reports whether the hash is all zeroes.
func (h Hash) IsZero() bool { return h == Hash{} }

// MarshalJSON encodes the hash as a 0x-prefixed hex string.
func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(hexutil.Encode(h[:]))
}

// UnmarshalJSON decodes a 0x-prefixed hex string into the hash.
func (h *Hash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return err
	}
	if len(b) != HashSize {
		return fmt.Errorf("hash must be %d bytes, got %d", HashSize, len(b))
	}
	copy(h[:], b)
	return nil
}

// HashFromBytes copies b into a Hash. It requires len(b) == HashSize.
func HashFromBytes(b []byte) (Hash, bool) {
	var h Hash
	if len(b) != HashSize {
		return h, false
	}
	copy(h[:], b)
	return h, true
}

// hasher accumulates canonical field elements into a native MiMC sponge. The
// write order is load-bearing: the circuit performs the identical writes on
// frontend.Variables, and any drift between the two breaks soundness.
type hasher struct {
	h hash.Hash
}

func newHasher() *hasher {
	return &hasher{h: mimc.NewMiMC()}
}

func (s *hasher) writeUint64(v uint64) {
	var e fr.Element
	e.SetUint64(v)
	b := e.Bytes()
	_, _ = s.h.Write(b[:])
}

func (s *hasher) writeElement(e *fr.Element) {
	b := e.Bytes()
	_, _ = s.h.Write(b[:])
}

func (s *hasher) writeHash(h Hash) {
	// Hashes are canonical fr encodings already.
	_, _ = s.h.Write(h[:])
}

func (s *hasher) sum() Hash {
	var out Hash
	copy(out[:], s.h.Sum(nil))
	return out
}
