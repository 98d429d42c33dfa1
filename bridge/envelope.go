// Package bridge carries light client transition proofs across the trust
// boundary. An Envelope binds a Groth16 proof to the public inputs it was
// produced for, in a fixed binary layout a destination chain contract can
// parse without a schema.
package bridge

import (
	"encoding/binary"
	"encoding/json"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/ibc-mini/ibc-mini/lightclient"
)

// EnvelopeVersion is the only wire version this codec accepts.
const EnvelopeVersion uint16 = 1

// Fixed offsets of the envelope layout:
// version (2) | old commitment (32) | new commitment (32) | accept (1) |
// proof length (4) | proof.
const (
	envelopeHeaderSize = 2 + 2*lightclient.HashSize + 1 + 4
	offOld             = 2
	offNew             = offOld + lightclient.HashSize
	offAccept          = offNew + lightclient.HashSize
	offProofLen        = offAccept + 1
)

// Envelope is a transition proof together with the public inputs it commits
// to. The verifier side reconstructs its public witness solely from the
// envelope, so tampering with any field invalidates the proof.
type Envelope struct {
	OldStateCommitment lightclient.Hash
	NewStateCommitment lightclient.Hash
	Accept             bool
	Proof              []byte
}

// PublicInputs returns the public inputs bound by the envelope.
func (e *Envelope) PublicInputs() lightclient.PublicInputs {
	return lightclient.PublicInputs{
		OldStateCommitment: e.OldStateCommitment,
		NewStateCommitment: e.NewStateCommitment,
		Accept:             e.Accept,
	}
}

// Encode serializes the envelope into its binary layout.
func (e *Envelope) Encode() []byte {
	out := make([]byte, envelopeHeaderSize+len(e.Proof))
	binary.BigEndian.PutUint16(out, EnvelopeVersion)
	copy(out[offOld:], e.OldStateCommitment.Bytes())
	copy(out[offNew:], e.NewStateCommitment.Bytes())
	if e.Accept {
		out[offAccept] = 1
	}
	binary.BigEndian.PutUint32(out[offProofLen:], uint32(len(e.Proof)))
	copy(out[envelopeHeaderSize:], e.Proof)
	return out
}

// DecodeEnvelope parses the binary layout strictly: unknown versions,
// non-boolean accept bytes, truncated proofs and trailing bytes are all
// rejected.
func DecodeEnvelope(b []byte) (*Envelope, error) {
	if len(b) < envelopeHeaderSize {
		return nil, ErrMalformedEnvelope.Wrapf("envelope too short: %d bytes", len(b))
	}
	if v := binary.BigEndian.Uint16(b); v != EnvelopeVersion {
		return nil, ErrMalformedEnvelope.Wrapf("unsupported version %d", v)
	}
	accept := b[offAccept]
	if accept > 1 {
		return nil, ErrMalformedEnvelope.Wrapf("accept byte must be 0 or 1, got %d", accept)
	}
	proofLen := binary.BigEndian.Uint32(b[offProofLen:])
	if uint64(len(b)) != uint64(envelopeHeaderSize)+uint64(proofLen) {
		return nil, ErrMalformedEnvelope.Wrapf("proof length %d does not match payload %d", proofLen, len(b)-envelopeHeaderSize)
	}
	e := &Envelope{Accept: accept == 1}
	copy(e.OldStateCommitment[:], b[offOld:])
	copy(e.NewStateCommitment[:], b[offNew:])
	e.Proof = append([]byte(nil), b[envelopeHeaderSize:]...)
	return e, nil
}

// MarshalJSON renders the envelope with hex-encoded proof bytes for the
// serve API.
func (e *Envelope) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		OldStateCommitment lightclient.Hash `json:"old_state_commitment"`
		NewStateCommitment lightclient.Hash `json:"new_state_commitment"`
		Accept             bool             `json:"accept"`
		Proof              hexutil.Bytes    `json:"proof"`
	}{e.OldStateCommitment, e.NewStateCommitment, e.Accept, e.Proof})
}
