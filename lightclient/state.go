package lightclient

// TrustedState is the root of trust for verifying the next header: the last
// (height, validator set commitment, block hash) triple the system has proven
// valid. It is immutable; advancement happens by producing a new value.
type TrustedState struct {
	Height         uint64 `json:"height"`
	ValidatorsHash Hash   `json:"validators_hash"`
	BlockHash      Hash   `json:"block_hash"`
}

// Commitment returns MiMC(height, validators_hash, block_hash). The proof
// system exposes exactly two of these as public inputs: the commitment of the
// prior trusted state and of the new one.
func (ts TrustedState) Commitment() Hash {
	h := newHasher()
	h.writeUint64(ts.Height)
	h.writeHash(ts.ValidatorsHash)
	h.writeHash(ts.BlockHash)
	return h.sum()
}

// PublicInputs is the record a proof is bound to: the commitment of the prior
// trusted state, the commitment of the new one, and the accept bit. It is the
// only data the proof system reveals to a verifier.
type PublicInputs struct {
	OldStateCommitment Hash `json:"old_state_commitment"`
	NewStateCommitment Hash `json:"new_state_commitment"`
	Accept             bool `json:"accept"`
}
