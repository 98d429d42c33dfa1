package lightclient

// CommitSig is one validator's detached signature over the canonical header
// hash.
type CommitSig struct {
	ValidatorIndex uint32              `json:"validator_index"`
	Signature      [SignatureSize]byte `json:"signature"`
}

// Commit aggregates the signatures attesting that a header was finalized.
type Commit struct {
	Signatures []CommitSig `json:"signatures"`
}

// SignedHeader is a block header together with the commit that finalized it.
//
// AppHash is the application state root the header attests to; it is what a
// consumer ultimately wants out of a verified transition, so it is bound into
// the canonical header hash.
type SignedHeader struct {
	Height         uint64 `json:"height"`
	Time           uint64 `json:"time"`
	PrevBlockHash  Hash   `json:"prev_block_hash"`
	AppHash        Hash   `json:"app_hash"`
	ValidatorsHash Hash   `json:"validators_hash"`
	Commit         Commit `json:"commit"`
}

// Hash returns the canonical header hash:
// MiMC(height, time, prev_block_hash, app_hash, validators_hash).
// This is the message every commit signature signs, and the value recorded as
// TrustedState.BlockHash after a successful transition. The commit itself is
// deliberately excluded: signatures cannot sign themselves.
func (h *SignedHeader) Hash() Hash {
	hs := newHasher()
	hs.writeUint64(h.Height)
	hs.writeUint64(h.Time)
	hs.writeHash(h.PrevBlockHash)
	hs.writeHash(h.AppHash)
	hs.writeHash(h.ValidatorsHash)
	return hs.sum()
}
