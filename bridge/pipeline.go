package bridge

import (
	"context"

	"cosmossdk.io/log"

	"github.com/ibc-mini/ibc-mini/circuit"
	"github.com/ibc-mini/ibc-mini/lightclient"
	"github.com/ibc-mini/ibc-mini/prover"
	"github.com/ibc-mini/ibc-mini/provider"
	"github.com/ibc-mini/ibc-mini/store"
)

// Pipeline drives a light client forward: it fetches a target header, runs
// native verification, proves the transition, submits the envelope and only
// then records the new trusted state. A failure at any stage leaves the
// stored state untouched.
type Pipeline struct {
	provider  provider.Provider
	pool      *prover.Pool
	store     store.Store
	submitter Submitter
	logger    log.Logger
}

// NewPipeline wires the stages together. A nil submitter defaults to a
// logging NopSubmitter.
func NewPipeline(p provider.Provider, pool *prover.Pool, st store.Store, sub Submitter, logger log.Logger) *Pipeline {
	if sub == nil {
		sub = NewNopSubmitter(logger)
	}
	return &Pipeline{provider: p, pool: pool, store: st, submitter: sub, logger: logger}
}

// Advance moves the trusted state to the given height and returns the
// submitted envelope. The target may skip any number of heights above the
// current tip.
func (pl *Pipeline) Advance(ctx context.Context, height uint64) (*Envelope, error) {
	trusted, err := pl.store.Latest()
	if err != nil {
		return nil, err
	}

	header, err := pl.provider.SignedHeader(ctx, height)
	if err != nil {
		return nil, err
	}
	// The reference set is the one the trusted state committed to; the
	// verifier re-checks the binding.
	vals, err := pl.provider.ValidatorSet(ctx, trusted.Height)
	if err != nil {
		return nil, err
	}

	next, err := lightclient.Verify(trusted, header, &header.Commit, vals)
	if err != nil {
		return nil, err
	}

	assignment, pub, err := circuit.BuildAssignment(trusted, header, &header.Commit, vals)
	if err != nil {
		return nil, err
	}

	proof, err := pl.pool.Prove(ctx, height, assignment)
	if err != nil {
		return nil, err
	}

	env := &Envelope{
		OldStateCommitment: pub.OldStateCommitment,
		NewStateCommitment: pub.NewStateCommitment,
		Accept:             pub.Accept,
		Proof:              proof,
	}
	if err := pl.submitter.SubmitProof(ctx, env); err != nil {
		return nil, err
	}

	// Advance before recording the envelope: a lost advance (e.g. another
	// writer got there first) must not leave an envelope behind for a
	// height that never became trusted.
	if err := pl.store.Advance(next); err != nil {
		return nil, err
	}
	if err := pl.store.PutEnvelope(height, env.Encode()); err != nil {
		return nil, err
	}
	pl.logger.Info("advanced trusted state",
		"from_height", trusted.Height,
		"to_height", next.Height,
		"block_hash", next.BlockHash.String(),
	)
	return env, nil
}

// Sync advances the trusted state to the provider's newest height in a
// single skipping step. Targets at or below the current tip are a no-op.
func (pl *Pipeline) Sync(ctx context.Context, latest uint64) (*Envelope, error) {
	trusted, err := pl.store.Latest()
	if err != nil {
		return nil, err
	}
	if latest <= trusted.Height {
		pl.logger.Debug("trusted state already current", "height", trusted.Height)
		return nil, nil
	}
	return pl.Advance(ctx, latest)
}
