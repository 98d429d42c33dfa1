package prover

import (
	"context"
	"runtime"
	"sync"
	"time"

	sdkerrors "cosmossdk.io/errors"
	"cosmossdk.io/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/ibc-mini/ibc-mini/circuit"
)

// DefaultProveTimeout bounds a single proof generation. Constraint systems
// sized to the full validator bound can run long; callers with bigger
// machines can raise it via NewPool.
const DefaultProveTimeout = 5 * time.Minute

// Task is one proof-generation unit of work. Tasks are independent: each owns
// its witness and shares only the read-only proving keys.
type Task struct {
	Height     uint64
	Assignment *circuit.TransitionCircuit
}

// Pool runs proof generation with bounded concurrency and a per-task
// deadline. The bound defaults to the number of usable CPUs: proving is
// CPU-bound, so more workers than cores only adds memory pressure.
type Pool struct {
	prover  *Prover
	sem     *semaphore.Weighted
	timeout time.Duration
	logger  log.Logger
}

// NewPool builds a pool over p. workers <= 0 selects GOMAXPROCS; timeout <= 0
// selects DefaultProveTimeout.
func NewPool(p *Prover, workers int, timeout time.Duration, logger log.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if timeout <= 0 {
		timeout = DefaultProveTimeout
	}
	return &Pool{
		prover:  p,
		sem:     semaphore.NewWeighted(int64(workers)),
		timeout: timeout,
		logger:  logger,
	}
}

// Prove runs one proving task under the pool's concurrency bound and
// deadline.
func (pl *Pool) Prove(ctx context.Context, height uint64, assignment *circuit.TransitionCircuit) ([]byte, error) {
	if err := pl.sem.Acquire(ctx, 1); err != nil {
		return nil, sdkerrors.Wrapf(ErrProofGeneration, "queueing aborted at height %d: %v", height, err)
	}
	defer pl.sem.Release(1)

	ctx, cancel := context.WithTimeout(ctx, pl.timeout)
	defer cancel()

	start := time.Now()
	proof, err := pl.prover.Prove(ctx, assignment)
	if err != nil {
		return nil, err
	}
	pl.logger.Info("proof generated", "height", height, "took", time.Since(start).String(), "size", len(proof))
	return proof, nil
}

// ProveAll proves a batch of independent heights concurrently and returns the
// proofs keyed by height. The first failure cancels the remaining tasks.
func (pl *Pool) ProveAll(ctx context.Context, tasks []Task) (map[uint64][]byte, error) {
	var (
		mu     sync.Mutex
		proofs = make(map[uint64][]byte, len(tasks))
	)
	g, ctx := errgroup.WithContext(ctx)
	for _, task := range tasks {
		g.Go(func() error {
			proof, err := pl.Prove(ctx, task.Height, task.Assignment)
			if err != nil {
				return err
			}
			mu.Lock()
			proofs[task.Height] = proof
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return proofs, nil
}
