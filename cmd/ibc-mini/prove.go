package main

import (
	"errors"
	"fmt"
	"os"

	"cosmossdk.io/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/ibc-mini/ibc-mini/bridge"
	"github.com/ibc-mini/ibc-mini/config"
	"github.com/ibc-mini/ibc-mini/prover"
	"github.com/ibc-mini/ibc-mini/provider"
	"github.com/ibc-mini/ibc-mini/store"
)

func proveCmd() *cobra.Command {
	var height uint64
	cmd := &cobra.Command{
		Use:   "prove",
		Short: "Advance the stored trusted state to a height and prove the transition",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			src, err := newProvider(cfg)
			if err != nil {
				return err
			}
			st, err := store.OpenBolt(cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()
			if local, ok := src.(*provider.Local); ok {
				if err := prepareLocal(st, local, height); err != nil {
					return err
				}
			} else if _, err := st.Latest(); err != nil {
				// The http provider cannot supply a root of trust; the
				// store must have been seeded beforehand.
				return fmt.Errorf("store %s: %w", cfg.DBPath, err)
			}

			keys, err := loadOrSetupKeys(cfg, logger)
			if err != nil {
				return err
			}
			pool := prover.NewPool(prover.New(keys, logger), cfg.Workers, cfg.ProveTimeout, logger)

			var sub bridge.Submitter
			if cfg.EVMRPCURL != "" {
				evm, err := bridge.NewEVMSubmitter(cfg.EVMRPCURL, common.HexToAddress(cfg.EVMContract), logger)
				if err != nil {
					return err
				}
				defer evm.Close()
				sub = evm
			}

			env, err := bridge.NewPipeline(src, pool, st, sub, logger).Advance(ctx, height)
			if err != nil {
				return err
			}
			fmt.Printf("proved transition to height %d, envelope %d bytes\n", height, len(env.Encode()))
			return nil
		},
	}
	cmd.Flags().Uint64Var(&height, "height", 0, "target height (required)")
	_ = cmd.MarkFlagRequired("height")
	return cmd
}

// prepareLocal readies the demo chain for a one-shot prove run: it seeds the
// store from the chain's genesis and produces a block at the target height.
// The local provider regenerates its validator keys every process, so it only
// pairs with a store it seeded itself; anything already recorded belongs to a
// different chain.
func prepareLocal(st store.Store, chain *provider.Local, height uint64) error {
	if _, err := st.Latest(); err == nil {
		return fmt.Errorf("store is already seeded: the local provider regenerates its chain every run; use a fresh db or set %s_PROVIDER=http", config.EnvPrefix)
	} else if !store.ErrEmpty.Is(err) {
		return err
	}
	if err := st.Seed(chain.Genesis()); err != nil {
		return err
	}
	if height > chain.Latest() {
		// Three of four equal-power validators sign, clearing the 2/3
		// threshold.
		return chain.AppendBlockAt(height, 0, 1, 2)
	}
	return nil
}

func newProvider(cfg config.Config) (provider.Provider, error) {
	switch cfg.ProviderKind {
	case "local":
		return provider.NewLocal(4, 10, nil)
	case "http":
		return provider.NewHTTP(cfg.ProviderURL, nil), nil
	default:
		return nil, fmt.Errorf("unknown provider kind %q", cfg.ProviderKind)
	}
}

// loadOrSetupKeys reuses cached proving artifacts when present; a cold start
// compiles the circuit and runs the trusted setup, then caches the result.
func loadOrSetupKeys(cfg config.Config, logger log.Logger) (*prover.Keys, error) {
	keys, err := prover.LoadKeys(cfg.KeyDir)
	if err == nil {
		logger.Info("loaded proving keys", "dir", cfg.KeyDir)
		return keys, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	logger.Info("no cached keys, compiling circuit", "dir", cfg.KeyDir)
	keys, err = prover.Setup()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.KeyDir, 0o755); err != nil {
		return nil, err
	}
	if err := keys.Save(cfg.KeyDir); err != nil {
		return nil, err
	}
	return keys, nil
}
