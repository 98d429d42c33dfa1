package main

import (
	"crypto/rand"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ibc-mini/ibc-mini/bridge"
	"github.com/ibc-mini/ibc-mini/config"
	"github.com/ibc-mini/ibc-mini/lightclient"
	"github.com/ibc-mini/ibc-mini/prover"
	"github.com/ibc-mini/ibc-mini/provider"
	"github.com/ibc-mini/ibc-mini/store"
)

func demoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run the full prove/verify loop against a local 4-validator chain",
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

			chain, err := provider.NewLocal(4, 10, rand.Reader)
			if err != nil {
				return err
			}
			st := store.NewMemStore()
			if err := st.Seed(chain.Genesis()); err != nil {
				return err
			}

			logger.Info("compiling transition circuit")
			keys, err := prover.Setup()
			if err != nil {
				return err
			}
			logger.Info("circuit ready", "constraints", keys.NbConstraints())

			pool := prover.NewPool(prover.New(keys, logger), cfg.Workers, cfg.ProveTimeout, logger)
			pipeline := bridge.NewPipeline(chain, pool, st, nil, logger)

			// Three of four validators sign: 30 of 40 power, above the
			// strict 2/3 threshold.
			height, err := chain.AppendBlock(0, 1, 2)
			if err != nil {
				return err
			}
			env, err := pipeline.Advance(ctx, height)
			if err != nil {
				return err
			}
			if err := prover.Verify(keys.VerifyingKey(), env.PublicInputs(), env.Proof); err != nil {
				return err
			}
			header, err := chain.SignedHeader(ctx, height)
			if err != nil {
				return err
			}
			fmt.Printf("accepted height %d, app hash %s, proof %d bytes\n",
				height, header.AppHash.String(), len(env.Proof))

			// Two of four is exactly half: the transition must be refused
			// before any proving work starts.
			height, err = chain.AppendBlock(0, 1)
			if err != nil {
				return err
			}
			if _, err := pipeline.Advance(ctx, height); err == nil {
				return fmt.Errorf("height %d was accepted with insufficient voting power", height)
			} else if !lightclient.ErrInsufficientVotingPower.Is(err) {
				return err
			}
			fmt.Printf("rejected height %d: insufficient voting power\n", height)

			latest, err := st.Latest()
			if err != nil {
				return err
			}
			fmt.Printf("trusted state: height %d, block hash %s\n", latest.Height, latest.BlockHash.String())
			return nil
		},
	}
}
