// Command ibc-mini runs the light client bridge: a demo of the full
// prove/verify loop, a one-shot prover, and an HTTP API over the stored
// chain of trusted states.
package main

import (
	"fmt"
	"os"

	"cosmossdk.io/log"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ibc-mini/ibc-mini/config"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ibc-mini",
		Short:         "Zero-knowledge light client bridge",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(demoCmd(), proveCmd(), serveCmd())
	return cmd
}

// newLogger builds the process logger on stderr so command output on stdout
// stays machine readable.
func newLogger(cfg config.Config) (log.Logger, error) {
	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	return log.NewLogger(os.Stderr, log.LevelOption(lvl)), nil
}
