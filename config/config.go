// Package config loads runtime settings from the environment. All keys use
// the IBCMINI_ prefix; a .env file in the working directory is honored for
// local development.
package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of all environment variables.
const EnvPrefix = "IBCMINI"

// Config holds every runtime setting.
type Config struct {
	// ProviderKind selects the header source: "local" or "http".
	ProviderKind string
	// ProviderURL is the base URL of the remote node when ProviderKind is
	// "http".
	ProviderURL string

	// EVMRPCURL is the destination chain RPC endpoint. Empty disables
	// submission.
	EVMRPCURL string
	// EVMContract is the hex address of the verifier contract.
	EVMContract string

	// DBPath is the bbolt database file holding trusted states and
	// envelopes.
	DBPath string
	// KeyDir is where proving and verifying keys are cached.
	KeyDir string

	// Workers caps concurrent proving jobs; zero means GOMAXPROCS.
	Workers int
	// ProveTimeout bounds a single proving job.
	ProveTimeout time.Duration

	// APIAddr is the listen address of the serve command.
	APIAddr string
	// LogLevel is one of debug, info, warn, error.
	LogLevel string
}

// Load reads the configuration from the environment, applying defaults for
// anything unset.
func Load() (Config, error) {
	// Missing .env is fine; the environment still applies.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("provider", "local")
	v.SetDefault("provider-url", "http://localhost:8080")
	v.SetDefault("evm-rpc-url", "")
	v.SetDefault("evm-contract", "")
	v.SetDefault("db-path", "ibc-mini.db")
	v.SetDefault("key-dir", "keys")
	v.SetDefault("workers", 0)
	v.SetDefault("prove-timeout", 5*time.Minute)
	v.SetDefault("api-addr", ":8080")
	v.SetDefault("log-level", "info")

	return Config{
		ProviderKind: v.GetString("provider"),
		ProviderURL:  v.GetString("provider-url"),
		EVMRPCURL:    v.GetString("evm-rpc-url"),
		EVMContract:  v.GetString("evm-contract"),
		DBPath:       v.GetString("db-path"),
		KeyDir:       v.GetString("key-dir"),
		Workers:      v.GetInt("workers"),
		ProveTimeout: v.GetDuration("prove-timeout"),
		APIAddr:      v.GetString("api-addr"),
		LogLevel:     v.GetString("log-level"),
	}, nil
}
