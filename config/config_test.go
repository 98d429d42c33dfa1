package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "local", cfg.ProviderKind)
	require.Equal(t, "ibc-mini.db", cfg.DBPath)
	require.Equal(t, 0, cfg.Workers)
	require.Equal(t, 5*time.Minute, cfg.ProveTimeout)
	require.Equal(t, ":8080", cfg.APIAddr)
	require.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("IBCMINI_PROVIDER", "http")
	t.Setenv("IBCMINI_PROVIDER_URL", "http://node:9000")
	t.Setenv("IBCMINI_WORKERS", "4")
	t.Setenv("IBCMINI_PROVE_TIMEOUT", "90s")
	t.Setenv("IBCMINI_LOG_LEVEL", "debug")
	t.Setenv("IBCMINI_EVM_RPC_URL", "http://evm:8545")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http", cfg.ProviderKind)
	require.Equal(t, "http://node:9000", cfg.ProviderURL)
	require.Equal(t, 4, cfg.Workers)
	require.Equal(t, 90*time.Second, cfg.ProveTimeout)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "http://evm:8545", cfg.EVMRPCURL)
}
