package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigRoundTrip(t *testing.T) {
	cfg, err := DefaultConfig(3, 4, 3)
	require.NoError(t, err)
	require.NoError(t, cfg.ValidateBasic())
	require.Len(t, cfg.Chains, 3)
	require.Len(t, cfg.Chains[0].ValidatorSets, 2)

	home := t.TempDir()
	_, err = WriteConfig(home, cfg)
	require.NoError(t, err)

	loaded, err := LoadConfig(home)
	require.NoError(t, err)
	require.Equal(t, cfg.Sender, loaded.Sender)
	require.Equal(t, cfg.Relayer, loaded.Relayer)
	require.Equal(t, cfg.BlockTime, loaded.BlockTime)
	require.Len(t, loaded.Chains, 3)
	for i, chain := range loaded.Chains {
		require.Equal(t, cfg.Chains[i].Domain, chain.Domain)
		require.Equal(t, cfg.Chains[i].Owner, chain.Owner)
		require.Equal(t, cfg.Chains[i].GasOracles, chain.GasOracles)
		require.Equal(t, cfg.Chains[i].ValidatorSets, chain.ValidatorSets)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	cfg, err := DefaultConfig(2, 1, 1)
	require.NoError(t, err)
	home := t.TempDir()
	_, err = WriteConfig(home, cfg)
	require.NoError(t, err)

	t.Setenv("HYPSIM_LOG_LEVEL", "debug")
	loaded, err := LoadConfig(home)
	require.NoError(t, err)
	require.Equal(t, "debug", loaded.LogLevel)
}

func TestDefaultConfigRejectsBadThreshold(t *testing.T) {
	_, err := DefaultConfig(2, 3, 4)
	require.Error(t, err)
	_, err = DefaultConfig(2, 3, 0)
	require.Error(t, err)
	_, err = DefaultConfig(0, 3, 1)
	require.Error(t, err)
}

func TestConfigValidateBasic(t *testing.T) {
	testCases := []struct {
		name     string
		malleate func(cfg *Config)
	}{
		{"block time", func(cfg *Config) { cfg.BlockTime = "soon" }},
		{"zero block time", func(cfg *Config) { cfg.BlockTime = "0s" }},
		{"negative rounds", func(cfg *Config) { cfg.Rounds = -1 }},
		{"sender", func(cfg *Config) { cfg.Sender = "0x01" }},
		{"validator key", func(cfg *Config) { cfg.Relayer.ValidatorKeys = []string{"abcd"} }},
		{"no chains", func(cfg *Config) { cfg.Chains = nil }},
		{"chain", func(cfg *Config) { cfg.Chains[0].Owner = "" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := DefaultConfig(2, 1, 1)
			require.NoError(t, err)
			tc.malleate(&cfg)
			require.Error(t, cfg.ValidateBasic())
		})
	}
}
