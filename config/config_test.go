package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forecastd.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.FileExists(t, path)
	require.Equal(t, ":8645", cfg.RPCAddress)
	require.Equal(t, int64(7*24*60*60), cfg.EpochDuration)

	// The generated file round-trips through a second load.
	again, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.RPCAddress, again.RPCAddress)
	require.Equal(t, cfg.RewardTableBps, again.RewardTableBps)
}

func TestLoadRejectsBadAddress(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forecastd.toml")
	contents := `
RPCAddress = ":8645"
DataDir = "./data"
Owner = "not-an-address"
EpochDurationSeconds = 3600
GraceWindowSeconds = 600
MaxLeaderboardEntries = 50
RewardTableBps = [2500, 1800, 1500, 1000, 800, 700, 600, 500, 400, 200]
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Owner")
}

func TestLoadRejectsBadRewardTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forecastd.toml")
	contents := `
RPCAddress = ":8645"
DataDir = "./data"
EpochDurationSeconds = 3600
GraceWindowSeconds = 600
MaxLeaderboardEntries = 50
RewardTableBps = [5000, 5000]
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestEngineParamsConversion(t *testing.T) {
	cfg := defaultConfig()
	params, err := cfg.EngineParams()
	require.NoError(t, err)
	require.Equal(t, cfg.EpochDuration, params.EpochDuration)
	require.Equal(t, cfg.GraceWindow, params.GraceWindow)
	require.Equal(t, cfg.RewardTableBps, params.RewardTableBps)

	cfg.GraceWindow = 0
	_, err = cfg.EngineParams()
	require.Error(t, err)
}

func TestAddressParsing(t *testing.T) {
	require.Equal(t, [20]byte{}, [20]byte(Address("")))
	require.Equal(t, [20]byte{}, [20]byte(Address("   ")))

	addr := Address("0x00000000000000000000000000000000000000aa")
	require.Equal(t, byte(0xaa), addr[19])
}
