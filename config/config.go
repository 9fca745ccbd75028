package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"

	"spredd/native/forecast"
)

// Config carries the daemon wiring: listen addresses, storage location, the
// trust-role addresses and the epoch cadence.
type Config struct {
	RPCAddress     string   `toml:"RPCAddress"`
	MetricsAddress string   `toml:"MetricsAddress"`
	DataDir        string   `toml:"DataDir"`
	Env            string   `toml:"Env"`
	Owner          string   `toml:"Owner"`
	Factory        string   `toml:"Factory"`
	Submitter      string   `toml:"Submitter"`
	Vault          string   `toml:"Vault"`
	EpochDuration  int64    `toml:"EpochDurationSeconds"`
	GraceWindow    int64    `toml:"GraceWindowSeconds"`
	MaxEntries     int      `toml:"MaxLeaderboardEntries"`
	RewardTableBps []uint64 `toml:"RewardTableBps"`
}

func defaultConfig() *Config {
	params := forecast.DefaultParams()
	return &Config{
		RPCAddress:     ":8645",
		MetricsAddress: ":9465",
		DataDir:        "./forecast-data",
		EpochDuration:  params.EpochDuration,
		GraceWindow:    params.GraceWindow,
		MaxEntries:     params.MaxLeaderboardEntries,
		RewardTableBps: params.RewardTableBps,
	}
}

// Load reads the configuration from the given path, creating a default file
// when none exists yet.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	cfg := defaultConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func createDefault(path string) (*Config, error) {
	cfg := defaultConfig()
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks listen addresses, role addresses and the cadence values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.RPCAddress) == "" {
		return fmt.Errorf("config: RPCAddress required")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("config: DataDir required")
	}
	for field, value := range map[string]string{
		"Owner":     c.Owner,
		"Factory":   c.Factory,
		"Submitter": c.Submitter,
		"Vault":     c.Vault,
	} {
		if strings.TrimSpace(value) == "" {
			continue
		}
		if !common.IsHexAddress(value) {
			return fmt.Errorf("config: %s is not a hex address", field)
		}
	}
	if _, err := c.EngineParams(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// EngineParams converts the cadence settings into engine parameters.
func (c *Config) EngineParams() (forecast.Params, error) {
	params := forecast.Params{
		EpochDuration:         c.EpochDuration,
		GraceWindow:           c.GraceWindow,
		MaxLeaderboardEntries: c.MaxEntries,
		RewardTableBps:        append([]uint64(nil), c.RewardTableBps...),
	}
	if err := params.Validate(); err != nil {
		return forecast.Params{}, err
	}
	return params, nil
}

// Address parses one of the configured role addresses; empty strings map to
// the zero address, leaving the role unassigned.
func Address(value string) common.Address {
	value = strings.TrimSpace(value)
	if value == "" {
		return common.Address{}
	}
	return common.HexToAddress(value)
}
