package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ordforge.dev/indexcore/chainparams"
)

type Config struct {
	Network       string `json:"network"`
	DataDir       string `json:"data_dir"`
	LogLevel      string `json:"log_level"`
	CacheSize     int    `json:"cache_size"`
	IndexTxs      bool   `json:"index_transactions"`
	StartHeight   uint32 `json:"start_height"`
}

var allowedLogLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".ord-index"
	}
	return filepath.Join(home, ".ord-index")
}

func DefaultConfig() Config {
	return Config{
		Network:   string(chainparams.Mainnet),
		DataDir:   DefaultDataDir(),
		LogLevel:  "info",
		CacheSize: 10_000,
		IndexTxs:  false,
	}
}

func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.Network) == "" {
		return errors.New("network is required")
	}
	switch chainparams.Network(cfg.Network) {
	case chainparams.Mainnet, chainparams.Testnet, chainparams.Signet, chainparams.Regtest:
	default:
		return fmt.Errorf("unknown network %q", cfg.Network)
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		return errors.New("data_dir is required")
	}
	logLevel := strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if _, ok := allowedLogLevels[logLevel]; !ok {
		return fmt.Errorf("invalid log_level %q", cfg.LogLevel)
	}
	if cfg.CacheSize <= 0 {
		return errors.New("cache_size must be > 0")
	}
	return nil
}
