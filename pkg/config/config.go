// Package config loads server configuration from a YAML file (command-line
// flag overrides are applied on top by cmd/server), replacing the
// teacher's flag-driven Config with a real file format since the expanded
// scope carries many more knobs than fit comfortably on a flag line.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ProxyMode selects how (if at all) an upstream forwarding proxy is trusted
// to supply the real client address and profile, per §4.3.
type ProxyMode string

const (
	ProxyNone      ProxyMode = "none"
	ProxyVelocity  ProxyMode = "velocity"
	ProxyBungeeCord ProxyMode = "bungeecord"
)

// Config is the full server configuration.
type Config struct {
	Address            string    `yaml:"address"`
	MaxPlayers         int       `yaml:"max_players"`
	MOTD               string    `yaml:"motd"`
	OnlineMode         bool      `yaml:"online_mode"`
	CompressionThreshold int     `yaml:"compression_threshold"` // -1 disables compression
	ProxyMode          ProxyMode `yaml:"proxy_mode"`
	ForwardingSecret   string    `yaml:"forwarding_secret"` // Velocity modern forwarding
	WorldPath          string    `yaml:"world_path"`
	LogLevel           string    `yaml:"log_level"`
	LogFormat          string    `yaml:"log_format"` // "text" or "json"
	ChunksPerTick      int       `yaml:"chunks_per_tick"`
	WorkerPoolSize     int       `yaml:"worker_pool_size"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		Address:              ":25565",
		MaxPlayers:           20,
		MOTD:                 "A Pumpkin-core Server",
		OnlineMode:           true,
		CompressionThreshold: 256,
		ProxyMode:            ProxyNone,
		WorldPath:            "./world",
		LogLevel:             "info",
		LogFormat:            "text",
		ChunksPerTick:        16,
		WorkerPoolSize:       4,
	}
}

// Load reads and parses a YAML config file, starting from Default() so
// unspecified fields keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}
