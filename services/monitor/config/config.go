package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// EndpointsConfig holds the base URLs of the remote endpoints, one set per perspective
type EndpointsConfig struct {
	PrometheusURL               string `toml:"PrometheusURL"`
	AlertmanagerURL             string `toml:"AlertmanagerURL"`
	ThanosTenancyURL            string `toml:"ThanosTenancyURL"`
	AlertmanagerTenancyURL      string `toml:"AlertmanagerTenancyURL"`
	MultiClusterRulesURL        string `toml:"MultiClusterRulesURL"`
	MultiClusterAlertmanagerURL string `toml:"MultiClusterAlertmanagerURL"`
}

// IncidentsConfig defines the incident time-series query
type IncidentsConfig struct {
	Enabled                  bool   `toml:"Enabled"`
	PollIntervalInMillis     uint32 `toml:"PollIntervalInMillis"`
	RangeInHours             uint32 `toml:"RangeInHours"`
	StepInSeconds            uint32 `toml:"StepInSeconds"`
	SnapshotRetentionSeconds int    `toml:"SnapshotRetentionSeconds"`
}

// Config maps to the config.toml file for the monitor service
type Config struct {
	ListenAddress           string          `toml:"ListenAddress"`
	Perspective             string          `toml:"Perspective"`
	Namespace               string          `toml:"Namespace"`
	PollIntervalInMillis    uint32          `toml:"PollIntervalInMillis"`
	RequestTimeoutInSeconds uint32          `toml:"RequestTimeoutInSeconds"`
	Endpoints               EndpointsConfig `toml:"Endpoints"`
	Incidents               IncidentsConfig `toml:"Incidents"`
}

// LoadConfig parses a TOML file into the Config struct
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", filepath, err)
	}

	var cfg Config
	err = toml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	return &cfg, nil
}
