package internal

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type SearchConfig struct {
	MemoryLimit     int `yaml:"memory_limit"`
	BranchLimit     int `yaml:"branch_limit"`
	SuggestionLimit int `yaml:"suggestion_limit"`
}

type HistoryConfig struct {
	Enabled    bool `yaml:"enabled"`
	AutoCommit bool `yaml:"auto_commit"`
}

type Config struct {
	Search               SearchConfig  `yaml:"search"`
	History              HistoryConfig `yaml:"history"`
	CleanupDays          int           `yaml:"cleanup_days"`
	DefaultMergeStrategy string        `yaml:"default_merge_strategy"`
}

func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			MemoryLimit:     5,
			BranchLimit:     5,
			SuggestionLimit: 3,
		},
		History: HistoryConfig{
			Enabled:    true,
			AutoCommit: false,
		},
		CleanupDays:          30,
		DefaultMergeStrategy: MergeAppend,
	}
}

func LoadConfig(scope Scope) (*Config, error) {
	path := scope.ConfigPath()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func SaveConfig(scope Scope, cfg *Config) error {
	path := scope.ConfigPath()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}
