// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/blinklabs-io/metavault/internal/sops"
	"github.com/blinklabs-io/metavault/internal/units"
	"github.com/ethereum/go-ethereum/common"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "metavault.config"

const DefaultShutdownTimeout = "30s"

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

type tempConfig struct {
	Config yaml.Node `yaml:"config,omitempty"`
}

// CategoryConfig describes one loot category in the config file
type CategoryConfig struct {
	Name      string `yaml:"name"`
	ID        uint64 `yaml:"id"`
	Weight    uint64 `yaml:"weight"`
	MaxSupply uint64 `yaml:"maxSupply"`
}

type Config struct {
	DatabasePath    string           `yaml:"databasePath"    split_words:"true"`
	BindAddr        string           `yaml:"bindAddr"        split_words:"true"`
	Owner           string           `yaml:"owner"`
	CratePrice      string           `yaml:"cratePrice"      split_words:"true"`
	InitialSupply   string           `yaml:"initialSupply"   split_words:"true"`
	BaseURI         string           `yaml:"baseUri"         envconfig:"BASE_URI"`
	ShutdownTimeout string           `yaml:"shutdownTimeout" split_words:"true"`
	RedisAddr       string           `yaml:"redisAddr"       split_words:"true"`
	RedisPassword   string           `yaml:"redisPassword"   split_words:"true"`
	RedisStream     string           `yaml:"redisStream"     split_words:"true"`
	KafkaTopic      string           `yaml:"kafkaTopic"      split_words:"true"`
	KafkaBrokers    []string         `yaml:"kafkaBrokers"    split_words:"true"`
	Categories      []CategoryConfig `yaml:"categories"      ignored:"true"`
	BlobCacheSize   uint64           `yaml:"blobCacheSize"   split_words:"true"`
	RedisMaxLen     int64            `yaml:"redisMaxLen"     split_words:"true"`
	RedisDB         int              `yaml:"redisDb"         envconfig:"REDIS_DB"`
	ApiPort         uint             `yaml:"apiPort"         split_words:"true"`
	MetricsPort     uint             `yaml:"metricsPort"     split_words:"true"`
	Tracing         bool             `yaml:"tracing"`
	TracingStdout   bool             `yaml:"tracingStdout"   split_words:"true"`
}

// DefaultConfig returns a fresh copy of the defaults
func DefaultConfig() *Config {
	return &Config{
		DatabasePath:    ".metavault",
		BindAddr:        "0.0.0.0",
		CratePrice:      "0.02",
		InitialSupply:   "100000000",
		BaseURI:         "ipfs://metaverse/",
		ShutdownTimeout: DefaultShutdownTimeout,
		RedisStream:     "metavault:events",
		RedisMaxLen:     100000,
		KafkaTopic:      "metavault-events",
		ApiPort:         8080,
		MetricsPort:     12799,
	}
}

var globalConfig = DefaultConfig()

func LoadConfig(configFile string) (*Config, error) {
	cfg := DefaultConfig()
	if configFile == "" {
		// Check for config file in this path: ~/.metavault/metavault.yaml
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".metavault", "metavault.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}
		if configFile == "" {
			systemPath := "/etc/metavault/metavault.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if sops.IsEncrypted(buf) {
			buf, err = sops.Decrypt(buf)
			if err != nil {
				return nil, fmt.Errorf("error decrypting config file: %w", err)
			}
		}
		var tempCfg tempConfig
		if err := yaml.Unmarshal(buf, &tempCfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
		if !tempCfg.Config.IsZero() {
			// Overlay the config section onto the defaults
			if err := tempCfg.Config.Decode(cfg); err != nil {
				return nil, fmt.Errorf("error parsing config section: %w", err)
			}
		} else if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}
	if err := envconfig.Process("metavault", cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %+w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	globalConfig = cfg
	return cfg, nil
}

func GetConfig() *Config {
	return globalConfig
}

// Validate checks values that can be checked without opening the database
func (c *Config) Validate() error {
	var errs []error
	if c.Owner != "" && !common.IsHexAddress(c.Owner) {
		errs = append(errs, fmt.Errorf("invalid owner address: %q", c.Owner))
	}
	if _, err := units.Parse(c.CratePrice); err != nil {
		errs = append(errs, fmt.Errorf("invalid cratePrice: %w", err))
	}
	if _, err := units.Parse(c.InitialSupply); err != nil {
		errs = append(errs, fmt.Errorf("invalid initialSupply: %w", err))
	}
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		errs = append(errs, fmt.Errorf("invalid shutdownTimeout: %w", err))
	}
	return errors.Join(errs...)
}

// OwnerAddress returns the configured owner, or the zero address when unset
func (c *Config) OwnerAddress() common.Address {
	if c.Owner == "" {
		return common.Address{}
	}
	return common.HexToAddress(c.Owner)
}
