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
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpFile := filepath.Join(t.TempDir(), "metavault.yaml")
	if err := os.WriteFile(tmpFile, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return tmpFile
}

func TestLoad_CompareFullStruct(t *testing.T) {
	yamlContent := `
databasePath: "/var/lib/metavault"
bindAddr: "127.0.0.1"
owner: "0x00000000000000000000000000000000000000a1"
cratePrice: "0.05"
initialSupply: "5000"
baseUri: "ipfs://items/"
shutdownTimeout: "10s"
apiPort: 9000
metricsPort: 9001
blobCacheSize: 1048576
categories:
  - id: 1
    name: Sword
    weight: 3
    maxSupply: 10
`
	tmpFile := writeConfig(t, yamlContent)

	expected := DefaultConfig()
	expected.DatabasePath = "/var/lib/metavault"
	expected.BindAddr = "127.0.0.1"
	expected.Owner = "0x00000000000000000000000000000000000000a1"
	expected.CratePrice = "0.05"
	expected.InitialSupply = "5000"
	expected.BaseURI = "ipfs://items/"
	expected.ShutdownTimeout = "10s"
	expected.ApiPort = 9000
	expected.MetricsPort = 9001
	expected.BlobCacheSize = 1048576
	expected.Categories = []CategoryConfig{
		{ID: 1, Name: "Sword", Weight: 3, MaxSupply: 10},
	}

	actual, err := LoadConfig(tmpFile)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if !reflect.DeepEqual(actual, expected) {
		t.Errorf(
			"Loaded config does not match expected.\nActual: %+v\nExpected: %+v",
			actual,
			expected,
		)
	}
	if GetConfig() != actual {
		t.Errorf("expected GetConfig to return the loaded config")
	}
}

func TestLoad_ConfigSection(t *testing.T) {
	tmpFile := writeConfig(t, "config:\n  apiPort: 7000\n")
	cfg, err := LoadConfig(tmpFile)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.ApiPort != 7000 {
		t.Errorf("expected ApiPort 7000, got: %d", cfg.ApiPort)
	}
	if cfg.MetricsPort != 12799 {
		t.Errorf("expected default MetricsPort, got: %d", cfg.MetricsPort)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	tmpFile := writeConfig(t, "apiPort: 7000\n")
	t.Setenv("METAVAULT_API_PORT", "7100")
	t.Setenv("METAVAULT_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("METAVAULT_BASE_URI", "https://example.invalid/")
	cfg, err := LoadConfig(tmpFile)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.ApiPort != 7100 {
		t.Errorf("expected ApiPort from env, got: %d", cfg.ApiPort)
	}
	if !reflect.DeepEqual(cfg.KafkaBrokers, []string{"k1:9092", "k2:9092"}) {
		t.Errorf("unexpected KafkaBrokers: %v", cfg.KafkaBrokers)
	}
	if cfg.BaseURI != "https://example.invalid/" {
		t.Errorf("unexpected BaseURI: %s", cfg.BaseURI)
	}
}

func TestLoad_Invalid(t *testing.T) {
	testDefs := []string{
		"owner: nope\n",
		"cratePrice: \"-1\"\n",
		"initialSupply: lots\n",
		"shutdownTimeout: soon\n",
	}
	for _, content := range testDefs {
		if _, err := LoadConfig(writeConfig(t, content)); err == nil {
			t.Errorf("expected error for config %q", content)
		}
	}
}

func TestOwnerAddress(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.OwnerAddress() != (common.Address{}) {
		t.Errorf("expected zero owner by default")
	}
	cfg.Owner = "0x00000000000000000000000000000000000000a1"
	if cfg.OwnerAddress() != common.HexToAddress("0xa1") {
		t.Errorf("unexpected owner: %s", cfg.OwnerAddress().Hex())
	}
}
