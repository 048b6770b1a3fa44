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

package node_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/blinklabs-io/metavault"
	"github.com/blinklabs-io/metavault/internal/config"
	"github.com/blinklabs-io/metavault/internal/node"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DatabasePath = t.TempDir()
	cfg.Owner = "0x00000000000000000000000000000000000000a1"
	cfg.InitialSupply = "1000"
	cfg.Categories = []config.CategoryConfig{
		{Name: "Sword", ID: 1, Weight: 3, MaxSupply: 10},
		{Name: "Shield", ID: 2, Weight: 1, MaxSupply: 5},
	}
	return cfg
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestOptionsRequireOwner(t *testing.T) {
	cfg := testConfig(t)
	cfg.Owner = ""
	_, err := node.Options(cfg, discardLogger(), false)
	require.ErrorIs(t, err, node.ErrOwnerRequired)
}

func TestOptionsRejectBadValues(t *testing.T) {
	cfg := testConfig(t)
	cfg.CratePrice = "free"
	_, err := node.Options(cfg, discardLogger(), false)
	require.Error(t, err)

	cfg = testConfig(t)
	cfg.ShutdownTimeout = "soon"
	_, err = node.Options(cfg, discardLogger(), false)
	require.Error(t, err)
}

func TestOpenAppliesConfig(t *testing.T) {
	cfg := testConfig(t)
	n, err := node.Open(context.Background(), cfg, discardLogger())
	require.NoError(t, err)
	defer func() {
		require.NoError(t, n.Stop())
	}()

	balance, err := n.TokenBalance(cfg.OwnerAddress())
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000000", balance.Dec())

	categories, err := n.CrateCategories()
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "Shield", categories[1].Name)
	assert.Equal(t, uint64(5), categories[1].Remaining)

	uri, err := n.Collectibles().BaseURI(nil)
	require.NoError(t, err)
	assert.Equal(t, cfg.BaseURI, uri)
	assert.Equal(t, metavault.ContractAddresses(cfg.OwnerAddress()), n.Addresses())
}
