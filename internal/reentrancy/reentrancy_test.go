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

package reentrancy_test

import (
	"context"
	"testing"

	"github.com/blinklabs-io/metavault/internal/reentrancy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnterCheck(t *testing.T) {
	ctx := t.Context()
	require.NoError(t, reentrancy.Check(ctx))
	inner := reentrancy.Enter(ctx)
	assert.True(t, reentrancy.Active(inner))
	require.ErrorIs(t, reentrancy.Check(inner), reentrancy.ErrReentrantCall)
	// Derived contexts keep the marker
	derived, cancel := context.WithCancel(inner)
	defer cancel()
	assert.True(t, reentrancy.Active(derived))
	assert.False(t, reentrancy.Active(ctx))
}
