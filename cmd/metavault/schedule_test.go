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

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCliff(t *testing.T) {
	ts, err := parseCliff("2023-11-14T22:13:20Z")
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), ts)

	ts, err = parseCliff("1700000000")
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), ts)

	_, err = parseCliff("next tuesday")
	require.Error(t, err)
}

func TestToUint64s(t *testing.T) {
	assert.Equal(t, []uint64{1, 5}, toUint64s([]uint{1, 5}))
	assert.Empty(t, toUint64s(nil))
}
