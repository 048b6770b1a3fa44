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

// Package random derives the pseudo-random values used for crate draws.
//
// Every input to Keccak is observable by anyone who can read the receipt
// journal and predict the ledger time. The output is therefore NOT
// cryptographically unpredictable: a caller who controls timing can precompute
// outcomes. It is suitable for simulation and games where this is accepted.
package random

import (
	"encoding/binary"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// Seed holds the inputs of one draw
type Seed struct {
	// Entropy is the block-level entropy, the receipt journal head
	Entropy   common.Hash
	Caller    common.Address
	Timestamp int64
	Nonce     uint64
}

type Source interface {
	Uint256(seed Seed) *uint256.Int
}

// Keccak hashes entropy, timestamp, caller and nonce, packed the way the
// values are laid out in 32-byte words with the address left unpadded
type Keccak struct{}

func (Keccak) Uint256(seed Seed) *uint256.Int {
	var tsWord, nonceWord [32]byte
	binary.BigEndian.PutUint64(tsWord[24:], uint64(seed.Timestamp)) //nolint:gosec
	binary.BigEndian.PutUint64(nonceWord[24:], seed.Nonce)
	digest := crypto.Keccak256(
		seed.Entropy.Bytes(),
		tsWord[:],
		seed.Caller.Bytes(),
		nonceWord[:],
	)
	return new(uint256.Int).SetBytes32(digest)
}

// Sequence replays a fixed list of values in order, wrapping around. It
// ignores the seed
type Sequence struct {
	values []uint64
	idx    int
	mu     sync.Mutex
}

func NewSequence(values ...uint64) *Sequence {
	if len(values) == 0 {
		values = []uint64{0}
	}
	return &Sequence{values: values}
}

func (s *Sequence) Uint256(Seed) *uint256.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	ret := uint256.NewInt(s.values[s.idx])
	s.idx = (s.idx + 1) % len(s.values)
	return ret
}
