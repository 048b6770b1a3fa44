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

package loot

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/holiman/uint256"
)

// Category is an item category with a fixed draw weight and supply cap
type Category struct {
	Name      string
	ID        uint64
	Weight    uint64
	MaxSupply uint64
}

// CategoryStatus is a category together with its current mint count
type CategoryStatus struct {
	Category
	Minted    uint64
	Remaining uint64
}

// DefaultPrice is 0.02 ether in wei
var DefaultPrice = uint256.NewInt(20_000_000_000_000_000)

func DefaultCategories() []Category {
	return []Category{
		{ID: 1, Name: "Sword", MaxSupply: 5000, Weight: 40},
		{ID: 2, Name: "Shield", MaxSupply: 5000, Weight: 40},
		{ID: 3, Name: "Cosmetics", MaxSupply: 1, Weight: 1},
		{ID: 4, Name: "Helmet", MaxSupply: 1000, Weight: 15},
		{ID: 5, Name: "Mount", MaxSupply: 100, Weight: 4},
	}
}

// ValidateCategories checks that ids are unique and ascending from 1 and
// that every category can be drawn. Total supply and total weight must fit
// in a uint64
func ValidateCategories(categories []Category) error {
	if len(categories) == 0 {
		return errors.New("at least one category is required")
	}
	var totalSupply, totalWeight, carry uint64
	for idx, c := range categories {
		if c.ID != uint64(idx)+1 {
			return fmt.Errorf("category %q: expected id %d, got %d", c.Name, idx+1, c.ID)
		}
		if c.Weight == 0 {
			return fmt.Errorf("category %d: weight must be positive", c.ID)
		}
		if c.MaxSupply == 0 {
			return fmt.Errorf("category %d: max supply must be positive", c.ID)
		}
		totalSupply, carry = bits.Add64(totalSupply, c.MaxSupply, 0)
		if carry != 0 {
			return fmt.Errorf("category %d: total max supply overflows", c.ID)
		}
		totalWeight, carry = bits.Add64(totalWeight, c.Weight, 0)
		if carry != 0 {
			return fmt.Errorf("category %d: total weight overflows", c.ID)
		}
	}
	return nil
}

// drawState tracks remaining capacity while a crate batch is drawn
type drawState struct {
	categories []Category
	remaining  []uint64
}

func newDrawState(statuses []CategoryStatus) *drawState {
	s := &drawState{
		categories: make([]Category, len(statuses)),
		remaining:  make([]uint64, len(statuses)),
	}
	for idx, st := range statuses {
		s.categories[idx] = st.Category
		s.remaining[idx] = st.Remaining
	}
	return s
}

func (s *drawState) capacity() uint64 {
	var ret uint64
	for _, r := range s.remaining {
		ret += r
	}
	return ret
}

func (s *drawState) totalWeight() uint64 {
	var ret uint64
	for idx, c := range s.categories {
		if s.remaining[idx] > 0 {
			ret += c.Weight
		}
	}
	return ret
}

// pick maps a random value onto the available categories by cumulative
// weight in ascending id order and consumes one unit of the winner
func (s *drawState) pick(value *uint256.Int) (uint64, error) {
	total := s.totalWeight()
	if total == 0 {
		return 0, ErrSupplyExhausted
	}
	r := new(uint256.Int).Mod(value, uint256.NewInt(total)).Uint64()
	var cumulative uint64
	for idx, c := range s.categories {
		if s.remaining[idx] == 0 {
			continue
		}
		cumulative += c.Weight
		if r < cumulative {
			s.remaining[idx]--
			return c.ID, nil
		}
	}
	// Unreachable while r < total
	return 0, ErrSupplyExhausted
}
