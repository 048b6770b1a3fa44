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

package vesting

import (
	"github.com/blinklabs-io/metavault/database/models"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Schedule releases TotalAmount linearly over Duration seconds starting at
// Cliff. Only ClaimedAmount changes after creation
type Schedule struct {
	TotalAmount   *uint256.Int
	ClaimedAmount *uint256.Int
	ID            uint64
	Beneficiary   common.Address
	Cliff         int64
	Duration      uint64
	CreatedAt     int64
}

func scheduleFromModel(m *models.VestingSchedule) Schedule {
	return Schedule{
		ID:            m.ScheduleID,
		Beneficiary:   common.BytesToAddress(m.Beneficiary),
		Cliff:         m.Cliff,
		Duration:      m.Duration,
		TotalAmount:   m.TotalAmount.Uint256(),
		ClaimedAmount: m.ClaimedAmount.Uint256(),
		CreatedAt:     m.CreatedAt,
	}
}

// VestedAmount returns the amount released by now, rounding down. Nothing is
// vested before the cliff and everything is vested once Duration has elapsed
func VestedAmount(s Schedule, now int64) *uint256.Int {
	if s.TotalAmount == nil || now < s.Cliff {
		return new(uint256.Int)
	}
	elapsed := uint64(now - s.Cliff) //nolint:gosec
	if elapsed >= s.Duration {
		return new(uint256.Int).Set(s.TotalAmount)
	}
	// The 512-bit intermediate product cannot overflow and the quotient is
	// below TotalAmount
	ret, _ := new(uint256.Int).MulDivOverflow(
		s.TotalAmount,
		uint256.NewInt(elapsed),
		uint256.NewInt(s.Duration),
	)
	return ret
}

// ClaimableAmount is the vested amount not yet paid out
func ClaimableAmount(s Schedule, now int64) *uint256.Int {
	vested := VestedAmount(s, now)
	if s.ClaimedAmount == nil {
		return vested
	}
	if vested.Lt(s.ClaimedAmount) {
		return new(uint256.Int)
	}
	return vested.Sub(vested, s.ClaimedAmount)
}
