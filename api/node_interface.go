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

package api

import (
	"context"

	"github.com/blinklabs-io/metavault/database"
	"github.com/blinklabs-io/metavault/event"
	"github.com/blinklabs-io/metavault/item"
	"github.com/blinklabs-io/metavault/loot"
	"github.com/blinklabs-io/metavault/vesting"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Node is what the API server needs from the running ledger. It keeps the
// HTTP layer independent of how the engines are wired together
type Node interface {
	CreateSchedule(
		ctx context.Context,
		caller, beneficiary common.Address,
		cliff int64,
		duration uint64,
		amount *uint256.Int,
	) (uint64, error)
	ClaimVested(ctx context.Context, caller common.Address, scheduleID uint64) (*uint256.Int, error)
	Schedule(scheduleID uint64) (vesting.Schedule, error)
	Claimable(scheduleID uint64) (*uint256.Int, error)

	TokenBalance(account common.Address) (*uint256.Int, error)

	CratePrice() (*uint256.Int, error)
	CrateCategories() ([]loot.CategoryStatus, error)
	OpenCrate(
		ctx context.Context,
		caller common.Address,
		count uint64,
		payment *uint256.Int,
	) ([]event.ItemAmount, error)
	MintItems(
		ctx context.Context,
		caller, to common.Address,
		ids, amounts []uint64,
	) error
	ItemBalances(account common.Address) ([]item.Balance, error)

	Collectible(tokenID uint64) (CollectibleInfo, error)

	Receipts(from uint64, limit int) ([]database.Receipt, error)
}

// CollectibleInfo holds the collectible data needed by the API
type CollectibleInfo struct {
	TokenURI string
	TokenID  uint64
	Owner    common.Address
}
