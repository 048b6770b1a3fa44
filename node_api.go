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

package metavault

import (
	"context"

	"github.com/blinklabs-io/metavault/api"
	"github.com/blinklabs-io/metavault/database"
	"github.com/blinklabs-io/metavault/event"
	"github.com/blinklabs-io/metavault/item"
	"github.com/blinklabs-io/metavault/loot"
	"github.com/blinklabs-io/metavault/vesting"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// The methods below satisfy api.Node. Each one runs as its own top-level
// operation and leaves one receipt when it changes state

var _ api.Node = (*Node)(nil)

func (n *Node) CreateSchedule(
	ctx context.Context,
	caller, beneficiary common.Address,
	cliff int64,
	duration uint64,
	amount *uint256.Int,
) (uint64, error) {
	return n.vault.CreateSchedule(ctx, caller, beneficiary, cliff, duration, amount, nil)
}

func (n *Node) ClaimVested(
	ctx context.Context,
	caller common.Address,
	scheduleID uint64,
) (*uint256.Int, error) {
	return n.vault.Claim(ctx, caller, scheduleID, nil)
}

func (n *Node) Schedule(scheduleID uint64) (vesting.Schedule, error) {
	return n.vault.Schedule(scheduleID, nil)
}

func (n *Node) Claimable(scheduleID uint64) (*uint256.Int, error) {
	return n.vault.Claimable(scheduleID, nil)
}

func (n *Node) TokenBalance(account common.Address) (*uint256.Int, error) {
	return n.token.BalanceOf(account, nil)
}

func (n *Node) CratePrice() (*uint256.Int, error) {
	return n.distributor.Price(nil)
}

func (n *Node) CrateCategories() ([]loot.CategoryStatus, error) {
	return n.distributor.Categories(nil)
}

func (n *Node) OpenCrate(
	ctx context.Context,
	caller common.Address,
	count uint64,
	payment *uint256.Int,
) ([]event.ItemAmount, error) {
	return n.distributor.OpenCrate(ctx, caller, count, payment, nil)
}

func (n *Node) MintItems(
	ctx context.Context,
	caller, to common.Address,
	ids, amounts []uint64,
) error {
	return n.distributor.MintBatch(ctx, caller, to, ids, amounts, nil)
}

func (n *Node) ItemBalances(account common.Address) ([]item.Balance, error) {
	return n.items.Balances(account, nil)
}

func (n *Node) Collectible(tokenID uint64) (api.CollectibleInfo, error) {
	owner, err := n.collectible.OwnerOf(tokenID, nil)
	if err != nil {
		return api.CollectibleInfo{}, err
	}
	uri, err := n.collectible.TokenURI(tokenID, nil)
	if err != nil {
		return api.CollectibleInfo{}, err
	}
	return api.CollectibleInfo{
		TokenID:  tokenID,
		Owner:    owner,
		TokenURI: uri,
	}, nil
}

func (n *Node) Receipts(from uint64, limit int) ([]database.Receipt, error) {
	return n.db.Receipts(from, limit)
}
