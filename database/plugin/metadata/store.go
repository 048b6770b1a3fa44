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

package metadata

import (
	"github.com/blinklabs-io/metavault/database/models"
	"github.com/blinklabs-io/metavault/database/types"
	"gorm.io/gorm"
)

// MetadataStore holds all relational state. Every accessor takes an optional
// transaction handle; nil runs the query outside of any transaction.
type MetadataStore interface {
	// Database
	Close() error
	DB() *gorm.DB
	GetCommitTimestamp() (int64, error)
	SetCommitTimestamp(int64, types.Txn) error
	Transaction() types.Txn

	// Deployment
	GetDeployment(types.Txn) (*models.Deployment, error)
	SetDeployment(*models.Deployment, types.Txn) error

	// Access control
	HasRole(contract, role, account []byte, txn types.Txn) (bool, error)
	SetRole(contract, role, account []byte, granted bool, txn types.Txn) error
	GetPaused(contract []byte, txn types.Txn) (bool, error)
	SetPaused(contract []byte, paused bool, txn types.Txn) error

	// Counters
	GetCounter(name string, txn types.Txn) (uint64, error)
	SetCounter(name string, value uint64, txn types.Txn) error

	// Fungible token
	GetTokenBalance(contract, account []byte, txn types.Txn) (types.Amount, error)
	SetTokenBalance(contract, account []byte, amount types.Amount, txn types.Txn) error
	GetTokenSupply(contract []byte, txn types.Txn) (types.Amount, error)
	SetTokenSupply(contract []byte, amount types.Amount, txn types.Txn) error

	// Vesting
	GetVestingSchedule(vault []byte, scheduleID uint64, txn types.Txn) (*models.VestingSchedule, error)
	GetVestingSchedulesByBeneficiary(vault, beneficiary []byte, txn types.Txn) ([]models.VestingSchedule, error)
	SetVestingSchedule(*models.VestingSchedule, types.Txn) error

	// Items
	GetItemBalance(contract, account []byte, categoryID uint64, txn types.Txn) (uint64, error)
	GetItemBalances(contract, account []byte, txn types.Txn) ([]models.ItemBalance, error)
	SetItemBalance(contract, account []byte, categoryID, amount uint64, txn types.Txn) error
	GetItemSupply(contract []byte, categoryID uint64, txn types.Txn) (uint64, error)
	SetItemSupply(contract []byte, categoryID, minted uint64, txn types.Txn) error

	// Loot
	GetLootConfig(contract []byte, txn types.Txn) (*models.LootConfig, error)
	SetLootConfig(*models.LootConfig, types.Txn) error
	GetLootCategories(contract []byte, txn types.Txn) ([]models.LootCategory, error)
	SetLootCategory(*models.LootCategory, types.Txn) error

	// Collectibles
	GetCollectible(contract []byte, tokenID uint64, txn types.Txn) (*models.Collectible, error)
	SetCollectible(*models.Collectible, types.Txn) error
	CountCollectibles(contract, owner []byte, txn types.Txn) (uint64, error)
	GetCollectibleConfig(contract []byte, txn types.Txn) (*models.CollectibleConfig, error)
	SetCollectibleConfig(*models.CollectibleConfig, types.Txn) error
}
