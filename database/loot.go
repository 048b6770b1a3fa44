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

package database

import (
	"github.com/blinklabs-io/metavault/database/models"
	"github.com/ethereum/go-ethereum/common"
)

func (d *Database) LootConfig(
	contract common.Address,
	txn *Txn,
) (*models.LootConfig, error) {
	return d.metadata.GetLootConfig(contract.Bytes(), metadataTxn(txn))
}

func (d *Database) SetLootConfig(cfg *models.LootConfig, txn *Txn) error {
	return d.metadata.SetLootConfig(cfg, metadataTxn(txn))
}

// LootCategories returns the categories ordered by id
func (d *Database) LootCategories(
	contract common.Address,
	txn *Txn,
) ([]models.LootCategory, error) {
	return d.metadata.GetLootCategories(contract.Bytes(), metadataTxn(txn))
}

func (d *Database) SetLootCategory(
	category *models.LootCategory,
	txn *Txn,
) error {
	return d.metadata.SetLootCategory(category, metadataTxn(txn))
}
