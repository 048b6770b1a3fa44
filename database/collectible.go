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

func (d *Database) Collectible(
	contract common.Address,
	tokenID uint64,
	txn *Txn,
) (*models.Collectible, error) {
	return d.metadata.GetCollectible(contract.Bytes(), tokenID, metadataTxn(txn))
}

func (d *Database) SetCollectible(c *models.Collectible, txn *Txn) error {
	return d.metadata.SetCollectible(c, metadataTxn(txn))
}

func (d *Database) CollectibleCount(
	contract, owner common.Address,
	txn *Txn,
) (uint64, error) {
	return d.metadata.CountCollectibles(
		contract.Bytes(),
		owner.Bytes(),
		metadataTxn(txn),
	)
}

func (d *Database) CollectibleConfig(
	contract common.Address,
	txn *Txn,
) (*models.CollectibleConfig, error) {
	return d.metadata.GetCollectibleConfig(contract.Bytes(), metadataTxn(txn))
}

func (d *Database) SetCollectibleConfig(
	cfg *models.CollectibleConfig,
	txn *Txn,
) error {
	return d.metadata.SetCollectibleConfig(cfg, metadataTxn(txn))
}
