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

func (d *Database) ItemBalance(
	contract, account common.Address,
	categoryID uint64,
	txn *Txn,
) (uint64, error) {
	return d.metadata.GetItemBalance(
		contract.Bytes(),
		account.Bytes(),
		categoryID,
		metadataTxn(txn),
	)
}

func (d *Database) ItemBalances(
	contract, account common.Address,
	txn *Txn,
) ([]models.ItemBalance, error) {
	return d.metadata.GetItemBalances(
		contract.Bytes(),
		account.Bytes(),
		metadataTxn(txn),
	)
}

func (d *Database) SetItemBalance(
	contract, account common.Address,
	categoryID, amount uint64,
	txn *Txn,
) error {
	return d.metadata.SetItemBalance(
		contract.Bytes(),
		account.Bytes(),
		categoryID,
		amount,
		metadataTxn(txn),
	)
}

func (d *Database) ItemSupply(
	contract common.Address,
	categoryID uint64,
	txn *Txn,
) (uint64, error) {
	return d.metadata.GetItemSupply(contract.Bytes(), categoryID, metadataTxn(txn))
}

func (d *Database) SetItemSupply(
	contract common.Address,
	categoryID, minted uint64,
	txn *Txn,
) error {
	return d.metadata.SetItemSupply(
		contract.Bytes(),
		categoryID,
		minted,
		metadataTxn(txn),
	)
}
