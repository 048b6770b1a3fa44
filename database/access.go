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
	"github.com/blinklabs-io/metavault/database/types"
	"github.com/ethereum/go-ethereum/common"
)

// metadataTxn unwraps the metadata handle, nil when running outside of a
// transaction
func metadataTxn(txn *Txn) types.Txn {
	if txn == nil {
		return nil
	}
	return txn.Metadata()
}

func (d *Database) HasRole(
	contract common.Address,
	role common.Hash,
	account common.Address,
	txn *Txn,
) (bool, error) {
	return d.metadata.HasRole(
		contract.Bytes(),
		role.Bytes(),
		account.Bytes(),
		metadataTxn(txn),
	)
}

func (d *Database) SetRole(
	contract common.Address,
	role common.Hash,
	account common.Address,
	granted bool,
	txn *Txn,
) error {
	return d.metadata.SetRole(
		contract.Bytes(),
		role.Bytes(),
		account.Bytes(),
		granted,
		metadataTxn(txn),
	)
}

func (d *Database) Paused(contract common.Address, txn *Txn) (bool, error) {
	return d.metadata.GetPaused(contract.Bytes(), metadataTxn(txn))
}

func (d *Database) SetPaused(
	contract common.Address,
	paused bool,
	txn *Txn,
) error {
	return d.metadata.SetPaused(contract.Bytes(), paused, metadataTxn(txn))
}
