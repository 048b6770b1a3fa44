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
	"github.com/holiman/uint256"
)

func (d *Database) TokenBalance(
	contract, account common.Address,
	txn *Txn,
) (*uint256.Int, error) {
	ret, err := d.metadata.GetTokenBalance(
		contract.Bytes(),
		account.Bytes(),
		metadataTxn(txn),
	)
	if err != nil {
		return nil, err
	}
	return ret.Uint256(), nil
}

func (d *Database) SetTokenBalance(
	contract, account common.Address,
	amount *uint256.Int,
	txn *Txn,
) error {
	return d.metadata.SetTokenBalance(
		contract.Bytes(),
		account.Bytes(),
		types.NewAmount(amount),
		metadataTxn(txn),
	)
}

func (d *Database) TokenSupply(
	contract common.Address,
	txn *Txn,
) (*uint256.Int, error) {
	ret, err := d.metadata.GetTokenSupply(contract.Bytes(), metadataTxn(txn))
	if err != nil {
		return nil, err
	}
	return ret.Uint256(), nil
}

func (d *Database) SetTokenSupply(
	contract common.Address,
	amount *uint256.Int,
	txn *Txn,
) error {
	return d.metadata.SetTokenSupply(
		contract.Bytes(),
		types.NewAmount(amount),
		metadataTxn(txn),
	)
}
