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

package sqlite

import (
	"errors"

	"github.com/blinklabs-io/metavault/database/models"
	"github.com/blinklabs-io/metavault/database/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (d *MetadataStoreSqlite) GetTokenBalance(
	contract, account []byte,
	txn types.Txn,
) (types.Amount, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return types.Amount{}, err
	}
	var tmpBalance models.TokenBalance
	result := db.Where("contract = ? AND account = ?", contract, account).
		First(&tmpBalance)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return types.NewAmount(nil), nil
		}
		return types.Amount{}, result.Error
	}
	return tmpBalance.Amount, nil
}

func (d *MetadataStoreSqlite) SetTokenBalance(
	contract, account []byte,
	amount types.Amount,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	tmpBalance := models.TokenBalance{
		Contract: contract,
		Account:  account,
		Amount:   amount,
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "contract"}, {Name: "account"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount"}),
	}).Create(&tmpBalance).Error
}

func (d *MetadataStoreSqlite) GetTokenSupply(
	contract []byte,
	txn types.Txn,
) (types.Amount, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return types.Amount{}, err
	}
	var tmpSupply models.TokenSupply
	result := db.Where("contract = ?", contract).First(&tmpSupply)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return types.NewAmount(nil), nil
		}
		return types.Amount{}, result.Error
	}
	return tmpSupply.Total, nil
}

func (d *MetadataStoreSqlite) SetTokenSupply(
	contract []byte,
	amount types.Amount,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	tmpSupply := models.TokenSupply{
		Contract: contract,
		Total:    amount,
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "contract"}},
		DoUpdates: clause.AssignmentColumns([]string{"total"}),
	}).Create(&tmpSupply).Error
}
