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

func (d *MetadataStoreSqlite) GetItemBalance(
	contract, account []byte,
	categoryID uint64,
	txn types.Txn,
) (uint64, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return 0, err
	}
	var tmpBalance models.ItemBalance
	result := db.Where(
		"contract = ? AND account = ? AND category_id = ?",
		contract, account, categoryID,
	).First(&tmpBalance)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, result.Error
	}
	return tmpBalance.Amount, nil
}

// GetItemBalances returns all non-zero balances for an account ordered by
// category
func (d *MetadataStoreSqlite) GetItemBalances(
	contract, account []byte,
	txn types.Txn,
) ([]models.ItemBalance, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.ItemBalance
	result := db.Where(
		"contract = ? AND account = ? AND amount > 0",
		contract, account,
	).Order("category_id").Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

func (d *MetadataStoreSqlite) SetItemBalance(
	contract, account []byte,
	categoryID, amount uint64,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	tmpBalance := models.ItemBalance{
		Contract:   contract,
		Account:    account,
		CategoryID: categoryID,
		Amount:     amount,
	}
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "contract"},
			{Name: "account"},
			{Name: "category_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"amount"}),
	}).Create(&tmpBalance).Error
}

func (d *MetadataStoreSqlite) GetItemSupply(
	contract []byte,
	categoryID uint64,
	txn types.Txn,
) (uint64, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return 0, err
	}
	var tmpSupply models.ItemSupply
	result := db.Where("contract = ? AND category_id = ?", contract, categoryID).
		First(&tmpSupply)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, result.Error
	}
	return tmpSupply.Minted, nil
}

func (d *MetadataStoreSqlite) SetItemSupply(
	contract []byte,
	categoryID, minted uint64,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	tmpSupply := models.ItemSupply{
		Contract:   contract,
		CategoryID: categoryID,
		Minted:     minted,
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "contract"}, {Name: "category_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"minted"}),
	}).Create(&tmpSupply).Error
}
