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

func (d *MetadataStoreSqlite) HasRole(
	contract, role, account []byte,
	txn types.Txn,
) (bool, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return false, err
	}
	var count int64
	result := db.Model(&models.RoleGrant{}).
		Where("contract = ? AND role = ? AND account = ?", contract, role, account).
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}

// SetRole grants or revokes a role. Revoking a role that was never granted is
// not an error
func (d *MetadataStoreSqlite) SetRole(
	contract, role, account []byte,
	granted bool,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	if !granted {
		return db.Where(
			"contract = ? AND role = ? AND account = ?",
			contract, role, account,
		).Delete(&models.RoleGrant{}).Error
	}
	tmpGrant := models.RoleGrant{
		Contract: contract,
		Role:     role,
		Account:  account,
	}
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "contract"},
			{Name: "role"},
			{Name: "account"},
		},
		DoNothing: true,
	}).Create(&tmpGrant).Error
}

func (d *MetadataStoreSqlite) GetPaused(
	contract []byte,
	txn types.Txn,
) (bool, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return false, err
	}
	var tmpState models.PauseState
	result := db.Where("contract = ?", contract).First(&tmpState)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, result.Error
	}
	return tmpState.Paused, nil
}

func (d *MetadataStoreSqlite) SetPaused(
	contract []byte,
	paused bool,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	tmpState := models.PauseState{
		Contract: contract,
		Paused:   paused,
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "contract"}},
		DoUpdates: clause.AssignmentColumns([]string{"paused"}),
	}).Create(&tmpState).Error
}
