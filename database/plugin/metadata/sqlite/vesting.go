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

// GetVestingSchedule returns nil when the schedule does not exist
func (d *MetadataStoreSqlite) GetVestingSchedule(
	vault []byte,
	scheduleID uint64,
	txn types.Txn,
) (*models.VestingSchedule, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.VestingSchedule{}
	result := db.Where("vault = ? AND schedule_id = ?", vault, scheduleID).
		First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

func (d *MetadataStoreSqlite) GetVestingSchedulesByBeneficiary(
	vault, beneficiary []byte,
	txn types.Txn,
) ([]models.VestingSchedule, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.VestingSchedule
	result := db.Where("vault = ? AND beneficiary = ?", vault, beneficiary).
		Order("schedule_id").
		Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// SetVestingSchedule inserts a schedule or updates the claimed amount of an
// existing one. All other fields are immutable after creation
func (d *MetadataStoreSqlite) SetVestingSchedule(
	schedule *models.VestingSchedule,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	if schedule.ID != 0 {
		return db.Save(schedule).Error
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "vault"}, {Name: "schedule_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"claimed_amount"}),
	}).Create(schedule).Error
}
