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

// VestingSchedule returns nil when no schedule exists with the given id
func (d *Database) VestingSchedule(
	vault common.Address,
	scheduleID uint64,
	txn *Txn,
) (*models.VestingSchedule, error) {
	return d.metadata.GetVestingSchedule(
		vault.Bytes(),
		scheduleID,
		metadataTxn(txn),
	)
}

func (d *Database) VestingSchedulesByBeneficiary(
	vault, beneficiary common.Address,
	txn *Txn,
) ([]models.VestingSchedule, error) {
	return d.metadata.GetVestingSchedulesByBeneficiary(
		vault.Bytes(),
		beneficiary.Bytes(),
		metadataTxn(txn),
	)
}

func (d *Database) SetVestingSchedule(
	schedule *models.VestingSchedule,
	txn *Txn,
) error {
	return d.metadata.SetVestingSchedule(schedule, metadataTxn(txn))
}
