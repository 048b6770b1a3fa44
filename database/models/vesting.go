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

package models

import "github.com/blinklabs-io/metavault/database/types"

type VestingSchedule struct {
	Vault         []byte       `gorm:"uniqueIndex:idx_vesting_schedule;size:20"`
	Beneficiary   []byte       `gorm:"index;size:20"`
	TotalAmount   types.Amount `gorm:"not null"`
	ClaimedAmount types.Amount `gorm:"not null"`
	ID            uint         `gorm:"primarykey"`
	ScheduleID    uint64       `gorm:"uniqueIndex:idx_vesting_schedule"`
	Cliff         int64
	Duration      uint64
	CreatedAt     int64        `gorm:"autoCreateTime:false"`
}

func (VestingSchedule) TableName() string {
	return "vesting_schedule"
}
