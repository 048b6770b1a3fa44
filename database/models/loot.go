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

type LootConfig struct {
	Contract     []byte       `gorm:"uniqueIndex;size:20"`
	Price        types.Amount `gorm:"not null"`
	Proceeds     types.Amount `gorm:"not null"`
	ID           uint         `gorm:"primarykey"`
	CratesOpened uint64
}

func (LootConfig) TableName() string {
	return "loot_config"
}

type LootCategory struct {
	Contract   []byte `gorm:"uniqueIndex:idx_loot_category;size:20"`
	Name       string
	ID         uint   `gorm:"primarykey"`
	CategoryID uint64 `gorm:"uniqueIndex:idx_loot_category"`
	Weight     uint64
	MaxSupply  uint64
}

func (LootCategory) TableName() string {
	return "loot_category"
}
