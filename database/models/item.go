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

type ItemBalance struct {
	Contract   []byte `gorm:"uniqueIndex:idx_item_balance;size:20"`
	Account    []byte `gorm:"uniqueIndex:idx_item_balance;size:20"`
	ID         uint   `gorm:"primarykey"`
	CategoryID uint64 `gorm:"uniqueIndex:idx_item_balance"`
	Amount     uint64
}

func (ItemBalance) TableName() string {
	return "item_balance"
}

// ItemSupply tracks the cumulative units ever credited for a category
type ItemSupply struct {
	Contract   []byte `gorm:"uniqueIndex:idx_item_supply;size:20"`
	ID         uint   `gorm:"primarykey"`
	CategoryID uint64 `gorm:"uniqueIndex:idx_item_supply"`
	Minted     uint64
}

func (ItemSupply) TableName() string {
	return "item_supply"
}
