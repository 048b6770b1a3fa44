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

type TokenBalance struct {
	Contract []byte       `gorm:"uniqueIndex:idx_token_balance;size:20"`
	Account  []byte       `gorm:"uniqueIndex:idx_token_balance;size:20"`
	Amount   types.Amount `gorm:"not null"`
	ID       uint         `gorm:"primarykey"`
}

func (TokenBalance) TableName() string {
	return "token_balance"
}

type TokenSupply struct {
	Contract []byte       `gorm:"uniqueIndex;size:20"`
	Total    types.Amount `gorm:"not null"`
	ID       uint         `gorm:"primarykey"`
}

func (TokenSupply) TableName() string {
	return "token_supply"
}
