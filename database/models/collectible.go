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

type Collectible struct {
	Contract         []byte `gorm:"uniqueIndex:idx_collectible;size:20"`
	Owner            []byte `gorm:"index;size:20"`
	RoyaltyRecipient []byte `gorm:"size:20"`
	ID               uint   `gorm:"primarykey"`
	TokenID          uint64 `gorm:"uniqueIndex:idx_collectible"`
}

func (Collectible) TableName() string {
	return "collectible"
}

type CollectibleConfig struct {
	Contract    []byte `gorm:"uniqueIndex;size:20"`
	BaseURI     string
	ID          uint `gorm:"primarykey"`
	TotalSupply uint64
}

func (CollectibleConfig) TableName() string {
	return "collectible_config"
}
