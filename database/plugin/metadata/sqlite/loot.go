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

// GetLootConfig returns nil when the distributor has no stored config
func (d *MetadataStoreSqlite) GetLootConfig(
	contract []byte,
	txn types.Txn,
) (*models.LootConfig, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.LootConfig{}
	result := db.Where("contract = ?", contract).First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

func (d *MetadataStoreSqlite) SetLootConfig(
	cfg *models.LootConfig,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	if cfg.ID != 0 {
		return db.Save(cfg).Error
	}
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "contract"}},
		DoUpdates: clause.AssignmentColumns(
			[]string{"price", "proceeds", "crates_opened"},
		),
	}).Create(cfg).Error
}

func (d *MetadataStoreSqlite) GetLootCategories(
	contract []byte,
	txn types.Txn,
) ([]models.LootCategory, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.LootCategory
	result := db.Where("contract = ?", contract).
		Order("category_id").
		Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

func (d *MetadataStoreSqlite) SetLootCategory(
	category *models.LootCategory,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	if category.ID != 0 {
		return db.Save(category).Error
	}
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "contract"}, {Name: "category_id"}},
		DoUpdates: clause.AssignmentColumns(
			[]string{"name", "weight", "max_supply"},
		),
	}).Create(category).Error
}
