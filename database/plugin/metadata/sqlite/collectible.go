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

// GetCollectible returns nil when the token has not been minted
func (d *MetadataStoreSqlite) GetCollectible(
	contract []byte,
	tokenID uint64,
	txn types.Txn,
) (*models.Collectible, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.Collectible{}
	result := db.Where("contract = ? AND token_id = ?", contract, tokenID).
		First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

func (d *MetadataStoreSqlite) SetCollectible(
	collectible *models.Collectible,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	if collectible.ID != 0 {
		return db.Save(collectible).Error
	}
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "contract"}, {Name: "token_id"}},
		DoUpdates: clause.AssignmentColumns(
			[]string{"owner", "royalty_recipient"},
		),
	}).Create(collectible).Error
}

func (d *MetadataStoreSqlite) CountCollectibles(
	contract, owner []byte,
	txn types.Txn,
) (uint64, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return 0, err
	}
	var count int64
	result := db.Model(&models.Collectible{}).
		Where("contract = ? AND owner = ?", contract, owner).
		Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}
	return uint64(count), nil //nolint:gosec
}

// GetCollectibleConfig returns nil when no config has been stored
func (d *MetadataStoreSqlite) GetCollectibleConfig(
	contract []byte,
	txn types.Txn,
) (*models.CollectibleConfig, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.CollectibleConfig{}
	result := db.Where("contract = ?", contract).First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

func (d *MetadataStoreSqlite) SetCollectibleConfig(
	cfg *models.CollectibleConfig,
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
			[]string{"base_uri", "total_supply"},
		),
	}).Create(cfg).Error
}
