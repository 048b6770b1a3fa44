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

// Deployment marks a database as initialized for a given owner
type Deployment struct {
	Owner      []byte `gorm:"size:20"`
	ID         uint   `gorm:"primarykey"`
	DeployedAt int64
}

func (Deployment) TableName() string {
	return "deployment"
}
