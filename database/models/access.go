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

type RoleGrant struct {
	Contract []byte `gorm:"uniqueIndex:idx_role_grant;size:20"`
	Role     []byte `gorm:"uniqueIndex:idx_role_grant;size:32"`
	Account  []byte `gorm:"uniqueIndex:idx_role_grant;size:20"`
	ID       uint   `gorm:"primarykey"`
}

func (RoleGrant) TableName() string {
	return "role_grant"
}

type PauseState struct {
	Contract []byte `gorm:"uniqueIndex;size:20"`
	ID       uint   `gorm:"primarykey"`
	Paused   bool
}

func (PauseState) TableName() string {
	return "pause_state"
}
