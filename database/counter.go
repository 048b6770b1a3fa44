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

func (d *Database) Counter(name string, txn *Txn) (uint64, error) {
	return d.metadata.GetCounter(name, metadataTxn(txn))
}

func (d *Database) SetCounter(name string, value uint64, txn *Txn) error {
	return d.metadata.SetCounter(name, value, metadataTxn(txn))
}
