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

import "github.com/ethereum/go-ethereum/common"

// Operation identifies a top-level state change in the receipt journal
type Operation struct {
	Name      string
	Caller    common.Address
	Timestamp int64
}

// Apply runs fn as part of txn. With a nil txn, fn runs in its own Update and
// the value it returns is recorded in the receipt journal in the same
// transaction. Nested operations leave no receipt of their own
func (d *Database) Apply(
	op Operation,
	txn *Txn,
	fn func(*Txn) (any, error),
) error {
	if txn != nil {
		_, err := fn(txn)
		return err
	}
	return d.Update(func(txn *Txn) error {
		data, err := fn(txn)
		if err != nil {
			return err
		}
		_, err = d.AppendReceipt(op.Name, op.Caller, op.Timestamp, data, txn)
		return err
	})
}
