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

package types

import (
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

// Amount is a 256-bit unsigned integer stored as a decimal string column
type Amount struct {
	*uint256.Int
}

// NewAmount returns an Amount holding a copy of v
func NewAmount(v *uint256.Int) Amount {
	if v == nil {
		return Amount{Int: new(uint256.Int)}
	}
	return Amount{Int: new(uint256.Int).Set(v)}
}

// Uint256 returns a copy of the underlying value, zero when unset
func (a Amount) Uint256() *uint256.Int {
	if a.Int == nil {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(a.Int)
}

func (a Amount) String() string {
	if a.Int == nil {
		return "0"
	}
	return a.Dec()
}

func (Amount) GormDataType() string {
	return "text"
}

func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}

func (a *Amount) Scan(val any) error {
	var str string
	switch v := val.(type) {
	case string:
		str = v
	case []byte:
		str = string(v)
	case int64:
		if v < 0 {
			return fmt.Errorf("negative amount value: %d", v)
		}
		a.Int = uint256.NewInt(uint64(v))
		return nil
	case nil:
		a.Int = new(uint256.Int)
		return nil
	default:
		return fmt.Errorf(
			"value was not expected type, wanted string, got %T",
			val,
		)
	}
	if str == "" {
		a.Int = new(uint256.Int)
		return nil
	}
	tmp, err := uint256.FromDecimal(str)
	if err != nil {
		return fmt.Errorf("failed to set uint256 value from string: %s: %w", str, err)
	}
	a.Int = tmp
	return nil
}

var ErrBlobKeyNotFound = errors.New("blob key not found")

var ErrTxnWrongType = errors.New("invalid transaction type")

var ErrNilTxn = errors.New("nil transaction")

var ErrNoStoreAvailable = errors.New("no store available")

var ErrBlobStoreUnavailable = errors.New("blob store unavailable")

type BlobItem interface {
	Key() []byte
	ValueCopy(dst []byte) ([]byte, error)
}

type BlobIterator interface {
	Rewind()
	Seek(prefix []byte)
	Valid() bool
	ValidForPrefix(prefix []byte) bool
	Next()
	Item() BlobItem
	Close()
	Err() error
}

type BlobIteratorOptions struct {
	Prefix  []byte
	Reverse bool
}

type Txn interface {
	Commit() error
	Rollback() error
}
