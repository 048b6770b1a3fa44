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

package loot

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

var (
	ErrInvalidCount    = errors.New("Count must be greater than 0") //nolint:staticcheck
	ErrInvalidPayment  = errors.New("Incorrect payment amount")     //nolint:staticcheck
	ErrSupplyExhausted = errors.New("supply exhausted")
	ErrLengthMismatch  = errors.New("ids and amounts length mismatch")
	ErrUnknownCategory = errors.New("unknown category")
	ErrZeroAddress     = errors.New("zero address")
	ErrNotInitialized  = errors.New("distributor not initialized")
)

// PaymentError reports an attached payment that differs from the crate price
// times the count
type PaymentError struct {
	Expected *uint256.Int
	Got      *uint256.Int
}

func (e PaymentError) Error() string {
	return fmt.Sprintf(
		"%s: expected %s wei, got %s wei",
		ErrInvalidPayment,
		e.Expected.Dec(),
		e.Got.Dec(),
	)
}

func (e PaymentError) Is(target error) bool {
	return target == ErrInvalidPayment
}
