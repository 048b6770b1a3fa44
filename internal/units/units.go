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

// Package units converts between decimal token strings and 18-decimal base
// units.
package units

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

const Decimals = 18

var (
	ErrNegative  = errors.New("amount must not be negative")
	ErrPrecision = errors.New("amount has more than 18 decimal places")
	ErrTooLarge  = errors.New("amount does not fit in 256 bits")
)

// Parse converts a decimal string such as "0.02" into base units
func Parse(s string) (*uint256.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return nil, ErrNegative
	}
	scaled := d.Shift(Decimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, ErrPrecision
	}
	ret, overflow := uint256.FromBig(scaled.BigInt())
	if overflow {
		return nil, ErrTooLarge
	}
	return ret, nil
}

// ParseBase accepts an integer string already in base units
func ParseBase(s string) (*uint256.Int, error) {
	ret, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("parse base amount %q: %w", s, err)
	}
	return ret, nil
}

// Format renders base units as a decimal string without trailing zeros
func Format(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return decimal.NewFromBigInt(v.ToBig(), -Decimals).String()
}
