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

package api

import (
	"errors"
	"net/http"

	"github.com/blinklabs-io/metavault/access"
	"github.com/blinklabs-io/metavault/collectible"
	"github.com/blinklabs-io/metavault/item"
	"github.com/blinklabs-io/metavault/loot"
	"github.com/blinklabs-io/metavault/token"
	"github.com/blinklabs-io/metavault/vesting"
)

var errBadRequest = errors.New("bad request")

// statusFor maps an engine error onto an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, vesting.ErrInvalidBeneficiary),
		errors.Is(err, vesting.ErrInvalidSchedule),
		errors.Is(err, loot.ErrInvalidCount),
		errors.Is(err, loot.ErrLengthMismatch),
		errors.Is(err, loot.ErrUnknownCategory),
		errors.Is(err, loot.ErrZeroAddress),
		errors.Is(err, item.ErrLengthMismatch),
		errors.Is(err, item.ErrZeroAddress),
		errors.Is(err, token.ErrZeroAddress),
		errors.Is(err, collectible.ErrZeroAddress):
		return http.StatusBadRequest
	case errors.Is(err, loot.ErrInvalidPayment):
		return http.StatusPaymentRequired
	case errors.Is(err, access.ErrUnauthorized),
		errors.Is(err, vesting.ErrNotEligible),
		errors.Is(err, collectible.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, vesting.ErrScheduleNotFound),
		errors.Is(err, collectible.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, loot.ErrSupplyExhausted),
		errors.Is(err, access.ErrPaused),
		errors.Is(err, collectible.ErrMaxSupply),
		errors.Is(err, token.ErrInsufficientBalance):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
