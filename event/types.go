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

package event

import "github.com/ethereum/go-ethereum/common"

const (
	RoleGrantedEventType       = EventType("access.role_granted")
	RoleRevokedEventType       = EventType("access.role_revoked")
	PausedEventType            = EventType("access.paused")
	UnpausedEventType          = EventType("access.unpaused")
	TokenTransferEventType     = EventType("token.transfer")
	ItemsCreditedEventType     = EventType("item.credited")
	CollectibleMintedEventType = EventType("collectible.minted")
	ScheduleCreatedEventType   = EventType("vesting.schedule_created")
	TokensClaimedEventType     = EventType("vesting.claimed")
	CratesOpenedEventType      = EventType("loot.crates_opened")
	BatchMintedEventType       = EventType("loot.batch_minted")
)

// DomainEventTypes lists every event type produced by the ledger components
func DomainEventTypes() []EventType {
	return []EventType{
		RoleGrantedEventType,
		RoleRevokedEventType,
		PausedEventType,
		UnpausedEventType,
		TokenTransferEventType,
		ItemsCreditedEventType,
		CollectibleMintedEventType,
		ScheduleCreatedEventType,
		TokensClaimedEventType,
		CratesOpenedEventType,
		BatchMintedEventType,
	}
}

type RoleEvent struct {
	Contract common.Address `json:"contract"`
	Role     common.Hash    `json:"role"`
	Account  common.Address `json:"account"`
	Sender   common.Address `json:"sender"`
}

type PauseEvent struct {
	Contract common.Address `json:"contract"`
	Account  common.Address `json:"account"`
}

// TokenTransferEvent covers mints (zero From) and burns (zero To) as well as
// transfers. Amount is a decimal string in base units
type TokenTransferEvent struct {
	Contract common.Address `json:"contract"`
	From     common.Address `json:"from"`
	To       common.Address `json:"to"`
	Amount   string         `json:"amount"`
}

type ItemAmount struct {
	CategoryID uint64 `json:"categoryId"`
	Amount     uint64 `json:"amount"`
}

type ItemsCreditedEvent struct {
	Contract common.Address `json:"contract"`
	Operator common.Address `json:"operator"`
	To       common.Address `json:"to"`
	Items    []ItemAmount   `json:"items"`
}

type CollectibleMintedEvent struct {
	Contract common.Address `json:"contract"`
	To       common.Address `json:"to"`
	TokenID  uint64         `json:"tokenId"`
}

type ScheduleCreatedEvent struct {
	Beneficiary common.Address `json:"beneficiary"`
	TotalAmount string         `json:"totalAmount"`
	ScheduleID  uint64         `json:"scheduleId"`
	Cliff       int64          `json:"cliff"`
	Duration    uint64         `json:"duration"`
}

type TokensClaimedEvent struct {
	Beneficiary   common.Address `json:"beneficiary"`
	Amount        string         `json:"amount"`
	ClaimedAmount string         `json:"claimedAmount"`
	ScheduleID    uint64         `json:"scheduleId"`
}

type CratesOpenedEvent struct {
	Buyer   common.Address `json:"buyer"`
	Payment string         `json:"payment"`
	Items   []ItemAmount   `json:"items"`
	Count   uint64         `json:"count"`
}

type BatchMintedEvent struct {
	Operator common.Address `json:"operator"`
	To       common.Address `json:"to"`
	Items    []ItemAmount   `json:"items"`
}
