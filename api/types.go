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

import "github.com/blinklabs-io/metavault/event"

// ErrorResponse is returned for every failed request
type ErrorResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
}

type HealthResponse struct {
	IsHealthy bool `json:"is_healthy"`
}

// Amounts are reported twice: as base units and as decimal tokens

type ScheduleResponse struct {
	Beneficiary         string `json:"beneficiary"`
	TotalAmount         string `json:"total_amount"`
	TotalAmountTokens   string `json:"total_amount_tokens"`
	ClaimedAmount       string `json:"claimed_amount"`
	ClaimedAmountTokens string `json:"claimed_amount_tokens"`
	Claimable           string `json:"claimable"`
	ID                  uint64 `json:"id"`
	Cliff               int64  `json:"cliff"`
	Duration            uint64 `json:"duration"`
}

type CreateScheduleRequest struct {
	From        string `json:"from"`
	Beneficiary string `json:"beneficiary"`
	// Amount is in tokens, e.g. "1000" or "0.5"
	Amount   string `json:"amount"`
	Cliff    int64  `json:"cliff"`
	Duration uint64 `json:"duration"`
}

type CreateScheduleResponse struct {
	ID uint64 `json:"id"`
}

type ClaimRequest struct {
	From string `json:"from"`
}

type ClaimResponse struct {
	Amount       string `json:"amount"`
	AmountTokens string `json:"amount_tokens"`
}

type BalanceResponse struct {
	Address       string `json:"address"`
	Balance       string `json:"balance"`
	BalanceTokens string `json:"balance_tokens"`
}

type CategoryResponse struct {
	Name      string `json:"name"`
	ID        uint64 `json:"id"`
	Weight    uint64 `json:"weight"`
	MaxSupply uint64 `json:"max_supply"`
	Minted    uint64 `json:"minted"`
	Remaining uint64 `json:"remaining"`
}

type CategoriesResponse struct {
	Price      string             `json:"price"`
	PriceEther string             `json:"price_ether"`
	Categories []CategoryResponse `json:"categories"`
}

type OpenCrateRequest struct {
	From string `json:"from"`
	// Payment is in ether, e.g. "0.02"
	Payment string `json:"payment"`
	Count   uint64 `json:"count"`
}

type OpenCrateResponse struct {
	Items []event.ItemAmount `json:"items"`
}

type MintBatchRequest struct {
	From    string   `json:"from"`
	To      string   `json:"to"`
	IDs     []uint64 `json:"ids"`
	Amounts []uint64 `json:"amounts"`
}

type ItemBalanceResponse struct {
	CategoryID uint64 `json:"category_id"`
	Amount     uint64 `json:"amount"`
}

type ItemsResponse struct {
	Address  string                `json:"address"`
	Balances []ItemBalanceResponse `json:"balances"`
}

type CollectibleResponse struct {
	Owner    string `json:"owner"`
	TokenURI string `json:"token_uri"`
	ID       uint64 `json:"id"`
}

type ReceiptResponse struct {
	Op        string `json:"op"`
	Caller    string `json:"caller"`
	Hash      string `json:"hash"`
	PrevHash  string `json:"prev_hash"`
	Seq       uint64 `json:"seq"`
	Timestamp int64  `json:"timestamp"`
}
