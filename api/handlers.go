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
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/blinklabs-io/metavault/internal/units"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const maxRequestBytes = 1 << 20

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      http.StatusText(status),
		Message:    message,
	})
}

// writeEngineError reports an engine error with its mapped status. Server
// errors are logged and their detail withheld
func (s *Server) writeEngineError(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(op+" failed", "error", err)
		writeError(w, status, op+" failed")
		return
	}
	writeError(w, status, err.Error())
}

func decodeRequest(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %s", errBadRequest, err.Error())
	}
	return nil
}

func parseAddress(name, value string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("%w: invalid %s address %q", errBadRequest, name, value)
	}
	return common.HexToAddress(value), nil
}

func parseID(r *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid id %q", errBadRequest, r.PathValue("id"))
	}
	return id, nil
}

func parseAmount(value string) (*uint256.Int, error) {
	if value == "" {
		return uint256.NewInt(0), nil
	}
	ret, err := units.Parse(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errBadRequest, err.Error())
	}
	return ret, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{IsHealthy: true})
}

func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeEngineError(w, "get schedule", err)
		return
	}
	schedule, err := s.node.Schedule(id)
	if err != nil {
		s.writeEngineError(w, "get schedule", err)
		return
	}
	claimable, err := s.node.Claimable(id)
	if err != nil {
		s.writeEngineError(w, "get schedule", err)
		return
	}
	writeJSON(w, http.StatusOK, ScheduleResponse{
		ID:                  schedule.ID,
		Beneficiary:         schedule.Beneficiary.Hex(),
		Cliff:               schedule.Cliff,
		Duration:            schedule.Duration,
		TotalAmount:         schedule.TotalAmount.Dec(),
		TotalAmountTokens:   units.Format(schedule.TotalAmount),
		ClaimedAmount:       schedule.ClaimedAmount.Dec(),
		ClaimedAmountTokens: units.Format(schedule.ClaimedAmount),
		Claimable:           claimable.Dec(),
	})
}

func (s *Server) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req CreateScheduleRequest
	if err := decodeRequest(w, r, &req); err != nil {
		s.writeEngineError(w, "create schedule", err)
		return
	}
	from, err := parseAddress("from", req.From)
	if err != nil {
		s.writeEngineError(w, "create schedule", err)
		return
	}
	beneficiary, err := parseAddress("beneficiary", req.Beneficiary)
	if err != nil {
		s.writeEngineError(w, "create schedule", err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		s.writeEngineError(w, "create schedule", err)
		return
	}
	id, err := s.node.CreateSchedule(
		r.Context(),
		from,
		beneficiary,
		req.Cliff,
		req.Duration,
		amount,
	)
	if err != nil {
		s.writeEngineError(w, "create schedule", err)
		return
	}
	writeJSON(w, http.StatusCreated, CreateScheduleResponse{ID: id})
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeEngineError(w, "claim", err)
		return
	}
	var req ClaimRequest
	if err := decodeRequest(w, r, &req); err != nil {
		s.writeEngineError(w, "claim", err)
		return
	}
	from, err := parseAddress("from", req.From)
	if err != nil {
		s.writeEngineError(w, "claim", err)
		return
	}
	amount, err := s.node.ClaimVested(r.Context(), from, id)
	if err != nil {
		s.writeEngineError(w, "claim", err)
		return
	}
	writeJSON(w, http.StatusOK, ClaimResponse{
		Amount:       amount.Dec(),
		AmountTokens: units.Format(amount),
	})
}

func (s *Server) handleTokenBalance(w http.ResponseWriter, r *http.Request) {
	account, err := parseAddress("account", r.PathValue("address"))
	if err != nil {
		s.writeEngineError(w, "token balance", err)
		return
	}
	balance, err := s.node.TokenBalance(account)
	if err != nil {
		s.writeEngineError(w, "token balance", err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceResponse{
		Address:       account.Hex(),
		Balance:       balance.Dec(),
		BalanceTokens: units.Format(balance),
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, _ *http.Request) {
	price, err := s.node.CratePrice()
	if err != nil {
		s.writeEngineError(w, "crate categories", err)
		return
	}
	statuses, err := s.node.CrateCategories()
	if err != nil {
		s.writeEngineError(w, "crate categories", err)
		return
	}
	resp := CategoriesResponse{
		Price:      price.Dec(),
		PriceEther: units.Format(price),
		Categories: make([]CategoryResponse, 0, len(statuses)),
	}
	for _, st := range statuses {
		resp.Categories = append(resp.Categories, CategoryResponse{
			Name:      st.Name,
			ID:        st.ID,
			Weight:    st.Weight,
			MaxSupply: st.MaxSupply,
			Minted:    st.Minted,
			Remaining: st.Remaining,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleOpenCrate(w http.ResponseWriter, r *http.Request) {
	var req OpenCrateRequest
	if err := decodeRequest(w, r, &req); err != nil {
		s.writeEngineError(w, "open crate", err)
		return
	}
	from, err := parseAddress("from", req.From)
	if err != nil {
		s.writeEngineError(w, "open crate", err)
		return
	}
	payment, err := parseAmount(req.Payment)
	if err != nil {
		s.writeEngineError(w, "open crate", err)
		return
	}
	items, err := s.node.OpenCrate(r.Context(), from, req.Count, payment)
	if err != nil {
		s.writeEngineError(w, "open crate", err)
		return
	}
	writeJSON(w, http.StatusOK, OpenCrateResponse{Items: items})
}

func (s *Server) handleMintBatch(w http.ResponseWriter, r *http.Request) {
	var req MintBatchRequest
	if err := decodeRequest(w, r, &req); err != nil {
		s.writeEngineError(w, "mint batch", err)
		return
	}
	from, err := parseAddress("from", req.From)
	if err != nil {
		s.writeEngineError(w, "mint batch", err)
		return
	}
	to, err := parseAddress("to", req.To)
	if err != nil {
		s.writeEngineError(w, "mint batch", err)
		return
	}
	if err := s.node.MintItems(r.Context(), from, to, req.IDs, req.Amounts); err != nil {
		s.writeEngineError(w, "mint batch", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	account, err := parseAddress("account", r.PathValue("address"))
	if err != nil {
		s.writeEngineError(w, "item balances", err)
		return
	}
	balances, err := s.node.ItemBalances(account)
	if err != nil {
		s.writeEngineError(w, "item balances", err)
		return
	}
	resp := ItemsResponse{
		Address:  account.Hex(),
		Balances: make([]ItemBalanceResponse, 0, len(balances)),
	}
	for _, b := range balances {
		resp.Balances = append(resp.Balances, ItemBalanceResponse{
			CategoryID: b.CategoryID,
			Amount:     b.Amount,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCollectible(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeEngineError(w, "get collectible", err)
		return
	}
	info, err := s.node.Collectible(id)
	if err != nil {
		s.writeEngineError(w, "get collectible", err)
		return
	}
	writeJSON(w, http.StatusOK, CollectibleResponse{
		ID:       info.TokenID,
		Owner:    info.Owner.Hex(),
		TokenURI: info.TokenURI,
	})
}

func (s *Server) handleReceipts(w http.ResponseWriter, r *http.Request) {
	params, err := ParsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	receipts, err := s.node.Receipts(params.Offset(), params.Count)
	if err != nil {
		s.writeEngineError(w, "list receipts", err)
		return
	}
	resp := make([]ReceiptResponse, 0, len(receipts))
	for _, rc := range receipts {
		resp = append(resp, ReceiptResponse{
			Seq:       rc.Seq,
			Op:        rc.Op,
			Caller:    common.BytesToAddress(rc.Caller).Hex(),
			Timestamp: rc.Timestamp,
			Hash:      "0x" + hex.EncodeToString(rc.Hash),
			PrevHash:  "0x" + hex.EncodeToString(rc.PrevHash),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

