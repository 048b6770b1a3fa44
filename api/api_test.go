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
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/grpchealth"
	"connectrpc.com/grpcreflect"

	"github.com/blinklabs-io/metavault/access"
	"github.com/blinklabs-io/metavault/collectible"
	"github.com/blinklabs-io/metavault/database"
	"github.com/blinklabs-io/metavault/event"
	"github.com/blinklabs-io/metavault/item"
	"github.com/blinklabs-io/metavault/loot"
	"github.com/blinklabs-io/metavault/vesting"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/net/http2"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	adminAddr = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	userAddr  = common.HexToAddress("0x00000000000000000000000000000000000000b2")
)

// mockNode implements Node for testing
type mockNode struct {
	schedule     vesting.Schedule
	claimable    *uint256.Int
	balance      *uint256.Int
	price        *uint256.Int
	categories   []loot.CategoryStatus
	items        []event.ItemAmount
	itemBalances []item.Balance
	collectible  CollectibleInfo
	receipts     []database.Receipt
	err          error

	lastAmount  *uint256.Int
	lastPayment *uint256.Int
	lastCount   uint64
	lastFrom    uint64
	lastLimit   int
}

func (m *mockNode) CreateSchedule(
	_ context.Context,
	_, _ common.Address,
	_ int64,
	_ uint64,
	amount *uint256.Int,
) (uint64, error) {
	m.lastAmount = amount
	return 7, m.err
}

func (m *mockNode) ClaimVested(context.Context, common.Address, uint64) (*uint256.Int, error) {
	return m.claimable, m.err
}

func (m *mockNode) Schedule(uint64) (vesting.Schedule, error) {
	return m.schedule, m.err
}

func (m *mockNode) Claimable(uint64) (*uint256.Int, error) {
	return m.claimable, m.err
}

func (m *mockNode) TokenBalance(common.Address) (*uint256.Int, error) {
	return m.balance, m.err
}

func (m *mockNode) CratePrice() (*uint256.Int, error) {
	return m.price, m.err
}

func (m *mockNode) CrateCategories() ([]loot.CategoryStatus, error) {
	return m.categories, m.err
}

func (m *mockNode) OpenCrate(
	_ context.Context,
	_ common.Address,
	count uint64,
	payment *uint256.Int,
) ([]event.ItemAmount, error) {
	m.lastCount = count
	m.lastPayment = payment
	return m.items, m.err
}

func (m *mockNode) MintItems(context.Context, common.Address, common.Address, []uint64, []uint64) error {
	return m.err
}

func (m *mockNode) ItemBalances(common.Address) ([]item.Balance, error) {
	return m.itemBalances, m.err
}

func (m *mockNode) Collectible(uint64) (CollectibleInfo, error) {
	return m.collectible, m.err
}

func (m *mockNode) Receipts(from uint64, limit int) ([]database.Receipt, error) {
	m.lastFrom = from
	m.lastLimit = limit
	return m.receipts, m.err
}

func newTestServer(t *testing.T, node Node) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(Config{Node: node}).Handler())
	t.Cleanup(func() {
		srv.Close()
		http.DefaultClient.CloseIdleConnections()
	})
	return srv
}

func doJSON(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var reqBody bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&reqBody).Encode(body))
	}
	req, err := http.NewRequestWithContext(context.Background(), method, url, &reqBody)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &mockNode{})
	var resp HealthResponse
	assert.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/health", nil, &resp))
	assert.True(t, resp.IsHealthy)
	assert.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/api/v1/health", nil, &resp))
}

func TestGetSchedule(t *testing.T) {
	node := &mockNode{
		schedule: vesting.Schedule{
			ID:            3,
			Beneficiary:   userAddr,
			Cliff:         1700000000,
			Duration:      86400,
			TotalAmount:   uint256.NewInt(2_500_000_000_000_000_000),
			ClaimedAmount: uint256.NewInt(0),
		},
		claimable: uint256.NewInt(1000),
	}
	srv := newTestServer(t, node)
	var resp ScheduleResponse
	status := doJSON(t, http.MethodGet, srv.URL+"/api/v1/vesting/schedules/3", nil, &resp)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, uint64(3), resp.ID)
	assert.Equal(t, userAddr.Hex(), resp.Beneficiary)
	assert.Equal(t, "2500000000000000000", resp.TotalAmount)
	assert.Equal(t, "2.5", resp.TotalAmountTokens)
	assert.Equal(t, "1000", resp.Claimable)
}

func TestCreateScheduleParsesTokens(t *testing.T) {
	node := &mockNode{}
	srv := newTestServer(t, node)
	var resp CreateScheduleResponse
	status := doJSON(t, http.MethodPost, srv.URL+"/api/v1/vesting/schedules", CreateScheduleRequest{
		From:        adminAddr.Hex(),
		Beneficiary: userAddr.Hex(),
		Amount:      "1000",
		Cliff:       1700000000,
		Duration:    86400,
	}, &resp)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, uint64(7), resp.ID)
	expected, _ := uint256.FromDecimal("1000000000000000000000")
	assert.Equal(t, expected, node.lastAmount)
}

func TestBadRequests(t *testing.T) {
	srv := newTestServer(t, &mockNode{})
	testDefs := []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodGet, "/api/v1/vesting/schedules/abc", nil},
		{http.MethodGet, "/api/v1/token/balances/nothex", nil},
		{http.MethodPost, "/api/v1/vesting/schedules", map[string]any{"unknown": 1}},
		{http.MethodPost, "/api/v1/vesting/schedules", CreateScheduleRequest{From: "0x1", Beneficiary: userAddr.Hex()}},
		{http.MethodPost, "/api/v1/vesting/schedules", CreateScheduleRequest{
			From: adminAddr.Hex(), Beneficiary: userAddr.Hex(), Amount: "-1",
		}},
		{http.MethodPost, "/api/v1/crates/open", OpenCrateRequest{From: userAddr.Hex(), Payment: "abc", Count: 1}},
		{http.MethodGet, "/api/v1/receipts?count=x", nil},
	}
	for _, testDef := range testDefs {
		var resp ErrorResponse
		status := doJSON(t, testDef.method, srv.URL+testDef.path, testDef.body, &resp)
		assert.Equal(t, http.StatusBadRequest, status, testDef.path)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, testDef.path)
	}
}

func TestEngineErrorStatus(t *testing.T) {
	testDefs := []struct {
		err    error
		status int
	}{
		{vesting.ErrInvalidSchedule, http.StatusBadRequest},
		{loot.ErrInvalidCount, http.StatusBadRequest},
		{loot.PaymentError{Expected: uint256.NewInt(2), Got: uint256.NewInt(1)}, http.StatusPaymentRequired},
		{access.UnauthorizedError{Role: access.MinterRole}, http.StatusForbidden},
		{vesting.ErrNotEligible, http.StatusForbidden},
		{fmt.Errorf("wrapped: %w", vesting.ErrScheduleNotFound), http.StatusNotFound},
		{collectible.ErrNotFound, http.StatusNotFound},
		{loot.ErrSupplyExhausted, http.StatusConflict},
		{access.ErrPaused, http.StatusConflict},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, testDef := range testDefs {
		srv := newTestServer(t, &mockNode{err: testDef.err})
		var resp ErrorResponse
		status := doJSON(t, http.MethodPost, srv.URL+"/api/v1/crates/open", OpenCrateRequest{
			From:    userAddr.Hex(),
			Payment: "0.02",
			Count:   1,
		}, &resp)
		assert.Equal(t, testDef.status, status, testDef.err.Error())
		if testDef.status == http.StatusInternalServerError {
			assert.NotContains(t, resp.Message, "disk on fire")
		}
	}
}

func TestOpenCrate(t *testing.T) {
	node := &mockNode{
		items: []event.ItemAmount{{CategoryID: 2, Amount: 1}, {CategoryID: 4, Amount: 2}},
	}
	srv := newTestServer(t, node)
	var resp OpenCrateResponse
	status := doJSON(t, http.MethodPost, srv.URL+"/api/v1/crates/open", OpenCrateRequest{
		From:    userAddr.Hex(),
		Payment: "0.06",
		Count:   3,
	}, &resp)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, node.items, resp.Items)
	assert.Equal(t, uint64(3), node.lastCount)
	assert.Equal(t, uint256.NewInt(60_000_000_000_000_000), node.lastPayment)
}

func TestCategoriesAndItems(t *testing.T) {
	node := &mockNode{
		price: loot.DefaultPrice,
		categories: []loot.CategoryStatus{
			{Category: loot.Category{Name: "Sword", ID: 1, Weight: 40, MaxSupply: 1000}, Minted: 10, Remaining: 990},
		},
		itemBalances: []item.Balance{{CategoryID: 1, Amount: 10}},
	}
	srv := newTestServer(t, node)
	var cats CategoriesResponse
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/api/v1/crates/categories", nil, &cats))
	assert.Equal(t, "0.02", cats.PriceEther)
	require.Len(t, cats.Categories, 1)
	assert.Equal(t, uint64(990), cats.Categories[0].Remaining)

	var items ItemsResponse
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/api/v1/items/"+userAddr.Hex(), nil, &items))
	assert.Equal(t, []ItemBalanceResponse{{CategoryID: 1, Amount: 10}}, items.Balances)

	status := doJSON(t, http.MethodPost, srv.URL+"/api/v1/crates/mint-batch", MintBatchRequest{
		From:    adminAddr.Hex(),
		To:      userAddr.Hex(),
		IDs:     []uint64{1},
		Amounts: []uint64{5},
	}, nil)
	assert.Equal(t, http.StatusNoContent, status)
}

func TestReceiptsPagination(t *testing.T) {
	node := &mockNode{
		receipts: []database.Receipt{{Seq: 20, Op: "loot.open_crate", Caller: userAddr.Bytes(), Hash: []byte{0xab}}},
	}
	srv := newTestServer(t, node)
	var resp []ReceiptResponse
	status := doJSON(t, http.MethodGet, srv.URL+"/api/v1/receipts?count=10&page=3", nil, &resp)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, uint64(20), node.lastFrom)
	assert.Equal(t, 10, node.lastLimit)
	require.Len(t, resp, 1)
	assert.Equal(t, "0xab", resp[0].Hash)
	assert.Equal(t, userAddr.Hex(), resp[0].Caller)

	status = doJSON(t, http.MethodGet, srv.URL+"/api/v1/receipts?from=5&limit=2", nil, &resp)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, uint64(5), node.lastFrom)
	assert.Equal(t, 2, node.lastLimit)
}

func TestGrpcHealth(t *testing.T) {
	srv := newTestServer(t, &mockNode{})
	req, err := http.NewRequestWithContext(
		context.Background(),
		http.MethodPost,
		srv.URL+"/grpc.health.v1.Health/Check",
		bytes.NewBufferString(`{"service":"`+ServiceName+`"}`),
	)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "SERVING", body["status"])
}

func TestGrpcReflection(t *testing.T) {
	srv := newTestServer(t, &mockNode{})
	// Reflection is a bidi stream, which needs HTTP/2 over the h2c handler
	transport := &http2.Transport{
		AllowHTTP: true,
		DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, addr)
		},
	}
	defer transport.CloseIdleConnections()
	client := grpcreflect.NewClient(&http.Client{Transport: transport}, srv.URL)
	stream := client.NewStream(t.Context())
	names, err := stream.ListServices()
	require.NoError(t, err)
	_, err = stream.Close()
	require.NoError(t, err)
	var found bool
	for _, name := range names {
		if string(name) == grpchealth.HealthV1ServiceName {
			found = true
		}
	}
	assert.True(t, found, "health service not listed: %v", names)

	// The v1alpha reflector is mounted next to v1
	req, err := http.NewRequestWithContext(
		t.Context(),
		http.MethodPost,
		srv.URL+"/grpc.reflection.v1alpha.ServerReflection/ServerReflectionInfo",
		nil,
	)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.NotEqual(t, http.StatusNotFound, resp.StatusCode)
}

func TestStartStop(t *testing.T) {
	s := New(Config{Node: &mockNode{}, ListenAddress: "127.0.0.1:0"})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Start(ctx))
	require.Error(t, s.Start(ctx))
	addr := s.Addr()
	require.NotNil(t, addr)
	var resp HealthResponse
	assert.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, "http://"+addr.String()+"/health", nil, &resp))
	require.NoError(t, s.Stop(context.Background()))
	require.NoError(t, s.Stop(context.Background()))
	assert.Nil(t, s.Addr())
	http.DefaultClient.CloseIdleConnections()
}

func TestParsePaginationClamps(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?count=500&page=0", nil)
	params, err := ParsePagination(req)
	require.NoError(t, err)
	assert.Equal(t, MaxPaginationCount, params.Count)
	assert.Equal(t, 1, params.Page)
	assert.Equal(t, uint64(0), params.Offset())
}
