package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"spredd/core/state"
	"spredd/core/types"
	"spredd/native/forecast"
	"spredd/storage"
)

type rpcTestResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

type serverFixture struct {
	server *Server
	clock  *int64
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()
	t.Setenv("SPREDD_RPC_TOKEN", "test-token")

	owner := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	factory := common.HexToAddress("0x00000000000000000000000000000000000000bb")
	submitter := common.HexToAddress("0x00000000000000000000000000000000000000cc")
	vault := common.HexToAddress("0x00000000000000000000000000000000000000dd")
	market := common.HexToAddress("0x00000000000000000000000000000000000000ee")

	manager := state.NewManager(storage.NewMemDB())
	now := int64(1_000_000)

	engine := forecast.NewEngine()
	engine.SetState(manager)
	engine.SetNowFunc(func() int64 { return now })
	engine.SetOwner(owner)
	engine.SetVault(vault)
	params := forecast.DefaultParams()
	params.EpochDuration = 3600
	params.GraceWindow = 600
	if err := engine.SetParams(params); err != nil {
		t.Fatalf("set params: %v", err)
	}
	if err := engine.SetFactory(owner, factory); err != nil {
		t.Fatalf("set factory: %v", err)
	}
	if err := engine.SetLeaderboardManager(owner, submitter); err != nil {
		t.Fatalf("set leaderboard manager: %v", err)
	}
	if err := manager.PutAccount(market, &types.Account{Balance: big.NewInt(100_000), CodeHash: []byte{0x01}}); err != nil {
		t.Fatalf("seed market account: %v", err)
	}
	if err := engine.SetAuthorizedCaller(factory, market, true); err != nil {
		t.Fatalf("authorize market: %v", err)
	}
	if _, err := engine.ContributeToPool(market, big.NewInt(10_000)); err != nil {
		t.Fatalf("contribute: %v", err)
	}
	return &serverFixture{server: NewServer(engine, submitter), clock: &now}
}

func (f *serverFixture) call(t *testing.T, token, method string, params interface{}) (*rpcTestResponse, int) {
	t.Helper()
	payload := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
	}
	if params != nil {
		payload["params"] = []interface{}{params}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	f.server.handle(recorder, req)

	resp := new(rpcTestResponse)
	if err := json.Unmarshal(recorder.Body.Bytes(), resp); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, recorder.Body.String())
	}
	return resp, recorder.Code
}

func TestHandleRejectsNonPost(t *testing.T) {
	fixture := newServerFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	recorder := httptest.NewRecorder()
	fixture.server.handle(recorder, req)
	if recorder.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", recorder.Code)
	}
}

func TestHandleUnknownMethod(t *testing.T) {
	fixture := newServerFixture(t)

	resp, _ := fixture.call(t, "", "forecast_noSuchMethod", nil)
	if resp.Error == nil || resp.Error.Code != codeMethodNotFound {
		t.Fatalf("expected method-not-found error, got %+v", resp.Error)
	}
}

func TestCurrentEpoch(t *testing.T) {
	fixture := newServerFixture(t)

	resp, code := fixture.call(t, "", "forecast_currentEpoch", nil)
	if code != http.StatusOK || resp.Error != nil {
		t.Fatalf("unexpected failure: code=%d error=%+v", code, resp.Error)
	}
	var view struct {
		Index    uint64 `json:"index"`
		Deadline int64  `json:"deadline"`
	}
	if err := json.Unmarshal(resp.Result, &view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if view.Index != 1 {
		t.Fatalf("index = %d, want 1", view.Index)
	}
	if view.Deadline != 1_000_000+3600 {
		t.Fatalf("deadline = %d, want %d", view.Deadline, 1_000_000+3600)
	}
}

func TestPreviewCreatorScore(t *testing.T) {
	fixture := newServerFixture(t)

	resp, _ := fixture.call(t, "", "forecast_previewCreatorScore", map[string]interface{}{
		"volume":     "0",
		"tradeCount": 0,
	})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	var result scoreResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Points != fmt.Sprintf("%d", 100*forecast.ScoreUnit) {
		t.Fatalf("points = %s, want base creator score", result.Points)
	}
}

func TestPreviewTraderScoreRejectsBadAmount(t *testing.T) {
	fixture := newServerFixture(t)

	resp, _ := fixture.call(t, "", "forecast_previewTraderScore", map[string]interface{}{
		"volume":       "not-a-number",
		"positionSize": "1",
	})
	if resp.Error == nil || resp.Error.Code != codeInvalidParams {
		t.Fatalf("expected invalid-params error, got %+v", resp.Error)
	}
}

func TestSubmitLeaderboardRequiresToken(t *testing.T) {
	fixture := newServerFixture(t)

	resp, code := fixture.call(t, "", "forecast_submitLeaderboard", map[string]interface{}{"epoch": 1})
	if code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", code)
	}
	if resp.Error == nil || resp.Error.Code != codeUnauthorized {
		t.Fatalf("expected unauthorized error, got %+v", resp.Error)
	}

	resp, code = fixture.call(t, "wrong-token", "forecast_submitLeaderboard", map[string]interface{}{"epoch": 1})
	if code != http.StatusUnauthorized || resp.Error == nil {
		t.Fatalf("wrong token accepted: code=%d", code)
	}
}

func TestSubmitLeaderboardOverRPC(t *testing.T) {
	fixture := newServerFixture(t)

	// Epoch 1 must close before a ranking is accepted.
	*fixture.clock += 3600

	resp, _ := fixture.call(t, "test-token", "forecast_submitLeaderboard", map[string]interface{}{"epoch": 1})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	var result distributionResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Epoch != 1 || result.TotalPaid != "0" {
		t.Fatalf("unexpected distribution: %+v", result)
	}
	if result.Remainder != "10000" {
		t.Fatalf("remainder = %s, want the preserved 10000 pool", result.Remainder)
	}

	// Finalized epochs reject further submissions.
	resp, _ = fixture.call(t, "test-token", "forecast_submitLeaderboard", map[string]interface{}{"epoch": 1})
	if resp.Error == nil {
		t.Fatalf("expected an error for the second submission")
	}
}

func TestScoreEndpointValidation(t *testing.T) {
	fixture := newServerFixture(t)

	resp, _ := fixture.call(t, "", "forecast_score", map[string]interface{}{
		"epoch":   1,
		"role":    "referee",
		"address": "0x0000000000000000000000000000000000000001",
	})
	if resp.Error == nil || resp.Error.Code != codeInvalidParams {
		t.Fatalf("expected invalid-params for bad role, got %+v", resp.Error)
	}

	resp, _ = fixture.call(t, "", "forecast_score", map[string]interface{}{
		"epoch":   1,
		"role":    "trader",
		"address": "0x0000000000000000000000000000000000000001",
	})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	var result scoreResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Points != "0" {
		t.Fatalf("points = %s, want 0 for an unscored address", result.Points)
	}
}
