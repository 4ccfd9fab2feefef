package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lumilend/backend/internal/auth"
	"github.com/lumilend/backend/internal/blockchain"
	"github.com/lumilend/backend/internal/config"
	"github.com/lumilend/backend/internal/domain/pool"
	"github.com/lumilend/backend/internal/http/handlers"
	"github.com/lumilend/backend/internal/indexer"
	"github.com/lumilend/backend/internal/ledger"
	"github.com/lumilend/backend/internal/ledger/memory"
	"github.com/lumilend/backend/internal/observability"
)

type testServer struct {
	router  http.Handler
	jwt     *auth.JWTManager
	stubs   blockchain.StubSet
	journal *indexer.Journal
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.New()
	stubs := blockchain.NewStubSet("native", "lumi")
	collab := stubs.Collaborators()
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	journal := indexer.NewJournal(store, nil, metrics, 0)
	svc, err := pool.NewService(context.Background(), store, pool.Deps{
		Assets:  collab.Assets,
		Oracle:  collab.Oracle,
		Rewards: collab.Rewards,
		Auth:    auth.ContextAuthorizer{},
		Events:  journal,
		Metrics: metrics,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	jwt := auth.NewJWTManager("issuer", "aud", "super-secret")
	cfg := config.Config{Env: "test", JWTAccessTTL: time.Hour}
	r := NewRouter(cfg, slog.Default(), Dependencies{
		Pinger:      ledger.StorePinger{Store: store},
		Pool:        svc,
		Initializer: svc,
		JWTManager:  jwt,
		Gatherer:    reg,
		Activity:    journal,
		Assets: handlers.NewAssetHandler(
			map[string]handlers.AssetBalancer{"pool": stubs.Assets, "reward": stubs.Rewards},
			map[string]handlers.AssetSupply{"pool": stubs.Assets, "reward": stubs.Rewards},
		),
		Prices: stubs.Oracle,
	})
	return &testServer{router: r, jwt: jwt, stubs: stubs, journal: journal}
}

func (s *testServer) do(t *testing.T, method, path, account, role string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if account != "" {
		tok, err := s.jwt.Mint(account, role, time.Minute)
		if err != nil {
			t.Fatalf("mint token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	out := map[string]any{}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec.Code, out
}

func TestHealthReadyAndMeta(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/health", "/ready", "/v1/meta", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}

	code, body := s.do(t, http.MethodGet, "/ready", "", "", nil)
	if code != http.StatusOK || body["pool"] != "uninitialized" || body["ledger"] != "ok" {
		t.Fatalf("ready: %d %v", code, body)
	}
}

func TestPoolLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	code, body := s.do(t, http.MethodGet, "/v1/pool/stats", "", "", nil)
	if code != http.StatusOK || body["total_deposited"].(float64) != 0 {
		t.Fatalf("stats before init: %d %v", code, body)
	}

	code, body = s.do(t, http.MethodPost, "/v1/deposits", "GLENDER", auth.RoleAccount, map[string]any{"amount": 50})
	if code != http.StatusServiceUnavailable || body["error"] != "not_initialized" {
		t.Fatalf("deposit before init: %d %v", code, body)
	}

	code, _ = s.do(t, http.MethodPost, "/admin/pool/initialize", "GLENDER", auth.RoleAccount, map[string]any{"asset_id": "native", "pool_account": "GPOOL"})
	if code != http.StatusForbidden {
		t.Fatalf("non-admin init: expected 403, got %d", code)
	}
	initBody := map[string]any{"asset_id": "native", "interest_rate_bps": 500, "pool_account": "GPOOL", "oracle_id": "oracle", "reward_asset_id": "lumi"}
	if code, body = s.do(t, http.MethodPost, "/admin/pool/initialize", "GADMIN", auth.RoleAdmin, initBody); code != http.StatusCreated {
		t.Fatalf("init: %d %v", code, body)
	}
	if code, body = s.do(t, http.MethodPost, "/admin/pool/initialize", "GADMIN", auth.RoleAdmin, initBody); code != http.StatusConflict || body["code"].(float64) != 1 {
		t.Fatalf("second init: %d %v", code, body)
	}

	if err := s.stubs.Assets.Mint(ctx, "GLENDER", 100); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if code, body = s.do(t, http.MethodPost, "/v1/deposits", "GLENDER", auth.RoleAccount, map[string]any{"amount": 50}); code != http.StatusOK {
		t.Fatalf("deposit: %d %v", code, body)
	}

	code, _ = s.do(t, http.MethodPost, "/v1/deposits", "GLENDER", auth.RoleAccount, map[string]any{"account": "GOTHER", "amount": 1})
	if code != http.StatusForbidden {
		t.Fatalf("deposit for another account: expected 403, got %d", code)
	}
	code, _ = s.do(t, http.MethodPost, "/v1/deposits", "", "", map[string]any{"amount": 1})
	if code != http.StatusUnauthorized {
		t.Fatalf("anonymous deposit: expected 401, got %d", code)
	}

	code, body = s.do(t, http.MethodPost, "/v1/loans", "GBORROWER", auth.RoleAccount, map[string]any{"amount": 60, "duration_days": 14})
	if code != http.StatusConflict || body["error"] != "insufficient_pool_liquidity" {
		t.Fatalf("oversized loan: %d %v", code, body)
	}
	code, body = s.do(t, http.MethodPost, "/v1/loans", "GBORROWER", auth.RoleAccount, map[string]any{"amount": 20, "duration_days": 14})
	if code != http.StatusCreated || body["loan_id"].(float64) != 1 {
		t.Fatalf("request loan: %d %v", code, body)
	}

	code, body = s.do(t, http.MethodGet, "/v1/borrowers/GBORROWER/active-loan", "", "", nil)
	if code != http.StatusOK || body["loan_id"].(float64) != 1 {
		t.Fatalf("active loan: %d %v", code, body)
	}
	code, _ = s.do(t, http.MethodPost, "/v1/loans/1/liquidate", "", "", nil)
	if code != http.StatusConflict {
		t.Fatalf("early liquidation: expected 409, got %d", code)
	}

	if err := s.stubs.Assets.Mint(ctx, "GBORROWER", 1); err != nil {
		t.Fatalf("mint: %v", err)
	}
	code, body = s.do(t, http.MethodPost, "/v1/loans/1/repay", "GBORROWER", auth.RoleAccount, nil)
	if code != http.StatusOK {
		t.Fatalf("repay: %d %v", code, body)
	}
	loan := body["loan"].(map[string]any)
	stats := body["pool"].(map[string]any)
	if loan["status"] != string(pool.LoanRepaid) || stats["total_deposited"].(float64) != 51 || stats["total_lent"].(float64) != 0 {
		t.Fatalf("after repay: %v", body)
	}

	code, body = s.do(t, http.MethodGet, "/v1/lenders/GLENDER", "", "", nil)
	if code != http.StatusOK || body["amount"].(float64) != 50 {
		t.Fatalf("lender info: %d %v", code, body)
	}
	code, _ = s.do(t, http.MethodGet, "/v1/loans/9", "", "", nil)
	if code != http.StatusNotFound {
		t.Fatalf("missing loan: expected 404, got %d", code)
	}
	code, _ = s.do(t, http.MethodGet, "/v1/loans/abc", "", "", nil)
	if code != http.StatusBadRequest {
		t.Fatalf("bad loan id: expected 400, got %d", code)
	}
	code, body = s.do(t, http.MethodGet, "/v1/pool/config", "", "", nil)
	if code != http.StatusOK || body["next_loan_id"].(float64) != 2 {
		t.Fatalf("config: %d %v", code, body)
	}
}

func TestAdminIssueTokenAndSession(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(t, http.MethodPost, "/admin/tokens", "GADMIN", auth.RoleAdmin, map[string]any{"account": "GLENDER", "ttl": "10m"})
	if code != http.StatusCreated {
		t.Fatalf("issue token: %d %v", code, body)
	}
	claims, err := s.jwt.Parse(body["access_token"].(string))
	if err != nil || claims.Account != "GLENDER" || claims.Role != auth.RoleAccount {
		t.Fatalf("issued token: %+v %v", claims, err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/session", nil)
	req.Header.Set("Authorization", "Bearer "+body["access_token"].(string))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("create session: %d", rec.Code)
	}
	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.AccessCookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatalf("missing access cookie")
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/session", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !bytes.Contains(rec.Body.Bytes(), []byte("GLENDER")) {
		t.Fatalf("session me: %d %s", rec.Code, rec.Body.String())
	}

	// the cookie alone authenticates a /v1 write; the pool is not yet initialized
	req = httptest.NewRequest(http.MethodPost, "/v1/deposits", bytes.NewBufferString(`{"amount":5}`))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable || !bytes.Contains(rec.Body.Bytes(), []byte("not_initialized")) {
		t.Fatalf("cookie deposit: %d %s", rec.Code, rec.Body.String())
	}
}

func TestNoRoute(t *testing.T) {
	s := newTestServer(t)
	code, body := s.do(t, http.MethodGet, "/nope", "", "", nil)
	if code != http.StatusNotFound || body["error"] != "not_found" {
		t.Fatalf("no route: %d %v", code, body)
	}
}

func TestAssetFaucetAndBalance(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.do(t, http.MethodPost, "/admin/assets/pool/mint", "GLENDER", auth.RoleAccount, map[string]any{"account": "GLENDER", "amount": 5})
	if code != http.StatusForbidden {
		t.Fatalf("non-admin mint: expected 403, got %d", code)
	}
	code, body := s.do(t, http.MethodPost, "/admin/assets/pool/mint", "GADMIN", auth.RoleAdmin, map[string]any{"account": "GLENDER", "amount": 5})
	if code != http.StatusOK {
		t.Fatalf("mint: %d %v", code, body)
	}
	code, body = s.do(t, http.MethodGet, "/v1/assets/pool/balances/GLENDER", "", "", nil)
	if code != http.StatusOK || body["balance"].(float64) != 5 {
		t.Fatalf("balance: %d %v", code, body)
	}
	code, _ = s.do(t, http.MethodGet, "/v1/assets/btc/balances/GLENDER", "", "", nil)
	if code != http.StatusNotFound {
		t.Fatalf("unknown asset: expected 404, got %d", code)
	}

	code, body = s.do(t, http.MethodPost, "/admin/assets/pool/burn", "GADMIN", auth.RoleAdmin, map[string]any{"account": "GLENDER", "amount": 6})
	if code != http.StatusUnprocessableEntity || body["error"] != "asset_insufficient_funds" {
		t.Fatalf("overdrawn burn: %d %v", code, body)
	}
	code, body = s.do(t, http.MethodPost, "/admin/assets/pool/burn", "GADMIN", auth.RoleAdmin, map[string]any{"account": "GLENDER", "amount": 2})
	if code != http.StatusOK || body["burned"].(float64) != 2 {
		t.Fatalf("burn: %d %v", code, body)
	}
	if got, _ := s.stubs.Assets.Balance(context.Background(), "GLENDER"); got != 3 {
		t.Fatalf("balance after burn = %d", got)
	}
}

func TestAdminSetsStubOraclePrice(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	code, _ := s.do(t, http.MethodPost, "/admin/oracle/prices/xlm", "GLENDER", auth.RoleAccount, map[string]any{"price": 5})
	if code != http.StatusForbidden {
		t.Fatalf("non-admin price: expected 403, got %d", code)
	}
	code, body := s.do(t, http.MethodPost, "/admin/oracle/prices/xlm", "GADMIN", auth.RoleAdmin, map[string]any{"price": -1})
	if code != http.StatusBadRequest || body["error"] != "invalid_price" {
		t.Fatalf("negative price: %d %v", code, body)
	}
	code, body = s.do(t, http.MethodPost, "/admin/oracle/prices/xlm", "GADMIN", auth.RoleAdmin, map[string]any{"price": 1_500_000})
	if code != http.StatusOK || body["symbol"] != "XLM" {
		t.Fatalf("set price: %d %v", code, body)
	}
	if p, err := s.stubs.Oracle.GetPrice(ctx, "XLM"); err != nil || p != 1_500_000 {
		t.Fatalf("XLM price = %d, %v", p, err)
	}
}

func TestActivityFeed(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	code, _ := s.do(t, http.MethodPost, "/admin/pool/initialize", "GADMIN", auth.RoleAdmin, map[string]any{
		"asset_id": "native", "interest_rate_bps": 500, "pool_account": "pool",
	})
	if code != http.StatusCreated {
		t.Fatalf("init: %d", code)
	}
	if err := s.stubs.Assets.Mint(ctx, "GLENDER", 300); err != nil {
		t.Fatalf("fund: %v", err)
	}
	for _, amt := range []int{100, 200} {
		if code, body := s.do(t, http.MethodPost, "/v1/deposits", "GLENDER", auth.RoleAccount, map[string]any{"amount": amt}); code != http.StatusOK {
			t.Fatalf("deposit: %d %v", code, body)
		}
	}
	if _, err := s.journal.RunOnce(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}

	code, body := s.do(t, http.MethodGet, "/v1/accounts/GLENDER/activity?limit=1", "", "", nil)
	if code != http.StatusOK {
		t.Fatalf("activity: %d %v", code, body)
	}
	events := body["events"].([]any)
	if len(events) != 1 || events[0].(map[string]any)["amount"].(float64) != 200 {
		t.Fatalf("unexpected events: %v", events)
	}

	code, _ = s.do(t, http.MethodGet, "/v1/activity?limit=abc", "", "", nil)
	if code != http.StatusBadRequest {
		t.Fatalf("bad limit: expected 400, got %d", code)
	}
}
