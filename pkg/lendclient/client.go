// Package lendclient is a Go client for the lending pool HTTP API.
package lendclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lumilend/backend/internal/domain/pool"
)

type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

func New(baseURL string, hc *http.Client) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: baseURL, http: hc}
}

// WithToken returns a copy of c that authenticates as the token's account.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = strings.TrimSpace(token)
	return &cp
}

// ---- Wire format ----

type errorResp struct {
	Error string `json:"error"`
	Code  uint32 `json:"code"`
}

type configResp struct {
	Config     pool.Config `json:"config"`
	NextLoanID uint64      `json:"next_loan_id"`
}

type amountReq struct {
	Account string `json:"account,omitempty"`
	Amount  int64  `json:"amount"`
}

type lenderResp struct {
	Account string            `json:"account"`
	Lender  pool.LenderRecord `json:"lender"`
	Pool    pool.Stats        `json:"pool"`
}

type loanReq struct {
	Borrower     string `json:"borrower,omitempty"`
	Amount       int64  `json:"amount"`
	DurationDays uint32 `json:"duration_days"`
}

type loanCreatedResp struct {
	LoanID uint64          `json:"loan_id"`
	Loan   pool.LoanRecord `json:"loan"`
}

type loanStateResp struct {
	Loan pool.LoanRecord `json:"loan"`
	Pool pool.Stats      `json:"pool"`
}

type initReq struct {
	AssetID         string `json:"asset_id"`
	InterestRateBPS uint32 `json:"interest_rate_bps"`
	OracleID        string `json:"oracle_id,omitempty"`
	RewardAssetID   string `json:"reward_asset_id,omitempty"`
	OracleSymbol    string `json:"oracle_symbol,omitempty"`
	PoolAccount     string `json:"pool_account"`
}

type tokenReq struct {
	Account string `json:"account"`
	Role    string `json:"role,omitempty"`
	TTL     string `json:"ttl,omitempty"`
}

type tokenResp struct {
	AccessToken string `json:"access_token"`
}

type supplyReq struct {
	Account string `json:"account"`
	Amount  int64  `json:"amount"`
}

type priceReq struct {
	Price int64 `json:"price"`
}

type balanceResp struct {
	Balance int64 `json:"balance"`
}

// ---- Queries ----

func (c *Client) PoolStats(ctx context.Context) (pool.Stats, error) {
	var out pool.Stats
	err := c.call(ctx, http.MethodGet, "/v1/pool/stats", nil, &out)
	return out, err
}

func (c *Client) Config(ctx context.Context) (pool.Config, error) {
	var out configResp
	err := c.call(ctx, http.MethodGet, "/v1/pool/config", nil, &out)
	return out.Config, err
}

func (c *Client) NextLoanID(ctx context.Context) (uint64, error) {
	var out configResp
	err := c.call(ctx, http.MethodGet, "/v1/pool/config", nil, &out)
	return out.NextLoanID, err
}

func (c *Client) LenderInfo(ctx context.Context, address string) (pool.LenderRecord, error) {
	var out pool.LenderRecord
	err := c.call(ctx, http.MethodGet, "/v1/lenders/"+url.PathEscape(address), nil, &out)
	return out, err
}

func (c *Client) Loan(ctx context.Context, loanID uint64) (pool.LoanRecord, error) {
	var out pool.LoanRecord
	err := c.call(ctx, http.MethodGet, "/v1/loans/"+strconv.FormatUint(loanID, 10), nil, &out)
	return out, err
}

func (c *Client) ActiveLoan(ctx context.Context, borrower string) (pool.LoanRecord, error) {
	var out pool.LoanRecord
	err := c.call(ctx, http.MethodGet, "/v1/borrowers/"+url.PathEscape(borrower)+"/active-loan", nil, &out)
	return out, err
}

func (c *Client) Balance(ctx context.Context, asset, account string) (int64, error) {
	var out balanceResp
	err := c.call(ctx, http.MethodGet, "/v1/assets/"+url.PathEscape(asset)+"/balances/"+url.PathEscape(account), nil, &out)
	return out.Balance, err
}

// ---- Operations ----

func (c *Client) Deposit(ctx context.Context, account string, amount int64) (pool.LenderRecord, error) {
	var out lenderResp
	err := c.call(ctx, http.MethodPost, "/v1/deposits", amountReq{Account: account, Amount: amount}, &out)
	return out.Lender, err
}

func (c *Client) Withdraw(ctx context.Context, account string, amount int64) (pool.LenderRecord, error) {
	var out lenderResp
	err := c.call(ctx, http.MethodPost, "/v1/withdrawals", amountReq{Account: account, Amount: amount}, &out)
	return out.Lender, err
}

func (c *Client) RequestLoan(ctx context.Context, borrower string, amount int64, durationDays uint32) (uint64, error) {
	var out loanCreatedResp
	err := c.call(ctx, http.MethodPost, "/v1/loans", loanReq{Borrower: borrower, Amount: amount, DurationDays: durationDays}, &out)
	return out.LoanID, err
}

func (c *Client) RepayLoan(ctx context.Context, loanID uint64) (pool.LoanRecord, error) {
	var out loanStateResp
	err := c.call(ctx, http.MethodPost, "/v1/loans/"+strconv.FormatUint(loanID, 10)+"/repay", nil, &out)
	return out.Loan, err
}

func (c *Client) LiquidateDefaulted(ctx context.Context, loanID uint64) error {
	return c.call(ctx, http.MethodPost, "/v1/loans/"+strconv.FormatUint(loanID, 10)+"/liquidate", nil, nil)
}

// ---- Admin ----

func (c *Client) InitializePool(ctx context.Context, params pool.InitParams) (pool.Config, error) {
	var out pool.Config
	err := c.call(ctx, http.MethodPost, "/admin/pool/initialize", initReq{
		AssetID:         params.AssetID,
		InterestRateBPS: params.InterestRateBPS,
		OracleID:        params.OracleID,
		RewardAssetID:   params.RewardAssetID,
		OracleSymbol:    params.OracleSymbol,
		PoolAccount:     params.PoolAccount,
	}, &out)
	return out, err
}

func (c *Client) IssueToken(ctx context.Context, account, role string, ttl time.Duration) (string, error) {
	req := tokenReq{Account: account, Role: role}
	if ttl > 0 {
		req.TTL = ttl.String()
	}
	var out tokenResp
	err := c.call(ctx, http.MethodPost, "/admin/tokens", req, &out)
	return out.AccessToken, err
}

func (c *Client) MintAsset(ctx context.Context, asset, account string, amount int64) error {
	return c.call(ctx, http.MethodPost, "/admin/assets/"+url.PathEscape(asset)+"/mint", supplyReq{Account: account, Amount: amount}, nil)
}

func (c *Client) BurnAsset(ctx context.Context, asset, account string, amount int64) error {
	return c.call(ctx, http.MethodPost, "/admin/assets/"+url.PathEscape(asset)+"/burn", supplyReq{Account: account, Amount: amount}, nil)
}

// SetPrice moves a stub oracle quote; servers backed by a live oracle do
// not expose the route.
func (c *Client) SetPrice(ctx context.Context, symbol string, price int64) error {
	return c.call(ctx, http.MethodPost, "/admin/oracle/prices/"+url.PathEscape(symbol), priceReq{Price: price}, nil)
}

// ---- Transport ----

func (c *Client) call(ctx context.Context, method, path string, req any, resp any) error {
	code, raw, err := c.doJSON(ctx, method, c.baseURL+path, req, resp)
	if err != nil {
		return err
	}
	if code >= 200 && code < 300 {
		return nil
	}
	apiErr := &APIError{Method: method, Path: path, Status: code, Body: raw}
	var e errorResp
	if json.Unmarshal([]byte(raw), &e) == nil {
		apiErr.Slug = e.Error
		apiErr.Code = e.Code
	}
	return apiErr
}

func (c *Client) doJSON(ctx context.Context, method, target string, req any, resp any) (int, string, error) {
	var body io.Reader
	if req != nil {
		b, err := json.Marshal(req)
		if err != nil {
			return 0, "", err
		}
		body = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return 0, "", err
	}
	if req != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	rsp, err := c.http.Do(httpReq)
	if err != nil {
		return 0, "", fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer rsp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(rsp.Body, 1<<20))
	if resp != nil && rsp.StatusCode >= 200 && rsp.StatusCode < 300 && len(raw) > 0 {
		if err := json.Unmarshal(raw, resp); err != nil {
			return rsp.StatusCode, "", fmt.Errorf("decode %s %s: %w", method, target, err)
		}
	}
	return rsp.StatusCode, strings.TrimSpace(string(raw)), nil
}
