package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := rootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestStatsCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/pool/stats", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"total_deposited":100,"total_lent":40,"available":60,"interest_rate_bps":500}`))
	}))
	defer srv.Close()

	out, err := runCLI(t, "stats", "--api", srv.URL)
	require.NoError(t, err)
	require.Contains(t, out, `"available": 60`)
}

func TestBorrowSendsTokenAndDuration(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/loans":
			require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			var buf bytes.Buffer
			_, _ = buf.ReadFrom(r.Body)
			require.Contains(t, buf.String(), `"duration_days":7`)
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"loan_id":3,"loan":{}}`))
		case "/v1/loans/3":
			_, _ = w.Write([]byte(`{"loan_id":3,"borrower":"GB","principal":10,"status":"active"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	out, err := runCLI(t, "borrow", "10", "--days", "7", "--api", srv.URL, "--token", "tok")
	require.NoError(t, err)
	require.Contains(t, out, `"loan_id": 3`)
}

func TestCommandSurfacesPoolError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"loan_not_found","code":5}`))
	}))
	defer srv.Close()

	_, err := runCLI(t, "loan", "9", "--api", srv.URL)
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "loan_not_found"))
}

func TestArgumentValidation(t *testing.T) {
	_, err := runCLI(t, "loan", "0")
	require.ErrorContains(t, err, "invalid loan id")

	_, err = runCLI(t, "deposit", "ten")
	require.ErrorContains(t, err, "invalid amount")
}

func TestPriceCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/admin/oracle/prices/XLM", r.URL.Path)
		require.Equal(t, "Bearer admin", r.Header.Get("Authorization"))
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r.Body)
		require.Contains(t, buf.String(), `"price":1250000`)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"symbol":"XLM","price":1250000}`))
	}))
	defer srv.Close()

	out, err := runCLI(t, "price", "xlm", "1250000", "--api", srv.URL, "--token", "admin")
	require.NoError(t, err)
	require.Contains(t, out, `"symbol": "XLM"`)

	_, err = runCLI(t, "price", "xlm", "0", "--api", srv.URL)
	require.ErrorContains(t, err, "invalid price")
}

func TestBurnCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/admin/assets/reward/burn", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"asset":"reward","account":"GB","burned":3}`))
	}))
	defer srv.Close()

	out, err := runCLI(t, "burn", "reward", "GB", "3", "--api", srv.URL, "--token", "admin")
	require.NoError(t, err)
	require.Contains(t, out, `"burned": 3`)
}
