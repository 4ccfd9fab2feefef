package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/lumilend/backend/pkg/lendclient"
)

const (
	apiKey     = "api"
	tokenKey   = "token"
	timeoutKey = "timeout"
)

func rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "lendctl",
		Short:         "Operates a lending pool through its HTTP API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	addGlobalFlags(root.PersistentFlags())

	root.AddCommand(
		statsCommand(),
		configCommand(),
		lenderCommand(),
		loanCommand(),
		activeLoanCommand(),
		depositCommand(),
		withdrawCommand(),
		borrowCommand(),
		repayCommand(),
		liquidateCommand(),
		initCommand(),
		tokenCommand(),
		mintCommand(),
		burnCommand(),
		priceCommand(),
		balanceCommand(),
	)
	return root
}

func addGlobalFlags(flags *pflag.FlagSet) {
	flags.String(apiKey, envOr("LUMILEND_API", "http://localhost:8090"), "Base URL of the pool API")
	flags.String(tokenKey, os.Getenv("LUMILEND_TOKEN"), "Bearer token used for authenticated calls")
	flags.Duration(timeoutKey, 15*time.Second, "Per-request timeout")
}

func clientFrom(c *cobra.Command) (*lendclient.Client, error) {
	flags := c.Flags()
	api, err := flags.GetString(apiKey)
	if err != nil {
		return nil, err
	}
	token, err := flags.GetString(tokenKey)
	if err != nil {
		return nil, err
	}
	timeout, err := flags.GetDuration(timeoutKey)
	if err != nil {
		return nil, err
	}
	return lendclient.New(api, &http.Client{Timeout: timeout}).WithToken(token), nil
}

func printJSON(c *cobra.Command, v any) error {
	enc := json.NewEncoder(c.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseLoanID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid loan id %q", s)
	}
	return id, nil
}

func parseAmount(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return n, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
