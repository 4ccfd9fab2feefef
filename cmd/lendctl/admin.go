package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lumilend/backend/internal/auth"
	"github.com/lumilend/backend/internal/config"
	"github.com/lumilend/backend/internal/domain/pool"
)

func initCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "init",
		Short: "Initializes the pool (admin)",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			flags := c.Flags()
			var params pool.InitParams
			var err error
			if params.AssetID, err = flags.GetString("asset"); err != nil {
				return err
			}
			if params.PoolAccount, err = flags.GetString("pool-account"); err != nil {
				return err
			}
			if params.InterestRateBPS, err = flags.GetUint32("rate-bps"); err != nil {
				return err
			}
			if params.OracleID, err = flags.GetString("oracle"); err != nil {
				return err
			}
			if params.OracleSymbol, err = flags.GetString("symbol"); err != nil {
				return err
			}
			if params.RewardAssetID, err = flags.GetString("reward-asset"); err != nil {
				return err
			}

			client, err := clientFrom(c)
			if err != nil {
				return err
			}
			cfg, err := client.InitializePool(c.Context(), params)
			if err != nil {
				return err
			}
			return printJSON(c, cfg)
		},
	}
	flags := c.Flags()
	flags.String("asset", "native", "Pooled asset id")
	flags.String("pool-account", "pool", "Account that holds pooled funds")
	flags.Uint32("rate-bps", 500, "Flat interest rate in basis points")
	flags.String("oracle", "oracle", "Price oracle id")
	flags.String("symbol", pool.DefaultOracleSymbol, "Oracle symbol")
	flags.String("reward-asset", "lumi", "Reward asset id")
	return c
}

func tokenCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "token <account>",
		Short: "Issues an access token for an account",
		Long: "Issues an access token through the admin API, or with --offline signs it " +
			"locally with the JWT settings from the environment.",
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			flags := c.Flags()
			role, err := flags.GetString("role")
			if err != nil {
				return err
			}
			ttl, err := flags.GetDuration("ttl")
			if err != nil {
				return err
			}
			offline, err := flags.GetBool("offline")
			if err != nil {
				return err
			}

			var token string
			if offline {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				if role != auth.RoleAccount && role != auth.RoleAdmin {
					return errors.New("role must be account or admin")
				}
				token, err = auth.NewJWTManager(cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTSigningKey).Mint(args[0], role, ttl)
				if err != nil {
					return err
				}
			} else {
				client, err := clientFrom(c)
				if err != nil {
					return err
				}
				if token, err = client.IssueToken(c.Context(), args[0], role, ttl); err != nil {
					return err
				}
			}
			_, err = c.OutOrStdout().Write([]byte(token + "\n"))
			return err
		},
	}
	flags := c.Flags()
	flags.String("role", auth.RoleAccount, "Token role: account or admin")
	flags.Duration("ttl", time.Hour, "Token lifetime")
	flags.Bool("offline", false, "Sign locally instead of calling the API")
	return c
}

func mintCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mint <pool|reward> <account> <amount>",
		Short: "Funds an account from the stub asset faucet (admin)",
		Args:  cobra.ExactArgs(3),
		RunE: func(c *cobra.Command, args []string) error {
			amount, err := parseAmount(args[2])
			if err != nil {
				return err
			}
			client, err := clientFrom(c)
			if err != nil {
				return err
			}
			if err := client.MintAsset(c.Context(), args[0], args[1], amount); err != nil {
				return err
			}
			return printJSON(c, map[string]any{"asset": args[0], "account": args[1], "minted": amount})
		},
	}
}

func burnCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "burn <pool|reward> <account> <amount>",
		Short: "Destroys stub asset units held by an account (admin)",
		Args:  cobra.ExactArgs(3),
		RunE: func(c *cobra.Command, args []string) error {
			amount, err := parseAmount(args[2])
			if err != nil {
				return err
			}
			client, err := clientFrom(c)
			if err != nil {
				return err
			}
			if err := client.BurnAsset(c.Context(), args[0], args[1], amount); err != nil {
				return err
			}
			return printJSON(c, map[string]any{"asset": args[0], "account": args[1], "burned": amount})
		},
	}
}

func priceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "price <symbol> <price>",
		Short: "Sets a stub oracle price, 7 decimals (admin)",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			price, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil || price <= 0 {
				return fmt.Errorf("invalid price %q", args[1])
			}
			client, err := clientFrom(c)
			if err != nil {
				return err
			}
			symbol := strings.ToUpper(args[0])
			if err := client.SetPrice(c.Context(), symbol, price); err != nil {
				return err
			}
			return printJSON(c, map[string]any{"symbol": symbol, "price": price})
		},
	}
}
