package main

import (
	"github.com/spf13/cobra"
)

func statsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Shows pool totals",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			client, err := clientFrom(c)
			if err != nil {
				return err
			}
			stats, err := client.PoolStats(c.Context())
			if err != nil {
				return err
			}
			return printJSON(c, stats)
		},
	}
}

func configCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Shows the identities recorded at initialization",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			client, err := clientFrom(c)
			if err != nil {
				return err
			}
			cfg, err := client.Config(c.Context())
			if err != nil {
				return err
			}
			next, err := client.NextLoanID(c.Context())
			if err != nil {
				return err
			}
			return printJSON(c, map[string]any{"config": cfg, "next_loan_id": next})
		},
	}
}

func lenderCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "lender <address>",
		Short: "Shows a lender's deposit record",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			client, err := clientFrom(c)
			if err != nil {
				return err
			}
			rec, err := client.LenderInfo(c.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(c, rec)
		},
	}
}

func loanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "loan <loan-id>",
		Short: "Shows a loan record",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			id, err := parseLoanID(args[0])
			if err != nil {
				return err
			}
			client, err := clientFrom(c)
			if err != nil {
				return err
			}
			loan, err := client.Loan(c.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(c, loan)
		},
	}
}

func activeLoanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "active-loan <borrower>",
		Short: "Shows a borrower's open loan",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			client, err := clientFrom(c)
			if err != nil {
				return err
			}
			loan, err := client.ActiveLoan(c.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(c, loan)
		},
	}
}

func balanceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "balance <pool|reward> <account>",
		Short: "Shows an account's asset balance",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			client, err := clientFrom(c)
			if err != nil {
				return err
			}
			bal, err := client.Balance(c.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(c, map[string]any{"asset": args[0], "account": args[1], "balance": bal})
		},
	}
}
