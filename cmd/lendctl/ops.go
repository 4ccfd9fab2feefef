package main

import (
	"github.com/spf13/cobra"
)

const accountKey = "account"

func depositCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "deposit <amount>",
		Short: "Deposits into the pool as the token's account",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			client, err := clientFrom(c)
			if err != nil {
				return err
			}
			account, _ := c.Flags().GetString(accountKey)
			rec, err := client.Deposit(c.Context(), account, amount)
			if err != nil {
				return err
			}
			return printJSON(c, rec)
		},
	}
	c.Flags().String(accountKey, "", "Account to act for; defaults to the token's account")
	return c
}

func withdrawCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "withdraw <amount>",
		Short: "Withdraws from the pool as the token's account",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			client, err := clientFrom(c)
			if err != nil {
				return err
			}
			account, _ := c.Flags().GetString(accountKey)
			rec, err := client.Withdraw(c.Context(), account, amount)
			if err != nil {
				return err
			}
			return printJSON(c, rec)
		},
	}
	c.Flags().String(accountKey, "", "Account to act for; defaults to the token's account")
	return c
}

func borrowCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "borrow <amount>",
		Short: "Requests a loan as the token's account",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			days, err := c.Flags().GetUint32("days")
			if err != nil {
				return err
			}
			client, err := clientFrom(c)
			if err != nil {
				return err
			}
			account, _ := c.Flags().GetString(accountKey)
			id, err := client.RequestLoan(c.Context(), account, amount, days)
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
	c.Flags().Uint32("days", 30, "Loan duration in days")
	c.Flags().String(accountKey, "", "Borrower to act for; defaults to the token's account")
	return c
}

func repayCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repay <loan-id>",
		Short: "Repays principal plus interest on a loan",
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
			loan, err := client.RepayLoan(c.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(c, loan)
		},
	}
}

func liquidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "liquidate <loan-id>",
		Short: "Marks an overdue loan defaulted",
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
			if err := client.LiquidateDefaulted(c.Context(), id); err != nil {
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
