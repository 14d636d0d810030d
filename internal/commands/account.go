package commands

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/panvault-dev/panvault/internal/exchange"
	"github.com/panvault-dev/panvault/internal/model"
	"github.com/panvault-dev/panvault/internal/store"
	"github.com/panvault-dev/panvault/internal/txlog"
)

func newAccountCommand(dir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage bank accounts",
	}
	cmd.AddCommand(newAccountOpenCommand(dir))
	cmd.AddCommand(newAccountCloseCommand(dir))
	cmd.AddCommand(newAccountListCommand(dir))
	return cmd
}

// parseAmount converts a CLI money flag into a decimal, reporting malformed
// input as an invalid-format fault so the exit code mapping applies.
func parseAmount(op, field, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, &model.Fault{
			Op: op, Kind: model.KindInvalidFormat, Field: field,
			Err: fmt.Errorf("not a decimal number: %q", value),
		}
	}
	return d, nil
}

func newAccountOpenCommand(dir *string) *cobra.Command {
	var (
		panRef, accountType, balance, branch         string
		interestRate, minBalance, overdraft, penalty string
		maturity                                     string
	)

	cmd := &cobra.Command{
		Use:   "open NUMBER",
		Short: "Open an account for an existing citizen",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(*dir)
			if err != nil {
				return err
			}

			params := store.OpenAccountParams{
				Number: args[0],
				PAN:    panRef,
				Type:   model.AccountType(accountType),
				Branch: branch,
			}
			if params.InitialBalance, err = parseAmount("cli.account_open", "balance", balance); err != nil {
				return err
			}
			for _, f := range []struct {
				value string
				field string
				dst   *decimal.Decimal
			}{
				{interestRate, "interest-rate", &params.InterestRate},
				{minBalance, "min-balance", &params.MinimumBalance},
				{overdraft, "overdraft-limit", &params.OverdraftLimit},
				{penalty, "penalty-rate", &params.PenaltyRate},
			} {
				if f.value == "" {
					continue
				}
				if *f.dst, err = parseAmount("cli.account_open", f.field, f.value); err != nil {
					return err
				}
			}
			if maturity != "" {
				if params.MaturityDate, err = time.Parse(exchange.DateFormat, maturity); err != nil {
					return &model.Fault{
						Op: "cli.account_open", Kind: model.KindInvalidFormat, Field: "maturity",
						Err: fmt.Errorf("maturity must be YYYY-MM-DD, got %q", maturity),
					}
				}
			}

			a, err := p.store.CreateAccount(params)
			if err != nil {
				return err
			}
			fmt.Printf("Opened %s account %s for %s, balance %s\n",
				a.Type, a.Number, a.PAN, a.Balance.StringFixed(2))
			return nil
		},
	}

	cmd.Flags().StringVar(&panRef, "pan", "", "owning citizen's PAN (required)")
	_ = cmd.MarkFlagRequired("pan")
	cmd.Flags().StringVar(&accountType, "type", "savings", "account type: savings, current, fixed_deposit")
	cmd.Flags().StringVar(&balance, "balance", "0", "initial balance")
	cmd.Flags().StringVar(&branch, "branch", "", "branch name (required)")
	_ = cmd.MarkFlagRequired("branch")
	cmd.Flags().StringVar(&interestRate, "interest-rate", "", "savings: interest rate percent")
	cmd.Flags().StringVar(&minBalance, "min-balance", "", "savings: minimum balance")
	cmd.Flags().StringVar(&overdraft, "overdraft-limit", "", "current: overdraft limit")
	cmd.Flags().StringVar(&maturity, "maturity", "", "fixed_deposit: maturity date, YYYY-MM-DD")
	cmd.Flags().StringVar(&penalty, "penalty-rate", "", "fixed_deposit: early withdrawal penalty percent")

	return cmd
}

func newAccountCloseCommand(dir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "close NUMBER",
		Short: "Close an account (terminal)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(*dir)
			if err != nil {
				return err
			}
			a, err := p.store.CloseAccount(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Closed account %s, final balance %s\n", a.Number, a.Balance.StringFixed(2))
			return nil
		},
	}
	return cmd
}

func newAccountListCommand(dir *string) *cobra.Command {
	var panRef string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a citizen's accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(*dir)
			if err != nil {
				return err
			}
			accounts, err := p.store.ListAccountsFor(panRef)
			if err != nil {
				return err
			}
			for _, a := range accounts {
				printAccount(a)
			}
			fmt.Printf("%d account(s)\n", len(accounts))
			return nil
		},
	}

	cmd.Flags().StringVar(&panRef, "pan", "", "citizen's PAN (required)")
	_ = cmd.MarkFlagRequired("pan")

	return cmd
}

func newDepositCommand(dir *string) *cobra.Command {
	var amount string

	cmd := &cobra.Command{
		Use:   "deposit NUMBER",
		Short: "Deposit into an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(*dir)
			if err != nil {
				return err
			}
			amt, err := parseAmount("cli.deposit", "amount", amount)
			if err != nil {
				return err
			}

			a, err := p.store.Deposit(args[0], amt)
			if err != nil {
				return err
			}
			if p.log != nil {
				if _, err := p.log.Record(a.Number, txlog.KindDeposit, amt, a.Balance, ""); err != nil {
					fmt.Printf("warning: transaction log: %v\n", err)
				}
			}
			fmt.Printf("Deposited %s into %s, balance %s\n",
				amt.StringFixed(2), a.Number, a.Balance.StringFixed(2))
			return nil
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "amount to deposit (required)")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func newWithdrawCommand(dir *string) *cobra.Command {
	var amount string

	cmd := &cobra.Command{
		Use:   "withdraw NUMBER",
		Short: "Withdraw from an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(*dir)
			if err != nil {
				return err
			}
			amt, err := parseAmount("cli.withdraw", "amount", amount)
			if err != nil {
				return err
			}

			res, err := p.store.Withdraw(args[0], amt)
			if err != nil {
				return err
			}
			note := ""
			if !res.Penalty.IsZero() {
				note = "penalty " + res.Penalty.StringFixed(2)
			}
			if p.log != nil {
				if _, err := p.log.Record(res.Account.Number, txlog.KindWithdraw, amt, res.Account.Balance, note); err != nil {
					fmt.Printf("warning: transaction log: %v\n", err)
				}
			}

			fmt.Printf("Withdrew %s from %s, paid out %s, balance %s\n",
				amt.StringFixed(2), res.Account.Number, res.Paid.StringFixed(2),
				res.Account.Balance.StringFixed(2))
			if !res.Penalty.IsZero() {
				fmt.Printf("Early withdrawal penalty applied: %s\n", res.Penalty.StringFixed(2))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "amount to withdraw (required)")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}
