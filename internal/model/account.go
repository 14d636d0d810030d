package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType discriminates the account variants. The set is closed; variant
// behavior is dispatched on this tag rather than on separate types.
type AccountType string

const (
	TypeSavings      AccountType = "savings"
	TypeCurrent      AccountType = "current"
	TypeFixedDeposit AccountType = "fixed_deposit"
)

// ValidAccountType reports whether t is in the closed variant set.
func ValidAccountType(t AccountType) bool {
	switch t {
	case TypeSavings, TypeCurrent, TypeFixedDeposit:
		return true
	}
	return false
}

// AccountStatus is the lifecycle state of an account. Closing is terminal.
type AccountStatus string

const (
	StatusActive AccountStatus = "active"
	StatusClosed AccountStatus = "closed"
)

// ValidAccountStatus reports whether s is a known status.
func ValidAccountStatus(s AccountStatus) bool {
	return s == StatusActive || s == StatusClosed
}

// Defaults for the savings variant.
var (
	DefaultInterestRate   = decimal.NewFromFloat(3.5)
	DefaultMinimumBalance = decimal.NewFromInt(1000)
)

// Account represents one bank account owned by a citizen. Variant fields are
// only meaningful for the matching Type and are zero otherwise.
type Account struct {
	Number       string // globally unique, immutable
	PAN          string // owning citizen, lookup-only reference
	Type         AccountType
	Balance      decimal.Decimal
	Branch       string
	Status       AccountStatus
	OpenedAt     time.Time
	Version      int64
	LastModified time.Time

	// savings
	InterestRate   decimal.Decimal
	MinimumBalance decimal.Decimal
	// current
	OverdraftLimit decimal.Decimal
	// fixed_deposit
	MaturityDate time.Time
	PenaltyRate  decimal.Decimal // percent applied to early withdrawals
}

// WithdrawalFloor returns the lowest balance a withdrawal may leave behind
// for this account's variant.
func (a Account) WithdrawalFloor() decimal.Decimal {
	switch a.Type {
	case TypeSavings:
		return a.MinimumBalance
	case TypeCurrent:
		return a.OverdraftLimit.Neg()
	default:
		return decimal.Zero
	}
}

// EarlyWithdrawalPenalty returns the penalty deducted from an early
// fixed-deposit withdrawal of amount at time now. Zero for other variants
// and for withdrawals on or after the maturity date.
func (a Account) EarlyWithdrawalPenalty(amount decimal.Decimal, now time.Time) decimal.Decimal {
	if a.Type != TypeFixedDeposit || !now.Before(a.MaturityDate) {
		return decimal.Zero
	}
	hundred := decimal.NewFromInt(100)
	return amount.Mul(a.PenaltyRate).Div(hundred).Round(2)
}
