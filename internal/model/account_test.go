package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestWithdrawalFloor(t *testing.T) {
	savings := Account{Type: TypeSavings, MinimumBalance: decimal.NewFromInt(1000)}
	assert.True(t, savings.WithdrawalFloor().Equal(decimal.NewFromInt(1000)))

	current := Account{Type: TypeCurrent, OverdraftLimit: decimal.NewFromInt(5000)}
	assert.True(t, current.WithdrawalFloor().Equal(decimal.NewFromInt(-5000)))

	fd := Account{Type: TypeFixedDeposit}
	assert.True(t, fd.WithdrawalFloor().IsZero())
}

func TestEarlyWithdrawalPenalty(t *testing.T) {
	maturity := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	fd := Account{
		Type:         TypeFixedDeposit,
		MaturityDate: maturity,
		PenaltyRate:  decimal.NewFromInt(2),
	}
	amount := decimal.NewFromInt(5000)

	early := fd.EarlyWithdrawalPenalty(amount, maturity.AddDate(-1, 0, 0))
	assert.True(t, early.Equal(decimal.NewFromInt(100)), "got %s", early)

	atMaturity := fd.EarlyWithdrawalPenalty(amount, maturity)
	assert.True(t, atMaturity.IsZero())

	savings := Account{Type: TypeSavings}
	assert.True(t, savings.EarlyWithdrawalPenalty(amount, maturity.AddDate(-1, 0, 0)).IsZero())
}

func TestValidAccountType(t *testing.T) {
	assert.True(t, ValidAccountType(TypeSavings))
	assert.True(t, ValidAccountType(TypeCurrent))
	assert.True(t, ValidAccountType(TypeFixedDeposit))
	assert.False(t, ValidAccountType("checking"))
	assert.False(t, ValidAccountType(""))
}
