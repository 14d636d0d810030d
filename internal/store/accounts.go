package store

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/panvault-dev/panvault/internal/model"
	"github.com/panvault-dev/panvault/internal/pan"
)

// OpenAccountParams holds the fields for opening an account. Variant fields
// are read only for the matching Type; zero savings rates fall back to the
// variant defaults.
type OpenAccountParams struct {
	Number         string
	PAN            string
	Type           model.AccountType
	InitialBalance decimal.Decimal
	Branch         string
	OpenedAt       time.Time // zero = now

	InterestRate   decimal.Decimal
	MinimumBalance decimal.Decimal
	OverdraftLimit decimal.Decimal
	MaturityDate   time.Time
	PenaltyRate    decimal.Decimal
}

// CreateAccount opens an account referencing an existing citizen.
func (s *Store) CreateAccount(params OpenAccountParams) (model.Account, error) {
	const op = "store.create_account"

	if !pan.ValidAccountNumber(params.Number) {
		return model.Account{}, &model.Fault{
			Op: op, Kind: model.KindInvalidFormat, Key: params.Number, Field: "number",
			Err: fmt.Errorf("account number must be 6-18 digits"),
		}
	}
	if !model.ValidAccountType(params.Type) {
		return model.Account{}, &model.Fault{
			Op: op, Kind: model.KindInvalidFormat, Key: params.Number, Field: "type",
			Err: fmt.Errorf("unknown account type %q", params.Type),
		}
	}

	opened := params.OpenedAt
	if opened.IsZero() {
		opened = s.now().UTC()
	}

	a := model.Account{
		Number:   params.Number,
		PAN:      pan.Normalize(params.PAN),
		Type:     params.Type,
		Balance:  params.InitialBalance,
		Branch:   params.Branch,
		Status:   model.StatusActive,
		OpenedAt: opened,
		Version:  1,
	}

	switch params.Type {
	case model.TypeSavings:
		a.InterestRate = params.InterestRate
		if a.InterestRate.IsZero() {
			a.InterestRate = model.DefaultInterestRate
		}
		a.MinimumBalance = params.MinimumBalance
		if a.MinimumBalance.IsZero() {
			a.MinimumBalance = model.DefaultMinimumBalance
		}
	case model.TypeCurrent:
		if params.OverdraftLimit.IsNegative() {
			return model.Account{}, &model.Fault{
				Op: op, Kind: model.KindInvalidFormat, Key: params.Number, Field: "overdraft_limit",
				Err: fmt.Errorf("overdraft limit must not be negative"),
			}
		}
		a.OverdraftLimit = params.OverdraftLimit
	case model.TypeFixedDeposit:
		if params.MaturityDate.IsZero() || !params.MaturityDate.After(opened) {
			return model.Account{}, &model.Fault{
				Op: op, Kind: model.KindInvalidFormat, Key: params.Number, Field: "maturity_date",
				Err: fmt.Errorf("maturity date must be after the open date"),
			}
		}
		if params.PenaltyRate.IsNegative() {
			return model.Account{}, &model.Fault{
				Op: op, Kind: model.KindInvalidFormat, Key: params.Number, Field: "penalty_rate",
				Err: fmt.Errorf("penalty rate must not be negative"),
			}
		}
		a.MaturityDate = params.MaturityDate
		a.PenaltyRate = params.PenaltyRate
		if !params.InitialBalance.IsPositive() {
			return model.Account{}, &model.Fault{
				Op: op, Kind: model.KindInvalidFormat, Key: params.Number, Field: "initial_balance",
				Err: fmt.Errorf("fixed deposit must open with a positive balance"),
			}
		}
	}

	if floor := a.WithdrawalFloor(); params.InitialBalance.LessThan(floor) {
		return model.Account{}, &model.Fault{
			Op: op, Kind: model.KindInvalidFormat, Key: params.Number, Field: "initial_balance",
			Err: fmt.Errorf("initial balance %s below the %s floor of %s",
				params.InitialBalance.StringFixed(2), a.Type, floor.StringFixed(2)),
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.citizens[a.PAN]; !ok {
		return model.Account{}, &model.Fault{Op: op, Kind: model.KindNotFound, Key: a.PAN, Field: "pan"}
	}
	if _, exists := s.accounts[a.Number]; exists {
		return model.Account{}, &model.Fault{Op: op, Kind: model.KindDuplicateKey, Key: a.Number, Field: "number"}
	}

	b := s.capture()
	a.LastModified = s.now().UTC()
	s.accounts[a.Number] = a
	s.byPAN[a.PAN] = append(s.byPAN[a.PAN], a.Number)
	sort.Strings(s.byPAN[a.PAN])

	if err := s.commit(op, b); err != nil {
		return model.Account{}, err
	}
	return a, nil
}

// Deposit credits amount to the account. Amount must be strictly positive.
func (s *Store) Deposit(number string, amount decimal.Decimal) (model.Account, error) {
	const op = "store.deposit"

	if !amount.IsPositive() {
		return model.Account{}, &model.Fault{
			Op: op, Kind: model.KindInvalidFormat, Key: number, Field: "amount",
			Err: fmt.Errorf("amount must be strictly positive, got %s", amount),
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[number]
	if !ok {
		return model.Account{}, &model.Fault{Op: op, Kind: model.KindNotFound, Key: number}
	}
	if a.Status == model.StatusClosed {
		return model.Account{}, &model.Fault{
			Op: op, Kind: model.KindConflict, Key: number, Field: "status",
			Err: fmt.Errorf("account is closed"),
		}
	}

	b := s.capture()
	a.Balance = a.Balance.Add(amount)
	a.Version++
	a.LastModified = s.now().UTC()
	s.accounts[number] = a

	if err := s.commit(op, b); err != nil {
		return model.Account{}, err
	}
	return a, nil
}

// WithdrawResult reports the outcome of a withdrawal. Paid is the amount
// credited to the holder after any early-withdrawal penalty.
type WithdrawResult struct {
	Account model.Account
	Paid    decimal.Decimal
	Penalty decimal.Decimal
}

// Withdraw debits amount from the account, enforcing the variant's balance
// floor. Fixed deposits withdrawn before maturity pay out amount minus the
// penalty; the account is still debited the full amount.
func (s *Store) Withdraw(number string, amount decimal.Decimal) (WithdrawResult, error) {
	const op = "store.withdraw"

	if !amount.IsPositive() {
		return WithdrawResult{}, &model.Fault{
			Op: op, Kind: model.KindInvalidFormat, Key: number, Field: "amount",
			Err: fmt.Errorf("amount must be strictly positive, got %s", amount),
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[number]
	if !ok {
		return WithdrawResult{}, &model.Fault{Op: op, Kind: model.KindNotFound, Key: number}
	}
	if a.Status == model.StatusClosed {
		return WithdrawResult{}, &model.Fault{
			Op: op, Kind: model.KindConflict, Key: number, Field: "status",
			Err: fmt.Errorf("account is closed"),
		}
	}

	newBalance := a.Balance.Sub(amount)
	if floor := a.WithdrawalFloor(); newBalance.LessThan(floor) {
		return WithdrawResult{}, &model.Fault{
			Op: op, Kind: model.KindInsufficientFunds, Key: number, Field: "balance",
			Err: fmt.Errorf("withdrawing %s would leave %s, below the %s floor of %s",
				amount.StringFixed(2), newBalance.StringFixed(2), a.Type, floor.StringFixed(2)),
		}
	}

	penalty := a.EarlyWithdrawalPenalty(amount, s.now())

	b := s.capture()
	a.Balance = newBalance
	a.Version++
	a.LastModified = s.now().UTC()
	s.accounts[number] = a

	if err := s.commit(op, b); err != nil {
		return WithdrawResult{}, err
	}
	return WithdrawResult{Account: a, Paid: amount.Sub(penalty), Penalty: penalty}, nil
}

// CloseAccount transitions the account to closed. The transition is
// terminal; closing twice is a conflict.
func (s *Store) CloseAccount(number string) (model.Account, error) {
	const op = "store.close_account"

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[number]
	if !ok {
		return model.Account{}, &model.Fault{Op: op, Kind: model.KindNotFound, Key: number}
	}
	if a.Status == model.StatusClosed {
		return model.Account{}, &model.Fault{
			Op: op, Kind: model.KindConflict, Key: number, Field: "status",
			Err: fmt.Errorf("account is already closed"),
		}
	}

	b := s.capture()
	a.Status = model.StatusClosed
	a.Version++
	a.LastModified = s.now().UTC()
	s.accounts[number] = a

	if err := s.commit(op, b); err != nil {
		return model.Account{}, err
	}
	return a, nil
}
