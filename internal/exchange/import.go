package exchange

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/panvault-dev/panvault/internal/model"
	"github.com/panvault-dev/panvault/internal/store"
)

// Importer verifies and applies an interchange document to its own store.
type Importer struct {
	store *store.Store
	key   []byte
	scope Scope
}

// NewImporter creates an Importer upserting into s. The scope must match
// the one the exporting site signed with.
func NewImporter(s *store.Store, key []byte, scope Scope) *Importer {
	return &Importer{store: s, key: key, scope: scope}
}

// RecordFailure is one record the destination store rejected.
type RecordFailure struct {
	Key string // PAN or account number
	Err error
}

// ImportReport summarizes an import pass. Once the signature check has
// passed the result is always a report, never a binary pass/fail: rejected
// records do not abort the remaining ones.
type ImportReport struct {
	Accepted int
	Rejected int
	Failures []RecordFailure
}

func (r *ImportReport) reject(key string, err error) {
	r.Rejected++
	r.Failures = append(r.Failures, RecordFailure{Key: key, Err: err})
}

// Import verifies the document signature, schema-validates it, then upserts
// every record through the store's own constructors. A bad signature or a
// schema violation aborts the whole document; per-record business failures
// are collected into the report.
func (i *Importer) Import(doc *Document) (ImportReport, error) {
	if err := VerifySignature(doc, i.key, i.scope); err != nil {
		return ImportReport{}, &model.Fault{
			Op:   "exchange.import",
			Kind: model.KindSignatureInvalid,
			Err:  err,
		}
	}

	if report := Validate(doc); !report.Valid() {
		return ImportReport{}, report.Err()
	}

	var report ImportReport
	for _, c := range doc.Citizens {
		i.importCitizen(&report, c)
	}
	return report, nil
}

// ImportFile reads and imports the document at path.
func (i *Importer) ImportFile(path string) (ImportReport, error) {
	doc, err := ParseFile(path)
	if err != nil {
		return ImportReport{}, &model.Fault{Op: "exchange.import", Kind: model.KindPersistenceFailed, Err: err}
	}
	return i.Import(doc)
}

func (i *Importer) importCitizen(report *ImportReport, c CitizenRecord) {
	// Field formats were already schema-validated; parse errors here would
	// be programming errors, but the store re-validates regardless.
	dob, _ := time.Parse(DateFormat, c.DOB)

	_, err := i.store.CreateCitizen(store.CitizenParams{
		PAN:   c.PAN,
		Name:  c.Name,
		DOB:   dob,
		Phone: c.Phone,
		Address: model.Address{
			Street:     c.Address.Street,
			City:       c.Address.City,
			State:      c.Address.State,
			PostalCode: c.Address.PostalCode,
			Country:    c.Address.Country,
		},
	})
	if err != nil {
		report.reject(c.PAN, err)
	} else {
		report.Accepted++
	}

	// Accounts are attempted even when the citizen was rejected as a
	// duplicate, so a partially imported citizen completes on a later pass.
	for _, a := range c.Accounts {
		if err := i.importAccount(c.PAN, a); err != nil {
			report.reject(a.Number, err)
		} else {
			report.Accepted++
		}
	}
}

func (i *Importer) importAccount(citizenPAN string, a AccountRecord) error {
	balance, err := decimal.NewFromString(a.Balance)
	if err != nil {
		return fmt.Errorf("parsing balance %q: %w", a.Balance, err)
	}
	openedAt, _ := time.Parse(TimestampFormat, a.OpenedAt)

	params := store.OpenAccountParams{
		Number:         a.Number,
		PAN:            citizenPAN,
		Type:           model.AccountType(a.Type),
		InitialBalance: balance,
		Branch:         a.Branch,
		OpenedAt:       openedAt,
	}
	if a.InterestRate != "" {
		if params.InterestRate, err = decimal.NewFromString(a.InterestRate); err != nil {
			return fmt.Errorf("parsing interest rate %q: %w", a.InterestRate, err)
		}
	}
	if a.MinimumBalance != "" {
		if params.MinimumBalance, err = decimal.NewFromString(a.MinimumBalance); err != nil {
			return fmt.Errorf("parsing minimum balance %q: %w", a.MinimumBalance, err)
		}
	}
	if a.OverdraftLimit != "" {
		if params.OverdraftLimit, err = decimal.NewFromString(a.OverdraftLimit); err != nil {
			return fmt.Errorf("parsing overdraft limit %q: %w", a.OverdraftLimit, err)
		}
	}
	if a.MaturityDate != "" {
		if params.MaturityDate, err = time.Parse(DateFormat, a.MaturityDate); err != nil {
			return fmt.Errorf("parsing maturity date %q: %w", a.MaturityDate, err)
		}
	}
	if a.PenaltyRate != "" {
		if params.PenaltyRate, err = decimal.NewFromString(a.PenaltyRate); err != nil {
			return fmt.Errorf("parsing penalty rate %q: %w", a.PenaltyRate, err)
		}
	}

	created, err := i.store.CreateAccount(params)
	if err != nil {
		return err
	}

	// Exported closed accounts stay closed at the destination.
	if model.AccountStatus(a.Status) == model.StatusClosed {
		if _, err := i.store.CloseAccount(created.Number); err != nil {
			return err
		}
	}
	return nil
}
