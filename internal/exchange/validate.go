package exchange

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/panvault-dev/panvault/internal/model"
	"github.com/panvault-dev/panvault/internal/pan"
)

// Violation is one schema rule broken at a document location.
type Violation struct {
	Location string
	Rule     string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Location, v.Rule)
}

// Report is the outcome of schema validation. Validation never rejects a
// document by itself; callers decide whether any violation is fatal.
type Report struct {
	Violations []Violation
}

// Valid reports whether the document conforms to the schema.
func (r Report) Valid() bool {
	return len(r.Violations) == 0
}

// Err converts the report into a validation_failed fault carrying every
// (location, rule) pair, or nil for a valid document.
func (r Report) Err() error {
	if r.Valid() {
		return nil
	}
	msgs := make([]string, len(r.Violations))
	for i, v := range r.Violations {
		msgs[i] = v.String()
	}
	return &model.Fault{
		Op:   "exchange.validate",
		Kind: model.KindValidationFailed,
		Err:  fmt.Errorf("%d violation(s): %s", len(r.Violations), strings.Join(msgs, "; ")),
	}
}

func (r *Report) add(location, rule string, args ...any) {
	r.Violations = append(r.Violations, Violation{
		Location: location,
		Rule:     fmt.Sprintf(rule, args...),
	})
}

// Validate checks a document's structural and field-level conformance
// against the fixed interchange schema. It is independent of and safe to
// run before signature verification, and never mutates the document.
func Validate(doc *Document) Report {
	var r Report

	if doc.Version != FormatVersion {
		r.add("PanExchange", "unsupported version %q, want %q", doc.Version, FormatVersion)
	}
	if doc.Metadata.FormatVersion != FormatVersion {
		r.add("Metadata/FormatVersion", "unsupported format version %q, want %q", doc.Metadata.FormatVersion, FormatVersion)
	}
	if doc.Metadata.Source == "" {
		r.add("Metadata/Source", "source label is required")
	}
	if _, err := time.Parse(TimestampFormat, doc.Metadata.ExportedAt); err != nil {
		r.add("Metadata/ExportedAt", "not a valid timestamp: %q", doc.Metadata.ExportedAt)
	}
	if doc.Metadata.RecordCount != len(doc.Citizens) {
		r.add("Metadata/RecordCount", "record count %d does not match %d citizen(s)", doc.Metadata.RecordCount, len(doc.Citizens))
	}

	if len(doc.Citizens) == 0 {
		r.add("Citizens", "at least one citizen is required")
	}

	seen := make(map[string]bool)
	for i, c := range doc.Citizens {
		loc := citizenLoc(i, c)

		if !pan.Valid(c.PAN) {
			r.add(loc+"/PAN", "PAN %q does not match the required pattern", c.PAN)
		}
		if c.ID != c.PAN {
			r.add(loc, "id attribute %q does not match PAN element %q", c.ID, c.PAN)
		}
		if seen[c.PAN] {
			r.add(loc, "duplicate PAN %q in document", c.PAN)
		}
		seen[c.PAN] = true

		if c.Name == "" {
			r.add(loc+"/Name", "name must not be empty")
		}
		if _, err := time.Parse(DateFormat, c.DOB); err != nil {
			r.add(loc+"/DOB", "not a valid calendar date: %q", c.DOB)
		}
		if c.LastModified != "" {
			if _, err := time.Parse(TimestampFormat, c.LastModified); err != nil {
				r.add(loc, "lastModified attribute is not a valid timestamp: %q", c.LastModified)
			}
		}
		if c.Address.Country == "" {
			r.add(loc+"/Address/Country", "country is required")
		}

		for j, a := range c.Accounts {
			validateAccount(&r, loc, j, a)
		}
	}

	return r
}

func validateAccount(r *Report, citizenLoc string, idx int, a AccountRecord) {
	loc := fmt.Sprintf("%s/Account[%s]", citizenLoc, orIndex(a.Number, idx))

	if !pan.ValidAccountNumber(a.Number) {
		r.add(loc+"/Number", "account number %q must be 6-18 digits", a.Number)
	}
	if !model.ValidAccountType(model.AccountType(a.Type)) {
		r.add(loc+"/Type", "unknown account type %q", a.Type)
	}
	if _, err := decimal.NewFromString(a.Balance); err != nil {
		r.add(loc+"/Balance", "not a decimal number: %q", a.Balance)
	}
	if !model.ValidAccountStatus(model.AccountStatus(a.Status)) {
		r.add(loc+"/Status", "unknown status %q", a.Status)
	}
	if _, err := time.Parse(TimestampFormat, a.OpenedAt); err != nil {
		r.add(loc+"/OpenedAt", "not a valid timestamp: %q", a.OpenedAt)
	}

	for _, f := range []struct{ name, value string }{
		{"InterestRate", a.InterestRate},
		{"MinimumBalance", a.MinimumBalance},
		{"OverdraftLimit", a.OverdraftLimit},
		{"PenaltyRate", a.PenaltyRate},
	} {
		if f.value == "" {
			continue
		}
		if _, err := decimal.NewFromString(f.value); err != nil {
			r.add(loc+"/"+f.name, "not a decimal number: %q", f.value)
		}
	}
	if a.MaturityDate != "" {
		if _, err := time.Parse(DateFormat, a.MaturityDate); err != nil {
			r.add(loc+"/MaturityDate", "not a valid calendar date: %q", a.MaturityDate)
		}
	}
}

func citizenLoc(idx int, c CitizenRecord) string {
	return fmt.Sprintf("Citizen[%s]", orIndex(c.PAN, idx))
}

func orIndex(key string, idx int) string {
	if key != "" {
		return key
	}
	return fmt.Sprintf("#%d", idx)
}
