package exchange

import (
	"time"

	"github.com/panvault-dev/panvault/internal/model"
	"github.com/panvault-dev/panvault/internal/store"
)

// Exporter serializes a store snapshot into a signed interchange document.
type Exporter struct {
	store  *store.Store
	source string // site label embedded in the metadata
	key    []byte
	scope  Scope
	now    func() time.Time
}

// ExporterOption configures an Exporter.
type ExporterOption func(*Exporter)

// WithExportNow overrides the clock. Useful for tests.
func WithExportNow(now func() time.Time) ExporterOption {
	return func(e *Exporter) { e.now = now }
}

// NewExporter creates an Exporter reading from s.
func NewExporter(s *store.Store, source string, key []byte, scope Scope, opts ...ExporterOption) *Exporter {
	e := &Exporter{store: s, source: source, key: key, scope: scope, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export takes a point-in-time snapshot of the store and produces a signed
// document. The store is never mutated; the record count always equals the
// number of citizens serialized.
func (e *Exporter) Export() *Document {
	records := e.store.Snapshot()

	doc := &Document{
		Version: FormatVersion,
		Metadata: Metadata{
			ExportedAt:    e.now().UTC().Format(TimestampFormat),
			Source:        e.source,
			RecordCount:   len(records),
			FormatVersion: FormatVersion,
		},
	}

	for _, rec := range records {
		doc.Citizens = append(doc.Citizens, citizenToWire(rec))
	}

	doc.Signature = Sign(doc, e.key, e.scope)
	return doc
}

// ExportToFile writes a signed export to path.
func (e *Exporter) ExportToFile(path string) (*Document, error) {
	doc := e.Export()
	if err := doc.WriteFile(path); err != nil {
		return nil, &model.Fault{Op: "exchange.export", Kind: model.KindPersistenceFailed, Err: err}
	}
	return doc, nil
}

func citizenToWire(rec store.Record) CitizenRecord {
	c := rec.Citizen
	out := CitizenRecord{
		ID:           c.PAN,
		LastModified: c.LastModified.UTC().Format(TimestampFormat),
		PAN:          c.PAN,
		Name:         c.Name,
		DOB:          c.DOB.Format(DateFormat),
		Phone:        c.Phone,
		Address: AddressBlock{
			Street:     c.Address.Street,
			City:       c.Address.City,
			State:      c.Address.State,
			PostalCode: c.Address.PostalCode,
			Country:    c.Address.Country,
		},
	}
	for _, a := range rec.Accounts {
		out.Accounts = append(out.Accounts, accountToWire(a))
	}
	return out
}

func accountToWire(a model.Account) AccountRecord {
	out := AccountRecord{
		Number:   a.Number,
		Type:     string(a.Type),
		Balance:  a.Balance.StringFixed(2),
		Branch:   a.Branch,
		Status:   string(a.Status),
		OpenedAt: a.OpenedAt.UTC().Format(TimestampFormat),
	}
	switch a.Type {
	case model.TypeSavings:
		out.InterestRate = a.InterestRate.String()
		out.MinimumBalance = a.MinimumBalance.StringFixed(2)
	case model.TypeCurrent:
		out.OverdraftLimit = a.OverdraftLimit.StringFixed(2)
	case model.TypeFixedDeposit:
		out.MaturityDate = a.MaturityDate.UTC().Format(DateFormat)
		out.PenaltyRate = a.PenaltyRate.String()
	}
	return out
}
