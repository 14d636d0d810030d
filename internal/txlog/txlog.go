// Package txlog appends an audit trail of balance mutations to a CSV file.
// The log is advisory: it is written after the store commit and never rolls
// a mutation back.
package txlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind labels the mutation recorded by an entry.
type Kind string

const (
	KindDeposit  Kind = "deposit"
	KindWithdraw Kind = "withdraw"
)

// Entry is one row in the transaction log.
type Entry struct {
	ID        string // uuid
	Timestamp time.Time
	Account   string
	Kind      Kind
	Amount    decimal.Decimal
	Balance   decimal.Decimal // balance after the mutation
	Note      string          // e.g. early-withdrawal penalty paid
}

// Header is the CSV header for the transaction log.
const Header = "id,timestamp,account,kind,amount,balance,note"

const (
	numFields    = 7
	colID        = 0
	colTimestamp = 1
	colAccount   = 2
	colKind      = 3
	colAmount    = 4
	colBalance   = 5
	colNote      = 6
)

// Log appends entries to a single CSV file.
type Log struct {
	path string
	now  func() time.Time
}

// New creates a Log writing to path.
func New(path string) *Log {
	return &Log{path: path, now: time.Now}
}

// Record appends one entry, assigning its ID and timestamp. Returns the
// entry as written.
func (l *Log) Record(account string, kind Kind, amount, balance decimal.Decimal, note string) (Entry, error) {
	e := Entry{
		ID:        uuid.NewString(),
		Timestamp: l.now().UTC(),
		Account:   account,
		Kind:      kind,
		Amount:    amount,
		Balance:   balance,
		Note:      note,
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return Entry{}, fmt.Errorf("creating log dir: %w", err)
	}

	isNew := false
	if _, err := os.Stat(l.path); errors.Is(err, fs.ErrNotExist) {
		isNew = true
	}

	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return Entry{}, fmt.Errorf("opening transaction log: %w", err)
	}
	defer f.Close()

	if isNew {
		if _, err := fmt.Fprintln(f, Header); err != nil {
			return Entry{}, fmt.Errorf("writing header: %w", err)
		}
	}

	cw := csv.NewWriter(f)
	if err := cw.Write(MarshalEntry(e)); err != nil {
		return Entry{}, fmt.Errorf("writing entry: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return Entry{}, fmt.Errorf("flushing entry: %w", err)
	}
	return e, nil
}

// ReadAll reads every entry in the log. A missing log file is empty.
func (l *Log) ReadAll() ([]Entry, error) {
	f, err := os.Open(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening transaction log: %w", err)
	}
	defer f.Close()

	return ReadEntries(f)
}

// ReadEntries reads entries from a transaction log reader.
func ReadEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading transaction log: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colID] = e.ID
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colAccount] = e.Account
	row[colKind] = string(e.Kind)
	row[colAmount] = e.Amount.StringFixed(2)
	row[colBalance] = e.Balance.StringFixed(2)
	row[colNote] = e.Note
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}

	amount, err := decimal.NewFromString(record[colAmount])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
	}

	balance, err := decimal.NewFromString(record[colBalance])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing balance %q: %w", record[colBalance], err)
	}

	return Entry{
		ID:        record[colID],
		Timestamp: ts,
		Account:   record[colAccount],
		Kind:      Kind(record[colKind]),
		Amount:    amount,
		Balance:   balance,
		Note:      record[colNote],
	}, nil
}
