// Package store owns the in-memory record collections and their on-disk
// snapshot. A Store is an explicit instance; two independent sites run two
// independent stores.
package store

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/panvault-dev/panvault/internal/model"
)

// Store holds citizens and accounts, indexed by their keys, and persists
// every successful mutation to a snapshot file. All exported methods are
// safe for concurrent use; mutations serialize on a single write lock so
// balance read-modify-write sequences never interleave.
type Store struct {
	mu       sync.RWMutex
	path     string // snapshot file; empty = memory-only
	citizens map[string]model.Citizen
	accounts map[string]model.Account
	byPAN    map[string][]string // PAN -> account numbers, sorted

	now  func() time.Time
	save func(path string, st snapshotState) error
}

// Option configures a Store.
type Option func(*Store)

// WithNow overrides the clock. Useful for tests.
func WithNow(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty Store persisting to path. An empty path keeps the
// store memory-only.
func New(path string, opts ...Option) *Store {
	s := &Store{
		path:     path,
		citizens: make(map[string]model.Citizen),
		accounts: make(map[string]model.Account),
		byPAN:    make(map[string][]string),
		now:      time.Now,
		save:     writeSnapshotFile,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open loads the snapshot at path, or returns an empty Store when no
// snapshot exists yet.
func Open(path string, opts ...Option) (*Store, error) {
	s := New(path, opts...)

	st, found, err := readSnapshotFile(path)
	if err != nil {
		return nil, err
	}
	if !found {
		return s, nil
	}

	for _, c := range st.Citizens {
		s.citizens[c.PAN] = c
	}
	for _, a := range st.Accounts {
		if _, ok := s.citizens[a.PAN]; !ok {
			return nil, &model.Fault{
				Op:   "store.open",
				Kind: model.KindConflict,
				Key:  a.Number,
				Err:  fmt.Errorf("account references unknown PAN %s", a.PAN),
			}
		}
		s.accounts[a.Number] = a
		s.byPAN[a.PAN] = append(s.byPAN[a.PAN], a.Number)
	}
	for p := range s.byPAN {
		sort.Strings(s.byPAN[p])
	}
	return s, nil
}

// GetCitizen returns the citizen keyed by pan.
func (s *Store) GetCitizen(pan string) (model.Citizen, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.citizens[pan]
	if !ok {
		return model.Citizen{}, &model.Fault{Op: "store.get_citizen", Kind: model.KindNotFound, Key: pan}
	}
	return c, nil
}

// GetAccount returns the account keyed by number.
func (s *Store) GetAccount(number string) (model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[number]
	if !ok {
		return model.Account{}, &model.Fault{Op: "store.get_account", Kind: model.KindNotFound, Key: number}
	}
	return a, nil
}

// ListAccountsFor returns the accounts owned by pan, sorted by number.
func (s *Store) ListAccountsFor(pan string) ([]model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.citizens[pan]; !ok {
		return nil, &model.Fault{Op: "store.list_accounts", Kind: model.KindNotFound, Key: pan}
	}

	numbers := s.byPAN[pan]
	accounts := make([]model.Account, 0, len(numbers))
	for _, n := range numbers {
		accounts = append(accounts, s.accounts[n])
	}
	return accounts, nil
}

// SearchPANPrefix returns all citizens whose PAN starts with prefix,
// sorted by PAN. The prefix is matched case-insensitively.
func (s *Store) SearchPANPrefix(prefix string) []model.Citizen {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	var out []model.Citizen
	for p, c := range s.citizens {
		if strings.HasPrefix(p, prefix) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PAN < out[j].PAN })
	return out
}

// CitizenByAccount resolves the citizen owning the given account number.
func (s *Store) CitizenByAccount(number string) (model.Citizen, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[number]
	if !ok {
		return model.Citizen{}, &model.Fault{Op: "store.citizen_by_account", Kind: model.KindNotFound, Key: number}
	}
	return s.citizens[a.PAN], nil
}

// Record pairs a citizen with its accounts in a point-in-time snapshot.
type Record struct {
	Citizen  model.Citizen
	Accounts []model.Account
}

// Snapshot returns a consistent point-in-time copy of every citizen with
// its accounts nested, sorted by PAN (accounts by number). The read lock is
// held for the duration of the copy, so in-flight mutations are excluded.
func (s *Store) Snapshot() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]Record, 0, len(s.citizens))
	for p, c := range s.citizens {
		rec := Record{Citizen: c}
		for _, n := range s.byPAN[p] {
			rec.Accounts = append(rec.Accounts, s.accounts[n])
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Citizen.PAN < records[j].Citizen.PAN })
	return records
}

// backup is a deep copy of the mutable state, captured before a mutation so
// a failed persistence pass can restore it.
type backup struct {
	citizens map[string]model.Citizen
	accounts map[string]model.Account
	byPAN    map[string][]string
}

func (s *Store) capture() backup {
	b := backup{
		citizens: make(map[string]model.Citizen, len(s.citizens)),
		accounts: make(map[string]model.Account, len(s.accounts)),
		byPAN:    make(map[string][]string, len(s.byPAN)),
	}
	for k, v := range s.citizens {
		b.citizens[k] = v
	}
	for k, v := range s.accounts {
		b.accounts[k] = v
	}
	for k, v := range s.byPAN {
		nums := make([]string, len(v))
		copy(nums, v)
		b.byPAN[k] = nums
	}
	return b
}

func (s *Store) restore(b backup) {
	s.citizens = b.citizens
	s.accounts = b.accounts
	s.byPAN = b.byPAN
}

// commit persists the mutated state. On failure it restores the backup and
// reports the mutation as failed; the previous on-disk snapshot is intact
// because the write path replaces it atomically or not at all.
func (s *Store) commit(op string, b backup) error {
	if s.path == "" {
		return nil
	}
	st := s.snapshotStateLocked()
	if err := s.save(s.path, st); err != nil {
		s.restore(b)
		return &model.Fault{Op: op, Kind: model.KindPersistenceFailed, Err: err}
	}
	return nil
}

func (s *Store) snapshotStateLocked() snapshotState {
	st := snapshotState{
		FormatVersion: snapshotFormatVersion,
		SavedAt:       s.now().UTC(),
	}
	for _, c := range s.citizens {
		st.Citizens = append(st.Citizens, c)
	}
	for _, a := range s.accounts {
		st.Accounts = append(st.Accounts, a)
	}
	sort.Slice(st.Citizens, func(i, j int) bool { return st.Citizens[i].PAN < st.Citizens[j].PAN })
	sort.Slice(st.Accounts, func(i, j int) bool { return st.Accounts[i].Number < st.Accounts[j].Number })
	return st
}
