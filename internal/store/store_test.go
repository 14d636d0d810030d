package store

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panvault-dev/panvault/internal/model"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "panvault.json"))
}

func addRohan(t *testing.T, s *Store) model.Citizen {
	t.Helper()
	c, err := s.CreateCitizen(CitizenParams{
		PAN:  "ABCDE1234F",
		Name: "Rohan Sharma",
		DOB:  date(1995, time.March, 12),
		Address: model.Address{
			Street:  "14 MG Road",
			City:    "Pune",
			State:   "Maharashtra",
			Country: "India",
		},
	})
	require.NoError(t, err)
	return c
}

func TestCreateCitizen(t *testing.T) {
	s := newTestStore(t)

	c := addRohan(t, s)
	assert.Equal(t, "ABCDE1234F", c.PAN)
	assert.EqualValues(t, 1, c.Version)

	got, err := s.GetCitizen("ABCDE1234F")
	require.NoError(t, err)
	assert.Equal(t, "Rohan Sharma", got.Name)
}

func TestCreateCitizen_DuplicateKey(t *testing.T) {
	s := newTestStore(t)
	addRohan(t, s)

	_, err := s.CreateCitizen(CitizenParams{
		PAN:     "ABCDE1234F",
		Name:    "Someone Else",
		DOB:     date(1990, time.January, 1),
		Address: model.Address{Country: "India"},
	})
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindDuplicateKey))
}

func TestCreateCitizen_InvalidPAN(t *testing.T) {
	s := newTestStore(t)

	for _, bad := range []string{"", "ABCDE123F", "ABCDE12345F", "1BCDE1234F"} {
		_, err := s.CreateCitizen(CitizenParams{
			PAN:     bad,
			Name:    "Nobody",
			DOB:     date(1990, time.January, 1),
			Address: model.Address{Country: "India"},
		})
		require.Error(t, err, "PAN %q", bad)
		assert.True(t, model.IsKind(err, model.KindInvalidFormat), "PAN %q", bad)
	}
}

func TestCreateCitizen_MissingFields(t *testing.T) {
	s := newTestStore(t)

	_, err := s.CreateCitizen(CitizenParams{
		PAN: "ABCDE1234F", DOB: date(1990, time.January, 1),
		Address: model.Address{Country: "India"},
	})
	assert.True(t, model.IsKind(err, model.KindInvalidFormat), "empty name")

	_, err = s.CreateCitizen(CitizenParams{
		PAN: "ABCDE1234F", Name: "Rohan", DOB: date(1990, time.January, 1),
	})
	assert.True(t, model.IsKind(err, model.KindInvalidFormat), "missing country")
}

func TestUpdateCitizen(t *testing.T) {
	s := newTestStore(t)
	addRohan(t, s)

	name := "Rohan S. Sharma"
	phone := "+91 98200 12345"
	c, err := s.UpdateCitizen("ABCDE1234F", CitizenUpdate{Name: &name, Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, name, c.Name)
	assert.Equal(t, phone, c.Phone)
	assert.EqualValues(t, 2, c.Version)

	empty := ""
	_, err = s.UpdateCitizen("ABCDE1234F", CitizenUpdate{Name: &empty})
	assert.True(t, model.IsKind(err, model.KindInvalidFormat))

	_, err = s.UpdateCitizen("ZZZZZ9999Z", CitizenUpdate{Name: &name})
	assert.True(t, model.IsKind(err, model.KindNotFound))
}

func TestDeleteCitizen(t *testing.T) {
	s := newTestStore(t)
	addRohan(t, s)

	_, err := s.CreateAccount(OpenAccountParams{
		Number: "1234567890", PAN: "ABCDE1234F", Type: model.TypeSavings,
		InitialBalance: dec("5000"), Branch: "Pune Main Branch",
	})
	require.NoError(t, err)

	err = s.DeleteCitizen("ABCDE1234F")
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindConflict), "still owns an account")

	// Closing is not deleting: conflict persists until the account record
	// itself is gone, which the store never does on close.
	_, err = s.CloseAccount("1234567890")
	require.NoError(t, err)
	err = s.DeleteCitizen("ABCDE1234F")
	assert.True(t, model.IsKind(err, model.KindConflict))
}

func TestDeleteCitizen_NoAccounts(t *testing.T) {
	s := newTestStore(t)
	addRohan(t, s)

	require.NoError(t, s.DeleteCitizen("ABCDE1234F"))
	_, err := s.GetCitizen("ABCDE1234F")
	assert.True(t, model.IsKind(err, model.KindNotFound))
}

func TestSearchPANPrefix(t *testing.T) {
	s := newTestStore(t)
	addRohan(t, s)
	_, err := s.CreateCitizen(CitizenParams{
		PAN: "ABXYZ5678K", Name: "Meera Iyer", DOB: date(1988, time.July, 4),
		Address: model.Address{Country: "India"},
	})
	require.NoError(t, err)

	hits := s.SearchPANPrefix("AB")
	require.Len(t, hits, 2)
	assert.Equal(t, "ABCDE1234F", hits[0].PAN, "sorted by PAN")

	hits = s.SearchPANPrefix("abcde")
	require.Len(t, hits, 1)

	assert.Empty(t, s.SearchPANPrefix("QQ"))
}

func TestCitizenByAccount(t *testing.T) {
	s := newTestStore(t)
	addRohan(t, s)
	_, err := s.CreateAccount(OpenAccountParams{
		Number: "1234567890", PAN: "ABCDE1234F", Type: model.TypeSavings,
		InitialBalance: dec("5000"), Branch: "Pune Main Branch",
	})
	require.NoError(t, err)

	c, err := s.CitizenByAccount("1234567890")
	require.NoError(t, err)
	assert.Equal(t, "Rohan Sharma", c.Name)

	_, err = s.CitizenByAccount("0000000000")
	assert.True(t, model.IsKind(err, model.KindNotFound))
}

func TestOpenLoadsSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panvault.json")

	s := New(path)
	addRohan(t, s)
	_, err := s.CreateAccount(OpenAccountParams{
		Number: "1234567890", PAN: "ABCDE1234F", Type: model.TypeSavings,
		InitialBalance: dec("5000"), Branch: "Pune Main Branch",
	})
	require.NoError(t, err)
	_, err = s.Deposit("1234567890", dec("250.50"))
	require.NoError(t, err)

	reopened, err := Open(path)
	require.NoError(t, err)

	c, err := reopened.GetCitizen("ABCDE1234F")
	require.NoError(t, err)
	assert.Equal(t, "Rohan Sharma", c.Name)
	assert.Equal(t, date(1995, time.March, 12), c.DOB)

	a, err := reopened.GetAccount("1234567890")
	require.NoError(t, err)
	assert.True(t, a.Balance.Equal(dec("5250.50")), "balance round-trips exactly, got %s", a.Balance)
	assert.EqualValues(t, 2, a.Version, "version counters persist")
	assert.True(t, a.MinimumBalance.Equal(dec("1000")))
}

func TestOpen_NoSnapshotYet(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Empty(t, s.Snapshot())
}

func TestCommit_PersistenceFailureRestores(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panvault.json")
	s := New(path)
	addRohan(t, s)
	_, err := s.CreateAccount(OpenAccountParams{
		Number: "1234567890", PAN: "ABCDE1234F", Type: model.TypeSavings,
		InitialBalance: dec("5000"), Branch: "Pune Main Branch",
	})
	require.NoError(t, err)

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	// Simulate an I/O failure during the snapshot write-out.
	s.save = func(string, snapshotState) error {
		return fmt.Errorf("disk full")
	}

	_, err = s.Deposit("1234567890", dec("100"))
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindPersistenceFailed))

	// In-memory state rolled back to the pre-mutation snapshot.
	a, err := s.GetAccount("1234567890")
	require.NoError(t, err)
	assert.True(t, a.Balance.Equal(dec("5000")), "got %s", a.Balance)
	assert.EqualValues(t, 1, a.Version)

	// On-disk state byte-for-byte unchanged and still readable.
	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	_, err = Open(path)
	require.NoError(t, err)
}

func TestSnapshot(t *testing.T) {
	s := newTestStore(t)
	addRohan(t, s)
	_, err := s.CreateCitizen(CitizenParams{
		PAN: "XYZAB9876C", Name: "Meera Iyer", DOB: date(1988, time.July, 4),
		Address: model.Address{Country: "India"},
	})
	require.NoError(t, err)
	for _, n := range []string{"2000000002", "2000000001"} {
		_, err = s.CreateAccount(OpenAccountParams{
			Number: n, PAN: "XYZAB9876C", Type: model.TypeCurrent,
			InitialBalance: dec("0"), OverdraftLimit: dec("10000"), Branch: "Mumbai Fort",
		})
		require.NoError(t, err)
	}

	records := s.Snapshot()
	require.Len(t, records, 2)
	assert.Equal(t, "ABCDE1234F", records[0].Citizen.PAN, "sorted by PAN")
	require.Len(t, records[1].Accounts, 2)
	assert.Equal(t, "2000000001", records[1].Accounts[0].Number, "accounts sorted by number")
}
