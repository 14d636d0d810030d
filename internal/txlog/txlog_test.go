package txlog

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestRecordAndReadAll(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "logs", "transactions.csv"))

	e1, err := l.Record("1234567890", KindDeposit, dec("500"), dec("5500"), "")
	require.NoError(t, err)
	_, err = uuid.Parse(e1.ID)
	assert.NoError(t, err, "entry ID is a uuid")

	_, err = l.Record("1234567890", KindWithdraw, dec("3000"), dec("2500"), "penalty 100.00")
	require.NoError(t, err)

	entries, err := l.ReadAll()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, KindDeposit, entries[0].Kind)
	assert.True(t, entries[0].Amount.Equal(dec("500")))
	assert.True(t, entries[1].Balance.Equal(dec("2500")))
	assert.Equal(t, "penalty 100.00", entries[1].Note)
}

func TestReadAll_NoLogYet(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "transactions.csv"))
	entries, err := l.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUnmarshalEntry_FieldCount(t *testing.T) {
	_, err := UnmarshalEntry([]string{"too", "few"})
	require.Error(t, err)
}
