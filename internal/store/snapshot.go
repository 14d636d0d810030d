package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/panvault-dev/panvault/internal/model"
)

const snapshotFormatVersion = 1

// snapshotState is the persisted form of the store. Decimals marshal as
// quoted strings and timestamps as RFC 3339, so every field round-trips
// losslessly.
type snapshotState struct {
	FormatVersion int             `json:"format_version"`
	SavedAt       time.Time       `json:"saved_at"`
	Citizens      []model.Citizen `json:"citizens"`
	Accounts      []model.Account `json:"accounts"`
}

// writeSnapshotFile serializes st to a temporary file next to path, then
// atomically replaces path. A crash between the two steps leaves the prior
// snapshot untouched; the temp file is removed on every failure path.
func writeSnapshotFile(path string, st snapshotState) error {
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("writing snapshot temp: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	return nil
}

// readSnapshotFile loads path. found is false when no snapshot exists yet.
func readSnapshotFile(path string) (st snapshotState, found bool, err error) {
	if path == "" {
		return snapshotState{}, false, nil
	}

	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return snapshotState{}, false, nil
	}
	if err != nil {
		return snapshotState{}, false, &model.Fault{
			Op:   "store.read_snapshot",
			Kind: model.KindPersistenceFailed,
			Err:  err,
		}
	}

	if err := json.Unmarshal(b, &st); err != nil {
		return snapshotState{}, false, &model.Fault{
			Op:   "store.read_snapshot",
			Kind: model.KindPersistenceFailed,
			Err:  fmt.Errorf("parsing snapshot %s: %w", path, err),
		}
	}
	if st.FormatVersion != snapshotFormatVersion {
		return snapshotState{}, false, &model.Fault{
			Op:   "store.read_snapshot",
			Kind: model.KindPersistenceFailed,
			Err:  fmt.Errorf("unsupported snapshot format version %d", st.FormatVersion),
		}
	}
	return st, true, nil
}
