// Package state persists the last-seen ranking snapshot to disk.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rankwatch/rankwatch/internal/rank"
)

// Status reports what Load found on disk. Absent and Corrupt both yield
// an empty seen set, but only Absent means a genuine first run; a
// corrupt file previously existed, so callers should still alert.
type Status int

const (
	StatusAbsent Status = iota
	StatusCorrupt
	StatusPresent
)

func (s Status) String() string {
	switch s {
	case StatusAbsent:
		return "absent"
	case StatusCorrupt:
		return "corrupt"
	case StatusPresent:
		return "present"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Store persists and reloads the seen-id snapshot.
type Store interface {
	Load() (ids []string, status Status, err error)
	Save(ids []string, entries []rank.Entry) error
}

// snapshotFile is the on-disk format. It is overwritten wholesale on
// every successful run; no history is kept beyond the latest snapshot.
type snapshotFile struct {
	IDs          []string     `json:"ids"`
	Snapshot     []rank.Entry `json:"snapshot"`
	UpdatedAtUTC string       `json:"updated_at_utc"`
	Source       string       `json:"source"`
}

// FileStore keeps the snapshot in a single JSON file.
type FileStore struct {
	path   string
	source string
	now    func() time.Time
}

// NewFileStore builds a FileStore writing to path and recording source
// as the snapshot's origin URL.
func NewFileStore(path, source string) *FileStore {
	return &FileStore{
		path:   path,
		source: source,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Load reads the previously seen ids. A missing file is StatusAbsent;
// an unreadable or malformed file is StatusCorrupt. Neither is an error:
// both degrade to an empty seen set and the run continues.
func (s *FileStore) Load() ([]string, Status, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, StatusAbsent, nil
		}
		return nil, StatusCorrupt, nil
	}
	var snap snapshotFile
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, StatusCorrupt, nil
	}
	return snap.IDs, StatusPresent, nil
}

// Save overwrites the snapshot file, creating the parent directory if
// needed. This is the terminal step of every successful run; an I/O
// failure here is fatal for the run.
func (s *FileStore) Save(ids []string, entries []rank.Entry) error {
	snap := snapshotFile{
		IDs:          ids,
		Snapshot:     entries,
		UpdatedAtUTC: s.now().Format(time.RFC3339),
		Source:       s.source,
	}
	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}
