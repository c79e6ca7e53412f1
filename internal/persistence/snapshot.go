package persistence

import (
	"bufio"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/smirkdb/smirk/internal/store"
)

const snapshotFileName = "smirk.snapshot"

// ErrSnapshotUnsupported is reported by SAVE when no data directory is
// configured.
var ErrSnapshotUnsupported = errors.New("snapshot persistence is not configured")

// Snapshotter writes and reads whole-store snapshots under a data
// directory. A nil *Snapshotter is valid and reports unsupported.
type Snapshotter struct {
	mu  sync.Mutex
	dir string
}

func SnapshotPath(dir string) string {
	return filepath.Join(dir, snapshotFileName)
}

func NewSnapshotter(dir string) (*Snapshotter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Snapshotter{dir: dir}, nil
}

// Save writes every entry to a temp file and renames it into place, so a
// crashed SAVE never clobbers the previous snapshot.
func (s *Snapshotter) Save(entries []store.Entry) error {
	if s == nil {
		return ErrSnapshotUnsupported
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	path := SnapshotPath(s.dir)
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	buf := bufio.NewWriter(f)
	for _, ent := range entries {
		data, err := Encode(ent)
		if err != nil {
			_ = f.Close()
			return err
		}
		if _, err := buf.Write(data); err != nil {
			_ = f.Close()
			return err
		}
	}
	if err := buf.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Load reads the snapshot back. A missing file is an empty store; a
// truncated or corrupt tail stops the read at the last good entry.
func (s *Snapshotter) Load() ([]store.Entry, error) {
	if s == nil {
		return nil, ErrSnapshotUnsupported
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(SnapshotPath(s.dir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var entries []store.Entry
	r := bufio.NewReader(f)
	for {
		ent, err := DecodeFrom(r)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, ErrCorrupt) {
				return entries, nil
			}
			return nil, err
		}
		entries = append(entries, ent)
	}
}
