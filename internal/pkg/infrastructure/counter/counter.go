package counter

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Store persists the wake counter across suspensions and process restarts.
type Store interface {
	Load() (uint64, error)
	Save(count uint64) error
}

var _ Store = (*FileStore)(nil)

// FileStore keeps the counter as a single decimal integer in a file. Writes
// go through a temp file and rename so a crash never leaves a torn value.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load returns the persisted count. A missing or unreadable file counts as a
// full power loss and yields zero rather than an error.
func (s *FileStore) Load() (uint64, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return 0, nil
	}

	count, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, nil
	}

	return count, nil
}

func (s *FileStore) Save(count uint64) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "wakecount-*")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}

	if _, err := tmp.WriteString(strconv.FormatUint(count, 10) + "\n"); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write state file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close state file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace state file: %w", err)
	}

	return nil
}
