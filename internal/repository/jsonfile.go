package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// readJSONList reads a whole-file JSON array into dst (a pointer to a slice).
// A missing file yields an empty list. A corrupted file is moved aside to a
// timestamped backup for forensics and also yields an empty list; readers
// must never crash on a half-written or mangled store.
func readJSONList(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, dst); err != nil {
		backup := fmt.Sprintf("%s.corrupted.%d", path, time.Now().Unix())
		if renameErr := os.Rename(path, backup); renameErr != nil {
			return fmt.Errorf("back up corrupted %s: %w", path, errors.Join(err, renameErr))
		}
		return nil
	}
	return nil
}

// writeJSONAtomic marshals v and replaces path in one rename so a concurrent
// reader never observes a half-written file.
func writeJSONAtomic(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure data directory for %s: %w", path, err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
