package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Save writes every document of the snapshot to dir, bumping each
// generation counter first. Each file is written atomically (temp file +
// rename) so a crash mid-write can never leave a partially written ledger.
func Save(dir string, snap *Snapshot) error {
	snap.ActiveMilestones.Generation++
	snap.ArchivedMilestones.Generation++
	snap.ActiveTasks.Generation++
	snap.ArchivedTasks.Generation++

	docs := []struct {
		name string
		v    any
	}{
		{MilestonesActiveFile, &snap.ActiveMilestones},
		{MilestonesArchivedFile, &snap.ArchivedMilestones},
		{TasksActiveFile, &snap.ActiveTasks},
		{TasksArchivedFile, &snap.ArchivedTasks},
		{BoardsFile, &snap.Boards},
	}

	for _, doc := range docs {
		data, err := marshalDocument(doc.v)
		if err != nil {
			return fmt.Errorf("marshaling %s: %w", doc.name, err)
		}
		if err := AtomicWriteFile(filepath.Join(dir, doc.name), data); err != nil {
			return fmt.Errorf("writing %s: %w", doc.name, err)
		}
	}

	return nil
}

// marshalDocument renders a document as indented JSON with a trailing
// newline, matching the on-disk format byte-for-byte across runs.
func marshalDocument(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// AtomicWriteFile writes data to path using the temp file + rename pattern.
// Ensures no partial writes occur on crash.
func AtomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath) // Best effort cleanup
		return fmt.Errorf("renaming temp file: %w", err)
	}

	return nil
}
