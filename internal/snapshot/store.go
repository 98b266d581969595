package snapshot

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// LoadStore reads the persisted baseline snapshot. A missing store file
// yields (nil, nil). An unreadable or unparsable store yields a nil
// snapshot and the underlying error; callers treat that the same as a
// missing baseline rather than aborting.
func LoadStore(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}

	return FromMap(m), nil
}

// SaveStore persists the snapshot as a flat path -> digest JSON object,
// pretty-printed with 2-space indentation and sorted keys, fully
// overwriting any prior content.
func SaveStore(path string, snap *Snapshot) error {
	data, err := json.MarshalIndent(snap.AsMap(), "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
