package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/renameio/v2"

	"github.com/bakkerme/boatwatch/internal/core"
)

// Payload holds the recorded listings of one source, keyed by query region.
type Payload struct {
	Source  string                    `json:"source"`
	Queries map[string][]core.Listing `json:"queries"`
}

var fileMu sync.Mutex

// Save records listings for one region, keeping other regions already in the file.
func Save(path, source string, region core.Region, listings []core.Listing) error {
	if path == "" {
		return fmt.Errorf("snapshot path is required")
	}
	fileMu.Lock()
	defer fileMu.Unlock()

	payload, err := load(path)
	if errors.Is(err, fs.ErrNotExist) {
		payload = Payload{}
	} else if err != nil {
		return err
	}
	if payload.Queries == nil {
		payload.Queries = map[string][]core.Listing{}
	}
	payload.Source = source
	payload.Queries[string(region)] = listings

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Load returns the listings recorded for region.
func Load(path string, region core.Region) ([]core.Listing, error) {
	if path == "" {
		return nil, fmt.Errorf("snapshot path is required")
	}
	fileMu.Lock()
	defer fileMu.Unlock()
	payload, err := load(path)
	if err != nil {
		return nil, err
	}
	return payload.Queries[string(region)], nil
}

func load(path string) (Payload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Payload{}, fmt.Errorf("read snapshot: %w", err)
	}
	var payload Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Payload{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return payload, nil
}
