package dedupe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"

	"github.com/bakkerme/boatwatch/internal/core"
)

// JSONFile persists state as a single indented JSON document. Writes go to a
// temporary file that is renamed over the target, so a crash never leaves a
// half-written store behind.
type JSONFile struct {
	path string
}

func NewJSONFile(path string) (*JSONFile, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("store path is required")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}
	return &JSONFile{path: path}, nil
}

func (f *JSONFile) Load(ctx context.Context) (State, error) {
	if err := ctx.Err(); err != nil {
		return State{}, err
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return State{}, ErrNotFound
		}
		return State{}, fmt.Errorf("read store: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return State{}, fmt.Errorf("store file %s is empty", f.path)
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, fmt.Errorf("decode store: %w", err)
	}
	if state.Listings == nil {
		state.Listings = map[string]core.Listing{}
	}
	return state, nil
}

func (f *JSONFile) Save(ctx context.Context, state State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}
	data = append(data, '\n')
	if err := renameio.WriteFile(f.path, data, 0o644); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	return nil
}

func (f *JSONFile) Location() string {
	return f.path
}

func (f *JSONFile) Close() error {
	return nil
}
