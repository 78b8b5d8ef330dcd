// Package statefile reads and writes query state documents in YAML or JSON.
package statefile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/satishbabariya/querycraft/internal/core/query/domain"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Format is a document encoding.
type Format string

const (
	YAML Format = "yaml"
	JSON Format = "json"
)

// ErrInvalidState wraps every decode failure.
var ErrInvalidState = errors.New("invalid state document")

// FormatFor picks the format from a file extension. Anything but .json is
// YAML.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return JSON
	}
	return YAML
}

// Load reads a state document from fs.
func Load(fs afero.Fs, path string) (domain.State, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return domain.State{}, fmt.Errorf("read state: %w", err)
	}
	state, err := Decode(bytes.NewReader(data), FormatFor(path))
	if err != nil {
		return domain.State{}, fmt.Errorf("%s: %w", path, err)
	}
	return state, nil
}

// Save writes state to fs, creating parent directories.
func Save(fs afero.Fs, path string, state domain.State) error {
	var buf bytes.Buffer
	if err := Encode(&buf, state, FormatFor(path)); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return afero.WriteFile(fs, path, buf.Bytes(), 0o644)
}

// Decode reads one state document. Unknown fields are rejected. An empty
// document decodes to the zero state.
func Decode(r io.Reader, format Format) (domain.State, error) {
	var state domain.State
	switch format {
	case JSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&state); err != nil && !errors.Is(err, io.EOF) {
			return domain.State{}, fmt.Errorf("%w: %v", ErrInvalidState, err)
		}
	default:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&state); err != nil && !errors.Is(err, io.EOF) {
			return domain.State{}, fmt.Errorf("%w: %v", ErrInvalidState, err)
		}
	}
	return state, nil
}

// Encode writes state in the given format.
func Encode(w io.Writer, state domain.State, format Format) error {
	switch format {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(state)
	default:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(state); err != nil {
			return err
		}
		return enc.Close()
	}
}
