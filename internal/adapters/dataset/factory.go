package dataset

import (
	"fmt"

	"github.com/spf13/afero"
)

// Source names a provider kind.
type Source string

const (
	SourceMemory Source = "memory"
	SourceFiles  Source = "files"
	SourceSQL    Source = "sql"
	SourcePebble Source = "pebble"
)

// Config selects and configures a provider.
type Config struct {
	// Source is memory, files, sql or pebble.
	Source string
	// Dir is the table directory for files and the store path for pebble.
	Dir string
	// Driver is the database/sql driver for sql.
	Driver string
	// DSN is the connection string for sql.
	DSN string
	// MaxRows bounds SQL snapshots.
	MaxRows int
	// Fs is the filesystem for files. Nil means the OS filesystem.
	Fs afero.Fs
}

// NewProvider builds the provider cfg names. The files source falls back to
// the sample tables for names it has no file for.
func NewProvider(cfg Config) (Provider, error) {
	switch Source(cfg.Source) {
	case SourceMemory, "":
		return NewSampleProvider(), nil

	case SourceFiles:
		fs := cfg.Fs
		if fs == nil {
			fs = afero.NewOsFs()
		}
		dir := cfg.Dir
		if dir == "" {
			dir = "."
		}
		return Chain{NewFileProvider(fs, dir), NewSampleProvider()}, nil

	case SourceSQL:
		return NewSQLProvider(cfg.Driver, cfg.DSN, cfg.MaxRows)

	case SourcePebble:
		if cfg.Dir == "" {
			return nil, fmt.Errorf("pebble source needs a store directory")
		}
		return OpenPebbleStore(PebbleConfig{Path: cfg.Dir})

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, cfg.Source)
	}
}
