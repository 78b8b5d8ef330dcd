package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/satishbabariya/querycraft/internal/core/query/domain"
	"github.com/satishbabariya/querycraft/internal/debug"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Extensions are the table file suffixes FileProvider reads, in lookup order.
var Extensions = []string{".json", ".yaml", ".yml"}

// ErrBadDocument is returned for table files that are not a list of rows.
var ErrBadDocument = errors.New("table document must be a list of objects")

// FileProvider reads tables from <dir>/<table>.json, .yaml or .yml. Files are
// re-read on every call so edits show up in the next preview.
type FileProvider struct {
	fs  afero.Fs
	dir string
}

// NewFileProvider serves tables stored under dir on fs.
func NewFileProvider(fs afero.Fs, dir string) *FileProvider {
	return &FileProvider{fs: fs, dir: dir}
}

func (p *FileProvider) Name() string { return "files" }

// Rows loads one table file.
func (p *FileProvider) Rows(ctx context.Context, table string) ([]domain.Row, bool, error) {
	if err := checkTable(table); err != nil {
		return nil, false, err
	}
	for _, ext := range Extensions {
		path := filepath.Join(p.dir, table+ext)
		f, err := p.fs.Open(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, false, fmt.Errorf("open %s: %w", path, err)
		}
		rows, err := DecodeRows(f)
		f.Close()
		if err != nil {
			return nil, false, fmt.Errorf("%s: %w", path, err)
		}
		debug.Debug("Loaded table file", "path", path, "rows", len(rows))
		return rows, true, nil
	}
	return nil, false, nil
}

// Tables lists the table files in the directory.
func (p *FileProvider) Tables(ctx context.Context) ([]string, error) {
	infos, err := afero.ReadDir(p.fs, p.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", p.dir, err)
	}
	seen := make(map[string]bool)
	names := []string{}
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		ext := filepath.Ext(info.Name())
		name := strings.TrimSuffix(info.Name(), ext)
		if !isTableExt(ext) || !ValidTable(name) || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (p *FileProvider) Close() error { return nil }

func isTableExt(ext string) bool {
	for _, e := range Extensions {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

// DecodeRows reads a YAML or JSON list of objects, keeping each object's key
// order as its column order. A top-level object with a rows key is accepted
// too.
func DecodeRows(r io.Reader) ([]domain.Row, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return []domain.Row{}, nil
		}
		return nil, err
	}
	node := &doc
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	if node.Kind == yaml.MappingNode {
		node = mappingValue(node, "rows")
		if node == nil {
			return nil, ErrBadDocument
		}
	}
	if node.Kind != yaml.SequenceNode {
		return nil, ErrBadDocument
	}

	rows := make([]domain.Row, 0, len(node.Content))
	for i, item := range node.Content {
		if item.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("row %d: %w", i+1, ErrBadDocument)
		}
		var row domain.Row
		for j := 0; j+1 < len(item.Content); j += 2 {
			v, err := scalar(item.Content[j+1])
			if err != nil {
				return nil, fmt.Errorf("row %d column %s: %w", i+1, item.Content[j].Value, err)
			}
			row.Set(item.Content[j].Value, v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// scalar converts a YAML value node. Nested lists and objects become their
// JSON text.
func scalar(n *yaml.Node) (domain.Value, error) {
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	if n.Kind != yaml.ScalarNode {
		var v any
		if err := n.Decode(&v); err != nil {
			return domain.Value{}, err
		}
		return domain.ValueOf(flowText(v)), nil
	}
	switch n.ShortTag() {
	case "!!null":
		return domain.NullValue(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return domain.Value{}, err
		}
		return domain.BoolValue(b), nil
	case "!!int", "!!float":
		if d, ok := domain.ParseNumber(n.Value); ok {
			return domain.NumberValue(d), nil
		}
		return domain.StringValue(n.Value), nil
	case "!!timestamp":
		return domain.TimeValue(n.Value), nil
	default:
		return domain.InferString(n.Value), nil
	}
}

func flowText(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
