// Package loader reads sheets from a directory of JSON files.
//
// The directory holds an index.json listing every sheet and its corner
// quadrilateral, plus one <id>.json file per sheet with its layers:
//
//	data/
//	  index.json   {"sheets": [{"id": 1, "quad": [[0,0],[10,0],[10,10],[0,10]]}]}
//	  1.json       {"id": 1, "layers": {"town": {"arcs": [...], "polygons": [...]}}}
//
// Coordinates are already projected to the planar system. Decoded sheet
// files are kept in a SheetCache so panning back over a sheet does not
// re-read it.
package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/beetlebugorg/sheetmap/pkg/sheetmap"
)

// IndexName is the catalog file inside a sheet directory.
const IndexName = "index.json"

// DefaultCacheBytes is the sheet cache limit used when none is given.
const DefaultCacheBytes = 256 * 1024 * 1024

// ErrFormat indicates a sheet file that could not be decoded.
type ErrFormat struct {
	Path   string
	Reason string
}

func (e *ErrFormat) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

// DirLoader implements sheetmap.Loader over a sheet directory.
type DirLoader struct {
	dir   string
	cache *SheetCache
}

// NewDirLoader creates a loader for dir with a cache of cacheBytes. A zero
// or negative size uses DefaultCacheBytes.
func NewDirLoader(dir string, cacheBytes int64) *DirLoader {
	if cacheBytes <= 0 {
		cacheBytes = DefaultCacheBytes
	}
	return &DirLoader{dir: dir, cache: NewSheetCache(cacheBytes)}
}

// Dir returns the directory the loader reads.
func (d *DirLoader) Dir() string {
	return d.dir
}

// Cache returns the loader's sheet cache.
func (d *DirLoader) Cache() *SheetCache {
	return d.cache
}

// Sheets reads index.json.
func (d *DirLoader) Sheets(ctx context.Context) ([]sheetmap.SheetInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.Join(d.dir, IndexName)
	var idx indexFile
	if err := decodeFile(path, &idx); err != nil {
		return nil, err
	}

	seen := make(map[int]struct{}, len(idx.Sheets))
	out := make([]sheetmap.SheetInfo, 0, len(idx.Sheets))
	for _, s := range idx.Sheets {
		if _, dup := seen[s.ID]; dup {
			return nil, &ErrFormat{Path: path, Reason: fmt.Sprintf("duplicate sheet id %d", s.ID)}
		}
		seen[s.ID] = struct{}{}
		out = append(out, s.info())
	}
	return out, nil
}

// LoadLayer builds one layer of a sheet. A layer absent from the sheet file
// yields empty data.
func (d *DirLoader) LoadLayer(ctx context.Context, tileID int, layer sheetmap.Layer) (*sheetmap.LayerData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := d.sheetPath(tileID)
	f, err := d.cache.get(tileID, func() (*sheetFile, error) {
		var f sheetFile
		if err := decodeFile(path, &f); err != nil {
			return nil, err
		}
		if f.ID != 0 && f.ID != tileID {
			return nil, &ErrFormat{Path: path, Reason: fmt.Sprintf("sheet id %d, want %d", f.ID, tileID)}
		}
		return &f, nil
	})
	if err != nil {
		return nil, err
	}

	rec, ok := f.Layers[layer.String()]
	if !ok {
		return sheetmap.NewLayerData(), nil
	}
	data, err := rec.build()
	if err != nil {
		return nil, &ErrFormat{Path: path, Reason: fmt.Sprintf("layer %s: %v", layer, err)}
	}
	return data, nil
}

func (d *DirLoader) sheetPath(id int) string {
	return filepath.Join(d.dir, strconv.Itoa(id)+".json")
}

func decodeFile(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		var syn *json.SyntaxError
		if errors.As(err, &syn) {
			return &ErrFormat{Path: path, Reason: fmt.Sprintf("syntax error at offset %d: %v", syn.Offset, err)}
		}
		return &ErrFormat{Path: path, Reason: err.Error()}
	}
	return nil
}

// Ensure DirLoader implements sheetmap.Loader.
var _ sheetmap.Loader = (*DirLoader)(nil)
