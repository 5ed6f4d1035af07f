package sheetmap

import "context"

// SheetInfo describes one sheet known to a Loader.
type SheetInfo struct {
	ID    int
	Sheet [4]Point
}

// Bounds returns the axis-aligned envelope of the sheet.
func (s SheetInfo) Bounds() Rect {
	return PointsBounds(s.Sheet[:])
}

// Loader supplies raw sheet data. Decoding files, fetching remote datasets
// and projecting survey coordinates all happen behind this interface.
type Loader interface {
	// Sheets lists every sheet the loader can provide.
	Sheets(ctx context.Context) ([]SheetInfo, error)

	// LoadLayer returns the features of one layer of one sheet with
	// coordinates already projected to the planar system. Polygons list
	// their constituent arc ids; the Tile assembles their areas.
	LoadLayer(ctx context.Context, tileID int, layer Layer) (*LayerData, error)
}
