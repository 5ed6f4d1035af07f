package sheetmap

import (
	"sort"

	"github.com/dhconnelly/rtreego"
)

// TileSet manages the loaded sheets of the map.
//
// Tiles are kept in a map by id and mirrored into an R-tree over their sheet
// envelopes so viewport filtering does not scan every sheet. Every listing is
// ordered by tile id, which is the fixed total order used to process tile
// pairs.
type TileSet struct {
	tiles map[int]*Tile
	rtree *rtreego.Rtree
}

// indexedTile wraps a tile for R-tree storage.
type indexedTile struct {
	tile *Tile
}

// Bounds implements rtreego.Spatial interface.
func (e *indexedTile) Bounds() rtreego.Rect {
	return toRtreeRect(e.tile.Bounds())
}

// toRtreeRect converts a Rect to an R-tree rectangle.
// R-tree requires non-zero dimensions, so degenerate sides get an epsilon.
func toRtreeRect(r Rect) rtreego.Rect {
	const epsilon = 1e-9
	w, h := r.Width(), r.Height()
	if w < epsilon {
		w = epsilon
	}
	if h < epsilon {
		h = epsilon
	}
	rect, _ := rtreego.NewRect(rtreego.Point{r.MinX, r.MinY}, []float64{w, h})
	return rect
}

// NewTileSet creates an empty tile set.
func NewTileSet() *TileSet {
	return &TileSet{
		tiles: make(map[int]*Tile),
		rtree: rtreego.NewTree(2, 25, 50),
	}
}

// Add inserts a tile, replacing any tile with the same id.
func (ts *TileSet) Add(t *Tile) {
	if _, ok := ts.tiles[t.ID]; ok {
		ts.Remove(t.ID)
	}
	ts.tiles[t.ID] = t
	ts.rtree.Insert(&indexedTile{tile: t})
}

// Remove drops a tile from the set.
func (ts *TileSet) Remove(id int) {
	if _, ok := ts.tiles[id]; !ok {
		return
	}
	delete(ts.tiles, id)
	ts.rebuildIndex()
}

// rebuildIndex recreates the R-tree from the current tiles. rtreego deletes
// by object identity, and the wrapper objects are not retained.
func (ts *TileSet) rebuildIndex() {
	ts.rtree = rtreego.NewTree(2, 25, 50)
	for _, t := range ts.Sorted() {
		ts.rtree.Insert(&indexedTile{tile: t})
	}
}

// Tile returns a tile by id.
func (ts *TileSet) Tile(id int) (*Tile, error) {
	t, ok := ts.tiles[id]
	if !ok {
		return nil, &ErrUnknownTile{TileID: id}
	}
	return t, nil
}

// Len returns the number of tiles.
func (ts *TileSet) Len() int {
	return len(ts.tiles)
}

// Sorted returns every tile ordered by id.
func (ts *TileSet) Sorted() []*Tile {
	out := make([]*Tile, 0, len(ts.tiles))
	for _, t := range ts.tiles {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Visible returns the tiles whose sheet envelope intersects the viewport,
// ordered by id.
func (ts *TileSet) Visible(viewport Rect) []*Tile {
	if viewport.IsEmpty() {
		return nil
	}
	// rtreego treats touching rectangles as disjoint while viewport tests
	// are closed, so search a slightly larger window and confirm.
	spatials := ts.rtree.SearchIntersect(toRtreeRect(viewport.Expand(1e-6)))

	out := make([]*Tile, 0, len(spatials))
	for _, s := range spatials {
		t := s.(*indexedTile).tile
		if t.Bounds().Intersects(viewport) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Polygons returns the polygons of a class on the given tiles, ordered by
// key.
func Polygons(tiles []*Tile, class PolygonClass) []*Polygon {
	var out []*Polygon
	for _, t := range tiles {
		out = append(out, t.Polygons(class)...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key().Less(out[j].Key()) })
	return out
}

// Adjacency merges the per-tile adjacency graphs of the given tiles,
// keeping only polygons of the given class. Ids from each tile's graph are
// qualified with the tile id, so sheets that reuse an id stay distinct.
func Adjacency(tiles []*Tile, class PolygonClass) map[Key]map[Key]struct{} {
	adj := make(map[Key]map[Key]struct{})
	for _, t := range tiles {
		keep := make(map[int64]struct{})
		for _, p := range t.Polygons(class) {
			keep[p.ID] = struct{}{}
		}
		for a, ns := range t.Adjacency() {
			if _, ok := keep[a]; !ok {
				continue
			}
			for b := range ns {
				if _, ok := keep[b]; !ok || a == b {
					continue
				}
				ka, kb := Key{Tile: t.ID, ID: a}, Key{Tile: t.ID, ID: b}
				if adj[ka] == nil {
					adj[ka] = make(map[Key]struct{})
				}
				adj[ka][kb] = struct{}{}
			}
		}
	}
	return adj
}

// Clone returns a deep copy of the set. The copy shares no mutable state
// with the original, so it can be handed to readers on another goroutine.
func (ts *TileSet) Clone() *TileSet {
	c := NewTileSet()
	for _, t := range ts.Sorted() {
		c.Add(t.Clone())
	}
	return c
}

// CompositeBounds returns the union of all sheet envelopes.
func (ts *TileSet) CompositeBounds() Rect {
	b := EmptyRect()
	for _, t := range ts.tiles {
		b = b.Union(t.Bounds())
	}
	return b
}
