// Package spatial provides the rectangle collision index used by the label
// placer.
//
// The index is an R-tree over screen rectangles. It is rebuilt from scratch
// on every redraw cycle, so it supports only insertion, queries and a full
// reset.
package spatial

import (
	"github.com/dhconnelly/rtreego"

	"github.com/beetlebugorg/sheetmap/pkg/sheetmap"
)

// Kind distinguishes what an entry reserves.
type Kind int

const (
	// KindLabel reserves the rectangle occupied by label text.
	KindLabel Kind = iota

	// KindExclusion reserves the small square around a labeled point.
	KindExclusion
)

// Entry is one reserved rectangle.
type Entry struct {
	Rect  sheetmap.Rect
	Kind  Kind
	Owner any // Feature that committed the entry
}

// Bounds implements rtreego.Spatial interface.
func (e *Entry) Bounds() rtreego.Rect {
	// R-tree requires non-zero dimensions
	const epsilon = 1e-6
	w, h := e.Rect.Width(), e.Rect.Height()
	if w < epsilon {
		w = epsilon
	}
	if h < epsilon {
		h = epsilon
	}
	rect, _ := rtreego.NewRect(rtreego.Point{e.Rect.MinX, e.Rect.MinY}, []float64{w, h})
	return rect
}

// Index provides O(log n) rectangle queries using an R-tree.
type Index struct {
	rtree *rtreego.Rtree
	count int
}

// New creates an empty index.
func New() *Index {
	return &Index{
		// 2D, min=25 children, max=50 children
		rtree: rtreego.NewTree(2, 25, 50),
	}
}

// Reset discards every entry.
func (idx *Index) Reset() {
	idx.rtree = rtreego.NewTree(2, 25, 50)
	idx.count = 0
}

// Len returns the number of entries.
func (idx *Index) Len() int {
	return idx.count
}

// Insert reserves a rectangle for owner.
func (idx *Index) Insert(r sheetmap.Rect, kind Kind, owner any) {
	idx.rtree.Insert(&Entry{Rect: r, Kind: kind, Owner: owner})
	idx.count++
}

// Query returns entries whose interior overlaps r. Rectangles that only
// share an edge with r are not returned.
func (idx *Index) Query(r sheetmap.Rect) []*Entry {
	if idx.count == 0 || r.IsEmpty() {
		return nil
	}
	window := &Entry{Rect: r}
	spatials := idx.rtree.SearchIntersect(window.Bounds())

	result := make([]*Entry, 0, len(spatials))
	for _, s := range spatials {
		e := s.(*Entry)
		if e.Rect.Overlaps(r) {
			result = append(result, e)
		}
	}
	return result
}

// Collides reports whether any entry owned by someone other than owner
// overlaps r.
func (idx *Index) Collides(r sheetmap.Rect, owner any) bool {
	for _, e := range idx.Query(r) {
		if owner == nil || e.Owner != owner {
			return true
		}
	}
	return false
}

// QueryPoint returns entries containing p, edges included.
func (idx *Index) QueryPoint(p sheetmap.Point) []*Entry {
	if idx.count == 0 {
		return nil
	}
	// Widen the search window so points on an entry's edge are found.
	window := &Entry{Rect: sheetmap.Rect{MinX: p.X, MinY: p.Y, MaxX: p.X, MaxY: p.Y}.Expand(1e-6)}
	spatials := idx.rtree.SearchIntersect(window.Bounds())

	result := make([]*Entry, 0, len(spatials))
	for _, s := range spatials {
		e := s.(*Entry)
		if e.Rect.Contains(p) {
			result = append(result, e)
		}
	}
	return result
}
