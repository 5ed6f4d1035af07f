package sheetmap

import (
	"sort"

	"github.com/dhconnelly/rtreego"
)

// Catalog provides spatial queries over the sheets a Loader offers, so a
// cycle only touches sheets near the viewport.
type Catalog struct {
	sheets []SheetInfo
	rtree  *rtreego.Rtree
}

type indexedSheet struct {
	info SheetInfo
}

// Bounds implements rtreego.Spatial interface.
func (e *indexedSheet) Bounds() rtreego.Rect {
	return toRtreeRect(e.info.Bounds())
}

// NewCatalog indexes sheets. The slice is copied and sorted by id.
func NewCatalog(sheets []SheetInfo) *Catalog {
	c := &Catalog{
		sheets: append([]SheetInfo(nil), sheets...),
		rtree:  rtreego.NewTree(2, 25, 50),
	}
	sort.Slice(c.sheets, func(i, j int) bool { return c.sheets[i].ID < c.sheets[j].ID })
	for _, s := range c.sheets {
		c.rtree.Insert(&indexedSheet{info: s})
	}
	return c
}

// Len returns the number of sheets.
func (c *Catalog) Len() int {
	return len(c.sheets)
}

// Intersecting returns the sheets whose envelope intersects viewport,
// ordered by id.
func (c *Catalog) Intersecting(viewport Rect) []SheetInfo {
	if viewport.IsEmpty() {
		return nil
	}
	var out []SheetInfo
	for _, s := range c.rtree.SearchIntersect(toRtreeRect(viewport.Expand(1e-6))) {
		info := s.(*indexedSheet).info
		if info.Bounds().Intersects(viewport) {
			out = append(out, info)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Bounds returns the union of all sheet envelopes.
func (c *Catalog) Bounds() Rect {
	b := EmptyRect()
	for _, s := range c.sheets {
		b = b.Union(s.Bounds())
	}
	return b
}
