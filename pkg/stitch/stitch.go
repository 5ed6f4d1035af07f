// Package stitch reconciles polygon fragments that were split across sheet
// boundaries or duplicated per sheet.
//
// Two independent passes run on every cycle over the loaded sheets that
// intersect the viewport:
//
//   - Boundary union joins fragments of one logical polygon that meet along
//     an edge-of-map segment and carry equal attribute text. Every member of
//     a joined group receives the union of the group's areas and the center of
//     the union's bounding box as its representative point.
//   - Duplicate merge gives buildings recorded once per sheet with the same
//     attribute text a shared representative point at the center of their
//     combined bounding box. Their areas are left alone.
//
// Example:
//
//	s := stitch.New(logger)
//	res := s.Run(tiles, viewport)
//	if res.Changed {
//	    // representative points moved; labels must be recomputed
//	}
package stitch

import (
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/ctessum/geom"

	"github.com/beetlebugorg/sheetmap/pkg/sheetmap"
)

// Result summarizes one stitching pass.
type Result struct {
	Changed    bool // Some representative point moved
	Groups     int  // Boundary groups found
	Merged     int  // Polygons that received a union area
	Duplicates int  // Buildings whose representative point was shared
	Malformed  int  // Edge keys skipped as malformed
	Mismatched int  // Structurally matched pairs skipped for differing attributes
}

// Stitcher runs boundary union and duplicate merge.
type Stitcher struct {
	logger *log.Logger
}

// New creates a stitcher. A nil logger falls back to log.Default().
func New(logger *log.Logger) *Stitcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Stitcher{logger: logger}
}

// Run stitches the tiles of ts that intersect viewport.
func (s *Stitcher) Run(ts *sheetmap.TileSet, viewport sheetmap.Rect) Result {
	tiles := ts.Visible(viewport)

	var res Result
	s.unionBoundaries(tiles, viewport, &res)
	s.mergeDuplicates(tiles, &res)
	return res
}

// unionBoundaries joins fragments that share edge-of-map segments.
func (s *Stitcher) unionBoundaries(tiles []*sheetmap.Tile, viewport sheetmap.Rect, res *Result) {
	ds := newDisjointSet()
	polys := make(map[sheetmap.Key]*sheetmap.Polygon)

	for i, t1 := range tiles {
		for _, t2 := range tiles[i+1:] {
			for _, key := range t1.EdgeKeys() {
				if _, _, err := sheetmap.ParseEdgeKey(key); err != nil {
					s.logger.Warn("skipping boundary key", "tile", t1.ID, "err", err)
					res.Malformed++
					continue
				}

				id1, _ := t1.EdgeOwner(key)
				p1 := t1.StitchPolygon(id1)
				if p1 == nil || !p1.Bounds().Intersects(viewport) {
					continue
				}
				id2, ok := t2.EdgeOwner(key)
				if !ok {
					continue
				}
				p2 := t2.StitchPolygon(id2)
				if p2 == nil || p1 == p2 {
					continue
				}
				if p1.Attribute == "" || p2.Attribute == "" {
					continue
				}
				if p1.Attribute != p2.Attribute {
					s.logger.Warn("boundary attribute mismatch",
						"tile", t1.ID, "polygon", p1.ID, "attribute", p1.Attribute,
						"other_tile", t2.ID, "other_polygon", p2.ID, "other_attribute", p2.Attribute)
					res.Mismatched++
					continue
				}

				polys[p1.Key()] = p1
				polys[p2.Key()] = p2
				ds.union(p1.Key(), p2.Key())
			}
		}
	}

	for _, keys := range ds.groups() {
		res.Groups++
		members := make([]*sheetmap.Polygon, len(keys))
		for i, k := range keys {
			members[i] = polys[k]
		}
		if s.applyGroup(members, signature(keys)) {
			res.Changed = true
		}
		res.Merged += len(members)
	}
}

// applyGroup gives every member the union area and the union bounding box
// center. Groups already carrying sig are left untouched. Reports whether a
// representative point moved.
func (s *Stitcher) applyGroup(members []*sheetmap.Polygon, sig string) bool {
	current := true
	for _, p := range members {
		if p.StitchSignature != sig {
			current = false
			break
		}
	}
	if current {
		return false
	}

	union := members[0].Area
	for _, p := range members[1:] {
		union = flatten(union.Union(p.Area))
	}
	center := sheetmap.AreaBounds(union).Center()

	moved := false
	for _, p := range members {
		if p.Representative != center {
			moved = true
		}
		p.Area = union
		p.Representative = center
		p.StitchSignature = sig
	}
	s.logger.Debug("stitched polygon group", "members", len(members), "signature", sig)
	return moved
}

// mergeDuplicates shares a representative point among buildings that carry
// the same attribute text.
func (s *Stitcher) mergeDuplicates(tiles []*sheetmap.Tile, res *Result) {
	byAttr := make(map[string][]*sheetmap.Polygon)
	for _, p := range sheetmap.Polygons(tiles, sheetmap.Building) {
		if p.Attribute == "" {
			continue
		}
		byAttr[p.Attribute] = append(byAttr[p.Attribute], p)
	}

	attrs := make([]string, 0, len(byAttr))
	for a, group := range byAttr {
		if len(group) > 1 {
			attrs = append(attrs, a)
		}
	}
	sort.Strings(attrs)

	for _, a := range attrs {
		group := byAttr[a]
		bounds := sheetmap.EmptyRect()
		for _, p := range group {
			bounds = bounds.Union(p.Bounds())
		}
		if bounds.IsEmpty() {
			continue
		}
		center := bounds.Center()
		for _, p := range group {
			if p.Representative != center {
				p.Representative = center
				res.Changed = true
			}
		}
		res.Duplicates += len(group)
	}
}

// flatten collects the rings of every polygon in a set-operation result.
func flatten(p geom.Polygonal) geom.Polygon {
	var out geom.Polygon
	for _, q := range p.Polygons() {
		out = append(out, q...)
	}
	return out
}

// signature identifies a group by its sorted member keys.
func signature(keys []sheetmap.Key) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k.String()
	}
	return strings.Join(parts, ",")
}
