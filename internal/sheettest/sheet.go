// Package sheettest builds small sheets out of rectangles and simple rings
// for tests.
//
// Every polygon side is stored as a two-point arc. Polygons on the same
// sheet that share a full side share the arc, which makes them neighbors;
// sides lying on the sheet boundary are tagged edge-of-map, which makes them
// stitchable against a neighboring sheet.
package sheettest

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/beetlebugorg/sheetmap/pkg/sheetmap"
)

type polygonSpec struct {
	id        int64
	class     sheetmap.PolygonClass
	attribute string
	reading   string
	ring      []sheetmap.Point
}

func corners(r sheetmap.Rect) []sheetmap.Point {
	return []sheetmap.Point{P(r.MinX, r.MinY), P(r.MaxX, r.MinY), P(r.MaxX, r.MaxY), P(r.MinX, r.MaxY)}
}

type lineSpec struct {
	id        int64
	class     sheetmap.ArcClass
	attribute string
	points    []sheetmap.Point
}

type pointSpec struct {
	id        int64
	attribute string
	at        sheetmap.Point
}

// Sheet describes one sheet.
type Sheet struct {
	ID     int
	Bounds sheetmap.Rect

	polygons []polygonSpec
	lines    map[sheetmap.Layer][]lineSpec
	points   []pointSpec
}

// NewSheet starts a sheet covering bounds.
func NewSheet(id int, bounds sheetmap.Rect) *Sheet {
	return &Sheet{ID: id, Bounds: bounds, lines: make(map[sheetmap.Layer][]lineSpec)}
}

// R is shorthand for a rectangle.
func R(minX, minY, maxX, maxY float64) sheetmap.Rect {
	return sheetmap.Rect{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
}

// P is shorthand for a point.
func P(x, y float64) sheetmap.Point {
	return sheetmap.Point{X: x, Y: y}
}

// Town adds a town section.
func (s *Sheet) Town(id int64, attribute string, r sheetmap.Rect) *Sheet {
	s.polygons = append(s.polygons, polygonSpec{id: id, class: sheetmap.TownSection, attribute: attribute, ring: corners(r)})
	return s
}

// TownReading adds a town section with a phonetic reading.
func (s *Sheet) TownReading(id int64, attribute, reading string, r sheetmap.Rect) *Sheet {
	s.polygons = append(s.polygons, polygonSpec{id: id, class: sheetmap.TownSection, attribute: attribute, reading: reading, ring: corners(r)})
	return s
}

// Area adds a building, ground or water polygon.
func (s *Sheet) Area(id int64, class sheetmap.PolygonClass, attribute string, r sheetmap.Rect) *Sheet {
	s.polygons = append(s.polygons, polygonSpec{id: id, class: class, attribute: attribute, ring: corners(r)})
	return s
}

// Ring adds a polygon with an arbitrary outline. Each side becomes its own
// arc, shared with any other polygon on the sheet that has the same side.
func (s *Sheet) Ring(id int64, class sheetmap.PolygonClass, attribute string, ring ...sheetmap.Point) *Sheet {
	s.polygons = append(s.polygons, polygonSpec{id: id, class: class, attribute: attribute, ring: ring})
	return s
}

// Road adds a road polyline.
func (s *Sheet) Road(id int64, attribute string, pts ...sheetmap.Point) *Sheet {
	s.lines[sheetmap.LayerRoad] = append(s.lines[sheetmap.LayerRoad], lineSpec{id: id, class: sheetmap.ArcRoad, attribute: attribute, points: pts})
	return s
}

// Rail adds a railway polyline.
func (s *Sheet) Rail(id int64, attribute string, pts ...sheetmap.Point) *Sheet {
	s.lines[sheetmap.LayerRail] = append(s.lines[sheetmap.LayerRail], lineSpec{id: id, class: sheetmap.ArcRailway, attribute: attribute, points: pts})
	return s
}

// Station adds a station point.
func (s *Sheet) Station(id int64, attribute string, at sheetmap.Point) *Sheet {
	s.points = append(s.points, pointSpec{id: id, attribute: attribute, at: at})
	return s
}

// Info returns the sheet's catalog entry.
func (s *Sheet) Info() sheetmap.SheetInfo {
	b := s.Bounds
	return sheetmap.SheetInfo{ID: s.ID, Sheet: [4]sheetmap.Point{
		P(b.MinX, b.MinY), P(b.MaxX, b.MinY), P(b.MaxX, b.MaxY), P(b.MinX, b.MaxY),
	}}
}

// Layer builds fresh data for one layer.
func (s *Sheet) Layer(l sheetmap.Layer) *sheetmap.LayerData {
	d := sheetmap.NewLayerData()

	arcIDs := make(map[[2]sheetmap.Point]int64)
	// Side arcs get ids unique across layers so membership never mixes them.
	next := int64(l+1)*100000 + 1
	side := func(a, b sheetmap.Point) int64 {
		key := [2]sheetmap.Point{a, b}
		if b.X < a.X || (b.X == a.X && b.Y < a.Y) {
			key = [2]sheetmap.Point{b, a}
		}
		if id, ok := arcIDs[key]; ok {
			return id
		}
		id := next
		next++
		arcIDs[key] = id
		arc := &sheetmap.Arc{ID: id, Class: sheetmap.ArcAdministrative, Points: []sheetmap.Point{a, b}}
		if s.onBoundary(a, b) {
			arc.Tag = sheetmap.TagEdgeOfMap
		}
		d.AddArc(arc)
		return id
	}

	for _, ps := range s.polygons {
		if sheetmap.LayerFor(ps.class) != l {
			continue
		}
		arcs := make([]int64, len(ps.ring))
		for i, a := range ps.ring {
			arcs[i] = side(a, ps.ring[(i+1)%len(ps.ring)])
		}
		d.AddPolygon(&sheetmap.Polygon{
			ID:        ps.id,
			Class:     ps.class,
			Attribute: ps.attribute,
			Reading:   ps.reading,
			Arcs:      arcs,
		})
	}

	for _, ls := range s.lines[l] {
		a := &sheetmap.Arc{ID: ls.id, Class: ls.class, Points: append([]sheetmap.Point(nil), ls.points...)}
		if ls.attribute != "" {
			a.SetAttribute(ls.attribute, ls.points[0], 0, 0)
		}
		d.AddArc(a)
	}

	if l == sheetmap.LayerStation {
		for _, p := range s.points {
			d.AddPoint(&sheetmap.PointFeature{
				ID:        p.id,
				Class:     sheetmap.PointStation,
				Location:  p.at,
				Attribute: p.attribute,
			})
		}
	}
	return d
}

func (s *Sheet) onBoundary(a, b sheetmap.Point) bool {
	bb := s.Bounds
	return (a.X == b.X && (a.X == bb.MinX || a.X == bb.MaxX)) ||
		(a.Y == b.Y && (a.Y == bb.MinY || a.Y == bb.MaxY))
}

// Tile builds the sheet with every layer loaded.
func (s *Sheet) Tile() (*sheetmap.Tile, error) {
	info := s.Info()
	t := sheetmap.NewTile(info.ID, info.Sheet)
	for _, l := range sheetmap.Layers {
		if err := t.LoadLayer(l, s.Layer(l)); err != nil {
			return nil, fmt.Errorf("sheet %d layer %s: %w", s.ID, l, err)
		}
	}
	return t, nil
}

// TileSet builds every sheet into a tile set.
func TileSet(sheets ...*Sheet) (*sheetmap.TileSet, error) {
	ts := sheetmap.NewTileSet()
	for _, s := range sheets {
		t, err := s.Tile()
		if err != nil {
			return nil, err
		}
		ts.Add(t)
	}
	return ts, nil
}

// Loader serves sheets from memory and counts layer loads.
type Loader struct {
	List []*Sheet
	Fail map[sheetmap.Layer]error // Layers that fail to load

	loads atomic.Int64
}

// NewLoader creates a loader for sheets.
func NewLoader(sheets ...*Sheet) *Loader {
	return &Loader{List: sheets, Fail: make(map[sheetmap.Layer]error)}
}

// Loads returns the number of successful LoadLayer calls.
func (l *Loader) Loads() int {
	return int(l.loads.Load())
}

// Sheets implements sheetmap.Loader.
func (l *Loader) Sheets(ctx context.Context) ([]sheetmap.SheetInfo, error) {
	out := make([]sheetmap.SheetInfo, 0, len(l.List))
	for _, s := range l.List {
		out = append(out, s.Info())
	}
	return out, nil
}

// LoadLayer implements sheetmap.Loader.
func (l *Loader) LoadLayer(ctx context.Context, tileID int, layer sheetmap.Layer) (*sheetmap.LayerData, error) {
	if err := l.Fail[layer]; err != nil {
		return nil, err
	}
	for _, s := range l.List {
		if s.ID == tileID {
			l.loads.Add(1)
			return s.Layer(layer), nil
		}
	}
	return nil, &sheetmap.ErrUnknownTile{TileID: tileID}
}

var _ sheetmap.Loader = (*Loader)(nil)
