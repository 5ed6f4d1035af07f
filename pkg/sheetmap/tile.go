package sheetmap

import (
	"errors"
	"sort"
)

// Layer identifies an independently loadable group of features on a sheet.
type Layer int

const (
	LayerAdministrative Layer = iota // Administrative arcs
	LayerTownSection                 // Town-section polygons
	LayerBuilding                    // Building arcs and polygons
	LayerRoad                        // Road arcs
	LayerRail                        // Rail and other arcs
	LayerWater                       // Water arcs and polygons
	LayerGround                      // "Other grounds" polygons
	LayerStation                     // Station points

	layerCount
)

// Layers lists every layer in load order.
var Layers = []Layer{
	LayerAdministrative,
	LayerTownSection,
	LayerBuilding,
	LayerRoad,
	LayerRail,
	LayerWater,
	LayerGround,
	LayerStation,
}

// String returns the layer name used in config files and logs.
func (l Layer) String() string {
	switch l {
	case LayerAdministrative:
		return "administrative"
	case LayerTownSection:
		return "town"
	case LayerBuilding:
		return "building"
	case LayerRoad:
		return "road"
	case LayerRail:
		return "rail"
	case LayerWater:
		return "water"
	case LayerGround:
		return "ground"
	case LayerStation:
		return "station"
	default:
		return "unknown"
	}
}

// ParseLayer resolves a layer name produced by String.
func ParseLayer(name string) (Layer, bool) {
	for _, l := range Layers {
		if l.String() == name {
			return l, true
		}
	}
	return 0, false
}

// LayerFor returns the layer that stores polygons of the given class.
func LayerFor(class PolygonClass) Layer {
	switch class {
	case Building:
		return LayerBuilding
	case Ground:
		return LayerGround
	case Water:
		return LayerWater
	default:
		return LayerTownSection
	}
}

// LayerData holds the features of one loaded layer.
type LayerData struct {
	Arcs     map[int64]*Arc
	Polygons map[int64]*Polygon
	Points   map[int64]*PointFeature
}

// NewLayerData creates empty layer data.
func NewLayerData() *LayerData {
	return &LayerData{
		Arcs:     make(map[int64]*Arc),
		Polygons: make(map[int64]*Polygon),
		Points:   make(map[int64]*PointFeature),
	}
}

// AddArc stores an arc, replacing any arc with the same id.
func (d *LayerData) AddArc(a *Arc) { d.Arcs[a.ID] = a }

// AddPolygon stores a polygon, replacing any polygon with the same id.
func (d *LayerData) AddPolygon(p *Polygon) { d.Polygons[p.ID] = p }

// AddPoint stores a point feature, replacing any point with the same id.
func (d *LayerData) AddPoint(p *PointFeature) { d.Points[p.ID] = p }

// SortedPolygons returns the layer's polygons ordered by id.
func (d *LayerData) SortedPolygons() []*Polygon {
	out := make([]*Polygon, 0, len(d.Polygons))
	for _, p := range d.Polygons {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SortedArcs returns the layer's arcs ordered by id.
func (d *LayerData) SortedArcs() []*Arc {
	out := make([]*Arc, 0, len(d.Arcs))
	for _, a := range d.Arcs {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SortedPoints returns the layer's point features ordered by id.
func (d *LayerData) SortedPoints() []*PointFeature {
	out := make([]*PointFeature, 0, len(d.Points))
	for _, p := range d.Points {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (d *LayerData) clone() *LayerData {
	c := &LayerData{
		Arcs:     make(map[int64]*Arc, len(d.Arcs)),
		Polygons: make(map[int64]*Polygon, len(d.Polygons)),
		Points:   make(map[int64]*PointFeature, len(d.Points)),
	}
	for id, a := range d.Arcs {
		c.Arcs[id] = a.clone()
	}
	for id, p := range d.Polygons {
		c.Polygons[id] = p.clone()
	}
	for id, p := range d.Points {
		c.Points[id] = p.clone()
	}
	return c
}

// Tile is one independently surveyed map sheet.
type Tile struct {
	ID    int
	Sheet [4]Point // Sheet corners; not necessarily axis aligned

	layers [layerCount]*LayerData

	// edges maps a boundary-segment key to the polygon that owns it.
	edges map[string]int64
	// edgeKeys lists the keys each polygon registered, for FreeLayer.
	edgeKeys map[int64][]string
	// members maps an arc id to the set of polygons built from it.
	members map[int64]map[int64]struct{}
	// adjacency is derived from members; nil when stale.
	adjacency map[int64]map[int64]struct{}
}

// NewTile creates a tile with no layers loaded.
func NewTile(id int, sheet [4]Point) *Tile {
	return &Tile{
		ID:       id,
		Sheet:    sheet,
		edges:    make(map[string]int64),
		edgeKeys: make(map[int64][]string),
		members:  make(map[int64]map[int64]struct{}),
	}
}

// Bounds returns the axis-aligned envelope of the sheet quadrilateral.
func (t *Tile) Bounds() Rect {
	return PointsBounds(t.Sheet[:])
}

// HasLayer reports whether the layer is loaded.
func (t *Tile) HasLayer(l Layer) bool {
	return l >= 0 && l < layerCount && t.layers[l] != nil
}

// Layer returns the layer data, or nil when the layer is not loaded.
func (t *Tile) Layer(l Layer) *LayerData {
	if l < 0 || l >= layerCount {
		return nil
	}
	return t.layers[l]
}

// LoadLayer installs layer data and indexes its polygons.
//
// Polygons that list constituent arcs get their area assembled from those
// arcs, their membership recorded, and every segment of their edge-of-map
// arcs registered in the edge registry. Arcs are looked up in the same layer
// first, then in the other loaded layers. Polygons whose rings cannot be
// assembled are still stored; the returned error joins one ErrBrokenRing per
// such polygon.
func (t *Tile) LoadLayer(l Layer, data *LayerData) error {
	if l < 0 || l >= layerCount {
		return errors.New("invalid layer")
	}
	if data == nil {
		data = NewLayerData()
	}
	if t.layers[l] != nil {
		t.FreeLayer(l)
	}
	t.layers[l] = data

	var errs []error
	for _, p := range data.SortedPolygons() {
		p.Tile = t.ID
		if err := t.indexPolygon(l, p); err != nil {
			errs = append(errs, err)
		}
	}
	t.adjacency = nil
	return errors.Join(errs...)
}

// FreeLayer drops a layer and removes its polygons from the indexes.
func (t *Tile) FreeLayer(l Layer) {
	if !t.HasLayer(l) {
		return
	}
	for id, p := range t.layers[l].Polygons {
		for _, arcID := range p.Arcs {
			if owners, ok := t.members[arcID]; ok {
				delete(owners, id)
				if len(owners) == 0 {
					delete(t.members, arcID)
				}
			}
		}
		for _, key := range t.edgeKeys[id] {
			if t.edges[key] == id {
				delete(t.edges, key)
			}
		}
		delete(t.edgeKeys, id)
	}
	t.layers[l] = nil
	t.adjacency = nil
}

// FreeAll drops every loaded layer.
func (t *Tile) FreeAll() {
	for _, l := range Layers {
		t.FreeLayer(l)
	}
}

// RegisterEdge records that the segment a-b lies on the sheet boundary and
// belongs to polygon id. Both traversal directions are inserted.
func (t *Tile) RegisterEdge(a, b Point, id int64) {
	t.RegisterEdgeKey(EdgeKey(a, b), id)
	t.RegisterEdgeKey(EdgeKey(b, a), id)
}

// RegisterEdgeKey records a raw edge key. Keys supplied by external loaders
// are not validated here; the stitcher skips malformed ones.
func (t *Tile) RegisterEdgeKey(key string, id int64) {
	t.edges[key] = id
	t.edgeKeys[id] = append(t.edgeKeys[id], key)
}

// EdgeOwner returns the polygon registered for a boundary key.
func (t *Tile) EdgeOwner(key string) (int64, bool) {
	id, ok := t.edges[key]
	return id, ok
}

// EdgeKeys returns every registered boundary key in lexicographic order.
func (t *Tile) EdgeKeys() []string {
	keys := make([]string, 0, len(t.edges))
	for k := range t.edges {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Owners returns the polygons built from an arc.
func (t *Tile) Owners(arcID int64) []int64 {
	owners := t.members[arcID]
	out := make([]int64, 0, len(owners))
	for id := range owners {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Adjacency returns the tile's polygon adjacency graph. Two polygons are
// neighbors when some arc is owned by exactly the two of them. The graph is
// derived on first use and cached until a layer changes.
func (t *Tile) Adjacency() map[int64]map[int64]struct{} {
	if t.adjacency != nil {
		return t.adjacency
	}
	adj := make(map[int64]map[int64]struct{})
	for _, owners := range t.members {
		if len(owners) != 2 {
			continue
		}
		var pair [2]int64
		i := 0
		for id := range owners {
			pair[i] = id
			i++
		}
		link(adj, pair[0], pair[1])
	}
	t.adjacency = adj
	return adj
}

func link(adj map[int64]map[int64]struct{}, a, b int64) {
	if a == b {
		return
	}
	if adj[a] == nil {
		adj[a] = make(map[int64]struct{})
	}
	if adj[b] == nil {
		adj[b] = make(map[int64]struct{})
	}
	adj[a][b] = struct{}{}
	adj[b][a] = struct{}{}
}

// Polygon finds a polygon in any loaded polygon layer.
func (t *Tile) Polygon(id int64) *Polygon {
	for _, l := range []Layer{LayerTownSection, LayerGround, LayerWater, LayerBuilding} {
		if d := t.layers[l]; d != nil {
			if p, ok := d.Polygons[id]; ok {
				return p
			}
		}
	}
	return nil
}

// StitchPolygon finds a polygon that may take part in boundary stitching,
// checking the town-section, ground and water layers in that order.
func (t *Tile) StitchPolygon(id int64) *Polygon {
	for _, l := range []Layer{LayerTownSection, LayerGround, LayerWater} {
		if d := t.layers[l]; d != nil {
			if p, ok := d.Polygons[id]; ok {
				return p
			}
		}
	}
	return nil
}

// Polygons returns the loaded polygons of a class ordered by id.
func (t *Tile) Polygons(class PolygonClass) []*Polygon {
	d := t.layers[LayerFor(class)]
	if d == nil {
		return nil
	}
	var out []*Polygon
	for _, p := range d.SortedPolygons() {
		if p.Class == class {
			out = append(out, p)
		}
	}
	return out
}

// Arcs returns the loaded arcs of the given layers ordered by id.
func (t *Tile) Arcs(layers ...Layer) []*Arc {
	var out []*Arc
	for _, l := range layers {
		if d := t.Layer(l); d != nil {
			out = append(out, d.SortedArcs()...)
		}
	}
	return out
}

// Points returns the loaded station points ordered by id.
func (t *Tile) Points() []*PointFeature {
	if d := t.layers[LayerStation]; d != nil {
		return d.SortedPoints()
	}
	return nil
}

// arc finds an arc, preferring the given layer.
func (t *Tile) arc(prefer Layer, id int64) *Arc {
	if d := t.layers[prefer]; d != nil {
		if a, ok := d.Arcs[id]; ok {
			return a
		}
	}
	for _, l := range Layers {
		if l == prefer || t.layers[l] == nil {
			continue
		}
		if a, ok := t.layers[l].Arcs[id]; ok {
			return a
		}
	}
	return nil
}

// Clone returns a deep copy of the tile's features and indexes.
func (t *Tile) Clone() *Tile {
	c := &Tile{
		ID:       t.ID,
		Sheet:    t.Sheet,
		edges:    make(map[string]int64, len(t.edges)),
		edgeKeys: make(map[int64][]string, len(t.edgeKeys)),
		members:  make(map[int64]map[int64]struct{}, len(t.members)),
	}
	for l, d := range t.layers {
		if d != nil {
			c.layers[l] = d.clone()
		}
	}
	for k, v := range t.edges {
		c.edges[k] = v
	}
	for k, v := range t.edgeKeys {
		c.edgeKeys[k] = append([]string(nil), v...)
	}
	for arcID, owners := range t.members {
		set := make(map[int64]struct{}, len(owners))
		for id := range owners {
			set[id] = struct{}{}
		}
		c.members[arcID] = set
	}
	return c
}
