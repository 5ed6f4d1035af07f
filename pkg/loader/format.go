package loader

import (
	"fmt"

	"github.com/beetlebugorg/sheetmap/pkg/sheetmap"
)

// indexFile is the layout of index.json.
type indexFile struct {
	Sheets []sheetRecord `json:"sheets"`
}

type sheetRecord struct {
	ID   int           `json:"id"`
	Quad [4][2]float64 `json:"quad"`
}

// sheetFile is the layout of <id>.json. Layers are keyed by layer name.
type sheetFile struct {
	ID     int                    `json:"id"`
	Layers map[string]layerRecord `json:"layers"`
}

type layerRecord struct {
	Arcs     []arcRecord     `json:"arcs"`
	Polygons []polygonRecord `json:"polygons"`
	Points   []pointRecord   `json:"points"`
}

type arcRecord struct {
	ID        int64        `json:"id"`
	Class     string       `json:"class"`
	Tag       string       `json:"tag"`
	Points    [][2]float64 `json:"points"`
	Attribute string       `json:"attribute"`
	Anchor    *[2]float64  `json:"anchor"`
	Road      int          `json:"road"`
	Rail      int          `json:"rail"`
}

type polygonRecord struct {
	ID        int64       `json:"id"`
	Class     string      `json:"class"`
	Arcs      []int64     `json:"arcs"`
	Attribute string      `json:"attribute"`
	Reading   string      `json:"reading"`
	Subtype   int         `json:"subtype"`
	Centroid  *[2]float64 `json:"centroid"`
}

type pointRecord struct {
	ID        int64       `json:"id"`
	Class     string      `json:"class"`
	Location  [2]float64  `json:"location"`
	Attribute string      `json:"attribute"`
	Anchor    *[2]float64 `json:"anchor"`
}

var arcClasses = map[string]sheetmap.ArcClass{
	"":               sheetmap.ArcOther,
	"other":          sheetmap.ArcOther,
	"administrative": sheetmap.ArcAdministrative,
	"railway":        sheetmap.ArcRailway,
	"road":           sheetmap.ArcRoad,
	"water":          sheetmap.ArcWater,
}

var arcTags = map[string]sheetmap.ArcTag{
	"":              sheetmap.TagNormal,
	"normal":        sheetmap.TagNormal,
	"overpass":      sheetmap.TagOverpass,
	"tunnel":        sheetmap.TagTunnel,
	"under-bridge":  sheetmap.TagUnderBridge,
	"uncertain":     sheetmap.TagUncertain,
	"detached":      sheetmap.TagDetached,
	"edge-of-map":   sheetmap.TagEdgeOfMap,
	"edge-of-world": sheetmap.TagEdgeOfWorld,
}

var polygonClasses = map[string]sheetmap.PolygonClass{
	"town":     sheetmap.TownSection,
	"building": sheetmap.Building,
	"ground":   sheetmap.Ground,
	"water":    sheetmap.Water,
}

var pointClasses = map[string]sheetmap.PointClass{
	"":        sheetmap.PointGeneric,
	"generic": sheetmap.PointGeneric,
	"station": sheetmap.PointStation,
	"shop":    sheetmap.PointShop,
}

func pt(v [2]float64) sheetmap.Point {
	return sheetmap.Point{X: v[0], Y: v[1]}
}

func (s sheetRecord) info() sheetmap.SheetInfo {
	var quad [4]sheetmap.Point
	for i, v := range s.Quad {
		quad[i] = pt(v)
	}
	return sheetmap.SheetInfo{ID: s.ID, Sheet: quad}
}

// build converts a layer record to fresh layer data. Every call allocates
// new features because tiles mutate the features they own.
func (r *layerRecord) build() (*sheetmap.LayerData, error) {
	d := sheetmap.NewLayerData()

	for _, ar := range r.Arcs {
		class, ok := arcClasses[ar.Class]
		if !ok {
			return nil, fmt.Errorf("arc %d: unknown class %q", ar.ID, ar.Class)
		}
		tag, ok := arcTags[ar.Tag]
		if !ok {
			return nil, fmt.Errorf("arc %d: unknown tag %q", ar.ID, ar.Tag)
		}
		a := &sheetmap.Arc{ID: ar.ID, Class: class, Tag: tag, Points: make([]sheetmap.Point, len(ar.Points))}
		for i, v := range ar.Points {
			a.Points[i] = pt(v)
		}
		if ar.Attribute != "" || ar.Road != 0 || ar.Rail != 0 {
			var anchor sheetmap.Point
			if ar.Anchor != nil {
				anchor = pt(*ar.Anchor)
			}
			a.SetAttribute(ar.Attribute, anchor, ar.Road, ar.Rail)
		}
		d.AddArc(a)
	}

	for _, pr := range r.Polygons {
		class, ok := polygonClasses[pr.Class]
		if !ok {
			return nil, fmt.Errorf("polygon %d: unknown class %q", pr.ID, pr.Class)
		}
		p := &sheetmap.Polygon{
			ID:        pr.ID,
			Class:     class,
			Arcs:      append([]int64(nil), pr.Arcs...),
			Attribute: pr.Attribute,
			Reading:   pr.Reading,
			Subtype:   pr.Subtype,
		}
		if pr.Centroid != nil {
			p.Centroid = pt(*pr.Centroid)
		}
		d.AddPolygon(p)
	}

	for _, qr := range r.Points {
		class, ok := pointClasses[qr.Class]
		if !ok {
			return nil, fmt.Errorf("point %d: unknown class %q", qr.ID, qr.Class)
		}
		p := &sheetmap.PointFeature{
			ID:        qr.ID,
			Class:     class,
			Location:  pt(qr.Location),
			Attribute: qr.Attribute,
		}
		if qr.Anchor != nil {
			p.AttributeAnchor = pt(*qr.Anchor)
		}
		d.AddPoint(p)
	}
	return d, nil
}

// estimateSize approximates the memory held by a decoded sheet file.
//
// Base overhead is about 1KB per sheet, 128 bytes per feature plus its text,
// and 16 bytes per coordinate pair.
func (f *sheetFile) estimateSize() int64 {
	if f == nil {
		return 0
	}
	size := int64(1024)
	for _, l := range f.Layers {
		for _, a := range l.Arcs {
			size += 128 + int64(len(a.Attribute)) + int64(len(a.Points))*16
		}
		for _, p := range l.Polygons {
			size += 128 + int64(len(p.Attribute)+len(p.Reading)) + int64(len(p.Arcs))*8
		}
		for _, p := range l.Points {
			size += 128 + int64(len(p.Attribute))
		}
	}
	return size
}
