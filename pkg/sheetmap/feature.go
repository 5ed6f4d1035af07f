package sheetmap

import (
	"strconv"
	"sync"

	"github.com/ctessum/geom"
)

// ArcClass classifies a polyline feature.
type ArcClass int

const (
	// ArcOther covers arcs that fit no other class.
	ArcOther ArcClass = iota

	// ArcAdministrative is a town, ward or prefecture border.
	ArcAdministrative

	// ArcRailway is a rail line or rail curve.
	ArcRailway

	// ArcRoad is a road centerline or road edge.
	ArcRoad

	// ArcWater is a shoreline or river edge.
	ArcWater
)

// String returns the human-readable name of the arc class.
func (c ArcClass) String() string {
	switch c {
	case ArcAdministrative:
		return "Administrative"
	case ArcRailway:
		return "Railway"
	case ArcRoad:
		return "Road"
	case ArcWater:
		return "Water"
	default:
		return "Other"
	}
}

// ArcTag records how an arc relates to its surroundings.
//
// EdgeOfMap marks a segment lying exactly on the sheet boundary; such arcs
// are the join key used to stitch polygons across sheets.
type ArcTag int

const (
	TagNormal ArcTag = iota
	TagOverpass
	TagTunnel
	TagUnderBridge
	TagUncertain
	TagDetached
	TagEdgeOfMap
	TagEdgeOfWorld
)

// String returns the human-readable name of the tag.
func (t ArcTag) String() string {
	switch t {
	case TagOverpass:
		return "Overpass"
	case TagTunnel:
		return "Tunnel"
	case TagUnderBridge:
		return "UnderBridge"
	case TagUncertain:
		return "Uncertain"
	case TagDetached:
		return "Detached"
	case TagEdgeOfMap:
		return "EdgeOfMap"
	case TagEdgeOfWorld:
		return "EdgeOfWorld"
	default:
		return "Normal"
	}
}

// Label is the committed position of a feature's attribute text.
//
// Anchor is the top-left corner of the label rectangle in screen pixels.
// The zero anchor paired with non-empty text means placement failed.
type Label struct {
	Anchor Point
	Size   float64
}

// Suppressed reports whether the label carries the failure sentinel.
func (l Label) Suppressed() bool {
	return l.Anchor.IsZero()
}

// Placed reports whether text was given a position this cycle.
func (l Label) Placed(text string) bool {
	return text != "" && !l.Suppressed()
}

// Arc is a classified polyline.
//
// The polyline is immutable once parsed. Attribute text, its anchor and the
// road or railway subtype are set once while attributes are attached.
type Arc struct {
	ID     int64
	Class  ArcClass
	Tag    ArcTag
	Points []Point

	Attribute       string
	AttributeAnchor Point
	RoadSubtype     int
	RailwaySubtype  int

	// Label is written by the label placer on the paint path.
	Label Label

	reverseOnce sync.Once
	reversed    []Point
	attrSet     bool
}

// Reversed returns the polyline in reverse order. The result is computed
// once and shared; callers must not modify it.
func (a *Arc) Reversed() []Point {
	a.reverseOnce.Do(func() {
		a.reversed = make([]Point, len(a.Points))
		for i, p := range a.Points {
			a.reversed[len(a.Points)-1-i] = p
		}
	})
	return a.reversed
}

// Bounds returns the bounding box of the polyline.
func (a *Arc) Bounds() Rect {
	return PointsBounds(a.Points)
}

// SetAttribute attaches attribute text to the arc. Only the first call has
// an effect.
func (a *Arc) SetAttribute(text string, anchor Point, roadSubtype, railwaySubtype int) {
	if a.attrSet {
		return
	}
	a.attrSet = true
	a.Attribute = text
	a.AttributeAnchor = anchor
	a.RoadSubtype = roadSubtype
	a.RailwaySubtype = railwaySubtype
}

// clone copies the arc. The polyline is shared.
func (a *Arc) clone() *Arc {
	return &Arc{
		ID:              a.ID,
		Class:           a.Class,
		Tag:             a.Tag,
		Points:          a.Points,
		Attribute:       a.Attribute,
		AttributeAnchor: a.AttributeAnchor,
		RoadSubtype:     a.RoadSubtype,
		RailwaySubtype:  a.RailwaySubtype,
		Label:           a.Label,
		attrSet:         a.attrSet,
	}
}

// PolygonClass classifies an area feature.
type PolygonClass int

const (
	// TownSection is an administrative town section (chome, aza).
	TownSection PolygonClass = iota + 1

	// Building is a building footprint.
	Building

	// Ground is an "other grounds" area: parks, schools, shrines.
	Ground

	// Water is a lake, pond or river body.
	Water
)

// String returns the human-readable name of the polygon class.
func (c PolygonClass) String() string {
	switch c {
	case TownSection:
		return "TownSection"
	case Building:
		return "Building"
	case Ground:
		return "Ground"
	case Water:
		return "Water"
	default:
		return "Unknown"
	}
}

// Key identifies a polygon across sheets. Polygon ids are only unique
// within one sheet; two sheets may reuse an id for unrelated features or for
// the two halves of one split feature.
type Key struct {
	Tile int
	ID   int64
}

// Less orders keys by polygon id, then by sheet.
func (k Key) Less(o Key) bool {
	if k.ID != o.ID {
		return k.ID < o.ID
	}
	return k.Tile < o.Tile
}

// String formats the key as "tile:id".
func (k Key) String() string {
	return strconv.Itoa(k.Tile) + ":" + strconv.FormatInt(k.ID, 10)
}

// Color index values.
const (
	ColorUnset    = 0 // Not yet visited by the colorer
	ColorMax      = 7 // Largest regular palette slot
	ColorConflict = 8 // Constraints could not be satisfied
)

// Polygon is a closed-area feature.
//
// Area starts as the rings assembled from Arcs and may later be replaced by
// the union of several sheets' rings. Representative, ColorIndex and the
// labels are derived fields owned by the stitcher, colorer and label placer.
type Polygon struct {
	ID        int64
	Tile      int // Owning sheet, set by Tile.LoadLayer
	Class     PolygonClass
	Arcs      []int64 // Constituent arc ids in ring order
	Area      geom.Polygon
	Subtype   int // Building subtype code
	Attribute string
	Reading   string // Phonetic reading shown under the main label

	Centroid       Point // Parsed centroid
	Representative Point
	ColorIndex     int

	Label        Label
	ReadingLabel Label

	// StitchSignature identifies the boundary group last applied to Area.
	StitchSignature string
}

// Key returns the polygon's identity across sheets.
func (p *Polygon) Key() Key {
	return Key{Tile: p.Tile, ID: p.ID}
}

// Bounds returns the bounding box of the polygon's area.
func (p *Polygon) Bounds() Rect {
	return AreaBounds(p.Area)
}

// Colored reports whether the colorer has assigned an index.
func (p *Polygon) Colored() bool {
	return p.ColorIndex != ColorUnset
}

// clone copies the polygon. Area is shared because it is only ever replaced,
// never modified in place.
func (p *Polygon) clone() *Polygon {
	c := *p
	return &c
}

// PointClass classifies a point feature.
type PointClass int

const (
	PointGeneric PointClass = iota
	PointStation
	PointShop
)

// String returns the human-readable name of the point class.
func (c PointClass) String() string {
	switch c {
	case PointStation:
		return "Station"
	case PointShop:
		return "Shop"
	default:
		return "Generic"
	}
}

// PointFeature is a labeled point such as a station.
type PointFeature struct {
	ID              int64
	Class           PointClass
	Location        Point
	Attribute       string
	AttributeAnchor Point

	Label Label
}

func (p *PointFeature) clone() *PointFeature {
	c := *p
	return &c
}
