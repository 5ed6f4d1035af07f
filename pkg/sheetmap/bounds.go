package sheetmap

import (
	"math"

	"github.com/ctessum/geom"
)

// Point is a planar coordinate produced by the geodetic projector.
type Point struct {
	X float64
	Y float64
}

// Add returns p translated by (dx, dy).
func (p Point) Add(dx, dy float64) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// IsZero reports whether p is the origin. The origin doubles as the
// "suppressed" label anchor.
func (p Point) IsZero() bool {
	return p.X == 0 && p.Y == 0
}

// Rect represents an axis-aligned rectangle in planar or screen coordinates.
type Rect struct {
	MinX float64 // Left edge
	MinY float64 // Top (screen) or south (planar) edge
	MaxX float64 // Right edge
	MaxY float64 // Bottom (screen) or north (planar) edge
}

// RectFromSize builds a rectangle from its top-left corner and size.
func RectFromSize(origin Point, w, h float64) Rect {
	return Rect{MinX: origin.X, MinY: origin.Y, MaxX: origin.X + w, MaxY: origin.Y + h}
}

// EmptyRect returns an inverted rectangle that any Extend call replaces.
func EmptyRect() Rect {
	return Rect{
		MinX: math.Inf(1),
		MinY: math.Inf(1),
		MaxX: math.Inf(-1),
		MaxY: math.Inf(-1),
	}
}

// IsEmpty reports whether the rectangle encloses nothing.
func (r Rect) IsEmpty() bool {
	return r.MinX > r.MaxX || r.MinY > r.MaxY
}

// Width returns the horizontal extent.
func (r Rect) Width() float64 { return r.MaxX - r.MinX }

// Height returns the vertical extent.
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Center returns the midpoint of the rectangle.
func (r Rect) Center() Point {
	return Point{X: (r.MinX + r.MaxX) / 2, Y: (r.MinY + r.MaxY) / 2}
}

// Contains returns true if p lies within the rectangle, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.MinX && p.X <= r.MaxX &&
		p.Y >= r.MinY && p.Y <= r.MaxY
}

// ContainsRect returns true if o lies fully inside r.
func (r Rect) ContainsRect(o Rect) bool {
	return o.MinX >= r.MinX && o.MaxX <= r.MaxX &&
		o.MinY >= r.MinY && o.MaxY <= r.MaxY
}

// Intersects returns true if the rectangles share any point, edges included.
func (r Rect) Intersects(o Rect) bool {
	if r.IsEmpty() || o.IsEmpty() {
		return false
	}
	return !(o.MaxX < r.MinX ||
		o.MinX > r.MaxX ||
		o.MaxY < r.MinY ||
		o.MinY > r.MaxY)
}

// Overlaps returns true if the interiors of the rectangles intersect.
// Rectangles that only touch along an edge do not overlap.
func (r Rect) Overlaps(o Rect) bool {
	return r.MinX < o.MaxX && o.MinX < r.MaxX &&
		r.MinY < o.MaxY && o.MinY < r.MaxY
}

// Union returns the smallest rectangle enclosing both.
func (r Rect) Union(o Rect) Rect {
	if r.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return r
	}
	return Rect{
		MinX: math.Min(r.MinX, o.MinX),
		MinY: math.Min(r.MinY, o.MinY),
		MaxX: math.Max(r.MaxX, o.MaxX),
		MaxY: math.Max(r.MaxY, o.MaxY),
	}
}

// Extend returns the rectangle grown to include p.
func (r Rect) Extend(p Point) Rect {
	return r.Union(Rect{MinX: p.X, MinY: p.Y, MaxX: p.X, MaxY: p.Y})
}

// Expand returns a new Rect expanded by the given margin in all directions.
func (r Rect) Expand(margin float64) Rect {
	return Rect{
		MinX: r.MinX - margin,
		MinY: r.MinY - margin,
		MaxX: r.MaxX + margin,
		MaxY: r.MaxY + margin,
	}
}

// PointsBounds returns the bounding box of a polyline.
func PointsBounds(pts []Point) Rect {
	b := EmptyRect()
	for _, p := range pts {
		b = b.Extend(p)
	}
	return b
}

// AreaBounds returns the bounding box of every vertex of a planar area.
func AreaBounds(area geom.Polygon) Rect {
	b := EmptyRect()
	for _, ring := range area {
		for _, p := range ring {
			b = b.Extend(Point{X: p.X, Y: p.Y})
		}
	}
	return b
}

// toPath converts a ring to a geom.Path, dropping the closing vertex when
// the ring repeats its first point.
func toPath(ring []Point) geom.Path {
	n := len(ring)
	if n > 1 && ring[0] == ring[n-1] {
		n--
	}
	path := make(geom.Path, n)
	for i := 0; i < n; i++ {
		path[i] = geom.Point{X: ring[i].X, Y: ring[i].Y}
	}
	return path
}
