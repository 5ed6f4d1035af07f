package label

import "github.com/beetlebugorg/sheetmap/pkg/sheetmap"

// View maps planar coordinates onto the screen.
//
// Origin is the planar point shown at the top-left pixel. Planar Y grows
// upward while screen Y grows downward.
type View struct {
	Origin sheetmap.Point
	Scale  float64 // Pixels per planar unit
	Width  int
	Height int
}

// ToScreen converts a planar point to pixels.
func (v View) ToScreen(p sheetmap.Point) sheetmap.Point {
	return sheetmap.Point{
		X: (p.X - v.Origin.X) * v.Scale,
		Y: (v.Origin.Y - p.Y) * v.Scale,
	}
}

// RectToScreen converts a planar rectangle to a screen rectangle.
func (v View) RectToScreen(r sheetmap.Rect) sheetmap.Rect {
	a := v.ToScreen(sheetmap.Point{X: r.MinX, Y: r.MaxY})
	b := v.ToScreen(sheetmap.Point{X: r.MaxX, Y: r.MinY})
	return sheetmap.Rect{MinX: a.X, MinY: a.Y, MaxX: b.X, MaxY: b.Y}
}

// Visible returns the screen rectangle labels must stay inside.
func (v View) Visible() sheetmap.Rect {
	return sheetmap.Rect{MaxX: float64(v.Width), MaxY: float64(v.Height)}
}

// Viewport returns the planar rectangle the view shows.
func (v View) Viewport() sheetmap.Rect {
	if v.Scale <= 0 {
		return sheetmap.EmptyRect()
	}
	return sheetmap.Rect{
		MinX: v.Origin.X,
		MinY: v.Origin.Y - float64(v.Height)/v.Scale,
		MaxX: v.Origin.X + float64(v.Width)/v.Scale,
		MaxY: v.Origin.Y,
	}
}

// ViewOf builds a view that fits viewport into a width×height window.
func ViewOf(viewport sheetmap.Rect, width, height int) View {
	sx := float64(width) / viewport.Width()
	sy := float64(height) / viewport.Height()
	scale := sx
	if sy < scale {
		scale = sy
	}
	return View{
		Origin: sheetmap.Point{X: viewport.MinX, Y: viewport.MaxY},
		Scale:  scale,
		Width:  width,
		Height: height,
	}
}
