package label

import (
	"fmt"
	"io"
	"math"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/beetlebugorg/sheetmap/internal/sheettest"
	"github.com/beetlebugorg/sheetmap/pkg/sheetmap"
)

var (
	R = sheettest.R
	P = sheettest.P
)

// testView shows the planar rectangle [0,0]-[100,50] at ten pixels per unit.
func testView() View {
	return ViewOf(R(0, 0, 100, 50), 1000, 500)
}

func place(t *testing.T, s *sheettest.Sheet) (*sheetmap.TileSet, *Result) {
	t.Helper()
	ts, err := sheettest.TileSet(s)
	if err != nil {
		t.Fatalf("build tiles: %v", err)
	}
	pl := NewPlacer(DefaultOptions(), FixedMeasurer{}, log.New(io.Discard))
	return ts, pl.Place(ts, testView())
}

func tile(t *testing.T, ts *sheetmap.TileSet) *sheetmap.Tile {
	t.Helper()
	tl, err := ts.Tile(1)
	if err != nil {
		t.Fatal(err)
	}
	return tl
}

func sheet() *sheettest.Sheet {
	return sheettest.NewSheet(1, R(0, 0, 100, 50))
}

func near(a, b sheetmap.Point) bool {
	return math.Abs(a.X-b.X) < 1e-9 && math.Abs(a.Y-b.Y) < 1e-9
}

func checkNoOverlap(t *testing.T, res *Result) {
	t.Helper()
	visible := testView().Visible()
	for i, a := range res.Placements {
		if !visible.ContainsRect(a.Rect) {
			t.Errorf("placement %d (%s %q) at %v leaves the window", i, a.Kind, a.Text, a.Rect)
		}
		for j := i + 1; j < len(res.Placements); j++ {
			b := res.Placements[j]
			if a.Rect.Overlaps(b.Rect) {
				t.Errorf("%q at %v overlaps %q at %v", a.Text, a.Rect, b.Text, b.Rect)
			}
		}
	}
}

func TestBuildingSuppressedByEarlierLabel(t *testing.T) {
	// The station label is placed first and covers the building's center.
	ts, res := place(t, sheet().
		Station(1, "Central", P(40, 25)).
		Area(10, sheetmap.Building, "City Hall", R(44, 24, 46, 26)))

	tl := tile(t, ts)
	b := tl.Polygon(10)
	if !b.Label.Suppressed() {
		t.Errorf("building label = %+v, want the (0,0) anchor", b.Label)
	}
	if res.Suppressed != 1 || len(res.Placements) != 1 {
		t.Errorf("Result = %d placements, %d suppressed; want 1 and 1", len(res.Placements), res.Suppressed)
	}
	st := tl.Points()[0]
	if st.Label.Suppressed() || st.Label.Size != 12 {
		t.Errorf("station label = %+v, want a placed size-12 label", st.Label)
	}
}

func TestInteriorCentered(t *testing.T) {
	ts, res := place(t, sheet().Area(10, sheetmap.Water, "Lake", R(40, 20, 60, 30)))

	if len(res.Placements) != 1 {
		t.Fatalf("got %d placements, want 1", len(res.Placements))
	}
	got := res.Placements[0]
	if got.Kind != KindInterior || !near(got.Rect.Center(), P(500, 250)) {
		t.Errorf("placement = %s at %v, want interior centered on (500,250)", got.Kind, got.Rect)
	}
	if l := tile(t, ts).Polygon(10).Label; l.Anchor != P(got.Rect.MinX, got.Rect.MinY) {
		t.Errorf("anchor = %v, want top-left of %v", l.Anchor, got.Rect)
	}
}

func TestPointCandidateOrder(t *testing.T) {
	tests := []struct {
		name  string
		at    sheetmap.Point
		check func(r sheetmap.Rect, anchor sheetmap.Point) bool
	}{
		{"right", P(50, 25), func(r sheetmap.Rect, a sheetmap.Point) bool { return r.MinX > a.X }},
		{"left at right edge", P(99, 25), func(r sheetmap.Rect, a sheetmap.Point) bool { return r.MaxX < a.X }},
		{"lower-right at top edge", P(1, 49.5), func(r sheetmap.Rect, a sheetmap.Point) bool {
			return r.MinX > a.X && r.MinY > a.Y
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, res := place(t, sheet().Station(1, "Central", tt.at))
			if len(res.Placements) != 1 {
				t.Fatalf("got %d placements, want 1", len(res.Placements))
			}
			anchor := testView().ToScreen(tt.at)
			if r := res.Placements[0].Rect; !tt.check(r, anchor) {
				t.Errorf("rect %v is not on the expected side of %v", r, anchor)
			}
		})
	}
}

func TestPointAnchorUsedOnce(t *testing.T) {
	ts, res := place(t, sheet().
		Station(1, "Kita", P(50, 25)).
		Station(2, "Minami", P(50, 25)))

	pts := tile(t, ts).Points()
	if pts[0].Label.Suppressed() {
		t.Error("first station should be labeled")
	}
	if !pts[1].Label.Suppressed() {
		t.Error("second station on the same anchor should be suppressed")
	}
	if res.Suppressed != 1 {
		t.Errorf("Suppressed = %d, want 1", res.Suppressed)
	}
}

func TestTownWithReading(t *testing.T) {
	ts, res := place(t, sheet().TownReading(1, "Asahi", "asahi", R(20, 10, 80, 40)))

	p := tile(t, ts).Polygon(1)
	if p.Label.Suppressed() || p.Label.Size != 18 {
		t.Fatalf("town label = %+v, want a placed size-18 label", p.Label)
	}
	if p.ReadingLabel.Suppressed() || p.ReadingLabel.Size != 9 {
		t.Fatalf("reading label = %+v, want a placed size-9 label", p.ReadingLabel)
	}

	var main, reading sheetmap.Rect
	for _, pl := range res.Placements {
		switch pl.Kind {
		case KindTown:
			main = pl.Rect
		case KindReading:
			reading = pl.Rect
		}
	}
	if !near(main.Center(), P(500, 250)) {
		t.Errorf("town label center = %v, want (500,250)", main.Center())
	}
	if reading.MaxY != main.MinY || math.Abs(reading.Center().X-main.Center().X) > 1e-9 {
		t.Errorf("reading %v should sit centered directly above %v", reading, main)
	}
	checkNoOverlap(t, res)
}

func TestTownTooNarrow(t *testing.T) {
	ts, res := place(t, sheet().Town(1, "Asahi", R(50, 20, 52, 30)))

	if !tile(t, ts).Polygon(1).Label.Suppressed() {
		t.Error("text wider than the polygon at every size should be suppressed")
	}
	if res.Suppressed != 1 {
		t.Errorf("Suppressed = %d, want 1", res.Suppressed)
	}
}

func TestTownMovesOffCenter(t *testing.T) {
	ts, res := place(t, sheet().
		Station(1, "Central", P(50, 25)).
		Town(2, "Asahi", R(20, 10, 80, 40)))

	p := tile(t, ts).Polygon(2)
	if p.Label.Suppressed() {
		t.Fatal("town label should find an offset position")
	}
	if p.Label.Anchor.Y >= 250 {
		t.Errorf("town label anchor %v, want it moved north of the center", p.Label.Anchor)
	}
	checkNoOverlap(t, res)
}

func TestLineTextPlacedOnce(t *testing.T) {
	ts, res := place(t, sheet().
		Road(1, "Route 1", P(10, 10), P(30, 10)).
		Road(2, "Route 1", P(60, 10), P(80, 10)).
		Road(3, "", P(10, 20), P(30, 20)).
		Rail(4, "Line A", P(10, 40), P(90, 40)))

	lines := 0
	for _, pl := range res.Placements {
		if pl.Kind == KindLine {
			lines++
		}
	}
	if lines != 2 {
		t.Errorf("placed %d line labels, want 2", lines)
	}
	if res.Suppressed != 0 {
		t.Errorf("Suppressed = %d, want 0", res.Suppressed)
	}

	for _, a := range tile(t, ts).Arcs(sheetmap.LayerRoad) {
		if a.ID == 2 && !a.Label.Anchor.IsZero() {
			t.Errorf("repeated road text got anchor %v", a.Label.Anchor)
		}
		if a.ID == 1 && a.Label.Anchor.IsZero() {
			t.Error("first road fragment should be labeled")
		}
	}
}

func TestLineFallsBackToLaterVertex(t *testing.T) {
	// The first vertex sits on the window edge, so its rectangle spills out.
	_, res := place(t, sheet().Road(1, "Route 1", P(0, 10), P(50, 10)))

	if len(res.Placements) != 1 {
		t.Fatalf("got %d placements, want 1", len(res.Placements))
	}
	if c := res.Placements[0].Rect.Center(); !near(c, P(500, 400)) {
		t.Errorf("label center = %v, want second vertex (500,400)", c)
	}
}

func TestCrowdedLabelsNeverOverlap(t *testing.T) {
	s := sheet()
	n := 0
	for y := 5.0; y < 50; y += 5 {
		for x := 5.0; x < 100; x += 2 {
			n++
			s.Station(int64(n), fmt.Sprintf("S%02d", n%100), P(x, y))
		}
	}

	_, res := place(t, s)
	if len(res.Placements)+res.Suppressed != n {
		t.Errorf("placed %d + suppressed %d, want %d features", len(res.Placements), res.Suppressed, n)
	}
	if res.Suppressed == 0 {
		t.Error("a crowded grid should suppress some labels")
	}
	checkNoOverlap(t, res)
}

func TestPlaceResets(t *testing.T) {
	ts, err := sheettest.TileSet(sheet().Station(1, "Central", P(50, 25)))
	if err != nil {
		t.Fatal(err)
	}
	pl := NewPlacer(DefaultOptions(), nil, log.New(io.Discard))

	first := pl.Place(ts, testView())
	second := pl.Place(ts, testView())
	if len(first.Placements) != 1 || len(second.Placements) != 1 {
		t.Errorf("placements = %d then %d, want 1 each paint", len(first.Placements), len(second.Placements))
	}
	if first.Placements[0].Rect != second.Placements[0].Rect {
		t.Error("placement should be reproducible across paints")
	}
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindPoint, "point"},
		{KindTown, "town"},
		{KindReading, "reading"},
		{KindInterior, "interior"},
		{KindLine, "line"},
		{Kind(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

// boxMeasurer gives every text the same box.
type boxMeasurer struct{ w, h float64 }

func (m boxMeasurer) Measure(string, float64) (float64, float64) { return m.w, m.h }

func TestLabelAtOriginRejected(t *testing.T) {
	tests := []struct {
		name   string
		area   sheetmap.Rect
		placed bool
		anchor sheetmap.Point
	}{
		// Centered at screen (10,5), so the box would start at the origin.
		{"corner on origin", R(0.5, 49, 1.5, 50), false, sheetmap.Point{}},
		{"corner on top edge", R(1.5, 49, 2.5, 50), true, P(10, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, err := sheettest.TileSet(sheet().Area(10, sheetmap.Building, "ABC", tt.area))
			if err != nil {
				t.Fatalf("build tiles: %v", err)
			}
			pl := NewPlacer(DefaultOptions(), boxMeasurer{w: 20, h: 10}, log.New(io.Discard))
			res := pl.Place(ts, testView())

			b := tile(t, ts).Polygon(10)
			if got := b.Label.Placed(b.Attribute); got != tt.placed {
				t.Fatalf("Placed() = %v, want %v (label %+v)", got, tt.placed, b.Label)
			}
			if tt.placed {
				if len(res.Placements) != 1 || b.Label.Anchor != tt.anchor {
					t.Errorf("placements = %v, anchor = %v; want one at %v", res.Placements, b.Label.Anchor, tt.anchor)
				}
				return
			}
			if len(res.Placements) != 0 || res.Suppressed != 1 {
				t.Errorf("Result = %d placements, %d suppressed; want 0 and 1", len(res.Placements), res.Suppressed)
			}
		})
	}
}
