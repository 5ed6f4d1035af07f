// Package label places non-overlapping text labels for points, polygons and
// lines inside the visible window.
//
// Placement is best effort and starts from scratch on every paint: the
// collision index and the set of used anchors are reset, then every labeled
// feature tries a fixed menu of candidate rectangles in priority order and
// commits the first one that lies fully inside the window and overlaps no
// earlier label. A feature whose candidates all fail gets the (0,0) anchor,
// meaning "no label this cycle".
//
// Features are processed class by class (station points, town sections,
// building/ground/water interiors, then roads and railways) and by id within
// a class, so the result is reproducible for a given snapshot and view.
package label

import (
	"math"

	"github.com/charmbracelet/log"

	"github.com/beetlebugorg/sheetmap/pkg/sheetmap"
	"github.com/beetlebugorg/sheetmap/pkg/spatial"
)

// Kind says which feature class a placement belongs to.
type Kind int

const (
	KindPoint Kind = iota
	KindTown
	KindReading
	KindInterior
	KindLine
)

// String returns the human-readable name of the kind.
func (k Kind) String() string {
	switch k {
	case KindPoint:
		return "point"
	case KindTown:
		return "town"
	case KindReading:
		return "reading"
	case KindInterior:
		return "interior"
	case KindLine:
		return "line"
	default:
		return "unknown"
	}
}

// Placement is one committed label.
type Placement struct {
	Kind  Kind
	ID    int64
	Text  string
	Rect  sheetmap.Rect // Screen rectangle
	Size  float64       // Font size that fit
	Owner any           // *sheetmap.PointFeature, *sheetmap.Polygon or *sheetmap.Arc
}

// Result lists the labels committed in one paint.
type Result struct {
	Placements []Placement
	Suppressed int // Labeled features that found no position
}

// Options tunes candidate generation.
type Options struct {
	Gap             float64    // Pixels between a point and its label
	ExclusionRadius float64    // Half side of the square reserved around a labeled point
	PointSize       float64    // Station and point label size
	InteriorSize    float64    // Building, ground and water label size
	LineSize        float64    // Road and railway label size
	ReadingSize     float64    // Phonetic sub-label size
	TownSizes       [3]float64 // Town-section sizes, tried largest first
	RequireFit      bool       // Skip a town size when the text is wider than the polygon
}

// DefaultOptions returns the options used by the renderer.
func DefaultOptions() Options {
	return Options{
		Gap:             4,
		ExclusionRadius: 3,
		PointSize:       12,
		InteriorSize:    11,
		LineSize:        11,
		ReadingSize:     9,
		TownSizes:       [3]float64{18, 14, 11},
		RequireFit:      true,
	}
}

// Placer computes label positions.
//
// A Placer is not safe for concurrent use; the paint path owns it.
type Placer struct {
	opts    Options
	measure Measurer
	logger  *log.Logger

	index *spatial.Index
	used  map[sheetmap.Point]struct{}
	view  View
	res   *Result
}

// NewPlacer creates a placer. A nil measurer uses FixedMeasurer; a nil
// logger falls back to log.Default().
func NewPlacer(opts Options, m Measurer, logger *log.Logger) *Placer {
	if m == nil {
		m = FixedMeasurer{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Placer{
		opts:    opts,
		measure: m,
		logger:  logger,
		index:   spatial.New(),
		used:    make(map[sheetmap.Point]struct{}),
	}
}

// Place labels every feature of the tiles visible in view and records the
// outcome on each feature.
func (pl *Placer) Place(ts *sheetmap.TileSet, view View) *Result {
	pl.index.Reset()
	pl.used = make(map[sheetmap.Point]struct{})
	pl.view = view
	pl.res = &Result{}

	tiles := ts.Visible(view.Viewport())

	for _, t := range tiles {
		for _, p := range t.Points() {
			pl.placePoint(p)
		}
	}
	for _, p := range sheetmap.Polygons(tiles, sheetmap.TownSection) {
		pl.placeTown(p)
	}
	for _, class := range []sheetmap.PolygonClass{sheetmap.Building, sheetmap.Ground, sheetmap.Water} {
		for _, p := range sheetmap.Polygons(tiles, class) {
			pl.placeInterior(p)
		}
	}
	placedText := make(map[string]struct{})
	for _, t := range tiles {
		for _, a := range t.Arcs(sheetmap.LayerRoad, sheetmap.LayerRail) {
			pl.placeLine(a, placedText)
		}
	}

	pl.logger.Debug("placed labels",
		"placed", len(pl.res.Placements), "suppressed", pl.res.Suppressed,
		"index", pl.index.Len())
	return pl.res
}

// fits reports whether r lies inside the window and overlaps no committed
// rectangle. A top-left corner on the origin would be indistinguishable from
// the suppressed anchor and is rejected.
func (pl *Placer) fits(r sheetmap.Rect) bool {
	if r.MinX == 0 && r.MinY == 0 {
		return false
	}
	return pl.view.Visible().ContainsRect(r) && !pl.index.Collides(r, nil)
}

func (pl *Placer) commit(kind Kind, id int64, text string, r sheetmap.Rect, size float64, owner any) sheetmap.Label {
	pl.index.Insert(r, spatial.KindLabel, owner)
	pl.res.Placements = append(pl.res.Placements, Placement{
		Kind: kind, ID: id, Text: text, Rect: r, Size: size, Owner: owner,
	})
	return sheetmap.Label{Anchor: sheetmap.Point{X: r.MinX, Y: r.MinY}, Size: size}
}

func (pl *Placer) suppress() sheetmap.Label {
	pl.res.Suppressed++
	return sheetmap.Label{}
}

// centered returns the w×h rectangle centered on c.
func centered(c sheetmap.Point, w, h float64) sheetmap.Rect {
	return sheetmap.RectFromSize(c.Add(-w/2, -h/2), w, h)
}

// pointCandidates returns the six positions around anchor: right, left,
// upper-right, lower-right, upper-left, lower-left.
func pointCandidates(a sheetmap.Point, w, h, gap float64) []sheetmap.Rect {
	return []sheetmap.Rect{
		sheetmap.RectFromSize(a.Add(gap, -h/2), w, h),
		sheetmap.RectFromSize(a.Add(-gap-w, -h/2), w, h),
		sheetmap.RectFromSize(a.Add(gap, -gap-h), w, h),
		sheetmap.RectFromSize(a.Add(gap, gap), w, h),
		sheetmap.RectFromSize(a.Add(-gap-w, -gap-h), w, h),
		sheetmap.RectFromSize(a.Add(-gap-w, gap), w, h),
	}
}

func (pl *Placer) placePoint(p *sheetmap.PointFeature) {
	if p.Attribute == "" {
		return
	}
	anchor := pl.view.ToScreen(p.Location)
	w, h := pl.measure.Measure(p.Attribute, pl.opts.PointSize)

	if _, taken := pl.used[anchor]; !taken && len(pl.index.QueryPoint(anchor)) == 0 {
		for _, r := range pointCandidates(anchor, w, h, pl.opts.Gap) {
			if !pl.fits(r) {
				continue
			}
			p.Label = pl.commit(KindPoint, p.ID, p.Attribute, r, pl.opts.PointSize, p)
			pl.used[anchor] = struct{}{}
			if rad := pl.opts.ExclusionRadius; rad > 0 {
				pl.index.Insert(centered(anchor, 2*rad, 2*rad), spatial.KindExclusion, p)
			}
			return
		}
	}
	p.Label = pl.suppress()
}

func (pl *Placer) placeInterior(p *sheetmap.Polygon) {
	if p.Attribute == "" {
		return
	}
	w, h := pl.measure.Measure(p.Attribute, pl.opts.InteriorSize)
	r := centered(pl.view.ToScreen(p.Representative), w, h)
	if pl.fits(r) {
		p.Label = pl.commit(KindInterior, p.ID, p.Attribute, r, pl.opts.InteriorSize, p)
		return
	}
	p.Label = pl.suppress()
}

// townCandidates returns the centered rectangle followed by north, south,
// east and west offsets at four increasing steps. Each step is a quarter of
// the slack left between the label and the polygon's bounding box.
func townCandidates(center sheetmap.Point, bbox sheetmap.Rect, w, h float64) []sheetmap.Rect {
	slackX := math.Max(0, (bbox.Width()-w)/2)
	slackY := math.Max(0, (bbox.Height()-h)/2)

	out := []sheetmap.Rect{centered(center, w, h)}
	for k := 1; k <= 4; k++ {
		dx := float64(k) * slackX / 4
		dy := float64(k) * slackY / 4
		out = append(out,
			centered(center.Add(0, -dy), w, h),
			centered(center.Add(0, dy), w, h),
			centered(center.Add(dx, 0), w, h),
			centered(center.Add(-dx, 0), w, h),
		)
	}
	return out
}

func (pl *Placer) placeTown(p *sheetmap.Polygon) {
	if p.Attribute == "" {
		return
	}
	center := pl.view.ToScreen(p.Representative)
	bbox := pl.view.RectToScreen(p.Bounds())

	for _, size := range pl.opts.TownSizes {
		if size <= 0 {
			continue
		}
		w, h := pl.measure.Measure(p.Attribute, size)
		if pl.opts.RequireFit && bbox.Width() < w {
			continue
		}
		for _, r := range townCandidates(center, bbox, w, h) {
			if !pl.fits(r) {
				continue
			}
			p.Label = pl.commit(KindTown, p.ID, p.Attribute, r, size, p)
			p.ReadingLabel = pl.placeReading(p, r)
			return
		}
	}
	p.Label = pl.suppress()
	p.ReadingLabel = sheetmap.Label{}
}

// placeReading stacks the phonetic reading directly above the main label.
func (pl *Placer) placeReading(p *sheetmap.Polygon, main sheetmap.Rect) sheetmap.Label {
	if p.Reading == "" {
		return sheetmap.Label{}
	}
	size := pl.opts.ReadingSize
	w, h := pl.measure.Measure(p.Reading, size)
	minX := main.MinX + (main.Width()-w)/2
	r := sheetmap.Rect{MinX: minX, MinY: main.MinY - h, MaxX: minX + w, MaxY: main.MinY}
	if pl.fits(r) {
		return pl.commit(KindReading, p.ID, p.Reading, r, size, p)
	}
	return sheetmap.Label{}
}

// placeLine walks the arc's vertices and commits at the first one whose
// centered rectangle fits. Text already placed for another fragment in
// this cycle is skipped.
func (pl *Placer) placeLine(a *sheetmap.Arc, placedText map[string]struct{}) {
	if a.Attribute == "" {
		return
	}
	if _, done := placedText[a.Attribute]; done {
		a.Label = sheetmap.Label{}
		return
	}
	w, h := pl.measure.Measure(a.Attribute, pl.opts.LineSize)
	for _, v := range a.Points {
		r := centered(pl.view.ToScreen(v), w, h)
		if pl.fits(r) {
			a.Label = pl.commit(KindLine, a.ID, a.Attribute, r, pl.opts.LineSize, a)
			placedText[a.Attribute] = struct{}{}
			return
		}
	}
	a.Label = pl.suppress()
}
