// Package colorer assigns fill colors to town-section polygons so that no two
// neighbors in the adjacency graph share a color, while polygons that carry
// the same attribute text always do.
//
// Colors come from a seven-slot palette (1..7). When every slot is taken by a
// neighbor the polygon receives sheetmap.ColorConflict (8); two neighbors with
// color 8 are tolerated. Chosen colors are written to a colorcache.Store and
// read back on later runs so the map keeps its colors across sessions; the
// store is advisory and the current adjacency graph always wins.
package colorer

import (
	"context"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/beetlebugorg/sheetmap/pkg/colorcache"
	"github.com/beetlebugorg/sheetmap/pkg/sheetmap"
)

// Result summarizes one coloring pass.
type Result struct {
	Polygons int // Town-section polygons considered
	Primed   int // Polygons colored from the cache
	Assigned int // Polygons colored by the greedy pass
	Escaped  int // Polygons that received ColorConflict
}

// Colorer runs cache priming and greedy coloring.
type Colorer struct {
	store  colorcache.Store
	logger *log.Logger
}

// New creates a colorer. A nil store disables persistence; a nil logger
// falls back to log.Default().
func New(store colorcache.Store, logger *log.Logger) *Colorer {
	if store == nil {
		store = colorcache.NewNullStore()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Colorer{store: store, logger: logger}
}

// graph is the coloring view of the visible town sections. Polygons are
// keyed by sheet and id.
type graph struct {
	polys    []*sheetmap.Polygon
	byKey    map[sheetmap.Key]*sheetmap.Polygon
	adj      map[sheetmap.Key]map[sheetmap.Key]struct{}
	siblings map[string][]*sheetmap.Polygon
}

func newGraph(tiles []*sheetmap.Tile) *graph {
	g := &graph{
		polys:    sheetmap.Polygons(tiles, sheetmap.TownSection),
		byKey:    make(map[sheetmap.Key]*sheetmap.Polygon),
		adj:      sheetmap.Adjacency(tiles, sheetmap.TownSection),
		siblings: make(map[string][]*sheetmap.Polygon),
	}
	for _, p := range g.polys {
		g.byKey[p.Key()] = p
		if p.Attribute != "" {
			g.siblings[p.Attribute] = append(g.siblings[p.Attribute], p)
		}
	}
	return g
}

// group returns p together with every polygon sharing its attribute text.
func (g *graph) group(p *sheetmap.Polygon) []*sheetmap.Polygon {
	if p.Attribute == "" {
		return []*sheetmap.Polygon{p}
	}
	return g.siblings[p.Attribute]
}

// neighborColors collects the colors of polygons adjacent to any member of
// the group, ignoring members themselves.
func (g *graph) neighborColors(group []*sheetmap.Polygon) map[int]struct{} {
	in := make(map[sheetmap.Key]struct{}, len(group))
	for _, m := range group {
		in[m.Key()] = struct{}{}
	}
	used := make(map[int]struct{})
	for _, m := range group {
		for n := range g.adj[m.Key()] {
			if _, ok := in[n]; ok {
				continue
			}
			if q := g.byKey[n]; q != nil && q.Colored() {
				used[q.ColorIndex] = struct{}{}
			}
		}
	}
	return used
}

// uncoloredNeighbors returns the uncolored neighbors of the group in descending key
// order, so that pushing them onto a stack visits the smallest key first.
func (g *graph) uncoloredNeighbors(group []*sheetmap.Polygon) []*sheetmap.Polygon {
	seen := make(map[sheetmap.Key]struct{})
	var out []*sheetmap.Polygon
	for _, m := range group {
		for n := range g.adj[m.Key()] {
			q := g.byKey[n]
			if q == nil || q.Colored() {
				continue
			}
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[j].Key().Less(out[i].Key()) })
	return out
}

// Run colors the town sections of the tiles that intersect viewport.
func (c *Colorer) Run(ctx context.Context, ts *sheetmap.TileSet, viewport sheetmap.Rect) Result {
	g := newGraph(ts.Visible(viewport))
	res := Result{Polygons: len(g.polys)}

	res.Primed = c.prime(ctx, g)

	for _, p := range g.polys {
		if p.Colored() {
			continue
		}
		stack := []*sheetmap.Polygon{p}
		for len(stack) > 0 {
			q := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if q.Colored() {
				continue
			}

			group := g.group(q)
			color := choose(group, g.neighborColors(group))
			for _, m := range group {
				if !m.Colored() {
					res.Assigned++
					if color == sheetmap.ColorConflict {
						res.Escaped++
					}
				}
				m.ColorIndex = color
				c.persist(ctx, m, color)
			}

			stack = append(stack, g.uncoloredNeighbors(group)...)
		}
	}

	c.logger.Debug("colored town sections",
		"polygons", res.Polygons, "primed", res.Primed,
		"assigned", res.Assigned, "escaped", res.Escaped)
	return res
}

// prime loads cached colors and propagates them to attribute siblings.
// A cached color already held by a colored neighbor of the group is
// rejected; the greedy pass will choose a fresh one.
func (c *Colorer) prime(ctx context.Context, g *graph) int {
	primed := 0
	for _, p := range g.polys {
		if p.Colored() {
			continue
		}
		color, ok, err := c.store.Get(ctx, p.ID, p.Attribute)
		if err != nil {
			c.logger.Debug("color cache read failed", "polygon", p.ID, "err", err)
			continue
		}
		if !ok || color < 1 || color > sheetmap.ColorConflict {
			continue
		}

		group := g.group(p)
		if color != sheetmap.ColorConflict {
			if _, taken := g.neighborColors(group)[color]; taken {
				c.logger.Debug("cached color conflicts with neighbor",
					"polygon", p.ID, "attribute", p.Attribute, "color", color)
				continue
			}
		}
		for _, m := range group {
			if !m.Colored() {
				m.ColorIndex = color
				primed++
			}
		}
	}
	return primed
}

// persist appends the color to the store, logging a differing cached value.
func (c *Colorer) persist(ctx context.Context, p *sheetmap.Polygon, color int) {
	prev, ok, err := c.store.Get(ctx, p.ID, p.Attribute)
	if err != nil {
		c.logger.Debug("color cache read failed", "polygon", p.ID, "err", err)
	} else if ok {
		if prev == color {
			return
		}
		c.logger.Warn("color cache discrepancy",
			"polygon", p.ID, "attribute", p.Attribute, "cached", prev, "assigned", color)
	}
	if err := c.store.Append(ctx, p.ID, p.Attribute, color); err != nil {
		c.logger.Debug("color cache write failed", "polygon", p.ID, "err", err)
	}
}

// choose keeps a color already held by a member of the group when no
// neighbor uses it, and otherwise picks a fresh one.
func choose(group []*sheetmap.Polygon, used map[int]struct{}) int {
	for _, m := range group {
		if !m.Colored() || m.ColorIndex == sheetmap.ColorConflict {
			continue
		}
		if _, taken := used[m.ColorIndex]; !taken {
			return m.ColorIndex
		}
	}
	return pick(used)
}

// pick returns the smallest palette slot not in used, or ColorConflict.
func pick(used map[int]struct{}) int {
	for color := 1; color <= sheetmap.ColorMax; color++ {
		if _, ok := used[color]; !ok {
			return color
		}
	}
	return sheetmap.ColorConflict
}

// Violation is a pair of neighbors that share a regular palette color.
type Violation struct {
	A, B  sheetmap.Key
	Color int
}

// Violations lists neighbor pairs that share a color other than
// ColorConflict. Neighbors with equal attribute text are one logical feature
// and are not reported.
func Violations(tiles []*sheetmap.Tile) []Violation {
	g := newGraph(tiles)
	var out []Violation
	for _, p := range g.polys {
		for n := range g.adj[p.Key()] {
			if !p.Key().Less(n) {
				continue
			}
			q := g.byKey[n]
			if q == nil || !p.Colored() || p.ColorIndex != q.ColorIndex {
				continue
			}
			if p.ColorIndex == sheetmap.ColorConflict {
				continue
			}
			if p.Attribute != "" && p.Attribute == q.Attribute {
				continue
			}
			out = append(out, Violation{A: p.Key(), B: q.Key(), Color: p.ColorIndex})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].A != out[j].A {
			return out[i].A.Less(out[j].A)
		}
		return out[i].B.Less(out[j].B)
	})
	return out
}
