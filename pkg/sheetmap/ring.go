package sheetmap

import (
	"github.com/ctessum/geom"
)

// indexPolygon assembles a polygon's area from its arcs and records its
// membership and boundary edges.
func (t *Tile) indexPolygon(l Layer, p *Polygon) error {
	var err error
	if len(p.Arcs) > 0 {
		arcs := make([]*Arc, 0, len(p.Arcs))
		for _, arcID := range p.Arcs {
			a := t.arc(l, arcID)
			if a == nil {
				err = &ErrBrokenRing{TileID: t.ID, PolygonID: p.ID, ArcID: arcID, Reason: "arc not loaded"}
				continue
			}
			arcs = append(arcs, a)

			owners := t.members[arcID]
			if owners == nil {
				owners = make(map[int64]struct{})
				t.members[arcID] = owners
			}
			owners[p.ID] = struct{}{}

			if a.Tag == TagEdgeOfMap {
				for i := 0; i+1 < len(a.Points); i++ {
					t.RegisterEdge(a.Points[i], a.Points[i+1], p.ID)
				}
			}
		}

		if len(p.Area) == 0 && len(arcs) > 0 {
			area, ringErr := buildRings(arcs)
			if ringErr != "" && err == nil {
				err = &ErrBrokenRing{TileID: t.ID, PolygonID: p.ID, Reason: ringErr}
			}
			p.Area = area
		}
	}

	if p.Representative.IsZero() {
		if !p.Centroid.IsZero() {
			p.Representative = p.Centroid
		} else if b := p.Bounds(); !b.IsEmpty() {
			p.Representative = b.Center()
		}
	}
	return err
}

// buildRings chains arcs into closed rings in list order.
//
// Each arc is appended in whichever direction continues the current ring;
// the shared vertex is not duplicated. When the ring closes, the next arc
// starts a new ring (islands and holes). A ring left open is closed
// implicitly and reported.
func buildRings(arcs []*Arc) (geom.Polygon, string) {
	var (
		area    geom.Polygon
		ring    []Point
		inRing  int // arcs appended to the current ring
		problem string
	)

	for _, a := range arcs {
		pts := a.Points
		if len(pts) == 0 {
			continue
		}

		if len(ring) == 0 {
			ring = append(ring, pts...)
		} else {
			end := ring[len(ring)-1]
			switch {
			case end == pts[0]:
				ring = append(ring, pts[1:]...)
			case end == pts[len(pts)-1]:
				ring = append(ring, a.Reversed()[1:]...)
			case inRing == 1 && ring[0] == pts[0]:
				// The opening arc runs the other way.
				ring = append(reversePoints(ring), pts[1:]...)
			case inRing == 1 && ring[0] == pts[len(pts)-1]:
				ring = append(reversePoints(ring), a.Reversed()[1:]...)
			default:
				problem = "arcs do not connect"
				ring = append(ring, pts...)
			}
		}
		inRing++

		if len(ring) > 2 && ring[0] == ring[len(ring)-1] {
			area = append(area, toPath(ring))
			ring = nil
			inRing = 0
		}
	}

	if len(ring) > 0 {
		if len(ring) > 2 {
			if problem == "" {
				problem = "ring not closed"
			}
			area = append(area, toPath(ring))
		} else if problem == "" {
			problem = "degenerate ring"
		}
	}
	return area, problem
}

func reversePoints(pts []Point) []Point {
	out := make([]Point, len(pts))
	for i, p := range pts {
		out[len(pts)-1-i] = p
	}
	return out
}
