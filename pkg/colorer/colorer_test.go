package colorer

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/beetlebugorg/sheetmap/internal/sheettest"
	"github.com/beetlebugorg/sheetmap/pkg/colorcache"
	"github.com/beetlebugorg/sheetmap/pkg/sheetmap"
)

var (
	R = sheettest.R
	P = sheettest.P
)

func quiet() *log.Logger {
	return log.New(io.Discard)
}

// pinwheel returns a sheet with three mutually adjacent town sections.
func pinwheel(attrs ...string) *sheettest.Sheet {
	c, a, b, d := P(5, 5), P(0, 0), P(10, 0), P(5, 10)
	return sheettest.NewSheet(1, R(0, 0, 10, 10)).
		Ring(1, sheetmap.TownSection, attrs[0], a, b, c).
		Ring(2, sheetmap.TownSection, attrs[1], b, d, c).
		Ring(3, sheetmap.TownSection, attrs[2], d, a, c)
}

// row returns a sheet with town sections laid side by side, each adjacent
// to the next.
func row(attrs ...string) *sheettest.Sheet {
	s := sheettest.NewSheet(1, R(0, 0, float64(10*len(attrs)), 10))
	for i, a := range attrs {
		x := float64(10 * i)
		s.Town(int64(i+1), a, R(x, 0, x+10, 10))
	}
	return s
}

func build(t *testing.T, sheets ...*sheettest.Sheet) *sheetmap.TileSet {
	t.Helper()
	ts, err := sheettest.TileSet(sheets...)
	if err != nil {
		t.Fatalf("build tiles: %v", err)
	}
	return ts
}

func colors(t *testing.T, ts *sheetmap.TileSet) map[int64]int {
	t.Helper()
	out := make(map[int64]int)
	for _, p := range sheetmap.Polygons(ts.Sorted(), sheetmap.TownSection) {
		out[p.ID] = p.ColorIndex
	}
	return out
}

func TestTriangleGetsThreeColors(t *testing.T) {
	ts := build(t, pinwheel("A", "B", "C"))
	adj := sheetmap.Adjacency(ts.Sorted(), sheetmap.TownSection)
	k := func(id int64) sheetmap.Key { return sheetmap.Key{Tile: 1, ID: id} }
	if len(adj[k(1)]) != 2 || len(adj[k(2)]) != 2 || len(adj[k(3)]) != 2 {
		t.Fatalf("pinwheel should be a triangle, adjacency = %v", adj)
	}

	res := New(nil, quiet()).Run(context.Background(), ts, R(0, 0, 10, 10))

	got := colors(t, ts)
	want := map[int64]int{1: 1, 2: 2, 3: 3}
	for id, c := range want {
		if got[id] != c {
			t.Errorf("polygon %d color = %d, want %d", id, got[id], c)
		}
	}
	if res.Assigned != 3 || res.Escaped != 0 {
		t.Errorf("Result = %+v, want 3 assigned and none escaped", res)
	}
	if v := Violations(ts.Sorted()); len(v) != 0 {
		t.Errorf("Violations() = %v, want none", v)
	}
}

func TestReusedIDsAcrossSheets(t *testing.T) {
	// Both sheets number their sections 1 and 2.
	ts := build(t,
		sheettest.NewSheet(1, R(0, 0, 20, 10)).
			Town(1, "A", R(0, 0, 10, 10)).
			Town(2, "B", R(10, 0, 20, 10)),
		sheettest.NewSheet(2, R(20, 0, 40, 10)).
			Town(1, "C", R(20, 0, 30, 10)).
			Town(2, "D", R(30, 0, 40, 10)),
	)

	res := New(nil, quiet()).Run(context.Background(), ts, R(0, 0, 40, 10))
	if res.Polygons != 4 || res.Assigned != 4 {
		t.Fatalf("Result = %+v, want 4 polygons assigned", res)
	}
	for _, tileID := range []int{1, 2} {
		tile, err := ts.Tile(tileID)
		if err != nil {
			t.Fatal(err)
		}
		a, b := tile.Polygon(1), tile.Polygon(2)
		if !a.Colored() || !b.Colored() || a.ColorIndex == b.ColorIndex {
			t.Errorf("tile %d colors = %d and %d, want two distinct slots", tileID, a.ColorIndex, b.ColorIndex)
		}
	}
	if v := Violations(ts.Sorted()); len(v) != 0 {
		t.Errorf("Violations() = %v, want none", v)
	}
}

func TestAttributeSiblingsShareColor(t *testing.T) {
	ts := build(t, row("X", "Y", "X", "Z"))

	New(nil, quiet()).Run(context.Background(), ts, R(0, 0, 40, 10))

	got := colors(t, ts)
	if got[1] != got[3] {
		t.Errorf("siblings 1 and 3 colors = %d and %d, want equal", got[1], got[3])
	}
	for id, c := range got {
		if c < 1 || c > sheetmap.ColorMax {
			t.Errorf("polygon %d color = %d, want a palette slot", id, c)
		}
	}
	if v := Violations(ts.Sorted()); len(v) != 0 {
		t.Errorf("Violations() = %v, want none", v)
	}
}

func TestAdjacentSiblingsAreOneFeature(t *testing.T) {
	ts := build(t, row("X", "X", "Y"))

	New(nil, quiet()).Run(context.Background(), ts, R(0, 0, 30, 10))

	got := colors(t, ts)
	if got[1] != got[2] {
		t.Errorf("adjacent siblings colors = %d and %d, want equal", got[1], got[2])
	}
	if got[3] == got[2] {
		t.Errorf("polygon 3 shares color %d with its neighbor", got[3])
	}
	if v := Violations(ts.Sorted()); len(v) != 0 {
		t.Errorf("Violations() = %v, want none", v)
	}
}

func TestCachePriming(t *testing.T) {
	ctx := context.Background()
	store := colorcache.NewMemoryStore()
	if err := store.Append(ctx, 2, "B", 5); err != nil {
		t.Fatal(err)
	}

	ts := build(t, pinwheel("A", "B", "C"))
	res := New(store, quiet()).Run(ctx, ts, R(0, 0, 10, 10))

	got := colors(t, ts)
	if got[2] != 5 {
		t.Errorf("polygon 2 color = %d, want cached 5", got[2])
	}
	if res.Primed != 1 || res.Assigned != 2 {
		t.Errorf("Result = %+v, want 1 primed and 2 assigned", res)
	}
	if v := Violations(ts.Sorted()); len(v) != 0 {
		t.Errorf("Violations() = %v, want none", v)
	}
}

func TestCacheKeyedByAttribute(t *testing.T) {
	ctx := context.Background()
	store := colorcache.NewMemoryStore()
	// A color recorded under an old name does not apply after a rename.
	if err := store.Append(ctx, 1, "Old name", 6); err != nil {
		t.Fatal(err)
	}

	ts := build(t, pinwheel("A", "B", "C"))
	res := New(store, quiet()).Run(ctx, ts, R(0, 0, 10, 10))

	if res.Primed != 0 {
		t.Errorf("Primed = %d, want 0", res.Primed)
	}
	if got := colors(t, ts)[1]; got != 1 {
		t.Errorf("polygon 1 color = %d, want 1", got)
	}
}

func TestStaleCacheConflictRejected(t *testing.T) {
	ctx := context.Background()
	store := colorcache.NewMemoryStore()
	// Both neighbors claim color 3.
	_ = store.Append(ctx, 1, "A", 3)
	_ = store.Append(ctx, 2, "B", 3)

	ts := build(t, pinwheel("A", "B", "C"))
	res := New(store, quiet()).Run(ctx, ts, R(0, 0, 10, 10))

	got := colors(t, ts)
	if got[1] != 3 {
		t.Errorf("polygon 1 color = %d, want cached 3", got[1])
	}
	if got[2] == 3 {
		t.Error("conflicting cached color for polygon 2 should be rejected")
	}
	if res.Primed != 1 {
		t.Errorf("Primed = %d, want 1", res.Primed)
	}
	if v := Violations(ts.Sorted()); len(v) != 0 {
		t.Errorf("Violations() = %v, want none", v)
	}
}

func TestColorsPersistAcrossRuns(t *testing.T) {
	ctx := context.Background()
	store := colorcache.NewMemoryStore()

	first := build(t, row("A", "B", "C", "D"))
	New(store, quiet()).Run(ctx, first, R(0, 0, 40, 10))
	want := colors(t, first)
	if store.Writes() != 4 {
		t.Errorf("Writes() = %d, want 4", store.Writes())
	}

	second := build(t, row("A", "B", "C", "D"))
	res := New(store, quiet()).Run(ctx, second, R(0, 0, 40, 10))
	if res.Primed != 4 || res.Assigned != 0 {
		t.Errorf("Result = %+v, want every polygon primed", res)
	}
	got := colors(t, second)
	for id, c := range want {
		if got[id] != c {
			t.Errorf("polygon %d color = %d after restart, want %d", id, got[id], c)
		}
	}
	if store.Writes() != 4 {
		t.Errorf("unchanged colors should not be rewritten, Writes() = %d", store.Writes())
	}
}

func TestRerunIsStable(t *testing.T) {
	ts := build(t, row("A", "B", "C"))
	c := New(nil, quiet())
	c.Run(context.Background(), ts, R(0, 0, 30, 10))
	before := colors(t, ts)

	res := c.Run(context.Background(), ts, R(0, 0, 30, 10))
	if res.Assigned != 0 {
		t.Errorf("second run assigned %d colors, want 0", res.Assigned)
	}
	after := colors(t, ts)
	for id, col := range before {
		if after[id] != col {
			t.Errorf("polygon %d changed color %d -> %d", id, col, after[id])
		}
	}
}

type failingStore struct{}

func (failingStore) Get(ctx context.Context, id int64, attribute string) (int, bool, error) {
	return 0, false, errors.New("unreachable")
}

func (failingStore) Append(ctx context.Context, id int64, attribute string, color int) error {
	return errors.New("unreachable")
}

func (failingStore) Close() error { return nil }

func TestStoreErrorsAreMisses(t *testing.T) {
	ts := build(t, pinwheel("A", "B", "C"))
	res := New(failingStore{}, quiet()).Run(context.Background(), ts, R(0, 0, 10, 10))

	if res.Assigned != 3 {
		t.Errorf("Assigned = %d, want 3", res.Assigned)
	}
	if v := Violations(ts.Sorted()); len(v) != 0 {
		t.Errorf("Violations() = %v, want none", v)
	}
}

func TestPick(t *testing.T) {
	set := func(colors ...int) map[int]struct{} {
		m := make(map[int]struct{})
		for _, c := range colors {
			m[c] = struct{}{}
		}
		return m
	}

	tests := []struct {
		name string
		used map[int]struct{}
		want int
	}{
		{"none used", set(), 1},
		{"gap", set(1, 2, 4), 3},
		{"conflict ignored", set(1, 8), 2},
		{"palette exhausted", set(1, 2, 3, 4, 5, 6, 7), sheetmap.ColorConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pick(tt.used); got != tt.want {
				t.Errorf("pick() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestViolationsToleratesConflictColor(t *testing.T) {
	ts := build(t, row("A", "B"))
	for _, p := range sheetmap.Polygons(ts.Sorted(), sheetmap.TownSection) {
		p.ColorIndex = sheetmap.ColorConflict
	}
	if v := Violations(ts.Sorted()); len(v) != 0 {
		t.Errorf("two neighbors with color 8 should be tolerated, got %v", v)
	}

	for _, p := range sheetmap.Polygons(ts.Sorted(), sheetmap.TownSection) {
		p.ColorIndex = 4
	}
	v := Violations(ts.Sorted())
	want := Violation{A: sheetmap.Key{Tile: 1, ID: 1}, B: sheetmap.Key{Tile: 1, ID: 2}, Color: 4}
	if len(v) != 1 || v[0] != want {
		t.Errorf("Violations() = %v, want [%v]", v, want)
	}
}
