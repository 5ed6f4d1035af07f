package spatial

import (
	"testing"

	"github.com/beetlebugorg/sheetmap/pkg/sheetmap"
)

func rect(minX, minY, maxX, maxY float64) sheetmap.Rect {
	return sheetmap.Rect{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
}

func TestIndexQuery(t *testing.T) {
	idx := New()
	idx.Insert(rect(0, 0, 10, 10), KindLabel, "a")
	idx.Insert(rect(20, 20, 30, 25), KindLabel, "b")

	tests := []struct {
		name   string
		window sheetmap.Rect
		want   int
	}{
		{"overlap first", rect(5, 5, 15, 15), 1},
		{"overlap both", rect(5, 5, 25, 22), 2},
		{"touching edge", rect(10, 0, 20, 10), 0},
		{"disjoint", rect(40, 40, 50, 50), 0},
		{"degenerate inside", rect(2, 2, 2, 8), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := idx.Query(tt.window); len(got) != tt.want {
				t.Errorf("Query(%v) returned %d entries, want %d", tt.window, len(got), tt.want)
			}
		})
	}
}

func TestIndexCollides(t *testing.T) {
	idx := New()
	idx.Insert(rect(0, 0, 10, 10), KindLabel, "a")

	if !idx.Collides(rect(5, 5, 6, 6), nil) {
		t.Error("nil owner should collide with any entry")
	}
	if !idx.Collides(rect(5, 5, 6, 6), "b") {
		t.Error("different owner should collide")
	}
	if idx.Collides(rect(5, 5, 6, 6), "a") {
		t.Error("an owner's own entries should not collide")
	}
}

func TestIndexQueryPoint(t *testing.T) {
	idx := New()
	idx.Insert(rect(0, 0, 10, 10), KindExclusion, 1)

	tests := []struct {
		name string
		p    sheetmap.Point
		want int
	}{
		{"inside", sheetmap.Point{X: 5, Y: 5}, 1},
		{"on edge", sheetmap.Point{X: 10, Y: 5}, 1},
		{"corner", sheetmap.Point{X: 0, Y: 0}, 1},
		{"outside", sheetmap.Point{X: 10.5, Y: 5}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := idx.QueryPoint(tt.p); len(got) != tt.want {
				t.Errorf("QueryPoint(%v) returned %d entries, want %d", tt.p, len(got), tt.want)
			}
		})
	}
}

func TestIndexReset(t *testing.T) {
	idx := New()
	for i := 0; i < 100; i++ {
		x := float64(i * 20)
		idx.Insert(rect(x, 0, x+10, 10), KindLabel, i)
	}
	if idx.Len() != 100 {
		t.Fatalf("Len() = %d, want 100", idx.Len())
	}
	if got := idx.Query(rect(0, 0, 2000, 10)); len(got) != 100 {
		t.Errorf("Query() over everything returned %d entries, want 100", len(got))
	}

	idx.Reset()
	if idx.Len() != 0 || len(idx.Query(rect(0, 0, 2000, 10))) != 0 {
		t.Error("Reset() should discard every entry")
	}
}

func BenchmarkIndexInsertQuery(b *testing.B) {
	for i := 0; i < b.N; i++ {
		idx := New()
		for j := 0; j < 1000; j++ {
			x := float64(j%40) * 25
			y := float64(j/40) * 15
			r := rect(x, y, x+20, y+12)
			if !idx.Collides(r, nil) {
				idx.Insert(r, KindLabel, j)
			}
		}
	}
}
