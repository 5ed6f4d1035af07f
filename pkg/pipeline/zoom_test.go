package pipeline

import (
	"testing"

	"github.com/beetlebugorg/sheetmap/pkg/sheetmap"
)

func TestThresholdsWants(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		layer sheetmap.Layer
		zoom  int
		want  bool
	}{
		{sheetmap.LayerTownSection, 0, true},
		{sheetmap.LayerBuilding, 15, false},
		{sheetmap.LayerBuilding, 16, true},
		{sheetmap.LayerRoad, 13, false},
		{sheetmap.LayerRoad, 14, true},
		{sheetmap.LayerRail, 12, true},
	}

	for _, tt := range tests {
		if got := th.Wants(tt.layer, tt.zoom); got != tt.want {
			t.Errorf("Wants(%s, %d) = %v, want %v", tt.layer, tt.zoom, got, tt.want)
		}
	}

	if !(Thresholds{}).Wants(sheetmap.LayerBuilding, 0) {
		t.Error("a layer without a threshold should always load")
	}
}

func TestParseThresholds(t *testing.T) {
	tests := []struct {
		name    string
		in      map[string]int
		check   sheetmap.Layer
		want    int
		wantErr bool
	}{
		{"empty keeps defaults", nil, sheetmap.LayerBuilding, 16, false},
		{"override", map[string]int{"building": 13}, sheetmap.LayerBuilding, 13, false},
		{"unknown layer", map[string]int{"buildings": 13}, 0, 0, true},
		{"negative zoom", map[string]int{"road": -1}, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseThresholds(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseThresholds() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && got[tt.check] != tt.want {
				t.Errorf("threshold for %s = %d, want %d", tt.check, got[tt.check], tt.want)
			}
		})
	}
}

func TestSnapshotNewer(t *testing.T) {
	a := &Snapshot{Seq: 1}
	b := &Snapshot{Seq: 2}

	if !a.Newer(nil) {
		t.Error("any snapshot is newer than nil")
	}
	if !b.Newer(a) || a.Newer(b) || a.Newer(a) {
		t.Error("Newer should order by sequence number")
	}
}
