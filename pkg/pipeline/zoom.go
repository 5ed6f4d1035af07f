package pipeline

import (
	"fmt"

	"github.com/beetlebugorg/sheetmap/pkg/sheetmap"
)

// Thresholds gives the minimum zoom level at which each layer is loaded.
// Layers missing from the map are always loaded.
type Thresholds map[sheetmap.Layer]int

// DefaultThresholds returns the zoom levels used by the renderer: outlines
// and stations at every zoom, the street network from 14 and buildings
// from 16.
func DefaultThresholds() Thresholds {
	return Thresholds{
		sheetmap.LayerAdministrative: 0,
		sheetmap.LayerTownSection:    0,
		sheetmap.LayerWater:          0,
		sheetmap.LayerStation:        0,
		sheetmap.LayerGround:         12,
		sheetmap.LayerRail:           12,
		sheetmap.LayerRoad:           14,
		sheetmap.LayerBuilding:       16,
	}
}

// Wants reports whether layer l should be loaded at zoom.
func (t Thresholds) Wants(l sheetmap.Layer, zoom int) bool {
	floor, ok := t[l]
	return !ok || zoom >= floor
}

// ParseThresholds converts layer names, as written in config files, to
// thresholds. Names not listed keep their defaults.
func ParseThresholds(named map[string]int) (Thresholds, error) {
	t := DefaultThresholds()
	for name, zoom := range named {
		l, ok := sheetmap.ParseLayer(name)
		if !ok {
			return nil, fmt.Errorf("unknown layer %q", name)
		}
		if zoom < 0 {
			return nil, fmt.Errorf("layer %s: negative zoom %d", name, zoom)
		}
		t[l] = zoom
	}
	return t, nil
}
