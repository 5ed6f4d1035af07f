// Package sheetmap holds the data model shared by the tile reconciliation
// pipeline: planar points and rectangles, classified arcs, area polygons,
// point features, independently loadable map sheets ("tiles") and the tile set
// that groups them.
//
// A Tile owns per-layer maps of features. Layers are nil until loaded and can
// be freed independently. While a polygon layer is loaded the tile assembles
// each polygon's area from its constituent arcs, records which polygons own
// each arc (the membership index) and registers every edge-of-map segment in
// the edge registry so that the adjoining sheet can find its half of the same
// logical polygon.
//
// Example:
//
//	tile := sheetmap.NewTile(7, quad)
//	data := sheetmap.NewLayerData()
//	data.AddArc(&sheetmap.Arc{ID: 1, Class: sheetmap.ArcAdministrative, Points: pts})
//	data.AddPolygon(&sheetmap.Polygon{ID: 70001, Class: sheetmap.TownSection, Arcs: []int64{1}})
//	if err := tile.LoadLayer(sheetmap.LayerTownSection, data); err != nil {
//	    // broken rings are reported but the layer stays loaded
//	}
//	neighbors := tile.Adjacency()[70001]
package sheetmap
