package sheetmap

import (
	"fmt"
)

// ErrMalformedEdgeKey indicates a boundary-segment key with the wrong token count
type ErrMalformedEdgeKey struct {
	Key    string
	Reason string
}

func (e *ErrMalformedEdgeKey) Error() string {
	return fmt.Sprintf("malformed edge key %q: %s", e.Key, e.Reason)
}

// ErrUnknownTile indicates a lookup for a tile id the set does not hold
type ErrUnknownTile struct {
	TileID int
}

func (e *ErrUnknownTile) Error() string {
	return fmt.Sprintf("unknown tile %d", e.TileID)
}

// ErrBrokenRing indicates a polygon whose arcs could not be assembled into rings
type ErrBrokenRing struct {
	TileID    int
	PolygonID int64
	ArcID     int64
	Reason    string
}

func (e *ErrBrokenRing) Error() string {
	if e.ArcID != 0 {
		return fmt.Sprintf("tile %d polygon %d: arc %d: %s", e.TileID, e.PolygonID, e.ArcID, e.Reason)
	}
	return fmt.Sprintf("tile %d polygon %d: %s", e.TileID, e.PolygonID, e.Reason)
}
