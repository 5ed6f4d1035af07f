package sheetmap

import (
	"strconv"
	"strings"
)

// EdgeKey formats the key of a boundary segment running from a to b.
//
// The key is direction dependent; RegisterEdge inserts both directions so a
// neighboring sheet finds the segment regardless of its traversal order.
func EdgeKey(a, b Point) string {
	var sb strings.Builder
	sb.Grow(64)
	sb.WriteString(strconv.FormatFloat(a.X, 'f', -1, 64))
	sb.WriteByte(' ')
	sb.WriteString(strconv.FormatFloat(a.Y, 'f', -1, 64))
	sb.WriteByte(' ')
	sb.WriteString(strconv.FormatFloat(b.X, 'f', -1, 64))
	sb.WriteByte(' ')
	sb.WriteString(strconv.FormatFloat(b.Y, 'f', -1, 64))
	return sb.String()
}

// ParseEdgeKey recovers the segment endpoints from a key.
func ParseEdgeKey(key string) (Point, Point, error) {
	tokens := strings.Fields(key)
	if len(tokens) != 4 {
		return Point{}, Point{}, &ErrMalformedEdgeKey{
			Key:    key,
			Reason: "expected 4 tokens, got " + strconv.Itoa(len(tokens)),
		}
	}

	var v [4]float64
	for i, tok := range tokens {
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return Point{}, Point{}, &ErrMalformedEdgeKey{
				Key:    key,
				Reason: "token " + strconv.Itoa(i) + " is not a number",
			}
		}
		v[i] = f
	}
	return Point{X: v[0], Y: v[1]}, Point{X: v[2], Y: v[3]}, nil
}
