package stitch

import (
	"sort"

	"github.com/beetlebugorg/sheetmap/pkg/sheetmap"
)

// disjointSet is a union-find forest over polygon keys with union by rank
// and path compression.
type disjointSet struct {
	parent map[sheetmap.Key]sheetmap.Key
	rank   map[sheetmap.Key]int
}

func newDisjointSet() *disjointSet {
	return &disjointSet{
		parent: make(map[sheetmap.Key]sheetmap.Key),
		rank:   make(map[sheetmap.Key]int),
	}
}

func (d *disjointSet) add(k sheetmap.Key) {
	if _, ok := d.parent[k]; !ok {
		d.parent[k] = k
	}
}

func (d *disjointSet) find(k sheetmap.Key) sheetmap.Key {
	d.add(k)
	root := k
	for d.parent[root] != root {
		root = d.parent[root]
	}
	for d.parent[k] != root {
		next := d.parent[k]
		d.parent[k] = root
		k = next
	}
	return root
}

func (d *disjointSet) union(a, b sheetmap.Key) {
	ra, rb := d.find(a), d.find(b)
	if ra == rb {
		return
	}
	switch {
	case d.rank[ra] < d.rank[rb]:
		d.parent[ra] = rb
	case d.rank[ra] > d.rank[rb]:
		d.parent[rb] = ra
	default:
		d.parent[rb] = ra
		d.rank[ra]++
	}
}

// groups returns every set with more than one member. Members are sorted
// by key and groups by their smallest member.
func (d *disjointSet) groups() [][]sheetmap.Key {
	byRoot := make(map[sheetmap.Key][]sheetmap.Key)
	for k := range d.parent {
		r := d.find(k)
		byRoot[r] = append(byRoot[r], k)
	}

	var out [][]sheetmap.Key
	for _, members := range byRoot {
		if len(members) < 2 {
			continue
		}
		sort.Slice(members, func(i, j int) bool { return members[i].Less(members[j]) })
		out = append(out, members)
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0].Less(out[j][0]) })
	return out
}
