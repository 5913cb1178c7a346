package levels

// disjointSet is a union-find structure over value indexes.
type disjointSet struct {
	parent []int
	size   []int
}

func newDisjointSet(n int) *disjointSet {
	ds := &disjointSet{parent: make([]int, n), size: make([]int, n)}
	for i := range ds.parent {
		ds.parent[i] = i
		ds.size[i] = 1
	}
	return ds
}

func (ds *disjointSet) find(i int) int {
	for ds.parent[i] != i {
		ds.parent[i] = ds.parent[ds.parent[i]]
		i = ds.parent[i]
	}
	return i
}

func (ds *disjointSet) union(a, b int) {
	ra, rb := ds.find(a), ds.find(b)
	if ra == rb {
		return
	}
	if ds.size[ra] < ds.size[rb] {
		ra, rb = rb, ra
	}
	ds.parent[rb] = ra
	ds.size[ra] += ds.size[rb]
}

// unionFindClusters groups values into connected components where an edge
// joins i < j when values[j] is within tol of values[i]. Components are
// returned in order of their lowest index.
func unionFindClusters(values []float64, tol float64, minTouches int) []candidate {
	ds := newDisjointSet(len(values))
	for i := range values {
		for j := i + 1; j < len(values); j++ {
			if within(values[i], values[j], tol) {
				ds.union(i, j)
			}
		}
	}

	order := make([]int, 0)
	sums := make(map[int]float64)
	counts := make(map[int]int)
	for i, v := range values {
		root := ds.find(i)
		if _, seen := counts[root]; !seen {
			order = append(order, root)
		}
		sums[root] += v
		counts[root]++
	}

	var out []candidate
	for _, root := range order {
		if counts[root] >= minTouches {
			out = append(out, candidate{price: sums[root] / float64(counts[root]), touches: counts[root]})
		}
	}
	return out
}
