package medial

// Chains returns the kept skeleton edges as maximal vertex runs:
// every chain starts and ends at a tip or junction, passing only
// through degree-2 vertices. A chain that is a closed loop comes back
// around with its first vertex repeated at the end.
func (s *Skeleton) Chains() [][]VertexIndex {
	visited := make([]bool, len(s.Edges))
	var chains [][]VertexIndex

	for vi := range s.Vertices {
		if len(s.adj[vi]) == 2 || len(s.adj[vi]) == 0 {
			continue
		}
		for _, ei := range s.adj[vi] {
			if !visited[ei] {
				chains = append(chains, s.walk(VertexIndex(vi), ei, visited))
			}
		}
	}

	// What remains are pure cycles of degree-2 vertices.
	for ei, e := range s.Edges {
		if e.Pruned || visited[ei] {
			continue
		}
		chains = append(chains, s.walk(e.A, EdgeIndex(ei), visited))
	}
	return chains
}

func (s *Skeleton) walk(start VertexIndex, first EdgeIndex, visited []bool) []VertexIndex {
	chain := []VertexIndex{start}
	v := start
	e := first
	for {
		visited[e] = true
		edge := s.Edges[e]
		if v == edge.A {
			v = edge.B
		} else {
			v = edge.A
		}
		chain = append(chain, v)
		if len(s.adj[v]) != 2 {
			break
		}
		next := s.adj[v][0]
		if next == e {
			next = s.adj[v][1]
		}
		if visited[next] {
			break
		}
		e = next
	}
	return chain
}
