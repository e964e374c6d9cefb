package graph

// Stats summarizes the current shape of the graph, primarily for tests and
// observability — not consumed by the search/insert hot path.
type Stats struct {
	NumNodes    int
	MaxLevel    int
	NodesByTier []int // NodesByTier[l] = number of nodes present at layer l
}

// Stats computes a snapshot of the graph's layer distribution.
func (g *Graph) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()

	tiers := make([]int, g.maxLevel+1)
	for _, n := range g.nodes {
		for l := 0; l <= n.level && l < len(tiers); l++ {
			tiers[l]++
		}
	}

	return Stats{
		NumNodes:    len(g.nodes),
		MaxLevel:    g.maxLevel,
		NodesByTier: tiers,
	}
}
