package graph

import (
	"math"
	"math/rand"
	"sync"

	"github.com/bits-and-blooms/bitset"

	"github.com/atulRanaa/vector-db-book/distance"
)

// Options configures a Graph. Defaults match spec §4.2.
type Options struct {
	// M is the number of bidirectional links created per node at layers > 0.
	// Layer 0 gets 2*M (spec §4.2 M_max(0) = 2M).
	M int

	// EFConstruction is the beam width used while inserting.
	EFConstruction int

	// EFSearch is the default beam width used while querying.
	EFSearch int

	// Seed drives the deterministic level-sampling RNG stream (spec §4.2:
	// "a pseudo-random stream seeded at construction... seed is an exposed
	// configuration knob").
	Seed int64

	// Distance is the distance primitive (C1). Defaults to distance.SquaredL2.
	Distance distance.Func
}

// DefaultOptions returns spec-mandated defaults: M=16, ef_construction=200,
// ef_search=50.
func DefaultOptions() Options {
	return Options{
		M:              16,
		EFConstruction: 200,
		EFSearch:       50,
		Seed:           1,
		Distance:       distance.SquaredL2,
	}
}

// node is a single graph node: its vector and per-layer adjacency lists.
type node struct {
	vector      []float32
	connections [][]uint64 // connections[layer] = neighbor node IDs
	level       int
}

// Result is a single beam-search hit: a node ID and its distance to the
// query, in the metric's native (pre-sqrt) units.
type Result struct {
	NodeID   uint64
	Distance float32
}

// Graph is the navigable proximity graph index (C3 adjacency + C4
// insert/search protocol).
//
// Per spec §5, Insert is atomic end-to-end and serialized behind mu; Search
// holds mu only to read the entry point and traverses the graph without it —
// concurrent Search-during-Insert is explicitly undefined by the spec and
// left to callers.
type Graph struct {
	mu sync.Mutex

	dim   int
	mMax  int // M_max(ℓ>0)
	mMax0 int // M_max(0) = 2M
	mL    float64

	efConstruction int
	efSearch       int

	entryPoint    uint64
	hasEntryPoint bool
	maxLevel      int

	nodes []*node
	dist  distance.Func
	rng   *rand.Rand
}

// New constructs an empty Graph for vectors of the given dimension.
func New(dim int, opts Options) *Graph {
	m := opts.M
	if m < 1 {
		m = 1
	}
	// mL = 1/ln(M) is undefined for M=1; the graph degenerates toward a
	// spanning path (spec §8 boundary "M == 1: legal configuration"), so we
	// fall back to a level factor that always samples level 0.
	mL := 1.0
	if m > 1 {
		mL = 1.0 / math.Log(float64(m))
	} else {
		mL = 0
	}

	dist := opts.Distance
	if dist == nil {
		dist = distance.SquaredL2
	}

	return &Graph{
		dim:            dim,
		mMax:           m,
		mMax0:          2 * m,
		mL:             mL,
		efConstruction: opts.EFConstruction,
		efSearch:       opts.EFSearch,
		dist:           dist,
		rng:            rand.New(rand.NewSource(opts.Seed)),
	}
}

// Size returns the number of nodes ever inserted.
func (g *Graph) Size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.nodes)
}

// MaxLevel returns the current top layer L_max.
func (g *Graph) MaxLevel() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.maxLevel
}

func (g *Graph) mMaxFor(level int) int {
	if level == 0 {
		return g.mMax0
	}
	return g.mMax
}

// Insert adds vec to the graph and returns its dense node ID (spec §4.2
// insert). vec is copied; the caller's slice may be reused afterward.
func (g *Graph) Insert(vec []float32) (uint64, error) {
	if len(vec) != g.dim {
		return 0, &ErrDimensionMismatch{Expected: g.dim, Actual: len(vec)}
	}

	vecCopy := make([]float32, len(vec))
	copy(vecCopy, vec)

	g.mu.Lock()
	defer g.mu.Unlock()

	id := uint64(len(g.nodes))
	level := g.sampleLevel()

	n := &node{
		vector:      vecCopy,
		level:       level,
		connections: make([][]uint64, level+1),
	}
	g.nodes = append(g.nodes, n)

	if !g.hasEntryPoint {
		g.entryPoint = id
		g.hasEntryPoint = true
		g.maxLevel = level
		return id, nil
	}

	cur := g.entryPoint
	curDist, err := g.distanceTo(cur, vecCopy)
	if err != nil {
		return 0, err
	}

	// Phase 1: greedy descent from L_max down to level+1, ef=1.
	for l := g.maxLevel; l > level; l-- {
		best, bestDist, err := g.greedyStep(vecCopy, cur, curDist, l)
		if err != nil {
			return 0, err
		}
		cur, curDist = best, bestDist
	}

	// Phase 2: for layers [min(level, maxLevel)..0], beam search + link.
	top := level
	if g.maxLevel < top {
		top = g.maxLevel
	}
	for l := top; l >= 0; l-- {
		candidates, err := g.searchLayer(vecCopy, cur, curDist, g.efConstruction, l)
		if err != nil {
			return 0, err
		}

		mMax := g.mMaxFor(l)
		neighbors := selectNeighbors(candidates, mMax)

		for _, nb := range neighbors {
			g.addEdge(id, nb.node, l)
			g.addEdge(nb.node, id, l)
			if len(g.nodes[nb.node].connections[l]) > mMax {
				g.prune(nb.node, l, mMax)
			}
		}

		if len(candidates) > 0 {
			closest := candidates[0]
			cur, curDist = closest.node, closest.distance
		}
	}

	if level > g.maxLevel {
		g.entryPoint = id
		g.maxLevel = level
	}

	return id, nil
}

// sampleLevel draws L_node = floor(-ln(U) * mL), U ∈ (0,1) (spec §4.2 step 2).
func (g *Graph) sampleLevel() int {
	if g.mL == 0 {
		return 0
	}
	u := g.rng.Float64()
	for u == 0 {
		u = g.rng.Float64()
	}
	return int(math.Floor(-math.Log(u) * g.mL))
}

func (g *Graph) distanceTo(id uint64, q []float32) (float32, error) {
	if int(id) >= len(g.nodes) {
		return 0, &ErrCorruptIndex{NodeID: id, Count: len(g.nodes)}
	}
	return g.dist(q, g.nodes[id].vector), nil
}

// greedyStep performs one ef=1 descent step at layer l: repeatedly move to
// the closest neighbor of cur that is nearer than cur, until no neighbor is.
func (g *Graph) greedyStep(q []float32, cur uint64, curDist float32, l int) (uint64, float32, error) {
	improved := true
	for improved {
		improved = false
		if l >= len(g.nodes[cur].connections) {
			continue
		}
		for _, nb := range g.nodes[cur].connections[l] {
			d, err := g.distanceTo(nb, q)
			if err != nil {
				return 0, 0, err
			}
			if d < curDist {
				cur, curDist = nb, d
				improved = true
			}
		}
	}
	return cur, curDist, nil
}

// addEdge appends a forward edge; connections slices are grown lazily to
// cover the layer, since a node's connections array is sized to level+1 at
// creation and addEdge is also called for reverse edges onto existing nodes.
func (g *Graph) addEdge(from, to uint64, level int) {
	n := g.nodes[from]
	for len(n.connections) <= level {
		n.connections = append(n.connections, nil)
	}
	n.connections[level] = append(n.connections[level], to)
}

// searchLayer is the beam search primitive (spec §4.2). It returns up to ef
// results sorted ascending by distance.
func (g *Graph) searchLayer(q []float32, entry uint64, entryDist float32, ef int, level int) ([]item, error) {
	visited := &bitset.BitSet{}
	visited.Set(uint(entry))

	candidates := newCandidateQueue(false) // min-heap: expand closest first
	results := newCandidateQueue(true)     // max-heap: bound the top-ef set

	candidates.pushItem(entry, entryDist)
	results.pushItem(entry, entryDist)

	for candidates.Len() > 0 {
		c := candidates.popItem()
		if c.distance > results.top().distance {
			break
		}

		if level >= len(g.nodes[c.node].connections) {
			continue
		}
		for _, nb := range g.nodes[c.node].connections[level] {
			if visited.Test(uint(nb)) {
				continue
			}
			visited.Set(uint(nb))

			d, err := g.distanceTo(nb, q)
			if err != nil {
				return nil, err
			}

			farthest := results.top().distance
			if d < farthest || results.Len() < ef {
				candidates.pushItem(nb, d)
				results.pushItem(nb, d)
				if results.Len() > ef {
					results.popItem()
				}
			}
		}
	}

	return sortedAscending(results), nil
}

// selectNeighbors returns the M closest entries of candidates (spec §4.2
// baseline selector; candidates are already sorted ascending).
func selectNeighbors(candidates []item, m int) []item {
	if len(candidates) <= m {
		return candidates
	}
	return candidates[:m]
}

// prune recomputes distances from v to each of its layer-l neighbors and
// retains only the mMax closest, following spec §4.2 "prune". Pruning is
// unilateral: the dropped neighbor's reverse edge is left intact.
func (g *Graph) prune(v uint64, level int, mMax int) {
	n := g.nodes[v]
	neighbors := n.connections[level]

	scored := make([]item, len(neighbors))
	for i, nb := range neighbors {
		scored[i] = item{node: nb, distance: g.dist(n.vector, g.nodes[nb].vector)}
	}
	for i := 1; i < len(scored); i++ {
		for j := i; j > 0 && scored[j].distance < scored[j-1].distance; j-- {
			scored[j], scored[j-1] = scored[j-1], scored[j]
		}
	}

	if len(scored) > mMax {
		scored = scored[:mMax]
	}
	kept := make([]uint64, len(scored))
	for i, s := range scored {
		kept[i] = s.node
	}
	n.connections[level] = kept
}

// Search returns up to ef nearest neighbors of q at layer 0, in ascending
// distance order (native metric units, no sqrt applied). Callers above the
// graph (the store coordinator/engine) are responsible for mapping node IDs
// to record IDs, filtering tombstones, applying sqrt, and truncating to k
// (spec §4.4).
func (g *Graph) Search(q []float32, ef int) ([]Result, error) {
	if len(q) != g.dim {
		return nil, &ErrDimensionMismatch{Expected: g.dim, Actual: len(q)}
	}

	g.mu.Lock()
	hasEntry := g.hasEntryPoint
	entry := g.entryPoint
	maxLevel := g.maxLevel
	g.mu.Unlock()

	if !hasEntry {
		return nil, nil
	}

	cur := entry
	curDist, err := g.distanceTo(cur, q)
	if err != nil {
		return nil, err
	}

	for l := maxLevel; l > 0; l-- {
		best, bestDist, err := g.greedyStep(q, cur, curDist, l)
		if err != nil {
			return nil, err
		}
		cur, curDist = best, bestDist
	}

	hits, err := g.searchLayer(q, cur, curDist, ef, 0)
	if err != nil {
		return nil, err
	}

	out := make([]Result, len(hits))
	for i, h := range hits {
		out[i] = Result{NodeID: h.node, Distance: h.distance}
	}
	return out, nil
}

// Degree returns the number of neighbors node u has at layer l, or -1 if u
// does not exist at that layer. Used by tests to check invariant P3.
func (g *Graph) Degree(u uint64, l int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if int(u) >= len(g.nodes) {
		return -1
	}
	n := g.nodes[u]
	if n.level < l || l >= len(n.connections) {
		return -1
	}
	return len(n.connections[l])
}
