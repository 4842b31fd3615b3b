package accel

import (
	"sort"
	"time"

	"github.com/aaronpwinter/go-ray-accel/pkg/core"
	"github.com/aaronpwinter/go-ray-accel/pkg/log"
)

// bvhNode is a node in the BVH. A node is a leaf iff tris is non-nil; internal
// nodes record the split dimension so traversal can order the children by the
// sign of the ray direction.
type bvhNode struct {
	bbox     core.AABB
	children [2]*bvhNode
	tris     []TriRef
	dim      int
}

func (n *bvhNode) isLeaf() bool {
	return n.tris != nil
}

// bvhSplit carries everything a winning split decides: the axis, the two child
// bounding boxes (tight over their triangles) and the two disjoint triangle
// lists. dim == -1 marks a rejected split.
type bvhSplit struct {
	dim      int
	lowBB    core.AABB
	highBB   core.AABB
	lowTris  []TriRef
	highTris []TriRef
}

// BVH is an object-partitioning bounding volume hierarchy. Each triangle is
// stored in exactly one leaf; sibling boxes may overlap.
type BVH struct {
	Base
	cfg    Config
	root   *bvhNode
	stats  Stats
	logger log.Logger
}

// NewBVH creates an unbuilt BVH with the given configuration
func NewBVH(cfg Config) *BVH {
	return &BVH{
		Base:   newBase(),
		cfg:    cfg.normalize(DefaultBVHMaxDepth),
		logger: log.New("bvh"),
	}
}

// Build constructs the tree from all registered meshes. It may only do work
// once; subsequent calls are no-ops.
func (b *BVH) Build() {
	if b.built {
		return
	}
	b.built = true

	tris := b.collectTris()

	start := time.Now()
	b.root = b.buildNode(b.bbox, tris, 0)
	b.stats = b.collectStats(time.Since(start), len(tris))

	b.logger.Debugf("bvh build: %d nodes, %d stored tris (%d mesh tris), depth %d, %s",
		b.stats.Nodes, b.stats.StoredTris, b.stats.MeshTris, b.stats.MaxDepth, b.stats.BuildTime)
}

func (b *BVH) buildNode(bb core.AABB, tris []TriRef, depth int) *bvhNode {
	if len(tris) <= b.cfg.FewTris || depth >= b.cfg.MaxDepth {
		if tris == nil {
			tris = []TriRef{}
		}
		return &bvhNode{bbox: bb, tris: tris, dim: -1}
	}

	split := b.chooseSplit(bb, tris)
	if split.dim == -1 {
		return &bvhNode{bbox: bb, tris: tris, dim: -1}
	}

	boxes := [2]core.AABB{split.lowBB, split.highBB}
	parts := [2][]TriRef{split.lowTris, split.highTris}

	n := &bvhNode{bbox: bb, dim: split.dim}
	b.cfg.forEach(2, func(i int) {
		n.children[i] = b.buildNode(boxes[i], parts[i], depth+1)
	})
	return n
}

func (b *BVH) chooseSplit(bb core.AABB, tris []TriRef) bvhSplit {
	switch b.cfg.BVHSplit {
	case BVHSAHFull:
		return b.chooseSplitSAHFull(bb, tris)
	default: // BVHSAHBuckets; HLBVH is reserved and falls back here
		return b.chooseSplitSAHBuckets(bb, tris)
	}
}

// sahCost is the canonical SAH split cost shared by both variants
func (b *BVH) sahCost(bbSA, lowSA float64, lowCount int, highSA float64, highCount int) float64 {
	return b.cfg.TraversalTime +
		b.cfg.TriIntCost*(lowSA*float64(lowCount)+highSA*float64(highCount))/bbSA
}

// chooseSplitSAHFull evaluates every ordered partition of the centroid-sorted
// triangle list on each axis. Suffix boxes are precomputed from the right so
// each candidate costs O(1); the prefix box grows as the sweep advances.
func (b *BVH) chooseSplitSAHFull(bb core.AABB, tris []TriRef) bvhSplit {
	n := len(tris)
	bbSA := bb.SurfaceArea()
	noSplitCost := b.cfg.TriIntCost * float64(n)

	minSAH := noSplitCost + 1
	bestDim := -1
	bestI := 0
	var bestLowBB, bestHighBB core.AABB
	var bestOrder []TriRef

	order := make([]TriRef, n)
	suffix := make([]core.AABB, n-1)

	for d := 0; d < 3; d++ {
		copy(order, tris)
		b.sortByCentroid(order, d)

		suffix[n-2] = b.triBounds(order[n-1])
		for i := n - 3; i >= 0; i-- {
			suffix[i] = suffix[i+1].Union(b.triBounds(order[i+1]))
		}

		curBB := core.EmptyAABB()
		for i := 0; i < n-1; i++ {
			curBB = curBB.Union(b.triBounds(order[i]))

			sah := b.sahCost(bbSA, curBB.SurfaceArea(), i+1, suffix[i].SurfaceArea(), n-i-1)
			if sah <= minSAH {
				minSAH = sah
				if bestDim != d {
					bestDim = d
					bestOrder = append(bestOrder[:0], order...)
				}
				bestI = i
				bestLowBB = curBB
				bestHighBB = suffix[i]
			}
		}
	}

	if minSAH >= noSplitCost {
		return bvhSplit{dim: -1}
	}

	mid := bestI + 1
	low := append([]TriRef(nil), bestOrder[:mid]...)
	high := append([]TriRef(nil), bestOrder[mid:]...)
	return bvhSplit{dim: bestDim, lowBB: bestLowBB, highBB: bestHighBB, lowTris: low, highTris: high}
}

// chooseSplitSAHBuckets slabs the node box into Buckets equal intervals per
// axis, bins triangles by centroid, and sweeps the Buckets-1 boundaries with
// per-bucket counts and boxes.
func (b *BVH) chooseSplitSAHBuckets(bb core.AABB, tris []TriRef) bvhSplit {
	numBuckets := b.cfg.Buckets
	size := bb.Size()

	buckets := make([][][]TriRef, 3)
	bounds := make([][]core.AABB, 3)
	for d := 0; d < 3; d++ {
		buckets[d] = make([][]TriRef, numBuckets)
		bounds[d] = make([]core.AABB, numBuckets)
		for i := range bounds[d] {
			bounds[d][i] = core.EmptyAABB()
		}
	}

	for _, tri := range tris {
		rel := b.centroid(tri).Subtract(bb.Min)
		for d := 0; d < 3; d++ {
			index := 0
			if extent := size.Axis(d); extent > 0 {
				index = int(float64(numBuckets) * rel.Axis(d) / extent)
				// A centroid exactly on the max face lands one past the end
				if index >= numBuckets {
					index = numBuckets - 1
				}
				if index < 0 {
					index = 0
				}
			}
			buckets[d][index] = append(buckets[d][index], tri)
			bounds[d][index] = bounds[d][index].Union(b.triBounds(tri))
		}
	}

	bbSA := bb.SurfaceArea()
	noSplitCost := b.cfg.TriIntCost * float64(len(tris))

	minSAH := noSplitCost + 1
	bestDim := -1
	bestI := 0
	var bestLowBB, bestHighBB core.AABB

	suffix := make([]core.AABB, numBuckets-1)
	for d := 0; d < 3; d++ {
		suffix[numBuckets-2] = bounds[d][numBuckets-1]
		for i := numBuckets - 3; i >= 0; i-- {
			suffix[i] = suffix[i+1].Union(bounds[d][i+1])
		}

		curBB := core.EmptyAABB()
		lowCount := 0
		highCount := len(tris)
		for i := 0; i < numBuckets-1; i++ {
			curBB = curBB.Union(bounds[d][i])
			lowCount += len(buckets[d][i])
			highCount -= len(buckets[d][i])

			// An empty side leaves one child with every triangle; that is the
			// degenerate no-progress partition, not a split
			if lowCount == 0 || highCount == 0 {
				continue
			}

			sah := b.sahCost(bbSA, curBB.SurfaceArea(), lowCount, suffix[i].SurfaceArea(), highCount)
			if sah <= minSAH {
				minSAH = sah
				bestDim = d
				bestI = i
				bestLowBB = curBB
				bestHighBB = suffix[i]
			}
		}
	}

	if minSAH >= noSplitCost || bestDim == -1 {
		return bvhSplit{dim: -1}
	}

	var low, high []TriRef
	for i := 0; i <= bestI; i++ {
		low = append(low, buckets[bestDim][i]...)
	}
	for i := bestI + 1; i < numBuckets; i++ {
		high = append(high, buckets[bestDim][i]...)
	}
	return bvhSplit{dim: bestDim, lowBB: bestLowBB, highBB: bestHighBB, lowTris: low, highTris: high}
}

// sortByCentroid stable-sorts the triangle list by centroid along dim, so
// equal centroids keep their order and builds stay deterministic
func (b *BVH) sortByCentroid(tris []TriRef, dim int) {
	sort.SliceStable(tris, func(i, j int) bool {
		return b.centroid(tris[i]).Axis(dim) < b.centroid(tris[j]).Axis(dim)
	})
}

// RayIntersect finds the closest intersected triangle, or any for shadow rays.
// Children are visited in front-to-back order by the sign of the ray direction
// along the node's split dimension. Since sibling boxes may overlap, a leaf
// hit does not end a closest-hit query: traversal continues and the shrunken
// MaxT prunes the remaining subtrees. With Config.QuickReturn the first leaf
// hit is returned instead, trading correctness for speed.
func (b *BVH) RayIntersect(ray core.Ray, its *Intersection, shadowRay bool) TriRef {
	if b.root == nil {
		return InvalidTriRef
	}

	var stack [maxStackDepth]*bvhNode
	si := 0
	stack[0] = b.root

	best := InvalidTriRef

	for si >= 0 {
		cur := stack[si]
		si--

		tNear, tFar, ok := cur.bbox.RayIntersect(ray)
		if !ok || tNear > ray.MaxT || tFar < ray.MinT {
			continue
		}

		if cur.isLeaf() {
			if ref := b.leafRayIntersect(cur.tris, &ray, its, shadowRay); ref.IsValid() {
				if shadowRay || b.cfg.QuickReturn {
					return ref
				}
				best = ref
			}
			continue
		}

		// Push far then near so the near side pops first
		if ray.Direction.Axis(cur.dim) >= 0 {
			si++
			stack[si] = cur.children[1]
			si++
			stack[si] = cur.children[0]
		} else {
			si++
			stack[si] = cur.children[0]
			si++
			stack[si] = cur.children[1]
		}
	}

	return best
}

// Stats returns build statistics. Valid after Build.
func (b *BVH) Stats() Stats {
	return b.stats
}

func (b *BVH) collectStats(buildTime time.Duration, meshTris int) Stats {
	s := Stats{MeshTris: meshTris, BuildTime: buildTime}
	var walk func(n *bvhNode, depth int)
	walk = func(n *bvhNode, depth int) {
		if n == nil {
			return
		}
		s.Nodes++
		if depth > s.MaxDepth {
			s.MaxDepth = depth
		}
		if n.isLeaf() {
			s.Leaves++
			s.StoredTris += len(n.tris)
			return
		}
		for _, c := range n.children {
			walk(c, depth+1)
		}
	}
	walk(b.root, 0)
	return s
}
