package accel

import (
	"sort"
	"time"

	"github.com/aaronpwinter/go-ray-accel/pkg/core"
	"github.com/aaronpwinter/go-ray-accel/pkg/log"
)

// kdSplit is a splitting plane expressed as an offset along dim, relative to
// the node's bbox min corner. A negative offset marks the invalid split.
type kdSplit struct {
	dim    int
	offset float64
}

var invalidKDSplit = kdSplit{dim: 0, offset: -1}

func (s kdSplit) isValid() bool {
	return s.offset >= 0
}

// kdNode is a node in the KD-tree. A node is a leaf iff tris is non-nil.
type kdNode struct {
	bbox     core.AABB
	children [2]*kdNode
	tris     []TriRef
	split    kdSplit
}

func (n *kdNode) isLeaf() bool {
	return n.tris != nil
}

// kdEvent is a sweep event for the SAH split search: the min or max projection
// of a triangle's bounding box, relative to the node's bbox min corner.
type kdEvent struct {
	pos core.Vec3
	min bool
}

// KDTree is a binary axis-aligned spatial partition. Triangles are assigned to
// children by bounding-box overlap, so a triangle straddling the splitting
// plane is duplicated into both sides.
type KDTree struct {
	Base
	cfg    Config
	root   *kdNode
	stats  Stats
	logger log.Logger
}

// NewKDTree creates an unbuilt KD-tree with the given configuration
func NewKDTree(cfg Config) *KDTree {
	return &KDTree{
		Base:   newBase(),
		cfg:    cfg.normalize(DefaultKDMaxDepth),
		logger: log.New("kdtree"),
	}
}

// Build constructs the tree from all registered meshes. It may only do work
// once; subsequent calls are no-ops.
func (k *KDTree) Build() {
	if k.built {
		return
	}
	k.built = true

	tris := k.collectTris()

	start := time.Now()
	k.root = k.buildNode(k.bbox, tris, 0)
	k.stats = k.collectStats(time.Since(start), len(tris))

	k.logger.Debugf("kd-tree build: %d nodes, %d stored tris (%d mesh tris), depth %d, %s",
		k.stats.Nodes, k.stats.StoredTris, k.stats.MeshTris, k.stats.MaxDepth, k.stats.BuildTime)
}

func (k *KDTree) buildNode(bb core.AABB, tris []TriRef, depth int) *kdNode {
	if len(tris) == 0 {
		return nil
	}

	if len(tris) <= k.cfg.FewTris || depth >= k.cfg.MaxDepth {
		return &kdNode{bbox: bb, tris: tris, split: invalidKDSplit}
	}

	split := k.chooseSplit(bb, tris)
	if !split.isValid() {
		return &kdNode{bbox: bb, tris: tris, split: invalidKDSplit}
	}

	boxes := [2]core.AABB{kdLowBounds(bb, split), kdHighBounds(bb, split)}
	var parts [2][]TriRef

	// Straddling triangles land in both partitions
	k.cfg.forEach(2, func(i int) {
		var part []TriRef
		for _, tri := range tris {
			if k.triOverlapsBox(boxes[i], tri) {
				part = append(part, tri)
			}
		}
		parts[i] = part
	})

	// If both children received the full list, the split made no progress;
	// collapse into a leaf to avoid recursing forever
	if len(parts[0]) == len(tris) && len(parts[1]) == len(tris) {
		return &kdNode{bbox: bb, tris: tris, split: invalidKDSplit}
	}

	n := &kdNode{bbox: bb, split: split}
	k.cfg.forEach(2, func(i int) {
		n.children[i] = k.buildNode(boxes[i], parts[i], depth+1)
	})
	return n
}

// kdLowBounds returns the half of bb on the min side of the split
func kdLowBounds(bb core.AABB, s kdSplit) core.AABB {
	high := bb.Max.SetAxis(s.dim, bb.Min.Axis(s.dim)+s.offset)
	return core.NewAABB(bb.Min, high)
}

// kdHighBounds returns the half of bb on the max side of the split
func kdHighBounds(bb core.AABB, s kdSplit) core.AABB {
	low := bb.Min.SetAxis(s.dim, bb.Min.Axis(s.dim)+s.offset)
	return core.NewAABB(low, bb.Max)
}

func (k *KDTree) chooseSplit(bb core.AABB, tris []TriRef) kdSplit {
	switch k.cfg.KDSplit {
	case KDSAHFull:
		return k.chooseSplitSAH(bb, tris)
	case KDMidpoint:
		dim := bb.LongestAxis()
		return kdSplit{dim: dim, offset: bb.Size().Axis(dim) / 2}
	default: // KDBruteForce: never split, the root leaf scans linearly
		return invalidKDSplit
	}
}

// chooseSplitSAH runs a full event sweep: two events per triangle (its min and
// max projections) per axis. Sub-box surface areas come in closed form from
// the fixed cross-section of an axis-aligned cut, so each candidate costs O(1).
func (k *KDTree) chooseSplitSAH(bb core.AABB, tris []TriRef) kdSplit {
	events := make([]kdEvent, 0, 2*len(tris))
	for _, tri := range tris {
		tb := k.triBounds(tri)
		events = append(events,
			kdEvent{pos: tb.Min.Subtract(bb.Min), min: true},
			kdEvent{pos: tb.Max.Subtract(bb.Min), min: false},
		)
	}

	size := bb.Size()
	bbSA := bb.SurfaceArea()
	totalCost := float64(len(tris)) * k.cfg.TriIntCost

	best := invalidKDSplit
	minSAH := totalCost + 1

	for d := 0; d < 3; d++ {
		d2, d3 := (d+1)%3, (d+2)%3

		// Cross-section area orthogonal to the axis, and its perimeter
		axSA := 2 * size.Axis(d2) * size.Axis(d3)
		axDist := 2 * (size.Axis(d2) + size.Axis(d3))
		axMaxConst := axSA + size.Axis(d)*axDist

		// Stable sort keeps equal-position events in insertion order, which
		// makes the <= tie-break below deterministic
		sort.SliceStable(events, func(i, j int) bool {
			return events[i].pos.Axis(d) < events[j].pos.Axis(d)
		})

		lCost := 0.0
		hCost := totalCost
		for _, e := range events {
			// A max event ends a triangle's "right" membership before the
			// candidate at the same position is scored
			if !e.min {
				hCost -= k.cfg.TriIntCost
			}

			if pos := e.pos.Axis(d); 0 < pos && pos < size.Axis(d) {
				pl := axSA + pos*axDist
				ph := axMaxConst - pos*axDist

				sah := k.cfg.TraversalTime + (pl*lCost+ph*hCost)/bbSA
				if lCost == 0 || hCost == 0 {
					sah *= k.cfg.EmptyModifier
				}

				if sah <= minSAH {
					minSAH = sah
					best = kdSplit{dim: d, offset: pos}
				}
			}

			if e.min {
				lCost += k.cfg.TriIntCost
			}
		}
	}

	if minSAH < totalCost {
		return best
	}
	return invalidKDSplit
}

// RayIntersect finds the closest intersected triangle, or any for shadow rays.
// Because leaves may share duplicated triangles, a leaf hit does not end the
// query: traversal continues with a shrunken MaxT and skips any node whose
// entry distance lies beyond it.
func (k *KDTree) RayIntersect(ray core.Ray, its *Intersection, shadowRay bool) TriRef {
	if k.root == nil {
		return InvalidTriRef
	}

	var stack [maxStackDepth]*kdNode
	si := 0
	stack[0] = k.root

	best := InvalidTriRef

	for si >= 0 {
		cur := stack[si]
		si--
		if cur == nil {
			continue
		}

		tNear, tFar, ok := cur.bbox.RayIntersect(ray)
		if !ok || tNear > ray.MaxT || tFar < ray.MinT {
			continue
		}

		if cur.isLeaf() {
			if ref := k.leafRayIntersect(cur.tris, &ray, its, shadowRay); ref.IsValid() {
				if shadowRay {
					return ref
				}
				best = ref
			}
			continue
		}

		// Push far then near so the near side pops first
		if ray.Direction.Axis(cur.split.dim) >= 0 {
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
func (k *KDTree) Stats() Stats {
	return k.stats
}

func (k *KDTree) collectStats(buildTime time.Duration, meshTris int) Stats {
	s := Stats{MeshTris: meshTris, BuildTime: buildTime}
	var walk func(n *kdNode, depth int)
	walk = func(n *kdNode, depth int) {
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
	walk(k.root, 0)
	return s
}
