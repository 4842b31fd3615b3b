package accel

import (
	"time"

	"github.com/aaronpwinter/go-ray-accel/pkg/core"
	"github.com/aaronpwinter/go-ray-accel/pkg/log"
)

// octNode is a node in the octree. A node is a leaf iff tris is non-nil.
type octNode struct {
	bbox     core.AABB
	children [8]*octNode
	tris     []TriRef
}

func (n *octNode) isLeaf() bool {
	return n.tris != nil
}

// Octree is an 8-way midpoint-subdivision index. Triangles are assigned to
// every child whose box their bounding box overlaps, so a triangle may live in
// multiple leaves.
type Octree struct {
	Base
	cfg    Config
	root   *octNode
	stats  Stats
	logger log.Logger
}

// NewOctree creates an unbuilt octree with the given configuration
func NewOctree(cfg Config) *Octree {
	return &Octree{
		Base:   newBase(),
		cfg:    cfg.normalize(DefaultOctreeMaxDepth),
		logger: log.New("octree"),
	}
}

// Build constructs the tree from all registered meshes. It may only do work
// once; subsequent calls are no-ops.
func (o *Octree) Build() {
	if o.built {
		return
	}
	o.built = true

	tris := o.collectTris()

	start := time.Now()
	o.root = o.buildNode(o.bbox, tris, 0)
	o.stats = o.collectStats(time.Since(start), len(tris))

	o.logger.Debugf("octree build: %d nodes, %d stored tris (%d mesh tris), depth %d, %s",
		o.stats.Nodes, o.stats.StoredTris, o.stats.MeshTris, o.stats.MaxDepth, o.stats.BuildTime)
}

func (o *Octree) buildNode(bb core.AABB, tris []TriRef, depth int) *octNode {
	if len(tris) == 0 {
		return nil
	}

	if len(tris) <= o.cfg.FewTris || depth >= o.cfg.MaxDepth {
		return &octNode{bbox: bb, tris: tris}
	}

	var boxes [8]core.AABB
	var parts [8][]TriRef
	for i := range boxes {
		boxes[i] = octChildBounds(bb, i)
	}

	// One partition scan per child; each scan reads tris and writes only its
	// own slot, so the scans are safe to run in parallel
	o.cfg.forEach(8, func(i int) {
		var part []TriRef
		for _, tri := range tris {
			if o.triOverlapsBox(boxes[i], tri) {
				part = append(part, tri)
			}
		}
		parts[i] = part
	})

	// If every child received the full list, subdividing made no progress;
	// collapse into a leaf to avoid recursing forever
	allSame := true
	for i := range parts {
		if len(parts[i]) != len(tris) {
			allSame = false
			break
		}
	}
	if allSame {
		return &octNode{bbox: bb, tris: tris}
	}

	n := &octNode{bbox: bb}
	o.cfg.forEach(8, func(i int) {
		n.children[i] = o.buildNode(boxes[i], parts[i], depth+1)
	})
	return n
}

// octChildBounds returns child box index of the parent split at its center.
// Bit i&1 selects the x half, (i>>1)&1 the y half, (i>>2)&1 the z half.
func octChildBounds(bb core.AABB, index int) core.AABB {
	middle := bb.Center()
	diff := middle.Subtract(bb.Min)
	adding := core.NewVec3(
		float64(index&1)*diff.X,
		float64((index>>1)&1)*diff.Y,
		float64((index>>2)&1)*diff.Z,
	)
	return core.NewAABB(bb.Min.Add(adding), middle.Add(adding))
}

// RayIntersect finds the closest intersected triangle, or any for shadow rays.
// Traversal visits children front to back. Because sibling boxes are disjoint,
// a hit that lies within the visited child's box is the closest across the
// whole subtree and traversal terminates there. A triangle stored in several
// leaves can be hit beyond the visited child's box; the remaining children are
// then still searched, with the shrunken MaxT pruning them.
func (o *Octree) RayIntersect(ray core.Ray, its *Intersection, shadowRay bool) TriRef {
	return o.intersectNode(o.root, &ray, its, shadowRay)
}

// octChildHit pairs a child with its ray entry distance for front-to-back ordering
type octChildHit struct {
	tNear float64
	tFar  float64
	node  *octNode
}

func (o *Octree) intersectNode(n *octNode, ray *core.Ray, its *Intersection, shadowRay bool) TriRef {
	if n == nil {
		return InvalidTriRef
	}
	if n.isLeaf() {
		return o.leafRayIntersect(n.tris, ray, its, shadowRay)
	}

	// Collect the children the ray enters, with their entry distances
	var hits [8]octChildHit
	count := 0
	for _, c := range n.children {
		if c == nil {
			continue
		}
		if tNear, tFar, ok := c.bbox.RayIntersect(*ray); ok {
			hits[count] = octChildHit{tNear: tNear, tFar: tFar, node: c}
			count++
		}
	}

	// Insertion sort by entry distance; at most 8 entries
	for i := 1; i < count; i++ {
		for j := i; j > 0 && hits[j].tNear < hits[j-1].tNear; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}

	best := InvalidTriRef
	for i := 0; i < count; i++ {
		if hits[i].tNear > ray.MaxT {
			break
		}
		if ref := o.intersectNode(hits[i].node, ray, its, shadowRay); ref.IsValid() {
			// A hit inside this child's box is closer than anything behind it
			if shadowRay || ray.MaxT <= hits[i].tFar {
				return ref
			}
			best = ref
		}
	}

	return best
}

// Stats returns build statistics. Valid after Build.
func (o *Octree) Stats() Stats {
	return o.stats
}

func (o *Octree) collectStats(buildTime time.Duration, meshTris int) Stats {
	s := Stats{MeshTris: meshTris, BuildTime: buildTime}
	var walk func(n *octNode, depth int)
	walk = func(n *octNode, depth int) {
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
	walk(o.root, 0)
	return s
}
