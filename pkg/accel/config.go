package accel

import "github.com/aaronpwinter/go-ray-accel/pkg/parallel"

// Method selects the concrete spatial index behind the facade
type Method int

const (
	MethodBVH Method = iota
	MethodKDTree
	MethodOctree
)

// KDSplitMethod selects how the KD-tree chooses splitting planes
type KDSplitMethod int

const (
	KDSAHFull KDSplitMethod = iota // Full event-sweep SAH
	KDMidpoint                     // Split the longest axis at its midpoint
	KDBruteForce                   // No splits: a single root leaf, linear scan
)

// BVHSplitMethod selects how the BVH partitions its triangle lists
type BVHSplitMethod int

const (
	BVHSAHBuckets BVHSplitMethod = iota // Bucketed SAH (default)
	BVHSAHFull                          // Full per-triangle sweep SAH
	BVHHLBVH                            // Reserved; falls back to buckets
)

// Default per-structure recursion caps
const (
	DefaultBVHMaxDepth    = 25
	DefaultKDMaxDepth     = 100
	DefaultOctreeMaxDepth = 10
)

// maxStackDepth bounds the fixed traversal stacks of the KD-tree and BVH.
// MaxDepth values are clamped so the stacks can never overflow.
const maxStackDepth = 128

// Config carries the tunables shared by all three indices. The zero value is
// not usable; start from DefaultConfig.
type Config struct {
	// FewTris is the leaf size threshold: nodes at or under it stop subdividing
	FewTris int
	// MaxDepth is the hard recursion cap. Zero selects the per-structure
	// default (BVH 25, KD 100, Octree 10).
	MaxDepth int
	// TraversalTime is the SAH node traversal cost constant
	TraversalTime float64
	// TriIntCost is the SAH per-triangle intersection cost constant
	TriIntCost float64
	// EmptyModifier scales the SAH cost of splits that cut off empty space
	// (KD only); must lie in (0, 1]
	EmptyModifier float64
	// Buckets is the bucketed-SAH resolution (BVH only)
	Buckets int
	// KDSplit selects the KD-tree split heuristic
	KDSplit KDSplitMethod
	// BVHSplit selects the BVH split heuristic
	BVHSplit BVHSplitMethod
	// ParallelBuild dispatches child partitions and sub-builds as parallel tasks
	ParallelBuild bool
	// QuickReturn makes non-shadow BVH queries return the first leaf hit.
	// This is an approximation: the first leaf hit is not guaranteed to be the
	// globally closest intersection, so images may show artifacts. Off by
	// default; closest-hit queries then rely on MaxT pruning instead.
	QuickReturn bool
}

// DefaultConfig returns the canonical configuration
func DefaultConfig() Config {
	return Config{
		FewTris:       10,
		TraversalTime: 1.0,
		TriIntCost:    2.0,
		EmptyModifier: 0.8,
		Buckets:       12,
		KDSplit:       KDSAHFull,
		BVHSplit:      BVHSAHBuckets,
		ParallelBuild: true,
	}
}

// normalize fills in zero values and clamps the recursion cap so the fixed
// traversal stacks cannot overflow
func (c Config) normalize(defaultMaxDepth int) Config {
	if c.FewTris <= 0 {
		c.FewTris = 10
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = defaultMaxDepth
	}
	if c.MaxDepth >= maxStackDepth {
		c.MaxDepth = maxStackDepth - 1
	}
	if c.TraversalTime <= 0 {
		c.TraversalTime = 1.0
	}
	if c.TriIntCost <= 0 {
		c.TriIntCost = 2.0
	}
	if c.EmptyModifier <= 0 || c.EmptyModifier > 1 {
		c.EmptyModifier = 0.8
	}
	if c.Buckets <= 1 {
		c.Buckets = 12
	}
	return c
}

// forEach runs fn for each i in [0, n), in parallel when the configuration
// enables task-parallel builds
func (c Config) forEach(n int, fn func(i int)) {
	if c.ParallelBuild {
		parallel.For(n, fn)
		return
	}
	for i := 0; i < n; i++ {
		fn(i)
	}
}
