// Package accel provides ray-intersection acceleration for indexed triangle
// meshes. Three interchangeable spatial indices share one framework: an
// 8-way midpoint Octree, an axis-aligned KD-tree with SAH splits, and an
// object-partitioning BVH. All are build-once, query-many: meshes are
// registered, Build constructs the tree, and queries are read-only walks that
// are safe to run from many goroutines concurrently.
package accel

import (
	"github.com/aaronpwinter/go-ray-accel/pkg/core"
	"github.com/aaronpwinter/go-ray-accel/pkg/mesh"
)

// Index is the interface shared by the three concrete spatial indices
type Index interface {
	// AddMesh registers a mesh. Ignored after Build.
	AddMesh(m *mesh.Mesh)
	// Build constructs the index; it is idempotent
	Build()
	// BoundingBox returns the scene bounding box
	BoundingBox() core.AABB
	// RayIntersect returns the closest intersected triangle (any triangle for
	// shadow rays), or InvalidTriRef. During traversal its T, UV and Mesh
	// fields are maintained.
	RayIntersect(ray core.Ray, its *Intersection, shadowRay bool) TriRef
	// Stats returns build statistics, valid after Build
	Stats() Stats
}

// Accel dispatches to one concrete spatial index and turns raw hits into
// shading-ready intersection records.
type Accel struct {
	index  Index
	method Method
}

// New creates a facade over a fresh index of the given method
func New(method Method, cfg Config) *Accel {
	var index Index
	switch method {
	case MethodOctree:
		index = NewOctree(cfg)
	case MethodKDTree:
		index = NewKDTree(cfg)
	default:
		index = NewBVH(cfg)
	}
	return &Accel{index: index, method: method}
}

// Method returns which index variant backs this facade
func (a *Accel) Method() Method {
	return a.method
}

// Index returns the underlying spatial index
func (a *Accel) Index() Index {
	return a.index
}

// AddMesh registers a mesh for inclusion in the index. Ignored after Build.
func (a *Accel) AddMesh(m *mesh.Mesh) {
	a.index.AddMesh(m)
}

// Build constructs the index. It is idempotent.
func (a *Accel) Build() {
	a.index.Build()
}

// BoundingBox returns the scene bounding box
func (a *Accel) BoundingBox() core.AABB {
	return a.index.BoundingBox()
}

// Stats returns build statistics for the underlying index
func (a *Accel) Stats() Stats {
	return a.index.Stats()
}

// RayIntersect queries the index. For shadow rays it only reports whether any
// triangle blocks the ray. Otherwise, on a hit, it reconstructs the shading
// data in its: the interpolated position, texture coordinates when the mesh
// has them, the geometry frame from the triangle edges, and the shading frame
// from interpolated vertex normals when present.
func (a *Accel) RayIntersect(ray core.Ray, its *Intersection, shadowRay bool) bool {
	ref := a.index.RayIntersect(ray, its, shadowRay)
	if !ref.IsValid() {
		return false
	}
	if shadowRay {
		return true
	}

	m := its.Mesh
	i0, i1, i2 := m.TriIndices(ref.Tri)
	p0, p1, p2 := m.TriVertices(ref.Tri)

	// Barycentric weights from the primitive test's (u, v)
	alpha := 1 - its.UV.X - its.UV.Y
	beta := its.UV.X
	gamma := its.UV.Y

	its.P = p0.Multiply(alpha).Add(p1.Multiply(beta)).Add(p2.Multiply(gamma))

	if m.HasTexCoords() {
		uv := m.TexCoords()
		its.UV = uv[i0].Multiply(alpha).
			Add(uv[i1].Multiply(beta)).
			Add(uv[i2].Multiply(gamma))
	}

	its.GeoFrame = core.NewFrame(p1.Subtract(p0).Cross(p2.Subtract(p0)))

	if m.HasNormals() {
		normals := m.Normals()
		n := normals[i0].Multiply(alpha).
			Add(normals[i1].Multiply(beta)).
			Add(normals[i2].Multiply(gamma))
		its.ShFrame = core.NewFrame(n)
	} else {
		its.ShFrame = its.GeoFrame
	}

	return true
}
