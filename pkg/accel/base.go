package accel

import (
	"github.com/aaronpwinter/go-ray-accel/pkg/core"
	"github.com/aaronpwinter/go-ray-accel/pkg/mesh"
)

// Base owns the mesh list, the scene bounding box and the build gate shared by
// all three indices. The concrete trees embed it.
type Base struct {
	meshes []*mesh.Mesh
	bbox   core.AABB
	built  bool
}

func newBase() Base {
	return Base{bbox: core.EmptyAABB()}
}

// AddMesh registers a mesh for inclusion in the index and expands the scene
// bounding box. Meshes added after Build are silently ignored.
func (b *Base) AddMesh(m *mesh.Mesh) {
	if b.built {
		return
	}
	b.meshes = append(b.meshes, m)

	if b.bbox.IsValid() {
		b.bbox = b.bbox.Union(m.BoundingBox())
	} else {
		b.bbox = m.BoundingBox()
	}
}

// BoundingBox returns the scene bounding box. It is invalid until the first
// mesh is added.
func (b *Base) BoundingBox() core.AABB {
	return b.bbox
}

// Meshes returns the registered mesh list
func (b *Base) Meshes() []*mesh.Mesh {
	return b.meshes
}

// Built reports whether the index has been built
func (b *Base) Built() bool {
	return b.built
}

// triOverlapsBox reports whether the triangle's bounding box overlaps the
// given box. Boundaries count as overlapping.
func (b *Base) triOverlapsBox(bb core.AABB, tri TriRef) bool {
	return bb.Overlaps(b.triBounds(tri))
}

// triBounds returns the bounding box of the referenced triangle
func (b *Base) triBounds(tri TriRef) core.AABB {
	return b.meshes[tri.Mesh].TriBoundingBox(tri.Tri)
}

// centroid returns the centroid of the referenced triangle
func (b *Base) centroid(tri TriRef) core.Vec3 {
	return b.meshes[tri.Mesh].Centroid(tri.Tri)
}

// collectTris gathers one reference per triangle across all registered meshes,
// in mesh registration order
func (b *Base) collectTris() []TriRef {
	total := uint32(0)
	for _, m := range b.meshes {
		total += m.TriangleCount()
	}

	tris := make([]TriRef, 0, total)
	for mi, m := range b.meshes {
		for t := uint32(0); t < m.TriangleCount(); t++ {
			tris = append(tris, TriRef{Mesh: uint32(mi), Tri: t})
		}
	}
	return tris
}

// leafRayIntersect brute-force scans a leaf's triangle list. It shrinks the
// ray's MaxT on every hit so later tests prune, records the hit in its, and
// returns the reference of the closest intersected triangle. Shadow queries
// return on the first hit.
func (b *Base) leafRayIntersect(tris []TriRef, ray *core.Ray, its *Intersection, shadowRay bool) TriRef {
	found := InvalidTriRef

	for _, idx := range tris {
		if u, v, t, ok := b.meshes[idx.Mesh].RayIntersect(idx.Tri, *ray); ok {
			if shadowRay {
				return idx
			}
			ray.MaxT = t
			its.T = t
			its.UV = core.NewVec2(u, v)
			its.Mesh = b.meshes[idx.Mesh]
			found = idx
		}
	}

	return found
}
