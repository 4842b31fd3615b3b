package mesh

import (
	"github.com/aaronpwinter/go-ray-accel/pkg/core"
)

// Mesh is an indexed triangle mesh. Vertex positions are shared between
// triangles through the face index list; per-vertex normals and texture
// coordinates are optional and, when present, run parallel to the positions.
type Mesh struct {
	name      string
	positions []core.Vec3
	normals   []core.Vec3
	texCoords []core.Vec2
	faces     []uint32 // 3 indices per triangle
	bbox      core.AABB
}

// MeshOptions contains optional per-vertex attributes for mesh creation
type MeshOptions struct {
	Normals   []core.Vec3 // Optional per-vertex normals
	TexCoords []core.Vec2 // Optional per-vertex texture coordinates
}

// NewMesh creates a new mesh from vertex positions and face indices.
// faces holds 3 indices per triangle. Optional attributes must match the
// number of positions when provided.
func NewMesh(name string, positions []core.Vec3, faces []uint32, options *MeshOptions) *Mesh {
	if len(faces)%3 != 0 {
		panic("mesh: face indices must be a multiple of 3")
	}
	for _, idx := range faces {
		if int(idx) >= len(positions) {
			panic("mesh: face index out of bounds")
		}
	}

	m := &Mesh{
		name:      name,
		positions: positions,
		faces:     faces,
		bbox:      core.NewAABBFromPoints(positions...),
	}

	if options != nil {
		if options.Normals != nil {
			if len(options.Normals) != len(positions) {
				panic("mesh: number of normals must match number of positions")
			}
			m.normals = options.Normals
		}
		if options.TexCoords != nil {
			if len(options.TexCoords) != len(positions) {
				panic("mesh: number of texture coordinates must match number of positions")
			}
			m.texCoords = options.TexCoords
		}
	}

	return m
}

// Name returns the mesh name
func (m *Mesh) Name() string {
	return m.name
}

// TriangleCount returns the number of triangles in the mesh
func (m *Mesh) TriangleCount() uint32 {
	return uint32(len(m.faces) / 3)
}

// BoundingBox returns the axis-aligned bounding box of the whole mesh
func (m *Mesh) BoundingBox() core.AABB {
	return m.bbox
}

// TriIndices returns the three vertex indices of triangle i
func (m *Mesh) TriIndices(i uint32) (uint32, uint32, uint32) {
	return m.faces[i*3], m.faces[i*3+1], m.faces[i*3+2]
}

// TriVertices returns the three vertex positions of triangle i
func (m *Mesh) TriVertices(i uint32) (core.Vec3, core.Vec3, core.Vec3) {
	i0, i1, i2 := m.TriIndices(i)
	return m.positions[i0], m.positions[i1], m.positions[i2]
}

// TriBoundingBox returns the axis-aligned bounding box of triangle i
func (m *Mesh) TriBoundingBox(i uint32) core.AABB {
	p0, p1, p2 := m.TriVertices(i)
	return core.NewAABBFromPoints(p0, p1, p2)
}

// Centroid returns the arithmetic mean of the three vertices of triangle i
func (m *Mesh) Centroid(i uint32) core.Vec3 {
	p0, p1, p2 := m.TriVertices(i)
	return p0.Add(p1).Add(p2).Multiply(1.0 / 3.0)
}

// HasNormals reports whether the mesh carries per-vertex normals
func (m *Mesh) HasNormals() bool {
	return len(m.normals) > 0
}

// HasTexCoords reports whether the mesh carries per-vertex texture coordinates
func (m *Mesh) HasTexCoords() bool {
	return len(m.texCoords) > 0
}

// Positions returns the vertex position buffer
func (m *Mesh) Positions() []core.Vec3 {
	return m.positions
}

// Normals returns the per-vertex normal buffer (empty if absent)
func (m *Mesh) Normals() []core.Vec3 {
	return m.normals
}

// TexCoords returns the per-vertex texture coordinate buffer (empty if absent)
func (m *Mesh) TexCoords() []core.Vec2 {
	return m.texCoords
}

// Faces returns the face index buffer, 3 indices per triangle
func (m *Mesh) Faces() []uint32 {
	return m.faces
}

// RayIntersect tests the ray against triangle i using the Möller-Trumbore
// algorithm. On a hit it returns the barycentric coordinates (u, v) and the
// distance t, with t guaranteed to lie in [ray.MinT, ray.MaxT].
func (m *Mesh) RayIntersect(i uint32, ray core.Ray) (u, v, t float64, ok bool) {
	const epsilon = 1e-8

	p0, p1, p2 := m.TriVertices(i)

	edge1 := p1.Subtract(p0)
	edge2 := p2.Subtract(p0)

	h := ray.Direction.Cross(edge2)
	det := edge1.Dot(h)

	// If the determinant is near zero, the ray lies in the triangle's plane
	if det > -epsilon && det < epsilon {
		return 0, 0, 0, false
	}

	invDet := 1.0 / det
	s := ray.Origin.Subtract(p0)
	u = invDet * s.Dot(h)
	if u < 0 || u > 1 {
		return 0, 0, 0, false
	}

	q := s.Cross(edge1)
	v = invDet * ray.Direction.Dot(q)
	if v < 0 || u+v > 1 {
		return 0, 0, 0, false
	}

	t = invDet * edge2.Dot(q)
	if t < ray.MinT || t > ray.MaxT {
		return 0, 0, 0, false
	}

	return u, v, t, true
}
