package accel

import (
	"github.com/aaronpwinter/go-ray-accel/pkg/core"
	"github.com/aaronpwinter/go-ray-accel/pkg/mesh"
)

// Intersection holds the shading-ready data of a ray-triangle hit. During
// traversal only T, UV and Mesh are maintained; the facade fills in the rest
// once the closest hit is known.
type Intersection struct {
	// T is the ray distance to the hit point
	T float64
	// P is the interpolated hit position
	P core.Vec3
	// UV holds the barycentric (u, v) during traversal and the interpolated
	// texture coordinates afterwards, when the mesh provides them
	UV core.Vec2
	// Mesh is the mesh containing the hit triangle
	Mesh *mesh.Mesh
	// GeoFrame is the geometry frame from the triangle edges
	GeoFrame core.Frame
	// ShFrame is the shading frame from interpolated vertex normals, or the
	// geometry frame when the mesh has none
	ShFrame core.Frame
}
