package accel

import (
	"math/rand"

	"github.com/aaronpwinter/go-ray-accel/pkg/core"
	"github.com/aaronpwinter/go-ray-accel/pkg/mesh"
)

// newTriangleMesh builds a single-triangle mesh in the XY plane
func newTriangleMesh(options *mesh.MeshOptions) *mesh.Mesh {
	positions := []core.Vec3{
		core.NewVec3(0, 0, 0),
		core.NewVec3(1, 0, 0),
		core.NewVec3(0, 1, 0),
	}
	return mesh.NewMesh("triangle", positions, []uint32{0, 1, 2}, options)
}

// newCubeMesh builds an axis-aligned cube of the given edge length as 12
// triangles over 8 shared vertices
func newCubeMesh(name string, center core.Vec3, size float64) *mesh.Mesh {
	h := size / 2
	positions := make([]core.Vec3, 8)
	for i := range positions {
		positions[i] = core.NewVec3(
			center.X+float64(i&1)*size-h,
			center.Y+float64((i>>1)&1)*size-h,
			center.Z+float64((i>>2)&1)*size-h,
		)
	}

	quads := [6][4]uint32{
		{0, 1, 3, 2}, // -z
		{4, 5, 7, 6}, // +z
		{0, 1, 5, 4}, // -y
		{2, 3, 7, 6}, // +y
		{0, 2, 6, 4}, // -x
		{1, 3, 7, 5}, // +x
	}

	var faces []uint32
	for _, q := range quads {
		faces = append(faces, q[0], q[1], q[2], q[0], q[2], q[3])
	}
	return mesh.NewMesh(name, positions, faces, nil)
}

// newGridMesh builds an nx by ny grid of unit quads in the XY plane at z=0,
// two triangles per quad
func newGridMesh(nx, ny int) *mesh.Mesh {
	positions := make([]core.Vec3, 0, (nx+1)*(ny+1))
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			positions = append(positions, core.NewVec3(float64(i), float64(j), 0))
		}
	}

	vertex := func(i, j int) uint32 {
		return uint32(j*(nx+1) + i)
	}

	var faces []uint32
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			v00, v10 := vertex(i, j), vertex(i+1, j)
			v01, v11 := vertex(i, j+1), vertex(i+1, j+1)
			faces = append(faces, v00, v10, v11, v00, v11, v01)
		}
	}
	return mesh.NewMesh("grid", positions, faces, nil)
}

// newSpanningMesh builds a mesh of n triangles that each span the whole scene
// bounding box, so subdividing any node makes no progress
func newSpanningMesh(n int) *mesh.Mesh {
	var positions []core.Vec3
	var faces []uint32
	for i := 0; i < n; i++ {
		third := core.NewVec3(0.1+0.8*float64(i)/float64(n), 0.5, 0.5)
		base := uint32(len(positions))
		positions = append(positions,
			core.NewVec3(0, 0, 0),
			core.NewVec3(1, 1, 1),
			third,
		)
		faces = append(faces, base, base+1, base+2)
	}
	return mesh.NewMesh("spanning", positions, faces, nil)
}

// bruteForceClosest linearly scans every triangle of every mesh with the same
// MaxT semantics as the indices, returning the closest hit and its distance
func bruteForceClosest(meshes []*mesh.Mesh, ray core.Ray) (TriRef, float64) {
	best := InvalidTriRef
	bestT := 0.0
	for mi, m := range meshes {
		for tri := uint32(0); tri < m.TriangleCount(); tri++ {
			if _, _, t, ok := m.RayIntersect(tri, ray); ok {
				ray.MaxT = t
				bestT = t
				best = TriRef{Mesh: uint32(mi), Tri: tri}
			}
		}
	}
	return best, bestT
}

// rayBattery generates deterministic rays aimed from an enclosing sphere at
// random points inside the bounds
func rayBattery(bounds core.AABB, n int, seed int64) []core.Ray {
	rng := rand.New(rand.NewSource(seed))
	rays := make([]core.Ray, n)
	center := bounds.Center()
	radius := bounds.Size().Length()

	for i := range rays {
		dir := core.NewVec3(rng.Float64()*2-1, rng.Float64()*2-1, rng.Float64()*2-1).Normalize()
		origin := center.Add(dir.Multiply(radius))
		target := core.NewVec3(
			bounds.Min.X+rng.Float64()*(bounds.Max.X-bounds.Min.X),
			bounds.Min.Y+rng.Float64()*(bounds.Max.Y-bounds.Min.Y),
			bounds.Min.Z+rng.Float64()*(bounds.Max.Z-bounds.Min.Z),
		)
		rays[i] = core.NewRay(origin, target.Subtract(origin).Normalize())
	}
	return rays
}
