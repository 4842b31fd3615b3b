package mesh

import (
	"math"
	"testing"

	"github.com/aaronpwinter/go-ray-accel/pkg/core"
)

// unitTriangle is the triangle (0,0,0), (1,0,0), (0,1,0) in the XY plane
func unitTriangle(options *MeshOptions) *Mesh {
	positions := []core.Vec3{
		core.NewVec3(0, 0, 0),
		core.NewVec3(1, 0, 0),
		core.NewVec3(0, 1, 0),
	}
	return NewMesh("triangle", positions, []uint32{0, 1, 2}, options)
}

func TestNewMesh_Validation(t *testing.T) {
	positions := []core.Vec3{
		core.NewVec3(0, 0, 0),
		core.NewVec3(1, 0, 0),
		core.NewVec3(0, 1, 0),
	}

	t.Run("faces not multiple of 3", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic")
			}
		}()
		NewMesh("bad", positions, []uint32{0, 1}, nil)
	})

	t.Run("face index out of bounds", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic")
			}
		}()
		NewMesh("bad", positions, []uint32{0, 1, 3}, nil)
	})

	t.Run("mismatched normals", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic")
			}
		}()
		NewMesh("bad", positions, []uint32{0, 1, 2}, &MeshOptions{
			Normals: []core.Vec3{core.NewVec3(0, 0, 1)},
		})
	})
}

func TestMesh_Accessors(t *testing.T) {
	m := unitTriangle(nil)

	if m.TriangleCount() != 1 {
		t.Errorf("triangle count: got %d, want 1", m.TriangleCount())
	}
	if m.HasNormals() || m.HasTexCoords() {
		t.Error("expected no optional attributes")
	}

	bbox := m.BoundingBox()
	if bbox.Min != core.NewVec3(0, 0, 0) || bbox.Max != core.NewVec3(1, 1, 0) {
		t.Errorf("mesh bbox: got %+v", bbox)
	}
	if tb := m.TriBoundingBox(0); tb != bbox {
		t.Errorf("tri bbox: got %+v, want %+v", tb, bbox)
	}

	c := m.Centroid(0)
	want := core.NewVec3(1.0/3.0, 1.0/3.0, 0)
	if c.Subtract(want).Length() > 1e-12 {
		t.Errorf("centroid: got %+v, want %+v", c, want)
	}
}

func TestMesh_RayIntersect(t *testing.T) {
	m := unitTriangle(nil)

	t.Run("hit with barycentrics", func(t *testing.T) {
		ray := core.NewRay(core.NewVec3(0.25, 0.25, 1), core.NewVec3(0, 0, -1))
		u, v, dist, ok := m.RayIntersect(0, ray)
		if !ok {
			t.Fatal("expected hit")
		}
		if math.Abs(dist-1.0) > 1e-9 {
			t.Errorf("t: got %f, want 1", dist)
		}
		if math.Abs(u-0.25) > 1e-9 || math.Abs(v-0.25) > 1e-9 {
			t.Errorf("barycentrics: got (%f, %f), want (0.25, 0.25)", u, v)
		}
	})

	t.Run("miss outside the triangle", func(t *testing.T) {
		ray := core.NewRay(core.NewVec3(0.75, 0.75, 1), core.NewVec3(0, 0, -1))
		if _, _, _, ok := m.RayIntersect(0, ray); ok {
			t.Error("expected miss beyond the hypotenuse")
		}
	})

	t.Run("miss when t outside range", func(t *testing.T) {
		ray := core.NewRayRange(core.NewVec3(0.25, 0.25, 1), core.NewVec3(0, 0, -1), core.Epsilon, 0.5)
		if _, _, _, ok := m.RayIntersect(0, ray); ok {
			t.Error("expected miss with maxT below the hit distance")
		}
	})

	t.Run("miss behind the origin", func(t *testing.T) {
		ray := core.NewRay(core.NewVec3(0.25, 0.25, 1), core.NewVec3(0, 0, 1))
		if _, _, _, ok := m.RayIntersect(0, ray); ok {
			t.Error("expected miss for a ray pointing away")
		}
	})

	t.Run("miss when parallel to the plane", func(t *testing.T) {
		ray := core.NewRay(core.NewVec3(-1, 0.25, 0.5), core.NewVec3(1, 0, 0))
		if _, _, _, ok := m.RayIntersect(0, ray); ok {
			t.Error("expected miss for a ray parallel to the triangle plane")
		}
	})
}
