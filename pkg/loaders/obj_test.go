package loaders

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/aaronpwinter/go-ray-accel/pkg/core"
)

const quadOBJ = `# unit quad with normals and texture coordinates
o quad
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vn 0 0 1
vt 0 0
vt 1 0
vt 1 1
vt 0 1
f 1/1/1 2/2/1 3/3/1 4/4/1
`

const bareTriangleOBJ = `o tri
v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
`

func writeOBJ(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestLoadOBJ_QuadWithAttributes(t *testing.T) {
	meshes, err := LoadOBJ(writeOBJ(t, "quad.obj", quadOBJ))
	if err != nil {
		t.Fatalf("LoadOBJ: %v", err)
	}
	if len(meshes) != 1 {
		t.Fatalf("meshes: got %d, want 1", len(meshes))
	}

	m := meshes[0]
	if m.TriangleCount() != 2 {
		t.Errorf("triangles: got %d, want 2 (fan-triangulated quad)", m.TriangleCount())
	}
	if !m.HasNormals() {
		t.Error("expected normals")
	}
	if !m.HasTexCoords() {
		t.Error("expected texture coordinates")
	}

	bbox := m.BoundingBox()
	if bbox.Min != core.NewVec3(0, 0, 0) || bbox.Max != core.NewVec3(1, 1, 0) {
		t.Errorf("bbox: got %+v", bbox)
	}

	// The quad must be watertight under intersection: rays through both
	// halves hit
	for _, p := range []core.Vec3{
		core.NewVec3(0.9, 0.1, 1), // first triangle of the fan
		core.NewVec3(0.1, 0.9, 1), // second triangle of the fan
	} {
		ray := core.NewRay(p, core.NewVec3(0, 0, -1))
		hit := false
		for tri := uint32(0); tri < m.TriangleCount(); tri++ {
			if _, _, dist, ok := m.RayIntersect(tri, ray); ok {
				hit = true
				if math.Abs(dist-1) > 1e-9 {
					t.Errorf("hit distance: got %f, want 1", dist)
				}
			}
		}
		if !hit {
			t.Errorf("no triangle under %+v", p)
		}
	}
}

func TestLoadOBJ_BareTriangle(t *testing.T) {
	meshes, err := LoadOBJ(writeOBJ(t, "tri.obj", bareTriangleOBJ))
	if err != nil {
		t.Fatalf("LoadOBJ: %v", err)
	}
	if len(meshes) != 1 {
		t.Fatalf("meshes: got %d, want 1", len(meshes))
	}

	m := meshes[0]
	if m.TriangleCount() != 1 {
		t.Errorf("triangles: got %d, want 1", m.TriangleCount())
	}
	if m.HasNormals() || m.HasTexCoords() {
		t.Error("expected no optional attributes")
	}
	if m.Name() != "tri" {
		t.Errorf("name: got %q, want %q", m.Name(), "tri")
	}
}

func TestLoadOBJ_MissingFile(t *testing.T) {
	if _, err := LoadOBJ(filepath.Join(t.TempDir(), "nope.obj")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
