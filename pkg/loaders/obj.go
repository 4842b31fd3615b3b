// Package loaders reads triangle meshes from model files.
package loaders

import (
	"fmt"

	"github.com/g3n/engine/loader/obj"

	"github.com/aaronpwinter/go-ray-accel/pkg/core"
	"github.com/aaronpwinter/go-ray-accel/pkg/mesh"
)

// LoadOBJ reads a Wavefront OBJ file and returns one mesh per OBJ object;
// objects without triangles are skipped. Faces with more than three vertices
// are fan-triangulated. Every face corner becomes its own unshared vertex, so
// the normal and texture-coordinate buffers, when the file carries them, stay
// parallel to the positions.
func LoadOBJ(path string) ([]*mesh.Mesh, error) {
	dec, err := obj.Decode(path, "")
	if err != nil {
		return nil, fmt.Errorf("loaders: decoding %s: %w", path, err)
	}

	meshes := make([]*mesh.Mesh, 0, len(dec.Objects))
	for oi := range dec.Objects {
		object := &dec.Objects[oi]
		m, err := buildMesh(dec, object)
		if err != nil {
			return nil, fmt.Errorf("loaders: object %q in %s: %w", object.Name, path, err)
		}
		if m.TriangleCount() > 0 {
			meshes = append(meshes, m)
		}
	}
	return meshes, nil
}

func buildMesh(dec *obj.Decoder, object *obj.Object) (*mesh.Mesh, error) {
	position := func(i int) core.Vec3 {
		return core.NewVec3(
			float64(dec.Vertices[i*3]),
			float64(dec.Vertices[i*3+1]),
			float64(dec.Vertices[i*3+2]),
		)
	}
	normal := func(i int) core.Vec3 {
		return core.NewVec3(
			float64(dec.Normals[i*3]),
			float64(dec.Normals[i*3+1]),
			float64(dec.Normals[i*3+2]),
		)
	}
	texCoord := func(i int) core.Vec2 {
		return core.NewVec2(
			float64(dec.Uvs[i*2]),
			float64(dec.Uvs[i*2+1]),
		)
	}

	hasNormals := len(dec.Normals) > 0
	hasUvs := len(dec.Uvs) > 0

	var positions []core.Vec3
	var normals []core.Vec3
	var texCoords []core.Vec2
	var faces []uint32

	// With per-corner attributes the OBJ index spaces differ per buffer, so
	// every face corner becomes its own vertex
	addCorner := func(face *obj.Face, corner int) error {
		vi := face.Vertices[corner]
		if vi < 0 || vi*3+2 >= len(dec.Vertices) {
			return fmt.Errorf("vertex index %d out of range", vi)
		}
		faces = append(faces, uint32(len(positions)))
		positions = append(positions, position(vi))
		if hasNormals {
			if corner >= len(face.Normals) || face.Normals[corner] < 0 {
				normals = append(normals, core.Vec3{})
			} else {
				normals = append(normals, normal(face.Normals[corner]))
			}
		}
		if hasUvs {
			if corner >= len(face.Uvs) || face.Uvs[corner] < 0 {
				texCoords = append(texCoords, core.Vec2{})
			} else {
				texCoords = append(texCoords, texCoord(face.Uvs[corner]))
			}
		}
		return nil
	}

	for fi := range object.Faces {
		face := &object.Faces[fi]
		if len(face.Vertices) < 3 {
			continue
		}
		// Fan triangulation around the first corner
		for c := 1; c < len(face.Vertices)-1; c++ {
			for _, corner := range [3]int{0, c, c + 1} {
				if err := addCorner(face, corner); err != nil {
					return nil, err
				}
			}
		}
	}

	opts := &mesh.MeshOptions{}
	if hasNormals {
		opts.Normals = normals
	}
	if hasUvs {
		opts.TexCoords = texCoords
	}

	return mesh.NewMesh(object.Name, positions, faces, opts), nil
}
