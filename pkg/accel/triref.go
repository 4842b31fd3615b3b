package accel

import "math"

// TriRef names a triangle globally across a multi-mesh scene: Mesh indexes the
// registered mesh list, Tri indexes the triangle within that mesh.
type TriRef struct {
	Mesh uint32
	Tri  uint32
}

// InvalidTriRef is the sentinel returned when a query hits nothing
var InvalidTriRef = TriRef{Mesh: math.MaxUint32, Tri: math.MaxUint32}

// IsValid reports whether this reference names an actual triangle
func (t TriRef) IsValid() bool {
	return t != InvalidTriRef
}
