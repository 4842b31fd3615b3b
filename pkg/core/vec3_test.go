package core

import (
	"math"
	"testing"
)

func TestVec3_BasicOperations(t *testing.T) {
	a := NewVec3(1, 2, 3)
	b := NewVec3(4, 5, 6)

	if got := a.Add(b); got != NewVec3(5, 7, 9) {
		t.Errorf("Add: got %+v", got)
	}
	if got := b.Subtract(a); got != NewVec3(3, 3, 3) {
		t.Errorf("Subtract: got %+v", got)
	}
	if got := a.Multiply(2); got != NewVec3(2, 4, 6) {
		t.Errorf("Multiply: got %+v", got)
	}
	if got := a.Dot(b); got != 32 {
		t.Errorf("Dot: got %f, want 32", got)
	}
	if got := a.Negate(); got != NewVec3(-1, -2, -3) {
		t.Errorf("Negate: got %+v", got)
	}
}

func TestVec3_Cross(t *testing.T) {
	x := NewVec3(1, 0, 0)
	y := NewVec3(0, 1, 0)

	if got := x.Cross(y); got != NewVec3(0, 0, 1) {
		t.Errorf("x cross y: got %+v, want (0,0,1)", got)
	}
	if got := y.Cross(x); got != NewVec3(0, 0, -1) {
		t.Errorf("y cross x: got %+v, want (0,0,-1)", got)
	}
}

func TestVec3_Normalize(t *testing.T) {
	v := NewVec3(3, 0, 4)
	n := v.Normalize()

	if math.Abs(n.Length()-1.0) > 1e-12 {
		t.Errorf("Normalized length: got %f, want 1", n.Length())
	}
	if math.Abs(n.X-0.6) > 1e-12 || math.Abs(n.Z-0.8) > 1e-12 {
		t.Errorf("Normalize: got %+v", n)
	}

	// Zero vector normalizes to zero rather than NaN
	if got := (Vec3{}).Normalize(); got != (Vec3{}) {
		t.Errorf("Normalize zero: got %+v", got)
	}
}

func TestVec3_AxisAccess(t *testing.T) {
	v := NewVec3(1, 2, 3)

	for axis, want := range []float64{1, 2, 3} {
		if got := v.Axis(axis); got != want {
			t.Errorf("Axis(%d): got %f, want %f", axis, got, want)
		}
	}

	if got := v.SetAxis(1, 9); got != NewVec3(1, 9, 3) {
		t.Errorf("SetAxis: got %+v", got)
	}
	// SetAxis returns a copy
	if v != NewVec3(1, 2, 3) {
		t.Errorf("SetAxis mutated receiver: %+v", v)
	}
}

func TestVec3_MinMax(t *testing.T) {
	a := NewVec3(1, 5, 3)
	b := NewVec3(2, 4, 3)

	if got := a.Min(b); got != NewVec3(1, 4, 3) {
		t.Errorf("Min: got %+v", got)
	}
	if got := a.Max(b); got != NewVec3(2, 5, 3) {
		t.Errorf("Max: got %+v", got)
	}
}
