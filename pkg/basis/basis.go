// 19 Oct 2026

// Package basis provides the rigid transform that places a chain in
// world space. A Basis is a rotation about a pivot point (the origin)
// together with the location of that pivot.
// Every operation returns a new Basis. Nothing is modified in place, so
// a Basis can be handed to as many goroutines as you like.
package basis

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Vec is a point or a displacement in three dimensions.
type Vec = r3.Vec

// Mat3 is a 3x3 matrix stored by rows.
type Mat3 [3][3]float64

// Eye returns the identity matrix.
func Eye() Mat3 {
	return Mat3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// Mul returns m·n.
func (m Mat3) Mul(n Mat3) (p Mat3) {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			p[i][j] = m[i][0]*n[0][j] + m[i][1]*n[1][j] + m[i][2]*n[2][j]
		}
	}
	return p
}

// MulVec returns m·v.
func (m Mat3) MulVec(v Vec) Vec {
	return Vec{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

// MulVecT returns mᵗ·v without building the transpose.
func (m Mat3) MulVecT(v Vec) Vec {
	return Vec{
		X: m[0][0]*v.X + m[1][0]*v.Y + m[2][0]*v.Z,
		Y: m[0][1]*v.X + m[1][1]*v.Y + m[2][1]*v.Z,
		Z: m[0][2]*v.X + m[1][2]*v.Y + m[2][2]*v.Z,
	}
}

// T returns the transpose.
func (m Mat3) T() (t Mat3) {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			t[i][j] = m[j][i]
		}
	}
	return t
}

// rotX, rotY and rotZ are the right-handed rotations about the axes.
func rotX(rad float64) Mat3 {
	s, c := math.Sincos(rad)
	return Mat3{{1, 0, 0}, {0, c, -s}, {0, s, c}}
}

func rotY(rad float64) Mat3 {
	s, c := math.Sincos(rad)
	return Mat3{{c, 0, s}, {0, 1, 0}, {-s, 0, c}}
}

func rotZ(rad float64) Mat3 {
	s, c := math.Sincos(rad)
	return Mat3{{c, -s, 0}, {s, c, 0}, {0, 0, 1}}
}

// Basis is a rotation about origin. The zero value is not useful, since
// its rotation is all zeros. Start from Identity().
// Basis values are comparable with ==.
type Basis struct {
	origin Vec
	rot    Mat3
}

// Identity returns the basis with its origin at zero and no rotation.
func Identity() Basis {
	return Basis{rot: Eye()}
}

// Origin returns the pivot point.
func (b Basis) Origin() Vec { return b.origin }

// Rotation returns the rotation matrix.
func (b Basis) Rotation() Mat3 { return b.rot }

// Translate moves the pivot by shift. The rotation is unchanged.
func (b Basis) Translate(shift Vec) Basis {
	b.origin = r3.Add(b.origin, shift)
	return b
}

// RotateX, RotateY and RotateZ apply a further rotation about the named
// axis. The new rotation is applied after the existing one, so
// rot' = R(rad)·rot.
func (b Basis) RotateX(rad float64) Basis {
	b.rot = rotX(rad).Mul(b.rot)
	return b
}

func (b Basis) RotateY(rad float64) Basis {
	b.rot = rotY(rad).Mul(b.rot)
	return b
}

func (b Basis) RotateZ(rad float64) Basis {
	b.rot = rotZ(rad).Mul(b.rot)
	return b
}

// Convert applies the basis to v, rotating it about the origin:
// rot·(v-origin) + origin.
// The origin itself does not move.
func (b Basis) Convert(v Vec) Vec {
	return r3.Add(b.rot.MulVec(r3.Sub(v, b.origin)), b.origin)
}

// Deconvert undoes Convert. The rotation is orthonormal, so its inverse
// is the transpose.
func (b Basis) Deconvert(v Vec) Vec {
	return r3.Add(b.rot.MulVecT(r3.Sub(v, b.origin)), b.origin)
}

// Orthonormal reports whether rot·rotᵗ is the identity to within tol
// in every element.
func (b Basis) Orthonormal(tol float64) bool {
	p := b.rot.Mul(b.rot.T())
	eye := Eye()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(p[i][j]-eye[i][j]) > tol {
				return false
			}
		}
	}
	return true
}
