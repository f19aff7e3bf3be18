// Random points for perturbing poses.

package optim

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"
)

// UnitDisc returns a point uniformly distributed in the unit disc.
// Take r and t uniform on [0,1], swap them if t > r. The pair is now
// uniform on the triangle under the diagonal, so r has density 2r, and
// 2 pi t / r is a uniform angle. No rejection needed.
func UnitDisc(rnd *rand.Rand) (x, y float64) {
	r, t := rnd.Float64(), rnd.Float64()
	if t > r {
		r, t = t, r
	}
	if r == 0 {
		return 0, 0
	}
	s, c := math.Sincos(2 * math.Pi * t / r)
	return r * c, r * s
}

// UnitBall returns a point in the unit ball built from two disc
// samples (x1, y1) and (x2, y2) as (x1, y1 x2, y1 y2).
func UnitBall(rnd *rand.Rand) r3.Vec {
	x1, y1 := UnitDisc(rnd)
	x2, y2 := UnitDisc(rnd)
	return r3.Vec{X: x1, Y: y1 * x2, Z: y1 * y2}
}

// PolarCap returns angles phi and theta for a rotation pair
// RotateX(phi) then RotateY(theta) that tips the +z pole to a point
// on the spherical cap of angular radius capAngle around the pole.
// The direction is a disc sample scaled by sin(capAngle), so it is
// uniform in projection onto the xy plane, which is close to uniform on
// the sphere only for small caps. Small caps give small angles.
// It is not valid for capAngle >= pi/2.
func PolarCap(rnd *rand.Rand, capAngle float64) (phi, theta float64) {
	x, y := UnitDisc(rnd)
	s := math.Sin(capAngle)
	dx, dy := s*x, s*y
	dz := math.Sqrt(1 - dx*dx - dy*dy)
	// Ry(theta) Rx(phi) (0,0,1) = (cos phi sin theta, -sin phi, cos phi cos theta)
	phi = -math.Asin(dy)
	theta = math.Atan2(dx, dz)
	return phi, theta
}
