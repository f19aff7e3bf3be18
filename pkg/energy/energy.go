// 19 Oct 2026

// Package energy scores the interaction of two chains.
// The pair potential is a Coulomb term plus a 12-6 Lennard-Jones style
// term with its minimum (-1) at r = 1:
//
//	coulomb = qa qb / (4 pi r)
//	vdw     = r^-12 - 2 r^-6
//
// Pairs further apart than the cutoff contribute nothing. There is no
// switching function. Lower energies are better.
package energy

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/lukfugl/docking/pkg/basis"
	"github.com/lukfugl/docking/pkg/chain"
)

// DefaultRadius is the usual interaction cutoff.
const DefaultRadius = 12.0

const fourPi = 4 * math.Pi

// Terms says which parts of the pair potential are switched on.
type Terms uint8

const (
	Coulomb Terms = 1 << iota
	VdW
	All = Coulomb | VdW
)

// String gives names like "coulomb+vdw".
func (t Terms) String() string {
	switch t {
	case Coulomb:
		return "coulomb"
	case VdW:
		return "vdw"
	case All:
		return "coulomb+vdw"
	}
	return "none"
}

// ParseTerms is the inverse of String. It also takes "all".
func ParseTerms(s string) (Terms, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "coulomb":
		return Coulomb, nil
	case "vdw":
		return VdW, nil
	case "coulomb+vdw", "vdw+coulomb", "all":
		return All, nil
	case "none":
		return 0, nil
	}
	return 0, fmt.Errorf("unknown energy terms %q", s)
}

// Engine evaluates the potential with the chosen terms.
// The zero Engine has no terms and scores everything as zero.
type Engine struct {
	Terms Terms
}

// Default has both terms on.
var Default = Engine{Terms: All}

// Pair is the energy of two charges qa and qb at distance r.
// At r == 0 the pair contributes nothing.
func (e Engine) Pair(qa, qb, r float64) float64 {
	if r == 0 {
		return 0
	}
	invr := 1 / r
	var sum float64
	if e.Terms&Coulomb != 0 {
		sum += qa * qb * invr / fourPi
	}
	if e.Terms&VdW != 0 {
		invr6 := invr * invr * invr
		invr6 *= invr6
		sum += invr6*invr6 - 2*invr6
	}
	return sum
}

// Atom sums the pair energy between a charge q at the world point p and
// every atom of this within radius, with this placed by b.
func (e Engine) Atom(p r3.Vec, q float64, this *chain.Chain, radius float64, b basis.Basis) float64 {
	cached := b == this.Basis()
	r2max := radius * radius
	var score float64
	this.EachNeighbor(p, radius, b, func(i int) {
		var p2 r3.Vec
		if cached {
			p2 = this.Position(i)
		} else {
			p2 = this.PositionUnder(i, b)
		}
		r2 := r3.Norm2(r3.Sub(p, p2))
		if r2 > r2max {
			return
		}
		score += e.Pair(q, this.Charge(i), math.Sqrt(r2))
	})
	return score
}

// Chains is the interaction energy between chains a and b, with b in
// its active pose and a placed by candidate. The sum runs over the atoms
// of b. The neighbours of each are looked up in a.
func (e Engine) Chains(a, b *chain.Chain, radius float64, candidate basis.Basis) float64 {
	var score float64
	for i := 0; i < b.Len(); i++ {
		score += e.Atom(b.Position(i), b.Charge(i), a, radius, candidate)
	}
	return score
}

// Committed scores a and b, both in their active poses.
func (e Engine) Committed(a, b *chain.Chain, radius float64) float64 {
	return e.Chains(a, b, radius, a.Basis())
}
