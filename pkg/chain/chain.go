// 19 Oct 2026

// Package chain holds a set of atoms with fixed charges and a pose.
// The atoms never move in their own (local) frame. Moving a chain means
// giving it a new basis.basis.Basis, after which the world positions of
// all atoms are recalculated and cached.
// The spatial index is built once, over the local coordinates, so a
// neighbour search under some other basis just moves the query point
// into the local frame.
package chain

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/lukfugl/docking/pkg/basis"
	"github.com/lukfugl/docking/pkg/grid"
)

// Error is for the errors we return from this package.
type Error string

func (e Error) Error() string { return string(e) }

const (
	ErrEmpty   = Error("chain has no atoms")
	ErrCharges = Error("number of charges does not match number of atoms")
)

// Atom is one atom record. Coord is in the chain's local frame.
// Only Coord matters for the calculations. The rest is carried so we
// can write the chain out again.
type Atom struct {
	Serial    int
	Name      string // stripped, unless it has spaces inside
	FullName  string // name field as it was in the file
	ResName   string
	ResSeq    int
	Het       byte // ' ' amino acid, 'W' water, 'H' anything else
	ChainID   string
	Coord     r3.Vec
	BFactor   float64
	Occupancy float64
	Element   string
}

// Chain is a named, fixed set of atoms plus the pose they are in.
// Many goroutines may read from a chain at once, but SetBasis and the
// moves built on it must not run at the same time as readers.
type Chain struct {
	name    string
	atoms   []Atom
	charges []float64
	index   *grid.Index
	basis   basis.Basis
	pos     []r3.Vec // world positions under basis
}

// New makes a chain from atoms and their charges, charges[i] belonging
// to atoms[i]. Both slices are copied. The chain starts off with the
// identity rotation about its centroid.
func New(name string, atoms []Atom, charges []float64) (*Chain, error) {
	if len(atoms) == 0 {
		return nil, fmt.Errorf("chain %q: %w", name, ErrEmpty)
	}
	if len(charges) != len(atoms) {
		return nil, fmt.Errorf("chain %q, %d atoms, %d charges: %w",
			name, len(atoms), len(charges), ErrCharges)
	}
	c := &Chain{
		name:    name,
		atoms:   make([]Atom, len(atoms)),
		charges: make([]float64, len(charges)),
		pos:     make([]r3.Vec, len(atoms)),
	}
	copy(c.atoms, atoms)
	copy(c.charges, charges)
	local := make([]r3.Vec, len(atoms))
	for i := range c.atoms {
		local[i] = c.atoms[i].Coord
	}
	c.index = grid.New(local, grid.DefaultCell)
	c.ResetBasis()
	return c, nil
}

// Name returns the chain identifier.
func (c *Chain) Name() string { return c.name }

// Len returns the number of atoms.
func (c *Chain) Len() int { return len(c.atoms) }

// Atom returns a copy of atom i.
func (c *Chain) Atom(i int) Atom { return c.atoms[i] }

// Local returns the coordinates of atom i in the chain's own frame.
func (c *Chain) Local(i int) r3.Vec { return c.atoms[i].Coord }

// Charge returns the partial charge of atom i.
func (c *Chain) Charge(i int) float64 { return c.charges[i] }

// Basis returns the active pose.
func (c *Chain) Basis() basis.Basis { return c.basis }

// Position returns the world position of atom i under the active pose.
func (c *Chain) Position(i int) r3.Vec { return c.pos[i] }

// PositionUnder returns where atom i would be under basis b.
func (c *Chain) PositionUnder(i int, b basis.Basis) r3.Vec {
	return b.Convert(c.atoms[i].Coord)
}

// Positions returns a copy of all the world positions.
func (c *Chain) Positions() []r3.Vec {
	ret := make([]r3.Vec, len(c.pos))
	copy(ret, c.pos)
	return ret
}

// SetBasis replaces the pose and recalculates every world position.
func (c *Chain) SetBasis(b basis.Basis) {
	c.basis = b
	for i := range c.atoms {
		c.pos[i] = b.Convert(c.atoms[i].Coord)
	}
}

// Centroid is the mean of the local coordinates.
func (c *Chain) Centroid() r3.Vec {
	var sum r3.Vec
	for i := range c.atoms {
		sum = r3.Add(sum, c.atoms[i].Coord)
	}
	return r3.Scale(1/float64(len(c.atoms)), sum)
}

// ResetBasis throws away the pose and puts the pivot on the centroid.
func (c *Chain) ResetBasis() {
	c.SetBasis(basis.Identity().Translate(c.Centroid()))
}

// Translate moves the pivot of the active pose.
func (c *Chain) Translate(shift r3.Vec) { c.SetBasis(c.basis.Translate(shift)) }

// RotateX, RotateY and RotateZ turn the active pose about its pivot.
func (c *Chain) RotateX(rad float64) { c.SetBasis(c.basis.RotateX(rad)) }
func (c *Chain) RotateY(rad float64) { c.SetBasis(c.basis.RotateY(rad)) }
func (c *Chain) RotateZ(rad float64) { c.SetBasis(c.basis.RotateZ(rad)) }

// EachNeighbor calls fn for every atom within radius of the world point
// center, with the chain placed according to b. b need not be the
// active pose. Nothing in the chain is changed.
func (c *Chain) EachNeighbor(center r3.Vec, radius float64, b basis.Basis, fn func(i int)) {
	c.index.Each(b.Deconvert(center), radius, fn)
}

// Neighborhood returns the indices of the atoms found by EachNeighbor.
func (c *Chain) Neighborhood(center r3.Vec, radius float64, b basis.Basis) []int {
	return c.index.Query(b.Deconvert(center), radius)
}
