// 19 Oct 2026

// Package grid answers "which points lie within r of q" for a point
// cloud that never changes after it is built.
// Points are binned into a uniform grid of cubic cells laid over their
// bounding box. The bins are stored in one slice, with a slice of
// offsets telling us where each cell starts, so building costs two
// passes and queries do not allocate.
// For a handful of points, a linear scan is quicker, so we do that.
package grid

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	DefaultCell = 4.0 // default cell edge
	linearMax   = 16  // below this many points, just scan
	cellsPerPnt = 8   // bound on the number of cells per point
)

// Index is a spatial index over a fixed set of points. The id of a point
// is its position in the slice given to New.
// An Index is safe for concurrent queries.
type Index struct {
	pts        []r3.Vec
	min        r3.Vec
	cell       float64
	nx, ny, nz int
	start      []int32 // start[c] is the first entry of cell c in ids
	ids        []int32
	linear     bool
}

// New builds an index over points. cell is the edge of the grid cells.
// If it is zero or negative, DefaultCell is used. If the points are
// spread so far that the grid would be enormous, the cell edge is
// increased.
// The points are copied.
func New(points []r3.Vec, cell float64) *Index {
	ndx := &Index{pts: make([]r3.Vec, len(points))}
	copy(ndx.pts, points)
	if cell <= 0 || math.IsNaN(cell) || math.IsInf(cell, 0) {
		cell = DefaultCell
	}
	ndx.cell = cell
	if len(points) < linearMax {
		ndx.linear = true
		return ndx
	}

	lo, hi := bounds(ndx.pts)
	ndx.min = lo
	span := r3.Sub(hi, lo)
	if !finite(span.X) || !finite(span.Y) || !finite(span.Z) {
		ndx.linear = true // broken coordinates, no sensible grid
		return ndx
	}
	maxCells := float64(cellsPerPnt * len(points))
	for {
		ndx.nx = ncell(span.X, ndx.cell)
		ndx.ny = ncell(span.Y, ndx.cell)
		ndx.nz = ncell(span.Z, ndx.cell)
		if float64(ndx.nx)*float64(ndx.ny)*float64(ndx.nz) <= maxCells {
			break
		}
		ndx.cell *= 2
	}
	ndx.fill()
	return ndx
}

// bounds gives the corners of the bounding box.
func bounds(pts []r3.Vec) (lo, hi r3.Vec) {
	lo, hi = pts[0], pts[0]
	for _, p := range pts[1:] {
		lo.X, hi.X = math.Min(lo.X, p.X), math.Max(hi.X, p.X)
		lo.Y, hi.Y = math.Min(lo.Y, p.Y), math.Max(hi.Y, p.Y)
		lo.Z, hi.Z = math.Min(lo.Z, p.Z), math.Max(hi.Z, p.Z)
	}
	return lo, hi
}

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }

// ncell is the number of cells needed along one side.
func ncell(span, cell float64) int {
	n := math.Floor(span/cell) + 1
	if n > math.MaxInt32 || math.IsNaN(n) {
		return math.MaxInt32
	}
	return int(n)
}

// slot returns the cell coordinate for x along one axis, clamped to
// the grid.
func slot(x, lo, cell float64, n int) int {
	f := math.Floor((x - lo) / cell)
	if !(f >= 0) { // catches NaN too
		return 0
	}
	if f >= float64(n) {
		return n - 1
	}
	return int(f)
}

func (ndx *Index) cellOf(p r3.Vec) int {
	i := slot(p.X, ndx.min.X, ndx.cell, ndx.nx)
	j := slot(p.Y, ndx.min.Y, ndx.cell, ndx.ny)
	k := slot(p.Z, ndx.min.Z, ndx.cell, ndx.nz)
	return (i*ndx.ny+j)*ndx.nz + k
}

// fill does the counting sort of points into cells.
func (ndx *Index) fill() {
	ncells := ndx.nx * ndx.ny * ndx.nz
	ndx.start = make([]int32, ncells+1)
	owner := make([]int32, len(ndx.pts))
	for i, p := range ndx.pts {
		c := ndx.cellOf(p)
		owner[i] = int32(c)
		ndx.start[c+1]++
	}
	for c := 0; c < ncells; c++ {
		ndx.start[c+1] += ndx.start[c]
	}
	next := make([]int32, ncells)
	copy(next, ndx.start[:ncells])
	ndx.ids = make([]int32, len(ndx.pts))
	for i, c := range owner {
		ndx.ids[next[c]] = int32(i)
		next[c]++
	}
}

// Len is the number of indexed points.
func (ndx *Index) Len() int { return len(ndx.pts) }

// Cell is the edge of the grid cells actually used.
func (ndx *Index) Cell() float64 { return ndx.cell }

// Point returns the coordinates of point id.
func (ndx *Index) Point(id int) r3.Vec { return ndx.pts[id] }

// span converts the interval [c-r, c+r] along one axis to a range of
// cell coordinates. ok is false if the interval misses the grid.
func span(c, r, lo, cell float64, n int) (first, last int, ok bool) {
	a := math.Floor((c - r - lo) / cell)
	b := math.Floor((c + r - lo) / cell)
	if b < 0 || a > float64(n-1) || math.IsNaN(a) || math.IsNaN(b) {
		return 0, 0, false
	}
	first, last = 0, n-1
	if a > 0 {
		first = int(a)
	}
	if b < float64(n-1) {
		last = int(b)
	}
	return first, last, true
}

// Each calls fn with the id of every point whose distance from center is
// no more than radius. The order is not defined.
func (ndx *Index) Each(center r3.Vec, radius float64, fn func(id int)) {
	if !(radius >= 0) || len(ndx.pts) == 0 {
		return
	}
	r2 := radius * radius
	if ndx.linear {
		for i, p := range ndx.pts {
			if r3.Norm2(r3.Sub(p, center)) <= r2 {
				fn(i)
			}
		}
		return
	}
	i0, i1, ok := span(center.X, radius, ndx.min.X, ndx.cell, ndx.nx)
	if !ok {
		return
	}
	j0, j1, ok := span(center.Y, radius, ndx.min.Y, ndx.cell, ndx.ny)
	if !ok {
		return
	}
	k0, k1, ok := span(center.Z, radius, ndx.min.Z, ndx.cell, ndx.nz)
	if !ok {
		return
	}
	for i := i0; i <= i1; i++ {
		for j := j0; j <= j1; j++ {
			row := (i*ndx.ny + j) * ndx.nz
			// cells k0..k1 of a row are contiguous in ids
			for _, id := range ndx.ids[ndx.start[row+k0]:ndx.start[row+k1+1]] {
				if r3.Norm2(r3.Sub(ndx.pts[id], center)) <= r2 {
					fn(int(id))
				}
			}
		}
	}
}

// Append adds the ids within radius of center to dst and returns it.
func (ndx *Index) Append(dst []int, center r3.Vec, radius float64) []int {
	ndx.Each(center, radius, func(id int) { dst = append(dst, id) })
	return dst
}

// Query returns the ids within radius of center.
func (ndx *Index) Query(center r3.Vec, radius float64) []int {
	return ndx.Append(nil, center, radius)
}
