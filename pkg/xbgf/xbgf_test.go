package xbgf_test

import (
	"bytes"
	"compress/gzip"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/lukfugl/docking/pkg/chain"
	"github.com/lukfugl/docking/pkg/energy"
	"github.com/lukfugl/docking/pkg/xbgf"
)

const (
	lnN   = "ATOM        1   N   ALA  A     1   1.00000   2.00000   3.00000            -0.30000   1.500  1.000   7"
	lnCA  = "ATOM        2   CA  ALA  A     1   2.50000   2.00000   3.00000             0.10000   1.500  1.000   6"
	lnC   = "ATOM        3   C   ALA  A     1   3.00000   3.40000   3.00000             0.50000   2.000  1.000   6"
	lnHOH = "HETATM      4   O   HOH  W     2  10.00000  -4.25000   0.50000            -0.80000   0.000  1.000   8"
	lnZN  = "HETATM      5   ZN  ZN   B     3  -1.00000  -2.00000  -3.00000             2.00000   0.000  0.500  30"
)

// splice overwrites line from column lo with s.
func splice(line string, lo int, s string) string {
	return line[:lo] + s + line[lo+len(s):]
}

func file(lines ...string) string { return strings.Join(lines, "\n") + "\n" }

func read(t *testing.T, text string, strict bool) (*xbgf.Structure, error) {
	t.Helper()
	return xbgf.Read(strings.NewReader(text), xbgf.Options{Strict: strict})
}

func TestReadFields(t *testing.T) {
	s, err := read(t, file("REMARK made by hand", lnN, lnCA, lnC, lnHOH, lnZN, "END"), true)
	require.NoError(t, err)
	require.Len(t, s.Chains, 3)
	assert.Empty(t, s.Diagnostics)

	a := s.Chain("A")
	require.NotNil(t, a)
	require.Equal(t, 3, a.Len())
	ca := a.Atom(1)
	assert.Equal(t, 2, ca.Serial)
	assert.Equal(t, "CA", ca.Name)
	assert.Equal(t, "  CA ", ca.FullName)
	assert.Equal(t, "ALA", ca.ResName)
	assert.Equal(t, 1, ca.ResSeq)
	assert.Equal(t, byte(' '), ca.Het)
	assert.Equal(t, "A", ca.ChainID)
	assert.Equal(t, r3.Vec{X: 2.5, Y: 2, Z: 3}, ca.Coord)
	assert.Equal(t, 1.5, ca.BFactor)
	assert.Equal(t, 1.0, ca.Occupancy)
	assert.Equal(t, "C", ca.Element)
	assert.Equal(t, 0.1, a.Charge(1))
	assert.Equal(t, -0.3, a.Charge(0))

	w := s.Chain("W").Atom(0)
	assert.Equal(t, byte('W'), w.Het)
	assert.Equal(t, "O", w.Element)
	zn := s.Chain("B").Atom(0)
	assert.Equal(t, byte('H'), zn.Het)
	assert.Equal(t, "ZN", zn.Element)
	assert.Equal(t, 0.5, zn.Occupancy)
	assert.Equal(t, 2.0, s.Chain("B").Charge(0))
}

// TestStartPose checks a freshly read chain sits where the file says.
func TestStartPose(t *testing.T) {
	s, err := read(t, file(lnN, lnCA, lnC), false)
	require.NoError(t, err)
	a := s.Chains[0]
	for i := 0; i < a.Len(); i++ {
		assert.InDelta(t, 0, r3.Norm(r3.Sub(a.Position(i), a.Local(i))), 1e-12)
	}
}

func TestBadSerialIsQuiet(t *testing.T) {
	for _, strict := range []bool{false, true} {
		s, err := read(t, file(splice(lnN, 6, "  abc  ")), strict)
		require.NoError(t, err)
		assert.Equal(t, 0, s.Chains[0].Atom(0).Serial)
		assert.Empty(t, s.Diagnostics)
	}
}

var badtests = []struct {
	name string
	line string
	msg  string
	chk  func(t *testing.T, a chain.Atom, q float64)
}{
	{"element out of range", splice(lnCA, 97, " 200"), "element",
		func(t *testing.T, a chain.Atom, q float64) { assert.Equal(t, "", a.Element) }},
	{"element zero", splice(lnCA, 97, "   0"), "element",
		func(t *testing.T, a chain.Atom, q float64) { assert.Equal(t, "", a.Element) }},
	{"element missing", lnCA[:97], "element",
		func(t *testing.T, a chain.Atom, q float64) { assert.Equal(t, "", a.Element) }},
	{"bad x", splice(lnCA, 32, "   1.0x000"), "coordinate",
		func(t *testing.T, a chain.Atom, q float64) { assert.Equal(t, r3.Vec{}, a.Coord) }},
	{"bad charge", splice(lnCA, 74, "   -----"), "charge",
		func(t *testing.T, a chain.Atom, q float64) { assert.Equal(t, 0.0, q) }},
	{"bad bfactor", splice(lnCA, 83, "   b.  "), "bfactor",
		func(t *testing.T, a chain.Atom, q float64) { assert.Equal(t, 0.0, a.BFactor) }},
	{"bad occupancy", splice(lnCA, 90, "    ?  "), "occupancy",
		func(t *testing.T, a chain.Atom, q float64) { assert.Equal(t, 0.0, a.Occupancy) }},
	{"bad residue number", splice(lnCA, 27, "  xx "), "residue number",
		func(t *testing.T, a chain.Atom, q float64) { assert.Equal(t, 0, a.ResSeq) }},
}

// TestPermissive gets a default and a diagnostic for each bad field.
func TestPermissive(t *testing.T) {
	for _, tt := range badtests {
		s, err := read(t, file(tt.line), false)
		require.NoError(t, err, tt.name)
		require.Len(t, s.Diagnostics, 1, tt.name)
		assert.Equal(t, 1, s.Diagnostics[0].Line, tt.name)
		assert.Contains(t, s.Diagnostics[0].Msg, tt.msg, tt.name)
		c := s.Chains[0]
		tt.chk(t, c.Atom(0), c.Charge(0))
	}
}

func TestStrict(t *testing.T) {
	for _, tt := range badtests {
		_, err := read(t, file(lnN, tt.line), true)
		require.Error(t, err, tt.name)
		var rerr *xbgf.ReadError
		require.True(t, errors.As(err, &rerr), tt.name)
		assert.Equal(t, 2, rerr.Line, tt.name)
		assert.Contains(t, rerr.Desc, tt.msg, tt.name)
		assert.Contains(t, err.Error(), "line 2", tt.name)
		assert.Contains(t, err.Error(), tt.line[:20], tt.name)
	}
}

func TestDuplicateAtomDropped(t *testing.T) {
	dup := splice(lnCA, 32, "   9.00000")
	s, err := read(t, file(lnN, lnCA, dup, lnC), false)
	require.NoError(t, err)
	a := s.Chains[0]
	require.Equal(t, 3, a.Len())
	assert.Equal(t, 2.5, a.Atom(1).Coord.X)
	require.Len(t, s.Diagnostics, 1)
	assert.Contains(t, s.Diagnostics[0].Msg, "twice")
	assert.Equal(t, 3, s.Diagnostics[0].Line)

	_, err = read(t, file(lnN, lnCA, dup, lnC), true)
	assert.Error(t, err)
}

// TestDiscontinuousChain has chain A, then B, then A again. The second
// lot of A atoms goes into the first A chain.
func TestDiscontinuousChain(t *testing.T) {
	s, err := read(t, file(lnN, lnCA, lnZN, lnC), false)
	require.NoError(t, err)
	require.Len(t, s.Chains, 2)
	assert.Equal(t, "A", s.Chains[0].Name())
	assert.Equal(t, "B", s.Chains[1].Name())
	assert.Equal(t, 3, s.Chains[0].Len())
	require.NotEmpty(t, s.Diagnostics)
	assert.Contains(t, s.Diagnostics[0].Msg, "discontinuous")
	assert.Equal(t, 4, s.Diagnostics[0].Line)

	_, err = read(t, file(lnN, lnCA, lnZN, lnC), true)
	assert.Error(t, err)
}

func TestDiscontinuousResidue(t *testing.T) {
	res2 := splice(splice(lnC, 27, "    2"), 14, "  O  ")
	s, err := read(t, file(lnN, res2, lnCA), false)
	require.NoError(t, err)
	require.Len(t, s.Chains, 1)
	assert.Equal(t, 3, s.Chains[0].Len())
	require.Len(t, s.Diagnostics, 1)
	assert.Contains(t, s.Diagnostics[0].Msg, "residue 1")
}

func TestNameWithSpaces(t *testing.T) {
	s, err := read(t, file(splice(lnCA, 14, " N B ")), true)
	require.NoError(t, err)
	a := s.Chains[0].Atom(0)
	assert.Equal(t, " N B ", a.Name)
	assert.Equal(t, " N B ", a.FullName)
}

func TestNoAtoms(t *testing.T) {
	_, err := read(t, file("REMARK nothing here", "END"), false)
	assert.ErrorIs(t, err, xbgf.ErrNoAtoms)
	_, err = read(t, "", false)
	assert.ErrorIs(t, err, xbgf.ErrNoAtoms)
}

func TestCRLF(t *testing.T) {
	s, err := read(t, lnN+"\r\n"+lnCA[:97]+"\r\n", false)
	require.NoError(t, err)
	assert.Equal(t, "N", s.Chains[0].Atom(0).Element)
	assert.Len(t, s.Diagnostics, 1)
}

func gz(t *testing.T, text string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(text))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestReadGzip(t *testing.T) {
	s, err := xbgf.Read(bytes.NewReader(gz(t, file(lnN, lnCA, lnC))), xbgf.Options{})
	require.NoError(t, err)
	assert.Equal(t, 3, s.Chains[0].Len())
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "x.xbgf")
	packed := filepath.Join(dir, "x.xbgf.gz")
	empty := filepath.Join(dir, "empty.xbgf")
	text := file(lnN, lnCA, lnC, lnHOH)
	require.NoError(t, os.WriteFile(plain, []byte(text), 0o644))
	require.NoError(t, os.WriteFile(packed, gz(t, text), 0o644))
	require.NoError(t, os.WriteFile(empty, nil, 0o644))

	for _, fname := range []string{plain, packed} {
		s, err := xbgf.ReadFile(fname, xbgf.Options{Strict: true})
		require.NoError(t, err, fname)
		require.Len(t, s.Chains, 2, fname)
		assert.Equal(t, "CA", s.Chains[0].Atom(1).Name, fname)
	}
	_, err := xbgf.ReadFile(empty, xbgf.Options{})
	assert.ErrorIs(t, err, xbgf.ErrNoAtoms)
	_, err = xbgf.ReadFile(filepath.Join(dir, "missing"), xbgf.Options{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestElementTable(t *testing.T) {
	for n := 1; n <= 118; n++ {
		sym, ok := xbgf.Element(n)
		require.True(t, ok, "element %d", n)
		assert.Equal(t, n, xbgf.AtomicNumber(sym))
	}
	_, ok := xbgf.Element(119)
	assert.False(t, ok)
	assert.Equal(t, 26, xbgf.AtomicNumber("Fe"))
	assert.Equal(t, 0, xbgf.AtomicNumber(""))
}

// TestWriteLayout reads a file, writes it and checks the lines come out
// as they went in, apart from serial numbers.
func TestWriteLayout(t *testing.T) {
	in := []string{lnN, lnCA, lnC, lnHOH, lnZN}
	s, err := read(t, file(in...), true)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, xbgf.Write(&buf, s.Chains...))
	out := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, out, len(in)+1)
	assert.Equal(t, "END", out[len(out)-1])
	for i, line := range in {
		assert.Equal(t, line, out[i])
	}
}

func TestWriteRenumbers(t *testing.T) {
	s, err := read(t, file(splice(lnN, 6, "    900"), splice(lnCA, 6, "     17")), true)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, xbgf.Write(&buf, s.Chains...))
	back, err := read(t, buf.String(), true)
	require.NoError(t, err)
	assert.Equal(t, 1, back.Chains[0].Atom(0).Serial)
	assert.Equal(t, 2, back.Chains[0].Atom(1).Serial)
}

// TestRoundTrip moves a chain, writes its world positions, reads them
// back and scores both against the same partner.
func TestRoundTrip(t *testing.T) {
	s, err := read(t, file(lnN, lnCA, lnC, lnZN), true)
	require.NoError(t, err)
	a, partner := s.Chains[0], s.Chains[1]
	a.RotateY(1)
	a.Translate(r3.Vec{X: 0.25})
	want := energy.Default.Committed(a, partner, energy.DefaultRadius)

	var buf bytes.Buffer
	require.NoError(t, xbgf.Write(&buf, a))
	back, err := read(t, buf.String(), true)
	require.NoError(t, err)
	got := energy.Default.Committed(back.Chains[0], partner, energy.DefaultRadius)
	assert.InDelta(t, want, got, 1e-4*math.Max(1, math.Abs(want)))
	for i := 0; i < a.Len(); i++ {
		assert.InDelta(t, 0, r3.Norm(r3.Sub(a.Position(i), back.Chains[0].Position(i))), 1e-5)
	}
}

// TestBrokenReader cuts the input off part way with an error.
func TestBrokenReader(t *testing.T) {
	broken := errors.New("disk gone")
	r := io.MultiReader(strings.NewReader(file(lnN, lnCA)), iotest.ErrReader(broken))
	_, err := xbgf.Read(r, xbgf.Options{})
	assert.ErrorIs(t, err, broken)
	assert.Contains(t, err.Error(), "after line 2")

	_, err = xbgf.Read(iotest.OneByteReader(strings.NewReader(file(lnN, lnCA))), xbgf.Options{Strict: true})
	assert.NoError(t, err)
}

var widetests = []struct {
	name   string
	coord  r3.Vec
	q      float64
	resSeq int
	ok     bool
}{
	{"fits", r3.Vec{X: -999.5, Y: 9999.5}, -9.5, 99999, true},
	{"x too negative", r3.Vec{X: -1234.5, Y: 2}, 0.1, 1, false},
	{"z too big", r3.Vec{Z: 12345}, 0.1, 1, false},
	{"charge", r3.Vec{}, -12, 1, false},
	{"residue number", r3.Vec{}, 0.1, 123456, false},
}

// TestWriteTooWide checks a number that cannot fit its columns is an
// error and not a shifted record.
func TestWriteTooWide(t *testing.T) {
	for _, tt := range widetests {
		atoms := []chain.Atom{{Name: "C", ResName: "GLY", ResSeq: tt.resSeq, Het: ' ',
			ChainID: "A", Coord: tt.coord, Occupancy: 1, Element: "C"}}
		c, err := chain.New("A", atoms, []float64{tt.q})
		require.NoError(t, err, tt.name)
		var buf bytes.Buffer
		err = xbgf.Write(&buf, c)
		if !tt.ok {
			assert.ErrorIs(t, err, xbgf.ErrTooWide, tt.name)
			assert.NotContains(t, buf.String(), "END", tt.name)
			continue
		}
		require.NoError(t, err, tt.name)
		back, err := read(t, buf.String(), true)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.coord, back.Chains[0].Local(0), tt.name)
		assert.Equal(t, tt.q, back.Chains[0].Charge(0), tt.name)
		assert.Equal(t, tt.resSeq, back.Chains[0].Atom(0).ResSeq, tt.name)
	}
}

func TestAtomOnly(t *testing.T) {
	text := file(lnN, lnCA, lnHOH, lnZN)
	s, err := read(t, text, true)
	require.NoError(t, err)
	assert.Len(t, s.Chains, 3)

	s, err = xbgf.Read(strings.NewReader(text), xbgf.Options{Strict: true, AtomOnly: true})
	require.NoError(t, err)
	require.Len(t, s.Chains, 1)
	assert.Equal(t, 2, s.Chains[0].Len())

	_, err = xbgf.Read(strings.NewReader(file(lnHOH, lnZN)), xbgf.Options{AtomOnly: true})
	assert.ErrorIs(t, err, xbgf.ErrNoAtoms)
}
