// 19 Oct 2026

// Package xbgf reads and writes xbgf coordinate files. These look like
// PDB files, but the columns are in different places and each atom
// carries a partial charge.
//
// Columns (counting from zero, end not included) are
//
//	record     0:6   "ATOM  " or "HETATM", other lines are ignored
//	serial     6:13
//	atom name  14:19
//	res name   20:24
//	chain      25:26
//	res seq    27:32
//	x y z      32:42 42:52 52:62
//	charge     74:82
//	b-factor   83:90
//	occupancy  90:97
//	element    97:101 as an atomic number
//
// HETATM records are read like ATOM records, so ligands and waters
// written that way are not lost. Options.AtomOnly goes back to reading
// only ATOM records, as older xbgf readers did.
// A bad serial number is quietly taken as zero. Any other bad field is
// replaced by its default (zero, or "" for the element). In strict mode
// it is an error instead.
package xbgf

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/lukfugl/docking/pkg/chain"
)

const maxLine = 1 << 20 // longest line we accept

// Options control reading.
type Options struct {
	Strict   bool         // stop at the first problem
	AtomOnly bool         // skip HETATM records
	Logger   *slog.Logger // problems in permissive mode are logged here at warn level
}

// Structure is what comes out of a file. Chains are in the order they
// were first seen.
type Structure struct {
	Chains      []*chain.Chain
	Diagnostics []Diagnostic
}

// Chain returns the chain called id, or nil.
func (s *Structure) Chain(id string) *chain.Chain {
	for _, c := range s.Chains {
		if c.Name() == id {
			return c
		}
	}
	return nil
}

// resKey identifies a residue within a chain.
type resKey struct {
	het byte
	seq int
}

// pending collects the atoms of one chain while reading.
type pending struct {
	id      string
	atoms   []chain.Atom
	charges []float64
	names   map[resKey]map[string]bool // atom names seen per residue
	cur     resKey
	curName string
	inRes   bool
}

type builder struct {
	opts  Options
	log   *slog.Logger
	order []*pending
	byID  map[string]*pending
	cur   *pending
	diags []Diagnostic
	n     int    // line number
	line  string // current line
}

// field returns columns lo:hi of s, or as much of it as there is.
func field(s string, lo, hi int) string {
	if lo >= len(s) {
		return ""
	}
	if hi > len(s) {
		hi = len(s)
	}
	return s[lo:hi]
}

// problem records a problem with the current line. In strict mode it
// returns the error that stops reading.
func (b *builder) problem(desc string) error {
	if b.opts.Strict {
		return &ReadError{Line: b.n, Text: b.line, Desc: desc}
	}
	b.diags = append(b.diags, Diagnostic{Line: b.n, Msg: desc})
	b.log.Warn("xbgf record", "line", b.n, "problem", desc)
	return nil
}

func (b *builder) float(lo, hi int, what string) (float64, error) {
	s := strings.TrimSpace(field(b.line, lo, hi))
	x, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, b.problem("invalid or missing " + what)
	}
	return x, nil
}

// resSeq is the first word of the residue number field.
func (b *builder) resSeq() (int, error) {
	if tok := strings.Fields(field(b.line, 27, 32)); len(tok) > 0 {
		if n, err := strconv.Atoi(tok[0]); err == nil {
			return n, nil
		}
	}
	return 0, b.problem("invalid or missing residue number")
}

// updateChain makes the chain on the current line the current chain.
func (b *builder) updateChain(id string) error {
	if b.cur != nil && b.cur.id == id {
		return nil
	}
	if p, ok := b.byID[id]; ok {
		b.cur = p
		p.inRes = false
		return b.problem(fmt.Sprintf("chain %q is discontinuous", id))
	}
	p := &pending{id: id, names: make(map[resKey]map[string]bool)}
	b.byID[id] = p
	b.order = append(b.order, p)
	b.cur = p
	return nil
}

// updateResidue makes the residue on the current line current.
func (b *builder) updateResidue(key resKey, resName string) error {
	p := b.cur
	if p.inRes && p.cur == key && p.curName == resName {
		return nil
	}
	p.cur, p.curName, p.inRes = key, resName, true
	if _, ok := p.names[key]; ok {
		return b.problem(fmt.Sprintf("residue %d in chain %q is discontinuous", key.seq, p.id))
	}
	p.names[key] = make(map[string]bool)
	return nil
}

// atom handles one ATOM or HETATM line.
func (b *builder) atom() error {
	var a chain.Atom
	var err error
	a.ChainID = field(b.line, 25, 26)
	if err = b.updateChain(a.ChainID); err != nil {
		return err
	}

	a.ResName = strings.TrimSpace(field(b.line, 20, 24))
	a.Het = hetFlag(a.ResName)
	if a.ResSeq, err = b.resSeq(); err != nil {
		return err
	}
	key := resKey{het: a.Het, seq: a.ResSeq}
	if err = b.updateResidue(key, a.ResName); err != nil {
		return err
	}

	a.FullName = field(b.line, 14, 19)
	a.Name = a.FullName
	if tok := strings.Fields(a.FullName); len(tok) == 1 {
		a.Name = tok[0]
	}
	if n, err := strconv.Atoi(strings.TrimSpace(field(b.line, 6, 13))); err == nil {
		a.Serial = n
	}

	x, errx := strconv.ParseFloat(strings.TrimSpace(field(b.line, 32, 42)), 64)
	y, erry := strconv.ParseFloat(strings.TrimSpace(field(b.line, 42, 52)), 64)
	z, errz := strconv.ParseFloat(strings.TrimSpace(field(b.line, 52, 62)), 64)
	if errx != nil || erry != nil || errz != nil {
		x, y, z = 0, 0, 0
		if err = b.problem("invalid or missing coordinate(s)"); err != nil {
			return err
		}
	}
	a.Coord = r3.Vec{X: x, Y: y, Z: z}

	if a.BFactor, err = b.float(83, 90, "bfactor"); err != nil {
		return err
	}
	if a.Occupancy, err = b.float(90, 97, "occupancy"); err != nil {
		return err
	}
	n, nerr := strconv.Atoi(strings.TrimSpace(field(b.line, 97, 101)))
	sym, ok := Element(n)
	if nerr != nil || !ok {
		if err = b.problem("invalid or missing element"); err != nil {
			return err
		}
	}
	a.Element = sym

	names := b.cur.names[key]
	if names[a.Name] {
		return b.problem(fmt.Sprintf("atom %q defined twice in residue %d", a.Name, a.ResSeq))
	}
	names[a.Name] = true

	q, err := b.float(74, 82, "charge")
	if err != nil {
		return err
	}
	b.cur.atoms = append(b.cur.atoms, a)
	b.cur.charges = append(b.cur.charges, q)
	return nil
}

// Read reads xbgf records from r, which may be gzipped, and builds one
// chain per chain identifier.
func Read(r io.Reader, opts Options) (*Structure, error) {
	zr, err := MaybeGzip(r)
	if err != nil {
		return nil, fmt.Errorf("xbgf: %w", err)
	}
	defer zr.Close()
	b := builder{opts: opts, log: opts.Logger, byID: make(map[string]*pending)}
	if b.log == nil {
		b.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	scanner := bufio.NewScanner(zr)
	scanner.Buffer(make([]byte, 0, 4096), maxLine)
	for scanner.Scan() {
		b.n++
		b.line = strings.TrimRight(scanner.Text(), "\r")
		switch field(b.line, 0, 6) {
		case "HETATM":
			if opts.AtomOnly {
				continue
			}
			fallthrough
		case "ATOM  ":
			if err := b.atom(); err != nil {
				return nil, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("xbgf after line %d: %w", b.n, err)
	}
	if len(b.order) == 0 {
		return nil, ErrNoAtoms
	}

	s := &Structure{Diagnostics: b.diags}
	for _, p := range b.order {
		c, err := chain.New(p.id, p.atoms, p.charges)
		if err != nil {
			return nil, fmt.Errorf("xbgf: %w", err)
		}
		s.Chains = append(s.Chains, c)
	}
	return s, nil
}
