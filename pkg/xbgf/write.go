package xbgf

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/lukfugl/docking/pkg/chain"
)

// one record, laid out in the columns Read expects. The numbers are
// formatted first, by number, so their widths can be checked.
const recFmt = "%-6s%s %-5s %-4s %1s %s%s%s%s%12s%s %s%s%4d\n"

// fit pads or cuts s to exactly n characters.
func fit(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return fmt.Sprintf("%-*s", n, s)
}

// number formats v. If the result is wider than width, it would push
// the later fields out of their columns, so it is an error.
func number(what, format string, width int, v any) (string, error) {
	s := fmt.Sprintf(format, v)
	if len(s) > width {
		return "", fmt.Errorf("%s %s needs %d columns, has %d: %w",
			what, strings.TrimSpace(s), len(s), width, ErrTooWide)
	}
	return s, nil
}

// Write puts out every atom of each chain at its current world
// position, followed by an END line. Serial numbers are rewritten to
// run from 1 over the whole file. Charges keep five decimal places.
// A number too wide for its columns stops the writing with an error
// wrapping ErrTooWide. Records before it have been written.
func Write(w io.Writer, chains ...*chain.Chain) error {
	bw := bufio.NewWriter(w)
	serial := 0
	for _, c := range chains {
		for i := 0; i < c.Len(); i++ {
			a := c.Atom(i)
			serial++
			rec := "ATOM  "
			if a.Het != ' ' && a.Het != 0 {
				rec = "HETATM"
			}
			name := a.FullName
			if name == "" {
				name = a.Name
			}
			id := a.ChainID
			if id == "" {
				id = c.Name()
			}
			p := c.Position(i)
			cols := [...]struct {
				what, format string
				width        int
				v            any
			}{
				{"serial", "%7d", 7, serial},
				{"residue number", "%5d", 5, a.ResSeq},
				{"x", "%10.5f", 10, p.X},
				{"y", "%10.5f", 10, p.Y},
				{"z", "%10.5f", 10, p.Z},
				{"charge", "%8.5f", 8, c.Charge(i)},
				{"bfactor", "%7.3f", 7, a.BFactor},
				{"occupancy", "%7.3f", 7, a.Occupancy},
			}
			var s [len(cols)]string
			for j, col := range cols {
				var err error
				if s[j], err = number(col.what, col.format, col.width, col.v); err != nil {
					bw.Flush()
					return fmt.Errorf("xbgf write, chain %s atom %d: %w", c.Name(), i+1, err)
				}
			}
			if _, err := fmt.Fprintf(bw, recFmt, rec, s[0], fit(name, 5),
				fit(a.ResName, 4), fit(id, 1), s[1], s[2], s[3], s[4], "",
				s[5], s[6], s[7], AtomicNumber(a.Element)); err != nil {
				return err
			}
		}
	}
	if _, err := bw.WriteString("END\n"); err != nil {
		return err
	}
	return bw.Flush()
}
