package xbgf

import (
	"strconv"
)

const maxMsgLen = 70

// Error is for the plain errors from this package.
type Error string

func (e Error) Error() string { return string(e) }

// ErrNoAtoms says the input had no ATOM or HETATM records.
const ErrNoAtoms = Error("no ATOM or HETATM records")

// ErrTooWide says a number would not fit in its columns on writing.
const ErrTooWide = Error("number too wide for its columns")

// ReadError is what a strict read returns when a record is bad. It
// saves the line number and the line we were trying to read.
type ReadError struct {
	Line int    // line number, starting from 1
	Text string // the line that provoked the error
	Desc string // what was wrong
}

func firstPart(s string) string {
	l := len(s)
	if l > maxMsgLen {
		l = maxMsgLen
	}
	return s[:l]
}

func (e *ReadError) Error() string {
	msg := "line " + strconv.Itoa(e.Line) + ": " + e.Desc
	if e.Text != "" {
		msg += "\nline starting with\n" + firstPart(e.Text)
	}
	return msg
}

// Diagnostic is a problem that a permissive read put up with.
type Diagnostic struct {
	Line int
	Msg  string
}

func (d Diagnostic) String() string {
	return "line " + strconv.Itoa(d.Line) + ": " + d.Msg
}
