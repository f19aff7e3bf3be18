package xbgf

import "strings"

// elements maps atomic number to the symbol as it appears in xbgf
// files. Index 0 is unused.
var elements = [...]string{"",
	"H", "HE", "LI", "BE", "B", "C", "N", "O", "F", "NE",
	"NA", "MG", "AL", "SI", "P", "S", "CL", "AR", "K", "CA",
	"SC", "TI", "V", "CR", "MN", "FE", "CO", "NI", "CU", "ZN",
	"GA", "GE", "AS", "SE", "BR", "KR", "RB", "SR", "Y", "ZR",
	"NB", "MO", "TC", "RU", "RH", "PD", "AG", "CD", "IN", "SN",
	"SB", "TE", "I", "XE", "CS", "BA", "LA", "CE", "PR", "ND",
	"PM", "SM", "EU", "GD", "TB", "DY", "HO", "ER", "TM", "YB",
	"LU", "HF", "TA", "W", "RE", "OS", "IR", "PT", "AU", "HG",
	"TL", "PB", "BI", "PO", "AT", "RN", "FR", "RA", "AC", "TH",
	"PA", "U", "NP", "PU", "AM", "CM", "BK", "CF", "ES", "FM",
	"MD", "NO", "LR", "RF", "DB", "SG", "BH", "HS", "MT", "DS",
	"RG", "CN", "UUT", "UUQ", "UUP", "UUH", "UUS", "UUO",
}

var atomicNum = func() map[string]int {
	m := make(map[string]int, len(elements))
	for i, s := range elements[1:] {
		m[s] = i + 1
	}
	return m
}()

// Element gives the symbol for atomic number n, or false if there is
// no such element.
func Element(n int) (string, bool) {
	if n < 1 || n >= len(elements) {
		return "", false
	}
	return elements[n], true
}

// AtomicNumber is the inverse of Element. Case does not matter.
// Unknown symbols give 0.
func AtomicNumber(sym string) int {
	return atomicNum[strings.ToUpper(strings.TrimSpace(sym))]
}

// aminos are the residue names treated as amino acids.
var aminos = map[string]bool{
	"ALA": true, "ARG": true, "ASN": true, "ASP": true, "CYS": true,
	"GLU": true, "GLN": true, "GLY": true, "HIS": true, "ILE": true,
	"LEU": true, "LYS": true, "MET": true, "PHE": true, "PRO": true,
	"SER": true, "THR": true, "TRP": true, "TYR": true, "VAL": true,
	"UNK": true, "ASX": true, "GLX": true, "MSE": true, "SEC": true,
	"PYL": true,
}

// hetFlag is ' ' for amino acids, 'W' for water and 'H' for anything
// else.
func hetFlag(resName string) byte {
	r := strings.ToUpper(strings.TrimSpace(resName))
	switch {
	case aminos[r]:
		return ' '
	case r == "HOH" || r == "WAT":
		return 'W'
	}
	return 'H'
}
