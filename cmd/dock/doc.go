// 19 Oct 2026

/*
Dock scores and rigidly docks two charged chains read from xbgf files.

With one file, the first chain is the target and the second chain is
the one that moves. With two files, the target is the first chain of
the first file and the mobile chain is the first chain of the second.
Files may be gzipped.

Usage:

	dock score [flags] FILE [PARTNER]
	dock optimize [flags] FILE [PARTNER]
	dock write [flags] FILE

score prints the interaction energy. The mobile chain can be turned
first with --rx, --ry and --rz (radians, applied in that order).

optimize moves the mobile chain to lower the energy and prints the
start and best scores. With --out, both chains are written after the
move. With --plot, the best score at each level is drawn as a PNG.
It stops early after --timeout or --budget moves and keeps the best
pose found so far.

write reads a file and writes all its chains again, renumbered.

The flags for every command are
	--config file
		yaml file with settings. Flags override it.
	--log dest
		"" for no logging, stdout, stderr (default) or a file name
	--log-level level
		debug, info, warn or error
	--strict
		stop at the first bad record instead of using a default
	--radius r
		interaction cutoff (12)
	--terms t
		coulomb, vdw or coulomb+vdw

optimize also takes --max-level, --trials, --coverage, --seed, --workers
and --budget.

Exit codes are 0 for success, 1 for failure and 2 for a usage error.
*/
package main
