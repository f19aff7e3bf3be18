// 19 Oct 2026

package main

import (
	"os"

	"github.com/lukfugl/docking/pkg/dock"
)

func main() {
	os.Exit(dock.MyMain(os.Args[1:], os.Stdout, os.Stderr))
}
