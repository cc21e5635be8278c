// Command ifcconvert is the reference CLI front end over the geometry
// iterator, ported from unflutter's subcommand-switch main() in
// cmd/unflutter/main.go.
package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "scan":
		err = cmdScan(os.Args[2:])
	case "iterate":
		err = cmdIterate(os.Args[2:])
	case "dump-brep":
		err = cmdDumpBrep(os.Args[2:])
	case "help", "-h", "--help":
		usage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `ifcconvert — STEP/IFC physical-file parser and geometry iterator

Usage:
  ifcconvert scan      --file <path> [--json]            Parse and summarize a file
  ifcconvert iterate   --file <path> [flags]               Walk every product, print shape/mesh stats
  ifcconvert dump-brep --file <path> --out <dir>          Iterate with brep output, one file per product

Flags (iterate/dump-brep):
  --file <path>                 Path to the .ifc file (required)
  --world-coords                 Bake placement into every shape item
  --no-weld                      Disable vertex welding
  --convert-back-units           Divide mesh coordinates back to file units
  --brep                         Populate current_brep_data() (iterate only)
  --no-triangulation             Skip mesh building
  --strict                       Abort the parse on the first malformed instance
  --config <path>                 YAML settings overlay (see internal/ifcopts)
`)
}
