package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"ifcgo/internal/cursor"
	"ifcgo/internal/geombackend/mock"
)

func cmdIterate(args []string) error {
	fs := flag.NewFlagSet("iterate", flag.ExitOnError)
	file := fs.String("file", "", "path to the .ifc file")
	common := registerCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("--file is required")
	}
	cfg, err := common.build()
	if err != nil {
		return err
	}

	it, err := cursor.Open(*file, cfg, mock.New())
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer it.Close()

	ctx := context.Background()
	n := 0
	for it.Next(ctx) {
		n++
		model := it.CurrentShapeModel()
		fmt.Printf("#%d %-24s %-36s items=%d", model.Product.ID, model.Product.Type, model.Product.GlobalID, len(model.Items))
		if m := it.CurrentTriangulation(); m != nil {
			fmt.Printf(" vertices=%d triangles=%d", len(m.Vertices), len(m.Indices))
		}
		if b := it.CurrentBrepData(); b != "" {
			fmt.Printf(" brep_bytes=%d", len(b))
		}
		fmt.Printf(" progress=%d%%\n", it.Progress())
	}

	fmt.Printf("\n%d products visited. Unit: %s (%g m)\n", n, it.UnitName(), it.UnitMagnitude())
	if log := it.Log(); log != "" {
		fmt.Fprintf(os.Stderr, "\nDiagnostics:\n%s", log)
	}
	return nil
}
