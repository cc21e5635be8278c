package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"ifcgo/internal/cursor"
	"ifcgo/internal/geombackend/mock"
)

func cmdDumpBrep(args []string) error {
	fs := flag.NewFlagSet("dump-brep", flag.ExitOnError)
	file := fs.String("file", "", "path to the .ifc file")
	out := fs.String("out", "", "output directory, one .brep file per product")
	common := registerCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" || *out == "" {
		return fmt.Errorf("--file and --out are required")
	}
	cfg, err := common.build()
	if err != nil {
		return err
	}
	cfg.UseBrepData = true

	if err := os.MkdirAll(*out, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	it, err := cursor.Open(*file, cfg, mock.New())
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer it.Close()

	ctx := context.Background()
	written := 0
	for it.Next(ctx) {
		model := it.CurrentShapeModel()
		data := it.CurrentBrepData()
		if data == "" {
			continue
		}
		path := filepath.Join(*out, fmt.Sprintf("%d.brep", model.Product.ID))
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		written++
	}
	fmt.Printf("%d brep files written to %s\n", written, *out)
	return nil
}
