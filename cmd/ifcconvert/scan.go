package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"ifcgo/internal/ifcerr"
	"ifcgo/internal/ifcparse"
	"ifcgo/internal/ifcschema"
	"ifcgo/internal/units"
)

type scanSummary struct {
	Instances           int            `json:"instances"`
	TypeCounts          map[string]int `json:"type_counts"`
	LengthToMetres      float64        `json:"length_to_metres"`
	PlaneAngleToRadians float64        `json:"plane_angle_to_radians"`
	Diagnostics         []string       `json:"diagnostics,omitempty"`
}

func cmdScan(args []string) error {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	file := fs.String("file", "", "path to the .ifc file")
	strict := fs.Bool("strict", false, "fail on first structural error")
	jsonOut := fs.Bool("json", false, "output as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("--file is required")
	}

	mode := ifcerr.ModeBestEffort
	if *strict {
		mode = ifcerr.ModeStrict
	}

	store, err := ifcparse.Open(*file, mode)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer store.Close()

	summary := scanSummary{Instances: store.Len(), TypeCounts: make(map[string]int)}
	for i := 1; i < ifcschema.NumTags(); i++ {
		t := ifcschema.Tag(i)
		if n := len(store.ByType(t)); n > 0 {
			summary.TypeCounts[ifcschema.Name(t)] = n
		}
	}
	u := units.Determine(store)
	summary.LengthToMetres = u.LengthToMetres
	summary.PlaneAngleToRadians = u.PlaneAngleToRadians
	for _, d := range store.Log.Items() {
		summary.Diagnostics = append(summary.Diagnostics, d.String())
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	fmt.Printf("Instances: %d\n", summary.Instances)
	fmt.Printf("Length unit: %g metres  Plane angle unit: %g radians\n", summary.LengthToMetres, summary.PlaneAngleToRadians)
	fmt.Println("\nType counts:")
	for name, n := range summary.TypeCounts {
		fmt.Printf("  %-34s %d\n", name, n)
	}
	if len(summary.Diagnostics) > 0 {
		fmt.Printf("\nDiagnostics (%d):\n", len(summary.Diagnostics))
		for _, d := range summary.Diagnostics {
			fmt.Printf("  %s\n", d)
		}
	}
	return nil
}
