package main

import (
	"flag"

	"ifcgo/internal/ifcerr"
	"ifcgo/internal/ifcopts"
)

// commonFlags is the --world-coords/--no-weld/... flag set iterate and
// dump-brep share, mirroring unflutter's repeated --lib/--out/--strict
// flags across its own subcommands (cmd/unflutter/scan.go, dump.go).
type commonFlags struct {
	worldCoords      *bool
	noWeld           *bool
	convertBackUnits *bool
	brep             *bool
	noTriangulation  *bool
	strict           *bool
	config           *string
}

func registerCommonFlags(fs *flag.FlagSet) *commonFlags {
	return &commonFlags{
		worldCoords:      fs.Bool("world-coords", false, "bake placement into every shape item"),
		noWeld:           fs.Bool("no-weld", false, "disable vertex welding"),
		convertBackUnits: fs.Bool("convert-back-units", false, "divide mesh coordinates back to file units"),
		brep:             fs.Bool("brep", false, "populate current_brep_data()"),
		noTriangulation:  fs.Bool("no-triangulation", false, "skip mesh building"),
		strict:           fs.Bool("strict", false, "abort the parse on the first malformed instance"),
		config:           fs.String("config", "", "YAML settings overlay"),
	}
}

func (c *commonFlags) build() (*ifcopts.Config, error) {
	cfg := ifcopts.Default()
	if *c.config != "" {
		loaded, err := ifcopts.LoadYAML(*c.config, cfg)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.UseWorldCoords = cfg.UseWorldCoords || *c.worldCoords
	cfg.WeldVertices = cfg.WeldVertices && !*c.noWeld
	cfg.ConvertBackUnits = cfg.ConvertBackUnits || *c.convertBackUnits
	cfg.UseBrepData = cfg.UseBrepData || *c.brep
	cfg.DisableTriangulation = cfg.DisableTriangulation || *c.noTriangulation
	if *c.strict {
		cfg.Mode = ifcerr.ModeStrict
	}
	return cfg, nil
}
