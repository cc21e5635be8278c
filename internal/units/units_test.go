package units

import (
	"os"
	"path/filepath"
	"testing"

	"ifcgo/internal/ifcerr"
	"ifcgo/internal/ifcparse"
)

func openTestStore(t *testing.T, content string) *ifcparse.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.ifc")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	store, err := ifcparse.Open(path, ifcerr.ModeBestEffort)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPrefixValue(t *testing.T) {
	tests := []struct {
		prefix string
		want   float64
	}{
		{"", 1},
		{"MILLI", 1e-3},
		{"milli", 1e-3},
		{"KILO", 1e3},
		{"CENTI", 1e-2},
		{"EXA", 1e18},
		{"ATTO", 1e-18},
		{"BOGUS", 1},
	}
	for _, tt := range tests {
		if got := PrefixValue(tt.prefix); got != tt.want {
			t.Errorf("PrefixValue(%q) = %g, want %g", tt.prefix, got, tt.want)
		}
	}
}

func TestDefault(t *testing.T) {
	u := Default()
	if u.LengthToMetres != 1 {
		t.Errorf("Default().LengthToMetres = %g, want 1", u.LengthToMetres)
	}
	if u.PlaneAngleToRadians != 1 {
		t.Errorf("Default().PlaneAngleToRadians = %g, want 1", u.PlaneAngleToRadians)
	}
}

// A file with no IfcUnitAssignment and no extrusion over 100 model
// units must fall back to metres (Default), per spec §4.F.
func TestDetermine_NoUnitAssignmentSmallExtrusionFallsBackToMetres(t *testing.T) {
	const content = `
#1=IFCCARTESIANPOINT((0.,0.,0.));
#2=IFCAXIS2PLACEMENT3D(#1,$,$);
#3=IFCRECTANGLEPROFILEDEF(.AREA.,$,$,2.,3.);
#4=IFCDIRECTION((0.,0.,1.));
#5=IFCEXTRUDEDAREASOLID(#3,#2,#4,5.);
`
	store := openTestStore(t, content)
	u := Determine(store)
	if u.LengthToMetres != 1 {
		t.Errorf("Determine().LengthToMetres = %g, want 1 (metres)", u.LengthToMetres)
	}
}

// A file with no IfcUnitAssignment but an extrusion deeper than 100
// model units must be assumed to be in millimetres, per spec §4.F's
// verbatim heuristic.
func TestDetermine_NoUnitAssignmentTallExtrusionFallsBackToMillimetres(t *testing.T) {
	const content = `
#1=IFCCARTESIANPOINT((0.,0.,0.));
#2=IFCAXIS2PLACEMENT3D(#1,$,$);
#3=IFCRECTANGLEPROFILEDEF(.AREA.,$,$,2.,3.);
#4=IFCDIRECTION((0.,0.,1.));
#5=IFCEXTRUDEDAREASOLID(#3,#2,#4,2500.);
`
	store := openTestStore(t, content)
	u := Determine(store)
	if u.LengthToMetres != 1e-3 {
		t.Errorf("Determine().LengthToMetres = %g, want 1e-3 (millimetres)", u.LengthToMetres)
	}
}

// When an IfcUnitAssignment is present, Determine must defer to Resolve
// rather than ever consulting the extrusion-depth heuristic.
func TestDetermine_PrefersUnitAssignmentOverHeuristic(t *testing.T) {
	const content = `
#1=IFCSIUNIT(.LENGTHUNIT.,.MILLI.,.METRE.);
#2=IFCSIUNIT(.PLANEANGLEUNIT.,$,.RADIAN.);
#3=IFCUNITASSIGNMENT((#1,#2));
#4=IFCCARTESIANPOINT((0.,0.,0.));
#5=IFCAXIS2PLACEMENT3D(#4,$,$);
#6=IFCRECTANGLEPROFILEDEF(.AREA.,$,$,2.,3.);
#7=IFCDIRECTION((0.,0.,1.));
#8=IFCEXTRUDEDAREASOLID(#6,#5,#7,2500.);
`
	store := openTestStore(t, content)
	u := Determine(store)
	if u.LengthToMetres != 1e-3 {
		t.Errorf("Determine().LengthToMetres = %g, want 1e-3 (from the declared SI unit, not the heuristic)", u.LengthToMetres)
	}
}
