// Package units resolves an IfcUnitAssignment into the scalar conversion
// factors the geometry pipeline needs (length to metres, plane angle to
// radians), porting UnitPrefixToValue's SI-prefix table and Ifc::Init's
// unit-assignment walk from IfcParse.cpp.
package units

import (
	"fmt"
	"strings"

	"ifcgo/internal/ifcerr"
	"ifcgo/internal/ifcparse"
	"ifcgo/internal/ifcschema"
)

// prefixValue is the SI prefix table, EXA down to ATTO, verbatim from
// UnitPrefixToValue.
var prefixValue = map[string]float64{
	"EXA":   1e18,
	"PETA":  1e15,
	"TERA":  1e12,
	"GIGA":  1e9,
	"MEGA":  1e6,
	"KILO":  1e3,
	"HECTO": 1e2,
	"DECA":  1e1,
	"DECI":  1e-1,
	"CENTI": 1e-2,
	"MILLI": 1e-3,
	"MICRO": 1e-6,
	"NANO":  1e-9,
	"PICO":  1e-12,
	"FEMTO": 1e-15,
	"ATTO":  1e-18,
}

// PrefixValue returns the multiplier for an SI prefix enumeration name
// (e.g. "MILLI" -> 0.001), or 1 if prefix is empty (no prefix applied).
func PrefixValue(prefix string) float64 {
	if prefix == "" {
		return 1
	}
	if v, ok := prefixValue[strings.ToUpper(prefix)]; ok {
		return v
	}
	return 1
}

// Units holds the scalar conversion factors a run needs, resolved from a
// file's single IfcUnitAssignment.
type Units struct {
	LengthToMetres      float64
	PlaneAngleToRadians float64
}

// Default is the base case InitUnits falls back to before any
// heuristic override: metres and radians.
func Default() *Units {
	return &Units{LengthToMetres: 1, PlaneAngleToRadians: 1}
}

// Determine resolves a file's units from its IfcUnitAssignment if one
// exists. Otherwise it falls back to Default, except that — per spec
// §4.F's verbatim heuristic, ported from InitUnits in
// IfcGeomObjects.cpp — if no unit assignment exists but some
// IfcExtrudedAreaSolid's Depth exceeds 100 model units, the length unit
// is assumed to be millimetres instead.
func Determine(store *ifcparse.Store) *Units {
	if ids := store.ByType(ifcschema.IfcUnitAssignment); len(ids) > 0 {
		if resolved, err := Resolve(store, ids[0]); err == nil {
			return resolved
		}
	}
	if tallestExtrusionDepth(store) > 100 {
		return &Units{LengthToMetres: 1e-3, PlaneAngleToRadians: 1}
	}
	return Default()
}

// tallestExtrusionDepth scans every IfcExtrudedAreaSolid in the file for
// the largest Depth attribute, feeding Determine's millimetre heuristic.
func tallestExtrusionDepth(store *ifcparse.Store) float64 {
	var tallest float64
	for _, id := range store.ByType(ifcschema.IfcExtrudedAreaSolid) {
		inst, err := store.ByID(id)
		if err != nil {
			continue
		}
		depth, err := ifcschema.NewExtrudedAreaSolid(inst).Depth()
		if err != nil {
			continue
		}
		if depth > tallest {
			tallest = depth
		}
	}
	return tallest
}

// Resolve walks the unit assignment referenced by unitAssignmentID,
// filling in any unit type the original exposes and leaving Default's
// value for a unit type the file doesn't declare.
func Resolve(store *ifcparse.Store, unitAssignmentID int64) (*Units, error) {
	inst, err := store.ByID(unitAssignmentID)
	if err != nil {
		return nil, err
	}
	ua := ifcschema.NewUnitAssignment(inst)
	refs, err := ua.UnitRefs()
	if err != nil {
		return nil, err
	}

	u := Default()
	for _, ref := range refs {
		unitInst, err := store.ByID(ref)
		if err != nil {
			continue
		}
		if err := resolveOne(store, unitInst, u); err != nil {
			continue
		}
	}
	return u, nil
}

func resolveOne(store *ifcparse.Store, inst *ifcparse.Instance, u *Units) error {
	switch {
	case ifcschema.Is(inst.Type, ifcschema.IfcSIUnit):
		si := ifcschema.NewSIUnit(inst)
		name, err := si.Name()
		if err != nil {
			return err
		}
		prefix := ""
		if si.HasPrefix() {
			prefix, _ = si.Prefix()
		}
		factor := PrefixValue(prefix)
		switch strings.ToUpper(name) {
		case "METRE":
			u.LengthToMetres = factor
		case "RADIAN":
			u.PlaneAngleToRadians = factor
		}
		return nil

	case ifcschema.Is(inst.Type, ifcschema.IfcConversionBasedUnit):
		cbu := ifcschema.NewConversionBasedUnit(inst)
		factorRef, err := cbu.ConversionFactorRef()
		if err != nil {
			return err
		}
		factorInst, err := store.ByID(factorRef)
		if err != nil {
			return err
		}
		mwu := ifcschema.NewMeasureWithUnit(factorInst)
		valueArg, err := mwu.ValueComponent()
		if err != nil {
			return err
		}
		value, err := valueArg.AsFloat()
		if err != nil {
			return err
		}
		componentRef, err := mwu.UnitComponentRef()
		if err != nil {
			return err
		}
		componentInst, err := store.ByID(componentRef)
		if err != nil {
			return err
		}
		// The component is itself an SI (or further conversion-based) unit;
		// resolve it into a scratch Units and scale by value, matching the
		// original's recursive ConversionFactor handling.
		scratch := &Units{LengthToMetres: 1, PlaneAngleToRadians: 1}
		if err := resolveOne(store, componentInst, scratch); err != nil {
			return err
		}
		name, err := cbu.Name()
		if err != nil {
			return err
		}
		switch strings.ToUpper(name) {
		case "INCH", "FOOT", "YARD", "MILE":
			u.LengthToMetres = value * scratch.LengthToMetres
		case "DEGREE":
			u.PlaneAngleToRadians = value * scratch.PlaneAngleToRadians
		default:
			if scratch.LengthToMetres != 1 {
				u.LengthToMetres = value * scratch.LengthToMetres
			} else if scratch.PlaneAngleToRadians != 1 {
				u.PlaneAngleToRadians = value * scratch.PlaneAngleToRadians
			}
		}
		return nil
	}
	return fmt.Errorf("%w: unit instance #%d is not a recognized unit type", ifcerr.ErrUnsupported, inst.ID)
}
