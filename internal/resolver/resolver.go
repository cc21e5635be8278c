// Package resolver implements spec §4.I: for a product, the set of
// opening subtractions it must undergo (direct, or via decomposition)
// and its composed world placement, ported from the placement-chain
// multiplication and HasOpenings/Decomposes walk in the original
// IfcGeomObjects/IfcGeomIterator source.
package resolver

import (
	"context"
	"fmt"
	"math"

	"ifcgo/internal/geom"
	"ifcgo/internal/ifcerr"
	"ifcgo/internal/ifcparse"
	"ifcgo/internal/ifcschema"
)

// Placement composes the ObjectPlacement chain at placementID (IfcLocalPlacement
// -> PlacementRelTo -> ... -> world) into a single world transform.
func Placement(store *ifcparse.Store, placementID int64) (geom.Transform, error) {
	inst, err := store.ByID(placementID)
	if err != nil {
		return geom.Identity(), err
	}
	if !ifcschema.Is(inst.Type, ifcschema.IfcLocalPlacement) {
		return geom.Identity(), fmt.Errorf("%w: #%d is not an IfcLocalPlacement", ifcerr.ErrUnsupported, placementID)
	}
	lp := ifcschema.NewLocalPlacement(inst)

	relRef, err := lp.RelativePlacementRef()
	if err != nil {
		return geom.Identity(), err
	}
	local, err := axis2Placement(store, relRef)
	if err != nil {
		return geom.Identity(), err
	}

	if !lp.HasPlacementRelTo() {
		return local, nil
	}
	parentRef, err := lp.PlacementRelToRef()
	if err != nil {
		return geom.Identity(), err
	}
	parent, err := Placement(store, parentRef)
	if err != nil {
		return geom.Identity(), err
	}
	return local.Then(parent), nil
}

func vec(p geom.Point3) geom.Vec3 { return geom.Vec3{X: p.X, Y: p.Y, Z: p.Z} }

func normalize(v geom.Vec3) geom.Vec3 {
	l := math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
	if l == 0 {
		return v
	}
	return geom.Vec3{X: v.X / l, Y: v.Y / l, Z: v.Z / l}
}

func cross(a, b geom.Vec3) geom.Vec3 {
	return geom.Vec3{X: a.Y*b.Z - a.Z*b.Y, Y: a.Z*b.X - a.X*b.Z, Z: a.X*b.Y - a.Y*b.X}
}

func dot(a, b geom.Vec3) float64 { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }

func sub(a, b geom.Vec3) geom.Vec3 { return geom.Vec3{X: a.X - b.X, Y: a.Y - b.Y, Z: a.Z - b.Z} }

func scale(v geom.Vec3, s float64) geom.Vec3 { return geom.Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s} }

// AxisPlacement resolves a bare IfcAxis2Placement3D (not wrapped in an
// IfcLocalPlacement) into a world transform — the form IfcMappedItem's
// MappingOrigin and IfcExtrudedAreaSolid's Position use directly.
func AxisPlacement(store *ifcparse.Store, axisID int64) (geom.Transform, error) {
	return axis2Placement(store, axisID)
}

// axis2Placement builds a rigid transform from an IfcAxis2Placement3D:
// Location is the translation; Axis (Z) and RefDirection (X, Gram-Schmidt
// orthogonalized against Axis) define the rotation, defaulting to the
// identity basis when absent, as the original does.
func axis2Placement(store *ifcparse.Store, axisID int64) (geom.Transform, error) {
	inst, err := store.ByID(axisID)
	if err != nil {
		return geom.Identity(), err
	}
	ap := ifcschema.NewAxis2Placement3D(inst)

	locRef, err := ap.LocationRef()
	if err != nil {
		return geom.Identity(), err
	}
	locInst, err := store.ByID(locRef)
	if err != nil {
		return geom.Identity(), err
	}
	coords, err := ifcschema.NewCartesianPoint(locInst).Coordinates()
	if err != nil {
		return geom.Identity(), err
	}
	loc := geom.Point3{}
	if len(coords) > 0 {
		loc.X = coords[0]
	}
	if len(coords) > 1 {
		loc.Y = coords[1]
	}
	if len(coords) > 2 {
		loc.Z = coords[2]
	}

	z := geom.Vec3{Z: 1}
	if ap.HasAxis() {
		axisRef, err := ap.AxisRef()
		if err == nil {
			if axisInst, err := store.ByID(axisRef); err == nil {
				if ratios, err := ifcschema.NewDirection(axisInst).DirectionRatios(); err == nil && len(ratios) == 3 {
					z = normalize(geom.Vec3{X: ratios[0], Y: ratios[1], Z: ratios[2]})
				}
			}
		}
	}

	x := geom.Vec3{X: 1}
	if ap.HasRefDirection() {
		refRef, err := ap.RefDirectionRef()
		if err == nil {
			if refInst, err := store.ByID(refRef); err == nil {
				if ratios, err := ifcschema.NewDirection(refInst).DirectionRatios(); err == nil && len(ratios) == 3 {
					raw := geom.Vec3{X: ratios[0], Y: ratios[1], Z: ratios[2]}
					x = normalize(sub(raw, scale(z, dot(raw, z))))
				}
			}
		}
	}
	if x == (geom.Vec3{}) {
		x = geom.Vec3{X: 1}
	}
	y := cross(z, x)

	t := geom.Identity()
	t.M = [3][3]float64{
		{x.X, y.X, z.X},
		{x.Y, y.Y, z.Y},
		{x.Z, y.Z, z.Z},
	}
	t.T = loc
	return t, nil
}

// HasOpenings returns the IfcOpeningElement ids directly voiding
// elementID via IfcRelVoidsElement.
func HasOpenings(store *ifcparse.Store, elementID int64) []int64 {
	var out []int64
	for _, relID := range store.ReferrersWhere(elementID, ifcschema.IfcRelVoidsElement, 4) {
		relInst, err := store.ByID(relID)
		if err != nil {
			continue
		}
		if openingRef, err := ifcschema.NewRelVoidsElement(relInst).RelatedOpeningElementRef(); err == nil {
			out = append(out, openingRef)
		}
	}
	return out
}

// Openings returns every opening that must be subtracted from elementID:
// its own HasOpenings, plus — for an IfcBuildingElementPart — the
// openings of whatever it Decomposes (aggregates/nests) up to, unioned
// in, per spec §4.I.
func Openings(store *ifcparse.Store, elementID int64) []int64 {
	out := HasOpenings(store, elementID)

	inst, err := store.ByID(elementID)
	if err != nil || !ifcschema.Is(inst.Type, ifcschema.IfcBuildingElementPart) {
		return out
	}
	for _, relID := range store.ReferrersListContains(elementID, ifcschema.IfcRelDecomposes, 5) {
		relInst, err := store.ByID(relID)
		if err != nil {
			continue
		}
		parentRef, err := ifcschema.NewRelDecomposes(relInst).RelatingObjectRef()
		if err != nil {
			continue
		}
		out = append(out, HasOpenings(store, parentRef)...)
	}
	return out
}

// ParentID derives elementID's hierarchical parent per spec §4.I's
// precedence: voided element, then filled opening, then spatial
// container, then any decomposition's relating object.
func ParentID(store *ifcparse.Store, elementID int64) (int64, bool) {
	for _, relID := range store.ReferrersWhere(elementID, ifcschema.IfcRelVoidsElement, 5) {
		if relInst, err := store.ByID(relID); err == nil {
			if id, err := ifcschema.NewRelVoidsElement(relInst).RelatingBuildingElementRef(); err == nil {
				return id, true
			}
		}
	}
	for _, relID := range store.ReferrersWhere(elementID, ifcschema.IfcRelFillsElement, 5) {
		if relInst, err := store.ByID(relID); err == nil {
			if id, err := ifcschema.NewRelFillsElement(relInst).RelatingOpeningElementRef(); err == nil {
				return id, true
			}
		}
	}
	for _, relID := range store.ReferrersListContains(elementID, ifcschema.IfcRelContainedInSpatialStructure, 4) {
		if relInst, err := store.ByID(relID); err == nil {
			if id, err := ifcschema.NewRelContainedInSpatialStructure(relInst).RelatingStructureRef(); err == nil {
				return id, true
			}
		}
	}
	for _, relID := range store.ReferrersListContains(elementID, ifcschema.IfcRelDecomposes, 5) {
		if relInst, err := store.ByID(relID); err == nil {
			if id, err := ifcschema.NewRelDecomposes(relInst).RelatingObjectRef(); err == nil {
				return id, true
			}
		}
	}
	return 0, false
}

// ApplyOpenings subtracts each opening's converted shape from base, per
// spec §4.I. When useFasterBooleans is set (spec §4.M's
// use_faster_booleans flag) it tries the fast per-opening path first,
// falling back to subtracting the union of whatever failed; otherwise
// it goes straight to the union path, matching use_faster_booleans'
// default-off behavior in IfcGeomObjects.cpp (the union subtraction is
// the only path taken unless the flag opts into the faster one).
func ApplyOpenings(ctx context.Context, backend geom.Backend, base geom.Shape, openingShapes []geom.Shape, useFasterBooleans bool) (geom.Shape, error) {
	if !useFasterBooleans {
		return subtractUnion(ctx, backend, base, openingShapes)
	}

	result := base
	var failed []geom.Shape
	for _, o := range openingShapes {
		cut, err := backend.BooleanSubtract(ctx, result, o)
		if err != nil {
			failed = append(failed, o)
			continue
		}
		result = cut
	}
	if len(failed) == 0 {
		return result, nil
	}
	return subtractUnion(ctx, backend, result, failed)
}

// subtractUnion unions openings into a single shape and subtracts it
// from base in one cut — the robust path ApplyOpenings always falls
// back to, and uses outright when the faster per-opening path is off.
func subtractUnion(ctx context.Context, backend geom.Backend, base geom.Shape, openings []geom.Shape) (geom.Shape, error) {
	if len(openings) == 0 {
		return base, nil
	}
	union := openings[0]
	for _, o := range openings[1:] {
		u, err := backend.BooleanUnion(ctx, union, o)
		if err != nil {
			return base, fmt.Errorf("%w: could not assemble opening union for subtraction", ifcerr.ErrBackend)
		}
		union = u
	}
	cut, err := backend.BooleanSubtract(ctx, base, union)
	if err != nil {
		return base, fmt.Errorf("%w: opening subtraction failed", ifcerr.ErrBackend)
	}
	return cut, nil
}
