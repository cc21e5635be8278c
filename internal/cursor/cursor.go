// Package cursor is the top-level geometry iterator of spec §6/§4.H: a
// two-level walk (representation, then product) that, for every visited
// product, resolves its placement, converts and opening-cuts its
// representation items, triangulates them, and serializes a brep on
// request. Ported from IfcGeomIterator's Next()/get()/initialize() and
// the multi-threaded-model-worker loop in IfcGeomObjects.cpp, rendered
// here as a single-threaded pull iterator.
package cursor

import (
	"context"
	"fmt"

	"ifcgo/internal/brep"
	"ifcgo/internal/geom"
	"ifcgo/internal/ifcerr"
	"ifcgo/internal/ifclog"
	"ifcgo/internal/ifcopts"
	"ifcgo/internal/ifcparse"
	"ifcgo/internal/ifcschema"
	"ifcgo/internal/material"
	"ifcgo/internal/mesh"
	"ifcgo/internal/resolver"
	"ifcgo/internal/units"
)

// Object is the lightweight descriptor get_by_id() returns: enough to
// identify an instance without re-running geometry conversion on it.
type Object struct {
	ID      int64
	GlobalID string
	Name    string
	Type    string
}

// ShapeItem is one converted, placed, opening-cut representation item.
type ShapeItem struct {
	Shape     geom.Shape
	Placement geom.Transform
	Style     *material.Record
}

// ShapeModel is current_shape_model(): the product being visited plus
// its (possibly several) shape items.
type ShapeModel struct {
	Product Object
	Items   []ShapeItem
}

// Iterator is the cursor spec §6 describes. Zero value is not usable;
// construct with Open.
type Iterator struct {
	store     *ifcparse.Store
	cfg       *ifcopts.Config
	backend   geom.Backend
	units     *units.Units
	materials *material.Cache

	reps  []int64
	repIdx int

	products []int64
	prodIdx  int

	totalReps   int
	visitedReps int

	current       *ShapeModel
	triangulation *mesh.Mesh
	brepData      string
}

// Open parses path and prepares an Iterator. backend supplies the
// modeling-kernel operations; cfg may be nil, in which case
// ifcopts.Default() is used.
func Open(path string, cfg *ifcopts.Config, backend geom.Backend) (*Iterator, error) {
	if cfg == nil {
		cfg = ifcopts.Default()
	}
	store, err := ifcparse.Open(path, cfg.Mode)
	if err != nil {
		return nil, err
	}

	u := units.Determine(store)

	reps := filterRepresentations(store)
	return &Iterator{
		store:     store,
		cfg:       cfg,
		backend:   backend,
		units:     u,
		materials: material.NewCache(),
		reps:      reps,
		repIdx:    -1,
		prodIdx:   -1,
		totalReps: len(reps),
	}, nil
}

// filterRepresentations keeps only Body/Facetation representations, the
// subset spec §4.H iterates; if a file declares neither identifier on
// any representation (some exporters omit RepresentationIdentifier
// entirely), every IfcShapeRepresentation is visited instead, matching
// the original's Model-context fallback.
func filterRepresentations(store *ifcparse.Store) []int64 {
	all := store.ByType(ifcschema.IfcShapeRepresentation)
	var matched []int64
	for _, id := range all {
		inst, err := store.ByID(id)
		if err != nil {
			continue
		}
		ident, err := ifcschema.NewShapeRepresentation(inst).RepresentationIdentifier()
		if err != nil {
			continue
		}
		if ident == "Body" || ident == "Facetation" {
			matched = append(matched, id)
		}
	}
	if len(matched) == 0 {
		return all
	}
	return matched
}

// populateProducts finds every IfcProduct whose IfcProductDefinitionShape
// lists repID among its Representations, plus (for files that attach a
// representation straight to IfcProductRepresentation.Representations
// without a definition-shape layer) any direct IfcProduct referrer.
func (it *Iterator) populateProducts(repID int64) []int64 {
	seen := make(map[int64]bool)
	var out []int64
	add := func(id int64) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}

	for _, pdsID := range it.store.ReferrersOfType(repID, ifcschema.IfcProductDefinitionShape) {
		for _, prodID := range it.store.ReferrersWhere(pdsID, ifcschema.IfcProduct, 6) {
			add(prodID)
		}
	}
	for _, prodID := range it.store.ReferrersWhere(repID, ifcschema.IfcProduct, 6) {
		add(prodID)
	}
	return out
}

// Next advances to the next convertible product and reports whether one
// was found. A product whose geometry cannot be built at all is skipped
// (with a diagnostic logged) rather than stopping iteration; a partial
// build (e.g. triangulation failed but the shape model itself is
// usable) still counts as found.
func (it *Iterator) Next(ctx context.Context) bool {
	for {
		if it.prodIdx+1 < len(it.products) {
			it.prodIdx++
			if it.buildCurrent(ctx) {
				return true
			}
			continue
		}
		it.repIdx++
		if it.repIdx >= len(it.reps) {
			return false
		}
		it.visitedReps++
		it.products = it.populateProducts(it.reps[it.repIdx])
		it.prodIdx = -1
	}
}

func (it *Iterator) buildCurrent(ctx context.Context) bool {
	it.current = nil
	it.triangulation = nil
	it.brepData = ""

	prodID := it.products[it.prodIdx]
	prodInst, err := it.store.ByID(prodID)
	if err != nil {
		it.store.Log.Addf(prodID, ifclog.KindMissing, "product #%d vanished mid-iteration", prodID)
		return false
	}
	prod := ifcschema.NewProduct(prodInst, 5, 6)

	if !prod.HasObjectPlacement() {
		it.store.Log.Addf(prodID, ifclog.KindUnsupported, "product has no ObjectPlacement")
		return false
	}
	placementRef, err := prod.ObjectPlacementRef()
	if err != nil {
		it.store.Log.Addf(prodID, ifclog.KindCast, "bad ObjectPlacement: %v", err)
		return false
	}
	placement, err := resolver.Placement(it.store, placementRef)
	if err != nil {
		it.store.Log.Addf(prodID, ifclog.KindUnsupported, "placement resolution failed: %v", err)
		return false
	}

	repInst, err := it.store.ByID(it.reps[it.repIdx])
	if err != nil {
		return false
	}
	itemRefs, err := ifcschema.NewShapeRepresentation(repInst).ItemRefs()
	if err != nil {
		it.store.Log.Addf(prodID, ifclog.KindCast, "representation has no Items: %v", err)
		return false
	}

	typeName := ifcschema.Name(prodInst.Type)
	var items []ShapeItem
	for _, itemID := range itemRefs {
		shape, err := convertItem(ctx, it.store, it.backend, itemID)
		if err != nil {
			it.store.Log.Addf(itemID, ifclog.KindBackend, "representation item conversion failed: %v", err)
			continue
		}
		style, _ := material.StyleFor(it.store, it.materials, itemID, typeName)
		items = append(items, ShapeItem{Shape: shape, Placement: placement, Style: style})
	}
	if len(items) == 0 {
		it.store.Log.Addf(prodID, ifclog.KindUnsupported, "no convertible representation items")
		return false
	}

	if !it.cfg.DisableOpeningSubtractions && !ifcschema.Is(prodInst.Type, ifcschema.IfcOpeningElement) {
		it.applyOpeningsTo(ctx, prodID, placement, items)
	}

	if it.cfg.UseWorldCoords {
		for i := range items {
			if baked, err := it.backend.Transform(ctx, items[i].Shape, items[i].Placement); err == nil {
				items[i].Shape = baked
				items[i].Placement = geom.Identity()
			} else {
				it.store.Log.Addf(prodID, ifclog.KindBackend, "world-coordinate bake failed: %v", err)
			}
		}
	}

	guid, name := "", ""
	if root := ifcschema.NewRoot(prodInst); root.HasName() {
		name, _ = root.Name()
	}
	guid, _ = ifcschema.NewRoot(prodInst).GlobalId()

	it.current = &ShapeModel{
		Product: Object{ID: prodID, GlobalID: guid, Name: name, Type: typeName},
		Items:   items,
	}

	if !it.cfg.DisableTriangulation {
		mb := mesh.NewBuilder(it.cfg, it.units)
		ok := false
		for _, item := range items {
			if err := mb.AddShapeItem(ctx, it.backend, item.Shape, item.Placement, 0); err == nil {
				ok = true
			} else {
				it.store.Log.Addf(prodID, ifclog.KindBackend, "triangulation failed: %v", err)
			}
		}
		if ok {
			if m, err := mb.Finish(); err == nil {
				it.triangulation = m
			}
		}
	}

	if it.cfg.UseBrepData {
		shapes := make([]geom.Shape, len(items))
		for i, item := range items {
			shapes[i] = item.Shape
		}
		if s, err := brep.Serialize(ctx, it.backend, shapes); err == nil {
			it.brepData = s
		} else {
			it.store.Log.Addf(prodID, ifclog.KindBackend, "brep serialization failed: %v", err)
		}
	}

	return true
}

// applyOpeningsTo converts every opening voiding elementID into the
// element's own local coordinate frame and subtracts it from each of elementItems,
// per spec §4.I. The opening's shape is converted in its own
// representation-local frame, then transformed by
// (elementPlacement^-1 ∘ openingPlacement) to land in the same frame the
// element's (not-yet-world-baked) items live in.
func (it *Iterator) applyOpeningsTo(ctx context.Context, elementID int64, elementPlacement geom.Transform, elementItems []ShapeItem) {
	openingIDs := resolver.Openings(it.store, elementID)
	if len(openingIDs) == 0 {
		return
	}
	inverse := elementPlacement.Inverse()

	var openingShapes []geom.Shape
	for _, oid := range openingIDs {
		shapes, err := it.convertProductLocal(ctx, oid)
		if err != nil {
			it.store.Log.Addf(elementID, ifclog.KindBackend, "opening #%d conversion failed: %v", oid, err)
			continue
		}
		oPlacement, err := it.productPlacement(oid)
		if err != nil {
			continue
		}
		relative := oPlacement.Then(inverse)
		for _, s := range shapes {
			placed, err := it.backend.Transform(ctx, s, relative)
			if err != nil {
				continue
			}
			openingShapes = append(openingShapes, placed)
		}
	}
	if len(openingShapes) == 0 {
		return
	}

	for i := range elementItems {
		cut, err := resolver.ApplyOpenings(ctx, it.backend, elementItems[i].Shape, openingShapes, it.cfg.UseFasterBooleans)
		if err != nil {
			it.store.Log.Addf(elementID, ifclog.KindBackend, "opening subtraction failed: %v", err)
			continue
		}
		elementItems[i].Shape = cut
	}
}

// productPlacement resolves a product's ObjectPlacement to a world
// transform, independent of the main Next() loop's current rep.
func (it *Iterator) productPlacement(productID int64) (geom.Transform, error) {
	inst, err := it.store.ByID(productID)
	if err != nil {
		return geom.Identity(), err
	}
	prod := ifcschema.NewProduct(inst, 5, 6)
	if !prod.HasObjectPlacement() {
		return geom.Identity(), fmt.Errorf("%w: #%d has no ObjectPlacement", ifcerr.ErrUnsupported, productID)
	}
	ref, err := prod.ObjectPlacementRef()
	if err != nil {
		return geom.Identity(), err
	}
	return resolver.Placement(it.store, ref)
}

// convertProductLocal converts productID's own Body/Facetation
// representation items, in their representation-local frame (no
// placement applied) — the form an opening's shape needs before being
// re-expressed in the voided element's frame.
func (it *Iterator) convertProductLocal(ctx context.Context, productID int64) ([]geom.Shape, error) {
	inst, err := it.store.ByID(productID)
	if err != nil {
		return nil, err
	}
	prod := ifcschema.NewProduct(inst, 5, 6)
	if !prod.HasRepresentation() {
		return nil, fmt.Errorf("%w: #%d has no Representation", ifcerr.ErrUnsupported, productID)
	}
	pdsRef, err := prod.RepresentationRef()
	if err != nil {
		return nil, err
	}
	pdsInst, err := it.store.ByID(pdsRef)
	if err != nil {
		return nil, err
	}
	repRefs, err := ifcschema.NewProductDefinitionShape(pdsInst).RepresentationRefs()
	if err != nil {
		return nil, err
	}

	var shapes []geom.Shape
	for _, repID := range repRefs {
		repInst, err := it.store.ByID(repID)
		if err != nil {
			continue
		}
		ident, _ := ifcschema.NewShapeRepresentation(repInst).RepresentationIdentifier()
		if ident != "" && ident != "Body" && ident != "Facetation" {
			continue
		}
		itemRefs, err := ifcschema.NewShapeRepresentation(repInst).ItemRefs()
		if err != nil {
			continue
		}
		for _, itemID := range itemRefs {
			shape, err := convertItem(ctx, it.store, it.backend, itemID)
			if err != nil {
				continue
			}
			shapes = append(shapes, shape)
		}
	}
	if len(shapes) == 0 {
		return nil, fmt.Errorf("%w: #%d produced no convertible shapes", ifcerr.ErrUnsupported, productID)
	}
	return shapes, nil
}

// convertItem builds a kernel Shape for one representation item.
// Only IfcExtrudedAreaSolid over IfcRectangleProfileDef and IfcMappedItem
// are understood — the representative subset named in spec §4.E/§4.G;
// anything else returns ErrUnsupported and the caller logs and skips it.
func convertItem(ctx context.Context, store *ifcparse.Store, backend geom.Backend, itemID int64) (geom.Shape, error) {
	inst, err := store.ByID(itemID)
	if err != nil {
		return nil, err
	}

	switch {
	case ifcschema.Is(inst.Type, ifcschema.IfcExtrudedAreaSolid):
		return convertExtrudedAreaSolid(ctx, store, backend, inst)

	case ifcschema.Is(inst.Type, ifcschema.IfcMappedItem):
		return convertMappedItem(ctx, store, backend, inst)

	default:
		return nil, fmt.Errorf("%w: item #%d (%s) has no conversion path", ifcerr.ErrUnsupported, itemID, ifcschema.Name(inst.Type))
	}
}

func convertExtrudedAreaSolid(ctx context.Context, store *ifcparse.Store, backend geom.Backend, inst *ifcparse.Instance) (geom.Shape, error) {
	s := ifcschema.NewExtrudedAreaSolid(inst)

	sweptRef, err := s.SweptAreaRef()
	if err != nil {
		return nil, err
	}
	sweptInst, err := store.ByID(sweptRef)
	if err != nil {
		return nil, err
	}
	if !ifcschema.Is(sweptInst.Type, ifcschema.IfcRectangleProfileDef) {
		return nil, fmt.Errorf("%w: swept area #%d (%s) is not a rectangle profile", ifcerr.ErrUnsupported, sweptRef, ifcschema.Name(sweptInst.Type))
	}
	rp := ifcschema.NewRectangleProfileDef(sweptInst)
	xdim, err := rp.XDim()
	if err != nil {
		return nil, err
	}
	ydim, err := rp.YDim()
	if err != nil {
		return nil, err
	}
	hx, hy := xdim/2, ydim/2
	profile := geom.ProfileSpec{
		Outer: []geom.Point3{
			{X: -hx, Y: -hy},
			{X: hx, Y: -hy},
			{X: hx, Y: hy},
			{X: -hx, Y: hy},
		},
	}

	dirRef, err := s.ExtrudedDirectionRef()
	if err != nil {
		return nil, err
	}
	dirInst, err := store.ByID(dirRef)
	if err != nil {
		return nil, err
	}
	ratios, err := ifcschema.NewDirection(dirInst).DirectionRatios()
	if err != nil {
		return nil, err
	}
	dir := geom.Vec3{Z: 1}
	if len(ratios) == 3 {
		dir = geom.Vec3{X: ratios[0], Y: ratios[1], Z: ratios[2]}
	}

	depth, err := s.Depth()
	if err != nil {
		return nil, err
	}

	shape, err := backend.MakePrism(ctx, profile, dir, depth)
	if err != nil {
		return nil, err
	}

	posRef, err := s.PositionRef()
	if err != nil {
		return shape, nil
	}
	posT, err := resolver.AxisPlacement(store, posRef)
	if err != nil {
		return shape, nil
	}
	return backend.Transform(ctx, shape, posT)
}

func convertMappedItem(ctx context.Context, store *ifcparse.Store, backend geom.Backend, inst *ifcparse.Instance) (geom.Shape, error) {
	mi := ifcschema.NewMappedItem(inst)

	sourceRef, err := mi.MappingSourceRef()
	if err != nil {
		return nil, err
	}
	sourceInst, err := store.ByID(sourceRef)
	if err != nil {
		return nil, err
	}
	rm := ifcschema.NewRepresentationMap(sourceInst)

	originRef, err := rm.MappingOriginRef()
	if err != nil {
		return nil, err
	}
	originT, err := resolver.AxisPlacement(store, originRef)
	if err != nil {
		return nil, err
	}

	mappedRepRef, err := rm.MappedRepresentationRef()
	if err != nil {
		return nil, err
	}
	mappedRepInst, err := store.ByID(mappedRepRef)
	if err != nil {
		return nil, err
	}
	itemRefs, err := ifcschema.NewShapeRepresentation(mappedRepInst).ItemRefs()
	if err != nil {
		return nil, err
	}

	var shapes []geom.Shape
	for _, sub := range itemRefs {
		shape, err := convertItem(ctx, store, backend, sub)
		if err != nil {
			continue
		}
		shapes = append(shapes, shape)
	}
	if len(shapes) == 0 {
		return nil, fmt.Errorf("%w: mapped representation #%d produced no shapes", ifcerr.ErrUnsupported, mappedRepRef)
	}

	compound := shapes[0]
	for _, s := range shapes[1:] {
		compound, err = backend.BooleanUnion(ctx, compound, s)
		if err != nil {
			return nil, err
		}
	}
	// Every shape item under the mapped representation is pre-multiplied
	// by the mapping source's own placement before the caller applies the
	// mapped item's own product placement on top.
	return backend.Transform(ctx, compound, originT)
}

// GetByID looks up any instance by id without running geometry
// conversion on it, per spec §6's get_by_id().
func (it *Iterator) GetByID(id int64) (*Object, error) {
	inst, err := it.store.ByID(id)
	if err != nil {
		return nil, err
	}
	obj := &Object{ID: id, Type: ifcschema.Name(inst.Type)}
	if ifcschema.Is(inst.Type, ifcschema.IfcRoot) {
		root := ifcschema.NewRoot(inst)
		obj.GlobalID, _ = root.GlobalId()
		if root.HasName() {
			obj.Name, _ = root.Name()
		}
	}
	return obj, nil
}

// Progress reports completion as a 0..100 percentage of representations
// visited, per spec §6.
func (it *Iterator) Progress() int {
	if it.totalReps == 0 {
		return 100
	}
	return int(100 * float64(it.visitedReps) / float64(it.totalReps))
}

// UnitName renders the resolved length unit, falling back to a scaled
// METRE description when it doesn't match a named SI prefix.
func (it *Iterator) UnitName() string {
	switch it.units.LengthToMetres {
	case 1:
		return "METRE"
	case 1e-3:
		return "MILLIMETRE"
	case 1e-2:
		return "CENTIMETRE"
	case 1e3:
		return "KILOMETRE"
	default:
		return fmt.Sprintf("METRE*%g", it.units.LengthToMetres)
	}
}

// UnitMagnitude returns the resolved length-to-metres factor.
func (it *Iterator) UnitMagnitude() float64 { return it.units.LengthToMetres }

// Log returns the accumulated per-run diagnostics, per spec §6.
func (it *Iterator) Log() string { return it.store.Log.String() }

// Settings applies one named tunable, delegating to ifcopts.Config.Set.
func (it *Iterator) Settings(flag string, value any) error { return it.cfg.Set(flag, value) }

// CurrentShapeModel returns the shape model built by the most recent
// successful Next() call, or nil before the first call.
func (it *Iterator) CurrentShapeModel() *ShapeModel { return it.current }

// CurrentTriangulation returns the current product's welded mesh, or nil
// if triangulation is disabled or failed for every item.
func (it *Iterator) CurrentTriangulation() *mesh.Mesh { return it.triangulation }

// CurrentBrepData returns the current product's serialized boundary
// representation, or "" if use-brep-data is off or serialization failed.
func (it *Iterator) CurrentBrepData() string { return it.brepData }

// Close releases the underlying file handle.
func (it *Iterator) Close() error { return it.store.Close() }
