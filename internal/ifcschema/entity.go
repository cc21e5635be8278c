package ifcschema

import "ifcgo/internal/steplex"

// Entity is the minimal surface ifcparse.Instance exposes to the typed
// façades below: an id, a resolved schema type, and 0-based positional
// attribute access. Keeping this as an interface (rather than importing
// ifcparse directly) avoids a schema<->store import cycle, mirroring how
// the original's generated wrappers sit on top of IfcBaseEntity without
// depending on the file-level parser.
type Entity interface {
	InstanceID() int64
	SchemaType() Tag
	Attr(i int) (*steplex.Argument, error)
}

// Facade is the base embedded by every generated per-type wrapper. It
// carries is()/type() and the hasX() missing-attribute convention: an
// out-of-range or null attribute is "not present" rather than an error,
// per spec §3's null-vs-missing distinction.
type Facade struct {
	Entity
}

// Is reports whether the wrapped entity's resolved type is want or one
// of its subtypes.
func (f Facade) Is(want Tag) bool { return Is(f.SchemaType(), want) }

// Type returns the wrapped entity's exact resolved schema type.
func (f Facade) Type() Tag { return f.SchemaType() }

// ID returns the wrapped entity's instance id.
func (f Facade) ID() int64 { return f.InstanceID() }

func (f Facade) attr(i int) (*steplex.Argument, error) { return f.Attr(i) }

func (f Facade) hasAttr(i int) bool {
	a, err := f.Attr(i)
	return err == nil && !a.IsNull()
}

// --- IfcRoot ---------------------------------------------------------

// Root wraps IfcRoot: GlobalId, OwnerHistory, Name, Description.
type Root struct{ Facade }

func NewRoot(e Entity) Root { return Root{Facade{e}} }

func (r Root) GlobalId() (string, error) {
	a, err := r.attr(0)
	if err != nil {
		return "", err
	}
	return a.AsString()
}

func (r Root) HasName() bool { return r.hasAttr(2) }

func (r Root) Name() (string, error) {
	a, err := r.attr(2)
	if err != nil {
		return "", err
	}
	return a.AsString()
}

func (r Root) HasDescription() bool { return r.hasAttr(3) }

func (r Root) Description() (string, error) {
	a, err := r.attr(3)
	if err != nil {
		return "", err
	}
	return a.AsString()
}

// --- IfcProduct --------------------------------------------------------

// Product wraps IfcProduct's placement/representation pair, the two
// attributes the geometry iterator actually walks (spec §4.H/§4.I).
// IfcRoot contributes attrs 0-3 and IfcObject attr 4 (ObjectType);
// attribute indices below follow IfcProduct's own declared order
// (ObjectPlacement, Representation) as laid out after its supertypes'.
type Product struct {
	Root
	objectPlacementIdx int
	representationIdx  int
}

// NewProduct builds a Product façade. placementIdx/representationIdx are
// supplied by the caller; cursor passes 5 and 6, IfcProduct's own
// positions, for every product it visits.
func NewProduct(e Entity, placementIdx, representationIdx int) Product {
	return Product{Root: NewRoot(e), objectPlacementIdx: placementIdx, representationIdx: representationIdx}
}

func (p Product) HasObjectPlacement() bool { return p.hasAttr(p.objectPlacementIdx) }

func (p Product) ObjectPlacementRef() (int64, error) {
	a, err := p.attr(p.objectPlacementIdx)
	if err != nil {
		return 0, err
	}
	return a.AsIdentifier()
}

func (p Product) HasRepresentation() bool { return p.hasAttr(p.representationIdx) }

func (p Product) RepresentationRef() (int64, error) {
	a, err := p.attr(p.representationIdx)
	if err != nil {
		return 0, err
	}
	return a.AsIdentifier()
}

// --- Geometry primitives -----------------------------------------------

// CartesianPoint wraps IfcCartesianPoint(Coordinates).
type CartesianPoint struct{ Facade }

func NewCartesianPoint(e Entity) CartesianPoint { return CartesianPoint{Facade{e}} }

func (c CartesianPoint) Coordinates() ([]float64, error) {
	a, err := c.attr(0)
	if err != nil {
		return nil, err
	}
	return a.AsFloats()
}

// Direction wraps IfcDirection(DirectionRatios).
type Direction struct{ Facade }

func NewDirection(e Entity) Direction { return Direction{Facade{e}} }

func (d Direction) DirectionRatios() ([]float64, error) {
	a, err := d.attr(0)
	if err != nil {
		return nil, err
	}
	return a.AsFloats()
}

// Axis2Placement3D wraps IfcAxis2Placement3D(Location, Axis, RefDirection).
type Axis2Placement3D struct{ Facade }

func NewAxis2Placement3D(e Entity) Axis2Placement3D { return Axis2Placement3D{Facade{e}} }

func (a Axis2Placement3D) LocationRef() (int64, error) {
	arg, err := a.attr(0)
	if err != nil {
		return 0, err
	}
	return arg.AsIdentifier()
}

func (a Axis2Placement3D) HasAxis() bool { return a.hasAttr(1) }

func (a Axis2Placement3D) AxisRef() (int64, error) {
	arg, err := a.attr(1)
	if err != nil {
		return 0, err
	}
	return arg.AsIdentifier()
}

func (a Axis2Placement3D) HasRefDirection() bool { return a.hasAttr(2) }

func (a Axis2Placement3D) RefDirectionRef() (int64, error) {
	arg, err := a.attr(2)
	if err != nil {
		return 0, err
	}
	return arg.AsIdentifier()
}

// LocalPlacement wraps IfcLocalPlacement(PlacementRelTo, RelativePlacement).
type LocalPlacement struct{ Facade }

func NewLocalPlacement(e Entity) LocalPlacement { return LocalPlacement{Facade{e}} }

func (l LocalPlacement) HasPlacementRelTo() bool { return l.hasAttr(0) }

func (l LocalPlacement) PlacementRelToRef() (int64, error) {
	a, err := l.attr(0)
	if err != nil {
		return 0, err
	}
	return a.AsIdentifier()
}

func (l LocalPlacement) RelativePlacementRef() (int64, error) {
	a, err := l.attr(1)
	if err != nil {
		return 0, err
	}
	return a.AsIdentifier()
}

// --- Extrusion / profile -------------------------------------------------

// ExtrudedAreaSolid wraps IfcExtrudedAreaSolid(SweptArea, Position,
// ExtrudedDirection, Depth).
type ExtrudedAreaSolid struct{ Facade }

func NewExtrudedAreaSolid(e Entity) ExtrudedAreaSolid { return ExtrudedAreaSolid{Facade{e}} }

func (s ExtrudedAreaSolid) SweptAreaRef() (int64, error) {
	a, err := s.attr(0)
	if err != nil {
		return 0, err
	}
	return a.AsIdentifier()
}

func (s ExtrudedAreaSolid) PositionRef() (int64, error) {
	a, err := s.attr(1)
	if err != nil {
		return 0, err
	}
	return a.AsIdentifier()
}

func (s ExtrudedAreaSolid) ExtrudedDirectionRef() (int64, error) {
	a, err := s.attr(2)
	if err != nil {
		return 0, err
	}
	return a.AsIdentifier()
}

func (s ExtrudedAreaSolid) Depth() (float64, error) {
	a, err := s.attr(3)
	if err != nil {
		return 0, err
	}
	return a.AsFloat()
}

// RectangleProfileDef wraps IfcRectangleProfileDef(ProfileType, ProfileName,
// Position, XDim, YDim).
type RectangleProfileDef struct{ Facade }

func NewRectangleProfileDef(e Entity) RectangleProfileDef { return RectangleProfileDef{Facade{e}} }

func (r RectangleProfileDef) XDim() (float64, error) {
	a, err := r.attr(3)
	if err != nil {
		return 0, err
	}
	return a.AsFloat()
}

func (r RectangleProfileDef) YDim() (float64, error) {
	a, err := r.attr(4)
	if err != nil {
		return 0, err
	}
	return a.AsFloat()
}

// --- Units ---------------------------------------------------------------

// UnitAssignment wraps IfcUnitAssignment(Units).
type UnitAssignment struct{ Facade }

func NewUnitAssignment(e Entity) UnitAssignment { return UnitAssignment{Facade{e}} }

func (u UnitAssignment) UnitRefs() ([]int64, error) {
	a, err := u.attr(0)
	if err != nil {
		return nil, err
	}
	return a.AsInts()
}

// SIUnit wraps IfcSIUnit(UnitType, Prefix, Name).
type SIUnit struct{ Facade }

func NewSIUnit(e Entity) SIUnit { return SIUnit{Facade{e}} }

func (u SIUnit) HasPrefix() bool { return u.hasAttr(1) }

func (u SIUnit) Prefix() (string, error) {
	a, err := u.attr(1)
	if err != nil {
		return "", err
	}
	return a.AsEnumeration()
}

func (u SIUnit) Name() (string, error) {
	a, err := u.attr(2)
	if err != nil {
		return "", err
	}
	return a.AsEnumeration()
}

// ConversionBasedUnit wraps IfcConversionBasedUnit(UnitType, Name,
// ConversionFactor).
type ConversionBasedUnit struct{ Facade }

func NewConversionBasedUnit(e Entity) ConversionBasedUnit { return ConversionBasedUnit{Facade{e}} }

func (u ConversionBasedUnit) Name() (string, error) {
	a, err := u.attr(1)
	if err != nil {
		return "", err
	}
	return a.AsString()
}

func (u ConversionBasedUnit) ConversionFactorRef() (int64, error) {
	a, err := u.attr(2)
	if err != nil {
		return 0, err
	}
	return a.AsIdentifier()
}

// MeasureWithUnit wraps IfcMeasureWithUnit(ValueComponent, UnitComponent).
type MeasureWithUnit struct{ Facade }

func NewMeasureWithUnit(e Entity) MeasureWithUnit { return MeasureWithUnit{Facade{e}} }

func (m MeasureWithUnit) ValueComponent() (*steplex.Argument, error) { return m.attr(0) }

func (m MeasureWithUnit) UnitComponentRef() (int64, error) {
	a, err := m.attr(1)
	if err != nil {
		return 0, err
	}
	return a.AsIdentifier()
}

// --- Styles ---------------------------------------------------------------

// ColourRgb wraps IfcColourRgb(Name, Red, Green, Blue).
type ColourRgb struct{ Facade }

func NewColourRgb(e Entity) ColourRgb { return ColourRgb{Facade{e}} }

func (c ColourRgb) RGB() (r, g, b float64, err error) {
	ra, err := c.attr(1)
	if err != nil {
		return 0, 0, 0, err
	}
	ga, err := c.attr(2)
	if err != nil {
		return 0, 0, 0, err
	}
	ba, err := c.attr(3)
	if err != nil {
		return 0, 0, 0, err
	}
	if r, err = ra.AsFloat(); err != nil {
		return 0, 0, 0, err
	}
	if g, err = ga.AsFloat(); err != nil {
		return 0, 0, 0, err
	}
	if b, err = ba.AsFloat(); err != nil {
		return 0, 0, 0, err
	}
	return r, g, b, nil
}

// SurfaceStyleRendering wraps the subset of IfcSurfaceStyleRendering the
// material resolver needs: SurfaceColour and Transparency.
type SurfaceStyleRendering struct{ Facade }

func NewSurfaceStyleRendering(e Entity) SurfaceStyleRendering {
	return SurfaceStyleRendering{Facade{e}}
}

func (s SurfaceStyleRendering) SurfaceColourRef() (int64, error) {
	a, err := s.attr(0)
	if err != nil {
		return 0, err
	}
	return a.AsIdentifier()
}

func (s SurfaceStyleRendering) HasTransparency() bool { return s.hasAttr(1) }

func (s SurfaceStyleRendering) Transparency() (float64, error) {
	a, err := s.attr(1)
	if err != nil {
		return 0, err
	}
	return a.AsFloat()
}

// --- Relationships ----------------------------------------------------

// RelVoidsElement wraps IfcRelVoidsElement(..., RelatingBuildingElement,
// RelatedOpeningElement).
type RelVoidsElement struct{ Facade }

func NewRelVoidsElement(e Entity) RelVoidsElement { return RelVoidsElement{Facade{e}} }

func (r RelVoidsElement) RelatingBuildingElementRef() (int64, error) {
	a, err := r.attr(4)
	if err != nil {
		return 0, err
	}
	return a.AsIdentifier()
}

func (r RelVoidsElement) RelatedOpeningElementRef() (int64, error) {
	a, err := r.attr(5)
	if err != nil {
		return 0, err
	}
	return a.AsIdentifier()
}

// RelFillsElement wraps IfcRelFillsElement(..., RelatingOpeningElement,
// RelatedBuildingElement).
type RelFillsElement struct{ Facade }

func NewRelFillsElement(e Entity) RelFillsElement { return RelFillsElement{Facade{e}} }

func (r RelFillsElement) RelatingOpeningElementRef() (int64, error) {
	a, err := r.attr(4)
	if err != nil {
		return 0, err
	}
	return a.AsIdentifier()
}

func (r RelFillsElement) RelatedBuildingElementRef() (int64, error) {
	a, err := r.attr(5)
	if err != nil {
		return 0, err
	}
	return a.AsIdentifier()
}

// RelContainedInSpatialStructure wraps
// IfcRelContainedInSpatialStructure(..., RelatedElements, RelatingStructure).
type RelContainedInSpatialStructure struct{ Facade }

func NewRelContainedInSpatialStructure(e Entity) RelContainedInSpatialStructure {
	return RelContainedInSpatialStructure{Facade{e}}
}

func (r RelContainedInSpatialStructure) RelatedElementRefs() ([]int64, error) {
	a, err := r.attr(4)
	if err != nil {
		return nil, err
	}
	return a.AsInts()
}

func (r RelContainedInSpatialStructure) RelatingStructureRef() (int64, error) {
	a, err := r.attr(5)
	if err != nil {
		return 0, err
	}
	return a.AsIdentifier()
}

// RelDecomposes wraps the common (RelatingObject, RelatedObjects) shape
// shared by IfcRelAggregates and IfcRelNests.
type RelDecomposes struct{ Facade }

func NewRelDecomposes(e Entity) RelDecomposes { return RelDecomposes{Facade{e}} }

func (r RelDecomposes) RelatingObjectRef() (int64, error) {
	a, err := r.attr(4)
	if err != nil {
		return 0, err
	}
	return a.AsIdentifier()
}

func (r RelDecomposes) RelatedObjectRefs() ([]int64, error) {
	a, err := r.attr(5)
	if err != nil {
		return nil, err
	}
	return a.AsInts()
}

// --- Shape representation ------------------------------------------------

// ShapeRepresentation wraps IfcShapeRepresentation(ContextOfItems,
// RepresentationIdentifier, RepresentationType, Items).
type ShapeRepresentation struct{ Facade }

func NewShapeRepresentation(e Entity) ShapeRepresentation { return ShapeRepresentation{Facade{e}} }

func (s ShapeRepresentation) RepresentationIdentifier() (string, error) {
	a, err := s.attr(1)
	if err != nil {
		return "", err
	}
	return a.AsString()
}

func (s ShapeRepresentation) RepresentationType() (string, error) {
	a, err := s.attr(2)
	if err != nil {
		return "", err
	}
	return a.AsString()
}

func (s ShapeRepresentation) ItemRefs() ([]int64, error) {
	a, err := s.attr(3)
	if err != nil {
		return nil, err
	}
	return a.AsInts()
}

// ProductDefinitionShape wraps IfcProductDefinitionShape(..., Representations).
type ProductDefinitionShape struct{ Facade }

func NewProductDefinitionShape(e Entity) ProductDefinitionShape {
	return ProductDefinitionShape{Facade{e}}
}

func (p ProductDefinitionShape) RepresentationRefs() ([]int64, error) {
	a, err := p.attr(2)
	if err != nil {
		return nil, err
	}
	return a.AsInts()
}

// RepresentationMap wraps IfcRepresentationMap(MappingOrigin,
// MappedRepresentation).
type RepresentationMap struct{ Facade }

func NewRepresentationMap(e Entity) RepresentationMap { return RepresentationMap{Facade{e}} }

func (r RepresentationMap) MappingOriginRef() (int64, error) {
	a, err := r.attr(0)
	if err != nil {
		return 0, err
	}
	return a.AsIdentifier()
}

func (r RepresentationMap) MappedRepresentationRef() (int64, error) {
	a, err := r.attr(1)
	if err != nil {
		return 0, err
	}
	return a.AsIdentifier()
}

// StyledItem wraps IfcStyledItem(Item, Styles, Name).
type StyledItem struct{ Facade }

func NewStyledItem(e Entity) StyledItem { return StyledItem{Facade{e}} }

func (s StyledItem) StyleRefs() ([]int64, error) {
	a, err := s.attr(1)
	if err != nil {
		return nil, err
	}
	return a.AsInts()
}

// PresentationStyleAssignment wraps IfcPresentationStyleAssignment(Styles).
type PresentationStyleAssignment struct{ Facade }

func NewPresentationStyleAssignment(e Entity) PresentationStyleAssignment {
	return PresentationStyleAssignment{Facade{e}}
}

func (p PresentationStyleAssignment) StyleRefs() ([]int64, error) {
	a, err := p.attr(0)
	if err != nil {
		return nil, err
	}
	return a.AsInts()
}

// SurfaceStyle wraps IfcSurfaceStyle(Name, Side, Styles).
type SurfaceStyle struct{ Facade }

func NewSurfaceStyle(e Entity) SurfaceStyle { return SurfaceStyle{Facade{e}} }

func (s SurfaceStyle) StyleRefs() ([]int64, error) {
	a, err := s.attr(2)
	if err != nil {
		return nil, err
	}
	return a.AsInts()
}

// MappedItem wraps IfcMappedItem(MappingSource, MappingTarget).
type MappedItem struct{ Facade }

func NewMappedItem(e Entity) MappedItem { return MappedItem{Facade{e}} }

func (m MappedItem) MappingSourceRef() (int64, error) {
	a, err := m.attr(0)
	if err != nil {
		return 0, err
	}
	return a.AsIdentifier()
}

func (m MappedItem) MappingTargetRef() (int64, error) {
	a, err := m.attr(1)
	if err != nil {
		return 0, err
	}
	return a.AsIdentifier()
}
