package cursor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"ifcgo/internal/geom"
	"ifcgo/internal/geombackend/mock"
	"ifcgo/internal/ifcopts"
)

func writeTestFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.ifc")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// A wall whose body representation is a single IfcExtrudedAreaSolid over
// an IfcRectangleProfileDef, placed at (10,0,0) by its ObjectPlacement.
const wallModel = `
#1=IFCCARTESIANPOINT((0.,0.,0.));
#2=IFCAXIS2PLACEMENT3D(#1,$,$);
#3=IFCRECTANGLEPROFILEDEF(.AREA.,$,$,2.,3.);
#4=IFCDIRECTION((0.,0.,1.));
#5=IFCEXTRUDEDAREASOLID(#3,#2,#4,5.);
#6=IFCSHAPEREPRESENTATION($,'Body','SweptSolid',(#5));
#7=IFCPRODUCTDEFINITIONSHAPE($,$,(#6));
#8=IFCCARTESIANPOINT((10.,0.,0.));
#9=IFCAXIS2PLACEMENT3D(#8,$,$);
#10=IFCLOCALPLACEMENT($,#9);
#20=IFCWALL('1vvvvvvvvvvvvvvvvvvvvv',$,'Wall1',$,$,#10,#7);
`

func TestIterator_VisitsSingleProductWithExtrudedSolid(t *testing.T) {
	path := writeTestFile(t, wallModel)
	it, err := Open(path, nil, mock.New())
	require.NoError(t, err)
	defer it.Close()

	require.True(t, it.Next(context.Background()))
	model := it.CurrentShapeModel()
	require.Equal(t, int64(20), model.Product.ID)
	require.Equal(t, "IFCWALL", model.Product.Type)
	require.Len(t, model.Items, 1)

	require.False(t, it.Next(context.Background()), "only one product in this file")
}

// With use-world-coords off, the shape item keeps its representation-local
// geometry and carries the element's world placement for the caller to
// apply; the raw triangulation output must still land in world space.
func TestIterator_ItemPlacementCarriesWorldTransformWhenNotBaked(t *testing.T) {
	path := writeTestFile(t, wallModel)
	cfg := ifcopts.Default()
	cfg.UseWorldCoords = false
	it, err := Open(path, cfg, mock.New())
	require.NoError(t, err)
	defer it.Close()

	require.True(t, it.Next(context.Background()))
	model := it.CurrentShapeModel()
	require.NotEqual(t, geom.Identity(), model.Items[0].Placement)

	mesh := it.CurrentTriangulation()
	require.NotNil(t, mesh)
	var maxX float64
	for _, v := range mesh.Vertices {
		if v.X > maxX {
			maxX = v.X
		}
	}
	// Profile half-width is 1 (xdim=2), translated by 10: the world-space
	// triangulation's rightmost vertex must land past the translation.
	require.Greater(t, maxX, 10.0)
}

// With use-world-coords on, baking must leave Placement as identity (the
// placement-baking idempotence property of spec §8 scenario 4): applying
// it again must not move the already-baked geometry.
func TestIterator_UseWorldCoordsBakesPlacementToIdentity(t *testing.T) {
	path := writeTestFile(t, wallModel)
	cfg := ifcopts.Default()
	cfg.UseWorldCoords = true
	it, err := Open(path, cfg, mock.New())
	require.NoError(t, err)
	defer it.Close()

	require.True(t, it.Next(context.Background()))
	model := it.CurrentShapeModel()
	require.Equal(t, geom.Identity(), model.Items[0].Placement)
}

// A wall voided by an opening must come out with less enclosed volume
// than the same wall without the opening, per spec §8 scenario 4's
// volume-reduction property. The opening's own extrusion position
// (0.25,0,1) is chosen inside the wall's local extent (x in [-1,1], y in
// [-1.5,1.5], z in [0,5]) so it actually overlaps the wall once placed —
// both ObjectPlacements (#10, #40) place relative to the same
// IfcAxis2Placement3D (#9), so the relative transform
// applyOpeningsTo computes between them collapses to identity.
const wallWithOpening = wallModel + `
#30=IFCCARTESIANPOINT((0.25,0.,1.));
#31=IFCAXIS2PLACEMENT3D(#30,$,$);
#32=IFCRECTANGLEPROFILEDEF(.AREA.,$,$,0.5,0.5);
#33=IFCDIRECTION((0.,0.,1.));
#34=IFCEXTRUDEDAREASOLID(#32,#31,#33,1.);
#35=IFCSHAPEREPRESENTATION($,'Body','SweptSolid',(#34));
#36=IFCPRODUCTDEFINITIONSHAPE($,$,(#35));
#40=IFCLOCALPLACEMENT($,#9);
#41=IFCOPENINGELEMENT('2vvvvvvvvvvvvvvvvvvvvv',$,'Opening1',$,$,#40,#36);
#42=IFCRELVOIDSELEMENT('3vvvvvvvvvvvvvvvvvvvvv',$,$,$,#20,#41);
`

func TestIterator_OpeningReducesVolumeComparedToUnvoided(t *testing.T) {
	backend := mock.New()

	plainPath := writeTestFile(t, wallModel)
	itPlain, err := Open(plainPath, nil, backend)
	require.NoError(t, err)
	defer itPlain.Close()
	require.True(t, itPlain.Next(context.Background()))
	plainShape := itPlain.CurrentShapeModel().Items[0].Shape
	plainVolume, err := backend.ShapeVolume(context.Background(), plainShape)
	require.NoError(t, err)
	require.InDelta(t, 30.0, plainVolume, 1e-9, "2 x 3 x 5 extrusion")

	voidedPath := writeTestFile(t, wallWithOpening)
	itVoided, err := Open(voidedPath, nil, backend)
	require.NoError(t, err)
	defer itVoided.Close()
	require.True(t, itVoided.Next(context.Background()))
	voidedModel := itVoided.CurrentShapeModel()
	require.Equal(t, "IFCWALL", voidedModel.Product.Type)
	voidedShape := voidedModel.Items[0].Shape
	voidedVolume, err := backend.ShapeVolume(context.Background(), voidedShape)
	require.NoError(t, err)

	require.InDelta(t, 29.75, voidedVolume, 1e-9, "wall volume (30) minus the 0.5 x 0.5 x 1 opening (0.25)")
	require.Less(t, voidedVolume, plainVolume)
}

// A mapped item must pre-multiply its mapped representation's geometry by
// the mapping source's MappingOrigin, per spec §8 scenario 5, before the
// enclosing product's own placement is applied on top.
const mappedItemModel = `
#1=IFCCARTESIANPOINT((0.,0.,0.));
#2=IFCAXIS2PLACEMENT3D(#1,$,$);
#3=IFCRECTANGLEPROFILEDEF(.AREA.,$,$,2.,2.);
#4=IFCDIRECTION((0.,0.,1.));
#5=IFCEXTRUDEDAREASOLID(#3,#2,#4,1.);
#6=IFCSHAPEREPRESENTATION($,'Body','SweptSolid',(#5));
#7=IFCCARTESIANPOINT((100.,0.,0.));
#8=IFCAXIS2PLACEMENT3D(#7,$,$);
#9=IFCREPRESENTATIONMAP(#8,#6);
#10=IFCMAPPEDITEM(#9,$);
#11=IFCSHAPEREPRESENTATION($,'Body','MappedRepresentation',(#10));
#12=IFCPRODUCTDEFINITIONSHAPE($,$,(#11));
#13=IFCLOCALPLACEMENT($,#2);
#20=IFCWALL('1vvvvvvvvvvvvvvvvvvvvv',$,'Wall1',$,$,#13,#12);
`

func TestConvertMappedItem_PreMultipliesByMappingOrigin(t *testing.T) {
	path := writeTestFile(t, mappedItemModel)
	it, err := Open(path, nil, mock.New())
	require.NoError(t, err)
	defer it.Close()

	require.True(t, it.Next(context.Background()))
	model := it.CurrentShapeModel()
	require.Len(t, model.Items, 1)

	mesh := it.CurrentTriangulation()
	require.NotNil(t, mesh)
	var minX float64 = 1e18
	for _, v := range mesh.Vertices {
		if v.X < minX {
			minX = v.X
		}
	}
	// The profile is centered at the origin (half-width 1) but the mapping
	// source's MappingOrigin shifts it to x=100 before the product's own
	// (identity) placement applies: the leftmost vertex must land at x=99,
	// not x=-1.
	require.InDelta(t, 99.0, minX, 1e-9)
}
