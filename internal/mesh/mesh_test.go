package mesh

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"ifcgo/internal/geom"
	"ifcgo/internal/geombackend/mock"
	"ifcgo/internal/ifcerr"
	"ifcgo/internal/ifcopts"
	"ifcgo/internal/units"
)

// A unit cube has 8 distinct corners but boxTriangles emits 3 vertices
// for each of its 12 triangles, so welding must collapse the 36 emitted
// verts down to 8 while keeping all 12 triangles, per spec §4.J.
func TestAddShapeItem_WeldCollapsesSharedCorners(t *testing.T) {
	cfg := ifcopts.Default()
	cfg.WeldVertices = true
	b := NewBuilder(cfg, units.Default())
	backend := mock.New()

	shape, err := backend.MakeBox(context.Background(), 1, 1, 1)
	require.NoError(t, err)

	require.NoError(t, b.AddShapeItem(context.Background(), backend, shape, geom.Identity(), 0))

	m, err := b.Finish()
	require.NoError(t, err)
	require.Len(t, m.Vertices, 8)
	require.Nil(t, m.Normals, "welded mesh must not carry per-vertex normals")
	require.Len(t, m.Indices, 12)
}

func TestAddShapeItem_NoWeldKeepsPerVertexNormals(t *testing.T) {
	cfg := ifcopts.Default()
	cfg.WeldVertices = false
	b := NewBuilder(cfg, units.Default())
	backend := mock.New()

	shape, err := backend.MakeBox(context.Background(), 1, 1, 1)
	require.NoError(t, err)

	require.NoError(t, b.AddShapeItem(context.Background(), backend, shape, geom.Identity(), 0))

	m, err := b.Finish()
	require.NoError(t, err)
	require.Len(t, m.Vertices, 36, "unwelded box keeps all 3 verts per triangle, 12 triangles")
	require.Len(t, m.Normals, 36)
}

// Every edge of a closed, welded box solid — including each quad face's
// diagonal split, which is shared by that face's own two triangles — is
// used by exactly two triangles, so none should be flagged visible. An
// open (non-manifold) mesh would surface its boundary edges here instead.
func TestFinish_EdgeVisibilityMatchesUseCount(t *testing.T) {
	cfg := ifcopts.Default()
	cfg.WeldVertices = true
	b := NewBuilder(cfg, units.Default())
	backend := mock.New()

	shape, err := backend.MakeBox(context.Background(), 1, 1, 1)
	require.NoError(t, err)
	require.NoError(t, b.AddShapeItem(context.Background(), backend, shape, geom.Identity(), 0))

	m, err := b.Finish()
	require.NoError(t, err)

	visible := 0
	for _, tri := range m.EdgeVisible {
		for _, v := range tri {
			if v {
				visible++
			}
		}
	}
	require.Equal(t, 0, visible, "a closed welded solid has no edge used only once")
}

func TestRoundKey_SnapsToPointEqualityTolerance(t *testing.T) {
	cfg := ifcopts.Default()
	cfg.PointEqualityTolerance = 1e-3
	b := NewBuilder(cfg, units.Default())

	require.Equal(t, b.roundKey(1.0001), b.roundKey(1.0004), "values within tolerance must snap to the same key")
	require.NotEqual(t, b.roundKey(1.0), b.roundKey(1.01), "values a full tolerance apart must stay distinct")
}

func TestRoundKey_ZeroToleranceIsNoOp(t *testing.T) {
	cfg := ifcopts.Default()
	cfg.PointEqualityTolerance = 0
	b := NewBuilder(cfg, units.Default())

	require.Equal(t, 1.00049, b.roundKey(1.00049))
}

func TestTriangleArea(t *testing.T) {
	right := [3]geom.Point3{{X: 0, Y: 0, Z: 0}, {X: 2, Y: 0, Z: 0}, {X: 0, Y: 3, Z: 0}}
	require.InDelta(t, 3.0, triangleArea(right), 1e-9)

	degenerate := [3]geom.Point3{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 2, Y: 0, Z: 0}}
	require.InDelta(t, 0, triangleArea(degenerate), 1e-9)
}

func TestEnsureCCW_FlipsWhenWindingDisagreesWithNormal(t *testing.T) {
	verts := [3]geom.Point3{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}}
	// This winding's own cross-product normal is +Z; claim the shading
	// normal points -Z instead, forcing a flip.
	flipped := ensureCCW(verts, geom.Vec3{Z: -1})
	require.Equal(t, verts[0], flipped[0])
	require.Equal(t, verts[2], flipped[1])
	require.Equal(t, verts[1], flipped[2])

	// Already agrees: untouched.
	unchanged := ensureCCW(verts, geom.Vec3{Z: 1})
	require.Equal(t, verts, unchanged)
}

func TestAddShapeItem_MinimalFaceAreaDropsDegenerateTriangles(t *testing.T) {
	cfg := ifcopts.Default()
	cfg.WeldVertices = true
	cfg.MinimalFaceArea = 1e6 // absurdly high: every triangle of a unit box must be dropped.
	b := NewBuilder(cfg, units.Default())
	backend := mock.New()

	shape, err := backend.MakeBox(context.Background(), 1, 1, 1)
	require.NoError(t, err)
	require.NoError(t, b.AddShapeItem(context.Background(), backend, shape, geom.Identity(), 0))

	_, err = b.Finish()
	require.ErrorIs(t, err, ifcerr.ErrUnsupported, "every triangle should have been filtered as degenerate")
}

func TestAddShapeItem_ConvertBackUnitsRescalesVertices(t *testing.T) {
	cfg := ifcopts.Default()
	cfg.WeldVertices = true
	cfg.ConvertBackUnits = true
	u := &units.Units{LengthToMetres: 1e-3, PlaneAngleToRadians: 1}
	b := NewBuilder(cfg, u)
	backend := mock.New()

	shape, err := backend.MakeBox(context.Background(), 1, 1, 1)
	require.NoError(t, err)
	require.NoError(t, b.AddShapeItem(context.Background(), backend, shape, geom.Identity(), 0))

	m, err := b.Finish()
	require.NoError(t, err)
	var maxCoord float64
	for _, v := range m.Vertices {
		for _, c := range []float64{v.X, v.Y, v.Z} {
			if c > maxCoord {
				maxCoord = c
			}
		}
	}
	require.InDelta(t, 1000.0, maxCoord, 1e-9, "a 1m box reported back in millimetres should span 1000")
}
