// Package geom defines the geometry kernel boundary: the Backend
// interface every concrete modeling kernel adapter implements, and the
// plain value types (points, transforms, raw triangles) that cross it.
// No implementation lives here — internal/geombackend/mock provides the
// in-memory test/demo adapter; a production build would wire a real
// B-rep kernel behind the same interface.
package geom

import "context"

// Point3 is a location in 3-space.
type Point3 struct{ X, Y, Z float64 }

// Vec3 is a direction or offset in 3-space.
type Vec3 struct{ X, Y, Z float64 }

// Transform is a rigid (or scaled, for gtransform) affine map: a 3x3
// linear part plus a translation, the form IfcAxis2Placement3D chains
// compose into (spec §4.I).
type Transform struct {
	M [3][3]float64
	T Point3
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{M: [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}}
}

// Apply maps a point through the transform.
func (t Transform) Apply(p Point3) Point3 {
	return Point3{
		X: t.M[0][0]*p.X + t.M[0][1]*p.Y + t.M[0][2]*p.Z + t.T.X,
		Y: t.M[1][0]*p.X + t.M[1][1]*p.Y + t.M[1][2]*p.Z + t.T.Y,
		Z: t.M[2][0]*p.X + t.M[2][1]*p.Y + t.M[2][2]*p.Z + t.T.Z,
	}
}

// ApplyVec maps a direction through the transform's linear part only
// (no translation) — used for normals and extrusion directions.
func (t Transform) ApplyVec(v Vec3) Vec3 {
	return Vec3{
		X: t.M[0][0]*v.X + t.M[0][1]*v.Y + t.M[0][2]*v.Z,
		Y: t.M[1][0]*v.X + t.M[1][1]*v.Y + t.M[1][2]*v.Z,
		Z: t.M[2][0]*v.X + t.M[2][1]*v.Y + t.M[2][2]*v.Z,
	}
}

// Inverse returns t's inverse, assuming its linear part is a pure
// rotation (no scale/shear) — true for every placement chain this
// package builds, since IfcAxis2Placement3D only ever contributes an
// orthonormal basis.
func (t Transform) Inverse() Transform {
	var inv Transform
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			inv.M[r][c] = t.M[c][r]
		}
	}
	inv.T = Point3{
		X: -(inv.M[0][0]*t.T.X + inv.M[0][1]*t.T.Y + inv.M[0][2]*t.T.Z),
		Y: -(inv.M[1][0]*t.T.X + inv.M[1][1]*t.T.Y + inv.M[1][2]*t.T.Z),
		Z: -(inv.M[2][0]*t.T.X + inv.M[2][1]*t.T.Y + inv.M[2][2]*t.T.Z),
	}
	return inv
}

// Then composes t followed by next: (next ∘ t).
func (t Transform) Then(next Transform) Transform {
	var out Transform
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += next.M[r][k] * t.M[k][c]
			}
			out.M[r][c] = sum
		}
	}
	out.T = next.Apply(t.T)
	return out
}

// Shape, Face, Wire and Curve are opaque handles a Backend hands back
// and accepts; only the backend that produced one knows its concrete
// type, mirroring IfcRepresentationShapeItems' opaque TopoDS_Shape
// handles in the original kernel wrapper.
type (
	Shape any
	Face  any
	Wire  any
	Curve any
)

// RawTriangle is one kernel-emitted triangle, pre-welding: the mesh
// builder (internal/mesh) consumes a stream of these and produces the
// welded/indexed Mesh described in spec §4.J.
type RawTriangle struct {
	Verts      [3]Point3
	Normal     Vec3
	MaterialID int64 // 0 when the originating face carries no style.
}

// ProfileSpec describes a 2D profile in its own placement plane, enough
// to drive make_prism/make_revol without a dedicated profile-kernel type.
type ProfileSpec struct {
	// Outer is the profile's outer boundary, counter-clockwise, in the
	// profile's local XY plane.
	Outer []Point3
	// Inner holds any hole boundaries (rectangle-hollow, etc.), clockwise.
	Inner [][]Point3
}

// Backend is the modeling-kernel boundary named in spec §4.G: every
// operation the geometry iterator needs from a B-rep kernel, expressed
// without committing to one. Operations that can legitimately fail
// without aborting the run (sewing, booleans, triangulation of a
// degenerate face) return ifcerr.ErrBackend/ErrUnsupported so the cursor
// can degrade per spec §7.
type Backend interface {
	// MakeBox/MakeWedge/MakeSphere/MakeCone/MakeCylinder build CSG
	// primitives directly, for the IfcCsgPrimitive3D family.
	MakeBox(ctx context.Context, dx, dy, dz float64) (Shape, error)
	MakeWedge(ctx context.Context, dx, dy, dz, ltx float64) (Shape, error)
	MakeSphere(ctx context.Context, radius float64) (Shape, error)
	MakeCone(ctx context.Context, radius, height float64) (Shape, error)
	MakeCylinder(ctx context.Context, radius, height float64) (Shape, error)

	// MakePrism extrudes profile along dir by depth (IfcExtrudedAreaSolid).
	MakePrism(ctx context.Context, profile ProfileSpec, dir Vec3, depth float64) (Shape, error)
	// MakeRevol revolves profile around axis by angle radians
	// (IfcRevolvedAreaSolid).
	MakeRevol(ctx context.Context, profile ProfileSpec, axisOrigin Point3, axisDir Vec3, angle float64) (Shape, error)
	// MakeHalfSpace builds an infinite half-space bounded by a planar
	// face, for IfcBooleanClippingResult / IfcHalfSpaceSolid. Returns
	// ErrUnsupported if face is not planar.
	MakeHalfSpace(ctx context.Context, face Face, agreementFlag bool) (Shape, error)

	// ConvertWire/ConvertFace/ConvertCurve lift a 2D/3D curve definition
	// (already resolved to a ProfileSpec-style point list by the caller)
	// into a kernel wire/face/curve handle.
	ConvertWire(ctx context.Context, points []Point3, closed bool) (Wire, error)
	ConvertFace(ctx context.Context, outer Wire, inner []Wire) (Face, error)
	ConvertCurve(ctx context.Context, points []Point3) (Curve, error)

	// SolidFromShell closes an (assumed already-sewn) shell into a solid.
	SolidFromShell(ctx context.Context, faces []Face) (Shape, error)
	// SewFaces stitches a loose face set into a shell, honoring
	// maxFacesToSew the way spec §4.M's sew-shells flag documents: pass
	// a non-positive value to skip sewing entirely.
	SewFaces(ctx context.Context, faces []Face, maxFacesToSew int, tolerance float64) (Shape, error)

	// BooleanUnion/BooleanSubtract/BooleanIntersect combine two solids.
	// Subtract is the operation the opening resolver (spec §4.I) drives
	// per IfcRelVoidsElement.
	BooleanUnion(ctx context.Context, a, b Shape) (Shape, error)
	BooleanSubtract(ctx context.Context, a, b Shape) (Shape, error)
	BooleanIntersect(ctx context.Context, a, b Shape) (Shape, error)

	// Transform/GTransform apply a rigid or general (non-uniform scale
	// permitted) affine map to a shape, without mutating the input.
	Transform(ctx context.Context, shape Shape, t Transform) (Shape, error)
	GTransform(ctx context.Context, shape Shape, t Transform, scale Vec3) (Shape, error)

	// Triangulate emits a deflection-tolerant triangle soup for shape.
	// The mesh builder performs vertex welding and edge-visibility
	// computation on the result; the backend need not.
	Triangulate(ctx context.Context, shape Shape, deflectionTolerance float64) ([]RawTriangle, error)

	// SerializeBrep renders shape as a textual boundary representation
	// dump, the format spec §4.K's brep-data path returns.
	SerializeBrep(ctx context.Context, shape Shape) (string, error)

	// ShapeVolume and FaceArea support spec §8's size-sanity test
	// properties and the minimal-face-area filter in spec §4.M.
	ShapeVolume(ctx context.Context, shape Shape) (float64, error)
	FaceArea(ctx context.Context, face Face) (float64, error)
}
