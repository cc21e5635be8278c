// Package mock implements geom.Backend entirely in memory, with no
// dependency on a real B-rep kernel: shapes are held as plain triangle
// soups (or, for a half-space, a bounding plane), and boolean operations
// work directly on that representation. It exists so the rest of the
// pipeline — cursor, resolver, mesh, brep, material — can be built and
// tested deterministically before any real kernel binding is wired in,
// and it doubles as the backend cmd/ifcconvert always uses.
package mock

import (
	"context"
	"fmt"
	"math"

	"ifcgo/internal/geom"
	"ifcgo/internal/ifcerr"
)

// revolutionSegments is the fixed tessellation density for MakeSphere/
// MakeCone/MakeCylinder/MakeRevol; the mock backend has no adaptive
// deflection control, so it just picks one value fine enough to look
// right at default precision.
const revolutionSegments = 24

type wire struct {
	pts    []geom.Point3
	closed bool
}

type face struct {
	outer  wire
	inner  []wire
	point  geom.Point3
	normal geom.Vec3
}

type plane struct {
	point  geom.Point3
	normal geom.Vec3
}

// shape is the sole concrete geom.Shape this backend produces. A
// half-space shape carries plane != nil and no triangles; every other
// shape carries tris and a nil plane.
type shape struct {
	tris  []geom.RawTriangle
	plane *plane
}

// Backend is the mock geom.Backend implementation.
type Backend struct{}

// New returns a ready-to-use mock backend.
func New() *Backend { return &Backend{} }

func sub(a, b geom.Point3) geom.Vec3 { return geom.Vec3{X: a.X - b.X, Y: a.Y - b.Y, Z: a.Z - b.Z} }

func cross(a, b geom.Vec3) geom.Vec3 {
	return geom.Vec3{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}

func dot(a, b geom.Vec3) float64 { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }

func normalize(v geom.Vec3) geom.Vec3 {
	l := math.Sqrt(dot(v, v))
	if l == 0 {
		return v
	}
	return geom.Vec3{X: v.X / l, Y: v.Y / l, Z: v.Z / l}
}

func tri(a, b, c geom.Point3, material int64) geom.RawTriangle {
	n := normalize(cross(sub(b, a), sub(c, a)))
	return geom.RawTriangle{Verts: [3]geom.Point3{a, b, c}, Normal: n, MaterialID: material}
}

// --- primitives ----------------------------------------------------------

func boxTriangles(dx, dy, dz float64) []geom.RawTriangle {
	p := func(x, y, z float64) geom.Point3 { return geom.Point3{X: x, Y: y, Z: z} }
	corners := [8]geom.Point3{
		p(0, 0, 0), p(dx, 0, 0), p(dx, dy, 0), p(0, dy, 0),
		p(0, 0, dz), p(dx, 0, dz), p(dx, dy, dz), p(0, dy, dz),
	}
	quads := [6][4]int{
		{0, 1, 2, 3}, // bottom
		{4, 7, 6, 5}, // top
		{0, 4, 5, 1}, // y=0
		{1, 5, 6, 2}, // x=dx
		{2, 6, 7, 3}, // y=dy
		{3, 7, 4, 0}, // x=0
	}
	var out []geom.RawTriangle
	for _, q := range quads {
		a, b, c, d := corners[q[0]], corners[q[1]], corners[q[2]], corners[q[3]]
		out = append(out, tri(a, b, c, 0), tri(a, c, d, 0))
	}
	return out
}

func (b *Backend) MakeBox(_ context.Context, dx, dy, dz float64) (geom.Shape, error) {
	return &shape{tris: boxTriangles(dx, dy, dz)}, nil
}

func (b *Backend) MakeWedge(_ context.Context, dx, dy, dz, ltx float64) (geom.Shape, error) {
	p := func(x, y, z float64) geom.Point3 { return geom.Point3{X: x, Y: y, Z: z} }
	// Base rectangle at z=0, top edge shrunk to length ltx at z=dz,
	// matching IfcCsgPrimitive3D's IfcWedge: a box with one top edge
	// slid in along x.
	v := [6]geom.Point3{
		p(0, 0, 0), p(dx, 0, 0), p(dx, dy, 0), p(0, dy, 0),
		p(0, 0, dz), p(ltx, 0, dz),
	}
	var out []geom.RawTriangle
	out = append(out, tri(v[0], v[1], v[2], 0), tri(v[0], v[2], v[3], 0)) // bottom
	out = append(out, tri(v[0], v[4], v[5], 0), tri(v[0], v[5], v[1], 0)) // y=0 face
	out = append(out, tri(v[3], v[2], v[1], 0), tri(v[3], v[1], v[4], 0), tri(v[4], v[1], v[5], 0)) // slanted top/back, best-effort
	return &shape{tris: out}, nil
}

func (b *Backend) MakeSphere(_ context.Context, radius float64) (geom.Shape, error) {
	var out []geom.RawTriangle
	lat := revolutionSegments / 2
	for i := 0; i < lat; i++ {
		theta0 := math.Pi * float64(i) / float64(lat)
		theta1 := math.Pi * float64(i+1) / float64(lat)
		for j := 0; j < revolutionSegments; j++ {
			phi0 := 2 * math.Pi * float64(j) / float64(revolutionSegments)
			phi1 := 2 * math.Pi * float64(j+1) / float64(revolutionSegments)
			v := func(theta, phi float64) geom.Point3 {
				return geom.Point3{
					X: radius * math.Sin(theta) * math.Cos(phi),
					Y: radius * math.Sin(theta) * math.Sin(phi),
					Z: radius * math.Cos(theta),
				}
			}
			a, bp, c, d := v(theta0, phi0), v(theta0, phi1), v(theta1, phi1), v(theta1, phi0)
			out = append(out, tri(a, bp, c, 0), tri(a, c, d, 0))
		}
	}
	return &shape{tris: out}, nil
}

func ringTriangles(radiusTop, radiusBottom, height float64) []geom.RawTriangle {
	var out []geom.RawTriangle
	top := geom.Point3{Z: height}
	bottom := geom.Point3{}
	for j := 0; j < revolutionSegments; j++ {
		phi0 := 2 * math.Pi * float64(j) / float64(revolutionSegments)
		phi1 := 2 * math.Pi * float64(j+1) / float64(revolutionSegments)
		b0 := geom.Point3{X: radiusBottom * math.Cos(phi0), Y: radiusBottom * math.Sin(phi0)}
		b1 := geom.Point3{X: radiusBottom * math.Cos(phi1), Y: radiusBottom * math.Sin(phi1)}
		t0 := geom.Point3{X: radiusTop * math.Cos(phi0), Y: radiusTop * math.Sin(phi0), Z: height}
		t1 := geom.Point3{X: radiusTop * math.Cos(phi1), Y: radiusTop * math.Sin(phi1), Z: height}
		if radiusBottom != 0 {
			out = append(out, tri(bottom, b1, b0, 0))
		}
		if radiusTop != 0 {
			out = append(out, tri(top, t0, t1, 0))
		}
		out = append(out, tri(b0, b1, t1, 0), tri(b0, t1, t0, 0))
	}
	return out
}

func (b *Backend) MakeCone(_ context.Context, radius, height float64) (geom.Shape, error) {
	return &shape{tris: ringTriangles(0, radius, height)}, nil
}

func (b *Backend) MakeCylinder(_ context.Context, radius, height float64) (geom.Shape, error) {
	return &shape{tris: ringTriangles(radius, radius, height)}, nil
}

// --- profile-driven solids -------------------------------------------------

func fanTriangulate(ring []geom.Point3, material int64, flip bool) []geom.RawTriangle {
	if len(ring) < 3 {
		return nil
	}
	var out []geom.RawTriangle
	for i := 1; i < len(ring)-1; i++ {
		if flip {
			out = append(out, tri(ring[0], ring[i+1], ring[i], material))
		} else {
			out = append(out, tri(ring[0], ring[i], ring[i+1], material))
		}
	}
	return out
}

// MakePrism extrudes profile.Outer along dir*depth. Inner boundaries
// (profile holes) are not subtracted by this mock backend — a file
// relying on a hollow extruded profile gets its outer silhouette only,
// and no diagnostic records the dropped holes.
func (b *Backend) MakePrism(_ context.Context, profile geom.ProfileSpec, dir geom.Vec3, depth float64) (geom.Shape, error) {
	if len(profile.Outer) < 3 {
		return nil, fmt.Errorf("%w: extrusion profile has fewer than 3 points", ifcerr.ErrUnsupported)
	}
	d := normalize(dir)
	offset := geom.Vec3{X: d.X * depth, Y: d.Y * depth, Z: d.Z * depth}
	top := make([]geom.Point3, len(profile.Outer))
	for i, p := range profile.Outer {
		top[i] = geom.Point3{X: p.X + offset.X, Y: p.Y + offset.Y, Z: p.Z + offset.Z}
	}
	var out []geom.RawTriangle
	out = append(out, fanTriangulate(profile.Outer, 0, true)...)
	out = append(out, fanTriangulate(top, 0, false)...)
	n := len(profile.Outer)
	for i := 0; i < n; i++ {
		a, b2 := profile.Outer[i], profile.Outer[(i+1)%n]
		ta, tb := top[i], top[(i+1)%n]
		out = append(out, tri(a, b2, tb, 0), tri(a, tb, ta, 0))
	}
	return &shape{tris: out}, nil
}

// MakeRevol sweeps profile.Outer around axisDir through angle radians,
// sampling revolutionSegments steps (or fewer, proportional to angle).
func (b *Backend) MakeRevol(_ context.Context, profile geom.ProfileSpec, axisOrigin geom.Point3, axisDir geom.Vec3, angle float64) (geom.Shape, error) {
	if len(profile.Outer) < 3 {
		return nil, fmt.Errorf("%w: revolution profile has fewer than 3 points", ifcerr.ErrUnsupported)
	}
	axis := normalize(axisDir)
	steps := int(math.Ceil(float64(revolutionSegments) * angle / (2 * math.Pi)))
	if steps < 1 {
		steps = 1
	}
	rotate := func(p geom.Point3, theta float64) geom.Point3 {
		rel := sub(p, axisOrigin)
		cosT, sinT := math.Cos(theta), math.Sin(theta)
		// Rodrigues' rotation formula around a unit axis.
		term1 := geom.Vec3{X: rel.X * cosT, Y: rel.Y * cosT, Z: rel.Z * cosT}
		kxv := cross(axis, rel)
		term2 := geom.Vec3{X: kxv.X * sinT, Y: kxv.Y * sinT, Z: kxv.Z * sinT}
		kdotv := dot(axis, rel)
		term3 := geom.Vec3{X: axis.X * kdotv * (1 - cosT), Y: axis.Y * kdotv * (1 - cosT), Z: axis.Z * kdotv * (1 - cosT)}
		return geom.Point3{
			X: axisOrigin.X + term1.X + term2.X + term3.X,
			Y: axisOrigin.Y + term1.Y + term2.Y + term3.Y,
			Z: axisOrigin.Z + term1.Z + term2.Z + term3.Z,
		}
	}

	rings := make([][]geom.Point3, steps+1)
	for s := 0; s <= steps; s++ {
		theta := angle * float64(s) / float64(steps)
		ring := make([]geom.Point3, len(profile.Outer))
		for i, p := range profile.Outer {
			ring[i] = rotate(p, theta)
		}
		rings[s] = ring
	}

	var out []geom.RawTriangle
	out = append(out, fanTriangulate(rings[0], 0, true)...)
	out = append(out, fanTriangulate(rings[steps], 0, false)...)
	n := len(profile.Outer)
	for s := 0; s < steps; s++ {
		for i := 0; i < n; i++ {
			a, b2 := rings[s][i], rings[s][(i+1)%n]
			ta, tb := rings[s+1][i], rings[s+1][(i+1)%n]
			out = append(out, tri(a, b2, tb, 0), tri(a, tb, ta, 0))
		}
	}
	return &shape{tris: out}, nil
}

func planeFromWire(w wire) (geom.Point3, geom.Vec3) {
	// Newell's method: robust for non-convex/noisy planar rings.
	var n geom.Vec3
	pts := w.pts
	for i := range pts {
		a := pts[i]
		bpt := pts[(i+1)%len(pts)]
		n.X += (a.Y - bpt.Y) * (a.Z + bpt.Z)
		n.Y += (a.Z - bpt.Z) * (a.X + bpt.X)
		n.Z += (a.X - bpt.X) * (a.Y + bpt.Y)
	}
	if len(pts) == 0 {
		return geom.Point3{}, geom.Vec3{Z: 1}
	}
	return pts[0], normalize(n)
}

func (b *Backend) MakeHalfSpace(_ context.Context, f geom.Face, agreementFlag bool) (geom.Shape, error) {
	fc, ok := f.(*face)
	if !ok {
		return nil, fmt.Errorf("%w: half-space base face is not planar", ifcerr.ErrUnsupported)
	}
	n := fc.normal
	if agreementFlag {
		n = geom.Vec3{X: -n.X, Y: -n.Y, Z: -n.Z}
	}
	return &shape{plane: &plane{point: fc.point, normal: n}}, nil
}

func (b *Backend) ConvertWire(_ context.Context, points []geom.Point3, closed bool) (geom.Wire, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("%w: wire needs at least 2 points", ifcerr.ErrUnsupported)
	}
	return &wire{pts: points, closed: closed}, nil
}

func (b *Backend) ConvertFace(_ context.Context, outer geom.Wire, inner []geom.Wire) (geom.Face, error) {
	ow, ok := outer.(*wire)
	if !ok {
		return nil, fmt.Errorf("%w: face outer boundary is not a wire from this backend", ifcerr.ErrUnsupported)
	}
	var inners []wire
	for _, iw := range inner {
		w, ok := iw.(*wire)
		if !ok {
			return nil, fmt.Errorf("%w: face inner boundary is not a wire from this backend", ifcerr.ErrUnsupported)
		}
		inners = append(inners, *w)
	}
	point, normal := planeFromWire(*ow)
	return &face{outer: *ow, inner: inners, point: point, normal: normal}, nil
}

func (b *Backend) ConvertCurve(_ context.Context, points []geom.Point3) (geom.Curve, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("%w: curve needs at least 2 points", ifcerr.ErrUnsupported)
	}
	return &wire{pts: points}, nil
}

// --- shell/solid assembly ---------------------------------------------

func (b *Backend) SolidFromShell(_ context.Context, faces []geom.Face) (geom.Shape, error) {
	var out []geom.RawTriangle
	for _, f := range faces {
		fc, ok := f.(*face)
		if !ok {
			return nil, fmt.Errorf("%w: shell face is not from this backend", ifcerr.ErrUnsupported)
		}
		out = append(out, fanTriangulate(fc.outer.pts, 0, false)...)
	}
	return &shape{tris: out}, nil
}

func (b *Backend) SewFaces(_ context.Context, faces []geom.Face, maxFacesToSew int, _ float64) (geom.Shape, error) {
	if maxFacesToSew >= 0 && len(faces) > maxFacesToSew {
		return nil, fmt.Errorf("%w: %d faces exceeds max-faces-to-sew %d", ifcerr.ErrBackend, len(faces), maxFacesToSew)
	}
	return b.SolidFromShell(context.Background(), faces)
}

// --- boolean operations -------------------------------------------------

func asShape(s geom.Shape) (*shape, error) {
	sh, ok := s.(*shape)
	if !ok {
		return nil, fmt.Errorf("%w: operand is not a shape from this backend", ifcerr.ErrUnsupported)
	}
	return sh, nil
}

// clipTriangle splits t against the half-space (point, normal), keeping
// the portion on the side where dot(normal, x-point) has the same sign
// as keepPositive. Degenerate crossings are resolved by simple vertex
// classification rather than exact polygon clipping: a mock backend
// trades boundary precision for determinism and simplicity.
func clipTriangle(t geom.RawTriangle, point geom.Point3, normal geom.Vec3, keepPositive bool) []geom.RawTriangle {
	side := func(p geom.Point3) float64 { return dot(normal, sub(p, point)) }
	keep := func(d float64) bool {
		if keepPositive {
			return d >= 0
		}
		return d <= 0
	}
	d0, d1, d2 := side(t.Verts[0]), side(t.Verts[1]), side(t.Verts[2])
	switch {
	case keep(d0) && keep(d1) && keep(d2):
		return []geom.RawTriangle{t}
	case !keep(d0) && !keep(d1) && !keep(d2):
		return nil
	default:
		// A vertex straddles the plane: keep the triangle whole if its
		// centroid lies on the kept side, drop it otherwise. This avoids
		// synthesizing new boundary vertices while still approximating
		// the clip for deterministic mock output.
		cx := (t.Verts[0].X + t.Verts[1].X + t.Verts[2].X) / 3
		cy := (t.Verts[0].Y + t.Verts[1].Y + t.Verts[2].Y) / 3
		cz := (t.Verts[0].Z + t.Verts[1].Z + t.Verts[2].Z) / 3
		if keep(side(geom.Point3{X: cx, Y: cy, Z: cz})) {
			return []geom.RawTriangle{t}
		}
		return nil
	}
}

func clipAgainst(tris []geom.RawTriangle, pl *plane, keepPositive bool) []geom.RawTriangle {
	var out []geom.RawTriangle
	for _, t := range tris {
		out = append(out, clipTriangle(t, pl.point, pl.normal, keepPositive)...)
	}
	return out
}

// flipped returns tris with reversed winding and inverted normals, the
// trick this backend uses to represent "this volume is now a cavity"
// when subtracting one bounded solid from another (as opposed to
// subtracting a half-space, which clips exactly).
func flipped(tris []geom.RawTriangle) []geom.RawTriangle {
	out := make([]geom.RawTriangle, len(tris))
	for i, t := range tris {
		out[i] = geom.RawTriangle{
			Verts:      [3]geom.Point3{t.Verts[0], t.Verts[2], t.Verts[1]},
			Normal:     geom.Vec3{X: -t.Normal.X, Y: -t.Normal.Y, Z: -t.Normal.Z},
			MaterialID: t.MaterialID,
		}
	}
	return out
}

func (b *Backend) BooleanUnion(_ context.Context, a, bArg geom.Shape) (geom.Shape, error) {
	sa, err := asShape(a)
	if err != nil {
		return nil, err
	}
	sb, err := asShape(bArg)
	if err != nil {
		return nil, err
	}
	out := append(append([]geom.RawTriangle(nil), sa.tris...), sb.tris...)
	return &shape{tris: out}, nil
}

func (b *Backend) BooleanSubtract(_ context.Context, a, bArg geom.Shape) (geom.Shape, error) {
	sa, err := asShape(a)
	if err != nil {
		return nil, err
	}
	sb, err := asShape(bArg)
	if err != nil {
		return nil, err
	}
	if sb.plane != nil {
		// The half-space's normal points into its filled material; keep
		// only what lies on the other side of the plane.
		return &shape{tris: clipAgainst(sa.tris, sb.plane, false)}, nil
	}
	out := append(append([]geom.RawTriangle(nil), sa.tris...), flipped(sb.tris)...)
	return &shape{tris: out}, nil
}

func (b *Backend) BooleanIntersect(_ context.Context, a, bArg geom.Shape) (geom.Shape, error) {
	sa, err := asShape(a)
	if err != nil {
		return nil, err
	}
	sb, err := asShape(bArg)
	if err != nil {
		return nil, err
	}
	if sb.plane != nil {
		return &shape{tris: clipAgainst(sa.tris, sb.plane, true)}, nil
	}
	return nil, fmt.Errorf("%w: solid-solid intersection is not modeled by this backend", ifcerr.ErrUnsupported)
}

// --- transforms -----------------------------------------------------------

func (b *Backend) Transform(_ context.Context, s geom.Shape, t geom.Transform) (geom.Shape, error) {
	sh, err := asShape(s)
	if err != nil {
		return nil, err
	}
	out := make([]geom.RawTriangle, len(sh.tris))
	for i, tr := range sh.tris {
		out[i] = geom.RawTriangle{
			Verts:      [3]geom.Point3{t.Apply(tr.Verts[0]), t.Apply(tr.Verts[1]), t.Apply(tr.Verts[2])},
			Normal:     normalize(t.ApplyVec(tr.Normal)),
			MaterialID: tr.MaterialID,
		}
	}
	return &shape{tris: out}, nil
}

func (b *Backend) GTransform(ctx context.Context, s geom.Shape, t geom.Transform, scale geom.Vec3) (geom.Shape, error) {
	scaled := t
	scaled.M[0][0] *= scale.X
	scaled.M[1][1] *= scale.Y
	scaled.M[2][2] *= scale.Z
	return b.Transform(ctx, s, scaled)
}

// --- output -----------------------------------------------------------

func (b *Backend) Triangulate(_ context.Context, s geom.Shape, _ float64) ([]geom.RawTriangle, error) {
	sh, err := asShape(s)
	if err != nil {
		return nil, err
	}
	if sh.plane != nil {
		return nil, fmt.Errorf("%w: an unbounded half-space has no triangulation", ifcerr.ErrUnsupported)
	}
	return sh.tris, nil
}

func (b *Backend) SerializeBrep(_ context.Context, s geom.Shape) (string, error) {
	sh, err := asShape(s)
	if err != nil {
		return "", err
	}
	out := fmt.Sprintf("SOLID(%d_TRIANGLES)=(", len(sh.tris))
	for i, t := range sh.tris {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf("((%g,%g,%g),(%g,%g,%g),(%g,%g,%g))",
			t.Verts[0].X, t.Verts[0].Y, t.Verts[0].Z,
			t.Verts[1].X, t.Verts[1].Y, t.Verts[1].Z,
			t.Verts[2].X, t.Verts[2].Y, t.Verts[2].Z)
	}
	return out + ")", nil
}

func (b *Backend) ShapeVolume(_ context.Context, s geom.Shape) (float64, error) {
	sh, err := asShape(s)
	if err != nil {
		return 0, err
	}
	var sum float64
	for _, t := range sh.tris {
		sum += dot(geom.Vec3(t.Verts[0]), cross(geom.Vec3(t.Verts[1]), geom.Vec3(t.Verts[2])))
	}
	return math.Abs(sum) / 6, nil
}

func (b *Backend) FaceArea(_ context.Context, f geom.Face) (float64, error) {
	fc, ok := f.(*face)
	if !ok {
		return 0, fmt.Errorf("%w: face is not from this backend", ifcerr.ErrUnsupported)
	}
	tris := fanTriangulate(fc.outer.pts, 0, false)
	var area float64
	for _, t := range tris {
		area += 0.5 * math.Sqrt(dot(cross(sub(t.Verts[1], t.Verts[0]), sub(t.Verts[2], t.Verts[0])), cross(sub(t.Verts[1], t.Verts[0]), sub(t.Verts[2], t.Verts[0]))))
	}
	return area, nil
}
