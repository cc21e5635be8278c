// Package mesh builds the deduplicated, material-tagged,
// edge-flagged triangulation spec §4.J describes, ported from
// IfcRepresentationTriangulation's addvert/triangle-emission loop in
// IfcGeomObjects.cpp.
package mesh

import (
	"context"
	"math"

	"ifcgo/internal/geom"
	"ifcgo/internal/ifcerr"
	"ifcgo/internal/ifcopts"
	"ifcgo/internal/units"
)

// Mesh is the triangulated-representation data model of spec §3.
type Mesh struct {
	Vertices        []geom.Point3
	Normals         []geom.Vec3 // nil when welding is enabled (ambiguous per-vertex normal).
	Indices         [][3]int
	MaterialIndices []int64
	EdgeVisible     [][3]bool
}

type weldKey struct {
	Material      int64
	X, Y, Z       float64
}

// Builder accumulates triangles from one or more shape items (each with
// its own placement and resolved material index) into a single Mesh.
type Builder struct {
	cfg   *ifcopts.Config
	units *units.Units

	weld    map[weldKey]int
	mesh    *Mesh
	edgeUse map[[2]int]int
}

// NewBuilder starts a fresh mesh accumulation.
func NewBuilder(cfg *ifcopts.Config, u *units.Units) *Builder {
	return &Builder{
		cfg:     cfg,
		units:   u,
		weld:    make(map[weldKey]int),
		mesh:    &Mesh{},
		edgeUse: make(map[[2]int]int),
	}
}

// roundKey snaps f to the configured point-equality tolerance so
// vertices that differ only by floating-point noise still weld, per
// spec §4.M.
func (b *Builder) roundKey(f float64) float64 {
	tol := b.cfg.PointEqualityTolerance
	if tol <= 0 {
		return f
	}
	return math.Round(f/tol) * tol
}

// faceNormal is the unnormalized winding-derived normal (v1-v0)x(v2-v0).
func faceNormal(verts [3]geom.Point3) geom.Vec3 {
	u := geom.Vec3{X: verts[1].X - verts[0].X, Y: verts[1].Y - verts[0].Y, Z: verts[1].Z - verts[0].Z}
	v := geom.Vec3{X: verts[2].X - verts[0].X, Y: verts[2].Y - verts[0].Y, Z: verts[2].Z - verts[0].Z}
	return geom.Vec3{X: u.Y*v.Z - u.Z*v.Y, Y: u.Z*v.X - u.X*v.Z, Z: u.X*v.Y - u.Y*v.X}
}

// triangleArea is the triangle's area, computed directly from its three
// vertices — the degenerate-triangle test spec §4.M's minimal-face-area
// knob names.
func triangleArea(verts [3]geom.Point3) float64 {
	n := faceNormal(verts)
	return 0.5 * math.Sqrt(n.X*n.X+n.Y*n.Y+n.Z*n.Z)
}

// ensureCCW swaps the last two vertices when the winding-derived normal
// disagrees with the face's shading normal, so every emitted triangle is
// wound counter-clockwise as seen from the outside, per spec §4.M's
// force_ccw_face_orientation flag.
func ensureCCW(verts [3]geom.Point3, normal geom.Vec3) [3]geom.Point3 {
	n := faceNormal(verts)
	if n.X*normal.X+n.Y*normal.Y+n.Z*normal.Z < 0 {
		verts[1], verts[2] = verts[2], verts[1]
	}
	return verts
}

// AddShapeItem triangulates shape through backend, transforms each
// vertex by placement (world coordinates), optionally divides by the
// length unit when convert_back_units is set, and appends the result —
// welding vertices by (material, x, y, z) when weld_vertices is set, or
// keeping every vertex distinct with a rotated per-vertex normal
// otherwise.
func (b *Builder) AddShapeItem(ctx context.Context, backend geom.Backend, shape geom.Shape, placement geom.Transform, materialIndex int64) error {
	tris, err := backend.Triangulate(ctx, shape, b.cfg.DeflectionTolerance)
	if err != nil {
		return err
	}

	scale := 1.0
	if b.cfg.ConvertBackUnits && b.units != nil && b.units.LengthToMetres != 0 {
		scale = 1 / b.units.LengthToMetres
	}

	for _, t := range tris {
		if b.cfg.MinimalFaceArea > 0 && triangleArea(t.Verts) < b.cfg.MinimalFaceArea {
			continue
		}
		verts := t.Verts
		if b.cfg.ForceCCWFaceOrientation {
			verts = ensureCCW(verts, t.Normal)
		}

		var idx [3]int
		for i, v := range verts {
			world := placement.Apply(v)
			world.X *= scale
			world.Y *= scale
			world.Z *= scale

			if b.cfg.WeldVertices {
				key := weldKey{Material: materialIndex, X: b.roundKey(world.X), Y: b.roundKey(world.Y), Z: b.roundKey(world.Z)}
				if existing, ok := b.weld[key]; ok {
					idx[i] = existing
				} else {
					idx[i] = len(b.mesh.Vertices)
					b.mesh.Vertices = append(b.mesh.Vertices, world)
					b.weld[key] = idx[i]
				}
			} else {
				idx[i] = len(b.mesh.Vertices)
				b.mesh.Vertices = append(b.mesh.Vertices, world)
				n := placement.ApplyVec(t.Normal)
				b.mesh.Normals = append(b.mesh.Normals, n)
			}
		}
		b.mesh.Indices = append(b.mesh.Indices, idx)
		b.mesh.MaterialIndices = append(b.mesh.MaterialIndices, materialIndex)

		for e := 0; e < 3; e++ {
			a, c := idx[e], idx[(e+1)%3]
			key := edgeKey(a, c)
			b.edgeUse[key]++
		}
	}
	return nil
}

func edgeKey(a, c int) [2]int {
	if a < c {
		return [2]int{a, c}
	}
	return [2]int{c, a}
}

// Finish computes the per-triangle edge-visibility flags (true iff the
// undirected edge's use count across the whole mesh is 1) and returns
// the completed Mesh.
func (b *Builder) Finish() (*Mesh, error) {
	if len(b.mesh.Indices) == 0 {
		return nil, ifcerr.ErrUnsupported
	}
	b.mesh.EdgeVisible = make([][3]bool, len(b.mesh.Indices))
	for fi, idx := range b.mesh.Indices {
		for e := 0; e < 3; e++ {
			a, c := idx[e], idx[(e+1)%3]
			b.mesh.EdgeVisible[fi][e] = b.edgeUse[edgeKey(a, c)] == 1
		}
	}
	return b.mesh, nil
}
