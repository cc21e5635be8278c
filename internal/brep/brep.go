// Package brep is the alternative emission path of spec §4.K: assemble
// a representation's already-placed shape items into one compound and
// ask the backend for a textual boundary-representation dump, ported
// from IfcRepresentationBrepData's compound-building constructor in
// IfcGeomObjects.cpp.
package brep

import (
	"context"
	"fmt"

	"ifcgo/internal/geom"
	"ifcgo/internal/ifcerr"
)

// Serialize unions shapes into one compound and serializes it. A caller
// iterating representations should catch the returned error, log it
// against the representation id, and continue — per spec §4.K this
// failure must not abort iteration.
func Serialize(ctx context.Context, backend geom.Backend, shapes []geom.Shape) (string, error) {
	if len(shapes) == 0 {
		return "", fmt.Errorf("%w: representation has no shape items to serialize", ifcerr.ErrUnsupported)
	}
	compound := shapes[0]
	for _, s := range shapes[1:] {
		u, err := backend.BooleanUnion(ctx, compound, s)
		if err != nil {
			return "", fmt.Errorf("%w: compound assembly failed: %v", ifcerr.ErrBackend, err)
		}
		compound = u
	}
	out, err := backend.SerializeBrep(ctx, compound)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ifcerr.ErrBackend, err)
	}
	return out, nil
}
