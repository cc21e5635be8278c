package resolver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"ifcgo/internal/geom"
	"ifcgo/internal/geombackend/mock"
	"ifcgo/internal/ifcerr"
	"ifcgo/internal/ifcparse"
)

func openTestStore(t *testing.T, content string) *ifcparse.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.ifc")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	store, err := ifcparse.Open(path, ifcerr.ModeBestEffort)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// Two nested IfcLocalPlacements: a parent translated to (1,2,3) and a
// child translated to (10,0,0) relative to it, both with the default
// (unrotated) axis/ref-direction basis. The composed world placement of
// the origin must land at their sum, per spec §4.I.
const placementChain = `
#1=IFCCARTESIANPOINT((1.,2.,3.));
#2=IFCAXIS2PLACEMENT3D(#1,$,$);
#3=IFCLOCALPLACEMENT($,#2);
#4=IFCCARTESIANPOINT((10.,0.,0.));
#5=IFCAXIS2PLACEMENT3D(#4,$,$);
#6=IFCLOCALPLACEMENT(#3,#5);
`

func TestPlacement_ComposesParentChain(t *testing.T) {
	store := openTestStore(t, placementChain)

	transform, err := Placement(store, 6)
	require.NoError(t, err)

	world := transform.Apply(geom.Point3{})
	require.InDelta(t, 11.0, world.X, 1e-9)
	require.InDelta(t, 2.0, world.Y, 1e-9)
	require.InDelta(t, 3.0, world.Z, 1e-9)
}

func TestPlacement_RootHasNoParent(t *testing.T) {
	store := openTestStore(t, placementChain)

	transform, err := Placement(store, 3)
	require.NoError(t, err)

	world := transform.Apply(geom.Point3{})
	require.InDelta(t, 1.0, world.X, 1e-9)
	require.InDelta(t, 2.0, world.Y, 1e-9)
	require.InDelta(t, 3.0, world.Z, 1e-9)
}

// A wall (#20) voided by an opening (#22) via IfcRelVoidsElement (#21):
// HasOpenings/Openings must surface the opening, and ParentID must walk
// the relationship backward from opening to voided element.
const voidsChain = placementChain + `
#20=IFCWALL('1vvvvvvvvvvvvvvvvvvvvv',$,'Wall1',$,$,#6,$);
#22=IFCOPENINGELEMENT('2vvvvvvvvvvvvvvvvvvvvv',$,'Opening1',$,$,#6,$);
#21=IFCRELVOIDSELEMENT('3vvvvvvvvvvvvvvvvvvvvv',$,$,$,#20,#22);
`

func TestOpenings_FoundViaRelVoidsElement(t *testing.T) {
	store := openTestStore(t, voidsChain)

	openings := HasOpenings(store, 20)
	require.Equal(t, []int64{22}, openings)

	openings = Openings(store, 20)
	require.Equal(t, []int64{22}, openings)
}

func TestParentID_VoidedElementTakesPrecedence(t *testing.T) {
	store := openTestStore(t, voidsChain)

	parent, ok := ParentID(store, 22)
	require.True(t, ok)
	require.EqualValues(t, 20, parent)
}

func TestParentID_NoRelationshipFound(t *testing.T) {
	store := openTestStore(t, voidsChain)

	_, ok := ParentID(store, 20)
	require.False(t, ok)
}

// scriptedBackend wraps a mock backend and fails its Nth BooleanSubtract
// call (1-indexed; 0 disables failing), to exercise ApplyOpenings' slow
// path without a real kernel.
type scriptedBackend struct {
	*mock.Backend
	failSubtractOnCall int
	subtractCalls      int
	unionCalls         int
}

func (b *scriptedBackend) BooleanSubtract(ctx context.Context, a, o geom.Shape) (geom.Shape, error) {
	b.subtractCalls++
	if b.subtractCalls == b.failSubtractOnCall {
		return nil, fmt.Errorf("%w: scripted failure", ifcerr.ErrBackend)
	}
	return b.Backend.BooleanSubtract(ctx, a, o)
}

func (b *scriptedBackend) BooleanUnion(ctx context.Context, a, o geom.Shape) (geom.Shape, error) {
	b.unionCalls++
	return b.Backend.BooleanUnion(ctx, a, o)
}

func newOpeningFixture(t *testing.T) (backend *mock.Backend, base geom.Shape, openings []geom.Shape) {
	t.Helper()
	backend = mock.New()
	ctx := context.Background()
	base, err := backend.MakeBox(ctx, 4, 4, 4)
	require.NoError(t, err)
	o1, err := backend.MakeBox(ctx, 1, 1, 1)
	require.NoError(t, err)
	o2, err := backend.MakeBox(ctx, 1, 1, 1)
	require.NoError(t, err)
	return backend, base, []geom.Shape{o1, o2}
}

// With use_faster_booleans off, ApplyOpenings must go straight to the
// union-then-subtract path and never attempt a per-opening subtraction.
func TestApplyOpenings_SlowPathByDefault(t *testing.T) {
	mockBackend, base, openings := newOpeningFixture(t)
	backend := &scriptedBackend{Backend: mockBackend}

	_, err := ApplyOpenings(context.Background(), backend, base, openings, false)
	require.NoError(t, err)
	require.Equal(t, 1, backend.subtractCalls, "slow path subtracts once, against the union")
	require.Equal(t, 1, backend.unionCalls, "two openings must be unioned once before subtracting")
}

// With use_faster_booleans on, every opening subtracts fine: no union
// should ever be attempted.
func TestApplyOpenings_FasterBooleansSkipsUnionWhenEverySubtractSucceeds(t *testing.T) {
	mockBackend, base, openings := newOpeningFixture(t)
	backend := &scriptedBackend{Backend: mockBackend}

	_, err := ApplyOpenings(context.Background(), backend, base, openings, true)
	require.NoError(t, err)
	require.Equal(t, len(openings), backend.subtractCalls)
	require.Equal(t, 0, backend.unionCalls)
}

// With use_faster_booleans on, a failed per-opening subtraction must
// fall back to unioning just the failures and subtracting once more.
func TestApplyOpenings_FasterBooleansFallsBackOnFailure(t *testing.T) {
	mockBackend, base, openings := newOpeningFixture(t)
	backend := &scriptedBackend{Backend: mockBackend, failSubtractOnCall: 1}

	_, err := ApplyOpenings(context.Background(), backend, base, openings, true)
	require.NoError(t, err)
	// Call 1 fails (opening 1, fast path), call 2 succeeds (opening 2,
	// fast path), call 3 is the slow-path retry against the lone failure.
	require.Equal(t, 3, backend.subtractCalls)
	require.Equal(t, 0, backend.unionCalls, "a single failed opening needs no union before the retry")
}
