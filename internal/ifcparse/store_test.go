package ifcparse

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"ifcgo/internal/ifcerr"
	"ifcgo/internal/ifcschema"
)

func openTestStore(t *testing.T, content string) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.ifc")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	store, err := Open(path, ifcerr.ModeBestEffort)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

const sample = `
#1=IFCCARTESIANPOINT((0.,0.,0.));
#2=IFCDIRECTION((0.,0.,1.));
#3=IFCAXIS2PLACEMENT3D(#1,#2,$);
#4=IFCLOCALPLACEMENT($,#3);
#5=IFCWALL('1vvvvvvvvvvvvvvvvvvvvv',$,'Wall1',$,$,#4,$);
`

// #id -> Instance -> #id must round-trip exactly, per spec §3's by-id index.
func TestByID_RoundTripsIdentifiers(t *testing.T) {
	store := openTestStore(t, sample)

	inst, err := store.ByID(5)
	require.NoError(t, err)
	require.Equal(t, int64(5), inst.ID)
	require.True(t, ifcschema.Is(inst.Type, ifcschema.IfcWall))

	_, err = store.ByID(999)
	require.Error(t, err)
}

// ByType(tag) must return exactly the ids scanned with that exact type —
// no more, no fewer, and no bleed from supertypes/subtypes (that's what
// ByTypes is for).
func TestByType_IsExactNotSubtype(t *testing.T) {
	store := openTestStore(t, sample)

	walls := store.ByType(ifcschema.IfcWall)
	require.Equal(t, []int64{5}, walls)

	points := store.ByType(ifcschema.IfcCartesianPoint)
	require.Equal(t, []int64{1}, points)

	// IfcWall is a kind of IfcProduct but isn't indexed under that tag.
	require.Empty(t, store.ByType(ifcschema.IfcProduct))
}

// ByTypes must widen across subtypes via ifcschema.Is.
func TestByTypes_IncludesSubtypes(t *testing.T) {
	store := openTestStore(t, sample)

	products := store.ByTypes(ifcschema.IfcProduct)
	require.Equal(t, []int64{5}, products)
}

// Every reference recorded while scanning #4's argument tree must surface
// symmetrically: #3 is referenced by #4, so #4 must appear in
// Referrers(3), and the reverse must not hold (Referrers is directional).
func TestReferrers_IsSymmetricWithForwardReferences(t *testing.T) {
	store := openTestStore(t, sample)

	referrersOf3 := store.Referrers(3)
	require.Contains(t, referrersOf3, int64(4))

	referrersOf4 := store.Referrers(4)
	require.NotContains(t, referrersOf4, int64(3), "references are directional: #3 does not refer to #4")

	// #1 (the cartesian point) is referenced only by #3.
	require.Equal(t, []int64{3}, store.Referrers(1))
}

// ReferrersWhere narrows to instances of a given type whose attribute at
// argIndex is exactly the target id.
func TestReferrersWhere_MatchesExactAttributeIndex(t *testing.T) {
	store := openTestStore(t, sample)

	// IfcLocalPlacement(PlacementRelTo=$, RelativePlacement=#3): attr index 1.
	placements := store.ReferrersWhere(3, ifcschema.IfcLocalPlacement, 1)
	require.Equal(t, []int64{4}, placements)

	// Asking for the wrong attribute index must not match.
	require.Empty(t, store.ReferrersWhere(3, ifcschema.IfcLocalPlacement, 0))
}

// A '$' attribute must read back as null through IsNull, and AsString on
// a null scalar must return "" rather than erroring (matching how the
// rest of the pipeline treats unset optional attributes).
func TestNullAttribute_ReadsAsEmptyNotError(t *testing.T) {
	store := openTestStore(t, sample)

	inst, err := store.ByID(4)
	require.NoError(t, err)

	relTo, err := inst.Attr(0)
	require.NoError(t, err)
	require.True(t, relTo.IsNull())

	s, err := relTo.AsString()
	require.NoError(t, err)
	require.Empty(t, s)
}

// GUID lookup (the by-guid index) must resolve back to the same instance
// ByID does.
func TestByGUID_ResolvesToSameInstanceAsByID(t *testing.T) {
	store := openTestStore(t, sample)

	byGUID, err := store.ByGUID("1vvvvvvvvvvvvvvvvvvvvv")
	require.NoError(t, err)
	byID, err := store.ByID(5)
	require.NoError(t, err)
	require.Same(t, byID, byGUID)

	_, err = store.ByGUID("does-not-exist")
	require.Error(t, err)
}

func TestLen_CountsAllScannedInstances(t *testing.T) {
	store := openTestStore(t, sample)
	require.Equal(t, 5, store.Len())
}
