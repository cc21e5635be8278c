// Package material resolves a representation item's presentation style
// into a diffuse/specular/transparency record, cached by the originating
// IfcSurfaceStyle's instance id, per spec §4.L.
package material

import (
	"strings"

	"ifcgo/internal/ifcparse"
	"ifcgo/internal/ifcschema"
)

// Record is the immutable style tuple spec §3 describes. Equality is by
// identity of the originating style instance (the cache key), not by
// value.
type Record struct {
	Name         string
	Diffuse      *[3]float64
	Specular     *[3]float64
	Transparency *float64
	Specularity  *float64
}

// Cache memoizes Records by the IfcSurfaceStyle instance id that
// produced them, scoped to one parsed file per spec §3's lifecycle note.
type Cache struct {
	entries map[int64]*Record
}

// NewCache returns an empty style cache.
func NewCache() *Cache { return &Cache{entries: make(map[int64]*Record)} }

// defaults is the type-name diffuse table from spec §4.L, verbatim.
var defaults = map[string][3]float64{
	"IFCSITE":     {0.75, 0.80, 0.65},
	"IFCSLAB":     {0.4, 0.4, 0.4},
	"IFCWALL":     {0.9, 0.9, 0.9},
	"IFCWINDOW":   {0.75, 0.8, 0.75},
	"IFCDOOR":     {0.55, 0.3, 0.15},
	"IFCBEAM":     {0.75, 0.7, 0.7},
	"IFCRAILING":  {0.65, 0.6, 0.6},
	"IFCMEMBER":   {0.65, 0.6, 0.6},
	"IFCPLATE":    {0.8, 0.8, 0.8},
}

const windowTransparency = 0.3
const fallbackDiffuse = 0.7

// DefaultFor returns the type-name default diffuse record (and, for
// windows, its fixed transparency), the fallback the resolver uses when
// no style chain is present.
func DefaultFor(typeName string) Record {
	name := strings.ToUpper(typeName)
	rgb, ok := defaults[name]
	if !ok {
		rgb = [3]float64{fallbackDiffuse, fallbackDiffuse, fallbackDiffuse}
	}
	rec := Record{Name: "default:" + name, Diffuse: &rgb}
	if name == "IFCWINDOW" {
		t := windowTransparency
		rec.Transparency = &t
	}
	return rec
}

// StyleFor resolves the presentation style chain attached to itemID (a
// representation item instance) via IfcStyledItem -> presentation style
// assignment/surface style -> rendering/shading, falling back to
// typeName's default when no style is attached. fallbackTypeName names
// the IFC type of the *product* owning the item, for the default table.
func StyleFor(store *ifcparse.Store, cache *Cache, itemID int64, fallbackTypeName string) (*Record, error) {
	for _, sid := range store.ReferrersWhere(itemID, ifcschema.IfcStyledItem, 0) {
		inst, err := store.ByID(sid)
		if err != nil {
			continue
		}
		refs, err := ifcschema.NewStyledItem(inst).StyleRefs()
		if err != nil {
			continue
		}
		for _, ref := range refs {
			if rec, surfaceStyleID, ok := resolveStyleChain(store, cache, ref); ok {
				if cached, found := cache.entries[surfaceStyleID]; found {
					return cached, nil
				}
				cache.entries[surfaceStyleID] = rec
				return rec, nil
			}
		}
	}
	def := DefaultFor(fallbackTypeName)
	return &def, nil
}

// resolveStyleChain walks from a style-assignment-ish reference down to
// a concrete rendering/shading style, returning the built record and the
// IfcSurfaceStyle instance id it was cached/cacheable under.
func resolveStyleChain(store *ifcparse.Store, cache *Cache, ref int64) (*Record, int64, bool) {
	inst, err := store.ByID(ref)
	if err != nil {
		return nil, 0, false
	}
	switch {
	case ifcschema.Is(inst.Type, ifcschema.IfcPresentationStyleAssignment):
		refs, err := ifcschema.NewPresentationStyleAssignment(inst).StyleRefs()
		if err != nil {
			return nil, 0, false
		}
		for _, r := range refs {
			if rec, sid, ok := resolveStyleChain(store, cache, r); ok {
				return rec, sid, true
			}
		}
		return nil, 0, false

	case ifcschema.Is(inst.Type, ifcschema.IfcSurfaceStyle):
		if cached, ok := cache.entries[inst.ID]; ok {
			return cached, inst.ID, true
		}
		refs, err := ifcschema.NewSurfaceStyle(inst).StyleRefs()
		if err != nil {
			return nil, 0, false
		}
		for _, r := range refs {
			if rec, _, ok := resolveStyleChain(store, cache, r); ok {
				return rec, inst.ID, true
			}
		}
		return nil, 0, false

	case ifcschema.Is(inst.Type, ifcschema.IfcSurfaceStyleRendering), ifcschema.Is(inst.Type, ifcschema.IfcSurfaceStyleShading):
		rec := &Record{Name: "style:" + ifcschema.Name(inst.Type)}
		rendering := ifcschema.NewSurfaceStyleRendering(inst)
		if colourRef, err := rendering.SurfaceColourRef(); err == nil {
			if colourInst, err := store.ByID(colourRef); err == nil {
				if r, g, bch, err := ifcschema.NewColourRgb(colourInst).RGB(); err == nil {
					rgb := [3]float64{r, g, bch}
					rec.Diffuse = &rgb
				}
			}
		}
		if rendering.HasTransparency() {
			if t, err := rendering.Transparency(); err == nil {
				rec.Transparency = &t
			}
		}
		return rec, 0, true
	}
	return nil, 0, false
}
