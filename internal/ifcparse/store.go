// Package ifcparse is the entity store: it owns the five indices spec §3
// names (forward by-id, by-offset, by-type, inverse/referrers, by-guid)
// and the single linear scan that builds them, ported from
// IfcParse.cpp's Ifc::Init two-token lookahead loop.
package ifcparse

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/zboralski/lattice"

	"ifcgo/internal/ifcerr"
	"ifcgo/internal/ifclog"
	"ifcgo/internal/ifcschema"
	"ifcgo/internal/stepfile"
	"ifcgo/internal/steplex"
)

// Instance is one `#id = TYPE(args);` record. Only its id, type and
// offsets are known at scan time; its argument list is constructed from
// argsOffset on first dereference and cached, per spec §3's "lazily
// populated argument list" and §4.D's by_id contract ("constructing it
// from its offset if not already present") — ported from Entity::Load's
// args-starts-nil-until-getArgument discipline in IfcParse.cpp.
type Instance struct {
	ID         int64
	Type       ifcschema.Tag
	RawType    string
	Offset     int64
	argsOffset int64
	lex        *steplex.Lexer
	args       *steplex.Argument
}

// InstanceID, SchemaType and Attr satisfy ifcschema.Entity, letting any
// typed façade in that package wrap an *Instance directly.
func (inst *Instance) InstanceID() int64        { return inst.ID }
func (inst *Instance) SchemaType() ifcschema.Tag { return inst.Type }

func (inst *Instance) Attr(i int) (*steplex.Argument, error) {
	args, err := inst.ensureArgs()
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= len(args.Items) {
		return nil, fmt.Errorf("%w: instance #%d has no attribute %d", ifcerr.ErrCast, inst.ID, i)
	}
	return args.Items[i], nil
}

// ensureArgs materializes this instance's argument tree from argsOffset
// the first time it's dereferenced, and caches it thereafter — a bad
// argument anywhere in this instance's own list now only fails the
// caller that dereferenced it, not the whole scan (spec §4.D).
func (inst *Instance) ensureArgs() (*steplex.Argument, error) {
	if inst.args != nil {
		return inst.args, nil
	}
	f := inst.lex.File()
	saved := f.Tell()
	f.Seek(inst.argsOffset)
	defer f.Seek(saved)

	var refs []int64
	args, err := steplex.ParseArgumentList(inst.lex, &refs)
	if err != nil {
		return nil, fmt.Errorf("%w: instance #%d: %v", ifcerr.ErrCast, inst.ID, err)
	}
	inst.args = args
	return args, nil
}

// Store is the parsed file: every instance, indexed five ways.
type Store struct {
	file *os.File

	byID      map[int64]*Instance
	offsets   map[int64]int64
	byType    map[ifcschema.Tag][]int64
	byGUID    map[string]int64
	referrers *lattice.Graph

	Mode ifcerr.Mode
	Log  *ifclog.Log
}

// Open parses path into a fully-indexed Store. Malformed instances are
// skipped as diagnostics under ModeBestEffort, or abort the scan under
// ModeStrict, per spec §7.
func Open(path string, mode ifcerr.Mode) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ifcerr.ErrFileOpen, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", ifcerr.ErrFileOpen, err)
	}
	reader, err := stepfile.New(f, info.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", ifcerr.ErrFileOpen, err)
	}

	s := &Store{
		file:      f,
		byID:      make(map[int64]*Instance),
		offsets:   make(map[int64]int64),
		byType:    make(map[ifcschema.Tag][]int64),
		byGUID:    make(map[string]int64),
		referrers: &lattice.Graph{},
		Mode:      mode,
		Log:       &ifclog.Log{},
	}

	if err := s.scan(steplex.New(reader)); err != nil {
		f.Close()
		return nil, err
	}
	s.referrers.Dedup()
	return s, nil
}

// scan ports Ifc::Init's main loop: a two-token lookahead watches for
// `#id = KEYWORD (` and, on a match, records the instance's id/type/
// offset and skips forward over its argument list, collecting every
// `#n` reference found anywhere in the tree for the inverse index
// without materializing the tree itself.
func (s *Store) scan(lex *steplex.Lexer) error {
	var prev steplex.Token
	havePrev := false

	for {
		tok, err := lex.Next()
		if err != nil {
			return err
		}
		if tok == steplex.NoToken {
			break
		}

		if havePrev && lex.IsIdentifier(prev) && steplex.IsOperator(tok, steplex.OpEquals) {
			if err := s.readInstance(lex, prev); err != nil {
				if s.Mode == ifcerr.ModeStrict {
					return err
				}
				s.Log.Addf(0, ifclog.KindUnsupported, "skipped malformed instance: %v", err)
			}
			havePrev = false
			continue
		}

		prev = tok
		havePrev = true
	}
	return nil
}

// readInstance consumes `KEYWORD ( args ) ;` after the `#id =` already
// recognized by scan, and indexes the resulting Instance.
func (s *Store) readInstance(lex *steplex.Lexer, idTok steplex.Token) error {
	offset := steplex.Offset(idTok)
	idText, err := lex.TokenText(idTok)
	if err != nil {
		return err
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(idText, "#"), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %q is not an instance id", ifcerr.ErrLex, idText)
	}

	kwTok, err := lex.Next()
	if err != nil {
		return err
	}
	if kwTok == steplex.NoToken || steplex.IsOperator(kwTok, 0) {
		return fmt.Errorf("%w: expected type keyword after #%d =", ifcerr.ErrLex, id)
	}
	keyword, err := lex.TokenText(kwTok)
	if err != nil {
		return err
	}

	openTok, err := lex.Next()
	if err != nil {
		return err
	}
	if !steplex.IsOperator(openTok, steplex.OpParenOpen) {
		return fmt.Errorf("%w: expected '(' after %s", ifcerr.ErrLex, keyword)
	}
	argsOffset := lex.File().Tell()

	// Scan forward just far enough to balance this instance's parentheses
	// and collect every #n reference for the inverse index; the argument
	// tree itself is built lazily from argsOffset on first dereference.
	var refs []int64
	if err := steplex.SkipArgumentList(lex, &refs); err != nil {
		return err
	}

	// Consume the trailing ';'. Well-formed files always have one; if it's
	// missing we've already indexed the instance and simply resume the
	// outer scan from whatever follows.
	if _, err := lex.Next(); err != nil {
		return err
	}

	name := strings.ToUpper(keyword)
	tag := ifcschema.FromName(name)
	inst := &Instance{ID: id, Type: tag, RawType: name, Offset: offset, argsOffset: argsOffset, lex: lex}

	if _, dup := s.byID[id]; dup {
		s.Log.Addf(id, ifclog.KindUnsupported, "duplicate instance id, keeping last definition")
	}
	s.byID[id] = inst
	s.offsets[id] = offset
	s.byType[tag] = append(s.byType[tag], id)

	s.referrers.Nodes = append(s.referrers.Nodes, nodeName(id))
	for _, ref := range refs {
		s.referrers.Edges = append(s.referrers.Edges, lattice.Edge{
			Caller: nodeName(id),
			Callee: nodeName(ref),
		})
	}

	if ifcschema.Is(tag, ifcschema.IfcRoot) {
		root := ifcschema.NewRoot(inst)
		if guid, err := root.GlobalId(); err == nil && ifcschema.ValidGUID(guid) {
			s.byGUID[guid] = id
		}
	}

	return nil
}

func nodeName(id int64) string { return strconv.FormatInt(id, 10) }

// Close releases the underlying file handle.
func (s *Store) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}

// ByID returns the instance with the given id.
func (s *Store) ByID(id int64) (*Instance, error) {
	inst, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: #%d", ifcerr.ErrMissingReference, id)
	}
	return inst, nil
}

// Offset returns the byte offset at which instance id's `#id` token
// begins, the by-offset index named in spec §3.
func (s *Store) Offset(id int64) (int64, bool) {
	off, ok := s.offsets[id]
	return off, ok
}

// ByType returns every instance id whose resolved type is exactly tag
// (not its subtypes — use ByTypes for a type and its descendants).
func (s *Store) ByType(tag ifcschema.Tag) []int64 {
	return append([]int64(nil), s.byType[tag]...)
}

// ByTypes returns every instance whose type is any of tags or one of
// their subtypes, the generalize-to-list convenience supplementing
// IfcEntityList (spec's Supplemented Features).
func (s *Store) ByTypes(tags ...ifcschema.Tag) []int64 {
	var out []int64
	for t, ids := range s.byType {
		for _, want := range tags {
			if ifcschema.Is(t, want) {
				out = append(out, ids...)
				break
			}
		}
	}
	return out
}

// Referrers returns every instance id that references id anywhere in its
// own argument tree — the inverse index, ported from Entity::getInverse.
func (s *Store) Referrers(id int64) []int64 {
	want := nodeName(id)
	var out []int64
	for _, e := range s.referrers.Edges {
		if e.Callee == want {
			if n, err := strconv.ParseInt(e.Caller, 10, 64); err == nil {
				out = append(out, n)
			}
		}
	}
	return out
}

// ReferrersWhere filters Referrers(id) to instances of type tag whose
// attribute at argIndex equals id — the supplemented
// getInverse(type, attribute_index) overload from IfcUtil.h.
func (s *Store) ReferrersWhere(id int64, tag ifcschema.Tag, argIndex int) []int64 {
	var out []int64
	for _, rid := range s.Referrers(id) {
		inst, err := s.ByID(rid)
		if err != nil || !ifcschema.Is(inst.Type, tag) {
			continue
		}
		arg, err := inst.Attr(argIndex)
		if err != nil {
			continue
		}
		if ref, err := arg.AsIdentifier(); err == nil && ref == id {
			out = append(out, rid)
		}
	}
	return out
}

// ReferrersOfType filters Referrers(id) down to instances whose type is
// (a subtype of) tag, without regard to which attribute holds the
// reference — used where the referencing attribute is itself a list
// (spec §4.H's representation->product population, §4.I's decomposition
// walk), so an exact-index match like ReferrersWhere can't apply.
func (s *Store) ReferrersOfType(id int64, tag ifcschema.Tag) []int64 {
	var out []int64
	for _, rid := range s.Referrers(id) {
		inst, err := s.ByID(rid)
		if err != nil || !ifcschema.Is(inst.Type, tag) {
			continue
		}
		out = append(out, rid)
	}
	return out
}

// ReferrersListContains is ReferrersWhere's counterpart for a
// list-valued attribute: it keeps referrers of type tag whose attribute
// at argIndex is a list containing id (e.g. IfcRelContainedInSpatialStructure.RelatedElements).
func (s *Store) ReferrersListContains(id int64, tag ifcschema.Tag, argIndex int) []int64 {
	var out []int64
	for _, rid := range s.ReferrersOfType(id, tag) {
		inst, err := s.ByID(rid)
		if err != nil {
			continue
		}
		arg, err := inst.Attr(argIndex)
		if err != nil {
			continue
		}
		ids, err := arg.AsInts()
		if err != nil {
			continue
		}
		for _, v := range ids {
			if v == id {
				out = append(out, rid)
				break
			}
		}
	}
	return out
}

// ByGUID resolves an IfcGloballyUniqueId string to its instance.
func (s *Store) ByGUID(guid string) (*Instance, error) {
	id, ok := s.byGUID[guid]
	if !ok {
		return nil, fmt.Errorf("%w: guid %q", ifcerr.ErrMissingReference, guid)
	}
	return s.ByID(id)
}

// Len returns the number of indexed instances.
func (s *Store) Len() int { return len(s.byID) }

var _ io.Closer = (*Store)(nil)
