package steplex

import (
	"fmt"
	"strconv"
	"strings"

	"ifcgo/internal/ifcerr"
)

// Kind discriminates the three Argument variants described in spec §3.
type Kind int

const (
	KindScalar Kind = iota
	KindList
	KindInlineEntity
)

// Argument is a lazily-interpreted node of the argument tree rooted at an
// instance's opening parenthesis. Exactly one of the per-kind fields is
// meaningful, selected by Kind.
type Argument struct {
	lex  *Lexer
	Kind Kind

	// KindScalar
	token Token

	// KindList
	Items []*Argument

	// KindInlineEntity: a typed value such as IFCTEXT('foo') or
	// IFCPARAMETERVALUE(0.). TypeName is the raw datatype keyword; Args is
	// the entity's own (one-element, in practice) argument list.
	TypeName string
	Args     *Argument
}

// IsNull reports whether this argument is the `$` token.
func (a *Argument) IsNull() bool {
	return a.Kind == KindScalar && IsOperator(a.token, OpNull)
}

// IsInherited reports whether this argument is the `*` ("inherited") token.
func (a *Argument) IsInherited() bool {
	return a.Kind == KindScalar && IsOperator(a.token, OpInherited)
}

func (a *Argument) castErr(want string) error {
	return fmt.Errorf("%w: not a%s %s", ifcerr.ErrCast, articleSuffix(want), want)
}

func articleSuffix(s string) string {
	if len(s) > 0 && strings.ContainsRune("aeiouAEIOU", rune(s[0])) {
		return "n"
	}
	return ""
}

// AsInt casts a scalar identifier/integer argument to int64. An inherited
// (`*`) argument casts to 0, matching the original parser's treatment of
// `*` as null for numeric casts.
func (a *Argument) AsInt() (int64, error) {
	if a.Kind != KindScalar {
		return 0, a.castErr("integer")
	}
	if a.IsInherited() {
		return 0, nil
	}
	if !a.lex.IsIdentifier(a.token) {
		s, err := a.lex.TokenText(a.token)
		if err != nil {
			return 0, err
		}
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not an integer", ifcerr.ErrCast, s)
		}
		return n, nil
	}
	return a.AsIdentifier()
}

// AsIdentifier casts a `#n` scalar argument to its referenced instance id.
func (a *Argument) AsIdentifier() (int64, error) {
	if a.Kind != KindScalar || !a.lex.IsIdentifier(a.token) {
		return 0, a.castErr("identifier")
	}
	s, err := a.lex.TokenText(a.token)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
}

// AsBool casts a `.T.`/`.F.` enumeration scalar to bool.
func (a *Argument) AsBool() (bool, error) {
	s, err := a.AsEnumeration()
	if err != nil {
		return false, a.castErr("boolean")
	}
	return s == "T", nil
}

// AsFloat casts a scalar numeric argument to float64. An inherited (`*`)
// argument casts to 0, matching the original parser's treatment of `*` as
// null for numeric casts.
func (a *Argument) AsFloat() (float64, error) {
	if a.Kind != KindScalar {
		return 0, a.castErr("number")
	}
	if a.IsInherited() {
		return 0, nil
	}
	s, err := a.lex.TokenText(a.token)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ifcerr.ErrCast, s)
	}
	return f, nil
}

// AsString returns the raw text of a string/enumeration/identifier/keyword
// scalar argument, with string/enumeration punctuation already stripped by
// TokenText.
func (a *Argument) AsString() (string, error) {
	if a.Kind != KindScalar {
		return "", a.castErr("string")
	}
	if IsOperator(a.token, OpNull) {
		return "", nil
	}
	if IsOperator(a.token, 0) {
		return "", a.castErr("string")
	}
	return a.lex.TokenText(a.token)
}

// AsEnumeration returns the bare name of a `.NAME.` scalar.
func (a *Argument) AsEnumeration() (string, error) {
	if a.Kind != KindScalar || !a.lex.IsEnumeration(a.token) {
		return "", a.castErr("enumeration")
	}
	return a.lex.TokenText(a.token)
}

// Size returns the number of elements: 1 for scalar/inline-entity, len(Items)
// for a list.
func (a *Argument) Size() int {
	switch a.Kind {
	case KindList:
		return len(a.Items)
	default:
		return 1
	}
}

// Index returns the i-th element of a list argument.
func (a *Argument) Index(i int) (*Argument, error) {
	if a.Kind != KindList {
		return nil, a.castErr("list")
	}
	if i < 0 || i >= len(a.Items) {
		return nil, fmt.Errorf("%w: index %d out of range (size %d)", ifcerr.ErrCast, i, len(a.Items))
	}
	return a.Items[i], nil
}

// AsFloats casts a list of scalar numbers to []float64.
func (a *Argument) AsFloats() ([]float64, error) {
	if a.Kind != KindList {
		return nil, a.castErr("list of numbers")
	}
	out := make([]float64, 0, len(a.Items))
	for _, it := range a.Items {
		f, err := it.AsFloat()
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// AsInts casts a list of scalar integers to []int64.
func (a *Argument) AsInts() ([]int64, error) {
	if a.Kind != KindList {
		return nil, a.castErr("list of integers")
	}
	out := make([]int64, 0, len(a.Items))
	for _, it := range a.Items {
		n, err := it.AsInt()
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// AsStrings casts a list of scalar strings to []string.
func (a *Argument) AsStrings() ([]string, error) {
	if a.Kind != KindList {
		return nil, a.castErr("list of strings")
	}
	out := make([]string, 0, len(a.Items))
	for _, it := range a.Items {
		s, err := it.AsString()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// String renders the argument the way the STEP file spells it, used for
// diagnostics and the boundary-rep textual dump path.
func (a *Argument) String() string {
	switch a.Kind {
	case KindList:
		parts := make([]string, len(a.Items))
		for i, it := range a.Items {
			parts[i] = it.String()
		}
		return "(" + strings.Join(parts, ",") + ")"
	case KindInlineEntity:
		return a.TypeName + a.Args.String()
	default:
		s, err := a.lex.TokenText(a.token)
		if err != nil {
			return "?"
		}
		if a.lex.IsString(a.token) {
			return "'" + s + "'"
		}
		if a.lex.IsEnumeration(a.token) {
			return "." + s + "."
		}
		return s
	}
}

// SkipArgumentList scans tokens from lex until the matching closing
// parenthesis (the opening '(' has already been consumed by the caller),
// collecting every `#n` identifier reference found anywhere in the tree
// into refs without constructing an Argument tree. This is the scan-time
// pass: it balances parens and feeds the inverse index (spec §4.C) while
// leaving full materialization of the argument tree to ParseArgumentList
// on first dereference (spec §3/§4.D's lazy by_id contract).
func SkipArgumentList(lex *Lexer, refs *[]int64) error {
	for {
		tok, err := lex.Next()
		if err != nil {
			return err
		}
		if tok == NoToken {
			return fmt.Errorf("%w: unterminated argument list", ifcerr.ErrLex)
		}
		if IsOperator(tok, OpComma) {
			continue
		}
		if IsOperator(tok, OpParenClose) {
			return nil
		}
		if IsOperator(tok, OpParenOpen) {
			if err := SkipArgumentList(lex, refs); err != nil {
				return err
			}
			continue
		}
		if lex.IsIdentifier(tok) {
			arg := &Argument{lex: lex, Kind: KindScalar, token: tok}
			id, err := arg.AsIdentifier()
			if err != nil {
				return err
			}
			*refs = append(*refs, id)
			continue
		}
		if lex.IsDatatype(tok) {
			open, err := lex.Next()
			if err != nil {
				return err
			}
			if !IsOperator(open, OpParenOpen) {
				name, _ := lex.TokenText(tok)
				return fmt.Errorf("%w: expected '(' after typed value %s", ifcerr.ErrLex, name)
			}
			if err := SkipArgumentList(lex, refs); err != nil {
				return err
			}
			continue
		}
	}
}

// ParseArgumentList scans tokens from lex until the matching closing
// parenthesis (the opening '(' has already been consumed by the caller)
// and returns a KindList Argument. Every identifier token `#n` encountered
// anywhere in the tree, at any depth, is appended to refs — the caller
// uses this to populate the enclosing instance's inverse-index
// contribution in one pass, mirroring ArgumentList's threaded ids vector.
func ParseArgumentList(lex *Lexer, refs *[]int64) (*Argument, error) {
	list := &Argument{lex: lex, Kind: KindList}
	for {
		tok, err := lex.Next()
		if err != nil {
			return nil, err
		}
		if tok == NoToken {
			return nil, fmt.Errorf("%w: unterminated argument list", ifcerr.ErrLex)
		}
		if IsOperator(tok, OpComma) {
			continue
		}
		if IsOperator(tok, OpParenClose) {
			break
		}
		if IsOperator(tok, OpParenOpen) {
			nested, err := ParseArgumentList(lex, refs)
			if err != nil {
				return nil, err
			}
			list.Items = append(list.Items, nested)
			continue
		}
		if lex.IsIdentifier(tok) {
			arg := &Argument{lex: lex, Kind: KindScalar, token: tok}
			id, err := arg.AsIdentifier()
			if err != nil {
				return nil, err
			}
			*refs = append(*refs, id)
			list.Items = append(list.Items, arg)
			continue
		}
		if lex.IsDatatype(tok) {
			name, err := lex.TokenText(tok)
			if err != nil {
				return nil, err
			}
			open, err := lex.Next()
			if err != nil {
				return nil, err
			}
			if !IsOperator(open, OpParenOpen) {
				return nil, fmt.Errorf("%w: expected '(' after typed value %s", ifcerr.ErrLex, name)
			}
			inner, err := ParseArgumentList(lex, refs)
			if err != nil {
				return nil, err
			}
			list.Items = append(list.Items, &Argument{
				lex:      lex,
				Kind:     KindInlineEntity,
				TypeName: strings.ToUpper(name),
				Args:     inner,
			})
			continue
		}
		list.Items = append(list.Items, &Argument{lex: lex, Kind: KindScalar, token: tok})
	}
	return list, nil
}
