package steplex

import (
	"fmt"
	"io"

	"ifcgo/internal/ifcerr"
	"ifcgo/internal/stepfile"
)

// Lexer produces a stream of Tokens from a stepfile.Reader. It never
// allocates per token: every literal is represented purely as the file
// offset of its first byte, re-read on demand via TokenText.
type Lexer struct {
	f *stepfile.Reader
}

// New wraps a byte-stream reader in a Lexer.
func New(f *stepfile.Reader) *Lexer {
	return &Lexer{f: f}
}

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\r' || c == '\n' || c == '\t'
}

func isOperatorByte(c byte) bool {
	switch c {
	case OpParenOpen, OpParenClose, OpEquals, OpComma, OpSemicolon, OpNull, OpInherited:
		return true
	}
	return false
}

// Next reads the next token, skipping whitespace and block comments
// outside of string literals. Returns NoToken at end of file.
func (l *Lexer) Next() (Token, error) {
	for {
		c, err := l.f.Peek()
		if err != nil {
			if err == io.EOF {
				return NoToken, nil
			}
			return NoToken, fmt.Errorf("steplex: %w: %v", ifcerr.ErrLex, err)
		}
		if isWhitespace(c) {
			l.f.Advance()
			continue
		}
		break
	}

	c, err := l.f.Peek()
	if err != nil {
		return NoToken, nil
	}
	pos := l.f.Tell()

	// Single-character operator tokens.
	if isOperatorByte(c) {
		l.f.Advance()
		return OperatorToken(c), nil
	}

	var length int
	var prev byte
	inString := false
	inComment := false

	for {
		c, err := l.f.Peek()
		if err != nil {
			break
		}
		// A delimiter outside a string (or while in a comment) ends the
		// current literal without being consumed.
		if length > 0 && (!inString || inComment) && isDelimiterEnd(c) {
			break
		}
		l.f.Advance()

		if !inComment && !inString && isWhitespace(c) {
			continue
		}

		length++

		switch {
		case inComment && prev == '*' && c == '/':
			inComment = false
		case !inString && !inComment && prev == '/' && c == '*':
			inComment = true
		case !inComment && c == '\'':
			inString = !inString
		}
		prev = c
	}

	if length == 0 {
		return NoToken, nil
	}
	return LiteralToken(pos), nil
}

// isDelimiterEnd reports whether c ends a literal token when encountered
// outside a string/comment. Note: unlike the operator set used to *start*
// a token, ')' and '(' etc. here exclude '$' and '*' — a literal such as a
// real number never contains them, but the closing set mirrors the
// original parser exactly: ( ) = , ;
func isDelimiterEnd(c byte) bool {
	switch c {
	case OpParenOpen, OpParenClose, OpEquals, OpComma, OpSemicolon:
		return true
	}
	return false
}

// TokenText re-reads the literal at the given token's offset by re-running
// the same whitespace/comment/string rules used during lexing, stopping at
// the next delimiter. String and enumeration literals have their
// surrounding punctuation stripped.
func (l *Lexer) TokenText(t Token) (string, error) {
	if IsOperator(t, 0) {
		return string(rune(byte(t))), nil
	}
	offset := Offset(t)
	saved := l.f.Tell()
	l.f.Seek(offset)
	defer l.f.Seek(saved)

	var out []byte
	var prev byte
	inString := false
	inComment := false

	for {
		c, err := l.f.Peek()
		if err != nil {
			break
		}
		if len(out) > 0 && (!inString || inComment) && isDelimiterEnd(c) {
			break
		}
		l.f.Advance()
		if !inComment && !inString && isWhitespace(c) {
			continue
		}
		if !inComment {
			out = append(out, c)
		}
		switch {
		case inComment && prev == '*' && c == '/':
			inComment = false
		case !inString && !inComment && prev == '/' && c == '*':
			inComment = true
		case !inComment && c == '\'':
			inString = !inString
		}
		prev = c
	}

	s := string(out)
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '.') {
		return s[1 : len(s)-1], nil
	}
	return s, nil
}

// startsWith classifies a literal token by its first byte, mirroring
// TokenFunc::isIdentifier/isString/isEnumeration/isDatatype.
func (l *Lexer) startsWith(t Token, c byte) bool {
	b, err := l.f.ReadAt(Offset(t))
	if err != nil {
		return false
	}
	return b == c
}

func (l *Lexer) IsIdentifier(t Token) bool { return !IsOperator(t, 0) && l.startsWith(t, '#') }
func (l *Lexer) IsString(t Token) bool     { return !IsOperator(t, 0) && l.startsWith(t, '\'') }
func (l *Lexer) IsEnumeration(t Token) bool { return !IsOperator(t, 0) && l.startsWith(t, '.') }
func (l *Lexer) IsDatatype(t Token) bool   { return !IsOperator(t, 0) && l.startsWith(t, 'I') }

// File exposes the underlying byte-stream reader for callers (the entity
// store) that need to seek directly, e.g. when materializing an instance
// from its stored opening offset.
func (l *Lexer) File() *stepfile.Reader { return l.f }
