// Package steplex lexes STEP physical-file text into an offset-addressed
// token stream and builds the lazy argument tree on top of it.
package steplex

import "fmt"

// Token is a compact discriminated value: operators occupy the reserved
// low range [0,127]; anything else is a literal's absolute file offset
// plus operatorRange, ported directly from the IfcOpenShell TokenPtr/
// TokenFunc::Offset scheme so the offset-as-token trick stays intact.
type Token uint64

const operatorRange = 128

// NoToken is the zero/sentinel token returned at end of file.
const NoToken Token = 0

// Operator tokens, one rune each.
const (
	OpParenOpen  byte = '('
	OpParenClose byte = ')'
	OpEquals     byte = '='
	OpComma      byte = ','
	OpSemicolon  byte = ';'
	OpNull       byte = '$'
	OpInherited  byte = '*'
)

// OperatorToken builds the token for a single operator character.
func OperatorToken(c byte) Token { return Token(c) }

// LiteralToken builds the token for a literal starting at the given
// absolute file offset.
func LiteralToken(offset int64) Token { return Token(offset) + operatorRange }

// IsOperator reports whether t is an operator token, optionally
// constrained to a specific operator character (pass 0 to match any).
func IsOperator(t Token, op byte) bool {
	return t < operatorRange && (op == 0 || byte(t) == op)
}

// Offset returns the absolute file offset of a literal token. Panics if t
// is an operator token — callers must check IsOperator first.
func Offset(t Token) int64 {
	if t < operatorRange {
		panic(fmt.Sprintf("steplex: token %d is an operator, not a literal", t))
	}
	return int64(t) - operatorRange
}
