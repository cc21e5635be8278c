// Package ifcerr defines the error taxonomy shared across the parser and
// geometry pipeline (spec §7): a small set of sentinel errors, each wrapped
// with call-site context via fmt.Errorf("...: %w", ...).
package ifcerr

import "errors"

var (
	// ErrFileOpen indicates the source file could not be opened or is not
	// a recognizable STEP physical file. Fatal: prevents iteration.
	ErrFileOpen = errors.New("ifcgo: file open failure")

	// ErrLex indicates a malformed token was encountered. Fatal for the
	// file: the scan can no longer guarantee balanced parentheses.
	ErrLex = errors.New("ifcgo: lex error")

	// ErrCast indicates an argument was asked for as a type it is not.
	// Recoverable: surfaced as a per-product warning during iteration.
	ErrCast = errors.New("ifcgo: argument cast error")

	// ErrMissingReference indicates a `#n` was dereferenced but never
	// defined in the file. Recoverable unless the reference was essential
	// to the current product, in which case the product is skipped.
	ErrMissingReference = errors.New("ifcgo: missing reference")

	// ErrBackend indicates the geometry backend refused an operation
	// (sewing, boolean, triangulation). Recoverable: the cursor falls back
	// to a documented degraded result or drops the item.
	ErrBackend = errors.New("ifcgo: geometry backend failure")

	// ErrUnsupported indicates a construct with no conversion path (e.g. a
	// half-space over a non-planar surface). Recoverable: the enclosing
	// product loses that representation item.
	ErrUnsupported = errors.New("ifcgo: unsupported construct")
)

// Mode controls how the parser's scan reacts to a malformed instance.
// The geometry iterator only hands it to the parser: per-product failures
// during iteration are logged as diagnostics in either mode.
type Mode int

const (
	// ModeBestEffort logs a malformed instance as a diagnostic and
	// continues the scan.
	ModeBestEffort Mode = iota
	// ModeStrict returns the first malformed instance's error, ending the
	// scan.
	ModeStrict
)
