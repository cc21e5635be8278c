// Package ifclog accumulates per-run diagnostics for the API-visible
// Iterator.Log() surface, and provides the ambient structured logger used
// for operational messages that aren't part of that contract.
package ifclog

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Kind classifies a diagnostic message, mirroring spec §7's error kinds
// for the subset that degrades rather than aborts.
type Kind string

const (
	KindCast      Kind = "cast"
	KindMissing   Kind = "missing_reference"
	KindBackend   Kind = "backend"
	KindUnsupported Kind = "unsupported"
)

// Diag records one non-fatal issue encountered during parsing or
// iteration, keyed to the offending instance id when known.
type Diag struct {
	InstanceID int64
	Kind       Kind
	Message    string
}

func (d Diag) String() string {
	if d.InstanceID != 0 {
		return fmt.Sprintf("[%s] #%d: %s", d.Kind, d.InstanceID, d.Message)
	}
	return fmt.Sprintf("[%s] %s", d.Kind, d.Message)
}

// Log accumulates diagnostics across a parse+iterate run. It backs
// Iterator.Log(), the accumulated-diagnostics string surface named in
// spec §6.
type Log struct {
	items []Diag
}

// Add records a diagnostic.
func (l *Log) Add(instanceID int64, kind Kind, msg string) {
	l.items = append(l.items, Diag{InstanceID: instanceID, Kind: kind, Message: msg})
}

// Addf records a diagnostic with a formatted message.
func (l *Log) Addf(instanceID int64, kind Kind, format string, args ...any) {
	l.Add(instanceID, kind, fmt.Sprintf(format, args...))
}

// Items returns all accumulated diagnostics.
func (l *Log) Items() []Diag { return l.items }

// String renders the accumulated log as newline-separated lines, the
// format returned by Iterator.Log().
func (l *Log) String() string {
	var out string
	for _, d := range l.items {
		out += d.String() + "\n"
	}
	return out
}

// Logger is the ambient structured logger for operational messages (file
// open failures, backend fallbacks, CLI progress) that sit outside the
// per-product diagnostic ledger above.
var Logger = logrus.New()

func init() {
	Logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}
