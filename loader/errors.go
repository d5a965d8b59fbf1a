package loader

import (
	"errors"
	"strings"

	"github.com/caffeineduck/hirun/hostfunc"
)

// Phase identifies the step of a run that failed.
type Phase string

const (
	PhaseFetch       Phase = "fetch"
	PhaseInstantiate Phase = "instantiate"
	PhaseCall        Phase = "call"
)

var (
	// ErrImportMismatch: the module imports something the declared
	// namespaces do not provide.
	ErrImportMismatch = hostfunc.ErrImportMismatch

	// ErrExportNotFound: the requested export does not exist or is not a function.
	ErrExportNotFound = errors.New("export not found")

	// ErrSignatureMismatch: the export cannot be called with the given arguments.
	ErrSignatureMismatch = errors.New("signature mismatch")

	// ErrClosed: the loader was used after Close.
	ErrClosed = errors.New("loader closed")
)

// Error is a failure in one phase of a run.
type Error struct {
	Err      error
	Phase    Phase
	Resource string
	Export   string
}

func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteByte(']')

	if e.Resource != "" || e.Export != "" {
		b.WriteByte(' ')
		b.WriteString(e.Resource)
		if e.Export != "" {
			b.WriteByte('#')
			b.WriteString(e.Export)
		}
	}

	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// PhaseOf reports the phase of the first *Error in err's chain.
func PhaseOf(err error) (Phase, bool) {
	var le *Error
	if errors.As(err, &le) {
		return le.Phase, true
	}
	return "", false
}
