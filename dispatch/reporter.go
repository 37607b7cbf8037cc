package dispatch

import (
	"fmt"
	"io"
)

// Diagnostic describes a record that produced no output.
type Diagnostic struct {
	Index int
	Kind  Kind
	Err   error
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("item %d: %v", d.Index, d.Err)
}

// Reporter receives diagnostics for skipped records.
type Reporter interface {
	Report(Diagnostic)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(Diagnostic)

// Report implements Reporter.
func (f ReporterFunc) Report(d Diagnostic) {
	if f != nil {
		f(d)
	}
}

// WriterReporter prints one "Error: ..." line per diagnostic to w.
func WriterReporter(w io.Writer) Reporter {
	return ReporterFunc(func(d Diagnostic) {
		_, _ = fmt.Fprintf(w, "Error: %s\n", d)
	})
}
