// Package dispatch turns batches of tagged records into display lines, choosing
// each record's transformation from its declared type.
package dispatch

import (
	"fmt"
	"os"

	"go.uber.org/zap"
)

// Policy decides what a failed transformation does to the rest of the batch.
type Policy int

const (
	// FailFast aborts the batch on the first transformation error.
	FailFast Policy = iota
	// BestEffort reports the failing record as a Diagnostic and continues.
	BestEffort
)

func (p Policy) String() string {
	if p == BestEffort {
		return "best-effort"
	}
	return "fail-fast"
}

// ParsePolicy maps "best-effort" to BestEffort. Anything else is FailFast.
func ParsePolicy(s string) Policy {
	if s == "best-effort" {
		return BestEffort
	}
	return FailFast
}

// Dispatcher transforms record batches. It holds no per-batch state.
type Dispatcher struct {
	policy   Policy
	reporter Reporter
	logger   *zap.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithPolicy sets the batch failure policy.
func WithPolicy(p Policy) Option {
	return func(d *Dispatcher) { d.policy = p }
}

// WithReporter sets where diagnostics for skipped records go.
func WithReporter(r Reporter) Option {
	return func(d *Dispatcher) {
		if r != nil {
			d.reporter = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// New returns a FailFast dispatcher that prints diagnostics to os.Stderr
// unless configured otherwise.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		reporter: WriterReporter(os.Stderr),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With(zap.String("component", "dispatch"))
	return d
}

// Policy returns the configured failure policy.
func (d *Dispatcher) Policy() Policy { return d.policy }

// Dispatch returns one "Item i: ..." line per record that has a value, in
// input order, where i is the record's position in records. Records without
// a value produce exactly one diagnostic and no line.
//
// Example:
//
//	lines, _ := dispatch.New().Dispatch([]dispatch.Record{
//		{Type: "string", Value: "hello"},
//		{Type: "number", Value: 21},
//	})
//	fmt.Println(lines) // [Item 0: String: HELLO Item 1: Number: 42]
func (d *Dispatcher) Dispatch(records []Record) ([]string, error) {
	out := make([]string, 0, len(records))
	for i, rec := range records {
		kind := rec.Kind()
		if rec.Value == nil {
			d.logger.Warn("record has no value", zap.Int("index", i), zap.Stringer("kind", kind))
			d.reporter.Report(Diagnostic{Index: i, Kind: kind, Err: ErrMissingValue})
			continue
		}
		processed, err := transform(kind, rec.Value)
		if err != nil {
			terr := &TransformationError{Index: i, Kind: kind, Value: rec.Value, Err: err}
			if d.policy == FailFast {
				d.logger.Error("transformation failed", zap.Int("index", i), zap.Error(terr))
				return nil, terr
			}
			d.logger.Warn("skipping record", zap.Int("index", i), zap.Error(terr))
			d.reporter.Report(Diagnostic{Index: i, Kind: kind, Err: terr})
			continue
		}
		out = append(out, fmt.Sprintf("Item %d: %s: %s", i, kind.label(), processed))
	}
	d.logger.Debug("batch dispatched", zap.Int("records", len(records)), zap.Int("lines", len(out)))
	return out, nil
}
