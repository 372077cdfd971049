// Package engine ties the synthesis pipeline together: the shared Context
// (configuration + RNG + pool + memoized calculator, spec §9 "Singletons"),
// and the three sentinel error kinds the rest of the package tree returns
// (spec §7 "Error handling design").
package engine

import "errors"

// ErrNoCandidate is returned when a selector index bucket is empty or the
// weighted sampler sees all-zero weights. Recovered locally by the caller:
// the driver retries with a finer partition.
var ErrNoCandidate = errors.New("engine: no candidate")

// ErrNoRule is returned when trace mapping cannot find a rule wide enough
// for a flow group, even after merging. Fatal for the current trace
// invocation.
var ErrNoRule = errors.New("engine: no rule")

// ErrBitWidth is returned when rule splitting or suffix extension would
// exceed a field's bit budget. Fatal locally; the caller either retries
// with a coarser partition or surfaces the failure.
var ErrBitWidth = errors.New("engine: bit width exceeded")
