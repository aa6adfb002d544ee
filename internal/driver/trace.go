package driver

import (
	"os"
	"sync"
)

// traceOnce gates global tracing initialization, per spec §5: "Global
// tracing is initialized exactly once." Grounded on
// pyre2/pyre2/lib/util/trace.rs (named in SPEC_FULL.md's supplemented
// features) generalized to the PYRE_LOG environment variable spec §6 names.
var (
	traceOnce      sync.Once
	traceDirective string
)

// initTracing reads PYRE_LOG on its first call in the process and discards
// it on every later call; RunOneShot calls this unconditionally so callers
// never have to sequence it themselves.
func initTracing() {
	traceOnce.Do(func() {
		traceDirective = os.Getenv("PYRE_LOG")
	})
}

// TraceDirective returns the PYRE_LOG value captured at the first
// initTracing call in this process, or "" if tracing was never initialized
// or the variable was unset.
func TraceDirective() string {
	return traceDirective
}
