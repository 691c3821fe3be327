// Package stacktrace converts Go call stacks into ordered frame descriptors
// for error reports.
package stacktrace

import (
	"runtime"

	"github.com/pkg/errors"
)

// Frame identifies a single call site in a stack trace.
type Frame struct {
	// Line is the line number within the source file.
	Line int `json:"line"`

	// Module is the full path of the source file.
	Module string `json:"module"`

	// Method is the name of the enclosing function.
	Method string `json:"method"`
}

// stackTracer is the interface exposed by errors created with
// github.com/pkg/errors. Errors wrapped with that package carry the call
// stack recorded at the point the error was created.
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// Callers walks the calling goroutine's stack and returns one Frame per call,
// in the order the runtime exposes them (innermost call first). skip is the
// number of frames to omit before recording, with 0 identifying the caller of
// Callers. A limit <= 0 means unbounded.
func Callers(skip, limit int) []Frame {
	pcs := make([]uintptr, 64)
	for {
		n := runtime.Callers(skip+2, pcs)
		if n < len(pcs) {
			pcs = pcs[:n]
			break
		}
		pcs = make([]uintptr, len(pcs)*2)
	}
	return fromPCs(pcs, limit)
}

// FromError extracts a stack trace recorded inside err or any error it wraps.
// When several errors in the chain carry traces, the deepest one wins: that is
// the trace closest to the root cause. The second return value reports whether
// a trace was found at all.
func FromError(err error, limit int) ([]Frame, bool) {
	var deepest stackTracer
	for e := err; e != nil; e = unwrap(e) {
		if st, ok := e.(stackTracer); ok {
			deepest = st
		}
	}
	if deepest == nil {
		return nil, false
	}

	trace := deepest.StackTrace()
	pcs := make([]uintptr, 0, len(trace))
	for _, f := range trace {
		pcs = append(pcs, uintptr(f))
	}
	return fromPCs(pcs, limit), true
}

// fromPCs resolves program counters into frames, preserving traversal order.
func fromPCs(pcs []uintptr, limit int) []Frame {
	result := []Frame{}
	if len(pcs) == 0 {
		return result
	}

	frames := runtime.CallersFrames(pcs)
	for {
		f, more := frames.Next()
		if f.PC != 0 {
			result = append(result, Frame{
				Line:   f.Line,
				Module: f.File,
				Method: f.Function,
			})
		}
		if !more || (limit > 0 && len(result) >= limit) {
			break
		}
	}
	return result
}

func unwrap(err error) error {
	u, ok := err.(interface{ Unwrap() error })
	if !ok {
		return nil
	}
	return u.Unwrap()
}
