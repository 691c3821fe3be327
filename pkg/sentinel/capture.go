package sentinel

import (
	"reflect"

	"github.com/stack-sentinel/sentinel-go/internal/payload"
	"github.com/stack-sentinel/sentinel-go/internal/stacktrace"
)

// ExceptionInfo describes a captured exception: its classification, message,
// original value, and walked call stack. Capture fills all fields; callers
// with their own stack data can construct one directly.
type ExceptionInfo struct {
	// Type is the error classification sent as error_type.
	Type string

	// Message is the description sent as error_message.
	Message string

	// Value is the original error or panic value.
	Value any

	// Frames is the walked call stack, innermost call first.
	Frames []Frame
}

// Capture snapshots an error or recovered panic value for reporting. Errors
// created with github.com/pkg/errors contribute the stack recorded when the
// error was created; anything else is paired with the stack at the Capture
// call site.
func Capture(v any) *ExceptionInfo {
	info := &ExceptionInfo{
		Type:    typeName(v),
		Message: messageOf(v),
		Value:   v,
	}

	if err, ok := v.(error); ok {
		if frames, ok := stacktrace.FromError(err, 0); ok {
			info.Frames = frames
			return info
		}
	}

	info.Frames = stacktrace.Callers(1, 0)
	return info
}

// typeName returns the dereferenced type of v as text, such as
// "os.PathError" or "string".
func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.String()
}

// messageOf derives the report message from the value. Error and string
// values speak for themselves; everything else gets a best-effort rendering.
func messageOf(v any) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case error:
		return errorText(x)
	case string:
		return x
	default:
		return payload.Fallback(v)
	}
}

// errorText calls err.Error, degrading to the fallback rendering when the
// method itself panics. A broken Error method must not abort the report.
func errorText(err error) (msg string) {
	defer func() {
		if recover() != nil {
			msg = payload.Fallback(err)
		}
	}()
	return err.Error()
}
