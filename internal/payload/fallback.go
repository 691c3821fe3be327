package payload

import "fmt"

// fallbackPlaceholder is used when a value cannot even be formatted, for
// example when its String method panics.
const fallbackPlaceholder = "<Cannot Be Serialized>"

// circularPlaceholder replaces a container that contains itself. Rendering
// such a value through Fallback would recurse the same way the encoder does.
const circularPlaceholder = "<Circular Reference>"

// Fallback renders a human-readable representation of a value that could not
// be serialized natively. It never panics.
func Fallback(v any) (s string) {
	defer func() {
		if recover() != nil {
			s = fallbackPlaceholder
		}
	}()
	return fmt.Sprintf("%v", v)
}
