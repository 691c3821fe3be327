// Package payload builds the Stack Sentinel API v1 JSON envelope.
package payload

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/stack-sentinel/sentinel-go/internal/stacktrace"
)

// Envelope is the top-level document sent to the service.
type Envelope struct {
	AccountToken       string  `json:"account_token"`
	ProjectToken       string  `json:"project_token"`
	ReturnFeedbackURLs bool    `json:"return_feedback_urls"`
	Errors             []Error `json:"errors"`
}

// Error is a single reported error inside an envelope.
type Error struct {
	Type        string             `json:"error_type"`
	Message     string             `json:"error_message"`
	Environment string             `json:"environment"`
	Traceback   []stacktrace.Frame `json:"traceback"`
	State       map[string]any     `json:"state"`
	Tags        []string           `json:"tags"`
}

// Build serializes the envelope. State values the JSON encoder cannot
// represent are replaced with their Fallback rendering, so a report is never
// lost over one bad field. Nil tracebacks and tag lists marshal as empty
// arrays, a nil state as an empty object.
func Build(env Envelope) ([]byte, error) {
	for i := range env.Errors {
		e := &env.Errors[i]
		if e.Traceback == nil {
			e.Traceback = []stacktrace.Frame{}
		}
		if e.Tags == nil {
			e.Tags = []string{}
		}
		if e.State == nil {
			e.State = map[string]any{}
		} else {
			e.State = sanitizeMap(e.State)
		}
	}

	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("failed to encode envelope: %w", err)
	}
	return data, nil
}

// sanitizeMap returns a copy of m with every unserializable value replaced by
// its fallback text. The input map is never modified.
func sanitizeMap(m map[string]any) map[string]any {
	return sanitize(m, map[uintptr]bool{}).(map[string]any)
}

// sanitize recurses into maps and slices so that a single bad leaf does not
// degrade its whole container. visited holds the container pointers on the
// current recursion path; a container that contains itself would otherwise
// recurse until the stack is exhausted, which recover cannot catch.
func sanitize(v any, visited map[uintptr]bool) any {
	switch x := v.(type) {
	case map[string]any:
		p := reflect.ValueOf(x).Pointer()
		if visited[p] {
			return circularPlaceholder
		}
		visited[p] = true
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = sanitize(e, visited)
		}
		delete(visited, p)
		return out
	case []any:
		if len(x) == 0 {
			return []any{}
		}
		p := reflect.ValueOf(x).Pointer()
		if visited[p] {
			return circularPlaceholder
		}
		visited[p] = true
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = sanitize(e, visited)
		}
		delete(visited, p)
		return out
	default:
		if _, err := json.Marshal(v); err != nil {
			return Fallback(v)
		}
		return v
	}
}
