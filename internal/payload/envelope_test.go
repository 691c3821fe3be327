package payload

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stack-sentinel/sentinel-go/internal/stacktrace"
)

func buildAndDecode(t *testing.T, env Envelope) map[string]any {
	t.Helper()

	data, err := Build(env)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	return doc
}

func firstError(t *testing.T, doc map[string]any) map[string]any {
	t.Helper()

	errs, ok := doc["errors"].([]any)
	require.True(t, ok, "errors must be an array")
	require.Len(t, errs, 1)

	entry, ok := errs[0].(map[string]any)
	require.True(t, ok)
	return entry
}

func TestBuild_Schema(t *testing.T) {
	doc := buildAndDecode(t, Envelope{
		AccountToken:       "acct",
		ProjectToken:       "proj",
		ReturnFeedbackURLs: true,
		Errors: []Error{{
			Type:        "os.PathError",
			Message:     "open /etc/missing: no such file or directory",
			Environment: "devel",
			Traceback: []stacktrace.Frame{
				{Line: 42, Module: "/src/app/main.go", Method: "main.run"},
			},
			State: map[string]any{"request_id": "r-1"},
			Tags:  []string{"io"},
		}},
	})

	assert.Equal(t, "acct", doc["account_token"])
	assert.Equal(t, "proj", doc["project_token"])
	assert.Equal(t, true, doc["return_feedback_urls"])

	entry := firstError(t, doc)
	assert.Equal(t, "os.PathError", entry["error_type"])
	assert.Equal(t, "open /etc/missing: no such file or directory", entry["error_message"])
	assert.Equal(t, "devel", entry["environment"])
	assert.Equal(t, []any{"io"}, entry["tags"])

	tb, ok := entry["traceback"].([]any)
	require.True(t, ok)
	require.Len(t, tb, 1)
	frame := tb[0].(map[string]any)
	assert.Equal(t, float64(42), frame["line"])
	assert.Equal(t, "/src/app/main.go", frame["module"])
	assert.Equal(t, "main.run", frame["method"])
}

func TestBuild_EmptyCollections(t *testing.T) {
	doc := buildAndDecode(t, Envelope{
		AccountToken: "acct",
		ProjectToken: "proj",
		Errors:       []Error{{Type: "x", Message: "y", Environment: "devel"}},
	})

	entry := firstError(t, doc)
	assert.Equal(t, []any{}, entry["traceback"], "nil traceback must marshal as an empty array")
	assert.Equal(t, []any{}, entry["tags"], "nil tags must marshal as an empty array")
	assert.Equal(t, map[string]any{}, entry["state"], "nil state must marshal as an empty object")
}

func TestBuild_UnserializableStateValue(t *testing.T) {
	env := Envelope{
		AccountToken: "acct",
		ProjectToken: "proj",
		Errors: []Error{{
			Type:        "x",
			Message:     "y",
			Environment: "devel",
			State: map[string]any{
				"bad":  make(chan int),
				"good": "value",
				"nested": map[string]any{
					"fn": func() {},
				},
				"list": []any{1, make(chan int)},
			},
		}},
	}

	doc := buildAndDecode(t, env)
	state := firstError(t, doc)["state"].(map[string]any)

	assert.Equal(t, "value", state["good"])
	assert.IsType(t, "", state["bad"], "unserializable value must degrade to text")

	nested := state["nested"].(map[string]any)
	assert.IsType(t, "", nested["fn"])

	list := state["list"].([]any)
	assert.Equal(t, float64(1), list[0])
	assert.IsType(t, "", list[1])
}

func TestBuild_CyclicState(t *testing.T) {
	state := map[string]any{"request_id": "r-1"}
	state["self"] = state

	loop := []any{nil}
	loop[0] = loop
	state["loop"] = loop

	doc := buildAndDecode(t, Envelope{
		AccountToken: "acct",
		ProjectToken: "proj",
		Errors:       []Error{{Type: "x", Message: "y", Environment: "devel", State: state}},
	})

	got := firstError(t, doc)["state"].(map[string]any)
	assert.Equal(t, "r-1", got["request_id"])
	assert.Equal(t, "<Circular Reference>", got["self"], "self-referential map must degrade to text")

	list := got["loop"].([]any)
	assert.Equal(t, "<Circular Reference>", list[0], "self-referential slice must degrade to text")
}

func TestBuild_SharedStateValue(t *testing.T) {
	shared := map[string]any{"n": 1}
	state := map[string]any{"a": shared, "b": shared}

	doc := buildAndDecode(t, Envelope{
		AccountToken: "acct",
		ProjectToken: "proj",
		Errors:       []Error{{Type: "x", Message: "y", Environment: "devel", State: state}},
	})

	got := firstError(t, doc)["state"].(map[string]any)
	assert.Equal(t, map[string]any{"n": float64(1)}, got["a"], "a value referenced twice is not a cycle")
	assert.Equal(t, map[string]any{"n": float64(1)}, got["b"])
}

func TestBuild_DoesNotMutateState(t *testing.T) {
	state := map[string]any{"bad": make(chan int)}

	_, err := Build(Envelope{
		AccountToken: "acct",
		ProjectToken: "proj",
		Errors:       []Error{{Type: "x", Message: "y", Environment: "devel", State: state}},
	})

	require.NoError(t, err)
	assert.IsType(t, make(chan int), state["bad"], "caller's state map must not be rewritten")
}

func TestFallback(t *testing.T) {
	assert.Equal(t, "7", Fallback(7))
	assert.NotEmpty(t, Fallback(make(chan int)))
}
