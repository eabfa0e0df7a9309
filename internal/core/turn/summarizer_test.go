package turn

import (
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/codex-audit/internal/core/model"
)

// decodeEvents builds events the same way the reader does, so Payload.Raw is
// populated.
func decodeEvents(t *testing.T, lines ...string) []model.Event {
	t.Helper()
	events := make([]model.Event, 0, len(lines))
	for _, line := range lines {
		var event model.Event
		require.NoError(t, sonic.UnmarshalString(line, &event))
		events = append(events, event)
	}
	return events
}

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(nil)

	assert.Empty(t, summary.UserMessages)
	assert.Empty(t, summary.AssistantMessages)
	assert.Empty(t, summary.AssistantReasoning)
	assert.Empty(t, summary.AssistantPlanUpdates)
	assert.Empty(t, summary.ToolCalls)
	assert.Empty(t, summary.Timeline)
	assert.Equal(t, 0, summary.EventCount)

	// Empty arrays must serialize as [], not null.
	assert.NotNil(t, summary.UserMessages)
	assert.NotNil(t, summary.ToolCalls)
	assert.NotNil(t, summary.Timeline)
}

func TestSummarizeMessagesAndTimeline(t *testing.T) {
	events := decodeEvents(t,
		`{"type":"response_item","payload":{"type":"message","role":"user","content":[{"text":"hi"}]}}`,
		`{"type":"response_item","payload":{"type":"message","role":"assistant","content":[{"text":"hello"}]}}`,
	)

	summary := Summarize(events)

	assert.Equal(t, []string{"hi"}, summary.UserMessages)
	assert.Equal(t, []string{"hello"}, summary.AssistantMessages)
	assert.Equal(t, 2, summary.EventCount)
	require.Len(t, summary.Timeline, 2)
	assert.Equal(t, model.TimelineEntry{Event: "user_message", Index: 0}, summary.Timeline[0])
	assert.Equal(t, model.TimelineEntry{Event: "assistant_message", Index: 0}, summary.Timeline[1])
}

func TestSummarizeMultiChunkMessage(t *testing.T) {
	events := decodeEvents(t,
		`{"type":"response_item","payload":{"type":"message","role":"user","content":[{"text":"first"},{"type":"image"},{"text":"second"}]}}`,
	)

	summary := Summarize(events)

	// Text chunks join with newlines; non-text chunks are skipped.
	assert.Equal(t, []string{"first\nsecond"}, summary.UserMessages)
}

func TestSummarizeIgnoresUnknownRolesAndTypes(t *testing.T) {
	events := decodeEvents(t,
		`{"type":"response_item","payload":{"type":"message","role":"system","content":[{"text":"booted"}]}}`,
		`{"type":"response_item","payload":{"type":"web_search_call","status":"done"}}`,
		`{"type":"session_meta","payload":{"id":"x"}}`,
	)

	summary := Summarize(events)

	assert.Empty(t, summary.UserMessages)
	assert.Empty(t, summary.AssistantMessages)
	assert.Empty(t, summary.Timeline)
	// Unknown events still count: the byte span covered them.
	assert.Equal(t, 3, summary.EventCount)
}

func TestSummarizeReasoningClassification(t *testing.T) {
	events := decodeEvents(t,
		`{"type":"response_item","payload":{"type":"reasoning","summary":[{"text":"Updated plan: add tests"}]}}`,
		`{"type":"response_item","payload":{"type":"reasoning","summary":[{"text":"The bug is in the seek logic"}]}}`,
		`{"type":"response_item","payload":{"type":"reasoning","summary":[]}}`,
	)

	summary := Summarize(events)

	assert.Equal(t, []string{"Updated plan: add tests"}, summary.AssistantPlanUpdates)
	assert.Equal(t, []string{"The bug is in the seek logic"}, summary.AssistantReasoning)
	require.Len(t, summary.Timeline, 2)
	assert.Equal(t, "assistant_plan_update", summary.Timeline[0].Event)
	assert.Equal(t, "assistant_reasoning", summary.Timeline[1].Event)
}

func TestSummarizeToolCallCorrelation(t *testing.T) {
	events := decodeEvents(t,
		`{"type":"response_item","timestamp":"2025-08-23T10:00:00Z","payload":{"type":"function_call","call_id":"a","name":"shell","arguments":"{\"command\":\"ls\"}"}}`,
		`{"type":"response_item","timestamp":"2025-08-23T10:00:01Z","payload":{"type":"function_call_output","call_id":"a","output":"file1\nfile2"}}`,
		`{"type":"response_item","timestamp":"2025-08-23T10:00:02Z","payload":{"type":"function_call_output","call_id":"a","output":"{\"exit_code\":0}"}}`,
	)

	summary := Summarize(events)

	require.Len(t, summary.ToolCalls, 1)
	call := summary.ToolCalls[0]
	assert.Equal(t, "a", call.CallID)
	require.NotNil(t, call.ToolName)
	assert.Equal(t, "shell", *call.ToolName)
	require.NotNil(t, call.StartedAt)
	assert.Equal(t, "2025-08-23T10:00:00Z", *call.StartedAt)

	// JSON-looking arguments decode into structure.
	args, ok := call.Arguments.(map[string]any)
	require.True(t, ok, "arguments should be parsed JSON")
	assert.Equal(t, "ls", args["command"])

	// Outputs attach in arrival order; non-JSON output stays a raw string.
	require.Len(t, call.Outputs, 2)
	require.NotNil(t, call.Outputs[0].Timestamp)
	assert.Equal(t, "2025-08-23T10:00:01Z", *call.Outputs[0].Timestamp)
	assert.Equal(t, "file1\nfile2", call.Outputs[0].Result)
	result, ok := call.Outputs[1].Result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(0), result["exit_code"])

	// Timeline: one call entry plus one entry per output with output_index.
	require.Len(t, summary.Timeline, 3)
	assert.Equal(t, "assistant_tool_call", summary.Timeline[0].Event)
	assert.Equal(t, "assistant_tool_output", summary.Timeline[1].Event)
	require.NotNil(t, summary.Timeline[1].OutputIndex)
	assert.Equal(t, 0, *summary.Timeline[1].OutputIndex)
	require.NotNil(t, summary.Timeline[2].OutputIndex)
	assert.Equal(t, 1, *summary.Timeline[2].OutputIndex)
}

func TestSummarizeOrphanOutput(t *testing.T) {
	events := decodeEvents(t,
		`{"type":"response_item","timestamp":"2025-08-23T10:00:01Z","payload":{"type":"function_call_output","call_id":"x","output":"lost"}}`,
	)

	summary := Summarize(events)

	require.Len(t, summary.ToolCalls, 1)
	call := summary.ToolCalls[0]
	assert.Equal(t, "x", call.CallID)
	assert.Nil(t, call.ToolName)
	assert.Nil(t, call.Arguments)
	assert.Nil(t, call.StartedAt)
	require.Len(t, call.Outputs, 1)
	assert.Equal(t, "lost", call.Outputs[0].Result)
}

func TestSummarizeOrphanThenLateOutputsShareEntry(t *testing.T) {
	events := decodeEvents(t,
		`{"type":"response_item","payload":{"type":"function_call_output","call_id":"x","output":"one"}}`,
		`{"type":"response_item","payload":{"type":"function_call_output","call_id":"x","output":"two"}}`,
	)

	summary := Summarize(events)

	require.Len(t, summary.ToolCalls, 1)
	assert.Len(t, summary.ToolCalls[0].Outputs, 2)
}

func TestSummarizeTelemetry(t *testing.T) {
	events := decodeEvents(t,
		`{"type":"event_msg","payload":{"type":"token_count","info":{"input_tokens":120,"output_tokens":45}}}`,
		`{"type":"event_msg","payload":{"type":"approval_request","call_id":"a","command":"rm -rf build"}}`,
	)

	summary := Summarize(events)

	require.Len(t, summary.TokenCounts, 1)
	assert.JSONEq(t, `{"input_tokens":120,"output_tokens":45}`, string(summary.TokenCounts[0]))

	// Approvals are captured verbatim, unknown fields included.
	require.Len(t, summary.Approvals, 1)
	assert.JSONEq(t, `{"type":"approval_request","call_id":"a","command":"rm -rf build"}`, string(summary.Approvals[0]))
}

func TestParseJSONish(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  any
	}{
		{"non-string passes through", 42.0, 42.0},
		{"nil passes through", nil, nil},
		{"blank string becomes empty", "   ", ""},
		{"json object decodes", `{"a":1}`, map[string]any{"a": float64(1)}},
		{"json array decodes", `[1,2]`, []any{float64(1), float64(2)}},
		{"plain text stays raw", "not json", "not json"},
		{"truncated json stays raw", `{"a":`, `{"a":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseJSONish(tt.input))
		})
	}
}
