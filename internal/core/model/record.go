package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/bytedance/sonic"
	"github.com/gowebpki/jcs"
)

// TurnRecord is the unit of audit output: one JSON line per completed turn.
// Records are write-once; once appended to a log they are never mutated.
type TurnRecord struct {
	Timestamp  string          `json:"timestamp"`
	RecordID   string          `json:"record_id,omitempty"`
	Session    SessionInfo     `json:"session"`
	Turn       TurnInfo        `json:"turn"`
	Messages   MessageGroups   `json:"messages"`
	ToolCalls  []*ToolCall     `json:"assistant_tool_calls"`
	Telemetry  Telemetry       `json:"telemetry"`
	Timeline   []TimelineEntry `json:"timeline"`
	RecordHash string          `json:"record_hash,omitempty"`
}

// SessionInfo identifies the session the turn belongs to.
type SessionInfo struct {
	ID      string `json:"id"`
	Cwd     string `json:"cwd"`
	LogPath string `json:"log_path"`
}

// TurnInfo carries the notification metadata plus the byte span of the
// transcript this record was built from. ID and LastAssistantMessage are
// pointers so metadata the runtime never sent serializes as null, not "".
type TurnInfo struct {
	ID                   *string `json:"id"`
	InputMessages        []any   `json:"input_messages"`
	LastAssistantMessage *string `json:"last_assistant_message"`
	LogSpan              LogSpan `json:"log_span"`
}

// LogSpan is a half-open byte range [Start, End) into the transcript.
type LogSpan struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// MessageGroups holds the flattened message transcripts by role and kind.
type MessageGroups struct {
	User        []string `json:"user"`
	Assistant   []string `json:"assistant"`
	Reasoning   []string `json:"assistant_reasoning"`
	PlanUpdates []string `json:"assistant_plan_updates"`
}

// ToolCall correlates a function_call with its later outputs via CallID. A
// ToolCall created for an orphan output keeps nil ToolName/Arguments/StartedAt
// rather than dropping the output.
type ToolCall struct {
	CallID    string       `json:"call_id"`
	ToolName  *string      `json:"tool_name"`
	Arguments any          `json:"arguments"`
	StartedAt *string      `json:"started_at"`
	Outputs   []ToolOutput `json:"outputs"`
}

// ToolOutput is one function_call_output correlated to its call. Timestamp is
// null when the transcript line carried none.
type ToolOutput struct {
	Timestamp *string `json:"timestamp"`
	Result    any     `json:"result"`
}

// Telemetry captures token accounting and approval traffic verbatim.
type Telemetry struct {
	TokenCounts []json.RawMessage `json:"token_counts"`
	Approvals   []json.RawMessage `json:"approvals"`
	EventCount  int               `json:"event_count"`
}

// TimelineEntry tags one routed item with its position in its per-kind array,
// preserving chronological order across the message, reasoning and tool-call
// streams.
type TimelineEntry struct {
	Event       string `json:"event"`
	Index       int    `json:"index"`
	OutputIndex *int   `json:"output_index,omitempty"`
}

// Timeline event kinds.
const (
	TimelineUserMessage         = "user_message"
	TimelineAssistantMessage    = "assistant_message"
	TimelineAssistantReasoning  = "assistant_reasoning"
	TimelineAssistantPlanUpdate = "assistant_plan_update"
	TimelineAssistantToolCall   = "assistant_tool_call"
	TimelineAssistantToolOutput = "assistant_tool_output"
)

// TurnSummary is the intermediate result of folding a transcript slice,
// before the notification metadata is attached.
type TurnSummary struct {
	UserMessages         []string
	AssistantMessages    []string
	AssistantReasoning   []string
	AssistantPlanUpdates []string
	ToolCalls            []*ToolCall
	TokenCounts          []json.RawMessage
	Approvals            []json.RawMessage
	EventCount           int
	Timeline             []TimelineEntry
}

// Fingerprint returns the hex SHA-256 of the record's RFC 8785 canonical JSON
// form, excluding the RecordHash field itself so sealed records verify.
func (r *TurnRecord) Fingerprint() (string, error) {
	stored := r.RecordHash
	r.RecordHash = ""
	defer func() { r.RecordHash = stored }()

	data, err := sonic.Marshal(r)
	if err != nil {
		return "", err
	}
	canonical, err := jcs.Transform(data)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// Seal assigns the tamper-evidence hash. Call after every other field is
// final and before the record reaches a sink.
func (r *TurnRecord) Seal() error {
	hash, err := r.Fingerprint()
	if err != nil {
		return err
	}
	r.RecordHash = hash
	return nil
}
