package model

import (
	"encoding/json"

	"github.com/bytedance/sonic"
)

// Event is one line of a session transcript. The runtime appends them
// strictly in order and never rewrites a line, so file position doubles as
// the event's identity.
type Event struct {
	Type      string  `json:"type"`
	Timestamp string  `json:"timestamp,omitempty"`
	Payload   Payload `json:"payload"`
}

// Event type discriminators produced by the runtime.
const (
	EventResponseItem = "response_item"
	EventMsg          = "event_msg"
)

// Payload type discriminators nested under each event kind.
const (
	PayloadMessage            = "message"
	PayloadReasoning          = "reasoning"
	PayloadFunctionCall       = "function_call"
	PayloadFunctionCallOutput = "function_call_output"
	PayloadTokenCount         = "token_count"
	PayloadApprovalRequest    = "approval_request"
)

// Payload is the variant half of an Event, discriminated by Type. Fields not
// belonging to the active variant stay at their zero value; Raw keeps the
// undecoded bytes so telemetry payloads can be recorded verbatim.
type Payload struct {
	Type string `json:"type"`

	// message
	Role    string        `json:"role,omitempty"`
	Content []ContentItem `json:"content,omitempty"`

	// reasoning
	Summary []SummaryItem `json:"summary,omitempty"`

	// function_call / function_call_output
	CallID    string `json:"call_id,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments any    `json:"arguments,omitempty"`
	Output    any    `json:"output,omitempty"`

	// token_count
	Info json.RawMessage `json:"info,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes the known variant fields and retains the raw bytes.
func (p *Payload) UnmarshalJSON(data []byte) error {
	type alias Payload
	var a alias
	if err := sonic.Unmarshal(data, &a); err != nil {
		return err
	}
	*p = Payload(a)
	p.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// ContentItem is one chunk of a message body. Only text chunks contribute to
// the flattened transcript; other kinds (images, attachments) are skipped.
type ContentItem struct {
	Type string `json:"type,omitempty"`
	Text string `json:"text,omitempty"`
}

// SummaryItem is one chunk of a reasoning summary.
type SummaryItem struct {
	Type string `json:"type,omitempty"`
	Text string `json:"text,omitempty"`
}
