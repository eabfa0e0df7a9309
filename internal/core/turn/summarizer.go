package turn

import (
	"encoding/json"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/penwyp/codex-audit/internal/core/model"
)

// Summarize folds an ordered transcript slice into a TurnSummary. It is a
// single left-to-right pass: messages route by role, reasoning splits into
// plan updates vs. free-form text, and function_call_output events correlate
// to their call by call_id. Events of unknown shape still count toward
// EventCount so the byte offset bookkeeping stays honest.
func Summarize(events []model.Event) *model.TurnSummary {
	summary := &model.TurnSummary{
		UserMessages:         []string{},
		AssistantMessages:    []string{},
		AssistantReasoning:   []string{},
		AssistantPlanUpdates: []string{},
		ToolCalls:            []*model.ToolCall{},
		TokenCounts:          []json.RawMessage{},
		Approvals:            []json.RawMessage{},
		EventCount:           len(events),
		Timeline:             []model.TimelineEntry{},
	}

	// call_id -> index into summary.ToolCalls
	callIndex := make(map[string]int)

	for _, event := range events {
		switch event.Type {
		case model.EventResponseItem:
			summarizeResponseItem(summary, callIndex, event)
		case model.EventMsg:
			summarizeEventMsg(summary, event)
		}
	}

	return summary
}

func summarizeResponseItem(summary *model.TurnSummary, callIndex map[string]int, event model.Event) {
	payload := event.Payload
	switch payload.Type {
	case model.PayloadMessage:
		text := flattenContent(payload.Content)
		switch payload.Role {
		case "user":
			summary.UserMessages = append(summary.UserMessages, text)
			appendTimeline(summary, model.TimelineUserMessage, len(summary.UserMessages)-1)
		case "assistant":
			summary.AssistantMessages = append(summary.AssistantMessages, text)
			appendTimeline(summary, model.TimelineAssistantMessage, len(summary.AssistantMessages)-1)
		}

	case model.PayloadReasoning:
		text := flattenSummary(payload.Summary)
		if text == "" {
			return
		}
		if IsPlanUpdate(text) {
			summary.AssistantPlanUpdates = append(summary.AssistantPlanUpdates, text)
			appendTimeline(summary, model.TimelineAssistantPlanUpdate, len(summary.AssistantPlanUpdates)-1)
		} else {
			summary.AssistantReasoning = append(summary.AssistantReasoning, text)
			appendTimeline(summary, model.TimelineAssistantReasoning, len(summary.AssistantReasoning)-1)
		}

	case model.PayloadFunctionCall:
		entry := &model.ToolCall{
			CallID:    payload.CallID,
			ToolName:  strPtr(payload.Name),
			Arguments: parseJSONish(payload.Arguments),
			StartedAt: strPtr(event.Timestamp),
			Outputs:   []model.ToolOutput{},
		}
		summary.ToolCalls = append(summary.ToolCalls, entry)
		idx := len(summary.ToolCalls) - 1
		appendTimeline(summary, model.TimelineAssistantToolCall, idx)
		if payload.CallID != "" {
			callIndex[payload.CallID] = idx
		}

	case model.PayloadFunctionCallOutput:
		idx, ok := callIndex[payload.CallID]
		if !ok {
			// Out-of-order or truncated transcript: keep the output on a
			// placeholder entry instead of dropping it.
			entry := &model.ToolCall{
				CallID:  payload.CallID,
				Outputs: []model.ToolOutput{},
			}
			summary.ToolCalls = append(summary.ToolCalls, entry)
			idx = len(summary.ToolCalls) - 1
			if payload.CallID != "" {
				callIndex[payload.CallID] = idx
			}
		}
		target := summary.ToolCalls[idx]
		target.Outputs = append(target.Outputs, model.ToolOutput{
			Timestamp: strPtr(event.Timestamp),
			Result:    parseJSONish(payload.Output),
		})
		outputIdx := len(target.Outputs) - 1
		summary.Timeline = append(summary.Timeline, model.TimelineEntry{
			Event:       model.TimelineAssistantToolOutput,
			Index:       idx,
			OutputIndex: &outputIdx,
		})
	}
}

func summarizeEventMsg(summary *model.TurnSummary, event model.Event) {
	switch event.Payload.Type {
	case model.PayloadTokenCount:
		summary.TokenCounts = append(summary.TokenCounts, event.Payload.Info)
	case model.PayloadApprovalRequest:
		summary.Approvals = append(summary.Approvals, event.Payload.Raw)
	}
}

func appendTimeline(summary *model.TurnSummary, kind string, idx int) {
	summary.Timeline = append(summary.Timeline, model.TimelineEntry{Event: kind, Index: idx})
}

// flattenContent joins the text chunks of a message body with newlines.
// Non-text chunks contribute nothing.
func flattenContent(items []model.ContentItem) string {
	chunks := make([]string, 0, len(items))
	for _, item := range items {
		if item.Text != "" {
			chunks = append(chunks, item.Text)
		}
	}
	return strings.Join(chunks, "\n")
}

func flattenSummary(items []model.SummaryItem) string {
	chunks := make([]string, 0, len(items))
	for _, item := range items {
		chunks = append(chunks, item.Text)
	}
	return strings.Join(chunks, "\n")
}

// parseJSONish decodes values the runtime double-encodes as JSON strings.
// Non-strings and strings that do not parse pass through unchanged.
func parseJSONish(value any) any {
	s, ok := value.(string)
	if !ok {
		return value
	}
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return ""
	}
	var parsed any
	if err := sonic.UnmarshalString(trimmed, &parsed); err != nil {
		return value
	}
	return parsed
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
