package model

import (
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string {
	return &s
}

func testRecord() *TurnRecord {
	return &TurnRecord{
		Timestamp: "2025-08-23T10:00:00Z",
		RecordID:  "2b1a8c8e-1111-4222-8333-444455556666",
		Session:   SessionInfo{ID: "s1", Cwd: "/work", LogPath: "/tmp/s1.jsonl"},
		Turn: TurnInfo{
			ID:            ptr("t1"),
			InputMessages: []any{"do the thing"},
			LogSpan:       LogSpan{Start: 0, End: 128},
		},
		Messages: MessageGroups{
			User:        []string{"do the thing"},
			Assistant:   []string{"done"},
			Reasoning:   []string{},
			PlanUpdates: []string{},
		},
		ToolCalls: []*ToolCall{},
		Telemetry: Telemetry{EventCount: 2},
		Timeline: []TimelineEntry{
			{Event: TimelineUserMessage, Index: 0},
			{Event: TimelineAssistantMessage, Index: 0},
		},
	}
}

func TestMissingTurnMetadataSerializesAsNull(t *testing.T) {
	record := testRecord()
	record.Turn.ID = nil
	record.Turn.LastAssistantMessage = nil
	record.ToolCalls = []*ToolCall{{
		CallID:  "a",
		Outputs: []ToolOutput{{Result: "ok"}},
	}}

	data, err := sonic.Marshal(record)
	require.NoError(t, err)

	line := string(data)
	assert.Contains(t, line, `"last_assistant_message":null`)
	assert.Contains(t, line, `"id":null`)
	// Only the tool output carries a nullable timestamp here.
	assert.Contains(t, line, `"timestamp":null`)
	assert.NotContains(t, line, `"last_assistant_message":""`)
}

func TestFingerprintStable(t *testing.T) {
	a, b := testRecord(), testRecord()

	hashA, err := a.Fingerprint()
	require.NoError(t, err)
	hashB, err := b.Fingerprint()
	require.NoError(t, err)

	assert.Equal(t, hashA, hashB)
	assert.Len(t, hashA, 64, "hex-encoded SHA-256")
}

func TestFingerprintIgnoresStoredHash(t *testing.T) {
	record := testRecord()

	before, err := record.Fingerprint()
	require.NoError(t, err)

	require.NoError(t, record.Seal())
	assert.Equal(t, before, record.RecordHash)

	// Sealing must not change what the record hashes to.
	after, err := record.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, before, record.RecordHash, "Fingerprint must restore the stored hash")
}

func TestFingerprintDetectsMutation(t *testing.T) {
	record := testRecord()
	require.NoError(t, record.Seal())
	sealed := record.RecordHash

	record.Messages.Assistant = []string{"tampered"}

	recomputed, err := record.Fingerprint()
	require.NoError(t, err)
	assert.NotEqual(t, sealed, recomputed)
}
