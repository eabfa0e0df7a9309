package audit

import (
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"github.com/penwyp/codex-audit/internal/config"
	"github.com/penwyp/codex-audit/internal/core/model"
	"github.com/penwyp/codex-audit/internal/core/turn"
	"github.com/penwyp/codex-audit/internal/data/locator"
	"github.com/penwyp/codex-audit/internal/data/reader"
	"github.com/penwyp/codex-audit/internal/data/sink"
	"github.com/penwyp/codex-audit/internal/data/state"
	"github.com/penwyp/codex-audit/internal/util"
)

// Ingestor drives one turn ingestion end to end: locate the transcript, read
// the unprocessed byte range, fold it into a turn record, append the record
// to the sinks and commit the new offset. Every failure is recovered into a
// diagnostic; nothing an Ingestor does may disturb the calling runtime.
//
// The offset is committed after the record is appended. A crash between
// append and commit re-processes the same bytes next turn (duplicate record);
// the reverse ordering would silently lose them.
type Ingestor struct {
	paths config.Paths
	store *state.Store
	loc   *locator.Locator
	out   *sink.Sink
}

// NewIngestor wires the pipeline for the given layout.
func NewIngestor(paths config.Paths) *Ingestor {
	return &Ingestor{
		paths: paths,
		store: state.NewStore(paths.StatePath),
		loc:   locator.NewLocator(paths.SessionsDir),
		out:   sink.NewSink(paths),
	}
}

// ProcessPayload handles one raw notification argument. It never returns an
// error and never panics outward: malformed payloads and downstream failures
// become diagnostics.
func (ing *Ingestor) ProcessPayload(raw string) {
	defer func() {
		if r := recover(); r != nil {
			util.LogErrorf("unexpected error: %v", r)
		}
	}()

	var notification Notification
	if err := sonic.UnmarshalString(raw, &notification); err != nil {
		util.LogErrorf("invalid notification payload: %v", err)
		return
	}
	ing.Process(&notification)
}

// Process ingests one turn for the notified session.
func (ing *Ingestor) Process(notification *Notification) {
	sessionID := notification.SessionID()
	if sessionID == "" {
		util.LogError("notification missing thread-id")
		return
	}

	sessions := ing.store.Load()
	transcriptPath, err := ing.loc.Locate(sessionID, sessions)
	if err != nil {
		if errors.Is(err, locator.ErrSessionNotFound) {
			util.LogErrorf("unable to locate session log for %s", sessionID)
		} else {
			util.LogErrorf("locating session %s: %v", sessionID, err)
		}
		return
	}

	ing.ingest(notification, sessionID, transcriptPath, sessions)
}

// ProcessSessionFile ingests a transcript discovered directly (watch mode),
// bypassing the locator walk. The session identifier is the transcript's
// base name.
func (ing *Ingestor) ProcessSessionFile(transcriptPath string) {
	defer func() {
		if r := recover(); r != nil {
			util.LogErrorf("unexpected error: %v", r)
		}
	}()

	base := filepath.Base(transcriptPath)
	sessionID := strings.TrimSuffix(base, filepath.Ext(base))
	if sessionID == "" {
		util.LogErrorf("cannot derive session id from %s", transcriptPath)
		return
	}

	sessions := ing.store.Load()
	if cached := sessions[sessionID]; cached == nil || cached.Path != transcriptPath {
		sessions[sessionID] = &state.SessionState{Path: transcriptPath, Offset: 0}
	}

	ing.ingest(&Notification{ThreadID: sessionID}, sessionID, transcriptPath, sessions)
}

func (ing *Ingestor) ingest(notification *Notification, sessionID, transcriptPath string, sessions map[string]*state.SessionState) {
	entry := sessions[sessionID]
	if entry == nil {
		entry = &state.SessionState{Path: transcriptPath}
		sessions[sessionID] = entry
	}
	offset := entry.Offset

	// A rotated or truncated transcript invalidates the stored offset; start
	// over and accept the duplicate records that re-reading may produce.
	if info, err := util.GetFileInfo(transcriptPath); err == nil && offset > info.Size {
		util.LogErrorf("stored offset %d exceeds transcript size %d for %s; resetting", offset, info.Size, sessionID)
		offset = 0
	}

	newOffset, events := reader.ReadEvents(transcriptPath, offset)
	if len(events) == 0 {
		// Nothing to record, but normalize the offset to the observed size so
		// the invariant offset == transcript length keeps holding.
		entry.Path = transcriptPath
		entry.Offset = newOffset
		if err := ing.store.Save(sessions); err != nil {
			util.LogErrorf("saving state: %v", err)
		}
		return
	}

	summary := turn.Summarize(events)
	record := ing.buildRecord(notification, sessionID, transcriptPath, offset, newOffset, summary)

	if err := ing.out.Append(sessionID, record); err != nil {
		// Offset stays put so the next invocation retries these bytes.
		util.LogErrorf("appending turn record for %s: %v", sessionID, err)
		return
	}

	entry.Path = transcriptPath
	entry.Offset = newOffset
	if err := ing.store.Save(sessions); err != nil {
		util.LogErrorf("saving state: %v", err)
	}
}

func (ing *Ingestor) buildRecord(notification *Notification, sessionID, transcriptPath string, start, end int64, summary *model.TurnSummary) *model.TurnRecord {
	inputMessages := notification.InputMessages
	if inputMessages == nil {
		inputMessages = []any{}
	}

	record := &model.TurnRecord{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		RecordID:  uuid.NewString(),
		Session: model.SessionInfo{
			ID:      sessionID,
			Cwd:     notification.Cwd,
			LogPath: transcriptPath,
		},
		Turn: model.TurnInfo{
			ID:                   strPtr(notification.Turn()),
			InputMessages:        inputMessages,
			LastAssistantMessage: strPtr(notification.LastAssistantMessage),
			LogSpan:              model.LogSpan{Start: start, End: end},
		},
		Messages: model.MessageGroups{
			User:        summary.UserMessages,
			Assistant:   summary.AssistantMessages,
			Reasoning:   summary.AssistantReasoning,
			PlanUpdates: summary.AssistantPlanUpdates,
		},
		ToolCalls: summary.ToolCalls,
		Telemetry: model.Telemetry{
			TokenCounts: summary.TokenCounts,
			Approvals:   summary.Approvals,
			EventCount:  summary.EventCount,
		},
		Timeline: summary.Timeline,
	}

	if err := record.Seal(); err != nil {
		// An unsealed record is still worth keeping; the hash is advisory.
		util.LogErrorf("sealing turn record for %s: %v", sessionID, err)
	}
	return record
}

// strPtr maps absent notification metadata to null in the record.
func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
