package audit

// Notification is the one-shot payload the agent runtime hands the notify
// hook as a single JSON argument. The runtime has emitted both hyphenated
// and underscored identifier keys across versions, so both are accepted.
type Notification struct {
	ThreadID             string `json:"thread-id"`
	ThreadIDAlt          string `json:"thread_id"`
	TurnID               string `json:"turn-id"`
	TurnIDAlt            string `json:"turn_id"`
	Cwd                  string `json:"cwd"`
	InputMessages        []any  `json:"input-messages"`
	LastAssistantMessage string `json:"last-assistant-message"`
}

// SessionID returns the session identifier, preferring the hyphenated key.
func (n *Notification) SessionID() string {
	if n.ThreadID != "" {
		return n.ThreadID
	}
	return n.ThreadIDAlt
}

// Turn returns the turn identifier, preferring the hyphenated key.
func (n *Notification) Turn() string {
	if n.TurnID != "" {
		return n.TurnID
	}
	return n.TurnIDAlt
}
