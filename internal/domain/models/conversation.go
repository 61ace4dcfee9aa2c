package models

// Sender identifies the author of a conversation message.
type Sender string

const (
	SenderScammer Sender = "scammer"
	SenderUser    Sender = "user"
	SenderAgent   Sender = "agent"
)

// Valid reports whether the sender is one of the known roles.
func (s Sender) Valid() bool {
	switch s {
	case SenderScammer, SenderUser, SenderAgent:
		return true
	}
	return false
}

// Message is a single turn in a conversation. Messages are append-only:
// once added to a session they are never mutated or removed.
type Message struct {
	Sender    Sender `json:"sender"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp,omitempty"` // unix millis, optional
}

// Metadata carries optional channel information supplied with a turn.
type Metadata struct {
	Channel  string `json:"channel,omitempty"`
	Language string `json:"language,omitempty"`
	Locale   string `json:"locale,omitempty"`
}

// TurnRequest is the inbound payload for one conversation turn.
type TurnRequest struct {
	SessionID           string    `json:"sessionId"`
	Message             Message   `json:"message"`
	ConversationHistory []Message `json:"conversationHistory,omitempty"`
	Metadata            *Metadata `json:"metadata,omitempty"`
}

// TurnResponse is the reply returned for every processed turn. The
// conversational channel is never left silent: even internal failures
// produce a reply with status "error".
type TurnResponse struct {
	Status string `json:"status"` // "success" or "error"
	Reply  string `json:"reply"`
}
