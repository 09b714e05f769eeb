package state

// MessageTypeStateUpdate tags a full-state replication message. Messages of
// any other type are ignored by receivers.
const MessageTypeStateUpdate = "STATE_UPDATE"

// Message is the envelope a snapshot travels in on the broadcast channel.
type Message struct {
	Type      string   `json:"type"`
	State     Snapshot `json:"state"`
	Timestamp string   `json:"timestamp"`

	// Origin identifies the publishing engine instance so receivers can
	// drop their own broadcasts. Transports that never deliver to the
	// sender may leave it unset.
	Origin string `json:"origin,omitempty"`
}

// NewStateUpdate wraps a snapshot in a state-update envelope.
func NewStateUpdate(snapshot Snapshot, origin string) Message {
	return Message{
		Type:      MessageTypeStateUpdate,
		State:     snapshot,
		Timestamp: Timestamp(),
		Origin:    origin,
	}
}

// IsStateUpdate reports whether the message carries a full-state update.
func (m Message) IsStateUpdate() bool {
	return m.Type == MessageTypeStateUpdate
}
