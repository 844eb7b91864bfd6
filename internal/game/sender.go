package game

// Sender delivers outbound events to connected clients. The ws hub
// implements it; rooms and tests depend only on this interface.
type Sender interface {
	// SendToPlayer delivers one event to one player, dropping it silently
	// if the player has no live connection.
	SendToPlayer(playerID, eventType string, payload interface{})

	// Broadcast delivers one event to every listed player. The payload is
	// encoded exactly once so all recipients receive byte-equal frames.
	Broadcast(playerIDs []string, eventType string, payload interface{})
}
