package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/aliabbas776/MATCHMATE-BACKEND/internal/sse"
)

// SessionEvent is the payload pushed to a participant over the message bus.
type SessionEvent struct {
	Event      string    `json:"event"`
	SessionID  string    `json:"sessionId"`
	ActorID    string    `json:"actorId,omitempty"`
	MeetingURL string    `json:"meetingUrl,omitempty"`
	Message    string    `json:"message,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Notifier delivers session events to a user, best effort. Delivery failure
// never rolls back the state transition that produced the event.
type Notifier interface {
	Notify(ctx context.Context, userID string, event SessionEvent)
}

// BrokerNotifier publishes session events through the SSE broker's
// redis pub/sub channel.
type BrokerNotifier struct {
	broker *sse.Broker
}

func NewBrokerNotifier(broker *sse.Broker) *BrokerNotifier {
	return &BrokerNotifier{broker: broker}
}

func (n *BrokerNotifier) Notify(ctx context.Context, userID string, event SessionEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("userId", userID).Msg("failed to marshal session event")
		return
	}

	if err := n.broker.Publish(ctx, userID, sse.Event{Type: event.Event, Data: data}); err != nil {
		log.Warn().
			Err(err).
			Str("userId", userID).
			Str("event", event.Event).
			Str("sessionId", event.SessionID).
			Msg("session event delivery failed")
	}
}
