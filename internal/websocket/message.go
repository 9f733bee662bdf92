package websocket

import (
	"encoding/json"
	"time"
)

// Message is the envelope for every frame pushed to clients
type Message struct {
	Type      string                 `json:"type"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
}

// ToJSON serializes the message; serialization of this shape cannot fail
func (m Message) ToJSON() []byte {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	data, _ := json.Marshal(m)
	return data
}

// NotificationMessage builds the frame pushed for an alert notification
func NotificationMessage(alertID, channel, subject, body string) Message {
	return Message{
		Type: "notification",
		Data: map[string]interface{}{
			"alert_id": alertID,
			"channel":  channel,
			"subject":  subject,
			"body":     body,
		},
		Timestamp: time.Now().UTC(),
	}
}
