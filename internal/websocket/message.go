package websocket

import "encoding/json"

// Message defines the structure for websocket messages.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}

// NewSummaryMessage encodes a tally update for broadcast.
func NewSummaryMessage(summary interface{}) []byte {
	data, err := json.Marshal(Message{Action: "summary_update", Payload: summary})
	if err != nil {
		return nil
	}
	return data
}
