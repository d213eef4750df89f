package net

import "encoding/json"

// Envelope is the JSON frame exchanged over the websocket. Type selects
// the handler; Data is decoded by it.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Command is one client message queued for the game loop.
type Command struct {
	Session *Session
	Type    string
	Data    json.RawMessage
}

// Encode marshals an outbound envelope. Marshal failures are programmer
// errors (all payload types are plain structs), so they panic.
func Encode(msgType string, payload any) []byte {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			panic("net: encode " + msgType + ": " + err.Error())
		}
		raw = b
	}
	out, err := json.Marshal(Envelope{Type: msgType, Data: raw})
	if err != nil {
		panic("net: encode envelope: " + err.Error())
	}
	return out
}
