package models

import "encoding/json"

// Callback value types carried in inline rating interactions.
const (
	// CallbackTypeImportance marks a press on the importance scale.
	CallbackTypeImportance = 1
	// CallbackTypeEvaluation marks a press on the evaluation scale.
	CallbackTypeEvaluation = 2
)

// RatingCallback is the payload attached to each inline rating button.
// The wire form is compact JSON: {"idx":3,"typ":1,"room_id":"..."}.
type RatingCallback struct {
	Idx    int    `json:"idx"`
	Typ    int    `json:"typ"`
	RoomID string `json:"room_id"`
}

// Axis maps the callback type tag to a rating axis.
func (c *RatingCallback) Axis() (Axis, bool) {
	switch c.Typ {
	case CallbackTypeImportance:
		return AxisImportance, true
	case CallbackTypeEvaluation:
		return AxisEvaluation, true
	}
	return "", false
}

// Encode serializes the callback payload for embedding in a button.
func (c *RatingCallback) Encode() string {
	b, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return string(b)
}

// DecodeRatingCallback parses a button payload. Returns nil if the data is
// not a rating callback.
func DecodeRatingCallback(data string) *RatingCallback {
	var c RatingCallback
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return nil
	}
	if c.RoomID == "" {
		return nil
	}
	return &c
}

// Event is one inbound participant interaction delivered by a messaging
// service: a plain text message, a bot command, or a rating callback.
type Event struct {
	// ParticipantID is the canonical participant identifier (chat id).
	ParticipantID string
	// Text is the message body for text events.
	Text string
	// Command is the command name (without slash) when the event is a bot
	// command, empty otherwise.
	Command string
	// Callback is set when the event is an inline rating interaction.
	Callback *RatingCallback
	// InteractionID identifies the callback interaction for acknowledgement.
	InteractionID string
	// DeliveryID is the id of the message the interaction belongs to,
	// used to re-render its inline options.
	DeliveryID int
	// Time is the event's unix timestamp.
	Time int64
}

// IsCommand reports whether the event is a bot command.
func (e Event) IsCommand() bool { return e.Command != "" }
