// Package messaging provides pluggable participant message delivery for
// Tandem. The primary backend is the Telegram Bot API; a reduced Twilio
// SMS backend covers deployments without Telegram.
package messaging

import (
	"context"
	"errors"
	"time"

	"github.com/tandembot/tandem/internal/models"
)

const (
	// DefaultChannelBufferSize defines the default buffer size for the event channel
	DefaultChannelBufferSize = 100
	// DefaultChannelTimeout defines the default timeout for non-blocking channel operations
	DefaultChannelTimeout = 1 * time.Second
)

// ErrServiceStopped indicates sending was attempted after Stop.
var ErrServiceStopped = errors.New("messaging service is stopped")

// InlineOption is one tappable option attached to a delivered message.
// Data is the opaque payload echoed back in the interaction event.
type InlineOption struct {
	Label string
	Data  string
}

// SendOptions carries the optional furniture of an outgoing message.
// Exactly one of ReplyKeyboard, RemoveKeyboard, or InlineOptions should be
// set; all unset sends a bare message.
type SendOptions struct {
	// ParseMode is the text markup mode ("HTML" or empty for plain).
	ParseMode string
	// ReplyKeyboard shows a persistent button keyboard, one row per slice.
	ReplyKeyboard [][]string
	// OneTime hides the reply keyboard after one use.
	OneTime bool
	// RemoveKeyboard clears any previously shown reply keyboard.
	RemoveKeyboard bool
	// InlineOptions attaches tappable options to the message itself.
	InlineOptions []InlineOption
}

// Notifier defines the outbound delivery surface used by the bot.
type Notifier interface {
	// SendText delivers a message to a participant and returns the
	// provider's delivery id, used later to edit the message's options.
	SendText(ctx context.Context, participantID string, text string, opts *SendOptions) (int, error)

	// EditInlineOptions replaces the inline options of an earlier delivery.
	EditInlineOptions(ctx context.Context, participantID string, deliveryID int, options []InlineOption) error

	// AcknowledgeInteraction confirms a tapped inline option so the
	// participant's client stops showing a pending state.
	AcknowledgeInteraction(ctx context.Context, interactionID string) error
}

// Service is a Notifier plus the inbound event stream and its lifecycle.
type Service interface {
	Notifier

	// Start begins any background processing (e.g., polling for updates).
	Start(ctx context.Context) error

	// Stop stops background processing and cleans up resources.
	Stop() error

	// Events returns a channel of incoming participant events.
	Events() <-chan models.Event
}
