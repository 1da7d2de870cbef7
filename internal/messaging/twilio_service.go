package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/tandembot/tandem/internal/models"
)

// phoneNumberRegex strips everything but digits from SMS recipients.
var phoneNumberRegex = regexp.MustCompile(`[^0-9]`)

// smsSender defines the minimal Twilio surface used by the service.
type smsSender interface {
	SendSMS(ctx context.Context, to string, body string) error
}

// TwilioClient wraps the Twilio REST API for plain SMS delivery.
type TwilioClient struct {
	client *twilio.RestClient
	from   string
}

// TwilioOpts holds configuration options for the Twilio client.
type TwilioOpts struct {
	AccountSID string
	AuthToken  string
	From       string
}

// TwilioOption defines a configuration option for the Twilio client.
type TwilioOption func(*TwilioOpts)

// WithAccountSID sets the Twilio account SID.
func WithAccountSID(sid string) TwilioOption {
	return func(o *TwilioOpts) { o.AccountSID = sid }
}

// WithAuthToken sets the Twilio auth token.
func WithAuthToken(token string) TwilioOption {
	return func(o *TwilioOpts) { o.AuthToken = token }
}

// WithFrom sets the sending phone number.
func WithFrom(from string) TwilioOption {
	return func(o *TwilioOpts) { o.From = from }
}

// NewTwilioClient builds a Twilio SMS client, falling back to the
// TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_FROM_NUMBER environment
// variables for unset options.
func NewTwilioClient(opts ...TwilioOption) (*TwilioClient, error) {
	var cfg TwilioOpts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.AccountSID == "" {
		cfg.AccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	}
	if cfg.AuthToken == "" {
		cfg.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	}
	if cfg.From == "" {
		cfg.From = os.Getenv("TWILIO_FROM_NUMBER")
	}
	slog.Debug("Twilio client config loaded",
		"AccountSID_set", cfg.AccountSID != "",
		"AuthToken_set", cfg.AuthToken != "",
		"From_set", cfg.From != "")

	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, fmt.Errorf("account SID and auth token must be provided")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("from number must be provided")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})

	return &TwilioClient{client: client, from: cfg.From}, nil
}

// SendSMS sends a plain SMS using the Twilio API.
func (c *TwilioClient) SendSMS(ctx context.Context, to string, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo("+" + to)
	params.SetFrom(c.from)
	params.SetBody(body)

	_, err := c.client.Api.CreateMessage(params)
	if err != nil {
		slog.Error("Twilio SendSMS failed", "to", to, "error", err)
		return fmt.Errorf("failed to send message to %s: %w", to, err)
	}
	slog.Debug("Twilio message sent", "to", to)
	return nil
}

// TwilioService implements the Service interface over SMS. SMS has no
// keyboards or editable messages: inline options are rendered as numbered
// text lines and edits and acknowledgements are no-ops. Inbound events
// would arrive via a webhook, which this deployment does not expose, so
// the events channel stays empty.
type TwilioService struct {
	client  smsSender
	events  chan models.Event
	done    chan struct{}
	mu      sync.RWMutex
	stopped bool
}

// NewTwilioService creates a TwilioService around an SMS client.
func NewTwilioService(client smsSender) *TwilioService {
	return &TwilioService{
		client: client,
		events: make(chan models.Event, DefaultChannelBufferSize),
		done:   make(chan struct{}),
	}
}

// validateRecipient canonicalizes an SMS recipient to bare digits.
func validateRecipient(recipient string) (string, error) {
	if recipient == "" {
		return "", fmt.Errorf("recipient cannot be empty")
	}
	canonical := phoneNumberRegex.ReplaceAllString(recipient, "")
	if canonical == "" {
		return "", fmt.Errorf("invalid phone number: no digits found in recipient %q", recipient)
	}
	if len(canonical) < 6 {
		return "", fmt.Errorf("invalid phone number: %q is too short (minimum 6 digits required)", canonical)
	}
	if canonical != recipient {
		slog.Debug("TwilioService canonicalized recipient", "original", recipient, "canonical", canonical)
	}
	return canonical, nil
}

// Start is a no-op for Twilio (no inbound polling).
func (s *TwilioService) Start(ctx context.Context) error {
	return nil
}

// Stop closes channels and stops the service
func (s *TwilioService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	s.stopped = true
	close(s.done)

	go func() {
		time.Sleep(50 * time.Millisecond)
		close(s.events)
	}()

	return nil
}

// Events returns the channel for inbound events (unused for Twilio).
func (s *TwilioService) Events() <-chan models.Event {
	return s.events
}

// SendText sends a message via Twilio. Keyboards and inline options are
// flattened into the text body. SMS has no message ids, so the returned
// delivery id is always zero.
func (s *TwilioService) SendText(ctx context.Context, participantID string, text string, opts *SendOptions) (int, error) {
	s.mu.RLock()
	if s.stopped {
		s.mu.RUnlock()
		return 0, ErrServiceStopped
	}
	s.mu.RUnlock()

	to, err := validateRecipient(participantID)
	if err != nil {
		slog.Error("TwilioService SendText validation error", "error", err, "to", participantID)
		return 0, err
	}

	if err := s.client.SendSMS(ctx, to, renderSMSBody(text, opts)); err != nil {
		return 0, err
	}
	return 0, nil
}

// EditInlineOptions is a no-op: sent SMS cannot be edited.
func (s *TwilioService) EditInlineOptions(ctx context.Context, participantID string, deliveryID int, options []InlineOption) error {
	slog.Debug("TwilioService EditInlineOptions ignored (unsupported)", "to", participantID)
	return nil
}

// AcknowledgeInteraction is a no-op: SMS has no interactions to answer.
func (s *TwilioService) AcknowledgeInteraction(ctx context.Context, interactionID string) error {
	return nil
}

// renderSMSBody appends option labels as text lines.
func renderSMSBody(text string, opts *SendOptions) string {
	if opts == nil {
		return text
	}
	var b strings.Builder
	b.WriteString(text)
	for i, opt := range opts.InlineOptions {
		fmt.Fprintf(&b, "\n%d) %s", i+1, opt.Label)
	}
	for _, row := range opts.ReplyKeyboard {
		for _, label := range row {
			b.WriteString("\n- ")
			b.WriteString(label)
		}
	}
	return b.String()
}
