package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/tandembot/tandem/internal/models"
)

// DefaultPollTimeoutSeconds is the long-poll timeout passed to getUpdates.
const DefaultPollTimeoutSeconds = 30

// telegramAPI defines the minimal Bot API surface used by the service.
// *tgbotapi.BotAPI satisfies it.
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// TelegramService implements the Service interface over the Telegram Bot
// API long poll.
type TelegramService struct {
	api     telegramAPI
	events  chan models.Event
	done    chan struct{}
	mu      sync.RWMutex
	stopped bool
}

// NewTelegramService creates a TelegramService with a live Bot API client.
func NewTelegramService(token string) (*TelegramService, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token must be provided")
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		slog.Error("TelegramService failed to initialize Bot API", "error", err)
		return nil, fmt.Errorf("failed to initialize telegram bot: %w", err)
	}
	slog.Info("TelegramService authorized", "username", api.Self.UserName)
	return newTelegramService(api), nil
}

func newTelegramService(api telegramAPI) *TelegramService {
	return &TelegramService{
		api:    api,
		events: make(chan models.Event, DefaultChannelBufferSize),
		done:   make(chan struct{}),
	}
}

// Start begins the update long poll and translates updates into events.
func (s *TelegramService) Start(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = DefaultPollTimeoutSeconds
	updates := s.api.GetUpdatesChan(cfg)
	slog.Debug("TelegramService update polling started")

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.done:
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				if event, ok := translateUpdate(update); ok {
					s.safeEmitEvent(event)
				}
			}
		}
	}()
	return nil
}

// Stop halts polling, closes channels and stops the service
func (s *TelegramService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	s.stopped = true
	close(s.done)
	s.api.StopReceivingUpdates()

	go func() {
		time.Sleep(50 * time.Millisecond)
		close(s.events)
	}()

	return nil
}

// Events returns the channel of inbound participant events.
func (s *TelegramService) Events() <-chan models.Event {
	return s.events
}

// SendText delivers a message and returns the Telegram message id.
func (s *TelegramService) SendText(ctx context.Context, participantID string, text string, opts *SendOptions) (int, error) {
	s.mu.RLock()
	if s.stopped {
		s.mu.RUnlock()
		return 0, ErrServiceStopped
	}
	s.mu.RUnlock()

	chatID, err := parseChatID(participantID)
	if err != nil {
		slog.Error("TelegramService SendText invalid participant", "error", err, "to", participantID)
		return 0, err
	}

	msg := tgbotapi.NewMessage(chatID, text)
	if opts != nil {
		if opts.ParseMode != "" {
			msg.ParseMode = opts.ParseMode
		}
		switch {
		case len(opts.InlineOptions) > 0:
			msg.ReplyMarkup = inlineMarkup(opts.InlineOptions)
		case len(opts.ReplyKeyboard) > 0:
			msg.ReplyMarkup = replyMarkup(opts.ReplyKeyboard, opts.OneTime)
		case opts.RemoveKeyboard:
			msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
		}
	}

	sent, err := s.api.Send(msg)
	if err != nil {
		slog.Error("TelegramService SendText failed", "error", err, "to", participantID)
		return 0, fmt.Errorf("failed to send message to %s: %w", participantID, err)
	}
	slog.Debug("TelegramService message sent", "to", participantID, "message_id", sent.MessageID)
	return sent.MessageID, nil
}

// EditInlineOptions replaces the inline keyboard of an earlier message.
func (s *TelegramService) EditInlineOptions(ctx context.Context, participantID string, deliveryID int, options []InlineOption) error {
	s.mu.RLock()
	if s.stopped {
		s.mu.RUnlock()
		return ErrServiceStopped
	}
	s.mu.RUnlock()

	chatID, err := parseChatID(participantID)
	if err != nil {
		return err
	}

	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, deliveryID, inlineMarkup(options))
	if _, err := s.api.Request(edit); err != nil {
		slog.Error("TelegramService EditInlineOptions failed", "error", err, "to", participantID, "message_id", deliveryID)
		return fmt.Errorf("failed to edit message %d for %s: %w", deliveryID, participantID, err)
	}
	return nil
}

// AcknowledgeInteraction answers a callback query.
func (s *TelegramService) AcknowledgeInteraction(ctx context.Context, interactionID string) error {
	return s.acknowledge(interactionID, "")
}

// AcknowledgeInteractionWithText answers a callback query with a short
// notification text shown to the participant.
func (s *TelegramService) AcknowledgeInteractionWithText(ctx context.Context, interactionID, text string) error {
	return s.acknowledge(interactionID, text)
}

func (s *TelegramService) acknowledge(interactionID, text string) error {
	s.mu.RLock()
	if s.stopped {
		s.mu.RUnlock()
		return ErrServiceStopped
	}
	s.mu.RUnlock()

	callback := tgbotapi.NewCallback(interactionID, text)
	if _, err := s.api.Request(callback); err != nil {
		slog.Error("TelegramService callback acknowledgement failed", "error", err, "interaction", interactionID)
		return fmt.Errorf("failed to answer callback %s: %w", interactionID, err)
	}
	return nil
}

func (s *TelegramService) safeEmitEvent(event models.Event) {
	s.mu.RLock()
	stopped := s.stopped
	s.mu.RUnlock()
	if stopped {
		slog.Warn("TelegramService dropping inbound event (service stopped)", "from", event.ParticipantID)
		return
	}

	select {
	case s.events <- event:
		slog.Debug("TelegramService emitted inbound event", "from", event.ParticipantID, "command", event.Command)
	case <-time.After(DefaultChannelTimeout):
		slog.Warn("TelegramService events channel blocked, dropping event", "from", event.ParticipantID)
	}
}

// translateUpdate maps a Telegram update onto the service-neutral event
// form. Updates that carry neither a message nor a callback are skipped.
func translateUpdate(update tgbotapi.Update) (models.Event, bool) {
	switch {
	case update.CallbackQuery != nil:
		q := update.CallbackQuery
		if q.Message == nil {
			return models.Event{}, false
		}
		return models.Event{
			ParticipantID: strconv.FormatInt(q.Message.Chat.ID, 10),
			Callback:      models.DecodeRatingCallback(q.Data),
			InteractionID: q.ID,
			DeliveryID:    q.Message.MessageID,
			Time:          time.Now().Unix(),
		}, true
	case update.Message != nil:
		m := update.Message
		event := models.Event{
			ParticipantID: strconv.FormatInt(m.Chat.ID, 10),
			Text:          m.Text,
			Time:          int64(m.Date),
		}
		if m.IsCommand() {
			event.Command = m.Command()
		}
		return event, true
	}
	return models.Event{}, false
}

func parseChatID(participantID string) (int64, error) {
	chatID, err := strconv.ParseInt(participantID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid participant id %q: %w", participantID, err)
	}
	return chatID, nil
}

func inlineMarkup(options []InlineOption) tgbotapi.InlineKeyboardMarkup {
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(options))
	for _, opt := range options {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(opt.Label, opt.Data))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

func replyMarkup(rows [][]string, oneTime bool) tgbotapi.ReplyKeyboardMarkup {
	keyboard := make([][]tgbotapi.KeyboardButton, 0, len(rows))
	for _, labels := range rows {
		row := make([]tgbotapi.KeyboardButton, 0, len(labels))
		for _, label := range labels {
			row = append(row, tgbotapi.NewKeyboardButton(label))
		}
		keyboard = append(keyboard, row)
	}
	markup := tgbotapi.NewReplyKeyboard(keyboard...)
	markup.OneTimeKeyboard = oneTime
	return markup
}
