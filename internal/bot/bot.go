// Package bot routes inbound participant events through the session state
// machine: pairing, question delivery, rating collection, the ready
// barrier, and final report delivery.
package bot

import (
	"context"
	"log/slog"

	"github.com/tandembot/tandem/internal/analytics"
	"github.com/tandembot/tandem/internal/messaging"
	"github.com/tandembot/tandem/internal/models"
	"github.com/tandembot/tandem/internal/report"
	"github.com/tandembot/tandem/internal/room"
	"github.com/tandembot/tandem/internal/store"
)

// Bot consumes the messaging service's event stream and drives the game.
type Bot struct {
	service messaging.Service
	sink    analytics.Sink
	reports *report.Composer

	repo      *room.Repository
	contexts  *room.ContextTracker
	packs     *room.Packs
	pairing   *room.Coordinator
	barrier   *room.Synchronizer
	recorder  *room.Recorder
	sequencer *room.Sequencer
}

// New wires a Bot over the given KV store, messaging service, analytics
// sink and report composer.
func New(service messaging.Service, kv store.KV, sink analytics.Sink, reports *report.Composer) *Bot {
	repo := room.NewRepository(kv)
	contexts := room.NewContextTracker(kv)
	packs := room.NewPacks(kv)

	return &Bot{
		service:   service,
		sink:      sink,
		reports:   reports,
		repo:      repo,
		contexts:  contexts,
		packs:     packs,
		pairing:   room.NewCoordinator(repo, contexts, packs),
		barrier:   room.NewSynchronizer(repo),
		recorder:  room.NewRecorder(repo),
		sequencer: room.NewSequencer(repo, packs, contexts),
	}
}

// Run consumes events until the context is cancelled or the service's
// event channel closes. Events are handled strictly one at a time on this
// goroutine; the single consumer is what keeps session writes serial.
func (b *Bot) Run(ctx context.Context) error {
	events := b.service.Events()
	slog.Info("Bot event loop started")

	for {
		select {
		case <-ctx.Done():
			slog.Info("Bot event loop stopping", "reason", ctx.Err())
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				slog.Info("Bot event channel closed")
				return nil
			}
			if err := b.handleEvent(ctx, event); err != nil {
				slog.Error("Bot event handling failed", "error", err, "participant", event.ParticipantID)
				b.sendText(ctx, event.ParticipantID, textErrorInternal, nil)
			}
		}
	}
}

// sendText delivers a message, logging instead of failing the caller. A
// delivery error is not actionable from the event loop.
func (b *Bot) sendText(ctx context.Context, participantID, text string, opts *messaging.SendOptions) {
	if _, err := b.service.SendText(ctx, participantID, text, opts); err != nil {
		slog.Error("Bot send failed", "error", err, "to", participantID)
	}
}

func (b *Bot) sendWelcome(ctx context.Context, participantID string) {
	b.sendText(ctx, participantID, textWelcome, &messaging.SendOptions{
		ReplyKeyboard: welcomeKeyboard(),
		OneTime:       true,
	})
}

// sendQuestion delivers one question to a participant: the numbered
// question text followed by the two rating scale prompts, and moves the
// participant's context to IN_ROOM.
func (b *Bot) sendQuestion(ctx context.Context, participantID, sessionID string, delivery *room.Delivery) error {
	if err := b.contexts.Set(ctx, participantID, models.ContextInRoom); err != nil {
		return err
	}

	b.sendText(ctx, participantID, questionHeader(delivery.Position, delivery.Total)+delivery.Text, &messaging.SendOptions{
		ParseMode: "HTML",
	})
	b.sendText(ctx, participantID, textAskImportance, &messaging.SendOptions{
		InlineOptions: ratingOptions(models.CallbackTypeImportance, -1, sessionID),
	})
	b.sendText(ctx, participantID, textAskEvaluation, &messaging.SendOptions{
		InlineOptions: ratingOptions(models.CallbackTypeEvaluation, -1, sessionID),
	})
	return nil
}

// occupant is one seated participant.
type occupant struct {
	id   string
	role models.Role
}

// occupants lists the session's participant ids alongside their roles.
func occupants(session *models.Session) []occupant {
	list := []occupant{{session.CreatorID, models.RoleCreator}}
	if session.VisitorID != nil {
		list = append(list, occupant{*session.VisitorID, models.RoleVisitor})
	}
	return list
}
