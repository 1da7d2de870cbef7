package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tandembot/tandem/internal/messaging"
	"github.com/tandembot/tandem/internal/models"
	"github.com/tandembot/tandem/internal/room"
)

// interactionTextAcknowledger is the optional service upgrade for
// acknowledgements that carry a short notification text.
type interactionTextAcknowledger interface {
	AcknowledgeInteractionWithText(ctx context.Context, interactionID, text string) error
}

// handleEvent classifies one inbound event and dispatches it. Commands win
// over button labels, button labels over context-dependent text.
func (b *Bot) handleEvent(ctx context.Context, event models.Event) error {
	if event.InteractionID != "" {
		return b.handleInteraction(ctx, event)
	}
	if event.IsCommand() {
		return b.handleCommand(ctx, event)
	}

	switch event.Text {
	case ButtonJoin:
		return b.handleJoinButton(ctx, event.ParticipantID)
	case ButtonCreate:
		return b.handleCreateButton(ctx, event.ParticipantID)
	}

	state, err := b.contexts.Get(ctx, event.ParticipantID)
	if err != nil {
		return err
	}

	switch state {
	case models.ContextSelectPack:
		return b.handlePackChoice(ctx, event.ParticipantID, event.Text)
	case models.ContextInsertID:
		return b.handleRoomCode(ctx, event.ParticipantID, event.Text)
	case models.ContextWaitingForAnswer:
		if event.Text == ButtonReady {
			return b.handleReady(ctx, event.ParticipantID)
		}
	case models.ContextWaitingForResults:
		b.sendText(ctx, event.ParticipantID, textWaitAMoment, nil)
		return nil
	case models.ContextIdle:
		b.sendWelcome(ctx, event.ParticipantID)
		return nil
	}

	b.sendText(ctx, event.ParticipantID, textError, nil)
	return nil
}

func (b *Bot) handleCommand(ctx context.Context, event models.Event) error {
	switch event.Command {
	case "start":
		return b.handleStart(ctx, event.ParticipantID)
	case "help":
		b.sendText(ctx, event.ParticipantID, textHelp, nil)
		return nil
	default:
		b.sendText(ctx, event.ParticipantID, textUnknownCommand, nil)
		return nil
	}
}

// handleStart resets the participant to a clean slate. The session itself
// is left alone so the partner can keep waiting or finish via re-entry.
func (b *Bot) handleStart(ctx context.Context, participantID string) error {
	if err := b.contexts.Reset(ctx, participantID); err != nil {
		return err
	}
	if err := b.repo.DeletePointer(ctx, participantID); err != nil {
		return err
	}
	b.sendWelcome(ctx, participantID)
	return nil
}

func (b *Bot) handleJoinButton(ctx context.Context, participantID string) error {
	if err := b.contexts.Set(ctx, participantID, models.ContextInsertID); err != nil {
		return err
	}
	b.sendText(ctx, participantID, textInsertRoomCode, nil)
	return nil
}

func (b *Bot) handleCreateButton(ctx context.Context, participantID string) error {
	names, err := b.packs.Names(ctx)
	if err != nil {
		return err
	}
	if err := b.contexts.Set(ctx, participantID, models.ContextSelectPack); err != nil {
		return err
	}
	b.sendText(ctx, participantID, textChoosePack, &messaging.SendOptions{
		ReplyKeyboard: packKeyboard(names),
		OneTime:       true,
	})
	return nil
}

// handlePackChoice creates the room once a known pack name arrives.
func (b *Bot) handlePackChoice(ctx context.Context, participantID, pack string) error {
	code, err := b.pairing.Create(ctx, participantID, pack)
	if errors.Is(err, models.ErrUnknownPack) {
		b.sendText(ctx, participantID, textPackDoesNotExist, nil)
		return nil
	}
	if err != nil {
		return err
	}

	if err := b.contexts.Set(ctx, participantID, models.ContextWaitingForPartner); err != nil {
		return err
	}
	b.sendText(ctx, participantID, roomCodeMessage(code), nil)
	return nil
}

// handleRoomCode admits the participant into the room named by the code.
// A fresh admission starts the game for both sides; re-entry resends the
// current question to the returning side only.
func (b *Bot) handleRoomCode(ctx context.Context, participantID, code string) error {
	result, err := b.pairing.Join(ctx, participantID, code)
	switch {
	case errors.Is(err, models.ErrUnknownRoom):
		b.sendText(ctx, participantID, textWrongRoomCode, nil)
		return nil
	case errors.Is(err, models.ErrRoomFull):
		b.sendText(ctx, participantID, textRoomFull, nil)
		return nil
	case err != nil:
		return err
	}

	delivery, err := b.sequencer.FetchCurrent(ctx, code)
	if err != nil {
		return err
	}
	if delivery == nil {
		// Between the last question and teardown there is nothing to
		// resend; the barrier path will finish the session.
		slog.Debug("Bot join with no current question", "session", code, "participant", participantID)
		return nil
	}

	if result.Outcome == room.JoinRejoined {
		return b.sendQuestion(ctx, participantID, code, delivery)
	}
	for _, o := range occupants(result.Session) {
		if err := b.sendQuestion(ctx, o.id, code, delivery); err != nil {
			return err
		}
	}
	return nil
}

// handleReady marks the participant's side ready and, when the barrier
// opens, advances the session.
func (b *Bot) handleReady(ctx context.Context, participantID string) error {
	pointer, err := b.repo.GetPointer(ctx, participantID)
	if err != nil {
		return err
	}
	if pointer == nil {
		return fmt.Errorf("%w: %s", models.ErrNoSession, participantID)
	}

	opened, err := b.barrier.MarkReady(ctx, pointer.SessionID, pointer.Role)
	if err != nil {
		return err
	}
	if !opened {
		b.sendText(ctx, participantID, textWaitingForPartnerRatings, nil)
		return nil
	}
	return b.progress(ctx, pointer.SessionID)
}

// progress runs after the barrier opens: record the finished round, then
// either fan out the next question or finish the session.
func (b *Bot) progress(ctx context.Context, sessionID string) error {
	snap, err := b.repo.Snapshot(ctx, sessionID)
	if err != nil {
		return err
	}
	// Analytics is best effort: a sink failure must not stall the game.
	if err := b.sink.RecordRound(ctx, snap); err != nil {
		slog.Error("Bot analytics write failed", "error", err, "session", sessionID)
	}

	advance, err := b.sequencer.AdvanceOrFinish(ctx, sessionID)
	if err != nil {
		return err
	}

	session, err := b.repo.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return fmt.Errorf("%w: %q", models.ErrUnknownRoom, sessionID)
	}

	if !advance.Finished {
		for _, o := range occupants(session) {
			if err := b.sendQuestion(ctx, o.id, sessionID, advance.Delivery); err != nil {
				return err
			}
		}
		return nil
	}
	return b.finish(ctx, session)
}

// finish delivers per-role reports and tears the session down.
func (b *Bot) finish(ctx context.Context, session *models.Session) error {
	seated := occupants(session)
	for _, o := range seated {
		if err := b.contexts.Set(ctx, o.id, models.ContextWaitingForResults); err != nil {
			return err
		}
		b.sendText(ctx, o.id, textEvaluatingResults, nil)
	}

	agg, err := b.sink.QueryAggregate(ctx, session.ID)
	if err != nil {
		return err
	}

	for _, o := range seated {
		b.sendText(ctx, o.id, b.reports.Compose(ctx, agg, o.role), &messaging.SendOptions{
			ParseMode:     "HTML",
			ReplyKeyboard: welcomeKeyboard(),
			OneTime:       true,
		})
	}

	return b.sequencer.Teardown(ctx, session)
}

// handleInteraction processes an inline scale press: record the rating,
// re-draw the keyboard with the choice marked, and acknowledge the tap.
func (b *Bot) handleInteraction(ctx context.Context, event models.Event) error {
	cb := event.Callback
	if cb == nil {
		// Not a rating payload; just clear the client's pending state.
		return b.acknowledge(ctx, event.InteractionID, "")
	}

	state, err := b.contexts.Get(ctx, event.ParticipantID)
	if err != nil {
		return err
	}
	if state == models.ContextInRoom || state == models.ContextWaitingForAnswer {
		if err := b.recordInteraction(ctx, event); err != nil {
			return err
		}
		if err := b.service.EditInlineOptions(ctx, event.ParticipantID, event.DeliveryID,
			ratingOptions(cb.Typ, cb.Idx, cb.RoomID)); err != nil {
			slog.Error("Bot keyboard re-draw failed", "error", err, "participant", event.ParticipantID)
		}
	}
	return b.acknowledge(ctx, event.InteractionID, ratingAck(cb.Typ, cb.Idx))
}

// recordInteraction writes the rating and, when the side just completed
// both axes, prompts for the ready barrier.
func (b *Bot) recordInteraction(ctx context.Context, event models.Event) error {
	cb := event.Callback

	session, err := b.repo.GetSession(ctx, cb.RoomID)
	if err != nil {
		return err
	}
	if session == nil {
		slog.Warn("Bot interaction for unknown session", "session", cb.RoomID, "participant", event.ParticipantID)
		return nil
	}
	role, ok := session.RoleOf(event.ParticipantID)
	if !ok {
		slog.Warn("Bot interaction from non-occupant", "session", cb.RoomID, "participant", event.ParticipantID)
		return nil
	}
	axis, ok := cb.Axis()
	if !ok {
		slog.Warn("Bot interaction with unknown scale", "typ", cb.Typ, "participant", event.ParticipantID)
		return nil
	}

	completed, err := b.recorder.RecordRating(ctx, cb.RoomID, role, axis, cb.Idx)
	if errors.Is(err, models.ErrInvalidRating) {
		slog.Warn("Bot interaction with out-of-range value", "value", cb.Idx, "participant", event.ParticipantID)
		return nil
	}
	if err != nil {
		return err
	}

	if completed {
		if err := b.contexts.Set(ctx, event.ParticipantID, models.ContextWaitingForAnswer); err != nil {
			return err
		}
		b.sendText(ctx, event.ParticipantID, textReadyForNext, &messaging.SendOptions{
			ReplyKeyboard: readyKeyboard(),
		})
	}
	return nil
}

func (b *Bot) acknowledge(ctx context.Context, interactionID, text string) error {
	if text != "" {
		if acker, ok := b.service.(interactionTextAcknowledger); ok {
			return acker.AcknowledgeInteractionWithText(ctx, interactionID, text)
		}
	}
	return b.service.AcknowledgeInteraction(ctx, interactionID)
}
