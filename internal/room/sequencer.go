package room

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tandembot/tandem/internal/models"
)

// Delivery is one question ready to be fanned out: its text plus 1-based
// position within the pack.
type Delivery struct {
	Text     string
	Position int
	Total    int
}

// Advance is the outcome of one barrier-gated progression step.
type Advance struct {
	// Finished is true when the pack is exhausted and the session should
	// move to report generation and teardown.
	Finished bool
	// Delivery carries the next question when Finished is false.
	Delivery *Delivery
}

// Sequencer advances the shared question index and resolves prompts from
// the session's pack.
type Sequencer struct {
	repo     *Repository
	packs    *Packs
	contexts *ContextTracker
}

// NewSequencer creates a question Sequencer.
func NewSequencer(repo *Repository, packs *Packs, contexts *ContextTracker) *Sequencer {
	return &Sequencer{repo: repo, packs: packs, contexts: contexts}
}

// AdvanceOrFinish clears the just-finished question's fields, increments
// the shared index, and either returns the next question or signals that
// the pack is exhausted. Invoked only after the barrier reports both sides
// ready.
func (s *Sequencer) AdvanceOrFinish(ctx context.Context, sessionID string) (Advance, error) {
	idx, err := s.repo.PrepareNextQuestion(ctx, sessionID)
	if err != nil {
		return Advance{}, err
	}

	pack, ok, err := s.repo.Pack(ctx, sessionID)
	if err != nil {
		return Advance{}, err
	}
	if !ok {
		return Advance{}, fmt.Errorf("%w: %q", models.ErrUnknownRoom, sessionID)
	}

	delivery, err := s.lookup(ctx, pack, idx)
	if err != nil {
		return Advance{}, err
	}
	if delivery == nil {
		slog.Info("Sequencer pack exhausted", "session", sessionID, "pack", pack, "idx", idx)
		return Advance{Finished: true}, nil
	}

	slog.Debug("Sequencer advanced", "session", sessionID, "pack", pack, "position", delivery.Position, "total", delivery.Total)
	return Advance{Delivery: delivery}, nil
}

// FetchCurrent is the non-mutating lookup at the current index, used by the
// re-entry resend path. Returns nil when the pack has no entry at the
// current index (the session is between the last question and teardown).
func (s *Sequencer) FetchCurrent(ctx context.Context, sessionID string) (*Delivery, error) {
	pack, ok, err := s.repo.Pack(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownRoom, sessionID)
	}
	idx, ok, err := s.repo.QuestionIndex(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownRoom, sessionID)
	}
	return s.lookup(ctx, pack, idx)
}

// Teardown deletes the session record, both participant pointers, and both
// contexts. Called exactly once, after the final report has been delivered.
func (s *Sequencer) Teardown(ctx context.Context, session *models.Session) error {
	occupants := []string{session.CreatorID}
	if session.VisitorID != nil {
		occupants = append(occupants, *session.VisitorID)
	}

	for _, id := range occupants {
		if err := s.repo.DeletePointer(ctx, id); err != nil {
			return err
		}
		if err := s.contexts.Reset(ctx, id); err != nil {
			return err
		}
	}
	if err := s.repo.DeleteSession(ctx, session.ID); err != nil {
		return err
	}

	slog.Info("Sequencer tore down session", "session", session.ID)
	return nil
}

// lookup resolves a pack entry into a Delivery, nil when idx is past the
// pack's end.
func (s *Sequencer) lookup(ctx context.Context, pack string, idx int) (*Delivery, error) {
	text, ok, err := s.packs.Question(ctx, pack, idx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	total, err := s.packs.Length(ctx, pack)
	if err != nil {
		return nil, err
	}
	return &Delivery{Text: text, Position: idx + 1, Total: total}, nil
}
