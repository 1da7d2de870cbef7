package room

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tandembot/tandem/internal/models"
	"github.com/tandembot/tandem/internal/store"
)

// ContextTracker persists one conversational-phase value per participant.
// It performs no transition validation itself; the dispatch table in the
// bot package is the single source of truth for legal transitions.
type ContextTracker struct {
	kv store.KV
}

// NewContextTracker creates a ContextTracker backed by the given store.
func NewContextTracker(kv store.KV) *ContextTracker {
	return &ContextTracker{kv: kv}
}

// Get returns the participant's current phase. An absent value reads as
// ContextIdle.
func (t *ContextTracker) Get(ctx context.Context, participantID string) (models.ContextState, error) {
	v, ok, err := t.kv.GetString(ctx, contextKey(participantID))
	if err != nil {
		return models.ContextIdle, fmt.Errorf("failed to load context for %s: %w", participantID, err)
	}
	if !ok {
		return models.ContextIdle, nil
	}
	return models.ContextState(v), nil
}

// Set stores the participant's phase.
func (t *ContextTracker) Set(ctx context.Context, participantID string, state models.ContextState) error {
	if err := t.kv.SetString(ctx, contextKey(participantID), string(state)); err != nil {
		return fmt.Errorf("failed to set context for %s: %w", participantID, err)
	}
	slog.Debug("ContextTracker set", "participant", participantID, "state", state)
	return nil
}

// Reset removes the participant's phase, returning them to idle.
func (t *ContextTracker) Reset(ctx context.Context, participantID string) error {
	if err := t.kv.Delete(ctx, contextKey(participantID)); err != nil {
		return fmt.Errorf("failed to reset context for %s: %w", participantID, err)
	}
	slog.Debug("ContextTracker reset", "participant", participantID)
	return nil
}
