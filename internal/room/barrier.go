package room

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tandembot/tandem/internal/models"
)

// Synchronizer implements the two-sided readiness barrier that gates
// advancing to the next question.
type Synchronizer struct {
	repo *Repository
}

// NewSynchronizer creates a turn Synchronizer.
func NewSynchronizer(repo *Repository) *Synchronizer {
	return &Synchronizer{repo: repo}
}

// MarkReady records the role's readiness for the current question and
// reports whether both sides are now ready.
//
// The first call from a side stamps its marker; repeated calls are no-ops,
// so duplicate "ready" signals from the same side never change the result.
// This is a two-field presence check, not an atomic barrier: each side only
// ever writes its own marker, which is all the exclusivity the serial event
// loop requires. Callers must move a side out of WAITING_FOR_ANSWER right
// after observing true so a retried signal cannot re-trigger advancement.
func (s *Synchronizer) MarkReady(ctx context.Context, sessionID string, role models.Role) (bool, error) {
	if !role.Valid() {
		return false, fmt.Errorf("%w: %q", models.ErrInvalidRole, role)
	}

	alreadySet, err := s.repo.ReadyExists(ctx, sessionID, role)
	if err != nil {
		return false, err
	}
	if !alreadySet {
		if err := s.repo.SetReady(ctx, sessionID, role); err != nil {
			return false, err
		}
	}

	otherReady, err := s.repo.ReadyExists(ctx, sessionID, role.Opposite())
	if err != nil {
		return false, err
	}

	slog.Debug("Synchronizer marked ready", "session", sessionID, "role", role, "repeat", alreadySet, "both_ready", otherReady)
	return otherReady, nil
}
