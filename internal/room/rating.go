package room

import (
	"context"
	"log/slog"

	"github.com/tandembot/tandem/internal/models"
)

// Recorder records the two rating axes per participant per question and
// detects when a side has just completed both.
type Recorder struct {
	repo *Repository
}

// NewRecorder creates an evaluation Recorder.
func NewRecorder(repo *Repository) *Recorder {
	return &Recorder{repo: repo}
}

// RecordRating writes one role's rating on one axis for the current
// question and reports whether that role just completed both axes.
//
// The return is a one-way edge trigger: it is true only on the write that
// takes the role from incomplete to complete, so it fires at most once per
// question per role. Overwriting an axis that was already set keeps the
// role complete and returns false. Invalid input fails before any mutation.
func (r *Recorder) RecordRating(ctx context.Context, sessionID string, role models.Role, axis models.Axis, value int) (bool, error) {
	if err := models.ValidateRating(role, axis, value); err != nil {
		return false, err
	}

	completeBefore, err := r.repo.RatingsComplete(ctx, sessionID, role)
	if err != nil {
		return false, err
	}

	if err := r.repo.SetRating(ctx, sessionID, role, axis, value); err != nil {
		return false, err
	}

	completeAfter, err := r.repo.RatingsComplete(ctx, sessionID, role)
	if err != nil {
		return false, err
	}

	justCompleted := !completeBefore && completeAfter
	slog.Debug("Recorder stored rating",
		"session", sessionID, "role", role, "axis", axis, "value", value, "just_completed", justCompleted)
	return justCompleted, nil
}
