package room

import (
	"context"
	"errors"
	"testing"

	"github.com/tandembot/tandem/internal/models"
)

func TestRecordRatingEdgeTrigger(t *testing.T) {
	e := newEngine(t)
	e.seedPack(t, "icebreakers", "q1", "q2")
	ctx := context.Background()
	code := e.pair(t, "alice", "bob", "icebreakers")

	just, err := e.recorder.RecordRating(ctx, code, models.RoleCreator, models.AxisImportance, 3)
	if err != nil {
		t.Fatalf("RecordRating failed: %v", err)
	}
	if just {
		t.Error("one axis set must not report completion")
	}

	just, err = e.recorder.RecordRating(ctx, code, models.RoleCreator, models.AxisEvaluation, 1)
	if err != nil {
		t.Fatalf("RecordRating failed: %v", err)
	}
	if !just {
		t.Error("second axis must fire the completion edge")
	}

	// Overwriting an axis while complete must not re-fire.
	just, err = e.recorder.RecordRating(ctx, code, models.RoleCreator, models.AxisImportance, 4)
	if err != nil {
		t.Fatalf("RecordRating failed: %v", err)
	}
	if just {
		t.Error("completion edge fired twice for the same question")
	}
}

func TestRecordRatingDoesNotTouchPartner(t *testing.T) {
	e := newEngine(t)
	e.seedPack(t, "icebreakers", "q1")
	ctx := context.Background()
	code := e.pair(t, "alice", "bob", "icebreakers")

	e.recorder.RecordRating(ctx, code, models.RoleCreator, models.AxisImportance, 2)
	e.recorder.RecordRating(ctx, code, models.RoleCreator, models.AxisEvaluation, 2)

	session, _ := e.repo.GetSession(ctx, code)
	if session.VisitorImportance != nil || session.VisitorEvaluation != nil {
		t.Error("creator's ratings leaked into visitor fields")
	}
	if session.QuestionIndex != 0 {
		t.Errorf("index moved to %d on rating completion", session.QuestionIndex)
	}
}

func TestRecordRatingValidation(t *testing.T) {
	e := newEngine(t)
	e.seedPack(t, "icebreakers", "q1")
	ctx := context.Background()
	code := e.pair(t, "alice", "bob", "icebreakers")

	tests := []struct {
		name  string
		role  models.Role
		axis  models.Axis
		value int
		want  error
	}{
		{"bad role", models.Role("judge"), models.AxisImportance, 2, models.ErrInvalidRole},
		{"bad axis", models.RoleCreator, models.Axis("vibes"), 2, models.ErrInvalidAxis},
		{"value too high", models.RoleCreator, models.AxisImportance, 5, models.ErrInvalidRating},
		{"value negative", models.RoleVisitor, models.AxisEvaluation, -1, models.ErrInvalidRating},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.recorder.RecordRating(ctx, code, tt.role, tt.axis, tt.value)
			if !errors.Is(err, tt.want) {
				t.Errorf("RecordRating error = %v, want %v", err, tt.want)
			}
		})
	}

	// No mutation occurred on any failed write.
	session, _ := e.repo.GetSession(ctx, code)
	if session.CreatorImportance != nil || session.CreatorEvaluation != nil ||
		session.VisitorImportance != nil || session.VisitorEvaluation != nil {
		t.Error("failed validation mutated rating fields")
	}
}

func TestRecordRatingBoundaryValues(t *testing.T) {
	e := newEngine(t)
	e.seedPack(t, "icebreakers", "q1")
	ctx := context.Background()
	code := e.pair(t, "alice", "bob", "icebreakers")

	if _, err := e.recorder.RecordRating(ctx, code, models.RoleVisitor, models.AxisImportance, models.RatingMin); err != nil {
		t.Errorf("minimum value rejected: %v", err)
	}
	if _, err := e.recorder.RecordRating(ctx, code, models.RoleVisitor, models.AxisEvaluation, models.RatingMax); err != nil {
		t.Errorf("maximum value rejected: %v", err)
	}
}
