package report

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tandembot/tandem/internal/models"
)

func f64(v float64) *float64 { return &v }

func sampleAggregate() models.Aggregate {
	return models.Aggregate{
		CreatorTotal:         8,
		VisitorTotal:         -3,
		SharePositiveCreator: f64(50.0),
		SharePositiveVisitor: f64(25.0),
		CreatorAvg:           f64(4.0),
		VisitorAvg:           f64(-1.5),
	}
}

func TestFormatRoleRelative(t *testing.T) {
	agg := sampleAggregate()

	// The creator's ratings describe the visitor's answers; the creator's
	// own answers are measured by the visitor's figures.
	creator := Format(agg, models.RoleCreator)
	if !strings.Contains(creator, "You rated your partner <i>8</i>") {
		t.Errorf("creator report missing own total:\n%s", creator)
	}
	if !strings.Contains(creator, "they rated you <i>-3</i>") {
		t.Errorf("creator report missing partner total:\n%s", creator)
	}
	if !strings.Contains(creator, "<i>25.0%</i> of your answers") {
		t.Errorf("creator report should carry visitor's positive share:\n%s", creator)
	}
	if !strings.Contains(creator, "rated <i>-1.5</i> on average") {
		t.Errorf("creator report should carry visitor's average:\n%s", creator)
	}

	visitor := Format(agg, models.RoleVisitor)
	if !strings.Contains(visitor, "You rated your partner <i>-3</i>") {
		t.Errorf("visitor report missing own total:\n%s", visitor)
	}
	if !strings.Contains(visitor, "they rated you <i>8</i>") {
		t.Errorf("visitor report missing partner total:\n%s", visitor)
	}
	if !strings.Contains(visitor, "<i>50.0%</i> of your answers") {
		t.Errorf("visitor report should carry creator's positive share:\n%s", visitor)
	}
}

func TestFormatEmptyAggregate(t *testing.T) {
	got := Format(models.Aggregate{}, models.RoleCreator)
	if got != emptyReport {
		t.Errorf("expected placeholder report, got:\n%s", got)
	}
}

type stubPhraser struct {
	out string
	err error
}

func (s *stubPhraser) GeneratePrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return s.out, s.err
}

func TestComposeWithPhraser(t *testing.T) {
	c := NewComposer(&stubPhraser{out: "rephrased"})
	got := c.Compose(context.Background(), sampleAggregate(), models.RoleCreator)
	if got != "rephrased" {
		t.Errorf("expected rephrased text, got %q", got)
	}
}

func TestComposePhraserFallback(t *testing.T) {
	agg := sampleAggregate()
	want := Format(agg, models.RoleVisitor)

	c := NewComposer(&stubPhraser{err: errors.New("rate limited")})
	if got := c.Compose(context.Background(), agg, models.RoleVisitor); got != want {
		t.Errorf("expected static fallback on error, got %q", got)
	}

	c = NewComposer(&stubPhraser{out: ""})
	if got := c.Compose(context.Background(), agg, models.RoleVisitor); got != want {
		t.Errorf("expected static fallback on empty rewrite, got %q", got)
	}

	c = NewComposer(nil)
	if got := c.Compose(context.Background(), agg, models.RoleVisitor); got != want {
		t.Errorf("expected static text without phraser, got %q", got)
	}
}

func TestComposeEmptySkipsPhraser(t *testing.T) {
	c := NewComposer(&stubPhraser{out: "should not be used"})
	got := c.Compose(context.Background(), models.Aggregate{}, models.RoleCreator)
	if got != emptyReport {
		t.Errorf("placeholder must not be rephrased, got %q", got)
	}
}
