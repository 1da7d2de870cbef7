// Package report renders the final per-session summary sent to each
// participant.
//
// The summary is role-relative: every aggregate figure is presented as
// "yours" or "your partner's" depending on which side receives it. The
// ratings a participant gave describe the partner's answers, so the
// partner's figures measure the participant's own answers and vice versa.
package report

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tandembot/tandem/internal/models"
)

// emptyReport is sent when the session produced no scored rounds.
const emptyReport = `✨<b>Your report:</b>
Neither of you gave any answer a non-neutral score this time, so there is nothing to sum up. Play another round and rate more boldly!`

// Phraser rewrites a formatted report in a warmer conversational tone.
// *genai.Client satisfies it.
type Phraser interface {
	GeneratePrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

const phraserSystemPrompt = "You rewrite short game summaries for a couples question game. " +
	"Keep every number and all HTML tags exactly as given, keep it under 100 words, " +
	"and make the tone warm and playful."

// Composer turns a session aggregate into per-role report text. The
// phraser is optional; without one the static template is used as is.
type Composer struct {
	phraser Phraser
}

// NewComposer returns a composer. Pass nil to disable rephrasing.
func NewComposer(phraser Phraser) *Composer {
	return &Composer{phraser: phraser}
}

// Format renders the role-relative report text with HTML markup.
func Format(agg models.Aggregate, role models.Role) string {
	if agg.IsEmpty() {
		return emptyReport
	}

	partner := role.Opposite()
	return fmt.Sprintf(`✨<b>Your report:</b>
🤗You rated your partner <i>%d</i>, and they rated you <i>%d</i>.

💥<i>%.1f%%</i> of your answers got a positive score, and you scored <i>%.1f%%</i> of your partner's answers positively.

🃏Your answers were rated <i>%.1f</i> on average, and you rated your partner's answers <i>%.1f</i> on average.`,
		agg.Total(role), agg.Total(partner),
		agg.SharePositive(partner), agg.SharePositive(role),
		agg.Avg(partner), agg.Avg(role))
}

// Compose formats the report for one role and, when a phraser is
// configured, rewrites it conversationally. A phraser failure falls back
// to the static text so report delivery never depends on the API.
func (c *Composer) Compose(ctx context.Context, agg models.Aggregate, role models.Role) string {
	text := Format(agg, role)
	if c.phraser == nil || agg.IsEmpty() {
		return text
	}
	rephrased, err := c.phraser.GeneratePrompt(ctx, phraserSystemPrompt, text)
	if err != nil {
		slog.Debug("Composer falling back to static report", "error", err, "role", role)
		return text
	}
	if rephrased == "" {
		return text
	}
	return rephrased
}
