// Package room implements the pairing and turn-synchronization engine:
// session records, participant pointers, conversational contexts, the
// two-sided ready barrier, rating collection, and question sequencing.
package room

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/tandembot/tandem/internal/models"
	"github.com/tandembot/tandem/internal/store"
	"github.com/tandembot/tandem/internal/util"
)

// timeNow returns the current unix timestamp; overridable in tests.
var timeNow = func() int64 { return time.Now().Unix() }

// Session hash field names. The layout matches the persisted key reference:
// one hash per session keyed by its join code.
const (
	fieldRoomID    = "room_id"
	fieldCreatorID = "creator_id"
	fieldVisitorID = "visitor_id"
	fieldPack      = "pack"
	fieldCreatedAt = "created_at"
	fieldIndex     = "idx"
)

// ratingField returns the hash field holding one role's rating on one axis,
// e.g. "creator_importance".
func ratingField(role models.Role, axis models.Axis) string {
	return string(role) + "_" + string(axis)
}

// readyField returns the hash field holding one role's readiness timestamp.
func readyField(role models.Role) string {
	return string(role) + "_ready_at"
}

// perQuestionFields lists every per-question field cleared on advance.
func perQuestionFields() []string {
	return []string{
		ratingField(models.RoleCreator, models.AxisImportance),
		ratingField(models.RoleCreator, models.AxisEvaluation),
		readyField(models.RoleCreator),
		ratingField(models.RoleVisitor, models.AxisImportance),
		ratingField(models.RoleVisitor, models.AxisEvaluation),
		readyField(models.RoleVisitor),
	}
}

func roomKey(sessionID string) string        { return "room:" + sessionID }
func pointerKey(participantID string) string { return "user:" + participantID + ":room" }
func contextKey(participantID string) string { return "user:" + participantID + ":context" }
func packKey(name string) string             { return "pack:" + name }

const packsKey = "packs"

// Repository persists sessions and participant pointers in the shared
// key-value store, hiding the key layout from the rest of the engine.
type Repository struct {
	kv store.KV
}

// NewRepository creates a Repository backed by the given store.
func NewRepository(kv store.KV) *Repository {
	return &Repository{kv: kv}
}

// CreateSession writes a new session with the given creator and pack and
// returns its freshly generated join code. The question index starts at 0
// and the visitor seat is left empty.
func (r *Repository) CreateSession(ctx context.Context, creatorID, pack string) (string, error) {
	code := util.GenerateRandomAlphaNumeric(models.JoinCodeLength)
	err := r.kv.HashSetMultiple(ctx, roomKey(code), map[string]string{
		fieldRoomID:    code,
		fieldCreatorID: creatorID,
		fieldPack:      pack,
		fieldCreatedAt: strconv.FormatInt(timeNow(), 10),
		fieldIndex:     "0",
	})
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	slog.Debug("Repository created session", "session", code, "creator", creatorID, "pack", pack)
	return code, nil
}

// GetSession loads the typed session record. Returns (nil, nil) when no
// session exists under the given id.
func (r *Repository) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	raw, err := r.kv.HashGetAll(ctx, roomKey(sessionID))
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	s := &models.Session{
		ID:        sessionID,
		CreatorID: raw[fieldCreatorID],
		Pack:      raw[fieldPack],
	}
	if v, ok := raw[fieldVisitorID]; ok {
		visitor := v
		s.VisitorID = &visitor
	}
	s.CreatedAt = parseInt64(raw[fieldCreatedAt])
	s.QuestionIndex = int(parseInt64(raw[fieldIndex]))

	s.CreatorImportance = optionalInt(raw, ratingField(models.RoleCreator, models.AxisImportance))
	s.CreatorEvaluation = optionalInt(raw, ratingField(models.RoleCreator, models.AxisEvaluation))
	s.VisitorImportance = optionalInt(raw, ratingField(models.RoleVisitor, models.AxisImportance))
	s.VisitorEvaluation = optionalInt(raw, ratingField(models.RoleVisitor, models.AxisEvaluation))
	s.CreatorReadyAt = optionalInt64(raw, readyField(models.RoleCreator))
	s.VisitorReadyAt = optionalInt64(raw, readyField(models.RoleVisitor))

	return s, nil
}

// Occupants returns the two occupant fields of a session. creator is nil
// when the session does not exist; visitor is nil while the seat is empty.
func (r *Repository) Occupants(ctx context.Context, sessionID string) (creator, visitor *string, err error) {
	vals, err := r.kv.HashGet(ctx, roomKey(sessionID), fieldCreatorID, fieldVisitorID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load occupants of %s: %w", sessionID, err)
	}
	return vals[0], vals[1], nil
}

// SetVisitor assigns the visitor seat. Callers check emptiness first; the
// invariant that a role is assigned exactly once is enforced by the pairing
// coordinator, which is the only writer of this field.
func (r *Repository) SetVisitor(ctx context.Context, sessionID, participantID string) error {
	if err := r.kv.HashSet(ctx, roomKey(sessionID), fieldVisitorID, participantID); err != nil {
		return fmt.Errorf("failed to set visitor of %s: %w", sessionID, err)
	}
	return nil
}

// Pack returns the session's pack name.
func (r *Repository) Pack(ctx context.Context, sessionID string) (string, bool, error) {
	vals, err := r.kv.HashGet(ctx, roomKey(sessionID), fieldPack)
	if err != nil {
		return "", false, fmt.Errorf("failed to load pack of %s: %w", sessionID, err)
	}
	if vals[0] == nil {
		return "", false, nil
	}
	return *vals[0], true, nil
}

// QuestionIndex returns the session's current question index.
func (r *Repository) QuestionIndex(ctx context.Context, sessionID string) (int, bool, error) {
	vals, err := r.kv.HashGet(ctx, roomKey(sessionID), fieldIndex)
	if err != nil {
		return 0, false, fmt.Errorf("failed to load index of %s: %w", sessionID, err)
	}
	if vals[0] == nil {
		return 0, false, nil
	}
	return int(parseInt64(*vals[0])), true, nil
}

// SetPointer records a participant's current session and role.
func (r *Repository) SetPointer(ctx context.Context, participantID, sessionID string, role models.Role) error {
	err := r.kv.HashSetMultiple(ctx, pointerKey(participantID), map[string]string{
		"id":   sessionID,
		"role": string(role),
	})
	if err != nil {
		return fmt.Errorf("failed to set pointer for %s: %w", participantID, err)
	}
	return nil
}

// GetPointer returns the participant's pointer, or nil when they are not
// inside an active session.
func (r *Repository) GetPointer(ctx context.Context, participantID string) (*models.Pointer, error) {
	raw, err := r.kv.HashGetAll(ctx, pointerKey(participantID))
	if err != nil {
		return nil, fmt.Errorf("failed to load pointer for %s: %w", participantID, err)
	}
	id, role := raw["id"], models.Role(raw["role"])
	if id == "" || !role.Valid() {
		return nil, nil
	}
	return &models.Pointer{SessionID: id, Role: role}, nil
}

// DeletePointer removes a participant's pointer.
func (r *Repository) DeletePointer(ctx context.Context, participantID string) error {
	if err := r.kv.Delete(ctx, pointerKey(participantID)); err != nil {
		return fmt.Errorf("failed to delete pointer for %s: %w", participantID, err)
	}
	return nil
}

// SetReady stamps the role's readiness marker with the current time.
func (r *Repository) SetReady(ctx context.Context, sessionID string, role models.Role) error {
	field := readyField(role)
	err := r.kv.HashSet(ctx, roomKey(sessionID), field, strconv.FormatInt(timeNow(), 10))
	if err != nil {
		return fmt.Errorf("failed to set %s on %s: %w", field, sessionID, err)
	}
	return nil
}

// ReadyExists reports whether the role's readiness marker is present.
func (r *Repository) ReadyExists(ctx context.Context, sessionID string, role models.Role) (bool, error) {
	ok, err := r.kv.HashExists(ctx, roomKey(sessionID), readyField(role))
	if err != nil {
		return false, fmt.Errorf("failed to check readiness on %s: %w", sessionID, err)
	}
	return ok, nil
}

// SetRating writes one role's rating on one axis for the current question.
func (r *Repository) SetRating(ctx context.Context, sessionID string, role models.Role, axis models.Axis, value int) error {
	field := ratingField(role, axis)
	if err := r.kv.HashSet(ctx, roomKey(sessionID), field, strconv.Itoa(value)); err != nil {
		return fmt.Errorf("failed to set %s on %s: %w", field, sessionID, err)
	}
	return nil
}

// RatingsComplete reports whether the role has both axes set for the
// current question.
func (r *Repository) RatingsComplete(ctx context.Context, sessionID string, role models.Role) (bool, error) {
	vals, err := r.kv.HashGet(ctx, roomKey(sessionID),
		ratingField(role, models.AxisImportance),
		ratingField(role, models.AxisEvaluation),
	)
	if err != nil {
		return false, fmt.Errorf("failed to check ratings on %s: %w", sessionID, err)
	}
	return vals[0] != nil && vals[1] != nil, nil
}

// PrepareNextQuestion clears both sides' per-question fields and advances
// the shared index by one, returning the new index.
func (r *Repository) PrepareNextQuestion(ctx context.Context, sessionID string) (int, error) {
	key := roomKey(sessionID)
	if err := r.kv.HashDeleteFields(ctx, key, perQuestionFields()...); err != nil {
		return 0, fmt.Errorf("failed to clear per-question fields of %s: %w", sessionID, err)
	}
	idx, err := r.kv.HashIncrement(ctx, key, fieldIndex, 1)
	if err != nil {
		return 0, fmt.Errorf("failed to advance index of %s: %w", sessionID, err)
	}
	slog.Debug("Repository advanced question index", "session", sessionID, "idx", idx)
	return int(idx), nil
}

// Snapshot reads the session's full current row for the analytics sink.
// Absent numeric fields default to zero.
func (r *Repository) Snapshot(ctx context.Context, sessionID string) (models.RoundSnapshot, error) {
	raw, err := r.kv.HashGetAll(ctx, roomKey(sessionID))
	if err != nil {
		return models.RoundSnapshot{}, fmt.Errorf("failed to snapshot session %s: %w", sessionID, err)
	}
	return models.RoundSnapshot{
		SessionID:         sessionID,
		CreatorID:         raw[fieldCreatorID],
		VisitorID:         raw[fieldVisitorID],
		Pack:              raw[fieldPack],
		CreatedAt:         parseInt64(raw[fieldCreatedAt]),
		QuestionIndex:     int(parseInt64(raw[fieldIndex])),
		CreatorImportance: int(parseInt64(raw[ratingField(models.RoleCreator, models.AxisImportance)])),
		CreatorEvaluation: int(parseInt64(raw[ratingField(models.RoleCreator, models.AxisEvaluation)])),
		VisitorImportance: int(parseInt64(raw[ratingField(models.RoleVisitor, models.AxisImportance)])),
		VisitorEvaluation: int(parseInt64(raw[ratingField(models.RoleVisitor, models.AxisEvaluation)])),
		CreatorReadyAt:    parseInt64(raw[readyField(models.RoleCreator)]),
		VisitorReadyAt:    parseInt64(raw[readyField(models.RoleVisitor)]),
	}, nil
}

// DeleteSession removes the session record. The join code becomes unusable.
func (r *Repository) DeleteSession(ctx context.Context, sessionID string) error {
	if err := r.kv.Delete(ctx, roomKey(sessionID)); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	slog.Debug("Repository deleted session", "session", sessionID)
	return nil
}

// parseInt64 parses a stored numeric string, defaulting to 0 on absence or
// malformed data.
func parseInt64(s string) int64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func optionalInt(raw map[string]string, field string) *int {
	if v, ok := raw[field]; ok {
		n := int(parseInt64(v))
		return &n
	}
	return nil
}

func optionalInt64(raw map[string]string, field string) *int64 {
	if v, ok := raw[field]; ok {
		n := parseInt64(v)
		return &n
	}
	return nil
}
