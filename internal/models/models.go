// Package models defines the core data structures for Tandem.
//
// It includes the session, participant pointer, and rating types shared
// across the room engine, messaging, and analytics modules.
package models

import (
	"errors"
	"fmt"
)

// Role identifies one of the two fixed positions within a session.
type Role string

const (
	// RoleCreator is the participant who created the session.
	RoleCreator Role = "creator"
	// RoleVisitor is the participant who joined with the session's code.
	RoleVisitor Role = "visitor"
)

// Valid reports whether the role is one of the two known positions.
func (r Role) Valid() bool {
	return r == RoleCreator || r == RoleVisitor
}

// Opposite returns the other role of the pair.
func (r Role) Opposite() Role {
	if r == RoleCreator {
		return RoleVisitor
	}
	return RoleCreator
}

// Axis is one of the two rating dimensions collected per question.
type Axis string

const (
	// AxisImportance rates how much the answer matters to the rater.
	AxisImportance Axis = "importance"
	// AxisEvaluation rates how the rater scores the answer itself.
	AxisEvaluation Axis = "evaluation"
)

// Valid reports whether the axis is a known rating dimension.
func (a Axis) Valid() bool {
	return a == AxisImportance || a == AxisEvaluation
}

// Rating value bounds and join code shape.
const (
	// RatingMin is the lowest accepted rating value.
	RatingMin = 0
	// RatingMax is the highest accepted rating value.
	RatingMax = 4
	// JoinCodeLength is the length of generated session join codes.
	JoinCodeLength = 16
)

// Error variables for better error handling and testability
var (
	ErrUnknownPack   = errors.New("unknown question pack")
	ErrUnknownRoom   = errors.New("unknown room code")
	ErrRoomFull      = errors.New("room already has two participants")
	ErrInvalidRole   = errors.New("invalid role")
	ErrInvalidAxis   = errors.New("invalid rating axis")
	ErrInvalidRating = errors.New("rating value out of range")
	ErrNoSession     = errors.New("participant has no active session")
)

// Session is one two-party game in progress, loaded from the session store.
// Optional per-question fields are pointers: nil means the side has not set
// the value for the current question.
type Session struct {
	ID            string
	CreatorID     string
	VisitorID     *string
	Pack          string
	CreatedAt     int64
	QuestionIndex int

	CreatorImportance *int
	CreatorEvaluation *int
	VisitorImportance *int
	VisitorEvaluation *int

	CreatorReadyAt *int64
	VisitorReadyAt *int64
}

// RoleOf returns the role held by the given participant, if any.
func (s *Session) RoleOf(participantID string) (Role, bool) {
	if participantID == s.CreatorID {
		return RoleCreator, true
	}
	if s.VisitorID != nil && participantID == *s.VisitorID {
		return RoleVisitor, true
	}
	return "", false
}

// OccupantID returns the participant id holding the given role, if assigned.
func (s *Session) OccupantID(role Role) (string, bool) {
	switch role {
	case RoleCreator:
		return s.CreatorID, s.CreatorID != ""
	case RoleVisitor:
		if s.VisitorID == nil {
			return "", false
		}
		return *s.VisitorID, true
	}
	return "", false
}

// Pointer maps a participant to their current session and role.
type Pointer struct {
	SessionID string
	Role      Role
}

// RoundSnapshot is the full row for one completed question, written to the
// analytics sink before the session advances. Unset ratings and timestamps
// are recorded as zero, matching the columns' defaults.
type RoundSnapshot struct {
	SessionID     string
	CreatorID     string
	VisitorID     string
	Pack          string
	CreatedAt     int64
	QuestionIndex int

	CreatorImportance int
	CreatorEvaluation int
	VisitorImportance int
	VisitorEvaluation int

	CreatorReadyAt int64
	VisitorReadyAt int64
}

// Aggregate is the per-session report record returned by the analytics sink.
// The four optional fields are nil when no scored rows exist.
type Aggregate struct {
	CreatorTotal int
	VisitorTotal int

	SharePositiveCreator *float64
	SharePositiveVisitor *float64
	CreatorAvg           *float64
	VisitorAvg           *float64
}

// IsEmpty reports whether the aggregate carries no usable data: all four
// optional fields absent. Callers substitute a placeholder report instead
// of formatting an empty one.
func (a Aggregate) IsEmpty() bool {
	return a.SharePositiveCreator == nil &&
		a.SharePositiveVisitor == nil &&
		a.CreatorAvg == nil &&
		a.VisitorAvg == nil
}

// Total returns the total score given by the side holding role.
func (a Aggregate) Total(role Role) int {
	if role == RoleCreator {
		return a.CreatorTotal
	}
	return a.VisitorTotal
}

// SharePositive returns the share of positively scored answers for role.
func (a Aggregate) SharePositive(role Role) float64 {
	var v *float64
	if role == RoleCreator {
		v = a.SharePositiveCreator
	} else {
		v = a.SharePositiveVisitor
	}
	if v == nil {
		return 0
	}
	return *v
}

// Avg returns the average score given by the side holding role.
func (a Aggregate) Avg(role Role) float64 {
	var v *float64
	if role == RoleCreator {
		v = a.CreatorAvg
	} else {
		v = a.VisitorAvg
	}
	if v == nil {
		return 0
	}
	return *v
}

// ValidateRating checks a role/axis/value triple before it is written.
func ValidateRating(role Role, axis Axis, value int) error {
	if !role.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	if !axis.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidAxis, axis)
	}
	if value < RatingMin || value > RatingMax {
		return fmt.Errorf("%w: %d", ErrInvalidRating, value)
	}
	return nil
}
