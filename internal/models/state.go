// Package models defines conversational phase values for Tandem participants.
package models

// ContextState is a participant's current conversational phase. The empty
// value means the participant has no stored context (idle / fresh).
type ContextState string

const (
	// ContextIdle is the absent state: a fresh or reset participant.
	ContextIdle ContextState = ""
	// ContextSelectPack: the participant chose "create" and must pick a pack.
	ContextSelectPack ContextState = "SELECT_PACK"
	// ContextInsertID: the participant chose "join" and must send a room code.
	ContextInsertID ContextState = "INSERT_ID"
	// ContextWaitingForPartner: a room was created, the second seat is empty.
	ContextWaitingForPartner ContextState = "WAITING_FOR_PARTNER"
	// ContextInRoom: a question has been delivered, ratings are pending.
	ContextInRoom ContextState = "IN_ROOM"
	// ContextWaitingForAnswer: both axes rated, waiting on the ready barrier.
	ContextWaitingForAnswer ContextState = "WAITING_FOR_ANSWER"
	// ContextWaitingForResults: pack exhausted, report being prepared.
	ContextWaitingForResults ContextState = "WAITING_FOR_RESULTS"
)
