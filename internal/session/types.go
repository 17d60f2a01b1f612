package session

import (
	"time"

	"github.com/google/uuid"
)

// Session lifecycle states.
const (
	StatusWaiting = "waiting"
	StatusActive  = "active"
	StatusPaused  = "paused"
	StatusEnded   = "ended"
)

// Session is a live multiplayer game over one quiz. Only the data contract
// lives in this service; the game-state machine does not.
type Session struct {
	ID        uuid.UUID
	QuizID    uuid.UUID
	HostID    uuid.UUID
	PIN       string
	Status    string
	CreatedAt time.Time
	StartedAt *time.Time
	EndedAt   *time.Time
}

// Participant is a player joined to a session.
type Participant struct {
	SessionID   uuid.UUID
	UserID      uuid.UUID
	DisplayName string
	Score       int
	JoinedAt    time.Time
}

// AnswerEvent records one submitted answer within a session.
type AnswerEvent struct {
	SessionID     uuid.UUID
	UserID        uuid.UUID
	QuestionID    uuid.UUID
	AnswerID      uuid.UUID
	QuestionOrder int
	ElapsedMs     int
	SubmittedAt   time.Time
}
