package ws

import "encoding/json"

// MessageType constants for the game-session channel. These are the data
// contracts of the live session protocol; session rules are not interpreted
// server-side.
const (
	// Client -> Server
	TypeJoinSession  = "join_session"
	TypeLeaveSession = "leave_session"
	TypeStartGame    = "start_game"
	TypePauseGame    = "pause_game"
	TypeSubmitAnswer = "submit_answer"
	TypeEndGame      = "end_game"

	// Server -> Client
	TypePlayerJoined    = "player_joined"
	TypePlayerLeft      = "player_left"
	TypeGameStarted     = "game_started"
	TypeGamePaused      = "game_paused"
	TypeAnswerSubmitted = "answer_submitted"
	TypeGameEnded       = "game_ended"
	TypeError           = "error"
	TypePing            = "ping"
	TypePong            = "pong"
)

// Message wraps all WebSocket payloads with type and optional request ID.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	RequestID string          `json:"request_id,omitempty"`
}

// Client messages (incoming)

type JoinSessionPayload struct {
	SessionID   string `json:"session_id"`
	DisplayName string `json:"display_name"`
}

type LeaveSessionPayload struct {
	SessionID string `json:"session_id"`
	Reason    string `json:"reason,omitempty"`
}

type StartGamePayload struct {
	SessionID string `json:"session_id"`
}

type PauseGamePayload struct {
	SessionID string `json:"session_id"`
	Paused    bool   `json:"paused"`
}

type SubmitAnswerPayload struct {
	SessionID     string `json:"session_id"`
	QuestionID    string `json:"question_id"`
	AnswerID      string `json:"answer_id"`
	QuestionOrder int    `json:"question_order"`
	ElapsedMs     int    `json:"elapsed_ms"`
}

type EndGamePayload struct {
	SessionID string `json:"session_id"`
}

// Server messages (outgoing)

type PlayerJoinedPayload struct {
	SessionID   string `json:"session_id"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	PlayerCount int    `json:"player_count"`
}

type PlayerLeftPayload struct {
	SessionID   string `json:"session_id"`
	UserID      string `json:"user_id"`
	PlayerCount int    `json:"player_count"`
}

type GameStartedPayload struct {
	SessionID string `json:"session_id"`
	StartedAt string `json:"started_at"`
}

type GamePausedPayload struct {
	SessionID string `json:"session_id"`
	Paused    bool   `json:"paused"`
}

type AnswerSubmittedPayload struct {
	SessionID     string `json:"session_id"`
	UserID        string `json:"user_id"`
	QuestionID    string `json:"question_id"`
	QuestionOrder int    `json:"question_order"`
}

type GameEndedPayload struct {
	SessionID string `json:"session_id"`
	EndedAt   string `json:"ended_at"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
