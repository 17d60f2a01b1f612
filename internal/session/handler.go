package session

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/quizforge/quizforge/internal/auth/jwt"
	httperrors "github.com/quizforge/quizforge/pkg/http/errors"
	ws "github.com/quizforge/quizforge/pkg/http/ws"
)

// Upgrader handles WebSocket upgrades for the session channel.
var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict origins once the client domains are settled
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Handler relays session events between participants. It validates event
// shapes and routes them through the hub; it does not run game rules, which
// live with the clients.
type Handler struct {
	hub      *ws.Hub
	verifier *jwt.Verifier
	logger   zerolog.Logger
}

// NewHandler creates a session channel handler.
func NewHandler(hub *ws.Hub, verifier *jwt.Verifier, logger zerolog.Logger) *Handler {
	return &Handler{
		hub:      hub,
		verifier: verifier,
		logger:   logger,
	}
}

// HandleWebSocket upgrades the connection and authenticates the participant.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Missing token")
		return
	}

	claims, err := h.verifier.Validate(token)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket token validation failed")
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Invalid token")
		return
	}

	conn, err := Upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	h.handleConnection(conn, claims.UserID, claims.DisplayName)
}

func (h *Handler) handleConnection(conn *websocket.Conn, userID uuid.UUID, displayName string) {
	wsConn := ws.NewConnection(conn, h.logger)
	h.hub.Register(userID, wsConn)

	go wsConn.WritePump()

	wsConn.ReadPump(func(msg ws.Message) error {
		return h.handleMessage(userID, displayName, msg)
	})

	h.hub.Unregister(userID)
}

func (h *Handler) handleMessage(userID uuid.UUID, displayName string, msg ws.Message) error {
	switch msg.Type {
	case ws.TypeJoinSession:
		return h.handleJoin(userID, displayName, msg.Payload)
	case ws.TypeLeaveSession:
		return h.handleLeave(userID, msg.Payload)
	case ws.TypeStartGame:
		return h.relay(userID, msg.Payload, ws.TypeGameStarted, func(sessionID uuid.UUID) any {
			return ws.GameStartedPayload{SessionID: sessionID.String(), StartedAt: time.Now().UTC().Format(time.RFC3339)}
		})
	case ws.TypePauseGame:
		var req ws.PauseGamePayload
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return h.sendError(userID, httperrors.ErrCodeInvalidPayload, "Invalid pause_game payload")
		}
		return h.relay(userID, msg.Payload, ws.TypeGamePaused, func(sessionID uuid.UUID) any {
			return ws.GamePausedPayload{SessionID: sessionID.String(), Paused: req.Paused}
		})
	case ws.TypeSubmitAnswer:
		return h.handleSubmitAnswer(userID, msg.Payload)
	case ws.TypeEndGame:
		return h.relay(userID, msg.Payload, ws.TypeGameEnded, func(sessionID uuid.UUID) any {
			return ws.GameEndedPayload{SessionID: sessionID.String(), EndedAt: time.Now().UTC().Format(time.RFC3339)}
		})
	case ws.TypePing:
		return h.send(userID, ws.TypePong, nil)
	default:
		return h.sendError(userID, httperrors.ErrCodeUnknownEvent, fmt.Sprintf("Unknown event type: %s", msg.Type))
	}
}

func (h *Handler) handleJoin(userID uuid.UUID, displayName string, payload json.RawMessage) error {
	var req ws.JoinSessionPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(userID, httperrors.ErrCodeInvalidPayload, "Invalid join_session payload")
	}
	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		return h.sendError(userID, httperrors.ErrCodeInvalidPayload, "Invalid session id")
	}
	if req.DisplayName != "" {
		displayName = req.DisplayName
	}

	h.hub.JoinSession(sessionID, userID)

	p := Participant{SessionID: sessionID, UserID: userID, DisplayName: displayName, JoinedAt: time.Now().UTC()}
	h.logger.Info().
		Str("session_id", p.SessionID.String()).
		Str("user_id", p.UserID.String()).
		Str("display_name", p.DisplayName).
		Msg("participant joined")

	return h.broadcast(sessionID, ws.TypePlayerJoined, ws.PlayerJoinedPayload{
		SessionID:   sessionID.String(),
		UserID:      userID.String(),
		DisplayName: displayName,
		PlayerCount: len(h.hub.Participants(sessionID)),
	})
}

func (h *Handler) handleLeave(userID uuid.UUID, payload json.RawMessage) error {
	var req ws.LeaveSessionPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(userID, httperrors.ErrCodeInvalidPayload, "Invalid leave_session payload")
	}
	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		return h.sendError(userID, httperrors.ErrCodeInvalidPayload, "Invalid session id")
	}

	h.hub.LeaveSession(sessionID, userID)
	return h.broadcast(sessionID, ws.TypePlayerLeft, ws.PlayerLeftPayload{
		SessionID:   sessionID.String(),
		UserID:      userID.String(),
		PlayerCount: len(h.hub.Participants(sessionID)),
	})
}

func (h *Handler) handleSubmitAnswer(userID uuid.UUID, payload json.RawMessage) error {
	var req ws.SubmitAnswerPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(userID, httperrors.ErrCodeInvalidPayload, "Invalid submit_answer payload")
	}
	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		return h.sendError(userID, httperrors.ErrCodeInvalidPayload, "Invalid session id")
	}

	event := AnswerEvent{
		SessionID:     sessionID,
		UserID:        userID,
		QuestionOrder: req.QuestionOrder,
		ElapsedMs:     req.ElapsedMs,
		SubmittedAt:   time.Now().UTC(),
	}
	if questionID, err := uuid.Parse(req.QuestionID); err == nil {
		event.QuestionID = questionID
	}
	if answerID, err := uuid.Parse(req.AnswerID); err == nil {
		event.AnswerID = answerID
	}
	h.logger.Debug().
		Str("session_id", event.SessionID.String()).
		Str("user_id", event.UserID.String()).
		Int("question_order", event.QuestionOrder).
		Int("elapsed_ms", event.ElapsedMs).
		Msg("answer submitted")

	return h.broadcast(sessionID, ws.TypeAnswerSubmitted, ws.AnswerSubmittedPayload{
		SessionID:     sessionID.String(),
		UserID:        userID.String(),
		QuestionID:    req.QuestionID,
		QuestionOrder: req.QuestionOrder,
	})
}

// relay parses the common session_id envelope and broadcasts the mapped
// server event to the room.
func (h *Handler) relay(userID uuid.UUID, payload json.RawMessage, outType string, build func(sessionID uuid.UUID) any) error {
	var env struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(payload, &env); err != nil {
		return h.sendError(userID, httperrors.ErrCodeInvalidPayload, "Invalid payload")
	}
	sessionID, err := uuid.Parse(env.SessionID)
	if err != nil {
		return h.sendError(userID, httperrors.ErrCodeInvalidPayload, "Invalid session id")
	}
	return h.broadcast(sessionID, outType, build(sessionID))
}

func (h *Handler) broadcast(sessionID uuid.UUID, msgType string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return h.hub.BroadcastToSession(sessionID, ws.Message{Type: msgType, Payload: raw})
}

func (h *Handler) send(userID uuid.UUID, msgType string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return h.hub.SendToUser(userID, ws.Message{Type: msgType, Payload: raw})
}

func (h *Handler) sendError(userID uuid.UUID, code, message string) error {
	return h.send(userID, ws.TypeError, ws.ErrorPayload{Code: code, Message: message})
}
