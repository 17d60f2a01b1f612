package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dialPair upgrades a server-side websocket and returns the wrapped server
// connection together with the client end.
func dialPair(t *testing.T) (*Connection, *websocket.Conn) {
	t.Helper()

	upgrader := websocket.Upgrader{}
	connCh := make(chan *Connection, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		wrapped := NewConnection(conn, zerolog.Nop())
		connCh <- wrapped
		wrapped.WritePump()
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	select {
	case conn := <-connCh:
		return conn, client
	case <-time.After(2 * time.Second):
		t.Fatal("server connection was not established")
		return nil, nil
	}
}

func TestSessionMembership(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	sessionID := uuid.New()
	alice := uuid.New()
	bob := uuid.New()

	hub.JoinSession(sessionID, alice)
	hub.JoinSession(sessionID, bob)
	hub.JoinSession(sessionID, alice) // idempotent

	assert.ElementsMatch(t, []uuid.UUID{alice, bob}, hub.Participants(sessionID))

	hub.LeaveSession(sessionID, alice)
	assert.ElementsMatch(t, []uuid.UUID{bob}, hub.Participants(sessionID))
}

func TestSendToUnknownUser(t *testing.T) {
	hub := NewHub(zerolog.Nop())

	err := hub.SendToUser(uuid.New(), Message{Type: "ping"})
	assert.ErrorIs(t, err, ErrConnectionNotFound)
}

func TestBroadcastReachesParticipants(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	sessionID := uuid.New()
	userID := uuid.New()

	serverConn, client := dialPair(t)
	hub.Register(userID, serverConn)
	hub.JoinSession(sessionID, userID)

	require.NoError(t, hub.BroadcastToSession(sessionID, Message{Type: "game_started"}))

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	var received Message
	require.NoError(t, client.ReadJSON(&received))
	assert.Equal(t, "game_started", received.Type)
}

func TestUnregisterDropsSessionMembership(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	sessionID := uuid.New()
	userID := uuid.New()

	serverConn, _ := dialPair(t)
	hub.Register(userID, serverConn)
	hub.JoinSession(sessionID, userID)

	hub.Unregister(userID)

	assert.Empty(t, hub.Participants(sessionID))
	err := hub.SendToUser(userID, Message{Type: "ping"})
	assert.ErrorIs(t, err, ErrConnectionNotFound)
}

func TestSendOnClosedConnection(t *testing.T) {
	serverConn, _ := dialPair(t)
	serverConn.Close()

	err := serverConn.Send(Message{Type: "ping"})
	assert.ErrorIs(t, err, ErrConnectionClosed)
}
