package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dropmind/backend/internal/domain"
	"github.com/gorilla/websocket"
)

// newServerConn dials a throwaway echo server and returns the server side
// of the socket, so manager tests run against real connections.
func newServerConn(t *testing.T) *websocket.Conn {
	t.Helper()

	connCh := make(chan *websocket.Conn, 1)
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		connCh <- conn
	}))
	t.Cleanup(srv.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { client.Close() })

	return <-connCh
}

func TestRemoveConnectionIfMatchingIgnoresReplacedConn(t *testing.T) {
	cm := NewConnectionManager()
	conn1 := newServerConn(t)
	conn2 := newServerConn(t)

	cm.AddConnection("client-1", conn1)
	cm.AddConnection("client-1", conn2) // replaces and closes conn1

	if cm.RemoveConnectionIfMatching("client-1", conn1) {
		t.Fatal("replaced connection reported as still active")
	}
	if err := cm.SendMessage("client-1", domain.ServerMessage{Type: "game_state"}); err != nil {
		t.Fatalf("replacement connection no longer usable: %v", err)
	}

	if !cm.RemoveConnectionIfMatching("client-1", conn2) {
		t.Fatal("active connection not recognized as the client's own")
	}
	if cm.RemoveConnectionIfMatching("client-1", conn2) {
		t.Fatal("removal reported twice for the same connection")
	}
}
