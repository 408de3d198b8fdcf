package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"feeds/internal/notifications"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listen serves env.app on a loopback port and returns its address.
func (e *testEnv) listen(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = e.app.Listener(ln) }()
	t.Cleanup(func() { _ = e.app.Shutdown() })
	return ln.Addr().String()
}

func dialWS(t *testing.T, addr, token string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	header := http.Header{}
	if token != "" {
		header.Set("Cookie", SessionCookieName+"="+token)
	}
	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	return dialer.Dial("ws://"+addr+"/api/ws", header)
}

func TestWebsocket_RequiresSession(t *testing.T) {
	env := newTestEnv(t)
	addr := env.listen(t)

	conn, resp, err := dialWS(t, addr, "")
	if conn != nil {
		_ = conn.Close()
	}
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWebsocket_DeliversFriendRequestEvent(t *testing.T) {
	env := newTestEnv(t)
	alice, aliceID := env.signup(t, "alice")
	bob, _ := env.signup(t, "bob")

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, env.srv.hub.StartWiring(ctx, env.srv.notifier))

	addr := env.listen(t)
	conn, _, err := dialWS(t, addr, alice)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool {
		return env.srv.hub.ConnectionCount(aliceID) == 1
	}, 2*time.Second, 10*time.Millisecond)

	resp := env.do(t, http.MethodPost, fmt.Sprintf("/api/friends/requests/%d", aliceID), bob, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var event notifications.Event
	require.NoError(t, json.Unmarshal(msg, &event))
	assert.Equal(t, notifications.EventFriendRequestReceived, event.Type)

	// Closing the socket unregisters it from the hub.
	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool {
		return env.srv.hub.ConnectionCount(aliceID) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWebsocket_BroadcastReachesOnlyTarget(t *testing.T) {
	env := newTestEnv(t)
	alice, aliceID := env.signup(t, "alice")
	bob, bobID := env.signup(t, "bob")
	addr := env.listen(t)

	aliceConn, _, err := dialWS(t, addr, alice)
	require.NoError(t, err)
	t.Cleanup(func() { _ = aliceConn.Close() })
	bobConn, _, err := dialWS(t, addr, bob)
	require.NoError(t, err)
	t.Cleanup(func() { _ = bobConn.Close() })

	require.Eventually(t, func() bool {
		return env.srv.hub.ConnectionCount(aliceID) == 1 && env.srv.hub.ConnectionCount(bobID) == 1
	}, 2*time.Second, 10*time.Millisecond)

	env.srv.hub.Broadcast(bobID, `{"type":"ping"}`)

	require.NoError(t, bobConn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := bobConn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"ping"}`, string(msg))

	require.NoError(t, aliceConn.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err = aliceConn.ReadMessage()
	assert.Error(t, err)
}
