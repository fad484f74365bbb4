package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/voice-booking-agent/internal/calls"
	"github.com/wolfman30/voice-booking-agent/internal/conversation"
)

func dialStream(t *testing.T, server *httptest.Server, callID string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/calls/" + callID + "/stream"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) calls.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var evt calls.Event
	require.NoError(t, conn.ReadJSON(&evt))
	return evt
}

func TestStreamHandler_PushesEventsAndAcceptsVoiceEvents(t *testing.T) {
	env := newTestEnv(t)
	server := httptest.NewServer(env.router)
	defer server.Close()

	info := env.startCall(t, "voice")
	conn := dialStream(t, server, info.ID)

	require.NoError(t, conn.WriteJSON(calls.VoiceEvent{Type: calls.VoiceEventSpeechEnd}))
	evt := readEvent(t, conn)
	assert.Equal(t, calls.EventState, evt.Type)
	assert.Equal(t, conversation.StateListening, evt.State)

	require.NoError(t, conn.WriteJSON(calls.VoiceEvent{Role: "user", Transcript: "Kit Carter", Index: 1}))
	evt = readEvent(t, conn)
	assert.Equal(t, calls.EventTranscript, evt.Type)
	require.NotNil(t, evt.Line)
	assert.Equal(t, "Kit Carter", evt.Line.Text)

	// Redelivery over the socket is folded once.
	require.NoError(t, conn.WriteJSON(calls.VoiceEvent{Role: "user", Transcript: "Kit Carter", Index: 1}))
	require.Eventually(t, func() bool {
		lines, err := env.manager.Transcript(context.Background(), info.ID)
		return err == nil && len(lines) == 2
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, env.manager.EndCall(context.Background(), info.ID))
	evt = readEvent(t, conn)
	assert.Equal(t, calls.EventEnded, evt.Type)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "expected normal close, got %v", err)
}

func TestStreamHandler_UnknownCall(t *testing.T) {
	env := newTestEnv(t)
	server := httptest.NewServer(env.router)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/calls/missing/stream"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
