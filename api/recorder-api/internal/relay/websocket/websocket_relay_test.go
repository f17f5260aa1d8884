// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_relay_websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internal_type "github.com/rapidaai/speaking-coach/api/recorder-api/internal/type"
	"github.com/rapidaai/speaking-coach/pkg/commons"
)

type recordingListener struct {
	events chan internal_type.TranscriptEvent
	errs   chan error
}

func newRecordingListener() *recordingListener {
	return &recordingListener{
		events: make(chan internal_type.TranscriptEvent, 16),
		errs:   make(chan error, 4),
	}
}

func (l *recordingListener) OnTranscript(e internal_type.TranscriptEvent) { l.events <- e }
func (l *recordingListener) OnRelayError(err error) { l.errs <- err }

// newServer starts a transcription server; handler runs once per connection.
func newServer(t *testing.T, handler func(conn *websocket.Conn, r *http.Request)) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handler(conn, r)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func readRequest(t *testing.T, conn *websocket.Conn) map[string]json.RawMessage {
	t.Helper()
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var frame map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &frame))
	return frame
}

func TestWebsocketRelay_StreamsAudioAndTranscripts(t *testing.T) {
	received := make(chan []byte, 1)
	languages := make(chan string, 1)
	endpoint := newServer(t, func(conn *websocket.Conn, r *http.Request) {
		languages <- r.URL.Query().Get("language")

		cfg := readRequest(t, conn)
		assert.JSONEq(t, `"configuration"`, string(cfg["type"]))

		audio := readRequest(t, conn)
		assert.JSONEq(t, `"audio"`, string(audio["type"]))
		var data AudioData
		require.NoError(t, json.Unmarshal(audio["data"], &data))
		received <- data.Audio

		_ = conn.WriteJSON(map[string]interface{}{"type": "transcript", "data": map[string]string{"text": "hello"}})
		_ = conn.WriteJSON(map[string]interface{}{"type": "turn_complete"})
		_, _, _ = conn.ReadMessage()
	})

	relay := NewWebsocketRelay(commons.NewNopLogger(), endpoint, internal_type.LanguageTurkish)
	listener := newRecordingListener()
	require.NoError(t, relay.Open(context.Background(), listener))
	assert.Equal(t, "websocket", relay.Name())
	assert.Equal(t, "tr", <-languages)

	require.NoError(t, relay.SendAudio([]byte{1, 2, 3, 4}))
	assert.Equal(t, []byte{1, 2, 3, 4}, <-received)

	assert.Equal(t, internal_type.TranscriptEvent{Text: "hello"}, <-listener.events)
	assert.Equal(t, internal_type.TranscriptEvent{TurnComplete: true}, <-listener.events)

	require.NoError(t, relay.Close())
	assert.NoError(t, relay.Close(), "second close is a no-op")
	assert.Error(t, relay.SendAudio([]byte{0, 0}))

	select {
	case err := <-listener.errs:
		t.Fatalf("unexpected relay error after close: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestWebsocketRelay_ServerErrorFrame(t *testing.T) {
	endpoint := newServer(t, func(conn *websocket.Conn, _ *http.Request) {
		readRequest(t, conn)
		_ = conn.WriteJSON(map[string]interface{}{
			"type":  "error",
			"error": map[string]interface{}{"code": 429, "message": "quota"},
		})
		_, _, _ = conn.ReadMessage()
	})

	relay := NewWebsocketRelay(commons.NewNopLogger(), endpoint, internal_type.LanguageEnglish)
	listener := newRecordingListener()
	require.NoError(t, relay.Open(context.Background(), listener))
	defer relay.Close()

	select {
	case err := <-listener.errs:
		assert.ErrorIs(t, err, internal_type.ErrRelayStream)
		assert.Contains(t, err.Error(), "quota")
	case <-time.After(2 * time.Second):
		t.Fatal("no relay error delivered")
	}
}

func TestWebsocketRelay_AnswersPing(t *testing.T) {
	pong := make(chan string, 1)
	endpoint := newServer(t, func(conn *websocket.Conn, _ *http.Request) {
		readRequest(t, conn)
		_ = conn.WriteJSON(map[string]interface{}{"type": "ping"})
		frame := readRequest(t, conn)
		pong <- string(frame["type"])
		_, _, _ = conn.ReadMessage()
	})

	relay := NewWebsocketRelay(commons.NewNopLogger(), endpoint, internal_type.LanguageEnglish)
	require.NoError(t, relay.Open(context.Background(), newRecordingListener()))
	defer relay.Close()

	select {
	case typ := <-pong:
		assert.JSONEq(t, `"pong"`, typ)
	case <-time.After(2 * time.Second):
		t.Fatal("ping was not answered")
	}
}

func TestWebsocketRelay_DroppedConnectionReportsError(t *testing.T) {
	endpoint := newServer(t, func(conn *websocket.Conn, _ *http.Request) {
		readRequest(t, conn)
		// returning closes the socket without a close frame
	})

	relay := NewWebsocketRelay(commons.NewNopLogger(), endpoint, internal_type.LanguageEnglish)
	listener := newRecordingListener()
	require.NoError(t, relay.Open(context.Background(), listener))
	defer relay.Close()

	select {
	case err := <-listener.errs:
		assert.ErrorIs(t, err, internal_type.ErrRelayStream)
	case <-time.After(2 * time.Second):
		t.Fatal("dropped connection went unnoticed")
	}
}

func TestWebsocketRelay_OpenFailure(t *testing.T) {
	relay := NewWebsocketRelay(commons.NewNopLogger(), "ws://127.0.0.1:1/none", internal_type.LanguageEnglish)
	err := relay.Open(context.Background(), newRecordingListener())
	assert.ErrorIs(t, err, internal_type.ErrRelayStream)
	assert.NoError(t, relay.Close())
}

func TestWebsocketRelay_CloseBeforeOpen(t *testing.T) {
	endpoint := newServer(t, func(conn *websocket.Conn, _ *http.Request) {
		_, _, _ = conn.ReadMessage()
	})
	relay := NewWebsocketRelay(commons.NewNopLogger(), endpoint, internal_type.LanguageEnglish,
		WithHeader("Authorization", "Bearer token"))
	require.NoError(t, relay.Close())
	assert.Error(t, relay.Open(context.Background(), newRecordingListener()))
}
