// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_relay_websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	internal_type "github.com/rapidaai/speaking-coach/api/recorder-api/internal/type"
	"github.com/rapidaai/speaking-coach/pkg/commons"
	"github.com/rapidaai/speaking-coach/pkg/utils"
)

// MessageType tags every frame of the relay protocol.
type MessageType string

const (
	// client -> server
	TypeConfiguration MessageType = "configuration"
	TypeAudio         MessageType = "audio"

	// server -> client
	TypeTranscript   MessageType = "transcript"
	TypeTurnComplete MessageType = "turn_complete"
	TypeError        MessageType = "error"

	// both directions
	TypePing MessageType = "ping"
	TypePong MessageType = "pong"
)

// Request is an outgoing frame.
type Request struct {
	Type      MessageType `json:"type"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// Response is an incoming frame; Data is decoded according to Type.
type Response struct {
	Type  MessageType     `json:"type"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *ErrorData      `json:"error,omitempty"`
}

type ConfigurationData struct {
	Language   string `json:"language"`
	SampleRate int    `json:"sample_rate"`
	Encoding   string `json:"encoding"`
	Channels   int    `json:"channels"`
}

// AudioData carries one PCM16 block; encoding/json writes []byte as base64.
type AudioData struct {
	Audio []byte `json:"audio"`
}

type TranscriptData struct {
	Text string `json:"text"`
}

type ErrorData struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

const (
	handshakeTimeout = 30 * time.Second
	writeTimeout     = 5 * time.Second
	maxMessageSize   = 1 << 20
)

var errRelayClosed = errors.New("websocket relay closed")

type websocketRelay struct {
	logger   commons.Logger
	endpoint string
	header   http.Header
	language internal_type.Language

	writeMu    sync.Mutex
	connection *websocket.Conn
	listener   internal_type.TranscriptListener

	done      chan struct{}
	closeOnce sync.Once
}

// Option customises the relay.
type Option func(*websocketRelay)

// WithHeader adds a header to the upgrade request, e.g. an authorization token.
func WithHeader(key, value string) Option {
	return func(r *websocketRelay) { r.header.Set(key, value) }
}

// NewWebsocketRelay builds a relay that speaks the JSON frame protocol with the
// transcription server at endpoint.
func NewWebsocketRelay(logger commons.Logger, endpoint string, language internal_type.Language, opts ...Option) internal_type.TranscriptionRelay {
	r := &websocketRelay{
		logger:   logger,
		endpoint: endpoint,
		header:   http.Header{},
		language: language,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *websocketRelay) Name() string { return "websocket" }

func (r *websocketRelay) Open(ctx context.Context, listener internal_type.TranscriptListener) error {
	start := time.Now()
	wsURL, err := url.Parse(r.endpoint)
	if err != nil {
		return fmt.Errorf("%w: failed to parse websocket url: %w", internal_type.ErrRelayStream, err)
	}
	query := wsURL.Query()
	query.Set("language", string(r.language))
	wsURL.RawQuery = query.Encode()

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, wsURL.String(), r.header)
	if err != nil {
		return fmt.Errorf("%w: failed to connect to websocket: %w", internal_type.ErrRelayStream, err)
	}
	conn.SetReadLimit(maxMessageSize)
	conn.SetPongHandler(func(string) error {
		r.logger.Debugf("received pong from transcription server")
		return nil
	})

	r.writeMu.Lock()
	select {
	case <-r.done:
		r.writeMu.Unlock()
		_ = conn.Close()
		return errRelayClosed
	default:
	}
	r.connection = conn
	r.listener = listener
	r.writeMu.Unlock()

	if err := r.send(Request{
		Type: TypeConfiguration,
		Data: ConfigurationData{
			Language:   string(r.language),
			SampleRate: 16000,
			Encoding:   "linear16",
			Channels:   1,
		},
	}); err != nil {
		_ = r.Close()
		return fmt.Errorf("%w: failed to send configuration: %w", internal_type.ErrRelayStream, err)
	}

	utils.Go(context.Background(), func() { r.responseListener(conn) })
	r.logger.Benchmark("websocketRelay.Open", time.Since(start))
	return nil
}

func (r *websocketRelay) SendAudio(pcm16 []byte) error {
	return r.send(Request{Type: TypeAudio, Data: AudioData{Audio: pcm16}})
}

func (r *websocketRelay) send(msg Request) error {
	msg.Timestamp = time.Now().UnixMilli()
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	select {
	case <-r.done:
		return errRelayClosed
	default:
	}
	if r.connection == nil {
		return fmt.Errorf("websocket connection is nil")
	}
	_ = r.connection.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := r.connection.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("%w: failed to write message: %w", internal_type.ErrRelayStream, err)
	}
	return nil
}

func (r *websocketRelay) responseListener(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-r.done:
				return
			default:
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				r.logger.Debugf("transcription server closed the stream")
				return
			}
			r.listener.OnRelayError(fmt.Errorf("%w: %w", internal_type.ErrRelayStream, err))
			return
		}

		var resp Response
		if err := json.Unmarshal(data, &resp); err != nil {
			r.logger.Warnf("ignoring malformed relay frame: %v", err)
			continue
		}
		r.handle(resp)
	}
}

func (r *websocketRelay) handle(resp Response) {
	switch resp.Type {
	case TypeTranscript:
		var transcript TranscriptData
		if err := json.Unmarshal(resp.Data, &transcript); err != nil {
			r.logger.Warnf("ignoring transcript frame: %v", err)
			return
		}
		if transcript.Text != "" {
			r.listener.OnTranscript(internal_type.TranscriptEvent{Text: transcript.Text})
		}
	case TypeTurnComplete:
		r.listener.OnTranscript(internal_type.TranscriptEvent{TurnComplete: true})
	case TypeError:
		msg := "unknown error"
		if resp.Error != nil {
			msg = fmt.Sprintf("code %d: %s", resp.Error.Code, resp.Error.Message)
		}
		r.listener.OnRelayError(fmt.Errorf("%w: %s", internal_type.ErrRelayStream, msg))
	case TypePing:
		if err := r.send(Request{Type: TypePong}); err != nil {
			r.logger.Debugf("failed to answer ping: %v", err)
		}
	case TypePong:
	default:
		r.logger.Debugf("unhandled relay frame type %q", resp.Type)
	}
}

func (r *websocketRelay) Close() error {
	var err error
	r.closeOnce.Do(func() {
		r.writeMu.Lock()
		defer r.writeMu.Unlock()
		close(r.done)
		if r.connection == nil {
			return
		}
		_ = r.connection.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeTimeout),
		)
		err = r.connection.Close()
	})
	return err
}
