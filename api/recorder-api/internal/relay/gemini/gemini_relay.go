// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_relay_gemini

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"google.golang.org/genai"

	internal_type "github.com/rapidaai/speaking-coach/api/recorder-api/internal/type"
	"github.com/rapidaai/speaking-coach/pkg/commons"
	"github.com/rapidaai/speaking-coach/pkg/utils"
)

const (
	DefaultModel = "gemini-2.5-flash-native-audio-preview-09-2025"
	audioMIME    = "audio/pcm;rate=16000"
)

var errRelayClosed = errors.New("gemini relay closed")

// liveSession is the part of *genai.Session the relay drives.
type liveSession interface {
	SendRealtimeInput(input genai.LiveRealtimeInput) error
	Receive() (*genai.LiveServerMessage, error)
	Close() error
}

type connectFunc func(ctx context.Context, model string, config *genai.LiveConnectConfig) (liveSession, error)

type geminiRelay struct {
	logger   commons.Logger
	connect  connectFunc
	model    string
	language internal_type.Language

	mu       sync.Mutex
	session  liveSession
	listener internal_type.TranscriptListener
	closed   bool
}

// NewGeminiRelay streams audio into a Gemini Live session with input audio
// transcription switched on and reports the transcription back.
func NewGeminiRelay(logger commons.Logger, client *genai.Client, model string, language internal_type.Language) internal_type.TranscriptionRelay {
	return newGeminiRelay(logger, func(ctx context.Context, model string, config *genai.LiveConnectConfig) (liveSession, error) {
		return client.Live.Connect(ctx, model, config)
	}, model, language)
}

func newGeminiRelay(logger commons.Logger, connect connectFunc, model string, language internal_type.Language) *geminiRelay {
	if model == "" {
		model = DefaultModel
	}
	return &geminiRelay{
		logger:   logger,
		connect:  connect,
		model:    model,
		language: language,
	}
}

func (r *geminiRelay) Name() string { return "gemini" }

// LiveConfig is the connect configuration used for every session.
func LiveConfig(language internal_type.Language) *genai.LiveConnectConfig {
	return &genai.LiveConnectConfig{
		ResponseModalities:      []genai.Modality{genai.ModalityAudio},
		InputAudioTranscription: &genai.AudioTranscriptionConfig{},
		SpeechConfig:            &genai.SpeechConfig{LanguageCode: languageCode(language)},
	}
}

func languageCode(language internal_type.Language) string {
	if language == internal_type.LanguageTurkish {
		return "tr-TR"
	}
	return "en-US"
}

func (r *geminiRelay) Open(ctx context.Context, listener internal_type.TranscriptListener) error {
	start := time.Now()
	session, err := r.connect(ctx, r.model, LiveConfig(r.language))
	if err != nil {
		return fmt.Errorf("%w: gemini live connect: %w", internal_type.ErrRelayStream, err)
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		_ = session.Close()
		return errRelayClosed
	}
	r.session = session
	r.listener = listener
	r.mu.Unlock()

	utils.Go(context.Background(), func() { r.receive(session) })
	r.logger.Benchmark("geminiRelay.Open", time.Since(start))
	return nil
}

func (r *geminiRelay) SendAudio(pcm16 []byte) error {
	r.mu.Lock()
	session, closed := r.session, r.closed
	r.mu.Unlock()
	if closed {
		return errRelayClosed
	}
	if session == nil {
		return fmt.Errorf("gemini live session is not open")
	}
	err := session.SendRealtimeInput(genai.LiveRealtimeInput{
		Audio: &genai.Blob{Data: pcm16, MIMEType: audioMIME},
	})
	if err != nil {
		return fmt.Errorf("%w: %w", internal_type.ErrRelayStream, err)
	}
	return nil
}

func (r *geminiRelay) receive(session liveSession) {
	for {
		msg, err := session.Receive()
		if err != nil {
			if r.isClosed() {
				return
			}
			r.listener.OnRelayError(fmt.Errorf("%w: %w", internal_type.ErrRelayStream, err))
			return
		}
		if msg == nil || msg.ServerContent == nil {
			continue
		}
		content := msg.ServerContent
		if content.InputTranscription != nil && content.InputTranscription.Text != "" {
			r.listener.OnTranscript(internal_type.TranscriptEvent{Text: content.InputTranscription.Text})
		}
		if content.TurnComplete {
			r.listener.OnTranscript(internal_type.TranscriptEvent{TurnComplete: true})
		}
	}
}

func (r *geminiRelay) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func (r *geminiRelay) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	session := r.session
	r.mu.Unlock()

	if session == nil {
		return nil
	}
	return session.Close()
}
