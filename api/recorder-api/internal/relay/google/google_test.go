// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_relay_google

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/speech/apiv2/speechpb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	internal_type "github.com/rapidaai/speaking-coach/api/recorder-api/internal/type"
	"github.com/rapidaai/speaking-coach/pkg/commons"
)

// --- option tests ---

func TestNewGoogleOption_AllCredentials(t *testing.T) {
	opt := NewGoogleOption(commons.NewNopLogger(), Credentials{
		ProjectID:       "test-project",
		APIKey:          "test-api-key",
		CredentialsJSON: `{"type":"service_account"}`,
	}, internal_type.LanguageEnglish)
	assert.Equal(t, "test-project", opt.projectID)
	assert.Len(t, opt.clientOptions, 3)
	assert.Equal(t, DefaultModel, opt.model)
	assert.Equal(t, DefaultRegion, opt.region)
}

func TestNewGoogleOption_Empty(t *testing.T) {
	opt := NewGoogleOption(commons.NewNopLogger(), Credentials{}, internal_type.LanguageEnglish)
	assert.Empty(t, opt.clientOptions)
}

func TestSpeechToTextOptions(t *testing.T) {
	opt := NewGoogleOption(commons.NewNopLogger(), Credentials{Model: "chirp_2"}, internal_type.LanguageTurkish)
	cfg := opt.SpeechToTextOptions()

	decoding := cfg.GetConfig().GetExplicitDecodingConfig()
	require.NotNil(t, decoding)
	assert.Equal(t, speechpb.ExplicitDecodingConfig_LINEAR16, decoding.GetEncoding())
	assert.Equal(t, int32(16000), decoding.GetSampleRateHertz())
	assert.Equal(t, int32(1), decoding.GetAudioChannelCount())
	assert.Equal(t, []string{"tr-TR"}, cfg.GetConfig().GetLanguageCodes())
	assert.Equal(t, "chirp_2", cfg.GetConfig().GetModel())
	assert.True(t, cfg.GetStreamingFeatures().GetInterimResults())
}

func TestGetRecognizer(t *testing.T) {
	global := NewGoogleOption(commons.NewNopLogger(), Credentials{ProjectID: "p"}, internal_type.LanguageEnglish)
	assert.Equal(t, "projects/p/locations/global/recognizers/_", global.GetRecognizer())
	assert.Empty(t, global.GetSpeechToTextClientOptions())

	regional := NewGoogleOption(commons.NewNopLogger(), Credentials{ProjectID: "p", Region: "europe-west4"}, internal_type.LanguageEnglish)
	assert.Equal(t, "projects/p/locations/europe-west4/recognizers/_", regional.GetRecognizer())
	assert.Len(t, regional.GetSpeechToTextClientOptions(), 1)
}

// --- relay tests ---

type fakeStream struct {
	mu        sync.Mutex
	sent      []*speechpb.StreamingRecognizeRequest
	responses chan *speechpb.StreamingRecognizeResponse
	errs      chan error
	ctx       context.Context
	closeSent bool
}

func (s *fakeStream) Send(req *speechpb.StreamingRecognizeRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, req)
	return nil
}

func (s *fakeStream) Recv() (*speechpb.StreamingRecognizeResponse, error) {
	select {
	case resp := <-s.responses:
		return resp, nil
	case err := <-s.errs:
		return nil, err
	case <-s.ctx.Done():
		return nil, status.Error(codes.Canceled, "context canceled")
	}
}

func (s *fakeStream) CloseSend() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeSent = true
	return nil
}

func (s *fakeStream) requests() []*speechpb.StreamingRecognizeRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*speechpb.StreamingRecognizeRequest(nil), s.sent...)
}

type fakeClient struct{ closes int }

func (c *fakeClient) Close() error {
	c.closes++
	return nil
}

type recordingListener struct {
	events chan internal_type.TranscriptEvent
	errs   chan error
}

func newRecordingListener() *recordingListener {
	return &recordingListener{
		events: make(chan internal_type.TranscriptEvent, 8),
		errs:   make(chan error, 2),
	}
}

func (l *recordingListener) OnTranscript(e internal_type.TranscriptEvent) { l.events <- e }
func (l *recordingListener) OnRelayError(err error) { l.errs <- err }

func openRelay(t *testing.T) (*googleRelay, *fakeStream, *fakeClient, *recordingListener) {
	t.Helper()
	stream := &fakeStream{
		responses: make(chan *speechpb.StreamingRecognizeResponse, 4),
		errs:      make(chan error, 1),
	}
	client := &fakeClient{}
	relay := newGoogleRelay(
		NewGoogleOption(commons.NewNopLogger(), Credentials{ProjectID: "p"}, internal_type.LanguageEnglish),
		func(ctx context.Context, _ *googleOption) (recognizeStream, io.Closer, error) {
			stream.ctx = ctx
			return stream, client, nil
		},
	)
	listener := newRecordingListener()
	require.NoError(t, relay.Open(context.Background(), listener))
	return relay, stream, client, listener
}

func TestGoogleRelay_SendsConfigThenAudio(t *testing.T) {
	relay, stream, client, _ := openRelay(t)
	assert.Equal(t, "google", relay.Name())

	require.NoError(t, relay.SendAudio([]byte{9, 9}))
	requests := stream.requests()
	require.Len(t, requests, 2)
	assert.Equal(t, "projects/p/locations/global/recognizers/_", requests[0].GetRecognizer())
	assert.NotNil(t, requests[0].GetStreamingConfig())
	assert.Equal(t, []byte{9, 9}, requests[1].GetAudio())

	require.NoError(t, relay.Close())
	require.NoError(t, relay.Close())
	assert.True(t, stream.closeSent)
	assert.Equal(t, 1, client.closes)
	assert.ErrorIs(t, relay.SendAudio([]byte{1}), errRelayClosed)
}

func TestGoogleRelay_OnlyFinalResultsReachTheTranscript(t *testing.T) {
	relay, stream, _, listener := openRelay(t)
	defer relay.Close()

	stream.responses <- &speechpb.StreamingRecognizeResponse{Results: []*speechpb.StreamingRecognitionResult{
		{Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: "hel"}}},
	}}
	stream.responses <- &speechpb.StreamingRecognizeResponse{Results: []*speechpb.StreamingRecognitionResult{
		{IsFinal: true, Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: "hello there"}}},
	}}

	assert.Equal(t, internal_type.TranscriptEvent{Text: "hello there"}, <-listener.events)
	assert.Equal(t, internal_type.TranscriptEvent{TurnComplete: true}, <-listener.events)
}

func TestGoogleRelay_StreamFailureReported(t *testing.T) {
	relay, stream, _, listener := openRelay(t)
	defer relay.Close()

	stream.errs <- status.Error(codes.ResourceExhausted, "quota")
	select {
	case err := <-listener.errs:
		assert.ErrorIs(t, err, internal_type.ErrRelayStream)
	case <-time.After(2 * time.Second):
		t.Fatal("stream failure not reported")
	}
}

func TestGoogleRelay_CloseDoesNotReportCancellation(t *testing.T) {
	relay, _, _, listener := openRelay(t)
	require.NoError(t, relay.Close())

	select {
	case err := <-listener.errs:
		t.Fatalf("cancellation reported as error: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestGoogleRelay_DialFailure(t *testing.T) {
	relay := newGoogleRelay(
		NewGoogleOption(commons.NewNopLogger(), Credentials{}, internal_type.LanguageEnglish),
		func(context.Context, *googleOption) (recognizeStream, io.Closer, error) {
			return nil, nil, errors.New("permission denied")
		},
	)
	assert.ErrorIs(t, relay.Open(context.Background(), newRecordingListener()), internal_type.ErrRelayStream)
	assert.NoError(t, relay.Close())
}
