// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_relay_google

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	speech "cloud.google.com/go/speech/apiv2"
	"cloud.google.com/go/speech/apiv2/speechpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	internal_type "github.com/rapidaai/speaking-coach/api/recorder-api/internal/type"
	"github.com/rapidaai/speaking-coach/pkg/commons"
	"github.com/rapidaai/speaking-coach/pkg/utils"
)

var errRelayClosed = errors.New("google speech relay closed")

// recognizeStream is the bidi stream returned by StreamingRecognize.
type recognizeStream interface {
	Send(*speechpb.StreamingRecognizeRequest) error
	Recv() (*speechpb.StreamingRecognizeResponse, error)
	CloseSend() error
}

type dialFunc func(ctx context.Context, opts *googleOption) (recognizeStream, io.Closer, error)

type googleRelay struct {
	*googleOption
	dial dialFunc

	mu       sync.Mutex
	stream   recognizeStream
	client   io.Closer
	cancel   context.CancelFunc
	listener internal_type.TranscriptListener
	closed   bool
}

// NewGoogleRelay streams audio to Cloud Speech v2 and reports final results.
func NewGoogleRelay(logger commons.Logger, credentials Credentials, language internal_type.Language) internal_type.TranscriptionRelay {
	return newGoogleRelay(NewGoogleOption(logger, credentials, language), dialSpeech)
}

func newGoogleRelay(opts *googleOption, dial dialFunc) *googleRelay {
	return &googleRelay{googleOption: opts, dial: dial}
}

func dialSpeech(ctx context.Context, opts *googleOption) (recognizeStream, io.Closer, error) {
	client, err := speech.NewClient(ctx, opts.GetSpeechToTextClientOptions()...)
	if err != nil {
		return nil, nil, err
	}
	stream, err := client.StreamingRecognize(ctx)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return stream, client, nil
}

func (r *googleRelay) Name() string { return "google" }

func (r *googleRelay) Open(ctx context.Context, listener internal_type.TranscriptListener) error {
	start := time.Now()
	// The stream outlives Open; it is cancelled by Close.
	streamCtx, cancel := context.WithCancel(context.Background())
	stop := context.AfterFunc(ctx, cancel)
	stream, client, err := r.dial(streamCtx, r.googleOption)
	stop()
	if err != nil {
		cancel()
		return fmt.Errorf("%w: google speech dial: %w", internal_type.ErrRelayStream, err)
	}

	err = stream.Send(&speechpb.StreamingRecognizeRequest{
		Recognizer: r.GetRecognizer(),
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: r.SpeechToTextOptions(),
		},
	})
	if err != nil {
		cancel()
		_ = client.Close()
		return fmt.Errorf("%w: sending recognition config: %w", internal_type.ErrRelayStream, err)
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		cancel()
		_ = client.Close()
		return errRelayClosed
	}
	r.stream, r.client, r.cancel, r.listener = stream, client, cancel, listener
	r.mu.Unlock()

	utils.Go(context.Background(), func() { r.receive(stream) })
	r.logger.Benchmark("googleRelay.Open", time.Since(start))
	return nil
}

func (r *googleRelay) SendAudio(pcm16 []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return errRelayClosed
	}
	if r.stream == nil {
		return fmt.Errorf("google speech stream is not open")
	}
	err := r.stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_Audio{Audio: pcm16},
	})
	if err != nil {
		return fmt.Errorf("%w: %w", internal_type.ErrRelayStream, err)
	}
	return nil
}

func (r *googleRelay) receive(stream recognizeStream) {
	for {
		resp, err := stream.Recv()
		if err != nil {
			if r.isShutdown(err) {
				return
			}
			r.listener.OnRelayError(fmt.Errorf("%w: %w", internal_type.ErrRelayStream, err))
			return
		}
		for _, result := range resp.GetResults() {
			if !result.GetIsFinal() || len(result.GetAlternatives()) == 0 {
				continue
			}
			text := result.GetAlternatives()[0].GetTranscript()
			if text == "" {
				continue
			}
			r.listener.OnTranscript(internal_type.TranscriptEvent{Text: text})
			r.listener.OnTranscript(internal_type.TranscriptEvent{TurnComplete: true})
		}
	}
}

// isShutdown reports errors that only mean the stream was ended on purpose.
func (r *googleRelay) isShutdown(err error) bool {
	if errors.Is(err, io.EOF) {
		return true
	}
	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return true
	}
	return status.Code(err) == codes.Canceled
}

func (r *googleRelay) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	if r.stream == nil {
		return nil
	}
	if err := r.stream.CloseSend(); err != nil {
		r.logger.Debugf("google speech close send: %v", err)
	}
	r.cancel()
	return r.client.Close()
}
