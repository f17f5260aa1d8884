// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_audio_encoder

import (
	"fmt"
	"sync"
	"time"

	internal_audio "github.com/rapidaai/speaking-coach/api/recorder-api/internal/audio"
	internal_type "github.com/rapidaai/speaking-coach/api/recorder-api/internal/type"
)

// wavSink streams 16kHz mono LINEAR16. The header goes out with the first
// chunk before the length is known and is patched by Finalize.
type wavSink struct {
	mu        sync.Mutex
	channels  int
	resampler *internal_audio.Resampler
	chunks    *chunker
	samples   int
	wrote     bool
	stopped   bool
}

func NewWAVSink(format internal_type.AudioFormat, timeslice time.Duration) (Sink, error) {
	if err := validateFormat(format); err != nil {
		return nil, err
	}
	cfg := internal_audio.STREAMING_AUDIO_CONFIG
	resampler, err := internal_audio.NewResampler(format.SampleRate, int(cfg.SampleRate))
	if err != nil {
		return nil, err
	}
	s := &wavSink{
		channels:  format.Channels,
		resampler: resampler,
		chunks:    newChunker(int(cfg.SampleRate), timeslice),
	}
	if _, err := s.chunks.Write(internal_audio.WAVHeader(cfg, 0)); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *wavSink) MimeType() string { return MimeTypeWAV }

func (s *wavSink) Write(frame internal_type.AudioFrame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrSinkStopped
	}
	mono, err := s.resampler.Process(internal_audio.DownmixToMono(frame.Samples, s.channels))
	if err != nil {
		return fmt.Errorf("resampling frame: %w", err)
	}
	s.wrote = s.wrote || len(frame.Samples) > 0
	return s.append(mono)
}

func (s *wavSink) append(mono []float32) error {
	if len(mono) == 0 {
		return nil
	}
	if _, err := s.chunks.Write(internal_audio.Float32ToPCM16(mono)); err != nil {
		return err
	}
	s.samples += len(mono)
	s.chunks.advance(len(mono))
	return nil
}

func (s *wavSink) Ready() <-chan struct{} { return s.chunks.ready }

func (s *wavSink) Drain() [][]byte { return s.chunks.drain() }

func (s *wavSink) Stop() ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil, nil
	}
	s.stopped = true
	var tailErr error
	if s.wrote {
		tail, err := s.resampler.Flush()
		if err == nil {
			err = s.append(tail)
		}
		tailErr = err
	}
	chunks := s.chunks.flush()
	if s.samples == 0 {
		// a bare header is not a recording
		return nil, nil
	}
	return chunks, tailErr
}

func (s *wavSink) Finalize(artifact []byte) ([]byte, error) {
	out := make([]byte, len(artifact))
	copy(out, artifact)
	return internal_audio.SealWAV(out)
}
