// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_audio_encoder

import (
	"errors"
	"fmt"
	"sync"
	"time"

	internal_type "github.com/rapidaai/speaking-coach/api/recorder-api/internal/type"
	"github.com/rapidaai/speaking-coach/pkg/commons"
	"gopkg.in/hraban/opus.v2"
)

// Candidate is one entry of the ranked encoder list.
type Candidate struct {
	MimeType  string
	Supported func() bool
	New       func(format internal_type.AudioFormat, timeslice time.Duration) (Sink, error)
}

// Factory probes the ranked candidates once per session and opens the first
// sink that starts.
type Factory interface {
	// Probe reports the mime type Open would pick.
	Probe() string
	Open(format internal_type.AudioFormat) (Sink, error)
}

type sinkFactory struct {
	logger     commons.Logger
	timeslice  time.Duration
	candidates []Candidate
}

func NewFactory(logger commons.Logger, timeslice time.Duration, candidates ...Candidate) Factory {
	if len(candidates) == 0 {
		candidates = DefaultCandidates()
	}
	return &sinkFactory{logger: logger, timeslice: timeslice, candidates: candidates}
}

var (
	opusOnce      sync.Once
	opusAvailable bool
)

// OpusSupported reports whether libopus can build an encoder in this process.
func OpusSupported() bool {
	opusOnce.Do(func() {
		_, err := opus.NewEncoder(OpusSampleRate, OpusChannels, opus.AppVoIP)
		opusAvailable = err == nil
	})
	return opusAvailable
}

// DefaultCandidates is Ogg/Opus tuned for voice, then Ogg/Opus general audio,
// then the always-available WAV default.
func DefaultCandidates() []Candidate {
	return []Candidate{
		{
			MimeType:  MimeTypeOggOpus,
			Supported: OpusSupported,
			New: func(f internal_type.AudioFormat, ts time.Duration) (Sink, error) {
				return NewOggOpusSink(MimeTypeOggOpus, opus.AppVoIP, f, ts)
			},
		},
		{
			MimeType:  MimeTypeOgg,
			Supported: OpusSupported,
			New: func(f internal_type.AudioFormat, ts time.Duration) (Sink, error) {
				return NewOggOpusSink(MimeTypeOgg, opus.AppAudio, f, ts)
			},
		},
		{
			MimeType:  MimeTypeWAV,
			Supported: func() bool { return true },
			New:       NewWAVSink,
		},
	}
}

func (f *sinkFactory) Probe() string {
	for _, c := range f.candidates {
		if c.Supported() {
			return c.MimeType
		}
	}
	return ""
}

func (f *sinkFactory) Open(format internal_type.AudioFormat) (Sink, error) {
	var errs []error
	for _, c := range f.candidates {
		if !c.Supported() {
			f.logger.Debugf("encoder %s not supported, trying next", c.MimeType)
			continue
		}
		sink, err := c.New(format, f.timeslice)
		if err != nil {
			f.logger.Warnw("encoder failed to start", "mime_type", c.MimeType, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", c.MimeType, err))
			continue
		}
		return sink, nil
	}
	if len(errs) == 0 {
		return nil, internal_type.ErrNoEncoder
	}
	return nil, fmt.Errorf("%w: %w", internal_type.ErrNoEncoder, errors.Join(errs...))
}
