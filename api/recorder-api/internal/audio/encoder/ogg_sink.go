// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_audio_encoder

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4/pkg/media/oggwriter"
	internal_audio "github.com/rapidaai/speaking-coach/api/recorder-api/internal/audio"
	internal_type "github.com/rapidaai/speaking-coach/api/recorder-api/internal/type"
	"gopkg.in/hraban/opus.v2"
)

// Opus audio constants (48kHz, 20ms frames)
const (
	OpusSampleRate    = 48000
	OpusFrameDuration = 20  // milliseconds
	OpusFrameSamples  = 960 // 20ms at 48kHz mono
	OpusChannels      = 1
	OpusPayloadType   = 111
	OpusMaxPacket     = 4000
	OpusBitrate       = 32000
)

// oggSink encodes 20ms Opus frames and packs them into an Ogg stream through
// pion's oggwriter, which takes RTP packets and derives granule positions
// from their timestamps.
type oggSink struct {
	mu        sync.Mutex
	mimeType  string
	channels  int
	resampler *internal_audio.Resampler
	encoder   *opus.Encoder
	ogg       *oggwriter.OggWriter
	chunks    *chunker

	pending   []float32
	packet    []byte
	sequence  uint16
	timestamp uint32
	ssrc      uint32
	wrote     bool
	stopped   bool
}

func NewOggOpusSink(mimeType string, application opus.Application, format internal_type.AudioFormat, timeslice time.Duration) (Sink, error) {
	if err := validateFormat(format); err != nil {
		return nil, err
	}
	resampler, err := internal_audio.NewResampler(format.SampleRate, OpusSampleRate)
	if err != nil {
		return nil, err
	}
	enc, err := opus.NewEncoder(OpusSampleRate, OpusChannels, application)
	if err != nil {
		return nil, fmt.Errorf("creating opus encoder: %w", err)
	}
	if err := enc.SetBitrate(OpusBitrate); err != nil {
		return nil, fmt.Errorf("setting opus bitrate: %w", err)
	}
	chunks := newChunker(OpusSampleRate, timeslice)
	// the ID and comment header pages are written straight away and land in
	// the first chunk
	ogg, err := oggwriter.NewWith(chunks, OpusSampleRate, OpusChannels)
	if err != nil {
		return nil, fmt.Errorf("creating ogg writer: %w", err)
	}
	return &oggSink{
		mimeType:  mimeType,
		channels:  format.Channels,
		resampler: resampler,
		encoder:   enc,
		ogg:       ogg,
		chunks:    chunks,
		pending:   make([]float32, 0, OpusFrameSamples*2),
		packet:    make([]byte, OpusMaxPacket),
		ssrc:      rand.Uint32(),
	}, nil
}

func (s *oggSink) MimeType() string { return s.mimeType }

func (s *oggSink) Write(frame internal_type.AudioFrame) error {
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
	s.pending = append(s.pending, mono...)
	return s.encodePending()
}

func (s *oggSink) encodePending() error {
	for len(s.pending) >= OpusFrameSamples {
		if err := s.encodeFrame(s.pending[:OpusFrameSamples]); err != nil {
			return err
		}
		s.pending = append(s.pending[:0], s.pending[OpusFrameSamples:]...)
	}
	return nil
}

func (s *oggSink) encodeFrame(samples []float32) error {
	n, err := s.encoder.Encode(internal_audio.Float32ToInt16(samples), s.packet)
	if err != nil {
		return fmt.Errorf("opus encode: %w", err)
	}
	payload := make([]byte, n)
	copy(payload, s.packet[:n])
	pkt := &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			PayloadType:    OpusPayloadType,
			SequenceNumber: s.sequence,
			Timestamp:      s.timestamp,
			SSRC:           s.ssrc,
		},
		Payload: payload,
	}
	s.sequence++
	s.timestamp += OpusFrameSamples
	if err := s.ogg.WriteRTP(pkt); err != nil {
		return fmt.Errorf("ogg write: %w", err)
	}
	s.chunks.advance(OpusFrameSamples)
	return nil
}

func (s *oggSink) Ready() <-chan struct{} { return s.chunks.ready }

func (s *oggSink) Drain() [][]byte { return s.chunks.drain() }

// Stop pads the last partial frame with silence so no captured audio is lost.
func (s *oggSink) Stop() ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil, nil
	}
	s.stopped = true

	var encodeErr error
	if s.wrote {
		tail, err := s.resampler.Flush()
		if err == nil {
			s.pending = append(s.pending, tail...)
			err = s.encodePending()
		}
		encodeErr = err
	}
	if encodeErr == nil && len(s.pending) > 0 {
		frame := make([]float32, OpusFrameSamples)
		copy(frame, s.pending)
		s.pending = s.pending[:0]
		encodeErr = s.encodeFrame(frame)
	}
	closeErr := s.ogg.Close()
	chunks := s.chunks.flush()
	if s.sequence == 0 {
		// header pages only; nothing was captured
		return nil, closeErr
	}
	if encodeErr != nil {
		return chunks, encodeErr
	}
	return chunks, closeErr
}

func (s *oggSink) Finalize(artifact []byte) ([]byte, error) { return artifact, nil }
