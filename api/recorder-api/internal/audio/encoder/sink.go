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

	internal_audio "github.com/rapidaai/speaking-coach/api/recorder-api/internal/audio"
	internal_type "github.com/rapidaai/speaking-coach/api/recorder-api/internal/type"
)

const (
	MimeTypeOggOpus = "audio/ogg;codecs=opus"
	MimeTypeOgg     = "audio/ogg"
	MimeTypeWAV     = "audio/wav"

	DefaultTimeslice = time.Second
)

var ErrSinkStopped = errors.New("sink stopped")

// validateFormat rejects device formats no sink can resample.
func validateFormat(format internal_type.AudioFormat) error {
	cfg := &internal_audio.AudioConfig{
		SampleRate: uint32(max(format.SampleRate, 0)),
		Channels:   uint32(max(format.Channels, 0)),
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("sink input format: %w", err)
	}
	return nil
}

// Sink is the recording sink of one capture session. Encoded bytes are cut
// into timesliced chunks; completed chunks are collected with Drain.
type Sink interface {
	MimeType() string
	// Write encodes one captured frame.
	Write(frame internal_type.AudioFrame) error
	// Ready receives a value whenever new chunks may be drained.
	Ready() <-chan struct{}
	Drain() [][]byte
	// Stop flushes buffered audio and returns every chunk not yet drained,
	// the final partial slice included. Later calls return nothing.
	Stop() ([][]byte, error)
	// Finalize turns the concatenated chunks into a playable artifact.
	Finalize(artifact []byte) ([]byte, error)
}

// chunker buffers encoded bytes and cuts a chunk every timeslice worth of
// samples. It is the io.Writer the container writers write into.
type chunker struct {
	mu      sync.Mutex
	slice   int
	inSlice int
	buf     []byte
	chunks  [][]byte
	ready   chan struct{}
}

func newChunker(sampleRate int, timeslice time.Duration) *chunker {
	if timeslice <= 0 {
		timeslice = DefaultTimeslice
	}
	slice := int(int64(sampleRate) * int64(timeslice) / int64(time.Second))
	return &chunker{slice: max(slice, 1), ready: make(chan struct{}, 1)}
}

func (c *chunker) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buf = append(c.buf, p...)
	return len(p), nil
}

// advance accounts for samples already written and cuts when a slice is full.
func (c *chunker) advance(samples int) {
	c.mu.Lock()
	c.inSlice += samples
	cut := c.inSlice >= c.slice
	if cut {
		c.inSlice %= c.slice
		c.cutLocked()
	}
	c.mu.Unlock()
	if cut {
		c.notify()
	}
}

func (c *chunker) cutLocked() {
	if len(c.buf) == 0 {
		return
	}
	c.chunks = append(c.chunks, c.buf)
	c.buf = nil
}

func (c *chunker) notify() {
	select {
	case c.ready <- struct{}{}:
	default:
	}
}

func (c *chunker) drain() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.chunks
	c.chunks = nil
	return out
}

// flush cuts whatever is buffered and returns all pending chunks.
func (c *chunker) flush() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inSlice = 0
	c.cutLocked()
	out := c.chunks
	c.chunks = nil
	return out
}
