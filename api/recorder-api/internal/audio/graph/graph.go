// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_audio_graph

import (
	"fmt"
	"sync"

	internal_audio "github.com/rapidaai/speaking-coach/api/recorder-api/internal/audio"
	internal_type "github.com/rapidaai/speaking-coach/api/recorder-api/internal/type"
	internal_vad "github.com/rapidaai/speaking-coach/api/recorder-api/internal/vad"
	"github.com/rapidaai/speaking-coach/pkg/commons"
)

const (
	DefaultFFTSize     = 512
	DefaultStreamBlock = 4096
)

// Graph is the per-session processing chain: source, analyser and an
// optional streaming node. A closed graph cannot be reopened.
type Graph interface {
	Analyser() internal_vad.Analyser
	// Process pushes one captured frame through every node.
	Process(frame internal_type.AudioFrame)
	Close() error
	Closed() bool
}

type Options struct {
	Format  internal_type.AudioFormat
	FFTSize int
	// StreamBlock is the number of 16kHz samples per streamed block.
	StreamBlock int
	// OnBlock receives each PCM16 block. Leave nil to build the graph without
	// a streaming node.
	OnBlock func(pcm16 []byte)
}

type audioGraph struct {
	logger   commons.Logger
	channels int

	mu       sync.Mutex
	closed   bool
	analyser *analyserNode
	stream   *streamNode
}

// New builds a fresh graph. It fails with ErrGraphInit when the source format
// cannot be processed.
func New(logger commons.Logger, opts Options) (Graph, error) {
	cfg := &internal_audio.AudioConfig{
		SampleRate: uint32(max(opts.Format.SampleRate, 0)),
		Channels:   uint32(max(opts.Format.Channels, 0)),
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", internal_type.ErrGraphInit, err)
	}
	fftSize := opts.FFTSize
	if fftSize == 0 {
		fftSize = DefaultFFTSize
	}
	if fftSize < 32 || fftSize&(fftSize-1) != 0 {
		return nil, fmt.Errorf("%w: fft size %d must be a power of two >= 32", internal_type.ErrGraphInit, fftSize)
	}

	g := &audioGraph{
		logger:   logger,
		channels: opts.Format.Channels,
		analyser: newAnalyserNode(fftSize),
	}
	if opts.OnBlock != nil {
		block := opts.StreamBlock
		if block <= 0 {
			block = DefaultStreamBlock
		}
		stream, err := newStreamNode(opts.Format.SampleRate, int(internal_audio.STREAMING_AUDIO_CONFIG.SampleRate), block, opts.OnBlock)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", internal_type.ErrGraphInit, err)
		}
		g.stream = stream
	}
	logger.Debugf("audio graph built for %s, fftSize=%d, streaming=%t", cfg, fftSize, g.stream != nil)
	return g, nil
}

func (g *audioGraph) Analyser() internal_vad.Analyser { return g.analyser }

func (g *audioGraph) Process(frame internal_type.AudioFrame) {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	mono := internal_audio.DownmixToMono(frame.Samples, g.channels)
	g.analyser.write(mono)
	var emit [][]byte
	var onBlock func([]byte)
	if g.stream != nil {
		var err error
		if emit, err = g.stream.write(mono); err != nil {
			g.logger.Warnf("stream node dropped a frame: %v", err)
		}
		onBlock = g.stream.onBlock
	}
	g.mu.Unlock()

	// blocks are delivered outside the lock so a slow relay never stalls Close
	for _, b := range emit {
		onBlock(b)
	}
}

func (g *audioGraph) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil
	}
	g.closed = true
	g.analyser.reset()
	if g.stream != nil {
		g.stream.reset()
	}
	g.logger.Debugf("audio graph closed")
	return nil
}

func (g *audioGraph) Closed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}
