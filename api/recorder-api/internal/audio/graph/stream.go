// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_audio_graph

import internal_audio "github.com/rapidaai/speaking-coach/api/recorder-api/internal/audio"

// streamNode resamples the mono signal to the streaming rate and cuts it into
// fixed-size PCM16 blocks.
type streamNode struct {
	resampler *internal_audio.Resampler
	block     int
	pending   []float32
	onBlock   func([]byte)
}

func newStreamNode(fromRate, toRate, block int, onBlock func([]byte)) (*streamNode, error) {
	resampler, err := internal_audio.NewResampler(fromRate, toRate)
	if err != nil {
		return nil, err
	}
	return &streamNode{
		resampler: resampler,
		block:     block,
		pending:   make([]float32, 0, block*2),
		onBlock:   onBlock,
	}, nil
}

func (s *streamNode) write(mono []float32) ([][]byte, error) {
	resampled, err := s.resampler.Process(mono)
	if err != nil {
		return nil, err
	}
	s.pending = append(s.pending, resampled...)
	var out [][]byte
	for len(s.pending) >= s.block {
		out = append(out, internal_audio.Float32ToPCM16(s.pending[:s.block]))
		s.pending = append(s.pending[:0], s.pending[s.block:]...)
	}
	return out, nil
}

// reset drops any partial block; a partial block is never streamed.
func (s *streamNode) reset() {
	s.pending = s.pending[:0]
	s.resampler.Reset()
}
