// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_audio

import (
	"fmt"

	resampling "github.com/tphakala/go-audio-resampler"
)

// ResampleQuality is tuned for speech; the 16kHz stream and the recording
// sinks never carry music.
const ResampleQuality = resampling.QualityLow

// Resampler converts a mono stream between sample rates. The polyphase filter
// keeps its history across blocks, so output trails input by the filter delay
// until Flush hands back the tail.
type Resampler struct {
	from, to int
	engine   *resampling.SimpleResamplerFloat32
}

func NewResampler(from, to int) (*Resampler, error) {
	if from <= 0 || to <= 0 {
		return nil, fmt.Errorf("invalid resample rates %d -> %d", from, to)
	}
	r := &Resampler{from: from, to: to}
	if from == to {
		return r, nil
	}
	engine, err := resampling.NewEngineFloat32(float64(from), float64(to), ResampleQuality)
	if err != nil {
		return nil, fmt.Errorf("creating resampler %d -> %d: %w", from, to, err)
	}
	r.engine = engine
	return r, nil
}

func (r *Resampler) Passthrough() bool { return r.engine == nil }

// Process resamples one block. The returned slice is owned by the caller.
func (r *Resampler) Process(in []float32) ([]float32, error) {
	if r.Passthrough() || len(in) == 0 {
		return in, nil
	}
	return r.engine.Process(in)
}

// Flush returns the samples still held by the filter.
func (r *Resampler) Flush() ([]float32, error) {
	if r.Passthrough() {
		return nil, nil
	}
	return r.engine.Flush()
}

func (r *Resampler) Reset() {
	if r.engine != nil {
		r.engine.Reset()
	}
}
