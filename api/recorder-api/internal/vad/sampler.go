// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_vad

import (
	"context"
	"time"

	internal_timer "github.com/rapidaai/speaking-coach/api/recorder-api/internal/timer"
	"github.com/rapidaai/speaking-coach/pkg/commons"
)

// DefaultSampleInterval is how often the analyser is read.
const DefaultSampleInterval = 250 * time.Millisecond

// Analyser exposes the most recent window of byte time-domain data.
type Analyser interface {
	FrequencyBinCount() int
	ByteTimeDomainData(dst []byte)
}

// Sampler reads the analyser on a fixed cadence and reports each RMS value.
// It holds no session state; the owner folds levels into a Monitor.
type Sampler struct {
	analyser Analyser
	buf      []byte
	interval *internal_timer.Interval
}

func NewSampler(
	logger commons.Logger,
	analyser Analyser,
	period time.Duration,
	newTicker internal_timer.TickerFunc,
	onLevel func(rms float64),
) *Sampler {
	if period <= 0 {
		period = DefaultSampleInterval
	}
	s := &Sampler{
		analyser: analyser,
		buf:      make([]byte, analyser.FrequencyBinCount()),
	}
	s.interval = internal_timer.NewInterval(logger, "vad", period, newTicker, func(time.Time) {
		s.analyser.ByteTimeDomainData(s.buf)
		onLevel(RMS(s.buf))
	})
	return s
}

func (s *Sampler) Start(ctx context.Context) { s.interval.Start(ctx) }

// Stop halts sampling immediately; it is safe to call more than once.
func (s *Sampler) Stop() { s.interval.Stop() }
