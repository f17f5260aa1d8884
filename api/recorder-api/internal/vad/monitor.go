// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_vad

import "math"

// DefaultSilenceThreshold is the RMS level above which a sample counts as speech.
const DefaultSilenceThreshold = 0.01

// Monitor tracks whether speech has been heard in the current session. Once
// observed, the flag stays set until a new Monitor replaces it.
type Monitor struct {
	threshold float64
	observed  bool
	peak      float64
	samples   int
}

func NewMonitor(threshold float64) Monitor {
	if threshold <= 0 {
		threshold = DefaultSilenceThreshold
	}
	return Monitor{threshold: threshold}
}

// Observe folds one RMS sample into the monitor.
func (m Monitor) Observe(rms float64) Monitor {
	m.samples++
	if rms > m.peak {
		m.peak = rms
	}
	if rms > m.threshold {
		m.observed = true
	}
	return m
}

func (m Monitor) Observed() bool { return m.observed }
func (m Monitor) Peak() float64 { return m.peak }
func (m Monitor) Samples() int { return m.samples }
func (m Monitor) Threshold() float64 { return m.threshold }

// RMS computes the root mean square of unsigned 8-bit time-domain samples
// centred on 128, the layout an analyser node reports.
func RMS(timeDomain []byte) float64 {
	if len(timeDomain) == 0 {
		return 0
	}
	var sum float64
	for _, b := range timeDomain {
		v := float64(b)/128.0 - 1.0
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(timeDomain)))
}
