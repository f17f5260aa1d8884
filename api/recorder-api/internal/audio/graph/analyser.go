// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_audio_graph

import "sync"

// analyserNode keeps the most recent fftSize mono samples and exposes them as
// unsigned bytes centred on 128.
type analyserNode struct {
	mu      sync.Mutex
	fftSize int
	ring    []float32
	next    int
}

func newAnalyserNode(fftSize int) *analyserNode {
	return &analyserNode{fftSize: fftSize, ring: make([]float32, fftSize)}
}

func (a *analyserNode) FrequencyBinCount() int { return a.fftSize / 2 }

func (a *analyserNode) write(samples []float32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(samples) >= a.fftSize {
		copy(a.ring, samples[len(samples)-a.fftSize:])
		a.next = 0
		return
	}
	for _, s := range samples {
		a.ring[a.next] = s
		a.next = (a.next + 1) % a.fftSize
	}
}

// ByteTimeDomainData fills dst with the newest len(dst) samples, oldest first.
func (a *analyserNode) ByteTimeDomainData(dst []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := min(len(dst), a.fftSize)
	start := a.next - n
	if start < 0 {
		start += a.fftSize
	}
	for i := 0; i < n; i++ {
		dst[i] = toByte(a.ring[(start+i)%a.fftSize])
	}
	for i := n; i < len(dst); i++ {
		dst[i] = 128
	}
}

func (a *analyserNode) reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	clear(a.ring)
	a.next = 0
}

func toByte(v float32) byte {
	s := 128 * (1 + float64(v))
	switch {
	case s < 0:
		return 0
	case s > 255:
		return 255
	default:
		return byte(s)
	}
}
