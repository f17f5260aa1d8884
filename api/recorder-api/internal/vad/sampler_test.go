package internal_vad

import (
	"context"
	"sync"
	"testing"
	"time"

	internal_timer "github.com/rapidaai/speaking-coach/api/recorder-api/internal/timer"
	"github.com/rapidaai/speaking-coach/pkg/commons"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAnalyser struct {
	mu    sync.Mutex
	level byte
}

func (f *fakeAnalyser) FrequencyBinCount() int { return 256 }

func (f *fakeAnalyser) ByteTimeDomainData(dst []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range dst {
		dst[i] = f.level
	}
}

func TestSamplerReportsLevels(t *testing.T) {
	clock := internal_timer.NewManualClock()
	analyser := &fakeAnalyser{level: 128}
	levels := make(chan float64, 4)

	s := NewSampler(commons.NewNopLogger(), analyser, DefaultSampleInterval, clock.NewTicker, func(rms float64) {
		levels <- rms
	})
	s.Start(context.Background())
	defer s.Stop()

	ticker := clock.Await(DefaultSampleInterval, time.Second)
	require.NotNil(t, ticker)

	require.True(t, ticker.Fire())
	assert.InDelta(t, 0, <-levels, 1e-9)

	analyser.mu.Lock()
	analyser.level = 192
	analyser.mu.Unlock()
	require.True(t, ticker.Fire())
	assert.InDelta(t, 0.5, <-levels, 1e-9)
}

func TestSamplerStopsImmediately(t *testing.T) {
	clock := internal_timer.NewManualClock()
	levels := make(chan float64, 4)
	s := NewSampler(commons.NewNopLogger(), &fakeAnalyser{level: 200}, DefaultSampleInterval, clock.NewTicker, func(rms float64) {
		levels <- rms
	})
	s.Start(context.Background())
	ticker := clock.Await(DefaultSampleInterval, time.Second)
	require.NotNil(t, ticker)

	s.Stop()
	s.Stop()
	ticker.Fire()
	select {
	case <-levels:
		t.Fatal("level reported after stop")
	case <-time.After(20 * time.Millisecond):
	}
}
