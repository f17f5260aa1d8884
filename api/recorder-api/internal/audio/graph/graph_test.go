package internal_audio_graph

import (
	"sync"
	"testing"

	internal_type "github.com/rapidaai/speaking-coach/api/recorder-api/internal/type"
	internal_vad "github.com/rapidaai/speaking-coach/api/recorder-api/internal/vad"
	"github.com/rapidaai/speaking-coach/pkg/commons"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frameOf(v float32, n int) internal_type.AudioFrame {
	s := make([]float32, n)
	for i := range s {
		s[i] = v
	}
	return internal_type.AudioFrame{Samples: s}
}

func TestNewRejectsInvalidFormat(t *testing.T) {
	_, err := New(commons.NewNopLogger(), Options{Format: internal_type.AudioFormat{SampleRate: 0, Channels: 1}})
	assert.ErrorIs(t, err, internal_type.ErrGraphInit)

	_, err = New(commons.NewNopLogger(), Options{Format: internal_type.AudioFormat{SampleRate: 16000, Channels: 1}, FFTSize: 500})
	assert.ErrorIs(t, err, internal_type.ErrGraphInit)
}

func TestAnalyserReflectsLevel(t *testing.T) {
	g, err := New(commons.NewNopLogger(), Options{Format: internal_type.AudioFormat{SampleRate: 16000, Channels: 1}})
	require.NoError(t, err)

	buf := make([]byte, g.Analyser().FrequencyBinCount())
	assert.Len(t, buf, 256)

	g.Analyser().ByteTimeDomainData(buf)
	assert.InDelta(t, 0, internal_vad.RMS(buf), 1e-9)

	g.Process(frameOf(0.5, 1024))
	g.Analyser().ByteTimeDomainData(buf)
	assert.Equal(t, byte(192), buf[0])
	assert.InDelta(t, 0.5, internal_vad.RMS(buf), 1e-9)
}

func TestAnalyserDownmixesStereo(t *testing.T) {
	g, err := New(commons.NewNopLogger(), Options{Format: internal_type.AudioFormat{SampleRate: 48000, Channels: 2}})
	require.NoError(t, err)

	samples := make([]float32, 2048)
	for i := 0; i < len(samples); i += 2 {
		samples[i] = 0.5
		samples[i+1] = -0.5
	}
	g.Process(internal_type.AudioFrame{Samples: samples})

	buf := make([]byte, 256)
	g.Analyser().ByteTimeDomainData(buf)
	assert.InDelta(t, 0, internal_vad.RMS(buf), 1e-9)
}

func TestStreamNodeEmitsFixedBlocks(t *testing.T) {
	var mu sync.Mutex
	var blocks [][]byte
	g, err := New(commons.NewNopLogger(), Options{
		Format:      internal_type.AudioFormat{SampleRate: 48000, Channels: 1},
		StreamBlock: DefaultStreamBlock,
		OnBlock: func(pcm []byte) {
			mu.Lock()
			blocks = append(blocks, pcm)
			mu.Unlock()
		},
	})
	require.NoError(t, err)

	// 2 seconds at 48kHz resamples to about 32000 samples at 16kHz; the filter
	// delay still leaves 7 full blocks
	for i := 0; i < 24; i++ {
		g.Process(frameOf(0.25, 4000))
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, blocks, 7)
	for _, b := range blocks {
		assert.Len(t, b, DefaultStreamBlock*2)
	}
}

func TestCloseIsFinal(t *testing.T) {
	calls := 0
	g, err := New(commons.NewNopLogger(), Options{
		Format:      internal_type.AudioFormat{SampleRate: 16000, Channels: 1},
		StreamBlock: 16,
		OnBlock:     func([]byte) { calls++ },
	})
	require.NoError(t, err)

	require.NoError(t, g.Close())
	require.NoError(t, g.Close())
	assert.True(t, g.Closed())

	g.Process(frameOf(0.5, 64))
	assert.Equal(t, 0, calls)
}
