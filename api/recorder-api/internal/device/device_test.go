package internal_device

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	internal_audio "github.com/rapidaai/speaking-coach/api/recorder-api/internal/audio"
	internal_type "github.com/rapidaai/speaking-coach/api/recorder-api/internal/type"
	"github.com/rapidaai/speaking-coach/pkg/commons"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWAV(t *testing.T, cfg *internal_audio.AudioConfig, samples int) string {
	t.Helper()
	s := make([]float32, samples*int(cfg.Channels))
	for i := range s {
		s[i] = 0.25
	}
	pcm := internal_audio.Float32ToPCM16(s)
	path := filepath.Join(t.TempDir(), "answer.wav")
	require.NoError(t, os.WriteFile(path, append(internal_audio.WAVHeader(cfg, len(pcm)), pcm...), 0o600))
	return path
}

func collect(t *testing.T, h internal_type.DeviceHandle) []internal_type.AudioFrame {
	t.Helper()
	var frames []internal_type.AudioFrame
	timeout := time.After(5 * time.Second)
	for {
		select {
		case f, ok := <-h.Frames():
			if !ok {
				return frames
			}
			frames = append(frames, f)
		case <-timeout:
			t.Fatal("frames channel never closed")
		}
	}
}

func TestFileMicrophoneStreamsWholeFile(t *testing.T) {
	path := writeWAV(t, internal_audio.NewLinear16khzMonoAudioConfig(), 16000+800)
	mic := NewFileMicrophone(commons.NewNopLogger(), path, WithoutPacing())

	h, err := mic.Open(context.Background())
	require.NoError(t, err)
	assert.Equal(t, internal_type.AudioFormat{SampleRate: 16000, Channels: 1}, h.Format())
	assert.NotEmpty(t, h.ID())

	frames := collect(t, h)
	require.Len(t, frames, 11)
	assert.Len(t, frames[0].Samples, 1600)
	assert.Len(t, frames[10].Samples, 800)
	assert.Equal(t, 500*time.Millisecond, frames[5].Timestamp)
	assert.InDelta(t, 0.25, frames[0].Samples[0], 1e-3)
}

func TestFileMicrophoneStopEndsStream(t *testing.T) {
	path := writeWAV(t, internal_audio.NewLinear16khzMonoAudioConfig(), 16000*10)
	mic := NewFileMicrophone(commons.NewNopLogger(), path, WithFrameDuration(20*time.Millisecond))

	h, err := mic.Open(context.Background())
	require.NoError(t, err)
	<-h.Frames()
	require.NoError(t, h.Stop())
	require.NoError(t, h.Stop())
	collect(t, h)
}

func TestFileMicrophoneMissingFile(t *testing.T) {
	mic := NewFileMicrophone(commons.NewNopLogger(), filepath.Join(t.TempDir(), "missing.wav"))
	_, err := mic.Open(context.Background())
	assert.Error(t, err)
}

func TestFileMicrophoneRejectsNonWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("definitely not audio, just text"), 0o600))
	_, err := NewFileMicrophone(commons.NewNopLogger(), path).Open(context.Background())
	assert.ErrorIs(t, err, internal_audio.ErrInvalidWAV)
}

func TestChannelMicrophone(t *testing.T) {
	mic := NewChannelMicrophone(internal_type.AudioFormat{SampleRate: 16000, Channels: 1})
	mic.Deny(internal_type.ErrPermissionDenied)
	_, err := mic.Open(context.Background())
	assert.ErrorIs(t, err, internal_type.ErrPermissionDenied)

	mic.Deny(nil)
	dh, err := mic.Open(context.Background())
	require.NoError(t, err)
	h := <-mic.Opened()
	assert.Equal(t, dh.ID(), h.ID())

	assert.True(t, h.Push(internal_type.AudioFrame{Samples: []float32{0.1}}))
	f := <-h.Frames()
	assert.Equal(t, []float32{0.1}, f.Samples)

	require.NoError(t, h.Stop())
	require.NoError(t, h.Stop())
	assert.Equal(t, 2, h.Stops())
	assert.True(t, h.Stopped())
	assert.False(t, h.Push(internal_type.AudioFrame{}))
	_, ok := <-h.Frames()
	assert.False(t, ok)
}
