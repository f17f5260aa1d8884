package internal_permission

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	internal_type "github.com/rapidaai/speaking-coach/api/recorder-api/internal/type"
	"github.com/rapidaai/speaking-coach/pkg/commons"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHandle struct {
	stops atomic.Int32
}

func (h *fakeHandle) ID() string { return "fake" }
func (h *fakeHandle) Format() internal_type.AudioFormat {
	return internal_type.AudioFormat{SampleRate: 16000, Channels: 1}
}
func (h *fakeHandle) Frames() <-chan internal_type.AudioFrame { return nil }
func (h *fakeHandle) Stop() error {
	h.stops.Add(1)
	return nil
}

type fakeMicrophone struct {
	prompts atomic.Int32
	gate    chan struct{}
	err     error
	handles []*fakeHandle
	mu      sync.Mutex
}

func (m *fakeMicrophone) Open(ctx context.Context) (internal_type.DeviceHandle, error) {
	m.prompts.Add(1)
	if m.gate != nil {
		select {
		case <-m.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	h := &fakeHandle{}
	m.mu.Lock()
	m.handles = append(m.handles, h)
	m.mu.Unlock()
	return h, nil
}

func TestRequestAccessIsIdempotent(t *testing.T) {
	mic := &fakeMicrophone{}
	g := NewGate(commons.NewNopLogger(), mic)
	assert.Equal(t, internal_type.PermissionUnknown, g.Status())

	h1, err := g.RequestAccess(context.Background())
	require.NoError(t, err)
	h2, err := g.RequestAccess(context.Background())
	require.NoError(t, err)

	assert.Same(t, h1, h2)
	assert.Equal(t, int32(1), mic.prompts.Load())
	assert.Equal(t, internal_type.PermissionGranted, g.Status())
	assert.True(t, g.Held())
}

func TestConcurrentRequestsShareOnePrompt(t *testing.T) {
	mic := &fakeMicrophone{gate: make(chan struct{})}
	g := NewGate(commons.NewNopLogger(), mic)

	var wg sync.WaitGroup
	handles := make([]internal_type.DeviceHandle, 4)
	for i := range handles {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h, err := g.RequestAccess(context.Background())
			assert.NoError(t, err)
			handles[i] = h
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(mic.gate)
	wg.Wait()

	assert.Equal(t, int32(1), mic.prompts.Load())
	for _, h := range handles[1:] {
		assert.Same(t, handles[0], h)
	}
}

func TestDenialIsStickyWithoutRetry(t *testing.T) {
	mic := &fakeMicrophone{err: internal_type.ErrPermissionDenied}
	g := NewGate(commons.NewNopLogger(), mic)

	_, err := g.RequestAccess(context.Background())
	assert.ErrorIs(t, err, internal_type.ErrPermissionDenied)
	assert.Equal(t, internal_type.PermissionDenied, g.Status())
	assert.Equal(t, int32(1), mic.prompts.Load())

	// the caller retries explicitly
	mic.err = nil
	_, err = g.RequestAccess(context.Background())
	require.NoError(t, err)
	assert.Equal(t, internal_type.PermissionGranted, g.Status())
	assert.Equal(t, int32(2), mic.prompts.Load())
}

func TestHardwareErrorsBecomePermissionDenied(t *testing.T) {
	g := NewGate(commons.NewNopLogger(), &fakeMicrophone{err: errors.New("device busy")})
	_, err := g.RequestAccess(context.Background())
	assert.ErrorIs(t, err, internal_type.ErrPermissionDenied)
	assert.Contains(t, err.Error(), "device busy")
}

func TestReleaseStopsOnceAndKeepsStatus(t *testing.T) {
	mic := &fakeMicrophone{}
	g := NewGate(commons.NewNopLogger(), mic)
	_, err := g.RequestAccess(context.Background())
	require.NoError(t, err)

	require.NoError(t, g.Release())
	require.NoError(t, g.Release())
	assert.Equal(t, int32(1), mic.handles[0].stops.Load())
	assert.False(t, g.Held())
	assert.Equal(t, internal_type.PermissionGranted, g.Status())
}

func TestCloseReleasesInFlightHandle(t *testing.T) {
	mic := &fakeMicrophone{gate: make(chan struct{})}
	g := NewGate(commons.NewNopLogger(), mic)

	result := make(chan error, 1)
	go func() {
		_, err := g.RequestAccess(context.Background())
		result <- err
	}()
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, g.Close())
	close(mic.gate)

	assert.ErrorIs(t, <-result, internal_type.ErrRecorderClosed)
	mic.mu.Lock()
	defer mic.mu.Unlock()
	require.Len(t, mic.handles, 1)
	assert.Equal(t, int32(1), mic.handles[0].stops.Load())

	_, err := g.RequestAccess(context.Background())
	assert.ErrorIs(t, err, internal_type.ErrRecorderClosed)
	assert.NoError(t, g.Close())
}
