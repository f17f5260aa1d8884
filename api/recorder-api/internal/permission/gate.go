// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_permission

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	internal_type "github.com/rapidaai/speaking-coach/api/recorder-api/internal/type"
	"github.com/rapidaai/speaking-coach/pkg/commons"
	"golang.org/x/sync/singleflight"
)

// Gate owns the microphone handle between sessions.
type Gate interface {
	// RequestAccess returns the held handle, or prompts once and waits for
	// the platform to resolve. Denial is sticky until the caller asks again.
	RequestAccess(ctx context.Context) (internal_type.DeviceHandle, error)
	Status() internal_type.PermissionStatus
	// Held reports whether a live handle is currently owned.
	Held() bool
	// Release stops the held handle. The status stays granted.
	Release() error
	// Close releases the handle and refuses every later request, including
	// handles still in flight from a pending prompt.
	Close() error
}

type permissionGate struct {
	logger     commons.Logger
	microphone internal_type.Microphone
	group      singleflight.Group

	mu     sync.Mutex
	status internal_type.PermissionStatus
	handle internal_type.DeviceHandle
	closed bool
}

func NewGate(logger commons.Logger, microphone internal_type.Microphone) Gate {
	return &permissionGate{logger: logger, microphone: microphone}
}

func (g *permissionGate) RequestAccess(ctx context.Context) (internal_type.DeviceHandle, error) {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil, internal_type.ErrRecorderClosed
	}
	if g.handle != nil {
		h := g.handle
		g.mu.Unlock()
		return h, nil
	}
	g.mu.Unlock()

	// concurrent callers share one platform prompt
	v, err, shared := g.group.Do("open", func() (interface{}, error) {
		start := time.Now()
		defer func() { g.logger.Benchmark("permission.RequestAccess", time.Since(start)) }()
		return g.open(ctx)
	})
	if shared {
		g.logger.Debugf("permission request shared with a concurrent caller")
	}
	if err != nil {
		return nil, err
	}
	return v.(internal_type.DeviceHandle), nil
}

func (g *permissionGate) open(ctx context.Context) (internal_type.DeviceHandle, error) {
	h, err := g.microphone.Open(ctx)

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		if h != nil {
			if stopErr := h.Stop(); stopErr != nil {
				g.logger.Warnf("failed to stop handle granted after close: %v", stopErr)
			}
		}
		return nil, internal_type.ErrRecorderClosed
	}
	if err != nil {
		g.status = internal_type.PermissionDenied
		g.logger.Warnw("microphone access refused", "error", err)
		if errors.Is(err, internal_type.ErrPermissionDenied) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", internal_type.ErrPermissionDenied, err)
	}
	g.status = internal_type.PermissionGranted
	g.handle = h
	g.logger.Infow("microphone access granted", "device", h.ID(), "sample_rate", h.Format().SampleRate)
	return h, nil
}

func (g *permissionGate) Status() internal_type.PermissionStatus {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status
}

func (g *permissionGate) Held() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.handle != nil
}

func (g *permissionGate) Release() error {
	g.mu.Lock()
	h := g.handle
	g.handle = nil
	g.mu.Unlock()
	if h == nil {
		return nil
	}
	g.logger.Debugf("releasing device %s", h.ID())
	return h.Stop()
}

func (g *permissionGate) Close() error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	g.closed = true
	g.mu.Unlock()
	return g.Release()
}
