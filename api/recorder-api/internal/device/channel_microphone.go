// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_device

import (
	"context"
	"sync"

	"github.com/google/uuid"
	internal_type "github.com/rapidaai/speaking-coach/api/recorder-api/internal/type"
)

// ChannelMicrophone hands out handles whose frames are pushed by the caller.
// Hosts that receive audio from elsewhere, and tests, drive it directly.
type ChannelMicrophone struct {
	format internal_type.AudioFormat
	deny   error

	mu      sync.Mutex
	handles []*ChannelHandle
	opened  chan *ChannelHandle
}

func NewChannelMicrophone(format internal_type.AudioFormat) *ChannelMicrophone {
	return &ChannelMicrophone{format: format, opened: make(chan *ChannelHandle, 16)}
}

// Deny makes every later Open fail with err; nil restores access.
func (m *ChannelMicrophone) Deny(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deny = err
}

func (m *ChannelMicrophone) Open(ctx context.Context) (internal_type.DeviceHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deny != nil {
		return nil, m.deny
	}
	h := &ChannelHandle{
		id:     uuid.NewString(),
		format: m.format,
		frames: make(chan internal_type.AudioFrame, 256),
	}
	m.handles = append(m.handles, h)
	select {
	case m.opened <- h:
	default:
	}
	return h, nil
}

// Opened yields each handle as it is created.
func (m *ChannelMicrophone) Opened() <-chan *ChannelHandle { return m.opened }

func (m *ChannelMicrophone) Handles() []*ChannelHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*ChannelHandle(nil), m.handles...)
}

type ChannelHandle struct {
	id     string
	format internal_type.AudioFormat
	frames chan internal_type.AudioFrame

	mu     sync.Mutex
	closed bool
	stops  int
}

func (h *ChannelHandle) ID() string { return h.id }
func (h *ChannelHandle) Format() internal_type.AudioFormat { return h.format }
func (h *ChannelHandle) Frames() <-chan internal_type.AudioFrame { return h.frames }

// Push queues a frame. Like a real device it never blocks: the frame is
// dropped and false returned when the buffer is full or the handle is closed.
func (h *ChannelHandle) Push(frame internal_type.AudioFrame) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	select {
	case h.frames <- frame:
		return true
	default:
		return false
	}
}

// End closes the stream as a device would when it goes away.
func (h *ChannelHandle) End() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closeLocked()
}

func (h *ChannelHandle) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stops++
	h.closeLocked()
	return nil
}

func (h *ChannelHandle) closeLocked() {
	if h.closed {
		return
	}
	h.closed = true
	close(h.frames)
}

// Stops reports how many times Stop was called.
func (h *ChannelHandle) Stops() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stops
}

func (h *ChannelHandle) Stopped() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}
