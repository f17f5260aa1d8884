// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_type

import (
	"context"
	"time"
)

// AudioFormat describes the layout of the frames a device delivers.
type AudioFormat struct {
	SampleRate int
	Channels   int
}

// AudioFrame is one block of captured audio. Samples are interleaved and
// normalized to [-1, 1].
type AudioFrame struct {
	Samples   []float32
	Timestamp time.Duration
}

// DeviceHandle is exclusive ownership of a live microphone stream.
type DeviceHandle interface {
	ID() string
	Format() AudioFormat
	// Frames is closed once the handle is stopped or the device runs dry.
	Frames() <-chan AudioFrame
	// Stop ends every track of the stream. Calling it more than once is a no-op.
	Stop() error
}

// Microphone is the platform collaborator behind the permission prompt.
type Microphone interface {
	// Open prompts for access when needed and returns a live handle, or an
	// error wrapping ErrPermissionDenied when access is refused.
	Open(ctx context.Context) (DeviceHandle, error)
}

type PermissionStatus int

const (
	PermissionUnknown PermissionStatus = iota
	PermissionGranted
	PermissionDenied
)

func (s PermissionStatus) String() string {
	switch s {
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	default:
		return "unknown"
	}
}
