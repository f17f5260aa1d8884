// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	internal_audio "github.com/rapidaai/speaking-coach/api/recorder-api/internal/audio"
	internal_type "github.com/rapidaai/speaking-coach/api/recorder-api/internal/type"
	"github.com/rapidaai/speaking-coach/pkg/commons"
	"github.com/rapidaai/speaking-coach/pkg/utils"
)

const DefaultFrameDuration = 100 * time.Millisecond

// fileMicrophone plays a LINEAR16 wav file as if it were a live microphone.
type fileMicrophone struct {
	logger        commons.Logger
	path          string
	frameDuration time.Duration
	realtime      bool
}

type FileOption func(*fileMicrophone)

// WithoutPacing delivers frames as fast as the reader takes them.
func WithoutPacing() FileOption {
	return func(m *fileMicrophone) { m.realtime = false }
}

func WithFrameDuration(d time.Duration) FileOption {
	return func(m *fileMicrophone) {
		if d > 0 {
			m.frameDuration = d
		}
	}
}

func NewFileMicrophone(logger commons.Logger, path string, opts ...FileOption) internal_type.Microphone {
	m := &fileMicrophone{
		logger:        logger,
		path:          path,
		frameDuration: DefaultFrameDuration,
		realtime:      true,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *fileMicrophone) Open(ctx context.Context) (internal_type.DeviceHandle, error) {
	f, err := os.Open(m.path)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return nil, fmt.Errorf("%w: %w", internal_type.ErrPermissionDenied, err)
		}
		return nil, fmt.Errorf("opening %s: %w", m.path, err)
	}
	wav, err := internal_audio.NewWAVReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	format := internal_type.AudioFormat{
		SampleRate: int(wav.Config.SampleRate),
		Channels:   int(wav.Config.Channels),
	}
	samplesPerFrame := int(int64(format.SampleRate)*int64(m.frameDuration)/int64(time.Second)) * format.Channels
	h := &fileHandle{
		id:     uuid.NewString(),
		format: format,
		frames: make(chan internal_type.AudioFrame, 4),
		done:   make(chan struct{}),
	}
	m.logger.Infow("file microphone opened", "path", m.path, "format", wav.Config.String(), "bytes", wav.DataLen)

	utils.Go(ctx, func() {
		defer f.Close()
		defer close(h.frames)
		h.pump(wav, samplesPerFrame, m.frameDuration, m.realtime, m.logger)
	})
	return h, nil
}

type fileHandle struct {
	id       string
	format   internal_type.AudioFormat
	frames   chan internal_type.AudioFrame
	done     chan struct{}
	stopOnce sync.Once
}

func (h *fileHandle) ID() string { return h.id }
func (h *fileHandle) Format() internal_type.AudioFormat { return h.format }
func (h *fileHandle) Frames() <-chan internal_type.AudioFrame { return h.frames }

func (h *fileHandle) Stop() error {
	h.stopOnce.Do(func() { close(h.done) })
	return nil
}

func (h *fileHandle) pump(r io.Reader, samplesPerFrame int, frameDuration time.Duration, realtime bool, logger commons.Logger) {
	buf := make([]byte, samplesPerFrame*internal_audio.BytesPerSample)
	var ticker *time.Ticker
	if realtime {
		ticker = time.NewTicker(frameDuration)
		defer ticker.Stop()
	}
	var position time.Duration
	for {
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			frame := internal_type.AudioFrame{
				Samples:   internal_audio.PCM16ToFloat32(buf[:n]),
				Timestamp: position,
			}
			position += frameDuration
			if ticker != nil {
				select {
				case <-ticker.C:
				case <-h.done:
					return
				}
			}
			select {
			case h.frames <- frame:
			case <-h.done:
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
				logger.Warnf("file microphone read failed: %v", err)
			}
			return
		}
	}
}
