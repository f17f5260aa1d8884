// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_session

import internal_type "github.com/rapidaai/speaking-coach/api/recorder-api/internal/type"

// Event is an input to Transition. Events that carry a Gen are dropped when
// they belong to an older session than the current one.
type Event interface {
	isEvent()
}

type StartRequested struct {
	SessionID string
}

type PermissionGranted struct {
	Gen uint64
}

type PermissionDenied struct {
	Gen uint64
	Err error
}

type GraphReady struct {
	Gen uint64
}

type GraphFailed struct {
	Gen uint64
	Err error
}

type SinkStarted struct {
	Gen      uint64
	MimeType string
}

type SinkFailed struct {
	Gen uint64
	Err error
}

type TimerTicked struct {
	Gen uint64
}

type LevelSampled struct {
	Gen uint64
	RMS float64
}

type ChunkRecorded struct {
	Gen  uint64
	Data []byte
}

type TranscriptReceived struct {
	Gen          uint64
	Text         string
	TurnComplete bool
}

type RelayFailed struct {
	Gen uint64
	Err error
}

// StopRequested with Gen zero targets whatever session is current.
type StopRequested struct {
	Gen    uint64
	Reason StopReason
}

type SinkStopped struct {
	Gen uint64
	Err error
}

type TeardownRequested struct{}

type EvaluationFinished struct {
	Gen    uint64
	Result *internal_type.Evaluation
	Err    error
}

func (StartRequested) isEvent()     {}
func (PermissionGranted) isEvent()  {}
func (PermissionDenied) isEvent()   {}
func (GraphReady) isEvent()         {}
func (GraphFailed) isEvent()        {}
func (SinkStarted) isEvent()        {}
func (SinkFailed) isEvent()         {}
func (TimerTicked) isEvent()        {}
func (LevelSampled) isEvent()       {}
func (ChunkRecorded) isEvent()      {}
func (TranscriptReceived) isEvent() {}
func (RelayFailed) isEvent()        {}
func (StopRequested) isEvent()      {}
func (SinkStopped) isEvent()        {}
func (TeardownRequested) isEvent()  {}
func (EvaluationFinished) isEvent() {}
