// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_session

import internal_type "github.com/rapidaai/speaking-coach/api/recorder-api/internal/type"

// Effect is an instruction for the adapter that owns the hardware. Effects
// are executed in the order Transition returns them.
type Effect interface {
	isEffect()
}

type RequestPermission struct{ Gen uint64 }

// ReleaseDevice stops every track of the held handle.
type ReleaseDevice struct{}

// CloseGate makes the permission gate final.
type CloseGate struct{}

type BuildGraph struct {
	Gen    uint64
	Stream bool
}

type CloseGraph struct{ Gen uint64 }

type StartSink struct{ Gen uint64 }

// StopSink flushes the sink. The adapter answers with the final
// ChunkRecorded events followed by SinkStopped.
type StopSink struct{ Gen uint64 }

type StartTimer struct{ Gen uint64 }
type StopTimer struct{ Gen uint64 }
type StartVAD struct{ Gen uint64 }
type StopVAD struct{ Gen uint64 }
type StartRelay struct{ Gen uint64 }
type StopRelay struct{ Gen uint64 }

type Evaluate struct {
	Gen      uint64
	Artifact []byte
	MimeType string
}

type CancelEvaluation struct{ Gen uint64 }

type EmitState struct {
	State State
}

type EmitTick struct {
	Remaining int
	Elapsed   int
}

type EmitLevel struct {
	RMS           float64
	VoiceObserved bool
}

type EmitTranscript struct {
	Delta string
	Text  string
}

type EmitArtifact struct {
	Gen      uint64
	Artifact []byte
	MimeType string
	Elapsed  int
}

type EmitDiscard struct {
	Reason error
}

type EmitError struct {
	Err error
}

type EmitEvaluation struct {
	Result *internal_type.Evaluation
}

// LogWarning reports a degraded but non-fatal condition.
type LogWarning struct {
	Err error
}

// Finish tells the adapter the machine accepts no more work.
type Finish struct{}

func (RequestPermission) isEffect() {}
func (ReleaseDevice) isEffect()     {}
func (CloseGate) isEffect()         {}
func (BuildGraph) isEffect()        {}
func (CloseGraph) isEffect()        {}
func (StartSink) isEffect()         {}
func (StopSink) isEffect()          {}
func (StartTimer) isEffect()        {}
func (StopTimer) isEffect()         {}
func (StartVAD) isEffect()          {}
func (StopVAD) isEffect()           {}
func (StartRelay) isEffect()        {}
func (StopRelay) isEffect()         {}
func (Evaluate) isEffect()          {}
func (CancelEvaluation) isEffect()  {}
func (EmitState) isEffect()         {}
func (EmitTick) isEffect()          {}
func (EmitLevel) isEffect()         {}
func (EmitTranscript) isEffect()    {}
func (EmitArtifact) isEffect()      {}
func (EmitDiscard) isEffect()       {}
func (EmitError) isEffect()         {}
func (EmitEvaluation) isEffect()    {}
func (LogWarning) isEffect()        {}
func (Finish) isEffect()            {}
