// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_session

import (
	"bytes"
	"fmt"
	"slices"

	internal_timer "github.com/rapidaai/speaking-coach/api/recorder-api/internal/timer"
	internal_type "github.com/rapidaai/speaking-coach/api/recorder-api/internal/type"
	internal_vad "github.com/rapidaai/speaking-coach/api/recorder-api/internal/vad"
)

const (
	DefaultMaxSeconds = 180
	DefaultMinSeconds = 2
)

type Config struct {
	MaxSeconds       int
	MinSeconds       int
	SilenceThreshold float64
	// GatingEnabled requires observed voice activity before an artifact is
	// emitted. A graph failure turns it off for that session only.
	GatingEnabled bool
	RelayEnabled  bool
	// EvaluateEnabled keeps a completed session in Completed until the
	// evaluation result arrives.
	EvaluateEnabled bool
}

func DefaultConfig() Config {
	return Config{
		MaxSeconds:       DefaultMaxSeconds,
		MinSeconds:       DefaultMinSeconds,
		SilenceThreshold: internal_vad.DefaultSilenceThreshold,
		GatingEnabled:    true,
	}
}

// Session is one recording attempt.
type Session struct {
	ID            string
	Gen           uint64
	Timer         internal_timer.Countdown
	Chunks        [][]byte
	Voice         internal_vad.Monitor
	MimeType      string
	GatingEnabled bool
	Transcript    string
	StopReason    StopReason
	Outcome       Outcome
	DiscardReason error
}

// Artifact concatenates the accumulated chunks in order.
func (s Session) Artifact() []byte {
	return bytes.Join(s.Chunks, nil)
}

// Machine is the whole controller state. It is a value: Transition never
// mutates its input.
type Machine struct {
	Config     Config
	State      State
	DeviceHeld bool
	// Closing is set by teardown; the session in flight still resolves but
	// nothing new starts and no evaluation runs.
	Closing bool
	Closed  bool
	Gen     uint64
	Session Session
}

func New(cfg Config) Machine {
	if cfg.MaxSeconds <= 0 {
		cfg.MaxSeconds = DefaultMaxSeconds
	}
	if cfg.MinSeconds < 0 {
		cfg.MinSeconds = 0
	}
	return Machine{Config: cfg, State: Idle}
}

// Transition applies one event and returns the next machine and the effects
// the adapter must run, in order.
func Transition(m Machine, e Event) (Machine, []Effect) {
	if m.Closed {
		if _, ok := e.(StartRequested); ok {
			return m, []Effect{EmitError{Err: internal_type.ErrRecorderClosed}}
		}
		return m, nil
	}

	switch ev := e.(type) {
	case StartRequested:
		return m.start(ev)
	case PermissionGranted:
		if m.State != AwaitingPermission || ev.Gen != m.Gen {
			return m, nil
		}
		m.DeviceHeld = true
		return m.enterRecording()
	case PermissionDenied:
		if m.State != AwaitingPermission || ev.Gen != m.Gen {
			return m, nil
		}
		err := ev.Err
		if err == nil {
			err = internal_type.ErrPermissionDenied
		}
		m.State = Idle
		m.Session.Outcome = OutcomeAborted
		return m, []Effect{EmitError{Err: err}, EmitState{State: Idle}}
	case GraphReady:
		if !m.current(Recording, ev.Gen) {
			return m, nil
		}
		var effects []Effect
		if m.Session.GatingEnabled {
			effects = append(effects, StartVAD{Gen: m.Gen})
		}
		if m.Config.RelayEnabled {
			effects = append(effects, StartRelay{Gen: m.Gen})
		}
		return m, effects
	case GraphFailed:
		if !m.current(Recording, ev.Gen) {
			return m, nil
		}
		m.Session.GatingEnabled = false
		return m, []Effect{LogWarning{Err: wrap(internal_type.ErrGraphInit, ev.Err)}}
	case SinkStarted:
		if !m.current(Recording, ev.Gen) {
			return m, nil
		}
		m.Session.MimeType = ev.MimeType
		return m, nil
	case SinkFailed:
		if !m.current(Recording, ev.Gen) {
			return m, nil
		}
		return m.abort(wrap(internal_type.ErrNoEncoder, ev.Err))
	case TimerTicked:
		if !m.current(Recording, ev.Gen) {
			return m, nil
		}
		var fired bool
		m.Session.Timer, fired = m.Session.Timer.Tick()
		effects := []Effect{EmitTick{Remaining: m.Session.Timer.Remaining(), Elapsed: m.Session.Timer.Elapsed()}}
		if fired {
			next, stop := m.stop(StopTimeout)
			return next, append(effects, stop...)
		}
		return m, effects
	case LevelSampled:
		if !m.current(Recording, ev.Gen) {
			return m, nil
		}
		m.Session.Voice = m.Session.Voice.Observe(ev.RMS)
		return m, []Effect{EmitLevel{RMS: ev.RMS, VoiceObserved: m.Session.Voice.Observed()}}
	case ChunkRecorded:
		if ev.Gen != m.Gen || (m.State != Recording && m.State != Stopping) || len(ev.Data) == 0 {
			return m, nil
		}
		m.Session.Chunks = append(slices.Clip(m.Session.Chunks), ev.Data)
		return m, nil
	case TranscriptReceived:
		if !m.current(Recording, ev.Gen) {
			return m, nil
		}
		delta := ev.Text
		if ev.TurnComplete {
			delta += " "
		}
		if delta == "" {
			return m, nil
		}
		m.Session.Transcript += delta
		return m, []Effect{EmitTranscript{Delta: delta, Text: m.Session.Transcript}}
	case RelayFailed:
		if !m.current(Recording, ev.Gen) {
			return m, nil
		}
		return m, []Effect{
			LogWarning{Err: wrap(internal_type.ErrRelayStream, ev.Err)},
			StopRelay{Gen: m.Gen},
		}
	case StopRequested:
		if m.State != Recording || (ev.Gen != 0 && ev.Gen != m.Gen) {
			return m, nil
		}
		return m.stop(ev.Reason)
	case SinkStopped:
		if !m.current(Stopping, ev.Gen) {
			return m, nil
		}
		var effects []Effect
		if ev.Err != nil {
			effects = append(effects, LogWarning{Err: ev.Err})
		}
		next, resolved := m.resolve()
		return next, append(effects, resolved...)
	case TeardownRequested:
		return m.teardown()
	case EvaluationFinished:
		if !m.current(Completed, ev.Gen) {
			return m, nil
		}
		var effects []Effect
		if ev.Err != nil || ev.Result == nil {
			effects = append(effects, EmitError{Err: wrap(internal_type.ErrEvaluationFailed, ev.Err)})
		} else {
			effects = append(effects, EmitEvaluation{Result: ev.Result})
		}
		m.State = Idle
		return m, append(effects, EmitState{State: Idle})
	}
	return m, nil
}

func (m Machine) current(state State, gen uint64) bool {
	return m.State == state && gen == m.Gen
}

func (m Machine) start(ev StartRequested) (Machine, []Effect) {
	if m.Closing {
		return m, []Effect{EmitError{Err: internal_type.ErrRecorderClosed}}
	}
	if m.State != Idle {
		return m, []Effect{EmitError{Err: internal_type.ErrRecorderBusy}}
	}
	m.Gen++
	m.Session = Session{ID: ev.SessionID, Gen: m.Gen}
	if m.DeviceHeld {
		return m.enterRecording()
	}
	m.State = AwaitingPermission
	return m, []Effect{
		EmitState{State: AwaitingPermission},
		RequestPermission{Gen: m.Gen},
	}
}

// enterRecording resets the per-session fields and starts the hardware side.
func (m Machine) enterRecording() (Machine, []Effect) {
	m.State = Recording
	m.Session.Timer = internal_timer.NewCountdown(m.Config.MaxSeconds)
	m.Session.Chunks = nil
	m.Session.Voice = internal_vad.NewMonitor(m.Config.SilenceThreshold)
	m.Session.GatingEnabled = m.Config.GatingEnabled
	m.Session.Transcript = ""
	m.Session.Outcome = OutcomePending
	return m, []Effect{
		EmitState{State: Recording},
		BuildGraph{Gen: m.Gen, Stream: m.Config.RelayEnabled},
		StartSink{Gen: m.Gen},
		StartTimer{Gen: m.Gen},
		EmitTick{Remaining: m.Session.Timer.Remaining(), Elapsed: 0},
	}
}

// stop is the single entry into Stopping for manual stop, timeout, device end
// and teardown. The order of the stop effects matters: the sink goes last so
// its final flush lands after every other source has gone quiet.
func (m Machine) stop(reason StopReason) (Machine, []Effect) {
	m.State = Stopping
	m.Session.StopReason = reason
	return m, []Effect{
		EmitState{State: Stopping},
		StopTimer{Gen: m.Gen},
		StopVAD{Gen: m.Gen},
		StopRelay{Gen: m.Gen},
		StopSink{Gen: m.Gen},
	}
}

// Check reports why a stopped session cannot complete, or nil when it can.
func (s Session) Check(minSeconds int) error {
	switch {
	case len(s.Chunks) == 0:
		return internal_type.ErrNoAudioCaptured
	case s.Timer.Elapsed() < minSeconds:
		return internal_type.ErrSessionTooShort
	case s.GatingEnabled && !s.Voice.Observed():
		return internal_type.ErrNoSpeechDetected
	}
	return nil
}

func (m Machine) resolve() (Machine, []Effect) {
	if reason := m.Session.Check(m.Config.MinSeconds); reason != nil {
		return m.discard(reason)
	}
	return m.complete()
}

func (m Machine) complete() (Machine, []Effect) {
	artifact := m.Session.Artifact()
	m.Session.Outcome = OutcomeCompleted
	m.State = Completed
	m.DeviceHeld = false
	effects := []Effect{
		CloseGraph{Gen: m.Gen},
		EmitState{State: Completed},
		EmitArtifact{Gen: m.Gen, Artifact: artifact, MimeType: m.Session.MimeType, Elapsed: m.Session.Timer.Elapsed()},
		ReleaseDevice{},
	}
	switch {
	case m.Closing:
		m.State = Idle
		m.Closed = true
		return m, append(effects, EmitState{State: Idle}, CloseGate{}, Finish{})
	case m.Config.EvaluateEnabled:
		return m, append(effects, Evaluate{Gen: m.Gen, Artifact: artifact, MimeType: m.Session.MimeType})
	default:
		m.State = Idle
		return m, append(effects, EmitState{State: Idle})
	}
}

// discard keeps the device handle for an immediate retry unless the session
// ended because of teardown or because the device itself went away.
func (m Machine) discard(reason error) (Machine, []Effect) {
	m.Session.Outcome = OutcomeDiscarded
	m.Session.DiscardReason = reason
	m.State = Idle
	effects := []Effect{
		CloseGraph{Gen: m.Gen},
		EmitState{State: Discarded},
		EmitDiscard{Reason: reason},
	}
	if m.DeviceHeld && (m.Closing || m.Session.StopReason == StopDeviceEnded) {
		m.DeviceHeld = false
		effects = append(effects, ReleaseDevice{})
	}
	effects = append(effects, EmitState{State: Idle})
	if m.Closing {
		m.Closed = true
		effects = append(effects, CloseGate{}, Finish{})
	}
	return m, effects
}

// abort tears a session down before it could record anything useful.
func (m Machine) abort(err error) (Machine, []Effect) {
	m.Session.Outcome = OutcomeAborted
	m.State = Idle
	effects := []Effect{
		StopTimer{Gen: m.Gen},
		StopVAD{Gen: m.Gen},
		StopRelay{Gen: m.Gen},
		CloseGraph{Gen: m.Gen},
		EmitError{Err: err},
		EmitState{State: Idle},
	}
	if m.Closing {
		if m.DeviceHeld {
			m.DeviceHeld = false
			effects = append(effects, ReleaseDevice{})
		}
		m.Closed = true
		effects = append(effects, CloseGate{}, Finish{})
	}
	return m, effects
}

func (m Machine) teardown() (Machine, []Effect) {
	if m.Closing {
		return m, nil
	}
	m.Closing = true
	switch m.State {
	case Recording:
		return m.stop(StopTeardown)
	case Stopping:
		// the pending SinkStopped resolves the session and finishes
		return m, nil
	case AwaitingPermission:
		// invalidate the in-flight request; the gate releases whatever it yields
		m.Gen++
		m.State = Idle
		m.Session.Outcome = OutcomeAborted
		m.Closed = true
		return m, []Effect{EmitState{State: Idle}, CloseGate{}, Finish{}}
	case Completed:
		m.State = Idle
		m.Closed = true
		return m, []Effect{CancelEvaluation{Gen: m.Gen}, EmitState{State: Idle}, CloseGate{}, Finish{}}
	default:
		var effects []Effect
		if m.DeviceHeld {
			m.DeviceHeld = false
			effects = append(effects, ReleaseDevice{})
		}
		m.Closed = true
		return m, append(effects, CloseGate{}, Finish{})
	}
}

func wrap(kind, err error) error {
	if err == nil {
		return kind
	}
	return fmt.Errorf("%w: %w", kind, err)
}
