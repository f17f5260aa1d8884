// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_recorder

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	internal_audio_encoder "github.com/rapidaai/speaking-coach/api/recorder-api/internal/audio/encoder"
	internal_audio_graph "github.com/rapidaai/speaking-coach/api/recorder-api/internal/audio/graph"
	internal_permission "github.com/rapidaai/speaking-coach/api/recorder-api/internal/permission"
	internal_session "github.com/rapidaai/speaking-coach/api/recorder-api/internal/session"
	internal_timer "github.com/rapidaai/speaking-coach/api/recorder-api/internal/timer"
	internal_type "github.com/rapidaai/speaking-coach/api/recorder-api/internal/type"
	internal_vad "github.com/rapidaai/speaking-coach/api/recorder-api/internal/vad"
	"github.com/rapidaai/speaking-coach/pkg/commons"
	"github.com/rapidaai/speaking-coach/pkg/utils"
)

// Prompt is what the learner is answering; it travels with the artifact to
// the evaluator.
type Prompt struct {
	Topic    string
	Topics   []string
	Language internal_type.Language
}

// Artifact is the finalized recording of a completed session.
type Artifact struct {
	SessionID string
	Data      []byte
	MimeType  string
	Elapsed   int
}

// Callbacks are invoked on the control loop, in the order things happen.
// They must return quickly and must not call Start or Teardown.
type Callbacks struct {
	OnStateChange func(state internal_session.State)
	OnTick        func(remaining, elapsed int)
	OnLevel       func(rms float64, voiceObserved bool)
	OnTranscript  func(delta, text string)
	OnArtifact    func(artifact Artifact)
	OnDiscard     func(reason error)
	OnError       func(err error)
	OnEvaluation  func(result *internal_type.Evaluation)
}

type Options struct {
	Session internal_session.Config
	// TickInterval is the countdown cadence; one tick is one second of the time limit.
	TickInterval time.Duration
	VADInterval  time.Duration
	NewTicker    internal_timer.TickerFunc

	Sinks internal_audio_encoder.Factory
	// NewGraph builds each session's analysis graph; nil uses the default graph.
	NewGraph func(logger commons.Logger, opts internal_audio_graph.Options) (internal_audio_graph.Graph, error)
	// Relay builds the live transcription relay; nil disables it.
	Relay internal_type.RelayFactory
	// Evaluator scores completed sessions; nil leaves evaluation to the host.
	Evaluator internal_type.Evaluator

	Callbacks Callbacks
}

// Recorder is the capture controller a host drives.
type Recorder interface {
	// Start begins a session. It fails with ErrRecorderBusy while a session is
	// active and ErrRecorderClosed after teardown. When ctx ends before the loop
	// picks the request up, the request is withdrawn and ctx.Err returned; once
	// the loop has it, Start reports the loop's answer instead.
	Start(ctx context.Context, prompt Prompt) error
	// Stop ends the active recording; it is a no-op in any other state.
	Stop()
	// Teardown stops everything, releases the device and waits for the loop to
	// finish. Safe to call more than once.
	Teardown(ctx context.Context) error
	State() internal_session.State
	Remaining() int
	Transcript() string
	Done() <-chan struct{}
}

type envelope struct {
	event  internal_session.Event
	handle internal_type.DeviceHandle
	prompt *Prompt
	reply  chan error
	// claim settles a start between the loop and a caller that gave up on it.
	claim *atomic.Int32
}

const (
	claimPending int32 = iota
	claimTaken
	claimAbandoned
)

type snapshot struct {
	state      internal_session.State
	remaining  int
	transcript string
}

type recorder struct {
	logger commons.Logger
	gate   internal_permission.Gate
	opts   Options

	ctx    context.Context
	cancel context.CancelFunc

	qmu      sync.Mutex
	queue    []envelope
	finished bool
	signal   chan struct{}
	done     chan struct{}

	smu  sync.RWMutex
	snap snapshot

	// owned by the loop goroutine
	machine    internal_session.Machine
	handle     internal_type.DeviceHandle
	prompt     Prompt
	capture    *capture
	evalCancel context.CancelFunc
}

// NewRecorder starts the control loop. The gate is owned by the recorder from
// here on and closed by Teardown.
func NewRecorder(logger commons.Logger, gate internal_permission.Gate, opts Options) Recorder {
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.VADInterval <= 0 {
		opts.VADInterval = internal_vad.DefaultSampleInterval
	}
	if opts.NewTicker == nil {
		opts.NewTicker = internal_timer.NewTicker
	}
	if opts.Sinks == nil {
		opts.Sinks = internal_audio_encoder.NewFactory(logger, internal_audio_encoder.DefaultTimeslice)
	}
	if opts.NewGraph == nil {
		opts.NewGraph = internal_audio_graph.New
	}
	opts.Session.RelayEnabled = opts.Relay != nil
	opts.Session.EvaluateEnabled = opts.Evaluator != nil

	ctx, cancel := context.WithCancel(context.Background())
	r := &recorder{
		logger:  logger,
		gate:    gate,
		opts:    opts,
		ctx:     ctx,
		cancel:  cancel,
		signal:  make(chan struct{}, 1),
		done:    make(chan struct{}),
		machine: internal_session.New(opts.Session),
	}
	r.snap = snapshot{state: internal_session.Idle}
	utils.Go(ctx, r.run)
	return r
}

func (r *recorder) Start(ctx context.Context, prompt Prompt) error {
	if prompt.Language == "" {
		prompt.Language = internal_type.LanguageEnglish
	}
	reply := make(chan error, 1)
	claim := new(atomic.Int32)
	if !r.post(envelope{
		event:  internal_session.StartRequested{SessionID: uuid.NewString()},
		prompt: &prompt,
		reply:  reply,
		claim:  claim,
	}) {
		return internal_type.ErrRecorderClosed
	}
	select {
	case err := <-reply:
		return err
	case <-r.done:
		return internal_type.ErrRecorderClosed
	case <-ctx.Done():
		if claim.CompareAndSwap(claimPending, claimAbandoned) {
			return ctx.Err()
		}
		// the loop took the start first, so its outcome stands
		select {
		case err := <-reply:
			return err
		case <-r.done:
			return internal_type.ErrRecorderClosed
		}
	}
}

func (r *recorder) Stop() {
	r.post(envelope{event: internal_session.StopRequested{Reason: internal_session.StopManual}})
}

func (r *recorder) Teardown(ctx context.Context) error {
	r.post(envelope{event: internal_session.TeardownRequested{}})
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *recorder) State() internal_session.State {
	r.smu.RLock()
	defer r.smu.RUnlock()
	return r.snap.state
}

func (r *recorder) Remaining() int {
	r.smu.RLock()
	defer r.smu.RUnlock()
	return r.snap.remaining
}

func (r *recorder) Transcript() string {
	r.smu.RLock()
	defer r.smu.RUnlock()
	return r.snap.transcript
}

func (r *recorder) Done() <-chan struct{} { return r.done }

// post queues an event for the loop. It never blocks, so any goroutine,
// including ones the loop waits on, may call it.
func (r *recorder) post(env envelope) bool {
	r.qmu.Lock()
	if r.finished {
		r.qmu.Unlock()
		return false
	}
	r.queue = append(r.queue, env)
	r.qmu.Unlock()
	select {
	case r.signal <- struct{}{}:
	default:
	}
	return true
}

func (r *recorder) emit(e internal_session.Event) { r.post(envelope{event: e}) }

func (r *recorder) next() (envelope, bool) {
	r.qmu.Lock()
	defer r.qmu.Unlock()
	if len(r.queue) == 0 {
		return envelope{}, false
	}
	env := r.queue[0]
	r.queue[0] = envelope{}
	r.queue = r.queue[1:]
	return env, true
}

func (r *recorder) run() {
	defer r.cancel()
	for range r.signal {
		for {
			env, ok := r.next()
			if !ok {
				break
			}
			if r.dispatch(env) {
				return
			}
		}
	}
}

// dispatch runs one event through the machine and executes its effects. It
// reports whether the recorder has finished.
func (r *recorder) dispatch(env envelope) bool {
	if env.claim != nil && !env.claim.CompareAndSwap(claimPending, claimTaken) {
		r.logger.Debugf("dropping start abandoned by its caller")
		return false
	}
	prev := r.machine
	if _, ok := env.event.(internal_session.StartRequested); ok && prev.State == internal_session.Idle && r.handle != nil {
		if n := dropBuffered(r.handle); n > 0 {
			r.logger.Debugf("dropped %d frames buffered before session start", n)
		}
	}
	next, effects := internal_session.Transition(prev, env.event)
	r.machine = next

	if next.Gen != prev.Gen && env.prompt != nil {
		r.prompt = *env.prompt
	}
	if _, ok := env.event.(internal_session.PermissionGranted); ok &&
		prev.State == internal_session.AwaitingPermission && next.State == internal_session.Recording {
		r.handle = env.handle
	}

	var replied error
	if env.reply != nil {
		for _, eff := range effects {
			if e, ok := eff.(internal_session.EmitError); ok {
				replied = e.Err
				break
			}
		}
		env.reply <- replied
	}

	r.smu.Lock()
	r.snap = snapshot{
		state:      next.State,
		remaining:  next.Session.Timer.Remaining(),
		transcript: next.Session.Transcript,
	}
	r.smu.Unlock()

	finished := false
	for _, eff := range effects {
		if e, ok := eff.(internal_session.EmitError); ok && replied != nil && e.Err == replied {
			continue
		}
		if r.execute(eff) {
			finished = true
		}
	}
	return finished
}
