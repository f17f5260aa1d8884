// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_recorder

import (
	"context"
	"time"

	internal_audio_graph "github.com/rapidaai/speaking-coach/api/recorder-api/internal/audio/graph"
	internal_session "github.com/rapidaai/speaking-coach/api/recorder-api/internal/session"
	internal_timer "github.com/rapidaai/speaking-coach/api/recorder-api/internal/timer"
	internal_type "github.com/rapidaai/speaking-coach/api/recorder-api/internal/type"
	internal_vad "github.com/rapidaai/speaking-coach/api/recorder-api/internal/vad"
	"github.com/rapidaai/speaking-coach/pkg/utils"
)

// execute runs one effect on the loop goroutine and reports whether it was
// the final one.
func (r *recorder) execute(effect internal_session.Effect) bool {
	cb := r.opts.Callbacks
	switch e := effect.(type) {
	case internal_session.RequestPermission:
		r.requestPermission(e.Gen)
	case internal_session.ReleaseDevice:
		r.handle = nil
		if err := r.gate.Release(); err != nil {
			r.logger.Warnf("failed to release device: %v", err)
		}
	case internal_session.CloseGate:
		r.handle = nil
		if err := r.gate.Close(); err != nil {
			r.logger.Warnf("failed to close permission gate: %v", err)
		}

	case internal_session.BuildGraph:
		r.buildGraph(e)
	case internal_session.CloseGraph:
		if c := r.current(e.Gen); c != nil && c.graph != nil {
			_ = c.graph.Close()
			c.graph = nil
		}
	case internal_session.StartSink:
		r.startSink(e.Gen)
	case internal_session.StopSink:
		r.stopSink(e.Gen)
	case internal_session.StartTimer:
		if c := r.current(e.Gen); c != nil {
			gen := e.Gen
			c.countdown = internal_timer.NewInterval(r.logger, "countdown", r.opts.TickInterval, r.opts.NewTicker, func(time.Time) {
				r.emit(internal_session.TimerTicked{Gen: gen})
			})
			c.countdown.Start(r.ctx)
		}
	case internal_session.StopTimer:
		if c := r.current(e.Gen); c != nil && c.countdown != nil {
			c.countdown.Stop()
		}
	case internal_session.StartVAD:
		if c := r.current(e.Gen); c != nil && c.graph != nil {
			gen := e.Gen
			c.sampler = internal_vad.NewSampler(r.logger, c.graph.Analyser(), r.opts.VADInterval, r.opts.NewTicker, func(rms float64) {
				r.emit(internal_session.LevelSampled{Gen: gen, RMS: rms})
			})
			c.sampler.Start(r.ctx)
		}
	case internal_session.StopVAD:
		if c := r.current(e.Gen); c != nil && c.sampler != nil {
			c.sampler.Stop()
		}
	case internal_session.StartRelay:
		r.startRelay(e.Gen)
	case internal_session.StopRelay:
		if c := r.current(e.Gen); c != nil {
			if relay := c.detachRelay(); relay != nil {
				if err := relay.Close(); err != nil {
					r.logger.Debugf("relay %s close: %v", relay.Name(), err)
				}
			}
		}

	case internal_session.Evaluate:
		r.evaluate(e)
	case internal_session.CancelEvaluation:
		if r.evalCancel != nil {
			r.evalCancel()
			r.evalCancel = nil
		}

	case internal_session.EmitState:
		r.logger.Debugw("recorder state", "state", e.State.String(), "generation", r.machine.Gen)
		if cb.OnStateChange != nil {
			cb.OnStateChange(e.State)
		}
	case internal_session.EmitTick:
		if cb.OnTick != nil {
			cb.OnTick(e.Remaining, e.Elapsed)
		}
	case internal_session.EmitLevel:
		if cb.OnLevel != nil {
			cb.OnLevel(e.RMS, e.VoiceObserved)
		}
	case internal_session.EmitTranscript:
		if cb.OnTranscript != nil {
			cb.OnTranscript(e.Delta, e.Text)
		}
	case internal_session.EmitArtifact:
		r.emitArtifact(e)
	case internal_session.EmitDiscard:
		r.logger.Infow("session discarded", "session", r.machine.Session.ID, "reason", e.Reason.Error())
		if cb.OnDiscard != nil {
			cb.OnDiscard(e.Reason)
		}
	case internal_session.EmitError:
		r.logger.Errorw("recorder error", "error", e.Err.Error())
		if cb.OnError != nil {
			cb.OnError(e.Err)
		}
	case internal_session.EmitEvaluation:
		if cb.OnEvaluation != nil {
			cb.OnEvaluation(e.Result)
		}
	case internal_session.LogWarning:
		r.logger.Warnw("recorder degraded", "error", e.Err.Error())

	case internal_session.Finish:
		r.finish()
		return true
	}
	return false
}

// current returns the capture of gen, or nil when it belongs to an older
// session.
func (r *recorder) current(gen uint64) *capture {
	if r.capture == nil || r.capture.gen != gen {
		return nil
	}
	return r.capture
}

func (r *recorder) requestPermission(gen uint64) {
	ctx := r.ctx
	utils.Go(ctx, func() {
		handle, err := r.gate.RequestAccess(ctx)
		if err != nil {
			r.emit(internal_session.PermissionDenied{Gen: gen, Err: err})
			return
		}
		r.post(envelope{event: internal_session.PermissionGranted{Gen: gen}, handle: handle})
	})
}

func (r *recorder) buildGraph(e internal_session.BuildGraph) {
	c := newCapture(e.Gen)
	r.capture = c
	if r.handle == nil {
		r.emit(internal_session.GraphFailed{Gen: e.Gen, Err: internal_type.ErrPermissionDenied})
		return
	}
	opts := internal_audio_graph.Options{Format: r.handle.Format()}
	if e.Stream {
		opts.OnBlock = r.sendBlock(c)
	}
	graph, err := r.opts.NewGraph(r.logger, opts)
	if err != nil {
		r.emit(internal_session.GraphFailed{Gen: e.Gen, Err: err})
		return
	}
	c.graph = graph
	r.emit(internal_session.GraphReady{Gen: e.Gen})
}

func (r *recorder) startSink(gen uint64) {
	c := r.current(gen)
	if c == nil || r.handle == nil {
		r.emit(internal_session.SinkFailed{Gen: gen, Err: internal_type.ErrNoAudioCaptured})
		return
	}
	start := time.Now()
	sink, err := r.opts.Sinks.Open(r.handle.Format())
	if err != nil {
		r.emit(internal_session.SinkFailed{Gen: gen, Err: err})
		return
	}
	r.logger.Benchmark("recorder.startSink", time.Since(start))
	c.sink = sink
	r.startPump(c, r.handle)
	r.emit(internal_session.SinkStarted{Gen: gen, MimeType: sink.MimeType()})
}

// stopSink quiesces the pump, flushes the sink and queues the final chunks
// ahead of SinkStopped.
func (r *recorder) stopSink(gen uint64) {
	c := r.current(gen)
	if c == nil || c.sink == nil {
		r.emit(internal_session.SinkStopped{Gen: gen})
		return
	}
	c.stopPump()
	chunks, err := c.sink.Stop()
	for _, chunk := range chunks {
		r.emit(internal_session.ChunkRecorded{Gen: gen, Data: chunk})
	}
	r.emit(internal_session.SinkStopped{Gen: gen, Err: err})
}

func (r *recorder) startRelay(gen uint64) {
	c := r.current(gen)
	if c == nil || r.opts.Relay == nil {
		return
	}
	relay, err := r.opts.Relay()
	if err != nil {
		r.emit(internal_session.RelayFailed{Gen: gen, Err: err})
		return
	}
	utils.Go(r.ctx, func() {
		start := time.Now()
		if err := relay.Open(r.ctx, relayListener{r: r, gen: gen}); err != nil {
			r.emit(internal_session.RelayFailed{Gen: gen, Err: err})
			return
		}
		if !c.attachRelay(relay) {
			// the session stopped while the relay was still connecting
			_ = relay.Close()
			return
		}
		r.logger.Benchmark("recorder.startRelay."+relay.Name(), time.Since(start))
	})
}

func (r *recorder) emitArtifact(e internal_session.EmitArtifact) {
	data := e.Artifact
	if c := r.current(e.Gen); c != nil && c.sink != nil {
		sealed, err := c.sink.Finalize(e.Artifact)
		if err != nil {
			r.logger.Warnf("failed to finalize %s artifact: %v", e.MimeType, err)
		} else {
			data = sealed
		}
		c.artifact = data
	}
	r.logger.Infow("session completed",
		"session", r.machine.Session.ID,
		"mime_type", e.MimeType,
		"bytes", len(data),
		"elapsed_seconds", e.Elapsed,
	)
	if r.opts.Callbacks.OnArtifact != nil {
		r.opts.Callbacks.OnArtifact(Artifact{
			SessionID: r.machine.Session.ID,
			Data:      data,
			MimeType:  e.MimeType,
			Elapsed:   e.Elapsed,
		})
	}
}

func (r *recorder) evaluate(e internal_session.Evaluate) {
	audio := e.Artifact
	if c := r.current(e.Gen); c != nil && c.artifact != nil {
		audio = c.artifact
	}
	req := internal_type.EvaluationRequest{
		Audio:    audio,
		MimeType: e.MimeType,
		Topic:    r.prompt.Topic,
		Topics:   append([]string(nil), r.prompt.Topics...),
		Language: r.prompt.Language,
	}
	ctx, cancel := context.WithCancel(r.ctx)
	r.evalCancel = cancel
	gen := e.Gen
	utils.Go(ctx, func() {
		defer cancel()
		result, err := r.opts.Evaluator.Evaluate(ctx, req)
		r.emit(internal_session.EvaluationFinished{Gen: gen, Result: result, Err: err})
	})
}

func (r *recorder) finish() {
	r.qmu.Lock()
	r.finished = true
	r.queue = nil
	r.qmu.Unlock()
	r.capture = nil
	r.logger.Debugf("recorder finished")
	close(r.done)
}
