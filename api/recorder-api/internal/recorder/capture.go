// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_recorder

import (
	"sync"

	internal_audio_encoder "github.com/rapidaai/speaking-coach/api/recorder-api/internal/audio/encoder"
	internal_audio_graph "github.com/rapidaai/speaking-coach/api/recorder-api/internal/audio/graph"
	internal_session "github.com/rapidaai/speaking-coach/api/recorder-api/internal/session"
	internal_timer "github.com/rapidaai/speaking-coach/api/recorder-api/internal/timer"
	internal_type "github.com/rapidaai/speaking-coach/api/recorder-api/internal/type"
	internal_vad "github.com/rapidaai/speaking-coach/api/recorder-api/internal/vad"
	"github.com/rapidaai/speaking-coach/pkg/utils"
)

// capture holds the hardware side of one generation. Only the loop touches
// its fields, except the relay slot which the pump reads.
type capture struct {
	gen uint64

	graph     internal_audio_graph.Graph
	sink      internal_audio_encoder.Sink
	countdown *internal_timer.Interval
	sampler   *internal_vad.Sampler
	artifact  []byte

	pumpStop chan struct{}
	pumpDone chan struct{}

	relayMu     sync.Mutex
	relay       internal_type.TranscriptionRelay
	relayClosed bool
}

func newCapture(gen uint64) *capture {
	return &capture{gen: gen}
}

// attachRelay installs a relay that finished opening. A relay that arrives
// after the session stopped it is closed straight away.
func (c *capture) attachRelay(relay internal_type.TranscriptionRelay) bool {
	c.relayMu.Lock()
	defer c.relayMu.Unlock()
	if c.relayClosed {
		return false
	}
	c.relay = relay
	return true
}

func (c *capture) detachRelay() internal_type.TranscriptionRelay {
	c.relayMu.Lock()
	defer c.relayMu.Unlock()
	c.relayClosed = true
	relay := c.relay
	c.relay = nil
	return relay
}

func (c *capture) currentRelay() internal_type.TranscriptionRelay {
	c.relayMu.Lock()
	defer c.relayMu.Unlock()
	return c.relay
}

// sendBlock forwards one streamed PCM16 block to the relay, if one is open.
func (r *recorder) sendBlock(c *capture) func([]byte) {
	return func(pcm16 []byte) {
		relay := c.currentRelay()
		if relay == nil {
			return
		}
		if err := relay.SendAudio(pcm16); err != nil {
			r.emit(internal_session.RelayFailed{Gen: c.gen, Err: err})
		}
	}
}

func (r *recorder) startPump(c *capture, handle internal_type.DeviceHandle) {
	c.pumpStop = make(chan struct{})
	c.pumpDone = make(chan struct{})
	graph, sink := c.graph, c.sink
	stop, done := c.pumpStop, c.pumpDone
	utils.Go(r.ctx, func() { r.pump(c.gen, handle.Frames(), graph, sink, stop, done) })
}

// dropBuffered discards the frames a held device queued while no session was
// reading it. Only what is queued on entry is dropped.
func dropBuffered(handle internal_type.DeviceHandle) int {
	frames := handle.Frames()
	dropped := 0
	for n := len(frames); n > 0; n-- {
		select {
		case _, ok := <-frames:
			if !ok {
				return dropped
			}
			dropped++
		default:
			return dropped
		}
	}
	return dropped
}

// pump fans captured frames out to the graph and the sink and forwards
// completed chunks. It never blocks on the loop.
func (r *recorder) pump(
	gen uint64,
	frames <-chan internal_type.AudioFrame,
	graph internal_audio_graph.Graph,
	sink internal_audio_encoder.Sink,
	stop <-chan struct{},
	done chan<- struct{},
) {
	defer close(done)
	for {
		select {
		case <-stop:
			return
		case frame, ok := <-frames:
			if !ok {
				r.logger.Infof("device stream ended during session %d", gen)
				r.emit(internal_session.StopRequested{Gen: gen, Reason: internal_session.StopDeviceEnded})
				return
			}
			if graph != nil {
				graph.Process(frame)
			}
			if err := sink.Write(frame); err != nil {
				r.logger.Warnf("sink rejected frame: %v", err)
				continue
			}
			select {
			case <-sink.Ready():
				for _, chunk := range sink.Drain() {
					r.emit(internal_session.ChunkRecorded{Gen: gen, Data: chunk})
				}
			default:
			}
		}
	}
}

// stopPump returns once the pump has exited, so nothing writes the sink after.
func (c *capture) stopPump() {
	if c.pumpStop == nil {
		return
	}
	select {
	case <-c.pumpStop:
	default:
		close(c.pumpStop)
	}
	<-c.pumpDone
}

type relayListener struct {
	r   *recorder
	gen uint64
}

func (l relayListener) OnTranscript(e internal_type.TranscriptEvent) {
	l.r.emit(internal_session.TranscriptReceived{Gen: l.gen, Text: e.Text, TurnComplete: e.TurnComplete})
}

func (l relayListener) OnRelayError(err error) {
	l.r.emit(internal_session.RelayFailed{Gen: l.gen, Err: err})
}
