// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_type

import "context"

// TranscriptEvent is one incremental update from a live transcription relay.
type TranscriptEvent struct {
	Text         string
	TurnComplete bool
}

// TranscriptListener receives relay events. Implementations must not block.
type TranscriptListener interface {
	OnTranscript(TranscriptEvent)
	OnRelayError(error)
}

// TranscriptionRelay forwards 16kHz mono PCM16 blocks to a remote speech
// service and reports transcript text back through the listener.
type TranscriptionRelay interface {
	Name() string
	// Open dials the remote service and starts the receive side. It blocks
	// until the session is established or ctx is done.
	Open(ctx context.Context, listener TranscriptListener) error
	SendAudio(pcm16 []byte) error
	// Close ends the session; closing twice is a no-op.
	Close() error
}

// RelayFactory builds a fresh relay for each recording session.
type RelayFactory func() (TranscriptionRelay, error)
