// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_type

import (
	"errors"
	"fmt"
)

var (
	ErrPermissionDenied = errors.New("microphone permission denied")
	ErrGraphInit        = errors.New("audio graph initialization failed")

	ErrEmptyOrSilentSession = errors.New("empty or silent session")
	ErrSessionTooShort      = fmt.Errorf("%w: recording too short", ErrEmptyOrSilentSession)
	ErrNoSpeechDetected     = fmt.Errorf("%w: no speech detected", ErrEmptyOrSilentSession)
	ErrNoAudioCaptured      = fmt.Errorf("%w: no audio captured", ErrEmptyOrSilentSession)

	ErrRelayStream      = errors.New("transcription relay stream error")
	ErrEvaluationFailed = errors.New("evaluation failed")
	ErrRecorderClosed   = errors.New("recorder closed")
	ErrRecorderBusy     = errors.New("recorder busy")
	ErrNoEncoder        = errors.New("no supported audio encoder")
)

// UserMessage maps an error onto the short text shown to a learner. Internal
// detail never leaks through it.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPermissionDenied):
		return "Microphone access needed. Allow it and try again."
	case errors.Is(err, ErrSessionTooShort):
		return "Recording too short, try again."
	case errors.Is(err, ErrEmptyOrSilentSession):
		return "No speech detected, try again."
	case errors.Is(err, ErrEvaluationFailed):
		return "We could not evaluate your answer. Please try again."
	case errors.Is(err, ErrRecorderBusy):
		return "A recording is already in progress."
	case errors.Is(err, ErrNoEncoder):
		return "Recording is not supported on this device."
	default:
		return "Something went wrong, try again."
	}
}
