// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_session

type State int

const (
	Idle State = iota
	AwaitingPermission
	Recording
	Stopping
	Completed
	Discarded
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingPermission:
		return "awaiting_permission"
	case Recording:
		return "recording"
	case Stopping:
		return "stopping"
	case Completed:
		return "completed"
	case Discarded:
		return "discarded"
	default:
		return "unknown"
	}
}

// StopReason records which entry point moved a session into Stopping.
type StopReason int

const (
	StopNone StopReason = iota
	StopManual
	StopTimeout
	StopTeardown
	StopDeviceEnded
)

func (r StopReason) String() string {
	switch r {
	case StopManual:
		return "manual"
	case StopTimeout:
		return "timeout"
	case StopTeardown:
		return "teardown"
	case StopDeviceEnded:
		return "device_ended"
	default:
		return "none"
	}
}

type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeCompleted
	OutcomeDiscarded
	OutcomeAborted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeDiscarded:
		return "discarded"
	case OutcomeAborted:
		return "aborted"
	default:
		return "pending"
	}
}
