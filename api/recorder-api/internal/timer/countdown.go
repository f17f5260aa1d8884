// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_timer

import "fmt"

// Countdown is the session time limit as a plain value. The owner replaces it on
// every tick so no goroutine ever shares a mutable counter.
type Countdown struct {
	max       int
	remaining int
	expired   bool
}

func NewCountdown(maxSeconds int) Countdown {
	if maxSeconds < 0 {
		maxSeconds = 0
	}
	return Countdown{max: maxSeconds, remaining: maxSeconds}
}

func (c Countdown) Max() int { return c.max }

func (c Countdown) Remaining() int { return c.remaining }

// Elapsed is the number of whole seconds counted off the limit.
func (c Countdown) Elapsed() int { return c.max - c.remaining }

func (c Countdown) Expired() bool { return c.expired }

// Tick takes one second off the limit. fired is true only on the tick that
// reaches zero; later ticks leave the countdown unchanged.
func (c Countdown) Tick() (next Countdown, fired bool) {
	if c.expired {
		return c, false
	}
	if c.remaining > 0 {
		c.remaining--
	}
	if c.remaining == 0 {
		c.expired = true
		return c, true
	}
	return c, false
}

// String renders the remaining time as m:ss.
func (c Countdown) String() string {
	return fmt.Sprintf("%d:%02d", c.remaining/60, c.remaining%60)
}
