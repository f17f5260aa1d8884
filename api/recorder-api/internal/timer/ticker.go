// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_timer

import (
	"sync"
	"time"
)

// Ticker is the part of time.Ticker the intervals depend on.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc builds a ticker for the given period.
type TickerFunc func(period time.Duration) Ticker

type realTicker struct {
	t *time.Ticker
}

func (r *realTicker) C() <-chan time.Time { return r.t.C }
func (r *realTicker) Stop() { r.t.Stop() }

// NewTicker is the production TickerFunc.
func NewTicker(period time.Duration) Ticker {
	return &realTicker{t: time.NewTicker(period)}
}

// ManualTicker only fires when told to.
type ManualTicker struct {
	period  time.Duration
	c       chan time.Time
	stopped chan struct{}
	once    sync.Once
}

func (m *ManualTicker) C() <-chan time.Time { return m.c }

func (m *ManualTicker) Stop() {
	m.once.Do(func() { close(m.stopped) })
}

func (m *ManualTicker) Period() time.Duration { return m.period }

// Fire delivers one tick and reports whether a reader took it before the
// ticker was stopped.
func (m *ManualTicker) Fire() bool {
	select {
	case <-m.stopped:
		return false
	default:
	}
	select {
	case m.c <- time.Now():
		return true
	case <-m.stopped:
		return false
	}
}

// ManualClock hands out ManualTickers and remembers them by period.
type ManualClock struct {
	mu      sync.Mutex
	tickers []*ManualTicker
	created chan *ManualTicker
}

func NewManualClock() *ManualClock {
	return &ManualClock{created: make(chan *ManualTicker, 64)}
}

func (c *ManualClock) NewTicker(period time.Duration) Ticker {
	t := &ManualTicker{
		period:  period,
		c:       make(chan time.Time),
		stopped: make(chan struct{}),
	}
	c.mu.Lock()
	c.tickers = append(c.tickers, t)
	c.mu.Unlock()
	select {
	case c.created <- t:
	default:
	}
	return t
}

// Latest returns the most recent ticker created with the given period, or nil.
func (c *ManualClock) Latest(period time.Duration) *ManualTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.tickers) - 1; i >= 0; i-- {
		if c.tickers[i].period == period {
			return c.tickers[i]
		}
	}
	return nil
}

// Await blocks until a ticker with the given period exists or the timeout passes.
func (c *ManualClock) Await(period, timeout time.Duration) *ManualTicker {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if t := c.Latest(period); t != nil {
			return t
		}
		time.Sleep(time.Millisecond)
	}
	return nil
}
