// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_timer

import (
	"context"
	"sync"
	"time"

	"github.com/rapidaai/speaking-coach/pkg/commons"
	"github.com/rapidaai/speaking-coach/pkg/utils"
)

// Interval calls fn on every tick until stopped. Stop never waits for the
// loop goroutine, so it is safe to call from inside fn or from the goroutine
// that consumes what fn produces.
type Interval struct {
	logger    commons.Logger
	name      string
	period    time.Duration
	newTicker TickerFunc
	fn        func(time.Time)

	mu      sync.Mutex
	started bool
	stopped bool
	stopCh  chan struct{}
}

func NewInterval(logger commons.Logger, name string, period time.Duration, newTicker TickerFunc, fn func(time.Time)) *Interval {
	if newTicker == nil {
		newTicker = NewTicker
	}
	return &Interval{
		logger:    logger,
		name:      name,
		period:    period,
		newTicker: newTicker,
		fn:        fn,
		stopCh:    make(chan struct{}),
	}
}

// Start begins ticking. An interval runs at most once; a stopped interval
// cannot be restarted.
func (i *Interval) Start(ctx context.Context) {
	i.mu.Lock()
	if i.started || i.stopped {
		i.mu.Unlock()
		return
	}
	i.started = true
	ticker := i.newTicker(i.period)
	i.mu.Unlock()

	i.logger.Debugf("interval %s started with period %s", i.name, i.period)
	utils.Go(ctx, func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-i.stopCh:
				return
			case at := <-ticker.C():
				if i.Stopped() {
					return
				}
				i.fn(at)
			}
		}
	})
}

func (i *Interval) Stopped() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.stopped
}

// Stop is idempotent.
func (i *Interval) Stop() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.stopped {
		return
	}
	i.stopped = true
	close(i.stopCh)
	i.logger.Debugf("interval %s stopped", i.name)
}
