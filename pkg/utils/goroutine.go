// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package utils

import (
	"context"
	"fmt"
	"runtime/debug"
)

// PanicHandler receives a recovered panic from a goroutine started with Go.
type PanicHandler func(ctx context.Context, recovered interface{}, stack []byte)

var panicHandler PanicHandler = func(_ context.Context, recovered interface{}, stack []byte) {
	fmt.Printf("recovered goroutine panic: %v\n%s\n", recovered, stack)
}

// SetPanicHandler replaces the handler used by Go. Call it once during startup.
func SetPanicHandler(h PanicHandler) {
	if h != nil {
		panicHandler = h
	}
}

// Go runs fn on its own goroutine and recovers any panic so a single bad
// callback cannot take the process down.
func Go(ctx context.Context, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				panicHandler(ctx, r, debug.Stack())
			}
		}()
		fn()
	}()
}
