// Copyright (c) 2015-2023 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"os"
	"os/signal"
)

// interruptSignals defines the default signals to catch in order to do a
// proper shutdown.
var interruptSignals = []os.Signal{os.Interrupt}

// shutdownListener returns a context whose done channel is closed when an
// interrupt signal arrives, along with a cancel function for manual use.
func shutdownListener() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		interruptChannel := make(chan os.Signal, 1)
		signal.Notify(interruptChannel, interruptSignals...)

		select {
		case sig := <-interruptChannel:
			appLog.Infof("received signal (%s), shutting down", sig)
			cancel()
		case <-ctx.Done():
		}

		for {
			sig := <-interruptChannel
			appLog.Infof("received signal (%s), already shutting down", sig)
		}
	}()

	return ctx, cancel
}
