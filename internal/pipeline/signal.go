package pipeline

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// SignalContext derives a context that is cancelled on SIGTERM or SIGINT.
// onSignal, when non-nil, is called with the received signal before
// cancellation. The returned stop function releases the signal handler.
func SignalContext(parent context.Context, onSignal func(os.Signal)) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		select {
		case sig := <-sigChan:
			if onSignal != nil {
				onSignal(sig)
			}
			cancel()
		case <-ctx.Done():
			// Context was cancelled elsewhere
		}
	}()

	stop := func() {
		signal.Stop(sigChan)
		cancel()
	}
	return ctx, stop
}
