package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// forceExit is replaced in tests.
var forceExit = os.Exit

// shutdownContext derives a context for the mirror loop. The first SIGINT or
// SIGTERM cancels it: the loop stops once the pass in progress has finished,
// since a pass is never interrupted midway. A second signal exits at once
// with status 1 for a pass that will not finish. The returned stop function
// unregisters the handler.
func shutdownContext(parent context.Context, logger *slog.Logger) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})

	go func() {
		defer signal.Stop(sigCh)

		select {
		case sig := <-sigCh:
			logger.Info("received signal, stopping after the current pass",
				slog.String("signal", sig.String()),
			)
			cancel()
		case <-done:
			return
		case <-parent.Done():
			return
		}

		select {
		case sig := <-sigCh:
			logger.Warn("received second signal, exiting without finishing the pass",
				slog.String("signal", sig.String()),
			)
			forceExit(1)
		case <-done:
		}
	}()

	return ctx, func() {
		close(done)
		cancel()
	}
}
