package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// Http timeouts
const (
	ReadTimeout    = 5 * time.Second
	WriteTimeout   = 2 * time.Minute
	HandlerTimeout = 90 * time.Second
)

var interruptSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}

// WaitForInterrupt waits for an interrupt
func WaitForInterrupt(ctx context.Context) error {
	c := make(chan os.Signal, 1)
	signal.Notify(c, interruptSignals...)
	defer signal.Stop(c)

	select {
	case sig := <-c:
		return fmt.Errorf("received signal %s", sig)
	case <-ctx.Done():
		return errors.New("canceled")
	}
}

// InterruptContext returns a copy of ctx that is cancelled on an interrupt
func InterruptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, interruptSignals...)
}
