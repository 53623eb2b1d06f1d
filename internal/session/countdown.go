package session

import (
	"context"
	"time"
)

// Countdown turns a server deadline into whole-second ticks for display.
// The channel emits the remaining seconds once per second and closes at
// zero or when ctx is done. Purely visual: the server enforces the real
// timeout.
func Countdown(ctx context.Context, deadlineMS int64) <-chan int {
	out := make(chan int, 1)
	go func() {
		defer close(out)
		deadline := time.UnixMilli(deadlineMS)
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		send := func() bool {
			remaining := int(time.Until(deadline).Round(time.Second) / time.Second)
			if remaining <= 0 {
				select {
				case out <- 0:
				case <-ctx.Done():
				}
				return false
			}
			select {
			case out <- remaining:
			case <-ctx.Done():
				return false
			}
			return true
		}

		if !send() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !send() {
					return
				}
			}
		}
	}()
	return out
}
