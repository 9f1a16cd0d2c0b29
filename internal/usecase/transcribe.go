package usecase

import (
	"context"
	"fmt"
	"time"

	"hotmic/internal/domain"
	"hotmic/internal/ports"
)

type transcribeResult struct {
	text string
	err  error
}

// transcribeWithTimeout races engine against timeout. The losing call is
// cancelled through its context and its result dropped.
func transcribeWithTimeout(ctx context.Context, engine ports.Transcriber, path string, timeout time.Duration) (string, error) {
	if engine == nil {
		return "", domain.ErrNotInitialized
	}

	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan transcribeResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- transcribeResult{err: fmt.Errorf("transcriber panicked: %v", r)}
			}
		}()
		text, err := engine.Transcribe(callCtx, path)
		done <- transcribeResult{text: text, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		return res.text, res.err
	case <-timer.C:
		return "", domain.ErrTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
