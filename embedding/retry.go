// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package embedding

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/poiesic/catalogit/ai"
	"github.com/poiesic/catalogit/core"
)

// MaxRetryDelay caps the backoff between two attempts.
const MaxRetryDelay = 30 * time.Second

// RetryWithBackoff calls operation until it succeeds, maxAttempts is
// reached, ctx is done or the error is permanent. The delay starts at
// baseDelay and doubles per attempt up to MaxRetryDelay.
// Returns the error from the last attempt.
func RetryWithBackoff(ctx context.Context, operation func() error, maxAttempts int, baseDelay time.Duration) error {
	if maxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = operation()
		if lastErr == nil {
			if attempt > 1 {
				slog.Debug("embedding succeeded after retry", "attempt", attempt)
			}
			return nil
		}
		if isPermanent(lastErr) {
			return lastErr
		}
		if attempt == maxAttempts {
			break
		}

		delay := min(baseDelay<<(attempt-1), MaxRetryDelay)
		slog.Debug("embedding failed, retrying", "attempt", attempt, "max_attempts", maxAttempts, "delay", delay, "err", lastErr)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}

// isPermanent reports errors that a retry with the same input cannot fix.
func isPermanent(err error) bool {
	return errors.Is(err, ai.ErrEmptyInput) ||
		errors.Is(err, ai.ErrDimensionMismatch) ||
		errors.Is(err, ai.ErrInvalidConfig) ||
		errors.Is(err, core.ErrValidation) ||
		errors.Is(err, context.Canceled)
}
