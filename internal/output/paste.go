package output

import (
	"context"
	"fmt"
	"time"

	"github.com/rbright/assist/internal/hypr"
)

const (
	focusAttempts = 5
	focusDelay    = 10 * time.Millisecond
)

// pasteFocused sends the paste shortcut to whichever window has focus.
// Focus can settle a moment after the clipboard write, so the lookup is
// retried briefly.
func pasteFocused(ctx context.Context, shortcut string) error {
	w, err := retry(ctx, focusAttempts, focusDelay, hypr.FocusedWindow)
	if err != nil {
		return fmt.Errorf("resolve focused window: %w", err)
	}
	target, err := hypr.ShortcutTarget(shortcut, w)
	if err != nil {
		return err
	}
	return hypr.SendShortcut(ctx, target)
}

// retry calls fn up to attempts times, sleeping delay between failures.
// It returns the last error, or the context error if ctx ends first.
func retry[T any](ctx context.Context, attempts int, delay time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	for i := 1; ; i++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if i >= attempts {
			return zero, err
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}
