package connector

import (
	"context"
	stderrors "errors"
	"io/fs"
	"os"
	"time"

	"github.com/kbukum/flowc/errors"
	"github.com/kbukum/flowc/logger"
	"github.com/kbukum/flowc/resilience"
)

// OpenRetry governs retries of file opens. Missing files and permission
// errors fail on the first attempt.
var OpenRetry = resilience.RetryConfig{
	MaxAttempts:    3,
	InitialBackoff: 20 * time.Millisecond,
	MaxBackoff:     500 * time.Millisecond,
	BackoffFactor:  2.0,
	Jitter:         0.1,
	RetryIf:        transientOpenError,
}

func transientOpenError(err error) bool {
	if stderrors.Is(err, fs.ErrNotExist) || stderrors.Is(err, fs.ErrPermission) {
		return false
	}
	return resilience.DefaultRetryIf(err)
}

// openFile opens loc for reading. Failures are CONNECTOR_UNAVAILABLE.
func openFile(ctx context.Context, loc Location) (*os.File, error) {
	cfg := OpenRetry
	cfg.OnRetry = func(attempt int, err error, backoff time.Duration) {
		logger.Get("connector").Warn("retrying open", logger.Fields(
			logger.FieldURI, loc.URI, "attempt", attempt, "backoff", backoff.String(), logger.FieldError, err.Error()))
	}
	return resilience.Retry(ctx, cfg, func() (*os.File, error) {
		f, err := os.Open(loc.Path)
		if err != nil {
			return nil, errors.ConnectorUnavailable(loc.URI, err)
		}
		return f, nil
	})
}
