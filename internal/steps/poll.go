package steps

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"overdub/internal/jobs"
	"overdub/internal/logging"
	"overdub/internal/services"
)

type pollSpec struct {
	name     string
	what     string
	interval time.Duration
	timeout  time.Duration
}

// pollUntil runs check on a fixed interval until it reports done, fails
// non-transiently, or the bounded ceiling passes. Transient status-fetch
// errors keep the loop alive; the deadline converts them into a timeout.
func pollUntil(ctx context.Context, logger *slog.Logger, job *jobs.Job, spec pollSpec, check func(context.Context) (bool, string, error)) error {
	deadline := time.Now().Add(spec.timeout)
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		done, status, err := check(ctx)
		switch {
		case err != nil && services.IsTransient(err):
			logger.Warn("status poll failed, retrying",
				logging.Int64(logging.FieldJobID, job.ID),
				logging.Error(err),
			)
		case err != nil:
			return err
		case done:
			return nil
		default:
			job.StatusMessage = fmt.Sprintf("Waiting for %s (%s)", spec.what, status)
		}

		if time.Now().After(deadline) {
			return services.Wrap(services.ErrTimeout, spec.name, "poll",
				fmt.Sprintf("%s not reached within %s", spec.what, spec.timeout), nil)
		}
		timer.Reset(spec.interval)
	}
}
