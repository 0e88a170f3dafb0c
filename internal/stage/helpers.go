package stage

import (
	"fmt"

	"overdub/internal/jobs"
)

// TranslationID returns the deterministic external identifier used when
// creating a translation for a job. Re-running the step after a crash reuses
// the same identifier so the remote service deduplicates the request.
func TranslationID(job *jobs.Job) string {
	return fmt.Sprintf("tr-%s", job.JobKey)
}

// IterationID returns the deterministic external identifier for the job's
// current iteration.
func IterationID(job *jobs.Job) string {
	return fmt.Sprintf("it-%s-%d", job.JobKey, job.IterationNumber)
}
