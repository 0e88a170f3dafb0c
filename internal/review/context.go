package review

import "context"

// JobContext exposes the read-only job data agents may request through tool
// calls. Implementations are shared across the concurrent specialists and
// must be safe for concurrent reads.
type JobContext interface {
	JobInfo(ctx context.Context) (string, error)
	SourceSubtitles(ctx context.Context) (string, error)
	TargetSubtitles(ctx context.Context) (string, error)
	SourceLocale() string
	TargetLocale() string
}
