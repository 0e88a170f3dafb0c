// Package workflow advances translation jobs through the configured
// processing stages.
//
// The Manager polls the job store and hands each runnable job to its own
// runner goroutine, bounded by the configured active-job ceiling. A runner
// executes the job's stages strictly forward (validate, create translation,
// await readiness, create iteration, process, copy outputs, review, approval
// gate), persisting state before and after every stage so a daemon restart
// resumes from the last checkpoint. Stage failures are classified through the
// services error taxonomy and recorded on the job; panics are recovered at
// the runner boundary and mapped to a failed status.
package workflow
