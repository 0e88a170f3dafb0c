// Package jobs persists translation jobs in SQLite and defines the job
// lifecycle the workflow manager drives.
//
// A job moves through a strict forward sequence of statuses; the store is the
// single source of truth read by the orchestrator, the IPC surface, and the
// HTTP API. Every workflow step persists its outcome here before the next
// step runs, so a daemon restart resumes from the last checkpoint. Statuses
// that represent in-flight work roll back to their stage start status on
// startup; the external calls behind each stage use deterministic
// identifiers, so re-running a step is safe.
package jobs
