// Package services holds the cross-cutting error taxonomy and context
// annotations shared by the workflow manager, stage handlers, and the
// external service clients.
//
// Errors produced by stages and clients are tagged with one of the exported
// sentinel markers via Wrap. The workflow manager classifies failures with
// FailureKind: validation and configuration errors are never retried,
// transient errors are retried by the callers' retry policies, timeout
// errors are terminal but reported distinctly from API-reported failures,
// and degraded errors are absorbed without failing the job.
package services
