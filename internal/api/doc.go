// Package api defines wire-format types and the application service shared
// by the IPC and HTTP surfaces. It translates internal job models into
// transport-friendly DTOs so neither surface couples to storage types.
//
// DTOs use camelCase JSON tags. Internal enums (jobs.Status, review
// recommendations) are exposed as lowercase strings. Timestamps use RFC3339
// with milliseconds. Review and decision payloads are passed through as
// json.RawMessage to avoid double-encoding.
package api
