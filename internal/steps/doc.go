// Package steps provides the concrete stage handlers the workflow manager
// drives: request validation, translation-service calls and their polling
// waits, artifact copy into the library, the multi-agent quality review,
// and the human approval gate.
package steps
