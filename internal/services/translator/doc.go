// Package translator wraps the external translation service's REST API.
// Errors are classified so the retry policy only replays transient failures.
package translator
