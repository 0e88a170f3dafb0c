// Package httpapi serves the daemon's HTTP surface with echo: job
// submission, listing, describe, approval decisions, and a health probe.
// It is a thin JSON layer over api.Service and carries no state of its own.
package httpapi
