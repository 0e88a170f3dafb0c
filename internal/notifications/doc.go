// Package notifications sends best-effort push notifications about job
// lifecycle events through ntfy.
package notifications
