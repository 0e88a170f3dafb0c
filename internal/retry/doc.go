// Package retry implements the exponential-backoff policy wrapped around
// every external translation-service call. Transient failures (tagged with
// services.ErrTransient) retry up to the attempt cap; validation and API
// rejections surface immediately.
package retry
