// Package httputil provides the HTTP plumbing of the image fetcher.
//
// # Retry
//
// [Backoff] re-runs an operation with exponential backoff as long as it
// fails with a [RetryableError]. [Get] classifies responses for it:
//
//   - network errors and 5xx responses are retryable
//   - 429 responses are retryable, honouring a Retry-After in seconds
//   - other non-2xx responses fail immediately with a [StatusError]
//
// A single wait never exceeds Backoff.MaxDelay (30s by default), so a host
// asking for an hour does not stall a grid rebuild.
package httputil
