// Package retry provides exponential backoff and retry logic for handling
// transient failures in Instagram requests.
//
// Features:
//   - Exponential and constant backoff strategies with jitter
//   - Context support for cancellation
//   - Error-type specific backoff strategies
//   - Configurable retry predicates
//
// Basic usage:
//
//	cfg := retry.FromSettings(appConfig.Retry, logger.GetLogger())
//	err := retry.Do(ctx, cfg, func(ctx context.Context) error {
//		return client.GetJSON(ctx, url, &out)
//	})
//
// Error Type Handling:
//   - Network errors: quick retries with exponential backoff
//   - Rate limit errors: longer delays with less aggressive growth
//   - Server errors: moderate delays
//   - Auth, not found and parsing errors are not retried
package retry
