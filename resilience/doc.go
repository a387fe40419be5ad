// Package resilience provides retry and rate limiting.
//
//   - Retry re-runs an operation with exponential backoff. AppErrors are only
//     retried when marked Retryable, so a snapshot file caught mid-write is
//     re-read while a missing file fails fast.
//   - RateLimiter is a token bucket guarding the measurement and relayout
//     endpoints against render loops.
//
//	snap, err := resilience.Retry(ctx, resilience.DefaultRetryConfig(), func() (*model.Pipeline, error) {
//	    return loader.Load(name)
//	})
package resilience
