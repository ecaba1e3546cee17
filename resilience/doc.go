// Package resilience retries operations that fail for transient reasons,
// with exponential backoff and jitter.
//
//	f, err := resilience.Retry(ctx, resilience.DefaultRetryConfig(), func() (*os.File, error) {
//	    return os.Open(path)
//	})
package resilience
