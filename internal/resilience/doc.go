// Package resilience groups the fault tolerance helpers used around feed I/O:
// per-feed circuit breakers (circuitbreaker) and retry with exponential
// backoff (retry).
//
//	breakers := circuitbreaker.NewSet(circuitbreaker.FeedConfig)
//	err := retry.WithBackoff(ctx, retry.FeedFetchConfig(), func() error {
//	    _, err := breakers.For(host).Execute(func() (interface{}, error) {
//	        return fetch(ctx)
//	    })
//	    return err
//	})
package resilience
