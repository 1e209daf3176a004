// Package ratelimit keeps igharvest below the request rates Instagram
// tolerates before answering with 429 or a checkpoint challenge.
//
// Two algorithms are available. TokenBucket refills its full capacity once
// per period and suits bursts followed by quiet time. SlidingWindow counts
// requests inside a moving window and gives a steadier pace.
//
// Controller groups one limiter per request kind so GraphQL pages, private
// API calls and media downloads are throttled independently:
//
//	ctl := ratelimit.NewController(cfg.RateLimit)
//	if err := ctl.Wait(ctx, ratelimit.KindGraphQL); err != nil {
//		return err
//	}
package ratelimit
