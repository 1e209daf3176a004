// Package instagram is the scraping client igharvest drives: a cookie-aware
// web API client with per-kind rate limiting and typed, retried errors.
//
// It covers:
//   - password login with two-factor follow-up, and session export/restore
//   - post feeds for profiles, hashtags, locations, single posts, the home
//     feed, saved posts and stories, all as resumable iterators
//   - comments with threaded answers
//   - media downloads
//
// Example usage:
//
//	client := instagram.NewClientWithConfig(cfg, logger.GetLogger())
//
//	posts, err := client.HashtagPosts(ctx, "sunset")
//	if err != nil {
//		return err
//	}
//	for post, err := range posts.All(ctx) {
//		if err != nil {
//			return err
//		}
//		fmt.Println(post.Shortcode, post.CaptionHashtags())
//	}
//
// Errors are *errors.Error values from igharvest/pkg/errors, so callers can
// branch on errors.IsType(err, errors.ErrorTypeAuth) and friends.
package instagram
