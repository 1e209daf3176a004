package instagram

import (
	"context"
	"encoding/json"
	"net/http"

	errs "igharvest/pkg/errors"
	"igharvest/pkg/ratelimit"
)

// Profile fetches a user's profile with the first page of their posts
func (c *Client) Profile(ctx context.Context, username string) (*UserNode, error) {
	username = SanitizeUsername(username)
	if !IsValidUsername(username) {
		return nil, errs.New(errs.ErrorTypeNotFound, http.StatusNotFound, "invalid username %q", username)
	}

	c.logger.DebugWithFields("fetching user profile", map[string]interface{}{
		"username": username,
	})

	var response ProfileResponse
	if err := c.GetJSON(ctx, ratelimit.KindAPI, ProfileURL(c.baseURL, username), &response); err != nil {
		return nil, err
	}
	if response.RequiresToLogin {
		return nil, errs.New(errs.ErrorTypeAuth, http.StatusUnauthorized, "Instagram requires authentication to view %s", username)
	}
	if response.Data.User == nil {
		return nil, errs.New(errs.ErrorTypeNotFound, http.StatusNotFound, "profile %s does not exist", username)
	}
	return response.Data.User, nil
}

// ProfilePosts iterates over the timeline of a public profile, or of a private
// profile the logged-in user follows
func (c *Client) ProfilePosts(ctx context.Context, username string) (*PostIterator, error) {
	user, err := c.Profile(ctx, username)
	if err != nil {
		return nil, err
	}
	if user.IsPrivate && !user.FollowedByViewer && c.Session().UserID != user.ID {
		return nil, errs.New(errs.ErrorTypeAuth, http.StatusForbidden, "profile %s is private", user.Username)
	}

	fill := func(posts []*Post) {
		for _, p := range posts {
			if p.OwnerUsername == "" {
				p.OwnerUsername = user.Username
			}
			if p.OwnerID == "" {
				p.OwnerID = user.ID
			}
		}
	}

	first, err := postsFromConnection(user.EdgeOwnerToTimelineMedia, false)
	if err != nil {
		return nil, err
	}
	fill(first)

	it := newPostIterator(func(ctx context.Context, after string) ([]*Post, PageInfo, error) {
		vars := pageVariables(DefaultPageSize, after)
		vars["id"] = user.ID

		var data struct {
			User struct {
				EdgeOwnerToTimelineMedia MediaConnection `json:"edge_owner_to_timeline_media"`
			} `json:"user"`
		}
		if err := c.graphQL(ctx, ProfileMediaQueryHash, vars, &data); err != nil {
			return nil, PageInfo{}, err
		}
		posts, err := postsFromConnection(data.User.EdgeOwnerToTimelineMedia, false)
		fill(posts)
		return posts, data.User.EdgeOwnerToTimelineMedia.PageInfo, err
	})
	media := user.EdgeOwnerToTimelineMedia
	return it.withFirstPage(first, media.PageInfo, media.Count), nil
}

// HashtagPosts iterates over the recent posts of a hashtag
func (c *Client) HashtagPosts(ctx context.Context, tag string) (*PostIterator, error) {
	tag = SanitizeHashtag(tag)
	if tag == "" {
		return nil, errs.New(errs.ErrorTypeNotFound, http.StatusNotFound, "empty hashtag")
	}

	fetch := func(ctx context.Context, after string) ([]*Post, PageInfo, error) {
		vars := pageVariables(DefaultPageSize, after)
		vars["tag_name"] = tag

		var data struct {
			Hashtag *struct {
				EdgeHashtagToMedia MediaConnection `json:"edge_hashtag_to_media"`
			} `json:"hashtag"`
		}
		if err := c.graphQL(ctx, HashtagMediaQueryHash, vars, &data); err != nil {
			return nil, PageInfo{}, err
		}
		if data.Hashtag == nil {
			return nil, PageInfo{}, errs.New(errs.ErrorTypeNotFound, http.StatusNotFound, "hashtag #%s does not exist", tag)
		}
		posts, err := postsFromConnection(data.Hashtag.EdgeHashtagToMedia, false)
		return posts, data.Hashtag.EdgeHashtagToMedia.PageInfo, err
	}
	return c.prefetch(ctx, fetch)
}

// LocationPosts iterates over the posts tagged with a location id
func (c *Client) LocationPosts(ctx context.Context, locationID string) (*PostIterator, error) {
	if err := c.requireLogin("location"); err != nil {
		return nil, err
	}

	fetch := func(ctx context.Context, after string) ([]*Post, PageInfo, error) {
		vars := pageVariables(DefaultPageSize, after)
		vars["id"] = locationID

		var data struct {
			Location *struct {
				LocationNode
				EdgeLocationToMedia MediaConnection `json:"edge_location_to_media"`
			} `json:"location"`
		}
		if err := c.graphQL(ctx, LocationMediaQueryHash, vars, &data); err != nil {
			return nil, PageInfo{}, err
		}
		if data.Location == nil {
			return nil, PageInfo{}, errs.New(errs.ErrorTypeNotFound, http.StatusNotFound, "location %s does not exist", locationID)
		}

		posts, err := postsFromConnection(data.Location.EdgeLocationToMedia, false)
		for _, p := range posts {
			if p.Location == nil || p.Location.Lat == nil {
				p.Location = &Location{
					ID:   data.Location.ID,
					Name: data.Location.Name,
					Lat:  data.Location.Lat,
					Lng:  data.Location.Lng,
				}
			}
		}
		return posts, data.Location.EdgeLocationToMedia.PageInfo, err
	}
	return c.prefetch(ctx, fetch)
}

// FeedPosts iterates over the logged-in user's home timeline
func (c *Client) FeedPosts(ctx context.Context) (*PostIterator, error) {
	if err := c.requireLogin("feed"); err != nil {
		return nil, err
	}

	fetch := func(ctx context.Context, after string) ([]*Post, PageInfo, error) {
		vars := map[string]interface{}{
			"fetch_media_item_count": DefaultPageSize,
			"fetch_comment_count":    4,
			"fetch_like":             10,
			"has_stories":            false,
		}
		if after != "" {
			vars["fetch_media_item_cursor"] = after
		}

		var data struct {
			User struct {
				EdgeWebFeedTimeline MediaConnection `json:"edge_web_feed_timeline"`
			} `json:"user"`
		}
		if err := c.graphQL(ctx, FeedQueryHash, vars, &data); err != nil {
			return nil, PageInfo{}, err
		}
		posts, err := postsFromConnection(data.User.EdgeWebFeedTimeline, true)
		return posts, data.User.EdgeWebFeedTimeline.PageInfo, err
	}
	return c.prefetch(ctx, fetch)
}

// SavedPosts iterates over the posts the logged-in user saved
func (c *Client) SavedPosts(ctx context.Context) (*PostIterator, error) {
	if err := c.requireLogin("saved"); err != nil {
		return nil, err
	}
	userID := c.Session().UserID

	fetch := func(ctx context.Context, after string) ([]*Post, PageInfo, error) {
		vars := pageVariables(DefaultPageSize, after)
		vars["id"] = userID

		var data struct {
			User struct {
				EdgeSavedMedia MediaConnection `json:"edge_saved_media"`
			} `json:"user"`
		}
		if err := c.graphQL(ctx, SavedMediaQueryHash, vars, &data); err != nil {
			return nil, PageInfo{}, err
		}
		posts, err := postsFromConnection(data.User.EdgeSavedMedia, false)
		return posts, data.User.EdgeSavedMedia.PageInfo, err
	}
	return c.prefetch(ctx, fetch)
}

// Post fetches a single post by shortcode or post URL
func (c *Client) Post(ctx context.Context, shortcode string) (*Post, error) {
	shortcode = ParseShortcode(shortcode)

	var data struct {
		ShortcodeMedia json.RawMessage `json:"shortcode_media"`
	}
	vars := map[string]interface{}{"shortcode": shortcode}
	if err := c.graphQL(ctx, SinglePostQueryHash, vars, &data); err != nil {
		return nil, err
	}
	if len(data.ShortcodeMedia) == 0 || string(data.ShortcodeMedia) == "null" {
		return nil, errs.New(errs.ErrorTypeNotFound, http.StatusNotFound, "post %s does not exist", shortcode)
	}
	return postFromNode(data.ShortcodeMedia)
}

// SinglePost wraps Post in an iterator so it flows through the harvest like any feed
func (c *Client) SinglePost(ctx context.Context, shortcode string) (*PostIterator, error) {
	post, err := c.Post(ctx, shortcode)
	if err != nil {
		return nil, err
	}
	it := newPostIterator(func(ctx context.Context, after string) ([]*Post, PageInfo, error) {
		return []*Post{post}, PageInfo{}, nil
	})
	return it.withFirstPage([]*Post{post}, PageInfo{}, 1), nil
}

// StoryPosts returns the current story frames of a user
func (c *Client) StoryPosts(ctx context.Context, username string) (*PostIterator, error) {
	if err := c.requireLogin("story"); err != nil {
		return nil, err
	}
	user, err := c.Profile(ctx, username)
	if err != nil {
		return nil, err
	}

	fetch := func(ctx context.Context, after string) ([]*Post, PageInfo, error) {
		vars := map[string]interface{}{
			"reel_ids":            []string{user.ID},
			"tag_names":           []string{},
			"location_ids":        []string{},
			"highlight_reel_ids":  []string{},
			"precomposed_overlay": false,
		}

		var data struct {
			ReelsMedia []StoryReel `json:"reels_media"`
		}
		if err := c.graphQL(ctx, StoriesQueryHash, vars, &data); err != nil {
			return nil, PageInfo{}, err
		}

		var posts []*Post
		for _, reel := range data.ReelsMedia {
			owner := reel.Owner
			if owner.Username == "" {
				owner = OwnerNode{ID: user.ID, Username: user.Username}
			}
			// Reels list frames oldest first, feeds are newest first
			for i := len(reel.Items) - 1; i >= 0; i-- {
				post, err := postFromStory(reel.Items[i], owner)
				if err != nil {
					return nil, PageInfo{}, err
				}
				posts = append(posts, post)
			}
		}
		return posts, PageInfo{}, nil
	}
	return c.prefetch(ctx, fetch)
}

// prefetch loads the first page eagerly so lookup errors surface before the harvest starts
func (c *Client) prefetch(ctx context.Context, fetch pageFunc) (*PostIterator, error) {
	posts, info, err := fetch(ctx, "")
	if err != nil {
		return nil, err
	}
	return newPostIterator(fetch).withFirstPage(posts, info, 0), nil
}

func (c *Client) requireLogin(what string) error {
	if c.LoggedIn() {
		return nil
	}
	return errs.New(errs.ErrorTypeAuth, http.StatusUnauthorized, "%s requires login", what)
}
