package instagram

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	errs "igharvest/pkg/errors"
)

var (
	hashtagRegex = regexp.MustCompile(`#([\p{L}\p{N}_]{1,150})`)
	mentionRegex = regexp.MustCompile(`(?:^|[^\p{L}\p{N}_\n]|_)@([\p{L}\p{N}_](?:[\p{L}\p{N}_.]{0,28}[\p{L}\p{N}_])?)`)
)

// Post is a normalized Instagram post, whatever feed it came from
type Post struct {
	Shortcode      string
	MediaID        string
	OwnerUsername  string
	OwnerID        string
	DateUTC        time.Time
	URL            string
	Typename       string
	Caption        string
	TaggedUsers    []string
	IsVideo        bool
	VideoURL       string
	VideoViewCount *int64
	Likes          int64
	Comments       int64
	Location       *Location
	Pinned         bool

	children []MediaItem
	raw      json.RawMessage
}

// Location is the place a post was tagged with
type Location struct {
	ID   string
	Name string
	Lat  *float64
	Lng  *float64
}

// MediaItem is one downloadable picture or video of a post
type MediaItem struct {
	DisplayURL string
	VideoURL   string
	IsVideo    bool
}

// Comment is a top-level comment with its threaded answers
type Comment struct {
	ID            string
	CreatedAt     time.Time
	Text          string
	OwnerID       string
	OwnerUsername string
	Likes         int64
	Answers       []Comment
}

// DateLocal returns the post time in the local time zone
func (p *Post) DateLocal() time.Time {
	return p.DateUTC.Local()
}

// CaptionHashtags returns the lowercased hashtags of the caption in order of appearance
func (p *Post) CaptionHashtags() []string {
	matches := hashtagRegex.FindAllStringSubmatch(p.Caption, -1)
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tags = append(tags, strings.ToLower(m[1]))
	}
	return tags
}

// CaptionMentions returns the lowercased @mentions of the caption
func (p *Post) CaptionMentions() []string {
	matches := mentionRegex.FindAllStringSubmatch(p.Caption, -1)
	mentions := make([]string, 0, len(matches))
	for _, m := range matches {
		if strings.Contains(m[1], "..") {
			continue
		}
		mentions = append(mentions, strings.ToLower(m[1]))
	}
	return mentions
}

// PCaption is the caption on a single line, shortened for file names and listings
func (p *Post) PCaption() string {
	var parts []string
	for _, line := range strings.Split(p.Caption, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		parts = append(parts, strings.ReplaceAll(line, "/", "∕"))
	}

	pcaption := []rune(strings.TrimSpace(strings.Join(parts, " ")))
	if len(pcaption) > 31 {
		return string(pcaption[:30]) + "…"
	}
	return string(pcaption)
}

// Media returns the downloadable items, one per sidecar child or the post itself
func (p *Post) Media() []MediaItem {
	if len(p.children) > 0 {
		return p.children
	}
	return []MediaItem{{DisplayURL: p.URL, VideoURL: p.VideoURL, IsVideo: p.IsVideo}}
}

// IsSidecar reports whether the post holds several media items
func (p *Post) IsSidecar() bool {
	return p.Typename == "GraphSidecar"
}

// Raw returns the node JSON the post was built from
func (p *Post) Raw() json.RawMessage {
	return p.raw
}

// postFromNode normalizes a GraphQL media node
func postFromNode(raw json.RawMessage) (*Post, error) {
	var node MediaNode
	if err := json.Unmarshal(raw, &node); err != nil {
		return nil, errs.Wrap(err, errs.ErrorTypeParsing, 0, "failed to decode media node")
	}
	if node.Shortcode == "" {
		return nil, errs.New(errs.ErrorTypeParsing, 0, "media node %q has no shortcode", node.ID)
	}

	post := &Post{
		Shortcode:     node.Shortcode,
		MediaID:       node.ID,
		OwnerUsername: node.Owner.Username,
		OwnerID:       node.Owner.ID,
		DateUTC:       time.Unix(node.TakenAtTimestamp, 0).UTC(),
		URL:           node.DisplayURL,
		Typename:      node.Typename,
		IsVideo:       node.IsVideo,
		Pinned:        len(node.PinnedForUsers) > 0,
		raw:           raw,
	}
	if post.MediaID == "" {
		post.MediaID = ShortcodeToMediaID(node.Shortcode)
	}
	if len(node.EdgeMediaToCaption.Edges) > 0 {
		post.Caption = node.EdgeMediaToCaption.Edges[0].Node.Text
	}
	for _, e := range node.EdgeMediaToTaggedUser.Edges {
		post.TaggedUsers = append(post.TaggedUsers, strings.ToLower(e.Node.User.Username))
	}
	if node.IsVideo {
		post.VideoURL = node.VideoURL
		post.VideoViewCount = node.VideoViewCount
	}

	post.Likes = node.EdgeMediaPreviewLike.Count
	if post.Likes == 0 {
		post.Likes = node.EdgeLikedBy.Count
	}
	post.Comments = node.EdgeMediaToComment.Count
	if post.Comments == 0 {
		post.Comments = node.EdgeMediaParentCount.Count
	}

	if node.Location != nil {
		post.Location = &Location{
			ID:   node.Location.ID,
			Name: node.Location.Name,
			Lat:  node.Location.Lat,
			Lng:  node.Location.Lng,
		}
	}

	if node.EdgeSidecarToChildren != nil {
		for _, e := range node.EdgeSidecarToChildren.Edges {
			post.children = append(post.children, MediaItem{
				DisplayURL: e.Node.DisplayURL,
				VideoURL:   e.Node.VideoURL,
				IsVideo:    e.Node.IsVideo,
			})
		}
	}

	return post, nil
}

// postFromStory turns a story frame into a Post so it flows through the same export
func postFromStory(item StoryItem, owner OwnerNode) (*Post, error) {
	raw, err := json.Marshal(item)
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrorTypeParsing, 0, "failed to encode story item")
	}

	mediaID := item.ID
	if i := strings.IndexByte(mediaID, '_'); i > 0 {
		mediaID = mediaID[:i]
	}

	post := &Post{
		Shortcode:     MediaIDToShortcode(mediaID),
		MediaID:       mediaID,
		OwnerUsername: owner.Username,
		OwnerID:       owner.ID,
		DateUTC:       time.Unix(item.TakenAtTimestamp, 0).UTC(),
		URL:           item.DisplayURL,
		Typename:      item.Typename,
		IsVideo:       item.IsVideo,
		raw:           raw,
	}
	if item.IsVideo && len(item.VideoResources) > 0 {
		post.VideoURL = item.VideoResources[len(item.VideoResources)-1].Src
	}
	return post, nil
}

func commentFromNode(node CommentNode) Comment {
	return Comment{
		ID:            node.ID,
		CreatedAt:     time.Unix(node.CreatedAt, 0).UTC(),
		Text:          node.Text,
		OwnerID:       node.Owner.ID,
		OwnerUsername: node.Owner.Username,
		Likes:         node.EdgeLikedBy.Count,
	}
}
