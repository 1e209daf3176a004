package harvest

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"igharvest/pkg/instagram"
)

// Kind is what a harvest queries
type Kind int

const (
	PublicProfile Kind = iota
	Hashtag
	SinglePost
	PrivateProfile
	LocationID
	Story
	Feed
	Saved
)

var kindNames = map[Kind]string{
	PublicProfile:  "public profile",
	Hashtag:        "hashtag",
	SinglePost:     "single post",
	PrivateProfile: "private profile",
	LocationID:     "location id",
	Story:          "story",
	Feed:           "feed",
	Saved:          "saved",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// NeedsLogin reports whether the kind is only offered after logging in
func (k Kind) NeedsLogin() bool {
	return k >= PrivateProfile
}

// NeedsQuery reports whether the kind needs a search term
func (k Kind) NeedsQuery() bool {
	return k != Feed && k != Saved
}

// Kinds lists the selectable kinds in menu order
func Kinds(loggedIn bool) []Kind {
	kinds := []Kind{PublicProfile, Hashtag, SinglePost}
	if loggedIn {
		kinds = append(kinds, PrivateProfile, LocationID, Story, Feed, Saved)
	}
	return kinds
}

// Target is a kind plus its query
type Target struct {
	Kind  Kind
	Query string
}

// Dir is the directory, relative to the download root, that receives the
// target's media
func (t Target) Dir() string {
	switch t.Kind {
	case Hashtag:
		return "#" + instagram.SanitizeHashtag(t.Query)
	case LocationID:
		return "%" + strings.TrimSpace(t.Query)
	case Story:
		return ":stories"
	case Feed:
		return ":feed"
	case Saved:
		return ":saved"
	case SinglePost:
		return instagram.ParseShortcode(t.Query)
	default:
		return instagram.SanitizeUsername(t.Query)
	}
}

func (t Target) String() string {
	if !t.Kind.NeedsQuery() {
		return t.Kind.String()
	}
	return t.Kind.String() + " " + t.Query
}

// PostSource is a resumable stream of posts
type PostSource interface {
	All(ctx context.Context) iter.Seq2[*instagram.Post, error]
	Cursor() string
	Resume(cursor string)
}

// CommentSource yields the comments of a post with their answers
type CommentSource interface {
	Comments(ctx context.Context, shortcode string) iter.Seq2[*instagram.Comment, error]
}

// Feeds opens post streams; *instagram.Client implements it
type Feeds interface {
	ProfilePosts(ctx context.Context, username string) (*instagram.PostIterator, error)
	HashtagPosts(ctx context.Context, tag string) (*instagram.PostIterator, error)
	LocationPosts(ctx context.Context, locationID string) (*instagram.PostIterator, error)
	FeedPosts(ctx context.Context) (*instagram.PostIterator, error)
	SavedPosts(ctx context.Context) (*instagram.PostIterator, error)
	SinglePost(ctx context.Context, shortcode string) (*instagram.PostIterator, error)
	StoryPosts(ctx context.Context, username string) (*instagram.PostIterator, error)
}

// Open returns the post stream for target
func Open(ctx context.Context, feeds Feeds, target Target) (PostSource, error) {
	var (
		it  *instagram.PostIterator
		err error
	)

	switch target.Kind {
	case PublicProfile, PrivateProfile:
		it, err = feeds.ProfilePosts(ctx, target.Query)
	case Hashtag:
		it, err = feeds.HashtagPosts(ctx, target.Query)
	case LocationID:
		it, err = feeds.LocationPosts(ctx, target.Query)
	case SinglePost:
		it, err = feeds.SinglePost(ctx, target.Query)
	case Story:
		it, err = feeds.StoryPosts(ctx, target.Query)
	case Feed:
		it, err = feeds.FeedPosts(ctx)
	case Saved:
		it, err = feeds.SavedPosts(ctx)
	default:
		return nil, fmt.Errorf("unknown target %s", target.Kind)
	}
	if err != nil {
		return nil, err
	}
	return it, nil
}
