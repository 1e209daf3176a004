package instagram

import "encoding/json"

// graphQLResponse is the envelope every /graphql/query/ answer shares
type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Status string          `json:"status"`
}

// ProfileResponse represents the answer of the web_profile_info endpoint
type ProfileResponse struct {
	RequiresToLogin bool `json:"requires_to_login"`
	Data            struct {
		User *UserNode `json:"user"`
	} `json:"data"`
	Status string `json:"status"`
}

// UserNode represents an Instagram user profile
type UserNode struct {
	ID                       string          `json:"id"`
	Username                 string          `json:"username"`
	IsPrivate                bool            `json:"is_private"`
	FollowedByViewer         bool            `json:"followed_by_viewer"`
	EdgeOwnerToTimelineMedia MediaConnection `json:"edge_owner_to_timeline_media"`
	EdgeWebFeedTimeline      MediaConnection `json:"edge_web_feed_timeline"`
	EdgeSavedMedia           MediaConnection `json:"edge_saved_media"`
}

// MediaConnection is a paginated list of media nodes
type MediaConnection struct {
	Count    int         `json:"count"`
	PageInfo PageInfo    `json:"page_info"`
	Edges    []MediaEdge `json:"edges"`
}

// PageInfo contains pagination information
type PageInfo struct {
	HasNextPage bool   `json:"has_next_page"`
	EndCursor   string `json:"end_cursor"`
}

// MediaEdge wraps a single media node
type MediaEdge struct {
	Node json.RawMessage `json:"node"`
}

// MediaNode represents a single post (photo, video or sidecar) as returned by GraphQL
type MediaNode struct {
	Typename              string        `json:"__typename"`
	ID                    string        `json:"id"`
	Shortcode             string        `json:"shortcode"`
	DisplayURL            string        `json:"display_url"`
	IsVideo               bool          `json:"is_video"`
	VideoURL              string        `json:"video_url"`
	VideoViewCount        *int64        `json:"video_view_count"`
	TakenAtTimestamp      int64         `json:"taken_at_timestamp"`
	Owner                 OwnerNode     `json:"owner"`
	Location              *LocationNode `json:"location"`
	PinnedForUsers        []OwnerNode   `json:"pinned_for_users"`
	EdgeMediaToCaption    captionEdges  `json:"edge_media_to_caption"`
	EdgeLikedBy           countEdge     `json:"edge_liked_by"`
	EdgeMediaPreviewLike  countEdge     `json:"edge_media_preview_like"`
	EdgeMediaToComment    countEdge     `json:"edge_media_to_comment"`
	EdgeMediaParentCount  countEdge     `json:"edge_media_to_parent_comment"`
	EdgeMediaToTaggedUser taggedEdges   `json:"edge_media_to_tagged_user"`
	EdgeSidecarToChildren *sidecarEdges `json:"edge_sidecar_to_children"`
}

// OwnerNode is the minimal user reference embedded in media and comments
type OwnerNode struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// LocationNode is the location attached to a post or returned by the location feed
type LocationNode struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Slug string   `json:"slug"`
	Lat  *float64 `json:"lat"`
	Lng  *float64 `json:"lng"`
}

type countEdge struct {
	Count int64 `json:"count"`
}

type captionEdges struct {
	Edges []struct {
		Node struct {
			Text string `json:"text"`
		} `json:"node"`
	} `json:"edges"`
}

type taggedEdges struct {
	Edges []struct {
		Node struct {
			User OwnerNode `json:"user"`
		} `json:"node"`
	} `json:"edges"`
}

type sidecarEdges struct {
	Edges []struct {
		Node MediaNode `json:"node"`
	} `json:"edges"`
}

// CommentConnection is a paginated list of comments
type CommentConnection struct {
	Count    int           `json:"count"`
	PageInfo PageInfo      `json:"page_info"`
	Edges    []CommentEdge `json:"edges"`
}

// CommentEdge wraps a comment node
type CommentEdge struct {
	Node CommentNode `json:"node"`
}

// CommentNode represents a comment or a threaded answer
type CommentNode struct {
	ID                   string             `json:"id"`
	Text                 string             `json:"text"`
	CreatedAt            int64              `json:"created_at"`
	Owner                OwnerNode          `json:"owner"`
	EdgeLikedBy          countEdge          `json:"edge_liked_by"`
	EdgeThreadedComments *CommentConnection `json:"edge_threaded_comments"`
}

// StoryReel is one user's story tray from the reels_media query
type StoryReel struct {
	ID    string      `json:"id"`
	Owner OwnerNode   `json:"owner"`
	Items []StoryItem `json:"items"`
}

// StoryItem is a single story frame
type StoryItem struct {
	Typename            string `json:"__typename"`
	ID                  string `json:"id"`
	DisplayURL          string `json:"display_url"`
	IsVideo             bool   `json:"is_video"`
	TakenAtTimestamp    int64  `json:"taken_at_timestamp"`
	ExpiringAtTimestamp int64  `json:"expiring_at_timestamp"`
	VideoResources      []struct {
		Src     string `json:"src"`
		Profile string `json:"profile"`
	} `json:"video_resources"`
}
