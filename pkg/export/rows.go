package export

import (
	"strconv"
	"strings"
	"time"

	"igharvest/pkg/instagram"
)

const (
	// UTCLayout formats date_utc and created_at_utc
	UTCLayout = "2006-01-02 15:04:05"
	// LocalLayout formats date_local, which carries its offset
	LocalLayout = "2006-01-02 15:04:05-07:00"
)

// PostColumns is the header of the posts table
var PostColumns = []string{
	"shortcode",
	"mediaid",
	"owner_username",
	"owner_id",
	"date_local",
	"date_utc",
	"url",
	"typename",
	"caption",
	"caption_hashtags",
	"caption_mentions",
	"pcaption",
	"tagged_users",
	"video_url",
	"video_view_count",
	"likes",
	"comments",
	"loc_id",
	"loc_lat",
	"loc_lng",
	"loc_name",
}

// CommentColumns is the header of the comments table
var CommentColumns = []string{
	"post_shortcode",
	"answer_to_comment",
	"created_at_utc",
	"id",
	"likes_count",
	"owner",
	"text",
}

// PostRow is one flattened post
type PostRow struct {
	Shortcode       string
	MediaID         string
	OwnerUsername   string
	OwnerID         string
	DateLocal       time.Time
	DateUTC         time.Time
	URL             string
	Typename        string
	Caption         string
	CaptionHashtags string
	CaptionMentions string
	PCaption        string
	TaggedUsers     string
	VideoURL        string
	VideoViewCount  *int64
	Likes           int64
	Comments        int64
	LocID           string
	LocLat          *float64
	LocLng          *float64
	LocName         string
}

// CommentRow is one comment or answer
type CommentRow struct {
	PostShortcode   string
	AnswerToComment string
	CreatedAtUTC    time.Time
	ID              string
	LikesCount      int64
	Owner           string
	Text            string
}

// NewPostRow flattens a post. List fields are joined with commas and a
// location expands into the loc_* fields.
func NewPostRow(p *instagram.Post) PostRow {
	row := PostRow{
		Shortcode:       p.Shortcode,
		MediaID:         p.MediaID,
		OwnerUsername:   p.OwnerUsername,
		OwnerID:         p.OwnerID,
		DateLocal:       p.DateLocal(),
		DateUTC:         p.DateUTC.UTC(),
		URL:             p.URL,
		Typename:        p.Typename,
		Caption:         p.Caption,
		CaptionHashtags: joinList(p.CaptionHashtags()),
		CaptionMentions: joinList(p.CaptionMentions()),
		PCaption:        p.PCaption(),
		TaggedUsers:     joinList(p.TaggedUsers),
		VideoURL:        p.VideoURL,
		VideoViewCount:  p.VideoViewCount,
		Likes:           p.Likes,
		Comments:        p.Comments,
	}

	if loc := p.Location; loc != nil {
		row.LocID = loc.ID
		row.LocLat = loc.Lat
		row.LocLng = loc.Lng
		row.LocName = loc.Name
	}

	return row
}

// CommentRows flattens a comment and its answers. Answers reference the
// comment they reply to.
func CommentRows(shortcode string, c *instagram.Comment) []CommentRow {
	rows := make([]CommentRow, 0, 1+len(c.Answers))
	rows = append(rows, commentRow(shortcode, "", c))
	for i := range c.Answers {
		rows = append(rows, commentRow(shortcode, c.ID, &c.Answers[i]))
	}
	return rows
}

func commentRow(shortcode, parent string, c *instagram.Comment) CommentRow {
	return CommentRow{
		PostShortcode:   shortcode,
		AnswerToComment: parent,
		CreatedAtUTC:    c.CreatedAt.UTC(),
		ID:              c.ID,
		LikesCount:      c.Likes,
		Owner:           c.OwnerID,
		Text:            c.Text,
	}
}

// Record returns the row in PostColumns order
func (r PostRow) Record() []string {
	return []string{
		r.Shortcode,
		r.MediaID,
		r.OwnerUsername,
		r.OwnerID,
		formatTime(r.DateLocal, LocalLayout),
		formatTime(r.DateUTC, UTCLayout),
		r.URL,
		r.Typename,
		r.Caption,
		r.CaptionHashtags,
		r.CaptionMentions,
		r.PCaption,
		r.TaggedUsers,
		r.VideoURL,
		formatInt(r.VideoViewCount),
		strconv.FormatInt(r.Likes, 10),
		strconv.FormatInt(r.Comments, 10),
		r.LocID,
		formatFloat(r.LocLat),
		formatFloat(r.LocLng),
		r.LocName,
	}
}

// Record returns the row in CommentColumns order
func (r CommentRow) Record() []string {
	return []string{
		r.PostShortcode,
		r.AnswerToComment,
		formatTime(r.CreatedAtUTC, UTCLayout),
		r.ID,
		strconv.FormatInt(r.LikesCount, 10),
		r.Owner,
		r.Text,
	}
}

func joinList(items []string) string {
	return strings.Join(items, ",")
}

func formatTime(t time.Time, layout string) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(layout)
}

func formatInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
