package instagram

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	errs "igharvest/pkg/errors"
)

func commentNode(id, text string, answers map[string]interface{}) map[string]interface{} {
	node := map[string]interface{}{
		"id":            id,
		"text":          text,
		"created_at":    1700000000,
		"owner":         map[string]interface{}{"id": "owner-" + id, "username": "user" + id},
		"edge_liked_by": map[string]interface{}{"count": 3},
	}
	if answers != nil {
		node["edge_threaded_comments"] = answers
	}
	return node
}

func commentConnection(cursor string, hasNext bool, nodes ...map[string]interface{}) map[string]interface{} {
	edges := make([]map[string]interface{}, 0, len(nodes))
	for _, n := range nodes {
		edges = append(edges, map[string]interface{}{"node": n})
	}
	return map[string]interface{}{
		"count":     len(nodes),
		"page_info": map[string]interface{}{"has_next_page": hasNext, "end_cursor": cursor},
		"edges":     edges,
	}
}

func TestCommentsWithAnswers(t *testing.T) {
	client, _ := newTestClient(t, graphQLMux{
		CommentsQueryHash: func(vars map[string]interface{}) interface{} {
			if vars["shortcode"] != "P1" {
				return map[string]interface{}{"shortcode_media": nil}
			}
			var conn map[string]interface{}
			if vars["after"] == nil {
				conn = commentConnection("next", true,
					commentNode("1", "first", commentConnection("more", true, commentNode("11", "reply a", nil))),
				)
			} else {
				conn = commentConnection("", false, commentNode("2", "second", nil))
			}
			return map[string]interface{}{"shortcode_media": map[string]interface{}{"edge_media_to_parent_comment": conn}}
		},
		ThreadedCommentQueryHash: func(vars map[string]interface{}) interface{} {
			assert.Equal(t, "1", vars["comment_id"])
			assert.Equal(t, "more", vars["after"])
			return map[string]interface{}{"comment": map[string]interface{}{
				"edge_threaded_comments": commentConnection("", false, commentNode("12", "reply b", nil)),
			}}
		},
	})

	var comments []*Comment
	for c, err := range client.Comments(context.Background(), "P1") {
		require.NoError(t, err)
		comments = append(comments, c)
	}

	require.Len(t, comments, 2)
	first := comments[0]
	assert.Equal(t, "1", first.ID)
	assert.Equal(t, "owner-1", first.OwnerID)
	assert.Equal(t, int64(3), first.Likes)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), first.CreatedAt)
	require.Len(t, first.Answers, 2)
	assert.Equal(t, "11", first.Answers[0].ID)
	assert.Equal(t, "reply b", first.Answers[1].Text)

	assert.Equal(t, "2", comments[1].ID)
	assert.Empty(t, comments[1].Answers)
}

func TestCommentsMissingPost(t *testing.T) {
	client, _ := newTestClient(t, graphQLMux{
		CommentsQueryHash: func(vars map[string]interface{}) interface{} {
			return map[string]interface{}{"shortcode_media": nil}
		},
	})

	for c, err := range client.Comments(context.Background(), "gone") {
		assert.Nil(t, c)
		assert.True(t, errs.IsType(err, errs.ErrorTypeNotFound))
	}
}
