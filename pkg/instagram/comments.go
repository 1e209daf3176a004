package instagram

import (
	"context"
	"iter"
	"net/http"

	errs "igharvest/pkg/errors"
)

const commentPageSize = 50

// Comments iterates over the top-level comments of a post. Each comment carries
// all of its threaded answers, fetching further answer pages as needed.
func (c *Client) Comments(ctx context.Context, shortcode string) iter.Seq2[*Comment, error] {
	return func(yield func(*Comment, error) bool) {
		after := ""
		for {
			conn, err := c.commentPage(ctx, shortcode, after)
			if err != nil {
				yield(nil, err)
				return
			}

			for _, edge := range conn.Edges {
				comment := commentFromNode(edge.Node)
				answers, err := c.answers(ctx, edge.Node)
				if err != nil {
					yield(nil, err)
					return
				}
				comment.Answers = answers
				if !yield(&comment, nil) {
					return
				}
			}

			if !conn.PageInfo.HasNextPage || conn.PageInfo.EndCursor == "" {
				return
			}
			after = conn.PageInfo.EndCursor
		}
	}
}

func (c *Client) commentPage(ctx context.Context, shortcode, after string) (*CommentConnection, error) {
	vars := pageVariables(commentPageSize, after)
	vars["shortcode"] = shortcode

	var data struct {
		ShortcodeMedia *struct {
			EdgeMediaToParentComment CommentConnection `json:"edge_media_to_parent_comment"`
		} `json:"shortcode_media"`
	}
	if err := c.graphQL(ctx, CommentsQueryHash, vars, &data); err != nil {
		return nil, err
	}
	if data.ShortcodeMedia == nil {
		return nil, errs.New(errs.ErrorTypeNotFound, http.StatusNotFound, "post %s does not exist", shortcode)
	}
	return &data.ShortcodeMedia.EdgeMediaToParentComment, nil
}

// answers collects the threaded answers embedded in node plus any remaining pages
func (c *Client) answers(ctx context.Context, node CommentNode) ([]Comment, error) {
	thread := node.EdgeThreadedComments
	if thread == nil {
		return nil, nil
	}

	answers := make([]Comment, 0, len(thread.Edges))
	for {
		for _, edge := range thread.Edges {
			answers = append(answers, commentFromNode(edge.Node))
		}
		if !thread.PageInfo.HasNextPage || thread.PageInfo.EndCursor == "" {
			return answers, nil
		}

		vars := pageVariables(commentPageSize, thread.PageInfo.EndCursor)
		vars["comment_id"] = node.ID

		var data struct {
			Comment *struct {
				EdgeThreadedComments CommentConnection `json:"edge_threaded_comments"`
			} `json:"comment"`
		}
		if err := c.graphQL(ctx, ThreadedCommentQueryHash, vars, &data); err != nil {
			return nil, err
		}
		if data.Comment == nil {
			return answers, nil
		}
		thread = &data.Comment.EdgeThreadedComments
	}
}
