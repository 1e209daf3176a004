package instagram

import (
	"context"
	"encoding/json"
	"iter"
	"sync"
)

// pageFunc fetches the page that starts after the given cursor
type pageFunc func(ctx context.Context, after string) ([]*Post, PageInfo, error)

// PostIterator walks a paginated post feed, newest first.
// Cursor reports the cursor the page currently being consumed was requested
// with, so an interrupted harvest can restart on that page.
type PostIterator struct {
	fetch pageFunc
	first []*Post
	info  PageInfo
	total int

	mu     sync.Mutex
	start  string
	cursor string
}

func newPostIterator(fetch pageFunc) *PostIterator {
	return &PostIterator{fetch: fetch}
}

// withFirstPage seeds the iterator with a page that came with a lookup request
func (it *PostIterator) withFirstPage(posts []*Post, info PageInfo, total int) *PostIterator {
	it.first = posts
	it.info = info
	it.total = total
	return it
}

// Total is the number of posts the feed announced, 0 when unknown
func (it *PostIterator) Total() int {
	return it.total
}

// Resume makes the next iteration start at cursor instead of the first page
func (it *PostIterator) Resume(cursor string) {
	it.mu.Lock()
	defer it.mu.Unlock()
	it.start = cursor
}

// Cursor returns the cursor of the page being consumed, "" for the first page
func (it *PostIterator) Cursor() string {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.cursor
}

func (it *PostIterator) setCursor(cursor string) {
	it.mu.Lock()
	it.cursor = cursor
	it.mu.Unlock()
}

// All yields every post of the feed. Iteration stops at the first error.
func (it *PostIterator) All(ctx context.Context) iter.Seq2[*Post, error] {
	return func(yield func(*Post, error) bool) {
		it.mu.Lock()
		after := it.start
		it.mu.Unlock()

		var (
			posts []*Post
			info  PageInfo
			err   error
		)
		if after == "" && it.first != nil {
			posts, info = it.first, it.info
		} else if posts, info, err = it.fetch(ctx, after); err != nil {
			yield(nil, err)
			return
		}

		for {
			it.setCursor(after)
			for _, post := range posts {
				if !yield(post, nil) {
					return
				}
			}

			if !info.HasNextPage || info.EndCursor == "" {
				return
			}
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}

			after = info.EndCursor
			if posts, info, err = it.fetch(ctx, after); err != nil {
				yield(nil, err)
				return
			}
		}
	}
}

// postsFromConnection converts the edges of a connection. Feed timelines mix in
// nodes that are not posts, those are dropped when skipForeign is set.
func postsFromConnection(conn MediaConnection, skipForeign bool) ([]*Post, error) {
	posts := make([]*Post, 0, len(conn.Edges))
	for _, edge := range conn.Edges {
		if skipForeign && !isPostNode(edge.Node) {
			continue
		}
		post, err := postFromNode(edge.Node)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func isPostNode(raw json.RawMessage) bool {
	var probe struct {
		Typename  string `json:"__typename"`
		Shortcode string `json:"shortcode"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return false
	}
	switch probe.Typename {
	case "GraphImage", "GraphVideo", "GraphSidecar":
		return probe.Shortcode != ""
	default:
		return false
	}
}
