package harvest

import (
	"errors"
	"iter"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"igharvest/pkg/instagram"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 12, 0, 0, 0, time.UTC)
}

func postAt(shortcode string, t time.Time) *instagram.Post {
	return &instagram.Post{Shortcode: shortcode, DateUTC: t}
}

// seq yields posts and counts how many were pulled
func seq(pulled *int, posts ...*instagram.Post) iter.Seq2[*instagram.Post, error] {
	return func(yield func(*instagram.Post, error) bool) {
		for _, p := range posts {
			*pulled++
			if !yield(p, nil) {
				return
			}
		}
	}
}

func shortcodes(t *testing.T, posts iter.Seq2[*instagram.Post, error]) []string {
	t.Helper()
	out := []string{}
	for p, err := range posts {
		require.NoError(t, err)
		out = append(out, p.Shortcode)
	}
	return out
}

func TestNewDateWindowOrdersBounds(t *testing.T) {
	w := NewDateWindow(day(20), day(10))
	assert.Equal(t, day(10), w.Lower)
	assert.Equal(t, day(20), w.Upper)
	assert.Equal(t, w, NewDateWindow(day(10), day(20)))
}

func TestDateWindowIsStrict(t *testing.T) {
	w := NewDateWindow(day(10), day(20))
	assert.True(t, w.Contains(day(15)))
	assert.False(t, w.Contains(day(10)))
	assert.False(t, w.Contains(day(20)))
	assert.False(t, w.Contains(day(25)))
}

func TestDateWindowApply(t *testing.T) {
	var pulled int
	posts := seq(&pulled,
		postAt("future", day(25)),
		postAt("upper", day(20)),
		postAt("in1", day(18)),
		postAt("in2", day(11)),
		postAt("lower", day(10)),
		postAt("old", day(5)),
	)

	got := shortcodes(t, NewDateWindow(day(20), day(10)).Apply(posts))
	assert.Equal(t, []string{"in1", "in2"}, got)
	assert.Equal(t, 5, pulled, "the first post at the lower bound ends the stream")
}

func TestDateWindowPinnedPostsDoNotEndStream(t *testing.T) {
	pinnedOld := postAt("pinned-old", day(1))
	pinnedOld.Pinned = true
	pinnedIn := postAt("pinned-in", day(15))
	pinnedIn.Pinned = true

	var pulled int
	posts := seq(&pulled,
		pinnedOld,
		pinnedIn,
		postAt("in", day(12)),
		postAt("old", day(2)),
		postAt("never", day(14)),
	)

	got := shortcodes(t, NewDateWindow(day(10), day(20)).Apply(posts))
	assert.Equal(t, []string{"pinned-in", "in"}, got)
}

func TestDateWindowPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	posts := func(yield func(*instagram.Post, error) bool) {
		if !yield(postAt("a", day(15)), nil) {
			return
		}
		yield(nil, boom)
	}

	var errs []error
	for _, err := range NewDateWindow(day(10), day(20)).Apply(posts) {
		if err != nil {
			errs = append(errs, err)
		}
	}
	assert.Equal(t, []error{boom}, errs)
}

func TestLimit(t *testing.T) {
	make5 := func(pulled *int) iter.Seq2[*instagram.Post, error] {
		return seq(pulled,
			postAt("a", day(5)), postAt("b", day(4)), postAt("c", day(3)),
			postAt("d", day(2)), postAt("e", day(1)),
		)
	}

	tests := []struct {
		n      int
		want   []string
		pulled int
	}{
		{n: 2, want: []string{"a", "b"}, pulled: 2},
		{n: 5, want: []string{"a", "b", "c", "d", "e"}, pulled: 5},
		{n: 10, want: []string{"a", "b", "c", "d", "e"}, pulled: 5},
		{n: 0, want: []string{}, pulled: 0},
		{n: -1, want: []string{}, pulled: 0},
	}

	for _, tt := range tests {
		var pulled int
		got := shortcodes(t, Limit(make5(&pulled), tt.n))
		assert.Equal(t, tt.want, got, "n=%d", tt.n)
		assert.Equal(t, tt.pulled, pulled, "n=%d pulls no more than needed", tt.n)
	}
}

func TestLimitAfterWindow(t *testing.T) {
	var pulled int
	posts := seq(&pulled,
		postAt("future", day(25)),
		postAt("a", day(18)),
		postAt("b", day(16)),
		postAt("c", day(14)),
	)
	window := NewDateWindow(day(10), day(20))

	got := shortcodes(t, Limit(window.Apply(posts), 2))
	assert.Equal(t, []string{"a", "b"}, got)
}
