package harvest

import (
	"iter"
	"time"

	"igharvest/pkg/instagram"
)

// DateWindow keeps posts strictly between Lower and Upper
type DateWindow struct {
	Lower time.Time
	Upper time.Time
}

// NewDateWindow orders the two dates so the earlier one is the lower bound
func NewDateWindow(a, b time.Time) DateWindow {
	if b.Before(a) {
		a, b = b, a
	}
	return DateWindow{Lower: a, Upper: b}
}

// Contains reports whether t lies strictly inside the window
func (w DateWindow) Contains(t time.Time) bool {
	return t.After(w.Lower) && t.Before(w.Upper)
}

// Apply filters a newest-first stream. Posts at or after Upper are skipped
// and the first unpinned post at or before Lower ends the stream.
func (w DateWindow) Apply(posts iter.Seq2[*instagram.Post, error]) iter.Seq2[*instagram.Post, error] {
	return func(yield func(*instagram.Post, error) bool) {
		for post, err := range posts {
			if err != nil {
				yield(nil, err)
				return
			}
			if !post.DateUTC.Before(w.Upper) {
				continue
			}
			if !post.DateUTC.After(w.Lower) {
				if post.Pinned {
					continue
				}
				return
			}
			if !yield(post, nil) {
				return
			}
		}
	}
}

// Limit yields at most n posts. It stops pulling from posts as soon as the
// n-th one was yielded, so no further page is requested.
func Limit(posts iter.Seq2[*instagram.Post, error], n int) iter.Seq2[*instagram.Post, error] {
	return func(yield func(*instagram.Post, error) bool) {
		if n <= 0 {
			return
		}
		count := 0
		for post, err := range posts {
			if !yield(post, err) || err != nil {
				return
			}
			count++
			if count >= n {
				return
			}
		}
	}
}
