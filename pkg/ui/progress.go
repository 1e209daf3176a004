package ui

import (
	"io"
	"sync"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// HarvestProgress shows post and comment counters while a harvest runs.
// The post bar has a total only when the run is limited to N posts.
type HarvestProgress struct {
	progress *mpb.Progress
	posts    *mpb.Bar
	comments *mpb.Bar

	mu       sync.Mutex
	finished bool
}

// NewHarvestProgress renders to w. A nil w discards the output.
func NewHarvestProgress(w io.Writer, label string, total int) *HarvestProgress {
	if w == nil {
		w = io.Discard
	}
	p := mpb.New(mpb.WithOutput(w), mpb.WithWidth(40))

	var counter decor.Decorator
	if total > 0 {
		counter = decor.CountersNoUnit("%d / %d", decor.WCSyncSpace)
	} else {
		counter = decor.CurrentNoUnit("%d", decor.WCSyncSpace)
	}

	posts := p.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name(label, decor.WCSyncSpaceR),
			decor.Name("posts", decor.WCSyncSpaceR),
			counter,
		),
		mpb.AppendDecorators(
			decor.Elapsed(decor.ET_STYLE_GO, decor.WCSyncSpace),
		),
	)

	comments := p.New(0, mpb.NopStyle(),
		mpb.PrependDecorators(
			decor.Name(label, decor.WCSyncSpaceR),
			decor.Name("comments", decor.WCSyncSpaceR),
			decor.CurrentNoUnit("%d", decor.WCSyncSpace),
		),
	)

	return &HarvestProgress{progress: p, posts: posts, comments: comments}
}

// PostDone counts one harvested post
func (h *HarvestProgress) PostDone() {
	h.posts.Increment()
}

// CommentsDone counts n harvested comments and replies
func (h *HarvestProgress) CommentsDone(n int) {
	if n > 0 {
		h.comments.IncrBy(n)
	}
}

// Finish completes both bars and waits for the final render. It is safe to
// call more than once.
func (h *HarvestProgress) Finish() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.finished {
		return
	}
	h.finished = true

	h.posts.SetTotal(-1, true)
	h.comments.SetTotal(-1, true)
	h.progress.Wait()
}
