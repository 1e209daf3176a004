package export

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"igharvest/pkg/config"
	"igharvest/pkg/instagram"
	"igharvest/pkg/logger"
)

func sampleRun() *Run {
	post := samplePost()
	return &Run{
		ID:         "7f0c6a8e-3f5e-4d8e-9a55-0c3b1b2f6f11",
		Target:     "hashtag",
		Query:      "beach",
		StartedAt:  time.Date(2023, 9, 3, 10, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2023, 9, 3, 10, 5, 0, 0, time.UTC),
		Posts:      []PostRow{NewPostRow(post)},
		Comments: CommentRows(post.Shortcode, &instagram.Comment{
			ID: "1", Text: "wow", OwnerID: "3",
			Answers: []instagram.Comment{{ID: "2", Text: "yes", OwnerID: "4"}},
		}),
	}
}

func TestSQLiteSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive", "harvest.db")
	sink, err := NewSQLiteSink(path, logger.NewNopLogger())
	require.NoError(t, err)
	defer sink.Close()

	run := sampleRun()
	require.NoError(t, sink.Write(context.Background(), run))
	// Writing the same run again replaces rows instead of duplicating them
	require.NoError(t, sink.Write(context.Background(), run))

	var posts, comments int
	require.NoError(t, sink.db.QueryRow("SELECT COUNT(*) FROM posts").Scan(&posts))
	require.NoError(t, sink.db.QueryRow("SELECT COUNT(*) FROM comments").Scan(&comments))
	assert.Equal(t, 1, posts)
	assert.Equal(t, 2, comments)

	var locName sql.NullString
	var lat sql.NullFloat64
	require.NoError(t, sink.db.QueryRow("SELECT loc_name, loc_lat FROM posts WHERE shortcode = ?", "CxYz12").Scan(&locName, &lat))
	assert.Equal(t, "Venice Beach", locName.String)
	assert.InDelta(t, 33.985, lat.Float64, 1e-9)

	var parent sql.NullString
	require.NoError(t, sink.db.QueryRow("SELECT answer_to_comment FROM comments WHERE id = ?", "1").Scan(&parent))
	assert.False(t, parent.Valid)
	require.NoError(t, sink.db.QueryRow("SELECT answer_to_comment FROM comments WHERE id = ?", "2").Scan(&parent))
	assert.Equal(t, "1", parent.String)

	var target string
	require.NoError(t, sink.db.QueryRow("SELECT target FROM runs WHERE id = ?", run.ID).Scan(&target))
	assert.Equal(t, "hashtag", target)
}

func TestRunBatch(t *testing.T) {
	run := sampleRun()
	batch := runBatch(run)

	require.Equal(t, 1+len(run.Posts)+len(run.Comments), batch.Len())
	assert.Equal(t, upsertRunQuery, batch.QueuedQueries[0].SQL)
	assert.Equal(t, run.ID, batch.QueuedQueries[0].Arguments[0])

	post := batch.QueuedQueries[1]
	assert.Equal(t, upsertPostQuery, post.SQL)
	assert.Len(t, post.Arguments, 21)
	assert.Equal(t, "CxYz12", post.Arguments[0])

	answer := batch.QueuedQueries[3]
	assert.Equal(t, upsertCommentQuery, answer.SQL)
	assert.Equal(t, ptr("1"), answer.Arguments[3])
	assert.Nil(t, answer.Arguments[4], "zero timestamps become NULL")
}

func TestOpenSinksNothingConfigured(t *testing.T) {
	sinks, err := OpenSinks(context.Background(), config.ArchiveConfig{}, logger.NewNopLogger())
	require.NoError(t, err)
	assert.Empty(t, sinks)
}

type fakeSink struct {
	name   string
	err    error
	writes int
	closed bool
}

func (f *fakeSink) Name() string { return f.name }
func (f *fakeSink) Write(ctx context.Context, run *Run) error {
	f.writes++
	return f.err
}
func (f *fakeSink) Close() error { f.closed = true; return nil }

func TestWriteAllCollectsErrors(t *testing.T) {
	ok := &fakeSink{name: "ok"}
	bad := &fakeSink{name: "bad", err: errors.New("disk full")}

	err := WriteAll(context.Background(), []Sink{bad, ok}, sampleRun())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad archive: disk full")
	assert.Equal(t, 1, ok.writes, "a failing sink does not stop the others")

	require.NoError(t, CloseSinks([]Sink{ok, bad}))
	assert.True(t, ok.closed)
	assert.True(t, bad.closed)
}
