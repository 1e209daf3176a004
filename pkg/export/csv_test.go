package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"igharvest/pkg/instagram"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestWritePosts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", PostsFile)
	post := samplePost()
	post.Caption = "line one, with comma\nline \"two\""

	require.NoError(t, WritePosts(path, []PostRow{NewPostRow(post)}))

	records := readCSV(t, path)
	require.Len(t, records, 2)
	assert.Equal(t, PostColumns, records[0])
	assert.Equal(t, post.Caption, records[1][8], "quoting survives a round trip")

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestWriteCommentsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), CommentsFile)
	require.NoError(t, WriteComments(path, nil))

	records := readCSV(t, path)
	assert.Equal(t, [][]string{CommentColumns}, records)
}

func TestWriteComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), CommentsFile)
	rows := CommentRows("P1", &instagram.Comment{
		ID:      "1",
		Text:    "hi",
		OwnerID: "5",
		Answers: []instagram.Comment{{ID: "2", Text: "hello", OwnerID: "6"}},
	})
	require.NoError(t, WriteComments(path, rows))

	records := readCSV(t, path)
	require.Len(t, records, 3)
	assert.Equal(t, "1", records[2][1])
	assert.Equal(t, "", records[1][2], "zero time is left empty")
}

func TestWriteFilesDefaults(t *testing.T) {
	dir := t.TempDir()
	postsPath, commentsPath, err := WriteFiles(dir, "", "", &Run{Posts: []PostRow{NewPostRow(samplePost())}})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, PostsFile), postsPath)
	assert.Equal(t, filepath.Join(dir, CommentsFile), commentsPath)
	assert.Len(t, readCSV(t, postsPath), 2)
	assert.Len(t, readCSV(t, commentsPath), 1)
}
