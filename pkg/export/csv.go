package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// PostsFile is the file name of the posts table
	PostsFile = "output.csv"
	// CommentsFile is the file name of the comments table
	CommentsFile = "comments.csv"
)

// WritePosts writes the posts table to path
func WritePosts(path string, rows []PostRow) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.Record())
	}
	return writeCSV(path, PostColumns, records)
}

// WriteComments writes the comments table to path
func WriteComments(path string, rows []CommentRow) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.Record())
	}
	return writeCSV(path, CommentColumns, records)
}

// writeCSV writes header and records through a temporary file and a rename
func writeCSV(path string, header []string, records [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tempPath := path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tempPath, err)
	}

	w := csv.NewWriter(file)
	if err := w.Write(header); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := w.WriteAll(records); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write rows: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close %s: %w", tempPath, err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// WriteFiles writes both tables of run into dir. Empty file names fall back
// to PostsFile and CommentsFile.
func WriteFiles(dir, postsFile, commentsFile string, run *Run) (string, string, error) {
	if postsFile == "" {
		postsFile = PostsFile
	}
	if commentsFile == "" {
		commentsFile = CommentsFile
	}

	postsPath := filepath.Join(dir, postsFile)
	commentsPath := filepath.Join(dir, commentsFile)

	if err := WritePosts(postsPath, run.Posts); err != nil {
		return "", "", err
	}
	if err := WriteComments(commentsPath, run.Comments); err != nil {
		return "", "", err
	}
	return postsPath, commentsPath, nil
}
