package export

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"igharvest/pkg/logger"
)

// SQLiteSink keeps every harvested row in a local SQLite database
type SQLiteSink struct {
	db     *sql.DB
	logger logger.Logger
}

// NewSQLiteSink opens (or creates) the database at path
func NewSQLiteSink(path string, log logger.Logger) (*SQLiteSink, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sink := &SQLiteSink{db: db, logger: log.WithField("component", "sqlite")}
	if err := sink.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return sink, nil
}

func (s *SQLiteSink) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		target TEXT NOT NULL,
		query TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		interrupted INTEGER NOT NULL,
		posts INTEGER NOT NULL,
		comments INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS posts (
		shortcode TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		mediaid TEXT NOT NULL,
		owner_username TEXT,
		owner_id TEXT,
		date_local TEXT,
		date_utc TEXT,
		url TEXT,
		typename TEXT,
		caption TEXT,
		caption_hashtags TEXT,
		caption_mentions TEXT,
		pcaption TEXT,
		tagged_users TEXT,
		video_url TEXT,
		video_view_count INTEGER,
		likes INTEGER,
		comments INTEGER,
		loc_id TEXT,
		loc_lat REAL,
		loc_lng REAL,
		loc_name TEXT
	);

	CREATE TABLE IF NOT EXISTS comments (
		id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		post_shortcode TEXT NOT NULL,
		answer_to_comment TEXT,
		created_at_utc TEXT,
		likes_count INTEGER,
		owner TEXT,
		text TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_comments_post ON comments(post_shortcode);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Name identifies the sink in errors and logs
func (s *SQLiteSink) Name() string {
	return "sqlite"
}

// Write upserts the run, its posts and its comments in one transaction
func (s *SQLiteSink) Write(ctx context.Context, run *Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs (id, target, query, started_at, finished_at, interrupted, posts, comments)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Target, run.Query,
		formatTime(run.StartedAt, LocalLayout),
		formatTime(run.FinishedAt, LocalLayout),
		run.Interrupted, len(run.Posts), len(run.Comments),
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	postStmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO posts (
			shortcode, run_id, mediaid, owner_username, owner_id, date_local, date_utc,
			url, typename, caption, caption_hashtags, caption_mentions, pcaption,
			tagged_users, video_url, video_view_count, likes, comments,
			loc_id, loc_lat, loc_lng, loc_name
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare post insert: %w", err)
	}
	defer postStmt.Close()

	for _, p := range run.Posts {
		_, err := postStmt.ExecContext(ctx,
			p.Shortcode, run.ID, p.MediaID, p.OwnerUsername, p.OwnerID,
			formatTime(p.DateLocal, LocalLayout), formatTime(p.DateUTC, UTCLayout),
			p.URL, p.Typename, p.Caption, p.CaptionHashtags, p.CaptionMentions, p.PCaption,
			p.TaggedUsers, nullString(p.VideoURL), p.VideoViewCount, p.Likes, p.Comments,
			nullString(p.LocID), p.LocLat, p.LocLng, nullString(p.LocName),
		)
		if err != nil {
			return fmt.Errorf("failed to store post %s: %w", p.Shortcode, err)
		}
	}

	commentStmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO comments (
			id, run_id, post_shortcode, answer_to_comment, created_at_utc, likes_count, owner, text
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare comment insert: %w", err)
	}
	defer commentStmt.Close()

	for _, c := range run.Comments {
		_, err := commentStmt.ExecContext(ctx,
			c.ID, run.ID, c.PostShortcode, nullString(c.AnswerToComment),
			formatTime(c.CreatedAtUTC, UTCLayout), c.LikesCount, c.Owner, c.Text,
		)
		if err != nil {
			return fmt.Errorf("failed to store comment %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	s.logger.InfoWithFields("Run archived", map[string]interface{}{
		"run_id":   run.ID,
		"posts":    len(run.Posts),
		"comments": len(run.Comments),
	})
	return nil
}

// Close closes the database connection
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
