package export

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"igharvest/pkg/logger"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS harvest_runs (
		id UUID PRIMARY KEY,
		target TEXT NOT NULL,
		query TEXT NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ NOT NULL,
		interrupted BOOLEAN NOT NULL,
		posts INTEGER NOT NULL,
		comments INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS harvest_posts (
		shortcode TEXT PRIMARY KEY,
		run_id UUID NOT NULL,
		mediaid TEXT NOT NULL,
		owner_username TEXT,
		owner_id TEXT,
		date_utc TIMESTAMPTZ,
		url TEXT,
		typename TEXT,
		caption TEXT,
		caption_hashtags TEXT,
		caption_mentions TEXT,
		pcaption TEXT,
		tagged_users TEXT,
		video_url TEXT,
		video_view_count BIGINT,
		likes BIGINT,
		comments BIGINT,
		loc_id TEXT,
		loc_lat DOUBLE PRECISION,
		loc_lng DOUBLE PRECISION,
		loc_name TEXT,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS harvest_comments (
		id TEXT PRIMARY KEY,
		run_id UUID NOT NULL,
		post_shortcode TEXT NOT NULL,
		answer_to_comment TEXT,
		created_at_utc TIMESTAMPTZ,
		likes_count BIGINT,
		owner TEXT,
		text TEXT,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
`

const upsertRunQuery = `
	INSERT INTO harvest_runs (id, target, query, started_at, finished_at, interrupted, posts, comments)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (id) DO UPDATE SET
		finished_at = EXCLUDED.finished_at,
		interrupted = EXCLUDED.interrupted,
		posts = EXCLUDED.posts,
		comments = EXCLUDED.comments
`

const upsertPostQuery = `
	INSERT INTO harvest_posts (
		shortcode, run_id, mediaid, owner_username, owner_id, date_utc, url, typename,
		caption, caption_hashtags, caption_mentions, pcaption, tagged_users,
		video_url, video_view_count, likes, comments, loc_id, loc_lat, loc_lng, loc_name, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, NOW())
	ON CONFLICT (shortcode) DO UPDATE SET
		run_id = EXCLUDED.run_id,
		caption = EXCLUDED.caption,
		caption_hashtags = EXCLUDED.caption_hashtags,
		caption_mentions = EXCLUDED.caption_mentions,
		pcaption = EXCLUDED.pcaption,
		tagged_users = EXCLUDED.tagged_users,
		video_view_count = COALESCE(EXCLUDED.video_view_count, harvest_posts.video_view_count),
		likes = EXCLUDED.likes,
		comments = EXCLUDED.comments,
		updated_at = NOW()
`

const upsertCommentQuery = `
	INSERT INTO harvest_comments (
		id, run_id, post_shortcode, answer_to_comment, created_at_utc, likes_count, owner, text, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
	ON CONFLICT (id) DO UPDATE SET
		run_id = EXCLUDED.run_id,
		likes_count = EXCLUDED.likes_count,
		text = EXCLUDED.text,
		updated_at = NOW()
`

// PostgresSink upserts harvested rows into PostgreSQL
type PostgresSink struct {
	pool   *pgxpool.Pool
	logger logger.Logger
}

// NewPostgresSink connects to dsn and makes sure the tables exist
func NewPostgresSink(ctx context.Context, dsn string, log logger.Logger) (*PostgresSink, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing dsn: %w", err)
	}
	cfg.MaxConns = 4

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	return &PostgresSink{pool: pool, logger: log.WithField("component", "postgres")}, nil
}

// Name identifies the sink in errors and logs
func (s *PostgresSink) Name() string {
	return "postgres"
}

// Write upserts the run and all of its rows in a single batch
func (s *PostgresSink) Write(ctx context.Context, run *Run) error {
	batch := runBatch(run)

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upserting row %d: %w", i, err)
		}
	}

	s.logger.InfoWithFields("Run archived", map[string]interface{}{
		"run_id":   run.ID,
		"posts":    len(run.Posts),
		"comments": len(run.Comments),
	})
	return nil
}

// Close closes the connection pool
func (s *PostgresSink) Close() error {
	s.pool.Close()
	return nil
}

// runBatch queues the run row followed by one upsert per post and comment
func runBatch(run *Run) *pgx.Batch {
	batch := &pgx.Batch{}

	batch.Queue(upsertRunQuery,
		run.ID, run.Target, run.Query, run.StartedAt, run.FinishedAt,
		run.Interrupted, len(run.Posts), len(run.Comments),
	)

	for _, p := range run.Posts {
		batch.Queue(upsertPostQuery,
			p.Shortcode, run.ID, p.MediaID, p.OwnerUsername, p.OwnerID, nullTime(p.DateUTC),
			p.URL, p.Typename, p.Caption, p.CaptionHashtags, p.CaptionMentions, p.PCaption,
			p.TaggedUsers, nullString(p.VideoURL), p.VideoViewCount, p.Likes, p.Comments,
			nullString(p.LocID), p.LocLat, p.LocLng, nullString(p.LocName),
		)
	}

	for _, c := range run.Comments {
		batch.Queue(upsertCommentQuery,
			c.ID, run.ID, c.PostShortcode, nullString(c.AnswerToComment),
			nullTime(c.CreatedAtUTC), c.LikesCount, c.Owner, c.Text,
		)
	}

	return batch
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
