package harvest

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/google/uuid"

	"igharvest/pkg/checkpoint"
	errs "igharvest/pkg/errors"
	"igharvest/pkg/export"
	"igharvest/pkg/instagram"
	"igharvest/pkg/logger"
)

const progressLogInterval = 25

// Progress receives harvest counters as they change
type Progress interface {
	PostDone()
	CommentsDone(n int)
	Finish()
}

type nopProgress struct{}

func (nopProgress) PostDone()        {}
func (nopProgress) CommentsDone(int) {}
func (nopProgress) Finish()          {}

// Session is one pass over a post stream. Zero values of the optional
// fields switch the corresponding step off.
type Session struct {
	Target Target
	Source PostSource

	// Window and MaxPosts restrict which posts are harvested
	Window   *DateWindow
	MaxPosts *int

	Comments    CommentSource
	Loader      Downloader
	Checkpoints *checkpoint.Manager
	Resume      *checkpoint.Checkpoint
	Progress    Progress
	Logger      logger.Logger
	RunID       string
}

// Result is what a session collected
type Result struct {
	RunID       string
	Target      Target
	Posts       []*instagram.Post
	Comments    []export.CommentRow
	Media       LoadStats
	Interrupted bool
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Run iterates the source until it ends, ctx is cancelled or an error
// occurs. Cancellation is not an error: the result is marked Interrupted and
// holds everything collected so far. Any other error is returned together
// with the partial result.
func (s *Session) Run(ctx context.Context) (*Result, error) {
	if s.RunID == "" {
		s.RunID = uuid.NewString()
	}
	if s.Progress == nil {
		s.Progress = nopProgress{}
	}
	log := s.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	log = log.WithFields(map[string]interface{}{
		"run_id": s.RunID,
		"target": s.Target.Kind.String(),
		"query":  s.Target.Query,
	})

	result := &Result{
		RunID:     s.RunID,
		Target:    s.Target,
		StartedAt: time.Now(),
	}
	defer s.Progress.Finish()

	cp, err := s.startCheckpoint()
	if err != nil {
		return result, err
	}

	posts := s.Source.All(ctx)
	if s.Window != nil {
		posts = s.Window.Apply(posts)
	}
	if s.MaxPosts != nil {
		posts = Limit(posts, *s.MaxPosts)
	}

	log.Info("Harvest started")

	runErr := s.collect(ctx, posts, result, log)
	result.FinishedAt = time.Now()

	switch {
	case runErr == nil:
		if s.Checkpoints != nil {
			if err := s.Checkpoints.Delete(); err != nil {
				log.WithError(err).Warn("Failed to delete checkpoint")
			}
		}
		log.InfoWithFields("Harvest finished", map[string]interface{}{
			"posts":    len(result.Posts),
			"comments": len(result.Comments),
		})
		return result, nil

	case isInterrupt(ctx, runErr):
		result.Interrupted = true
		s.saveCheckpoint(cp, result, log)
		log.InfoWithFields("Harvest interrupted", map[string]interface{}{
			"posts":    len(result.Posts),
			"comments": len(result.Comments),
		})
		return result, nil

	default:
		s.saveCheckpoint(cp, result, log)
		return result, runErr
	}
}

func (s *Session) collect(ctx context.Context, posts iter.Seq2[*instagram.Post, error], result *Result, log logger.Logger) error {
	for post, err := range posts {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if s.Loader != nil {
			stats, err := s.Loader.Download(ctx, post, s.Target)
			result.Media.Add(stats)
			if err != nil {
				return fmt.Errorf("downloading %s: %w", post.Shortcode, err)
			}
		}

		result.Posts = append(result.Posts, post)
		s.Progress.PostDone()

		if s.Comments != nil && post.Comments > 0 {
			n := 0
			for comment, err := range s.Comments.Comments(ctx, post.Shortcode) {
				if err != nil {
					return fmt.Errorf("comments of %s: %w", post.Shortcode, err)
				}
				rows := export.CommentRows(post.Shortcode, comment)
				result.Comments = append(result.Comments, rows...)
				n += len(rows)
			}
			s.Progress.CommentsDone(n)
		}

		if len(result.Posts)%progressLogInterval == 0 {
			logger.LogHarvestProgress(log, s.Target.Kind.String(), s.Target.Query, len(result.Posts), len(result.Comments))
		}
	}
	return nil
}

func (s *Session) startCheckpoint() (*checkpoint.Checkpoint, error) {
	if s.Resume != nil {
		s.Source.Resume(s.Resume.EndCursor)
		s.Resume.RunID = s.RunID
		return s.Resume, nil
	}
	if s.Checkpoints == nil {
		return nil, nil
	}
	cp, err := s.Checkpoints.Create(s.Target.Kind.String(), s.Target.Query, s.RunID)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkpoint: %w", err)
	}
	return cp, nil
}

func (s *Session) saveCheckpoint(cp *checkpoint.Checkpoint, result *Result, log logger.Logger) {
	if s.Checkpoints == nil || cp == nil {
		return
	}
	if err := s.Checkpoints.UpdateProgress(cp, s.Source.Cursor(), len(result.Posts), len(result.Comments)); err != nil {
		log.WithError(err).Warn("Failed to save checkpoint")
		return
	}
	log.InfoWithFields("Checkpoint saved", map[string]interface{}{
		"cursor": cp.EndCursor,
		"path":   s.Checkpoints.Path(),
	})
}

func isInterrupt(ctx context.Context, err error) bool {
	return errors.Is(err, errs.ErrInterrupted) ||
		errors.Is(err, context.Canceled) ||
		ctx.Err() != nil
}

// Export flattens the result into the rows written to CSV and archives
func (r *Result) Export() *export.Run {
	rows := make([]export.PostRow, 0, len(r.Posts))
	for _, p := range r.Posts {
		rows = append(rows, export.NewPostRow(p))
	}
	return &export.Run{
		ID:          r.RunID,
		Target:      r.Target.Kind.String(),
		Query:       r.Target.Query,
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
		Interrupted: r.Interrupted,
		Posts:       rows,
		Comments:    r.Comments,
	}
}
