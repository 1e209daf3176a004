package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"igharvest/pkg/config"
	"igharvest/pkg/logger"
)

// Run is everything one harvest produced
type Run struct {
	ID          string
	Target      string
	Query       string
	StartedAt   time.Time
	FinishedAt  time.Time
	Interrupted bool
	Posts       []PostRow
	Comments    []CommentRow
}

// Sink archives the rows of a run somewhere besides the CSV files
type Sink interface {
	Name() string
	Write(ctx context.Context, run *Run) error
	Close() error
}

// OpenSinks opens every archive configured in cfg. Nothing configured
// means no sinks.
func OpenSinks(ctx context.Context, cfg config.ArchiveConfig, log logger.Logger) ([]Sink, error) {
	var sinks []Sink

	if cfg.SQLitePath != "" {
		s, err := NewSQLiteSink(cfg.SQLitePath, log)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
	}

	if cfg.PostgresDSN != "" {
		s, err := NewPostgresSink(ctx, cfg.PostgresDSN, log)
		if err != nil {
			CloseSinks(sinks)
			return nil, err
		}
		sinks = append(sinks, s)
	}

	return sinks, nil
}

// WriteAll hands run to every sink and collects their failures
func WriteAll(ctx context.Context, sinks []Sink, run *Run) error {
	var errList []error
	for _, s := range sinks {
		if err := s.Write(ctx, run); err != nil {
			errList = append(errList, fmt.Errorf("%s archive: %w", s.Name(), err))
		}
	}
	return errors.Join(errList...)
}

// CloseSinks closes every sink
func CloseSinks(sinks []Sink) error {
	var errList []error
	for _, s := range sinks {
		if err := s.Close(); err != nil {
			errList = append(errList, fmt.Errorf("closing %s archive: %w", s.Name(), err))
		}
	}
	return errors.Join(errList...)
}
