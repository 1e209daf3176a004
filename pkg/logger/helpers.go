package logger

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// LogRequest logs the outcome of an HTTP request
func LogRequest(l Logger, method, url string, statusCode int, duration time.Duration) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration":    duration,
	}

	switch {
	case statusCode >= 500:
		l.ErrorWithFields("HTTP request server error", fields)
	case statusCode >= 400:
		l.WarnWithFields("HTTP request client error", fields)
	default:
		l.DebugWithFields("HTTP request completed", fields)
	}
}

// LogMediaSaved logs one media file written by the loader
func LogMediaSaved(l Logger, shortcode, file string, size int64, skipped bool) {
	fields := map[string]interface{}{
		"shortcode": shortcode,
		"file":      file,
		"size":      size,
	}
	if skipped {
		l.DebugWithFields("Media already on disk, skipped", fields)
		return
	}
	l.DebugWithFields("Media saved", fields)
}

// LogRateLimit logs a rate limit wait
func LogRateLimit(l Logger, kind string, wait time.Duration) {
	l.WithFields(map[string]interface{}{
		"kind":   kind,
		"wait":   wait,
		"action": "rate_limited",
	}).Warn("Rate limit reached, backing off")
}

// LogHarvestProgress logs a harvest progress line
func LogHarvestProgress(l Logger, target, query string, posts, comments int) {
	l.WithFields(map[string]interface{}{
		"target":   target,
		"query":    query,
		"posts":    posts,
		"comments": comments,
	}).Info("Harvest progress")
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}
