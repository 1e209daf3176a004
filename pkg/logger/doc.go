// Package logger provides the structured logging interface used across igharvest.
//
// It wraps zerolog behind a small Logger interface so components can attach
// fields (run id, target, shortcode) without depending on zerolog directly.
// Console output goes to stderr so log lines never interleave with the
// interactive prompts on stdout.
//
//	_ = logger.Initialize(&cfg.Logging)
//	log := logger.GetLogger().WithField("run_id", runID)
//	log.InfoWithFields("Harvest started", map[string]interface{}{
//	    "target": "hashtag",
//	    "query":  "cats",
//	})
//
// Tests use NewTestLogger to capture messages or NewNopLogger to discard them.
package logger
