// Package checkpoint saves and restores the position of an interrupted harvest.
//
// A checkpoint is keyed by target kind and query and records the end cursor
// of the page that was being consumed, the run id and the counters of the
// interrupted run. Resuming restarts pagination at that cursor; media that
// are already on disk are skipped by the loader.
//
// Checkpoints are stored in platform-specific data directories:
//   - Linux: ~/.local/share/igharvest/checkpoints/
//   - macOS: ~/Library/Application Support/igharvest/checkpoints/
//   - Windows: %APPDATA%/igharvest/checkpoints/
//
// Files are written through a temporary file and a rename so a crash never
// leaves a truncated checkpoint behind.
package checkpoint
