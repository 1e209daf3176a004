package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"igharvest/internal/downloader"
	"igharvest/pkg/auth"
	"igharvest/pkg/checkpoint"
	"igharvest/pkg/export"
	"igharvest/pkg/harvest"
	"igharvest/pkg/instagram"
	"igharvest/pkg/logger"
	"igharvest/pkg/prompt"
	"igharvest/pkg/storage"
	"igharvest/pkg/ui"
)

// exportTimeout bounds the archive writes that run after an interrupt
const exportTimeout = 2 * time.Minute

func runHarvest(cmd *cobra.Command, args []string) error {
	log := logger.GetLogger()
	if !quiet {
		ui.PrintBanner()
	}

	client := instagram.NewClientWithConfig(cfg, log)
	p := prompt.NewTerminal()

	var sessions sessionStore
	if manager, err := auth.NewManager(); err == nil {
		sessions = manager
	} else {
		log.WithError(err).Warn("Session store unavailable, sessions will not be saved")
	}

	pl, err := askPlan(cmd.Context(), p, client, sessions, log)
	if err != nil {
		return err
	}
	pl.Loader.SaveMetadata = cfg.Download.SaveMetadata
	pl.Loader.SaveCaptions = cfg.Download.SaveCaptions

	checkpoints, err := checkpoint.NewManager(pl.Target.Kind.String(), pl.Target.Query)
	if err != nil {
		return err
	}
	resume, err := askResume(p, checkpoints, pl.Target)
	if err != nil {
		return err
	}

	// Ctrl-C from here on stops the harvest instead of the process
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, err := harvest.Open(ctx, client, pl.Target)
	if err != nil {
		return fmt.Errorf("opening %s: %w", pl.Target, err)
	}

	store, err := storage.NewManager(cfg.Download.BaseDirectory)
	if err != nil {
		return err
	}
	pool := downloader.NewWorkerPool(cfg.Download.ConcurrentDownloads, client, store, log)
	pool.Start(ctx)
	defer pool.Stop()

	loader, err := harvest.NewLoader(store, pool, pl.Loader, log)
	if err != nil {
		return err
	}
	defer loader.Close()

	var progressOut io.Writer = os.Stderr
	if quiet {
		progressOut = nil
	}
	total := 0
	if pl.MaxPosts != nil {
		total = *pl.MaxPosts
	}

	session := &harvest.Session{
		Target:      pl.Target,
		Source:      source,
		Window:      pl.Window,
		MaxPosts:    pl.MaxPosts,
		Comments:    client,
		Loader:      loader,
		Checkpoints: checkpoints,
		Resume:      resume,
		Progress:    ui.NewHarvestProgress(progressOut, pl.Target.Dir(), total),
		Logger:      log,
	}

	notifier := ui.NewNotifier(cfg.Notifications)
	result, runErr := session.Run(ctx)
	stop()
	if runErr != nil {
		notifier.Failed("Harvest failed", runErr.Error())
		return runErr
	}

	// The harvest context may be cancelled already; exports still finish
	exportCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), exportTimeout)
	defer cancel()

	if err := exportResult(exportCtx, result, pl.Target, log); err != nil {
		notifier.Failed("Export failed", err.Error())
		return err
	}

	summary := fmt.Sprintf("%d posts, %d comments, %d files (%s)",
		len(result.Posts), len(result.Comments), result.Media.Saved, ui.FormatBytes(result.Media.Bytes))
	if result.Interrupted {
		notifier.Complete("Harvest interrupted", summary+". Run again to resume.")
	} else {
		notifier.Complete("Harvest finished", summary)
	}
	return nil
}

func askResume(p *prompt.Prompter, checkpoints *checkpoint.Manager, target harvest.Target) (*checkpoint.Checkpoint, error) {
	cp, err := checkpoints.Load()
	if err != nil || cp == nil {
		// An unreadable checkpoint only costs a fresh start
		return nil, nil
	}

	resume, err := p.YesNo(fmt.Sprintf("Resume previous harvest of %s?", target), prompt.DefaultYes)
	if err != nil {
		return nil, err
	}
	if !resume {
		return nil, checkpoints.Delete()
	}
	return cp, nil
}

// exportResult writes the CSV files and feeds every configured archive
func exportResult(ctx context.Context, result *harvest.Result, target harvest.Target, log logger.Logger) error {
	run := result.Export()

	postsPath, commentsPath, err := export.WriteFiles(cfg.Output.Directory, cfg.Output.PostsFile, cfg.Output.CommentsFile, run)
	if err != nil {
		return err
	}
	if !quiet {
		ui.PrintInfo("Posts", postsPath)
		ui.PrintInfo("Comments", commentsPath)
	}

	sinks, err := export.OpenSinks(ctx, cfg.Archive, log)
	if err != nil {
		return err
	}
	writeErr := export.WriteAll(ctx, sinks, run)
	closeErr := export.CloseSinks(sinks)
	if writeErr != nil {
		return writeErr
	}
	if closeErr != nil {
		return closeErr
	}

	if !cfg.Archive.S3.Enabled() {
		return nil
	}
	mirror, err := storage.NewS3Mirror(cfg.Archive.S3, log)
	if err != nil {
		return err
	}
	if _, err := mirror.WithPrefix(target.Dir()).MirrorDir(ctx, filepath.Join(cfg.Download.BaseDirectory, target.Dir())); err != nil {
		return err
	}
	for _, file := range []string{postsPath, commentsPath} {
		if err := mirror.WithPrefix(run.ID).MirrorFile(ctx, file); err != nil {
			return err
		}
	}
	return nil
}
