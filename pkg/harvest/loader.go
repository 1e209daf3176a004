package harvest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/klauspost/compress/zstd"

	"igharvest/internal/downloader"
	"igharvest/pkg/instagram"
	"igharvest/pkg/logger"
)

// Media selects which files of a post are downloaded
type Media struct {
	Pictures   bool
	Videos     bool
	Thumbnails bool
}

// MediaOptions are the choices of the media selector, in menu order
var MediaOptions = []string{"pictures", "videos", "thumbnails"}

// MediaFromSelection maps selected MediaOptions indices to Media
func MediaFromSelection(indices []int) Media {
	var m Media
	for _, i := range indices {
		switch i {
		case 0:
			m.Pictures = true
		case 1:
			m.Videos = true
		case 2:
			m.Thumbnails = true
		}
	}
	return m
}

// LoaderOptions configures what the Loader writes next to the media
type LoaderOptions struct {
	Media        Media
	CompressJSON bool
	SaveMetadata bool
	SaveCaptions bool
}

// LoadStats counts the files handled for one post
type LoadStats struct {
	Saved   int
	Skipped int
	Failed  int
	Bytes   int64
}

// Add accumulates other into s
func (s *LoadStats) Add(other LoadStats) {
	s.Saved += other.Saved
	s.Skipped += other.Skipped
	s.Failed += other.Failed
	s.Bytes += other.Bytes
}

// Downloader stores the files of a post
type Downloader interface {
	Download(ctx context.Context, post *instagram.Post, target Target) (LoadStats, error)
}

// Loader writes a post's media, metadata and caption below the target
// directory. Files that already exist are left alone.
type Loader struct {
	store   downloader.Storage
	pool    *downloader.WorkerPool
	opts    LoaderOptions
	encoder *zstd.Encoder
	logger  logger.Logger
}

// NewLoader creates a loader. pool must already be started.
func NewLoader(store downloader.Storage, pool *downloader.WorkerPool, opts LoaderOptions, log logger.Logger) (*Loader, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	l := &Loader{
		store:  store,
		pool:   pool,
		opts:   opts,
		logger: log.WithField("component", "loader"),
	}

	if opts.CompressJSON {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		l.encoder = enc
	}

	return l, nil
}

// Close releases the compressor
func (l *Loader) Close() error {
	if l.encoder != nil {
		return l.encoder.Close()
	}
	return nil
}

// Download fetches the selected media of post and writes its sidecar files.
// Failed media downloads are counted, not returned; a cancelled context and
// local write errors are returned.
func (l *Loader) Download(ctx context.Context, post *instagram.Post, target Target) (LoadStats, error) {
	var stats LoadStats
	dir := target.Dir()

	jobs := MediaJobs(post, dir, l.opts.Media)
	if len(jobs) > 0 {
		results, err := l.pool.DownloadAll(jobs)
		for _, r := range results {
			switch {
			case r.Error != nil:
				stats.Failed++
			case r.Skipped:
				stats.Skipped++
			default:
				stats.Saved++
				stats.Bytes += r.Size
			}
		}
		if err != nil {
			return stats, err
		}
	}
	if err := ctx.Err(); err != nil {
		return stats, err
	}

	if l.opts.SaveMetadata {
		name, data, err := l.metadata(post, dir)
		if err != nil {
			return stats, err
		}
		if err := l.write(name, data, post.Shortcode, &stats); err != nil {
			return stats, err
		}
	}

	if l.opts.SaveCaptions && strings.TrimSpace(post.Caption) != "" {
		name := path.Join(dir, post.Shortcode+".txt")
		if err := l.write(name, []byte(post.Caption), post.Shortcode, &stats); err != nil {
			return stats, err
		}
	}

	if stats.Failed > 0 {
		l.logger.WarnWithFields("Some media of a post could not be downloaded", map[string]interface{}{
			"shortcode": post.Shortcode,
			"failed":    stats.Failed,
		})
	}

	return stats, nil
}

func (l *Loader) metadata(post *instagram.Post, dir string) (string, []byte, error) {
	data := []byte(post.Raw())
	if len(data) == 0 {
		var err error
		data, err = json.Marshal(post)
		if err != nil {
			return "", nil, fmt.Errorf("failed to encode metadata of %s: %w", post.Shortcode, err)
		}
	}

	name := path.Join(dir, post.Shortcode+".json")
	if l.encoder != nil {
		return name + ".zst", l.encoder.EncodeAll(data, nil), nil
	}
	return name, data, nil
}

func (l *Loader) write(name string, data []byte, shortcode string, stats *LoadStats) error {
	if l.store.Exists(name) {
		stats.Skipped++
		return nil
	}
	n, err := l.store.Save(bytes.NewReader(data), name)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	stats.Saved++
	stats.Bytes += n
	logger.LogMediaSaved(l.logger, shortcode, name, n, false)
	return nil
}

// MediaJobs names the files of post below dir. A single item is saved as
// {shortcode}.jpg or .mp4, sidecar children as {shortcode}_N. Video
// thumbnails share the .jpg name of their item.
func MediaJobs(post *instagram.Post, dir string, media Media) []downloader.MediaJob {
	items := post.Media()
	var jobs []downloader.MediaJob

	for i, item := range items {
		base := post.Shortcode
		if len(items) > 1 {
			base = fmt.Sprintf("%s_%d", post.Shortcode, i+1)
		}
		base = path.Join(dir, base)

		add := func(url, ext string) {
			if url == "" {
				return
			}
			jobs = append(jobs, downloader.MediaJob{
				URL:       url,
				Name:      base + ext,
				Shortcode: post.Shortcode,
			})
		}

		if item.IsVideo {
			if media.Videos {
				add(item.VideoURL, ".mp4")
			}
			if media.Thumbnails {
				add(item.DisplayURL, ".jpg")
			}
			continue
		}
		if media.Pictures {
			add(item.DisplayURL, ".jpg")
		}
	}

	return jobs
}
