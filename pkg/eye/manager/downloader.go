package manager

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cavaliercoder/grab"
	"github.com/giongto35/eye/pkg/compression"
	"github.com/giongto35/eye/pkg/logger"
)

// Client fetches the file at url into the dest dir
// and returns the path of the saved file.
type Client interface {
	Request(ctx context.Context, dest string, url string) (string, error)
}

type GrabDownloader struct {
	client   *grab.Client
	progress time.Duration
	log      *logger.Logger
}

func NewGrabDownloader(log *logger.Logger) GrabDownloader {
	return GrabDownloader{client: grab.NewClient(), progress: 2 * time.Second, log: log}
}

func (d GrabDownloader) Request(ctx context.Context, dest string, url string) (string, error) {
	req, err := grab.NewRequest(dest, url)
	if err != nil {
		return "", fmt.Errorf("couldn't make request URL: %v, %w", url, err)
	}
	req = req.WithContext(ctx)
	req.NoResume = true

	d.log.Info().Msgf("[lib-dl] <<< %v", req.URL())
	resp := d.client.Do(req)

	t := time.NewTicker(d.progress)
	defer t.Stop()
Loop:
	for {
		select {
		case <-t.C:
			d.log.Debug().Msgf("[lib-dl] transferred %v / %v bytes (%.2f%%)",
				resp.BytesComplete(), resp.Size(), 100*resp.Progress())
		case <-resp.Done:
			break Loop
		}
	}

	if err := resp.Err(); err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}
	d.log.Info().Msgf("[lib-dl] downloaded [%v] %s", resp.HTTPResponse.Status, resp.Filename)
	return resp.Filename, nil
}

type Downloader struct {
	backend Client
	log     *logger.Logger
}

func NewDefaultDownloader(log *logger.Logger) Downloader {
	return Downloader{backend: NewGrabDownloader(log), log: log}
}

// Download fetches the file and unpacks it if it's a known archive.
// Returns the list of files it has got.
func (d Downloader) Download(ctx context.Context, dest string, url string) ([]string, error) {
	file, err := d.backend.Request(ctx, dest, url)
	if err != nil {
		return nil, err
	}
	unpack := compression.NewFromExt(file, d.log)
	if unpack == nil {
		return []string{file}, nil
	}
	files, err := unpack.Extract(file, dest)
	if err != nil {
		return nil, fmt.Errorf("couldn't unpack %v: %w", file, err)
	}
	if err := os.Remove(file); err != nil {
		d.log.Warn().Err(err).Msgf("couldn't remove %v", file)
	}
	return files, nil
}
