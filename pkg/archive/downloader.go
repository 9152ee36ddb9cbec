package archive

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
)

const DefaultBaseURL = "https://gtfs.irail.be/logs/"

var ErrUnsafePath = errors.New("archive entry escapes target directory")

// FileName returns the name of the daily log archive for a day
func FileName(day time.Time) string {
	return fmt.Sprintf("irailapi-%s.log.tar.gz", day.Format("20060102"))
}

// Downloader fetches daily query-log archives and unpacks them into a directory
type Downloader struct {
	baseURL string
	dir     string
	client  *http.Client
	logger  *slog.Logger
}

func NewDownloader(baseURL, dir string, timeout time.Duration, logger *slog.Logger) *Downloader {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Downloader{
		baseURL: baseURL,
		dir:     dir,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger.With("component", "archive_downloader"),
	}
}

// DownloadRange fetches days consecutive archives starting at from. A failing
// day is logged and skipped; the number of failed days is returned.
func (d *Downloader) DownloadRange(ctx context.Context, from time.Time, days int) (int, error) {
	failed := 0
	for i := 0; i < days; i++ {
		if err := ctx.Err(); err != nil {
			return failed, err
		}

		day := from.AddDate(0, 0, i)
		if _, err := d.Download(ctx, day); err != nil {
			d.logger.Error("failed to fetch archive", "day", day.Format(time.DateOnly), "error", err)
			failed++
		}
	}
	return failed, nil
}

// Download fetches a single day's archive and returns the number of files extracted.
func (d *Downloader) Download(ctx context.Context, day time.Time) (int, error) {
	start := time.Now()
	url := d.baseURL + FileName(day)

	d.logger.Info("starting archive download", "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "irailjourneys/1.0")

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download archive: %w", err)
	}
	defer resp.Body.Close()

	d.logger.Debug("received HTTP response",
		"status_code", resp.StatusCode,
		"content_length", resp.ContentLength,
		"content_type", resp.Header.Get("Content-Type"),
	)

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	n, err := Extract(resp.Body, d.dir)
	if err != nil {
		return n, fmt.Errorf("extract %s: %w", FileName(day), err)
	}

	d.logger.Info("archive extracted",
		"file", FileName(day),
		"files_extracted", n,
		"total_duration_ms", time.Since(start).Milliseconds(),
	)
	return n, nil
}

// Extract unpacks a gzip-compressed tar stream into dir. Only regular files
// and directories are materialized.
func Extract(r io.Reader, dir string) (int, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return 0, fmt.Errorf("open gzip: %w", err)
	}
	defer zr.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return 0, err
	}

	tr := tar.NewReader(zr)
	files := 0
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return files, fmt.Errorf("read tar: %w", err)
		}

		target := filepath.Join(root, hdr.Name)
		if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return files, fmt.Errorf("%w: %s", ErrUnsafePath, hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return files, err
			}
		case tar.TypeReg:
			if err := writeFile(target, tr); err != nil {
				return files, fmt.Errorf("write %s: %w", hdr.Name, err)
			}
			files++
		}
	}

	return files, nil
}

func writeFile(path string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
