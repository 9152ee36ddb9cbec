package ingestor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"irailjourneys/internal/domain"
	"irailjourneys/internal/logrecord"
)

const maxLineSize = 16 * 1024 * 1024

type Reconstructor interface {
	Reconstruct(ctx context.Context, query domain.Query, options []domain.JourneyOption) (*domain.Journey, error)
}

type Sink interface {
	Write(ctx context.Context, journey *domain.Journey) (string, error)
}

// Stats summarizes one pipeline run
type Stats struct {
	Files        int
	Lines        int
	InvalidLines int
	Ignored      int
	Journeys     int
	Failed       int
	SinkErrors   int
	EmptyRoutes  int
	// Canceled counts lines dropped because the run was cancelled; they are
	// neither failures nor sink errors.
	Canceled int
}

type Pipeline struct {
	dir           string
	reconstructor Reconstructor
	sink          Sink
	workers       int
	logger        *slog.Logger

	statsMu sync.Mutex
	stats   Stats
}

func New(dir string, reconstructor Reconstructor, sink Sink, workers int, logger *slog.Logger) *Pipeline {
	if workers < 1 {
		workers = 1
	}
	return &Pipeline{
		dir:           dir,
		reconstructor: reconstructor,
		sink:          sink,
		workers:       workers,
		logger:        logger.With("component", "pipeline"),
	}
}

// LogFiles returns every regular file below dir in lexical order
func LogFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// Run processes every log line once. Bad records are counted and skipped;
// only a cancelled context or an unreadable archive directory ends the run
// early.
func (p *Pipeline) Run(ctx context.Context) (Stats, error) {
	start := time.Now()

	files, err := LogFiles(p.dir)
	if err != nil {
		return Stats{}, err
	}
	p.logger.Info("starting pipeline", "dir", p.dir, "files", len(files), "workers", p.workers)

	lines := make(chan []byte, p.workers*4)

	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for line := range lines {
				p.processLine(ctx, line)
			}
		}()
	}

	readErr := p.readFiles(ctx, files, lines)
	close(lines)
	wg.Wait()

	stats := p.Stats()
	p.logger.Info("pipeline completed",
		"files", stats.Files,
		"lines", stats.Lines,
		"invalid_lines", stats.InvalidLines,
		"ignored", stats.Ignored,
		"journeys", stats.Journeys,
		"failed", stats.Failed,
		"sink_errors", stats.SinkErrors,
		"empty_routes", stats.EmptyRoutes,
		"canceled", stats.Canceled,
		"total_duration_ms", time.Since(start).Milliseconds(),
	)

	return stats, readErr
}

func (p *Pipeline) readFiles(ctx context.Context, files []string, lines chan<- []byte) error {
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.readFile(ctx, path, lines); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.Error("failed to read log file", "path", path, "error", err)
			continue
		}
		p.update(func(s *Stats) { s.Files++ })
	}
	return nil
}

func (p *Pipeline) readFile(ctx context.Context, path string, lines chan<- []byte) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		line := make([]byte, len(raw))
		copy(line, raw)

		select {
		case lines <- line:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return scanner.Err()
}

func (p *Pipeline) processLine(ctx context.Context, line []byte) {
	p.update(func(s *Stats) { s.Lines++ })

	if ctx.Err() != nil {
		p.update(func(s *Stats) { s.Canceled++ })
		return
	}

	rec, err := logrecord.Parse(line)
	if err != nil {
		p.update(func(s *Stats) { s.InvalidLines++ })
		p.logger.Debug("skipping invalid line", "error", err)
		return
	}

	if !rec.IsConnections() {
		p.update(func(s *Stats) { s.Ignored++ })
		return
	}

	query, err := rec.Query()
	if err != nil {
		p.fail(ctx, "malformed query", err)
		return
	}

	journey, err := p.reconstructor.Reconstruct(ctx, query, rec.Options())
	if err != nil {
		p.fail(ctx, "reconstruction failed", err)
		return
	}

	key, err := p.sink.Write(ctx, journey)
	if err != nil {
		if canceled(ctx, err) {
			p.update(func(s *Stats) { s.Canceled++ })
			return
		}
		p.update(func(s *Stats) { s.SinkErrors++ })
		p.logger.Error("failed to store journey", "error", err)
		return
	}

	empty := journey.EmptyRoutes()
	p.update(func(s *Stats) {
		s.Journeys++
		s.EmptyRoutes += empty
	})
	p.logger.Debug("journey written", "key", key, "routes", len(journey.Routes), "empty_routes", empty)
}

func (p *Pipeline) fail(ctx context.Context, msg string, err error) {
	if canceled(ctx, err) {
		p.update(func(s *Stats) { s.Canceled++ })
		p.logger.Debug(msg, "error", err, "canceled", true)
		return
	}
	p.update(func(s *Stats) { s.Failed++ })

	p.logger.Warn(msg,
		"error", err,
		"incomplete_vehicle_data", errors.Is(err, domain.ErrIncompleteVehicleData),
		"malformed_query", errors.Is(err, domain.ErrMalformedQuery),
	)
}

// canceled reports whether err is the run's own cancellation
func canceled(ctx context.Context, err error) bool {
	return ctx.Err() != nil && errors.Is(err, ctx.Err())
}

func (p *Pipeline) update(fn func(*Stats)) {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	fn(&p.stats)
}

func (p *Pipeline) Stats() Stats {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	return p.stats
}
