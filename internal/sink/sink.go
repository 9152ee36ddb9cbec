package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"

	"irailjourneys/internal/domain"
)

// Backend persists one encoded journey document under a key
type Backend interface {
	Store(ctx context.Context, key string, doc []byte) error
	Name() string
}

// Writer encodes journeys and hands them to every backend. It owns the
// journey counter; keys are unique per run but not gap-free.
type Writer struct {
	runID    string
	seq      atomic.Uint64
	backends []Backend
	logger   *slog.Logger
}

// NewRunID returns a fresh identifier that keeps keys of separate runs apart
func NewRunID() string {
	return uuid.NewString()
}

func NewWriter(runID string, logger *slog.Logger, backends ...Backend) *Writer {
	return &Writer{
		runID:    runID,
		backends: backends,
		logger:   logger.With("component", "sink"),
	}
}

func (w *Writer) RunID() string {
	return w.runID
}

// Count returns the number of keys handed out so far
func (w *Writer) Count() uint64 {
	return w.seq.Load()
}

// Write persists a journey and returns its key. The first backend error is
// returned; backends already written are not rolled back.
func (w *Writer) Write(ctx context.Context, journey *domain.Journey) (string, error) {
	if journey == nil {
		return "", errors.New("nil journey")
	}

	doc, err := json.Marshal(journey)
	if err != nil {
		return "", fmt.Errorf("json marshal: %w", err)
	}

	key := journeyKey(w.runID, w.seq.Add(1))

	for _, b := range w.backends {
		if err := b.Store(ctx, key, doc); err != nil {
			return "", fmt.Errorf("%s backend: %w", b.Name(), err)
		}
	}

	w.logger.Debug("journey stored", "key", key, "size_bytes", len(doc), "routes", len(journey.Routes))
	return key, nil
}

func journeyKey(runID string, n uint64) string {
	return fmt.Sprintf("journey-%s-%06d", runID, n)
}
