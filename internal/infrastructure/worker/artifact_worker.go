package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/auctify/settlement-engine/internal/application/port"
)

// ArtifactWorkerConfig holds configuration for the artifact worker
type ArtifactWorkerConfig struct {
	PollInterval time.Duration
	BatchSize    int
}

// DefaultArtifactWorkerConfig returns default configuration
func DefaultArtifactWorkerConfig() ArtifactWorkerConfig {
	return ArtifactWorkerConfig{
		PollInterval: time.Minute,
		BatchSize:    10,
	}
}

// ArtifactWorker writes payment files whose write failed after the export
// committed. The stored XML is the source of truth.
type ArtifactWorker struct {
	config ArtifactWorkerConfig

	batchRepo port.PaymentBatchRepository
	saleRepo  port.SaleRepository
	artifacts port.ArtifactStore
	logger    *zap.Logger

	mu           sync.Mutex
	cancel       context.CancelFunc
	done         chan struct{}
	isRunning    bool
	writtenCount int
	failedCount  int
}

// NewArtifactWorker creates a new artifact worker
func NewArtifactWorker(
	config ArtifactWorkerConfig,
	batchRepo port.PaymentBatchRepository,
	saleRepo port.SaleRepository,
	artifacts port.ArtifactStore,
	logger *zap.Logger,
) *ArtifactWorker {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultArtifactWorkerConfig().PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultArtifactWorkerConfig().BatchSize
	}
	return &ArtifactWorker{
		config:    config,
		batchRepo: batchRepo,
		saleRepo:  saleRepo,
		artifacts: artifacts,
		logger:    logger,
	}
}

// Start begins the polling loop
func (w *ArtifactWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.isRunning {
		return fmt.Errorf("artifact worker already running")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	w.isRunning = true

	w.logger.Info("ArtifactWorker started",
		zap.Duration("poll_interval", w.config.PollInterval),
		zap.Int("batch_size", w.config.BatchSize))

	go w.pollLoop(loopCtx, w.done)
	return nil
}

// Stop terminates the loop and waits for the current pass to finish
func (w *ArtifactWorker) Stop() error {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return nil
	}
	w.isRunning = false
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	cancel()
	<-done

	w.logger.Info("ArtifactWorker stopped",
		zap.Int("written_count", w.writtenCount),
		zap.Int("failed_count", w.failedCount))
	return nil
}

// Name returns the worker name for identification
func (w *ArtifactWorker) Name() string {
	return "ArtifactWorker"
}

func (w *ArtifactWorker) pollLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
				w.logger.Error("Failed to restore payment files", zap.Error(err))
			}
		}
	}
}

// RunOnce writes the files of up to BatchSize batches and returns how many
// were written. A batch that fails is logged and retried on the next pass.
func (w *ArtifactWorker) RunOnce(ctx context.Context) (int, error) {
	batches, err := w.batchRepo.ListWithoutArtifact(ctx, w.config.BatchSize)
	if err != nil {
		return 0, err
	}

	written := 0
	for _, batch := range batches {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		sale, err := w.saleRepo.GetByID(ctx, batch.SaleID)
		if err != nil || sale == nil {
			w.recordFailure(batch.ID, fmt.Errorf("sale %d unavailable: %v", batch.SaleID, err))
			continue
		}

		path, err := w.artifacts.Save(ctx, sale.Number, batch.FileName(), batch.XML)
		if err != nil {
			w.recordFailure(batch.ID, err)
			continue
		}
		if err := w.batchRepo.SetArtifactPath(ctx, batch.ID, path); err != nil {
			w.recordFailure(batch.ID, err)
			continue
		}

		written++
		w.logger.Info("Payment file restored",
			zap.Int64("batch_id", batch.ID),
			zap.String("path", path))
	}

	w.mu.Lock()
	w.writtenCount += written
	w.mu.Unlock()
	return written, nil
}

func (w *ArtifactWorker) recordFailure(batchID int64, err error) {
	w.mu.Lock()
	w.failedCount++
	w.mu.Unlock()
	w.logger.Error("Failed to write payment file", zap.Int64("batch_id", batchID), zap.Error(err))
}
