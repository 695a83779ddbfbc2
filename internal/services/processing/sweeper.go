package processing

import (
	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/causa/internal/interfaces"
	"github.com/ternarybob/causa/internal/models"
	"github.com/ternarybob/causa/internal/queue"
)

// Sweeper periodically re-enqueues assets left in queued, typically after a
// restart dropped the in-memory FIFO. Assets in processing are left alone;
// a crashed worker resolves them to failed on its own attempt.
type Sweeper struct {
	storage interfaces.StorageManager
	pool    *queue.Pool
	cron    *cron.Cron
	logger  arbor.ILogger
}

// NewSweeper creates a new stuck-asset sweeper
func NewSweeper(storage interfaces.StorageManager, pool *queue.Pool, logger arbor.ILogger) *Sweeper {
	return &Sweeper{
		storage: storage,
		pool:    pool,
		cron:    cron.New(),
		logger:  logger,
	}
}

// Start begins the periodic sweep. An empty schedule disables the sweeper.
func (s *Sweeper) Start(schedule string) error {
	if schedule == "" {
		s.logger.Debug().Msg("Asset sweep disabled (no schedule configured)")
		return nil
	}

	if _, err := s.cron.AddFunc(schedule, s.sweep); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info().Str("schedule", schedule).Msg("Asset sweep scheduler started")
	return nil
}

// Stop stops the scheduler
func (s *Sweeper) Stop() {
	s.cron.Stop()
}

func (s *Sweeper) sweep() {
	// Only sweep when the pool is idle: a busy pool still holds its FIFO, so
	// queued records are not stuck, just waiting.
	if s.pool.Active() > 0 || s.pool.PendingCount() > 0 {
		return
	}

	assets, err := s.storage.AssetStorage().ListAssets(&interfaces.ListOptions{
		Status: models.AssetStatusQueued,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Asset sweep failed to list queued assets")
		return
	}

	for _, asset := range assets {
		s.pool.Submit(asset.ID)
	}

	if len(assets) > 0 {
		s.logger.Info().Int("count", len(assets)).Msg("Re-enqueued stuck assets")
	}
}
