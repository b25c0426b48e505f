package planning

import (
	"github.com/rs/zerolog"
)

// CacheSweepJob removes expired recommendation plans from the cache.
// It is scheduled to run hourly.
type CacheSweepJob struct {
	cache *PlanCache
	log   zerolog.Logger
}

// NewCacheSweepJob creates a new plan cache sweep job.
func NewCacheSweepJob(cache *PlanCache, log zerolog.Logger) *CacheSweepJob {
	return &CacheSweepJob{
		cache: cache,
		log:   log.With().Str("job", "plan_cache_sweep").Logger(),
	}
}

// Run executes the sweep, removing all expired plans.
func (j *CacheSweepJob) Run() error {
	deleted, err := j.cache.SweepExpired()
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to sweep expired plans")
		return err
	}

	if deleted > 0 {
		j.log.Info().Int("deleted", deleted).Msg("Swept expired recommendation plans")
	}
	return nil
}

// Name returns the job name for scheduling and logging.
func (j *CacheSweepJob) Name() string {
	return "plan_cache_sweep"
}
