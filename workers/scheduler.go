// workers/scheduler.go
package workers

import (
	"context"
	"log"
	"time"

	"item-claim-system/middleware"

	"github.com/go-co-op/gocron/v2"
)

// StartScheduler runs the periodic housekeeping jobs. exporter may be nil when
// object storage is not configured.
func StartScheduler(ctx context.Context, exporter *ClaimExporter, exportInterval time.Duration, limiter *middleware.RateLimiter) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	if exporter != nil {
		_, err = sched.NewJob(
			gocron.DurationJob(exportInterval),
			gocron.NewTask(func() {
				if _, err := exporter.RunOnce(ctx); err != nil {
					log.Printf("[EXPORT] ❌ Run failed: %v", err)
				}
			}),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return nil, err
		}
		log.Printf("🔁 Claim export scheduled every %s", exportInterval)
	}

	if limiter != nil {
		_, err = sched.NewJob(
			gocron.DurationJob(5*time.Minute),
			gocron.NewTask(func() {
				if n := limiter.Cleanup(time.Now()); n > 0 {
					log.Printf("[RATE_LIMIT] Dropped %d idle buckets", n)
				}
			}),
		)
		if err != nil {
			return nil, err
		}
	}

	sched.Start()
	return sched, nil
}
