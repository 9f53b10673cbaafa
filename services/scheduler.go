// services/scheduler.go
package services

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartSweepScheduler runs the automatic sweep on a cron schedule
// (SWEEP_CRON, default 02:00 daily). asOf is yesterday, the last calendar
// day participants could have fully recorded. The ledger makes overlapping
// or repeated runs harmless.
func (s *AwardingService) StartSweepScheduler() {
	cronExpr := os.Getenv("SWEEP_CRON")
	if cronExpr == "" {
		cronExpr = "0 2 * * *"
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		log.Printf("[Scheduler] ⚠️ Failed to create sweep scheduler: %v", err)
		return
	}
	sched.Start()

	_, err = sched.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(func() {
			asOf := time.Now().AddDate(0, 0, -1)
			log.Printf("[Scheduler] Starting automatic trophy sweep (asOf=%s)", asOf.Format("2006-01-02"))

			result, err := s.RunAutomaticSweep(context.Background(), asOf)
			if err != nil {
				log.Printf("[Scheduler] ❌ Sweep failed: %v", err)
				return
			}
			log.Printf("[Scheduler] ✅ Sweep done: %d awarded across %d participants (%d failed)",
				result.AwardedCount, result.ParticipantCount, len(result.FailedParticipants))
		}),
	)
	if err != nil {
		log.Printf("[Scheduler] ⚠️ Failed to schedule sweep job: %v", err)
	}
}
