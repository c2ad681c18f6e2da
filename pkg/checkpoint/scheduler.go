package checkpoint

import (
	"github.com/robfig/cron/v3"

	"smartcopy/pkg/helper/log"
)

// ScheduledGC periodically runs Manager.Cleanup in the background on a
// cron schedule, so long-lived hosts don't need an external cron entry
// calling `smartcopy checkpoint gc` to keep stale transfer state from
// accumulating (spec §4.9 garbage collection).
type ScheduledGC struct {
	cron   *cron.Cron
	logger log.Logger
}

// NewScheduledGC starts a background job running manager.Cleanup(maxAgeDays)
// on the given cron spec (standard five-field expressions, e.g. "0 3 * * *"
// for daily at 3am). Call Stop to end it.
func NewScheduledGC(spec string, manager *Manager, maxAgeDays int, logger log.Logger) (*ScheduledGC, error) {
	if logger == nil {
		logger = log.NewBasicLogger(log.ErrorLevel)
	}

	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		removed, err := manager.Cleanup(maxAgeDays)
		if err != nil {
			logger.WithField("error", err.Error()).Error("scheduled checkpoint gc failed")
			return
		}
		if removed > 0 {
			logger.WithField("removed", removed).Info("scheduled checkpoint gc removed stale transfer state")
		}
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	return &ScheduledGC{cron: c, logger: logger}, nil
}

// Stop ends the background schedule and waits for any in-flight run to
// finish.
func (s *ScheduledGC) Stop() {
	<-s.cron.Stop().Done()
}
