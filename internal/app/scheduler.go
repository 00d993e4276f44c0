package service

import (
	"context"
	"time"

	"github.com/okian/consolidator/internal/domain/model"
	"github.com/okian/consolidator/pkg/logger"
)

// schedule enqueues a refresh every interval. A tick is skipped while an
// earlier trigger is still pending, so a slow source never builds a backlog.
func (s *Service) schedule(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			if s.queue.Len(ctx) > 0 {
				s.logger.Debug(ctx, "refresh pending, tick skipped")
				continue
			}
			if err := s.queue.Enqueue(ctx, model.NewTrigger(model.TriggerSchedule, s.now())); err != nil {
				s.logger.Warn(ctx, "scheduled refresh not enqueued", logger.Error(err))
			}
		}
	}
}
