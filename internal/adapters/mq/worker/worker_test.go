package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
	"go.uber.org/goleak"

	"github.com/okian/consolidator/internal/adapters/mq/queue"
	"github.com/okian/consolidator/internal/adapters/mq/worker"
	"github.com/okian/consolidator/internal/domain/model"
	logging "github.com/okian/consolidator/pkg/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingRefresher struct {
	mu      sync.Mutex
	seen    []model.Trigger
	active  int
	overlap bool
	fail    map[model.TriggerReason]error
	delay   time.Duration
}

func (r *recordingRefresher) Refresh(_ context.Context, t model.Trigger) error {
	r.mu.Lock()
	r.active++
	if r.active > 1 {
		r.overlap = true
	}
	r.mu.Unlock()

	time.Sleep(r.delay)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.active--
	r.seen = append(r.seen, t)
	return r.fail[t.Reason]
}

func (r *recordingRefresher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func TestRefreshWorker(t *testing.T) {
	convey.Convey("Given a refresh worker over an in-memory queue", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(4))
		ref := &recordingRefresher{
			fail:  map[model.TriggerReason]error{model.TriggerSchedule: errors.New("source down")},
			delay: 5 * time.Millisecond,
		}
		w := worker.NewRefreshWorker(q, ref, worker.WithName("test-worker"), worker.WithLogger(logging.Nop()))
		go w.Run(ctx)

		convey.Reset(func() {
			_ = q.Close()
			shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
			defer cancel()
			convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
		})

		convey.Convey("When several triggers are queued", func() {
			for _, reason := range []model.TriggerReason{model.TriggerStartup, model.TriggerSchedule, model.TriggerManual} {
				convey.So(q.Enqueue(ctx, model.NewTrigger(reason, time.Now())), convey.ShouldBeNil)
			}

			convey.Convey("Then they run one at a time in order, failures included", func() {
				convey.So(waitFor(func() bool { return ref.count() == 3 }), convey.ShouldBeTrue)
				ref.mu.Lock()
				convey.So(ref.overlap, convey.ShouldBeFalse)
				convey.So(ref.seen[0].Reason, convey.ShouldEqual, model.TriggerStartup)
				convey.So(ref.seen[2].Reason, convey.ShouldEqual, model.TriggerManual)
				ref.mu.Unlock()
			})
		})
	})
}

func TestRefreshWorker_StopsWhenQueueCloses(t *testing.T) {
	convey.Convey("Given a running worker", t, func() {
		q := queue.NewInMemoryQueue()
		w := worker.NewRefreshWorker(q, worker.RefresherFunc(func(context.Context, model.Trigger) error { return nil }),
			worker.WithLogger(logging.Nop()))
		go w.Run(context.Background())

		convey.Convey("When the queue is closed", func() {
			_ = q.Close()

			convey.Convey("Then Run returns", func() {
				select {
				case <-w.Done():
				case <-time.After(time.Second):
					convey.So("worker still running", convey.ShouldBeEmpty)
				}
				convey.So(w.Shutdown(context.Background()), convey.ShouldBeNil)
			})
		})
	})
}

func TestRefreshWorker_ShutdownTimeout(t *testing.T) {
	convey.Convey("Given a worker that was never started", t, func() {
		q := queue.NewInMemoryQueue()
		defer func() { _ = q.Close() }()
		w := worker.NewRefreshWorker(q, worker.RefresherFunc(func(context.Context, model.Trigger) error { return nil }),
			worker.WithLogger(logging.Nop()))

		convey.Convey("Then Shutdown honours its context", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
			defer cancel()
			err := w.Shutdown(ctx)
			convey.So(errors.Is(err, context.DeadlineExceeded), convey.ShouldBeTrue)
		})
	})
}
