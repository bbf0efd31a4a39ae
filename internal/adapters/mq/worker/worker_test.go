package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/strokeheat/internal/adapters/mq/queue"
	"github.com/okian/strokeheat/internal/adapters/mq/worker"
	"github.com/okian/strokeheat/internal/domain/model"
	"github.com/okian/strokeheat/internal/domain/motion"
	logging "github.com/okian/strokeheat/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

var errBroken = errors.New("broken script")

type mockAnalyzer struct {
	fail map[string]bool
}

func (a *mockAnalyzer) Analyze(_ context.Context, j model.Job) (worker.Result, error) {
	if a.fail[j.ID] {
		return worker.Result{}, errBroken
	}
	return worker.Result{Job: j, Script: j.Script, Stats: motion.Summarize(j.Script.Actions)}, nil
}

type mockSink struct {
	mu     sync.Mutex
	stored map[string]model.Stats
	err    error
}

func newMockSink() *mockSink {
	return &mockSink{stored: make(map[string]model.Stats)}
}

func (s *mockSink) Store(_ context.Context, r worker.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.stored[r.Job.ID] = r.Stats
	return nil
}

func (s *mockSink) get(id string) (model.Stats, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stored[id]
	return st, ok
}

func (s *mockSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stored)
}

func testJob(id string) model.Job {
	return model.Job{
		ID:   id,
		Name: id + ".funscript",
		Script: &model.Script{Actions: []model.Action{
			{At: 0, Pos: 0}, {At: 1000, Pos: 100},
		}},
	}
}

func TestPool_DrainsClosedQueue(t *testing.T) {
	convey.Convey("Given a pool over a queue of jobs", t, func() {
		_ = logging.Init(logging.WithLevel("error"))

		q := queue.NewInMemoryQueue(queue.WithCapacity(10))
		sink := newMockSink()
		var failed []string
		var mu sync.Mutex
		pool := worker.NewPool(3, q, &mockAnalyzer{fail: map[string]bool{"bad": true}}, sink,
			worker.WithErrorHandler(func(_ context.Context, j model.Job, _ error) {
				mu.Lock()
				failed = append(failed, j.ID)
				mu.Unlock()
			}),
		)
		convey.So(pool.Size(), convey.ShouldEqual, 3)

		ctx := context.Background()
		for _, id := range []string{"a", "b", "bad", "c"} {
			convey.So(q.Enqueue(ctx, testJob(id)), convey.ShouldBeNil)
		}

		convey.Convey("When the queue is closed and the pool waited on", func() {
			pool.Start(ctx)
			convey.So(q.Close(), convey.ShouldBeNil)

			waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			convey.So(pool.Wait(waitCtx), convey.ShouldBeNil)

			convey.Convey("Then every good job reaches the sink", func() {
				convey.So(sink.count(), convey.ShouldEqual, 3)
				st, ok := sink.get("a")
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(st.AverageSpeed, convey.ShouldEqual, 100)
				convey.So(pool.Processed(), convey.ShouldEqual, 3)
			})

			convey.Convey("And the failing job is reported", func() {
				mu.Lock()
				defer mu.Unlock()
				convey.So(failed, convey.ShouldResemble, []string{"bad"})
			})
		})
	})
}

func TestPool_SinkErrors(t *testing.T) {
	convey.Convey("Given a sink that always fails", t, func() {
		_ = logging.Init(logging.WithLevel("error"))

		q := queue.NewInMemoryQueue(queue.WithCapacity(4))
		sink := newMockSink()
		sink.err = errors.New("disk full")
		pool := worker.NewPool(1, q, &mockAnalyzer{}, sink)

		ctx := context.Background()
		convey.So(q.Enqueue(ctx, testJob("a")), convey.ShouldBeNil)
		pool.Start(ctx)
		convey.So(q.Close(), convey.ShouldBeNil)

		waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		convey.So(pool.Wait(waitCtx), convey.ShouldBeNil)

		convey.Convey("Then nothing counts as processed", func() {
			convey.So(pool.Processed(), convey.ShouldEqual, 0)
		})
	})
}

func TestPool_Shutdown(t *testing.T) {
	convey.Convey("Given a running pool", t, func() {
		_ = logging.Init(logging.WithLevel("error"))

		q := queue.NewInMemoryQueue(queue.WithCapacity(4))
		pool := worker.NewPool(0, q, &mockAnalyzer{}, newMockSink())
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pool.Start(ctx)

		convey.Convey("When it is shut down", func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
			defer shutdownCancel()
			err := pool.Shutdown(shutdownCtx)

			convey.Convey("Then the queue is closed and workers return", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
				convey.So(pool.Shutdown(shutdownCtx), convey.ShouldBeNil)
			})
		})
	})
}

func TestWorker_ContextCancel(t *testing.T) {
	convey.Convey("Given a single worker", t, func() {
		_ = logging.Init(logging.WithLevel("error"))

		q := queue.NewInMemoryQueue(queue.WithCapacity(1))
		w := worker.NewInMemoryWorker(q, &mockAnalyzer{}, newMockSink(), worker.WithName("solo"))
		ctx, cancel := context.WithCancel(context.Background())
		go w.Run(ctx)
		cancel()

		convey.Convey("Then it stops once the context is cancelled", func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
			defer shutdownCancel()
			convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
		})
	})
}
