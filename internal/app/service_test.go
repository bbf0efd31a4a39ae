package service_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"testing"
	"time"

	service "github.com/okian/strokeheat/internal/app"
	"github.com/okian/strokeheat/internal/adapters/codec"
	"github.com/okian/strokeheat/internal/adapters/repository"
	"github.com/okian/strokeheat/internal/domain/types"
	"github.com/okian/strokeheat/pkg/logger"
	"github.com/okian/strokeheat/pkg/metrics"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

const (
	triangleDoc = `{"metadata":{"title":"Triangle","creator":"tester"},` +
		`"actions":[{"at":0,"pos":0},{"at":1000,"pos":100},{"at":2000,"pos":0}]}`
	slowDoc = `{"metadata":{"title":"Slow"},` +
		`"actions":[{"at":0,"pos":0},{"at":2000,"pos":50},{"at":4000,"pos":0}]}`
	gapDoc = `{"actions":[{"at":0,"pos":0},{"at":1000,"pos":100},{"at":8000,"pos":0}]}`
)

func startService(opts ...service.Option) (*service.Service, context.Context, context.CancelFunc) {
	svc := service.New(append([]service.Option{service.WithWorkerCount(2)}, opts...)...)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := svc.Start(ctx); err != nil {
		panic(err)
	}
	return svc, ctx, cancel
}

func waitForEntries(ctx context.Context, svc *service.Service, n int) []types.Entry {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		entries, err := svc.TopN(ctx, 10)
		if err == nil && len(entries) >= n {
			return entries
		}
		time.Sleep(10 * time.Millisecond)
	}
	entries, _ := svc.TopN(ctx, 10)
	return entries
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
			stats := svc.GetStats()
			So(stats["theme"], ShouldEqual, "dark")
			So(stats["queueSize"], ShouldEqual, 10000)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithWorkerCount(8),
			service.WithQueueSize(50_000),
			service.WithDedupeSize(25_000),
			service.WithStripSize(600, 100),
		)

		Convey("Then it should be created successfully", func() {
			So(svc, ShouldNotBeNil)
			stats := svc.GetStats()
			So(stats["workerCount"], ShouldEqual, 8)
			So(stats["dedupeSize"], ShouldEqual, 25_000)
		})
	})
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc, ctx, cancel := startService()
		defer cancel()

		Convey("Then it should be marked as started", func() {
			So(svc.GetStats()["started"], ShouldEqual, true)
			svc.Stop(ctx)
		})

		Convey("When starting it twice", func() {
			err := svc.Start(ctx)

			Convey("Then the second start is a no-op", func() {
				So(err, ShouldBeNil)
				svc.Stop(ctx)
			})
		})

		Convey("When stopping the service", func() {
			svc.Stop(ctx)

			Convey("Then it should be marked as stopped", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
			})

			Convey("And operations report that it is not running", func() {
				_, err := svc.Analyze(ctx, []byte(triangleDoc))
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			})
		})
	})
}

func TestService_Analyze(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc, ctx, cancel := startService()
		defer cancel()
		defer svc.Stop(ctx)

		Convey("When analyzing a valid document", func() {
			res, err := svc.Analyze(ctx, []byte(triangleDoc))

			Convey("Then statistics are computed", func() {
				So(err, ShouldBeNil)
				So(res.DurationMS, ShouldEqual, 2000)
				So(res.Duration, ShouldEqual, "0:02")
				So(res.ActionCount, ShouldEqual, 3)
				So(res.AverageSpeed, ShouldAlmostEqual, 100.0, 1e-9)
				So(res.Segments, ShouldEqual, 2)
				So(res.Gaps, ShouldEqual, 0)
				So(res.Summary, ShouldStartWith, "Title: Triangle\n")
			})
		})

		Convey("When a transition exceeds the gap threshold", func() {
			res, err := svc.Analyze(ctx, []byte(gapDoc))

			Convey("Then it is counted and not drawn", func() {
				So(err, ShouldBeNil)
				So(res.Gaps, ShouldEqual, 1)
				So(res.Segments, ShouldEqual, 1)
			})
		})

		Convey("When the document is malformed", func() {
			_, err := svc.Analyze(ctx, []byte(`{"actions":`))

			Convey("Then a codec error is returned", func() {
				So(errors.Is(err, codec.ErrInvalidDocument), ShouldBeTrue)
			})
		})

		Convey("When the document has no actions", func() {
			_, err := svc.Analyze(ctx, []byte(`{"actions":[]}`))

			Convey("Then ErrNoActions is returned", func() {
				So(errors.Is(err, codec.ErrNoActions), ShouldBeTrue)
			})
		})
	})
}

func TestService_Preview(t *testing.T) {
	Convey("Given a started service with a capped strip height", t, func() {
		svc, ctx, cancel := startService(service.WithMaxStripHeight(120))
		defer cancel()
		defer svc.Stop(ctx)

		Convey("When rendering with default sizes", func() {
			data, err := svc.Preview(ctx, []byte(triangleDoc), 0, 0)
			So(err, ShouldBeNil)
			img, err := png.Decode(bytes.NewReader(data))
			So(err, ShouldBeNil)

			Convey("Then the configured strip size is used and capped", func() {
				So(img.Bounds().Dx(), ShouldEqual, 400)
				So(img.Bounds().Dy(), ShouldEqual, 120)
			})
		})

		Convey("When rendering an explicit size", func() {
			data, err := svc.Preview(ctx, []byte(triangleDoc), 200, 50)
			So(err, ShouldBeNil)
			img, err := png.Decode(bytes.NewReader(data))
			So(err, ShouldBeNil)

			Convey("Then the image has that size", func() {
				So(img.Bounds().Dx(), ShouldEqual, 200)
				So(img.Bounds().Dy(), ShouldEqual, 50)
			})
		})

		Convey("When rendering a card", func() {
			data, err := svc.Card(ctx, []byte(triangleDoc), 500)
			So(err, ShouldBeNil)
			img, err := png.Decode(bytes.NewReader(data))
			So(err, ShouldBeNil)

			Convey("Then the card is taller than the strip", func() {
				So(img.Bounds().Dx(), ShouldEqual, 500)
				So(img.Bounds().Dy(), ShouldBeGreaterThan, 150)
			})
		})
	})
}

func TestService_SeenAndRecord(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc, ctx, cancel := startService()
		defer cancel()
		defer svc.Stop(ctx)

		Convey("When checking a new digest", func() {
			seen := svc.SeenAndRecord(ctx, "digest-123")

			Convey("Then it should not have been seen before", func() {
				So(seen, ShouldBeFalse)
				So(svc.Size(), ShouldEqual, 1)
			})
		})

		Convey("When checking the same digest again", func() {
			svc.SeenAndRecord(ctx, "digest-456")
			seen := svc.SeenAndRecord(ctx, "digest-456")

			Convey("Then it should have been seen before", func() {
				So(seen, ShouldBeTrue)
			})
		})

		Convey("When a digest is unrecorded", func() {
			svc.SeenAndRecord(ctx, "digest-789")
			svc.Unrecord(ctx, "digest-789")

			Convey("Then it can be recorded again", func() {
				So(svc.SeenAndRecord(ctx, "digest-789"), ShouldBeFalse)
			})
		})
	})
}

func TestService_SubmitAndRank(t *testing.T) {
	Convey("Given a started service with an in-memory library", t, func() {
		store := repository.NewMemoryStore()
		svc, ctx, cancel := startService(service.WithStore(store))
		defer cancel()
		defer svc.Stop(ctx)

		Convey("When two scripts are submitted", func() {
			slowID, err := svc.Submit(ctx, "slow.funscript", "d1", []byte(slowDoc))
			So(err, ShouldBeNil)
			fastID, err := svc.Submit(ctx, "triangle.funscript", "d2", []byte(triangleDoc))
			So(err, ShouldBeNil)

			entries := waitForEntries(ctx, svc, 2)

			Convey("Then they are ranked by average speed", func() {
				So(len(entries), ShouldEqual, 2)
				So(entries[0].ID, ShouldEqual, fastID)
				So(entries[0].Rank, ShouldEqual, 1)
				So(entries[0].Title, ShouldEqual, "Triangle")
				So(entries[0].Creator, ShouldEqual, "tester")
				So(entries[1].ID, ShouldEqual, slowID)
				So(entries[1].Rank, ShouldEqual, 2)
				So(entries[1].AverageSpeed, ShouldAlmostEqual, 25.0, 1e-9)
			})

			Convey("And each entry can be fetched by id", func() {
				entry, err := svc.Get(ctx, slowID)
				So(err, ShouldBeNil)
				So(entry.Rank, ShouldEqual, 2)
				So(entry.Duration, ShouldEqual, "0:04")
			})

			Convey("And a stored strip can be rendered", func() {
				data, err := svc.StoredPreview(ctx, fastID, 300, 60)
				So(err, ShouldBeNil)
				img, err := png.Decode(bytes.NewReader(data))
				So(err, ShouldBeNil)
				So(img.Bounds().Dx(), ShouldEqual, 300)
			})
		})

		Convey("When submitting an invalid document", func() {
			_, err := svc.Submit(ctx, "bad.funscript", "d3", []byte(`not json`))

			Convey("Then nothing is queued", func() {
				So(errors.Is(err, codec.ErrInvalidDocument), ShouldBeTrue)
				So(svc.GetStats()["queueLength"], ShouldEqual, 0)
			})
		})

		Convey("When fetching an unknown id", func() {
			_, err := svc.Get(ctx, "missing")

			Convey("Then ErrNotFound is returned", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestService_StopDrainsQueue(t *testing.T) {
	Convey("Given a single worker with a backlog of accepted scripts", t, func() {
		store := repository.NewMemoryStore()
		svc := service.New(service.WithWorkerCount(1), service.WithStore(store))
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)

		const n = 200
		for i := 0; i < n; i++ {
			_, err := svc.Submit(ctx, fmt.Sprintf("s%d.funscript", i), fmt.Sprintf("d%d", i), []byte(triangleDoc))
			So(err, ShouldBeNil)
		}

		Convey("When the service is stopped", func() {
			svc.Stop(ctx)

			Convey("Then every accepted script reaches the library", func() {
				count, err := store.Count(ctx)
				So(err, ShouldBeNil)
				So(count, ShouldEqual, n)
			})
		})
	})
}

func TestService_LibraryLatencyRecordedOnce(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc, ctx, cancel := startService()
		defer cancel()
		defer svc.Stop(ctx)

		const name = "strokeheat_service_library_query_latency_milliseconds"
		_, err := svc.TopN(ctx, 5)
		So(err, ShouldBeNil)
		before, err := metrics.Value(metrics.GetRegistry(), name)
		So(err, ShouldBeNil)

		Convey("When the library is queried once", func() {
			_, err := svc.TopN(ctx, 5)
			So(err, ShouldBeNil)

			Convey("Then exactly one latency sample is added", func() {
				after, err := metrics.Value(metrics.GetRegistry(), name)
				So(err, ShouldBeNil)
				So(after-before, ShouldEqual, 1)
			})
		})
	})
}

func TestService_GetStats(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New()

		Convey("When getting stats before starting", func() {
			stats := svc.GetStats()

			Convey("Then it should return basic stats", func() {
				So(stats, ShouldNotBeNil)
				So(stats["started"], ShouldEqual, false)
				So(stats, ShouldNotContainKey, "queueLength")
			})
		})
	})
}
