package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/strokeheat/internal/adapters/repository"
	"github.com/okian/strokeheat/internal/config"
	"github.com/okian/strokeheat/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithLevel("error")); err != nil {
		panic(err)
	}
}

const sampleDoc = `{"actions":[{"at":0,"pos":0},{"at":500,"pos":100},{"at":1000,"pos":0}]}`

func TestNewStore(t *testing.T) {
	convey.Convey("Given a configuration", t, func() {
		ctx := context.Background()
		cfg := config.New()

		convey.Convey("When the memory driver is selected", func() {
			store, err := newStore(ctx, cfg)

			convey.Convey("Then an in-memory library is returned", func() {
				convey.So(err, convey.ShouldBeNil)
				_, ok := store.(*repository.MemoryStore)
				convey.So(ok, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the sqlite driver is selected", func() {
			cfg.StoreDriver = config.DriverSQLite
			cfg.SQLitePath = filepath.Join(t.TempDir(), "library.db")
			store, err := newStore(ctx, cfg)

			convey.Convey("Then a sqlite library is opened", func() {
				convey.So(err, convey.ShouldBeNil)
				_, ok := store.(*repository.SQLiteStore)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(store.Close(), convey.ShouldBeNil)
			})
		})
	})
}

func TestNewService(t *testing.T) {
	convey.Convey("Given a configuration with an unknown theme", t, func() {
		cfg := config.New()
		cfg.Theme = "sepia"

		convey.Convey("Then the service cannot be built", func() {
			_, err := newService(cfg, repository.NewMemoryStore(), logger.Discard())
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestNewMux(t *testing.T) {
	convey.Convey("Given a running service behind the full mux", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		cfg := config.New()
		cfg.WorkerCount = 1
		svc, err := newService(cfg, repository.NewMemoryStore(), logger.Discard())
		convey.So(err, convey.ShouldBeNil)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop(ctx)

		mux := newMux(ctx, cfg, svc)

		convey.Convey("Then the docs routes are served", func() {
			for _, path := range []string{"/api-docs", "/openapi.yaml"} {
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			}
		})

		convey.Convey("And a preview can be rendered end to end", func() {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/preview", strings.NewReader(sampleDoc))
			mux.ServeHTTP(w, req)
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Header().Get("Content-Type"), convey.ShouldEqual, "image/png")
		})

		convey.Convey("And the health endpoint exposes service metrics", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Body.String(), convey.ShouldContainSubstring, "strokeheat_service_")
		})
	})
}

func TestUpdateSystemMetrics(t *testing.T) {
	convey.Convey("Given the system metrics updater", t, func() {
		convey.Convey("Then it reports the observed GC count without panicking", func() {
			var n uint32
			convey.So(func() { n = updateSystemMetrics(0) }, convey.ShouldNotPanic)
			convey.So(updateSystemMetrics(n), convey.ShouldBeGreaterThanOrEqualTo, n)
		})
	})
}
