package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/consolidator/internal/adapters/mq/notify"
	"github.com/okian/consolidator/internal/adapters/source"
	app "github.com/okian/consolidator/internal/app"
	"github.com/okian/consolidator/internal/config"
	"github.com/okian/consolidator/internal/domain/table"
	"github.com/okian/consolidator/pkg/logger"
)

func fixtureSource() source.Static {
	return source.Static{
		table.ForwardOrder: table.FromStrings(table.ForwardOrder, [][]string{{"Order ID", "SLS Tracking Number"}, {"1", "T1"}}),
		table.ReturnOrder:  table.FromStrings(table.ReturnOrder, [][]string{{"Order ID", "SLS Tracking Number"}}),
		table.Parcel:       table.FromStrings(table.Parcel, [][]string{{"SPX Tracking Number", "Aging Time"}, {"T1", "2"}}),
	}
}

func TestNewMux(t *testing.T) {
	convey.Convey("Given a running service behind the mux", t, func() {
		ctx := context.Background()
		cfg := config.New()
		cfg.RefreshInterval = time.Hour

		svc := app.New(cfg,
			app.WithFetcher(fixtureSource()),
			app.WithNotifier(notify.Nop{}),
			app.WithLogger(logger.Nop()),
		)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		mux := newMux(ctx, cfg, svc)
		get := func(path string) int {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
			return w.Code
		}

		convey.Convey("Then API and docs routes are served", func() {
			deadline := time.Now().Add(2 * time.Second)
			for get("/summary") != http.StatusOK && time.Now().Before(deadline) {
				time.Sleep(5 * time.Millisecond)
			}
			convey.So(get("/summary"), convey.ShouldEqual, http.StatusOK)
			convey.So(get("/records"), convey.ShouldEqual, http.StatusOK)
			convey.So(get("/status"), convey.ShouldEqual, http.StatusOK)
			convey.So(get("/healthz"), convey.ShouldEqual, http.StatusOK)
			convey.So(get("/openapi.yaml"), convey.ShouldEqual, http.StatusOK)
			convey.So(get("/api-docs"), convey.ShouldEqual, http.StatusOK)
		})
	})
}

func TestSystemMetrics(t *testing.T) {
	convey.Convey("Given the system metrics updater", t, func() {
		convey.Convey("Then a single update does not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})

		convey.Convey("Then the loop returns when the context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
		})
	})
}
