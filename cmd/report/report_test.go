package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/consolidator/internal/adapters/source"
	"github.com/okian/consolidator/internal/config"
	"github.com/okian/consolidator/internal/domain/pipeline"
	"github.com/okian/consolidator/internal/domain/table"
)

func fixtureFetcher(_ context.Context, _ *config.Config) (source.Fetcher, error) {
	return source.Static{
		table.ForwardOrder: table.FromStrings(table.ForwardOrder, [][]string{
			{"Order ID", "SLS Tracking Number", "Status"},
			{"1", "T1", "Delivering"},
		}),
		table.ReturnOrder: table.FromStrings(table.ReturnOrder, [][]string{
			{"Order ID", "SLS Tracking Number", "Status"},
			{"2", "T2", "Returned"},
		}),
		table.Parcel: table.FromStrings(table.Parcel, [][]string{
			{"SPX Tracking Number", "Operator", "Aging Time"},
			{"T1", "Alice", "3"},
		}),
	}, nil
}

func execute(factory fetcherFactory, args ...string) (string, error) {
	cmd := newRootCmd(factory)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestReportCommands(t *testing.T) {
	Convey("Given a configured source", t, func() {
		t.Setenv("CONSOLIDATOR_SOURCE__XLSX_URL", "https://example.test/export.xlsx")

		Convey("When running summary", func() {
			out, err := execute(fixtureFetcher, "summary")

			Convey("Then totals and tiers are printed", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "Total")
				So(out, ShouldContainSubstring, "Critical")
				So(out, ShouldContainSubstring, "Attention")
			})
		})

		Convey("When running summary as JSON with the macro scheme", func() {
			out, err := execute(fixtureFetcher, "summary", "--json", "--scheme", "macro")
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, `"total": 2`)
			So(out, ShouldContainSubstring, `"3 a 7 Dias"`)
		})

		Convey("When running pivot by reason", func() {
			out, err := execute(fixtureFetcher, "pivot", "--by", "reason")
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "reason")
			So(out, ShouldContainSubstring, "Total")
		})

		Convey("When the pivot dimension is unknown", func() {
			_, err := execute(fixtureFetcher, "pivot", "--by", "hub")
			So(err, ShouldNotBeNil)
		})

		Convey("When exporting to a file", func() {
			path := filepath.Join(t.TempDir(), "out.csv")
			_, err := execute(fixtureFetcher, "export", "--out", path)
			So(err, ShouldBeNil)

			data, err := os.ReadFile(path)
			So(err, ShouldBeNil)
			rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
			So(err, ShouldBeNil)
			So(rows, ShouldHaveLength, 3)
			So(rows[0], ShouldContain, "RiskTier")
		})

		Convey("When exporting to stdout", func() {
			out, err := execute(fixtureFetcher, "export")
			So(err, ShouldBeNil)
			So(strings.HasPrefix(out, "Order ID,"), ShouldBeTrue)
		})

		Convey("When a source fails", func() {
			failing := func(context.Context, *config.Config) (source.Fetcher, error) {
				return source.Func(func(context.Context, string) (*table.Table, error) {
					return nil, errors.New("forbidden")
				}), nil
			}
			_, err := execute(failing, "summary")
			So(errors.Is(err, pipeline.ErrSourceUnavailable), ShouldBeTrue)
		})
	})

	Convey("Given no source configured", t, func() {
		t.Setenv("CONSOLIDATOR_SOURCE__XLSX_URL", "")
		_, err := execute(fixtureFetcher, "summary")
		So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
	})
}
