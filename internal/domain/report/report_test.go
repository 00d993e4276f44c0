package report_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/okian/consolidator/internal/domain/classify"
	"github.com/okian/consolidator/internal/domain/model"
	"github.com/okian/consolidator/internal/domain/report"
	"github.com/okian/consolidator/internal/domain/status"
	"github.com/okian/consolidator/internal/domain/table"
	. "github.com/smartystreets/goconvey/convey"
)

func record(id string, days float64, st, reason, operator string) model.EnrichedRecord {
	scheme := classify.Risk()
	tier := scheme.Classify(days)
	parcel := map[string]table.Value{model.ColOperator: table.String(operator)}
	return model.EnrichedRecord{
		Order:              model.OrderRecord{OrderID: id, Status: st, Extra: map[string]table.Value{}},
		Matched:            operator != "",
		Parcel:             parcel,
		AgingDays:          days,
		RiskTier:           tier.Label,
		TierRank:           tier.Rank,
		Critical:           tier.Critical,
		ConsolidatedStatus: status.Resolve("", st),
		Reason:             status.Reason(reason),
	}
}

func fixture() []model.EnrichedRecord {
	return []model.EnrichedRecord{
		record("1", 3, "Hold", "", "Alice"),
		record("2", 0, "Delivered", "ok", ""),
		record("3", 1.5, "Hold", "Address", "Bob"),
		record("4", 10, "", "", "Alice"),
		record("5", 3, "Hold", "Address", "Bob"),
	}
}

var columns = []string{model.ColOrderID, model.ColStatus, model.ColOperator, model.ColAgingDays, model.ColRiskTier, model.ColConsolidatedStatus, model.ColReason}

func TestSummarize(t *testing.T) {
	Convey("Given an enriched record set", t, func() {
		s := report.Summarize(fixture(), classify.Risk())

		Convey("Then scalar aggregates are computed", func() {
			So(s.Total, ShouldEqual, 5)
			So(s.Critical, ShouldEqual, 3)
			So(s.Matched, ShouldEqual, 4)
			So(s.Flagged, ShouldEqual, 2)
			So(s.MeanAging, ShouldEqual, 3.5)
		})

		Convey("Then per-tier counts follow the scheme order", func() {
			So(s.ByTier, ShouldResemble, []report.TierCount{
				{Tier: classify.TierNormal, Count: 1},
				{Tier: classify.TierAttention, Count: 1},
				{Tier: classify.TierCritical, Count: 3},
			})
		})
	})

	Convey("Given no records", t, func() {
		s := report.Summarize(nil, classify.Macro())

		Convey("Then totals are zero and every tier is listed", func() {
			So(s.Total, ShouldEqual, 0)
			So(s.MeanAging, ShouldEqual, 0)
			So(s.ByTier, ShouldHaveLength, 5)
		})
	})
}

func TestBuildPivot(t *testing.T) {
	Convey("Given an enriched record set", t, func() {
		Convey("When pivoting by status", func() {
			p := report.BuildPivot(fixture(), classify.Risk(), report.ByStatus)

			Convey("Then tier columns keep severity order with a trailing total", func() {
				So(p.Columns, ShouldResemble, []string{"Normal", "Attention", "Critical", "Total"})
			})

			Convey("Then rows are keyed by consolidated status", func() {
				So(p.Rows, ShouldResemble, []report.PivotRow{
					{Key: "Delivered", Counts: []int{1, 0, 0, 1}},
					{Key: "Hold", Counts: []int{0, 1, 2, 3}},
					{Key: status.NoStatus, Counts: []int{0, 0, 1, 1}},
				})
				So(p.Totals, ShouldResemble, []int{1, 1, 3, 5})
			})
		})

		Convey("When pivoting by reason", func() {
			p := report.BuildPivot(fixture(), classify.Risk(), report.ByReason)

			Convey("Then the justification sentinel is its own bucket", func() {
				keys := []string{}
				for _, r := range p.Rows {
					keys = append(keys, r.Key)
				}
				So(keys, ShouldResemble, []string{"Address", "Justificar!", "ok"})
			})
		})
	})

	Convey("Given dimension names", t, func() {
		d, err := report.ParseDimension("Reason")
		So(err, ShouldBeNil)
		So(d, ShouldEqual, report.ByReason)

		_, err = report.ParseDimension("operator")
		So(errors.Is(err, report.ErrUnknownDimension), ShouldBeTrue)
	})
}

func TestProject(t *testing.T) {
	Convey("Given an enriched record set", t, func() {
		records := fixture()

		Convey("When projecting a column subset sorted by aging", func() {
			f := report.Project(records, columns, report.Query{
				Columns:     []string{model.ColOrderID, " Operator", "Not A Column", model.ColOrderID},
				SortByAging: true,
			})

			Convey("Then unknown and repeated columns are omitted", func() {
				So(f.Columns, ShouldResemble, []string{model.ColOrderID, model.ColOperator})
			})

			Convey("Then the most-aged rows come first and ties keep input order", func() {
				ids := []string{}
				for _, row := range f.Rows {
					ids = append(ids, row[0].Text())
				}
				So(ids, ShouldResemble, []string{"4", "1", "5", "3", "2"})
			})
		})

		Convey("When filtering by tier and status", func() {
			f := report.Project(records, columns, report.Query{
				Filters: map[string][]string{
					model.ColRiskTier: {classify.TierCritical},
					model.ColStatus:   {"Hold", " "},
				},
				Limit: 1,
			})

			Convey("Then only matching rows remain, capped by the limit", func() {
				So(f.Len(), ShouldEqual, 1)
				So(f.Rows[0][0].Text(), ShouldEqual, "1")
				So(f.Columns, ShouldResemble, columns)
			})
		})

		Convey("When projecting twice with the same query", func() {
			q := report.Query{Columns: []string{model.ColOrderID, model.ColRiskTier}, SortByAging: true,
				Filters: map[string][]string{model.ColOperator: {"Alice", "Bob"}}}
			first := report.Project(records, columns, q)
			second := report.Project(records, columns, q)

			Convey("Then the output is identical and the input untouched", func() {
				So(cmp.Diff(first, second, cmp.Comparer(func(a, b table.Value) bool { return a.Equal(b) })), ShouldBeEmpty)
				So(records[0].Order.OrderID, ShouldEqual, "1")
			})
		})
	})
}

func TestWriteCSV(t *testing.T) {
	Convey("Given a projected frame", t, func() {
		f := report.Frame{
			Columns: []string{"Order ID", "Operator", "AgingDays"},
			Rows: [][]table.Value{
				{table.String("1"), table.String("Álvaro, Jr"), table.Number(3.5)},
				{table.String("2"), table.Null(), table.Number(0)},
			},
		}

		Convey("When writing CSV", func() {
			var buf bytes.Buffer
			err := report.WriteCSV(&buf, f)

			Convey("Then a header and quoted UTF-8 rows are produced", func() {
				So(err, ShouldBeNil)
				So(buf.String(), ShouldEqual, "Order ID,Operator,AgingDays\n1,\"Álvaro, Jr\",3.5\n2,,0\n")
			})
		})
	})
}
