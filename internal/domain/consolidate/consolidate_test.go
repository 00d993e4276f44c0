package consolidate_test

import (
	"testing"

	"github.com/okian/consolidator/internal/domain/consolidate"
	"github.com/okian/consolidator/internal/domain/model"
	"github.com/okian/consolidator/internal/domain/table"
	. "github.com/smartystreets/goconvey/convey"
)

func TestOrders(t *testing.T) {
	Convey("Given forward and return tables with congruent columns", t, func() {
		forward := table.FromStrings(table.ForwardOrder, [][]string{
			{"Order ID", "SLS Tracking Number", "Status"},
			{"1", "T1", "A"},
			{"3", "T3", "B"},
		})
		ret := table.FromStrings(table.ReturnOrder, [][]string{
			{"Order ID", "SLS Tracking Number", "OnHoldReason"},
			{"2", "T2", "Damaged"},
			{"1", "T1", ""},
		})

		s := consolidate.Orders(forward, ret)

		Convey("Then forward rows come first and order is preserved", func() {
			So(s.Len(), ShouldEqual, 4)
			ids := []string{}
			for _, o := range s.Orders {
				ids = append(ids, o.OrderID)
			}
			So(ids, ShouldResemble, []string{"1", "3", "2", "1"})
		})

		Convey("Then duplicate order ids are preserved and tagged with their origin", func() {
			So(s.Orders[0].Origin, ShouldEqual, model.OriginForward)
			So(s.Orders[3].Origin, ShouldEqual, model.OriginReturn)
		})

		Convey("Then columns are the union in first-seen order", func() {
			So(s.Columns, ShouldResemble, []string{"Order ID", "SLS Tracking Number", "Status", "OnHoldReason"})
		})

		Convey("Then fields absent from a source are empty on its rows", func() {
			So(s.Orders[0].OnHoldReason, ShouldEqual, "")
			So(s.Orders[2].Status, ShouldEqual, "")
			So(s.Orders[2].OnHoldReason, ShouldEqual, "Damaged")
		})
	})

	Convey("Given an empty return table", t, func() {
		forward := table.FromStrings(table.ForwardOrder, [][]string{{"Order ID"}, {"1"}})
		ret := table.FromStrings(table.ReturnOrder, [][]string{{"Order ID"}})

		s := consolidate.Orders(forward, ret)

		Convey("Then only forward rows are present", func() {
			So(s.Len(), ShouldEqual, 1)
		})
	})
}
