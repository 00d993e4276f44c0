package postgres

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/consolidator/internal/domain/table"
)

type fakeRows struct {
	fields []string
	values [][]any
	pos    int
	err    error
	closed bool
}

func (r *fakeRows) Close()                        { r.closed = true }
func (r *fakeRows) Err() error                    { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }
func (r *fakeRows) Next() bool {
	if r.pos >= len(r.values) {
		return false
	}
	r.pos++
	return true
}
func (r *fakeRows) Scan(...any) error      { return errors.New("not supported") }
func (r *fakeRows) Values() ([]any, error) { return r.values[r.pos-1], nil }
func (r *fakeRows) RawValues() [][]byte    { return nil }
func (r *fakeRows) Conn() *pgx.Conn        { return nil }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription {
	out := make([]pgconn.FieldDescription, len(r.fields))
	for i, f := range r.fields {
		out[i] = pgconn.FieldDescription{Name: f}
	}
	return out
}

type fakeQuerier struct {
	rows *fakeRows
	err  error
	sql  []string
}

func (q *fakeQuerier) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	q.sql = append(q.sql, sql)
	if q.err != nil {
		return nil, q.err
	}
	return q.rows, nil
}

func TestFetch(t *testing.T) {
	Convey("Given a relation with mixed column types", t, func() {
		id := uuid.MustParse("6f1c1c1e-2b9b-4a57-9d1e-7e1f2d1a0b01")
		received := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
		rows := &fakeRows{
			fields: []string{"Order ID", "SLS Tracking Number", "LM Hub Receive time", "Aging Time", "Batch"},
			values: [][]any{
				{"O-1", "SPX1", received, pgtype.Numeric{Int: big.NewInt(35), Exp: -1, Valid: true}, [16]byte(id)},
				{"O-2", nil, nil, pgtype.Numeric{}, nil},
			},
		}
		q := &fakeQuerier{rows: rows}
		f := New(q, map[string]string{table.ForwardOrder: "ops.forward_order"}, WithOrderBy("ctid"))

		tbl, err := f.Fetch(context.Background(), table.ForwardOrder)

		Convey("Then the statement quotes identifiers", func() {
			So(err, ShouldBeNil)
			So(q.sql, ShouldResemble, []string{`SELECT * FROM "ops"."forward_order" ORDER BY "ctid"`})
			So(rows.closed, ShouldBeTrue)
		})

		Convey("Then values are converted to cells", func() {
			So(tbl.Len(), ShouldEqual, 2)
			first := tbl.Rows[0]
			ts, ok := first.Get("LM Hub Receive time").Timestamp()
			So(ok, ShouldBeTrue)
			So(ts.Equal(received), ShouldBeTrue)
			aging, _ := first.Get("Aging Time").Float()
			So(aging, ShouldAlmostEqual, 3.5)
			So(first.Get("Batch").Text(), ShouldEqual, id.String())

			second := tbl.Rows[1]
			So(second.Get("SLS Tracking Number").IsNull(), ShouldBeTrue)
			So(second.Get("Aging Time").IsNull(), ShouldBeTrue)
		})
	})

	Convey("Given a failing query", t, func() {
		q := &fakeQuerier{err: errors.New("relation does not exist")}
		f := New(q, map[string]string{table.Parcel: "parcel"})

		_, err := f.Fetch(context.Background(), table.Parcel)
		So(err, ShouldNotBeNil)
		So(q.sql, ShouldResemble, []string{`SELECT * FROM "parcel"`})
	})

	Convey("Given a table without relation", t, func() {
		_, err := New(&fakeQuerier{}, nil).Fetch(context.Background(), table.Parcel)
		So(errors.Is(err, ErrNoRelation), ShouldBeTrue)
	})
}
