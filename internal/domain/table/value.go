// Package table models one acquired tabular dataset: ordered rows of named,
// lazily typed cells.
package table

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind identifies the dynamic type carried by a Value.
type Kind uint8

// Cell kinds.
const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindTime
)

// Value is a single cell. The zero Value is null.
type Value struct {
	kind Kind
	str  string
	num  float64
	tm   time.Time
}

// Null returns the null Value.
func Null() Value { return Value{} }

// String builds a text cell. Blank text is stored as null, matching how
// spreadsheet exports represent empty cells.
func String(s string) Value {
	if strings.TrimSpace(s) == "" {
		return Value{}
	}
	return Value{kind: KindString, str: s}
}

// Number builds a numeric cell. NaN is stored as null.
func Number(f float64) Value {
	if math.IsNaN(f) {
		return Value{}
	}
	return Value{kind: KindNumber, num: f}
}

// Time builds a timestamp cell.
func Time(t time.Time) Value {
	if t.IsZero() {
		return Value{}
	}
	return Value{kind: KindTime, tm: t}
}

// FromAny converts a driver or API cell into a Value.
func FromAny(v any) Value {
	switch x := v.(type) {
	case nil:
		return Value{}
	case Value:
		return x
	case string:
		return String(x)
	case []byte:
		return String(string(x))
	case float64:
		return Number(x)
	case float32:
		return Number(float64(x))
	case int:
		return Number(float64(x))
	case int16:
		return Number(float64(x))
	case int32:
		return Number(float64(x))
	case int64:
		return Number(float64(x))
	case uint32:
		return Number(float64(x))
	case uint64:
		return Number(float64(x))
	case bool:
		return String(strconv.FormatBool(x))
	case time.Time:
		return Time(x)
	case interface{ Float64() (float64, bool) }:
		if f, ok := x.Float64(); ok {
			return Number(f)
		}
		return Value{}
	case interface{ String() string }:
		return String(x.String())
	default:
		return Value{}
	}
}

// Kind reports the dynamic type of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v carries no data.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Text returns the cell rendered as text; null renders as "".
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindTime:
		return v.tm.Format("02/01/2006 15:04:05")
	default:
		return ""
	}
}

// Trimmed returns Text with surrounding whitespace removed.
func (v Value) Trimmed() string { return strings.TrimSpace(v.Text()) }

// Float returns the numeric payload for number cells.
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// Timestamp returns the payload for time cells.
func (v Value) Timestamp() (time.Time, bool) {
	if v.kind != KindTime {
		return time.Time{}, false
	}
	return v.tm, true
}

// Equal reports whether two cells hold the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindNumber:
		return v.num == o.num
	case KindTime:
		return v.tm.Equal(o.tm)
	default:
		return true
	}
}

// MarshalJSON keeps numbers numeric and renders null as JSON null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindNumber:
		if math.IsInf(v.num, 0) {
			return json.Marshal(v.Text())
		}
		return json.Marshal(v.num)
	default:
		return json.Marshal(v.Text())
	}
}
