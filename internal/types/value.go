package types

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/cockroachdb/errors"
)

// Value represents a single literal or statistic value. Coerced values use
// one canonical Go type per DataType:
//
//	Long -> int64, Float -> float64, String -> string, Date -> Date,
//	Decimal -> *apd.Decimal, Timestamp -> Timestamp, Boolean -> bool
type Value = interface{}

// ErrTypeMismatch is returned when a value cannot be coerced to a declared type.
var ErrTypeMismatch = errors.New("type mismatch")

// Date is a calendar day counted from 1970-01-01.
type Date int32

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02 15:04:05.999"
	secondsPerDay   = 24 * 60 * 60
)

// DateFromTime truncates t to its UTC calendar day.
func DateFromTime(t time.Time) Date {
	u := t.UTC()
	day := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return Date(day.Unix() / secondsPerDay)
}

// ParseDate accepts both zero-padded and unpadded month/day, e.g. 1970-1-11.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{dateLayout, "2006-1-2"} {
		if t, err := time.Parse(layout, s); err == nil {
			return DateFromTime(t), nil
		}
	}
	return 0, errors.Newf("invalid date %q", s)
}

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time {
	return time.Unix(int64(d)*secondsPerDay, 0).UTC()
}

func (d Date) String() string { return d.Time().Format(dateLayout) }

// Timestamp is a point in time with millisecond precision.
type Timestamp int64

// TimestampFromTime converts t to milliseconds since the epoch.
func TimestampFromTime(t time.Time) Timestamp { return Timestamp(t.UnixMilli()) }

// ParseTimestamp parses "2006-01-02 15:04:05[.fff]", RFC 3339 or a bare date, in UTC.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339Nano, dateLayout} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return TimestampFromTime(t), nil
		}
	}
	return 0, errors.Newf("invalid timestamp %q", s)
}

// Time returns the timestamp in UTC.
func (ts Timestamp) Time() time.Time { return time.UnixMilli(int64(ts)).UTC() }

func (ts Timestamp) String() string { return ts.Time().Format(timestampLayout) }

// CoerceValue converts v to the canonical representation of dt. Widening
// conversions (any integer to Long, Float or Decimal) are allowed; anything
// else fails with an error marked ErrTypeMismatch.
func CoerceValue(dt DataType, v Value) (Value, error) {
	if v == nil {
		return nil, mismatch(dt, v)
	}
	switch dt {
	case TypeLong:
		if i, ok := toInt64(v); ok {
			return i, nil
		}
	case TypeFloat:
		switch x := v.(type) {
		case float64:
			return x, nil
		case float32:
			return float64(x), nil
		}
		if i, ok := toInt64(v); ok {
			return float64(i), nil
		}
	case TypeString:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case TypeDate:
		switch x := v.(type) {
		case Date:
			return x, nil
		case time.Time:
			return DateFromTime(x), nil
		}
	case TypeDecimal:
		switch x := v.(type) {
		case *apd.Decimal:
			if x == nil {
				return nil, mismatch(dt, v)
			}
			return new(apd.Decimal).Set(x), nil
		case apd.Decimal:
			return new(apd.Decimal).Set(&x), nil
		}
		if i, ok := toInt64(v); ok {
			return apd.New(i, 0), nil
		}
	case TypeTimestamp:
		switch x := v.(type) {
		case Timestamp:
			return x, nil
		case time.Time:
			return TimestampFromTime(x), nil
		}
	case TypeBoolean:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	}
	return nil, mismatch(dt, v)
}

func mismatch(dt DataType, v Value) error {
	return errors.Mark(errors.Newf("cannot use %v (%T) as %s", v, v, dt.Name()), ErrTypeMismatch)
}

func toInt64(v Value) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		if uint64(x) > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		if x > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	}
	return 0, false
}

// ParseValue parses the textual form of a literal of type dt.
func ParseValue(dt DataType, text string) (Value, error) {
	switch dt {
	case TypeLong:
		i, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
		if err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "parse %s", dt.Name()), ErrTypeMismatch)
		}
		return i, nil
	case TypeFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "parse %s", dt.Name()), ErrTypeMismatch)
		}
		return f, nil
	case TypeString:
		return text, nil
	case TypeDate:
		d, err := ParseDate(text)
		if err != nil {
			return nil, errors.Mark(err, ErrTypeMismatch)
		}
		return d, nil
	case TypeDecimal:
		d, _, err := apd.NewFromString(strings.TrimSpace(text))
		if err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "parse %s", dt.Name()), ErrTypeMismatch)
		}
		return d, nil
	case TypeTimestamp:
		ts, err := ParseTimestamp(text)
		if err != nil {
			return nil, errors.Mark(err, ErrTypeMismatch)
		}
		return ts, nil
	case TypeBoolean:
		b, err := strconv.ParseBool(strings.TrimSpace(text))
		if err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "parse %s", dt.Name()), ErrTypeMismatch)
		}
		return b, nil
	default:
		return nil, errors.Newf("unknown data type: %d", dt)
	}
}

// IsNaN reports whether v is a floating point NaN.
func IsNaN(v Value) bool {
	f, ok := v.(float64)
	return ok && math.IsNaN(f)
}

// CompareValues compares two coerced values of the same DataType.
// Returns -1 if a < b, 0 if a == b, 1 if a > b.
func CompareValues(dt DataType, a, b Value) int {
	switch dt {
	case TypeLong:
		return cmpOrdered(a.(int64), b.(int64))
	case TypeFloat:
		return cmpOrdered(a.(float64), b.(float64))
	case TypeString:
		return cmpOrdered(a.(string), b.(string))
	case TypeDate:
		return cmpOrdered(a.(Date), b.(Date))
	case TypeDecimal:
		return a.(*apd.Decimal).Cmp(b.(*apd.Decimal))
	case TypeTimestamp:
		return cmpOrdered(a.(Timestamp), b.(Timestamp))
	case TypeBoolean:
		return cmpBool(a.(bool), b.(bool))
	default:
		return 0
	}
}

type ordered interface {
	~int32 | ~int64 | ~float64 | ~string
}

func cmpOrdered[T ordered](a, b T) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// false sorts before true.
func cmpBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

// ValueToString converts a value to its canonical string representation.
// ParseValue(dt, ValueToString(dt, v)) yields a value equal to v.
func ValueToString(dt DataType, v Value) string {
	if v == nil {
		return "NULL"
	}
	switch dt {
	case TypeLong:
		return strconv.FormatInt(v.(int64), 10)
	case TypeFloat:
		return strconv.FormatFloat(v.(float64), 'g', -1, 64)
	case TypeDecimal:
		return v.(*apd.Decimal).String()
	case TypeBoolean:
		return strconv.FormatBool(v.(bool))
	case TypeString:
		return v.(string)
	case TypeDate:
		return v.(Date).String()
	case TypeTimestamp:
		return v.(Timestamp).String()
	default:
		return "?"
	}
}
