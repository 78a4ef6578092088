// Package fixed provides the decimal type every price, volume, margin, and
// P&L computation in this module is expressed in. Ticks arrive as floats
// from a feed, but balances, equities, and stop/limit comparisons must not
// accumulate binary floating-point error across a run that can span
// millions of ticks, so each of those quantities is converted to a Point
// once and stays a Point until it is rendered for a report.
package fixed

import (
	"github.com/govalues/decimal"
	"github.com/kestrel-quant/backtest/pkg/utility"
)

// Point wraps a decimal.Decimal. Its arithmetic methods panic on overflow
// or division by zero rather than returning an error: a caller dividing a
// margin level by a zero used-margin has a bug worth crashing loudly on,
// not one worth propagating silently into a report.
type Point struct {
	v decimal.Decimal
}

// FromInt builds a Point equal to value scaled by 10^-scale, e.g.
// FromInt(12345, 2) is 123.45.
func FromInt(value int, scale int) Point {
	return Point{must(decimal.New(int64(value), scale))}
}

// FromInt64 is FromInt for a value that doesn't fit in an int.
func FromInt64(value int64, scale int) Point {
	return Point{must(decimal.New(value, scale))}
}

// FromUint64 is FromInt64 for a value that arrived unsigned, such as a raw
// tick volume field. It panics rather than wrapping if value overflows
// int64, so a malformed feed is caught at ingestion instead of silently
// admitting a garbage volume into a position.
func FromUint64(value uint64, scale int) Point {
	return Point{must(decimal.New(utility.U64ToI64Unsafe(value), scale))}
}

// FromFloat64 converts a feed-supplied float (a tick price, typically) into
// a Point. Once converted, the value never touches float64 arithmetic
// again until Float64 renders it back out for display.
func FromFloat64(value float64) Point {
	return Point{must(decimal.NewFromFloat64(value))}
}

func (p Point) String() string           { return p.v.String() }
func (p Point) Float64() (float64, bool) { return p.v.Float64() }

func (p Point) Abs() Point { return Point{p.v.Abs()} }
func (p Point) Neg() Point { return Point{p.v.Neg()} }

func (p Point) Add(o Point) Point { return Point{must(p.v.Add(o.v))} }
func (p Point) Sub(o Point) Point { return Point{must(p.v.Sub(o.v))} }
func (p Point) Mul(o Point) Point { return Point{must(p.v.Mul(o.v))} }
func (p Point) Div(o Point) Point { return Point{must(p.v.Quo(o.v))} }

// MulInt64, MulInt, DivInt64 and DivInt scale a Point by a plain integer (a
// lot size, a tick count) without the caller building a Point for the
// integer operand first.
func (p Point) MulInt64(o int64) Point { return p.intOp(o, decimal.Decimal.Mul) }
func (p Point) MulInt(o int) Point     { return p.intOp(int64(o), decimal.Decimal.Mul) }
func (p Point) DivInt64(o int64) Point { return p.intOp(o, decimal.Decimal.Quo) }
func (p Point) DivInt(o int) Point     { return p.intOp(int64(o), decimal.Decimal.Quo) }

func (p Point) intOp(o int64, op func(decimal.Decimal, decimal.Decimal) (decimal.Decimal, error)) Point {
	return Point{must(op(p.v, decimal.MustNew(o, 0)))}
}

func (p Point) Eq(o Point) bool  { return p.v.Cmp(o.v) == 0 }
func (p Point) Gt(o Point) bool  { return p.v.Cmp(o.v) > 0 }
func (p Point) Lt(o Point) bool  { return p.v.Cmp(o.v) < 0 }
func (p Point) Gte(o Point) bool { return p.v.Cmp(o.v) >= 0 }
func (p Point) Lte(o Point) bool { return p.v.Cmp(o.v) <= 0 }

func (p Point) IsZero() bool { return p.v.IsZero() }

// Rescale returns p expressed at the given number of decimal places,
// rounding half to even. Reports use this to normalize every statistic to
// the account currency's display precision before rendering.
func (p Point) Rescale(scale int) Point { return Point{p.v.Rescale(scale)} }

func (p Point) Pow(o Point) Point { return Point{must(p.v.Pow(o.v))} }
func (p Point) Sqrt() Point       { return Point{must(p.v.Sqrt())} }

func (p Point) Exp() Point { return Point{must(p.v.Exp())} }
func (p Point) Log() Point { return Point{must(p.v.Log())} }

// MarshalText renders p the same way String does, so a Point embedded in a
// JSON report field serializes as a plain decimal string rather than the
// underlying decimal.Decimal's internal representation.
func (p Point) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func must(v decimal.Decimal, err error) decimal.Decimal {
	if err == nil {
		return v
	}
	panic(err)
}
