// Package codec reads and writes the JSON documents exchanged with clients
// and stored alongside coupons: coupon definitions, product records and the
// numeric and time scalars they share.
package codec

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// ReadDecimal reads a JSON number or a numeric string.
func ReadDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Decimal{}, err
		}
		v, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Decimal{}, errors.Wrapf(err, "parse %q", s)
		}
		return v, nil
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Decimal{}, err
		}
		v, err := decimal.NewFromString(n.String())
		if err != nil {
			return decimal.Decimal{}, errors.Wrapf(err, "parse %s", n)
		}
		return v, nil
	default:
		return decimal.Decimal{}, errors.Errorf("expected number, got %s", d.Next())
	}
}

// ReadOptionalDecimal reads a decimal, returning nil for JSON null.
func ReadOptionalDecimal(d *jx.Decoder) (*decimal.Decimal, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	v, err := ReadDecimal(d)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ReadOptionalInt reads an integer, returning nil for JSON null.
func ReadOptionalInt(d *jx.Decoder) (*int, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	v, err := d.Int()
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ReadOptionalBool reads a boolean, returning nil for JSON null.
func ReadOptionalBool(d *jx.Decoder) (*bool, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	v, err := d.Bool()
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ReadOptionalTime reads an RFC 3339 timestamp, returning nil for JSON null.
func ReadOptionalTime(d *jx.Decoder) (*time.Time, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	s, err := d.Str()
	if err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil, errors.Wrapf(err, "parse time %q", s)
	}
	return &t, nil
}

// ReadStrings reads an array of strings. Null yields nil.
func ReadStrings(d *jx.Decoder) ([]string, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	var out []string
	err := d.Arr(func(d *jx.Decoder) error {
		s, err := d.Str()
		if err != nil {
			return err
		}
		out = append(out, s)
		return nil
	})
	return out, err
}

// WriteDecimal writes v as a JSON number in its shortest exact form.
func WriteDecimal(e *jx.Encoder, v decimal.Decimal) {
	e.RawStr(v.String())
}

// WriteMoney writes v as a JSON number with exactly two decimal places.
func WriteMoney(e *jx.Encoder, v decimal.Decimal) {
	e.RawStr(v.StringFixed(2))
}

// WriteTime writes t as an RFC 3339 string in UTC.
func WriteTime(e *jx.Encoder, t time.Time) {
	e.Str(t.UTC().Format(time.RFC3339Nano))
}

// WriteStrings writes ss as a JSON array. Nil is written as an empty array.
func WriteStrings(e *jx.Encoder, ss []string) {
	e.Arr(func(e *jx.Encoder) {
		for _, s := range ss {
			e.Str(s)
		}
	})
}
