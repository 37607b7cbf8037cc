package dispatch

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
)

var two = decimal.NewFromInt(2)

func transform(kind Kind, v any) (string, error) {
	switch kind {
	case KindString:
		s, ok := v.(string)
		if !ok {
			return "", errNotString
		}
		return strings.ToUpper(s), nil
	case KindNumber:
		n, err := toDecimal(v)
		if err != nil {
			return "", err
		}
		doubled := n.Mul(two)
		// Fractional inputs keep a decimal point even when the product is whole.
		if isFractional(v) && doubled.IsInteger() {
			return doubled.StringFixed(1), nil
		}
		return doubled.String(), nil
	case KindBoolean:
		return fmt.Sprint(!truthy(v)), nil
	default:
		return rawText(v)
	}
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int8:
		return decimal.NewFromInt(int64(n)), nil
	case int16:
		return decimal.NewFromInt(int64(n)), nil
	case int32:
		return decimal.NewFromInt(int64(n)), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case uint:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(n)), 0), nil
	case uint8:
		return decimal.NewFromInt(int64(n)), nil
	case uint16:
		return decimal.NewFromInt(int64(n)), nil
	case uint32:
		return decimal.NewFromInt(int64(n)), nil
	case uint64:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(n), 0), nil
	case float32:
		return fromFloat(float64(n))
	case float64:
		return fromFloat(n)
	case json.Number:
		d, err := decimal.NewFromString(string(n))
		if err != nil {
			return decimal.Decimal{}, errors.Mark(errors.Wrapf(err, "parse %q", string(n)), errNotNumber)
		}
		return d, nil
	default:
		return decimal.Decimal{}, errNotNumber
	}
}

func fromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Decimal{}, errors.Wrapf(errNotNumber, "non-finite %v", f)
	}
	return decimal.NewFromFloat(f), nil
}

func isFractional(v any) bool {
	switch n := v.(type) {
	case float32, float64:
		return true
	case json.Number:
		return strings.ContainsAny(string(n), ".eE")
	default:
		return false
	}
}

// truthy reports whether v counts as true: false, zero numbers, empty strings
// and empty collections are false, everything else is true.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case json.Number:
		d, err := decimal.NewFromString(string(x))
		return err != nil || !d.IsZero()
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Slice, reflect.Array, reflect.Map, reflect.String:
		return rv.Len() != 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	default:
		return true
	}
}

// rawText renders a value with no declared kind: strings as-is, collections as
// compact JSON, everything else in its default format.
func rawText(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case json.Number:
		return x.String(), nil
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		b, err := json.Marshal(v)
		if err != nil {
			return "", errors.Wrap(err, "render value")
		}
		return string(b), nil
	default:
		return fmt.Sprint(v), nil
	}
}
