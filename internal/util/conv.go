package util

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cast"
)

// CoerceInt converts a loosely typed value (JSON number, numeric string,
// integer) into an int. Booleans, nil and fractional numbers are rejected.
func CoerceInt(v interface{}) (int, error) {
	switch t := v.(type) {
	case nil:
		return 0, fmt.Errorf("%w: value is empty", ErrInvalidInput)
	case bool:
		return 0, fmt.Errorf("%w: boolean is not an integer", ErrInvalidInput)
	case string:
		// cast 把空串当作 0
		if strings.TrimSpace(t) == "" {
			return 0, fmt.Errorf("%w: value is empty", ErrInvalidInput)
		}
	case float64:
		if t != math.Trunc(t) || math.IsInf(t, 0) || math.IsNaN(t) {
			return 0, fmt.Errorf("%w: %v is not an integer", ErrInvalidInput, t)
		}
		// float64(math.MaxInt) rounds up to 2^63
		if t >= math.MaxInt || t < math.MinInt {
			return 0, fmt.Errorf("%w: %v is out of range", ErrInvalidInput, t)
		}
		return int(t), nil
	case float32:
		return CoerceInt(float64(t))
	case json.Number:
		if i, err := t.Int64(); err == nil {
			if i > math.MaxInt || i < math.MinInt {
				return 0, fmt.Errorf("%w: %s is out of range", ErrInvalidInput, t.String())
			}
			return int(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidInput, t.String())
		}
		return CoerceInt(f)
	}
	i, err := cast.ToIntE(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return i, nil
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
