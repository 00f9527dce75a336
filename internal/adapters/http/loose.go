package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// decodeLooseJSON decodes an object keeping numbers as json.Number.
func decodeLooseJSON(b []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("expected a JSON object")
	}
	return out, nil
}

func looseFloat(v any) (float64, error) {
	switch x := v.(type) {
	case json.Number:
		return x.Float64()
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("could not convert %q to a number", x)
		}
		return f, nil
	}
	return 0, fmt.Errorf("expected a number, got %T", v)
}

// looseInt truncates fractional numbers; fractional strings are rejected.
func looseInt(v any) (int, error) {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			if i < math.MinInt || i > math.MaxInt {
				return 0, fmt.Errorf("%s is out of range", x)
			}
			return int(i), nil
		}
		f, err := x.Float64()
		if err != nil {
			return 0, err
		}
		f = math.Trunc(f)
		if math.IsNaN(f) || f < math.MinInt || f >= math.MaxInt {
			return 0, fmt.Errorf("%s is out of range", x)
		}
		return int(f), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0, fmt.Errorf("could not convert %q to an integer", x)
		}
		return i, nil
	}
	return 0, fmt.Errorf("expected an integer, got %T", v)
}
