// Package jsonx decodes untyped JSON values without losing number precision.
package jsonx

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// ErrTrailingData is returned when b holds more than one JSON value.
var ErrTrailingData = errors.New("trailing data after JSON value")

// Decode parses exactly one JSON value from b. Numbers come back as
// json.Number so integers above 2^53 survive a round trip.
func Decode(b []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, ErrTrailingData
	}
	return v, nil
}

// maxExactFloat is the largest integer a float64 holds exactly.
const maxExactFloat = 1 << 53

// Plain replaces every json.Number in v with a float64 when that float64
// is exact, and with its decimal string otherwise. Use it before handing
// a value to an encoder that only knows float64 numbers.
func Plain(v any) (any, error) {
	switch t := v.(type) {
	case json.Number:
		return plainNumber(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			p, err := Plain(e)
			if err != nil {
				return nil, err
			}
			out[k] = p
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			p, err := Plain(e)
			if err != nil {
				return nil, err
			}
			out[i] = p
		}
		return out, nil
	default:
		return v, nil
	}
}

func plainNumber(n json.Number) (any, error) {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil || i > maxExactFloat || i < -maxExactFloat {
			return s, nil
		}
		return float64(i), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if errors.Is(err, strconv.ErrRange) || math.IsInf(f, 0) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("number %s: %w", s, err)
	}
	return f, nil
}
