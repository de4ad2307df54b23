package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Actions accepted by POST /state, plus the labels used for requests that
// resolve to a read or are refused.
const (
	actionInc      = "inc"
	actionDec      = "dec"
	actionSet      = "set"
	actionRead     = "read"
	actionInvalid  = "invalid"
	actionRejected = "rejected"
)

// mutation is a decoded POST /state request.
type mutation struct {
	Action string
	// Value is the coerced "value" field; NaN when it has no numeric reading.
	Value float64
}

// decodeMutation parses a mutation request body.
//
// The body must be exactly one JSON document. Anything that parses but is not
// an object, or has no string "action", decodes to an empty action, which the
// handler treats as a read.
func decodeMutation(r io.Reader) (mutation, error) {
	dec := json.NewDecoder(r)

	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return mutation{}, fmt.Errorf("decode body: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return mutation{}, errors.New("decode body: unexpected data after JSON document")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return mutation{}, nil
	}

	var m mutation
	// a non-string action leaves Action empty, which reads
	if a := bytes.TrimSpace(fields["action"]); len(a) > 0 && a[0] == '"' {
		if err := json.Unmarshal(a, &m.Action); err != nil {
			return mutation{}, fmt.Errorf("decode action: %w", err)
		}
	}
	m.Value = coerceNumber(fields["value"])
	return m, nil
}

// coerceNumber converts a JSON value to a number the way a loosely typed
// client would: numbers pass through, booleans become 0 or 1, null becomes 0,
// strings go through [parseNumericString], and an array reads as its only
// element (an empty array is 0). Objects, longer arrays and absence are NaN.
func coerceNumber(raw json.RawMessage) float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return math.NaN()
	}

	switch raw[0] {
	case 'n':
		return 0
	case 't':
		return 1
	case 'f':
		return 0
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return math.NaN()
		}
		return parseNumericString(s)
	case '[':
		return coerceArray(raw)
	case '{':
		return math.NaN()
	}

	return parseNumericString(string(raw))
}

// coerceArray reads an array through its string form: [] is "", [x] is
// the string form of x, and anything longer contains a comma.
func coerceArray(raw json.RawMessage) float64 {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return math.NaN()
	}

	switch len(items) {
	case 0:
		return 0
	case 1:
		item := bytes.TrimSpace(items[0])
		if len(item) == 0 {
			return math.NaN()
		}
		switch item[0] {
		case 'n':
			// null stringifies to "" inside an array
			return 0
		case 't', 'f', '{':
			return math.NaN()
		}
		return coerceNumber(item)
	default:
		return math.NaN()
	}
}

// decimalLiteral matches an optionally signed decimal with optional fraction
// and exponent. Go-only forms (hex floats, underscores, "inf") do not match.
var decimalLiteral = regexp.MustCompile(`^[+-]?(?:[0-9]+\.?[0-9]*|\.[0-9]+)(?:[eE][+-]?[0-9]+)?$`)

// parseNumericString parses s with string-to-number rules: surrounding
// whitespace is ignored, "" is 0, unsigned 0x/0o/0b integers are accepted,
// "Infinity" may be signed, and overflow saturates to an infinity.
// Anything else is NaN.
func parseNumericString(s string) float64 {
	s = strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\uFEFF'
	})
	if s == "" {
		return 0
	}

	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}

	if len(s) > 2 && s[0] == '0' {
		switch s[1] {
		case 'x', 'X':
			return parseRadix(s[2:], 16)
		case 'o', 'O':
			return parseRadix(s[2:], 8)
		case 'b', 'B':
			return parseRadix(s[2:], 2)
		}
	}

	if !decimalLiteral.MatchString(s) {
		return math.NaN()
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return math.NaN()
	}
	// on ErrRange ParseFloat returns the saturated value (±Inf or ±0)
	return n
}

// parseRadix reads unsigned integer digits in base into a float, so values
// wider than 64 bits lose precision instead of failing.
func parseRadix(digits string, base int) float64 {
	var n float64
	for _, r := range digits {
		d, err := strconv.ParseUint(string(r), base, 8)
		if err != nil {
			return math.NaN()
		}
		n = n*float64(base) + float64(d)
	}
	return n
}
