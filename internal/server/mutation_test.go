package server

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeMutation(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantAction string
		wantValue  float64 // NaN means "expect NaN"
	}{
		{"inc", `{"action":"inc"}`, "inc", math.NaN()},
		{"dec", `{"action":"dec"}`, "dec", math.NaN()},
		{"set number", `{"action":"set","value":7}`, "set", 7},
		{"set fraction", `{"action":"set","value":2.5}`, "set", 2.5},
		{"set numeric string", `{"action":"set","value":" 12 "}`, "set", 12},
		{"set empty string", `{"action":"set","value":""}`, "set", 0},
		{"set word", `{"action":"set","value":"abc"}`, "set", math.NaN()},
		{"set null", `{"action":"set","value":null}`, "set", 0},
		{"set true", `{"action":"set","value":true}`, "set", 1},
		{"set false", `{"action":"set","value":false}`, "set", 0},
		{"set single-element array", `{"action":"set","value":[5]}`, "set", 5},
		{"set single-string array", `{"action":"set","value":["7"]}`, "set", 7},
		{"set empty array", `{"action":"set","value":[]}`, "set", 0},
		{"set two-element array", `{"action":"set","value":[1,2]}`, "set", math.NaN()},
		{"set hex string", `{"action":"set","value":"0x0F"}`, "set", 15},
		{"set object", `{"action":"set","value":{}}`, "set", math.NaN()},
		{"set missing value", `{"action":"set"}`, "set", math.NaN()},
		{"unknown action", `{"action":"explode"}`, "explode", math.NaN()},
		{"non-string action", `{"action":5}`, "", math.NaN()},
		{"array action", `{"action":["inc"]}`, "", math.NaN()},
		{"empty object", `{}`, "", math.NaN()},
		{"top-level number", `5`, "", 0},
		{"top-level null", `null`, "", math.NaN()},
		{"trailing whitespace", "{\"action\":\"inc\"}\n  ", "inc", math.NaN()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := decodeMutation(strings.NewReader(tt.body))
			require.NoError(t, err)

			assert.Equal(t, tt.wantAction, m.Action)
			if tt.name == "top-level number" {
				// not an object: zero mutation, value irrelevant
				assert.Equal(t, mutation{}, m)
				return
			}
			if math.IsNaN(tt.wantValue) {
				assert.True(t, math.IsNaN(m.Value), "Value = %v, want NaN", m.Value)
			} else {
				assert.Equal(t, tt.wantValue, m.Value)
			}
		})
	}
}

func TestDecodeMutation_Malformed(t *testing.T) {
	bodies := []string{
		``,
		`{`,
		`{"action":"inc"`,
		`not json`,
		`{"action":"inc"} trailing`,
		`{"action":"inc"}{"action":"dec"}`,
	}

	for _, body := range bodies {
		_, err := decodeMutation(strings.NewReader(body))
		assert.Error(t, err, "body %q", body)
	}
}

func TestCoerceNumber(t *testing.T) {
	tests := []struct {
		raw  string
		want float64 // NaN means "expect NaN"
	}{
		// numbers
		{`7`, 7},
		{`-0.5`, -0.5},
		{`1e300`, 1e300},
		{`1e400`, math.Inf(1)},
		{`-1e400`, math.Inf(-1)},

		// literals
		{`null`, 0},
		{`true`, 1},
		{`false`, 0},
		{`{}`, math.NaN()},
		{``, math.NaN()},

		// decimal strings
		{`"12"`, 12},
		{`" 12 "`, 12},
		{`"\t\n3\n"`, 3},
		{`""`, 0},
		{`"   "`, 0},
		{`"+4"`, 4},
		{`"-4"`, -4},
		{`"5."`, 5},
		{`".5"`, 0.5},
		{`"2e1"`, 20},
		{`"1e400"`, math.Inf(1)},
		{`"."`, math.NaN()},
		{`"abc"`, math.NaN()},
		{`"12abc"`, math.NaN()},

		// radix prefixes
		{`"0x0F"`, 15},
		{`"0XfF"`, 255},
		{`"0b101"`, 5},
		{`"0B11"`, 3},
		{`"0o17"`, 15},
		{`"0O7"`, 7},
		{`"0x"`, math.NaN()},
		{`"0xG"`, math.NaN()},
		{`"0b102"`, math.NaN()},
		{`"-0x10"`, math.NaN()},
		{`"+0x10"`, math.NaN()},

		// forms a Go parser accepts but string-to-number does not
		{`"0x1p4"`, math.NaN()},
		{`"0x1_0"`, math.NaN()},
		{`"1_000"`, math.NaN()},
		{`"inf"`, math.NaN()},
		{`"infinity"`, math.NaN()},

		// infinities
		{`"Infinity"`, math.Inf(1)},
		{`"+Infinity"`, math.Inf(1)},
		{`"-Infinity"`, math.Inf(-1)},

		// arrays read as their only element
		{`[]`, 0},
		{`[5]`, 5},
		{`["7"]`, 7},
		{`[" 8 "]`, 8},
		{`["0x0F"]`, 15},
		{`[[9]]`, 9},
		{`[[]]`, 0},
		{`[null]`, 0},
		{`[""]`, 0},
		{`[true]`, math.NaN()},
		{`[false]`, math.NaN()},
		{`[{}]`, math.NaN()},
		{`[1,2]`, math.NaN()},
		{`[null,null]`, math.NaN()},
	}

	for _, tt := range tests {
		got := coerceNumber(json.RawMessage(tt.raw))
		if math.IsNaN(tt.want) {
			assert.True(t, math.IsNaN(got), "coerceNumber(%s) = %v, want NaN", tt.raw, got)
			continue
		}
		assert.Equal(t, tt.want, got, "coerceNumber(%s)", tt.raw)
	}
}
