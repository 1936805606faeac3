package marketo

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeQuery(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]any
		want   string
	}{
		{
			name:   "sorted scalars",
			params: map[string]any{"b": "two words", "a": 1, "c": true},
			want:   "a=1&b=two+words&c=true",
		},
		{
			name:   "indexed list",
			params: map[string]any{"id": []int{7, 8}},
			want:   "id%5B0%5D=7&id%5B1%5D=8",
		},
		{
			name:   "nested map",
			params: map[string]any{"attrs": map[string]any{"b": "2", "a": "1"}},
			want:   "attrs%5Ba%5D=1&attrs%5Bb%5D=2",
		},
		{
			name:   "nil values dropped",
			params: map[string]any{"a": nil, "b": "x"},
			want:   "b=x",
		},
		{
			name:   "empty",
			params: map[string]any{},
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, encodeQuery(tt.params))
		})
	}
}

func TestCollapseIndexedKeys(t *testing.T) {
	tests := []struct {
		name  string
		query string
		names []string
		want  string
	}{
		{
			name:  "encoded brackets",
			query: "id%5B0%5D=1&id%5B1%5D=2&id%5B2%5D=3",
			names: []string{"id"},
			want:  "id=1&id=2&id=3",
		},
		{
			name:  "literal brackets",
			query: "id[0]=1&id[1]=2",
			names: []string{"id"},
			want:  "id=1&id=2",
		},
		{
			name:  "other keys untouched",
			query: "fields=email&ids%5B0%5D=4&id%5B0%5D=1&name%5B0%5D=x",
			names: []string{"id"},
			want:  "fields=email&ids%5B0%5D=4&id=1&name%5B0%5D=x",
		},
		{
			name:  "several names",
			query: "id%5B0%5D=1&leadId%5B0%5D=9&leadId%5B1%5D=10",
			names: []string{"id", "leadId"},
			want:  "id=1&leadId=9&leadId=10",
		},
		{
			name:  "lowercase escapes",
			query: "id%5b0%5d=1",
			names: []string{"id"},
			want:  "id=1",
		},
		{
			name:  "no names",
			query: "id%5B0%5D=1",
			want:  "id%5B0%5D=1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, collapseIndexedKeys(tt.query, tt.names))
		})
	}
}

func TestJoinList(t *testing.T) {
	assert.Equal(t, "email,firstName", joinList([]string{"email", "firstName"}))
	assert.Equal(t, "1,2,3", joinList([]int{1, 2, 3}))
	assert.Equal(t, "a,2", joinList([]any{"a", 2.0}))
	assert.Equal(t, "single", joinList("single"))
}

func TestAsInt(t *testing.T) {
	tests := []struct {
		in   any
		want int64
		ok   bool
	}{
		{in: 42, want: 42, ok: true},
		{in: int64(7), want: 7, ok: true},
		{in: 3.0, want: 3, ok: true},
		{in: 3.5, ok: false},
		{in: " 12 ", want: 12, ok: true},
		{in: "abc", ok: false},
		{in: json.Number("99"), want: 99, ok: true},
		{in: true, ok: false},
		{in: int8(-3), want: -3, ok: true},
		{in: int16(5), want: 5, ok: true},
		{in: uint8(8), want: 8, ok: true},
		{in: uint16(9), want: 9, ok: true},
		{in: uint64(5), want: 5, ok: true},
		{in: uint64(math.MaxUint64), ok: false},
		{in: float32(4), want: 4, ok: true},
		{in: float32(4.5), ok: false},
		{in: math.Inf(1), ok: false},
	}

	for _, tt := range tests {
		got, ok := asInt(tt.in)
		assert.Equal(t, tt.ok, ok, "asInt(%v)", tt.in)
		if tt.ok {
			assert.Equal(t, tt.want, got, "asInt(%v)", tt.in)
		}
	}
}
