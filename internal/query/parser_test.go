package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		raw      string
		expected map[string][]string
		keys     []string
	}{
		{
			name:     "empty string",
			raw:      "",
			expected: map[string][]string{},
		},
		{
			name:     "repeated keys keep occurrence order",
			raw:      "a=1&a=2&b=3",
			expected: map[string][]string{"a": {"1", "2"}, "b": {"3"}},
			keys:     []string{"a", "b"},
		},
		{
			name:     "token without equals sign",
			raw:      "flag",
			expected: map[string][]string{"flag": {""}},
			keys:     []string{"flag"},
		},
		{
			name:     "token with leading equals sign is dropped",
			raw:      "=onlyvalue",
			expected: map[string][]string{},
		},
		{
			name:     "leading equals sign dropped among others",
			raw:      "a=1&=x&b=2",
			expected: map[string][]string{"a": {"1"}, "b": {"2"}},
			keys:     []string{"a", "b"},
		},
		{
			name:     "empty value",
			raw:      "a=",
			expected: map[string][]string{"a": {""}},
			keys:     []string{"a"},
		},
		{
			name:     "value containing equals sign",
			raw:      "expr=x=y",
			expected: map[string][]string{"expr": {"x=y"}},
			keys:     []string{"expr"},
		},
		{
			name:     "empty tokens are skipped",
			raw:      "&&a=1&&",
			expected: map[string][]string{"a": {"1"}},
			keys:     []string{"a"},
		},
		{
			name:     "percent and plus decoding",
			raw:      "na%20me=hello+world&city=S%C3%A3o+Paulo",
			expected: map[string][]string{"na me": {"hello world"}, "city": {"São Paulo"}},
			keys:     []string{"na me", "city"},
		},
		{
			name:     "encoded keys merge with plain keys",
			raw:      "a%62=1&ab=2",
			expected: map[string][]string{"ab": {"1", "2"}},
			keys:     []string{"ab"},
		},
		{
			name:     "malformed escape keeps raw value",
			raw:      "a=%zz&b=100%",
			expected: map[string][]string{"a": {"%zz"}, "b": {"100%"}},
			keys:     []string{"a", "b"},
		},
		{
			name:     "malformed escape keeps raw key",
			raw:      "%g1=v",
			expected: map[string][]string{"%g1": {"v"}},
			keys:     []string{"%g1"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v := Parse(tt.raw)
			require.NotNil(t, v)
			assert.Equal(t, tt.expected, v.Map())
			assert.Equal(t, len(tt.expected), v.Len())
			if tt.keys != nil {
				assert.Equal(t, tt.keys, v.Keys())
			}
		})
	}
}

func TestParse_CollapseToFirstValues(t *testing.T) {
	t.Parallel()

	v := Parse("a=1&a=2&b=3")

	assert.Equal(t, map[string][]string{"a": {"1", "2"}, "b": {"3"}}, v.Map())
	assert.Equal(t, map[string]string{"a": "1", "b": "3"}, v.Collapse())
}

func TestParseWithStats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		raw       string
		fallbacks int
	}{
		{name: "clean input", raw: "a=1&b=%20", fallbacks: 0},
		{name: "bad value", raw: "a=%zz", fallbacks: 1},
		{name: "bad key and value", raw: "%x=%y", fallbacks: 2},
		{name: "bad key without value", raw: "%", fallbacks: 1},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, fallbacks := ParseWithStats(tt.raw)
			assert.Equal(t, tt.fallbacks, fallbacks)
		})
	}
}

func TestDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected Decoded
	}{
		{name: "plain", input: "abc", expected: Decoded{Value: "abc"}},
		{name: "plus is space", input: "a+b", expected: Decoded{Value: "a b"}},
		{name: "percent escape", input: "%2Fpath", expected: Decoded{Value: "/path"}},
		{name: "utf-8 escape", input: "%E2%82%AC", expected: Decoded{Value: "€"}},
		{name: "invalid utf-8 bytes replaced", input: "%FF", expected: Decoded{Value: "\uFFFD"}},
		{name: "replacement keeps valid runes", input: "a%FFb", expected: Decoded{Value: "a\uFFFDb"}},
		{name: "truncated escape", input: "%4", expected: Decoded{Value: "%4", Fallback: true}},
		{name: "non-hex escape", input: "%zz", expected: Decoded{Value: "%zz", Fallback: true}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, Decode(tt.input))
		})
	}
}

func TestValues(t *testing.T) {
	t.Parallel()

	t.Run("zero value is usable", func(t *testing.T) {
		t.Parallel()

		var v Values
		v.Add("k", "1")
		v.Add("k", "2")

		assert.Equal(t, []string{"1", "2"}, v.Get("k"))
		first, ok := v.First("k")
		assert.True(t, ok)
		assert.Equal(t, "1", first)
	})

	t.Run("nil values behave as empty", func(t *testing.T) {
		t.Parallel()

		var v *Values
		assert.Nil(t, v.Get("k"))
		assert.False(t, v.Has("k"))
		assert.Equal(t, 0, v.Len())
		assert.Empty(t, v.Keys())
		assert.NotNil(t, v.Collapse())
		assert.NotNil(t, v.Map())
	})

	t.Run("missing key", func(t *testing.T) {
		t.Parallel()

		v := NewValues()
		_, ok := v.First("missing")
		assert.False(t, ok)
	})

	t.Run("map is a copy", func(t *testing.T) {
		t.Parallel()

		v := Parse("a=1")
		m := v.Map()
		m["a"][0] = "changed"
		m["b"] = []string{"2"}

		assert.Equal(t, []string{"1"}, v.Get("a"))
		assert.False(t, v.Has("b"))
	})
}
