// Package query decodes raw "key=value&key=value" strings into ordered
// multi-maps.
//
// Parsing never fails. Malformed percent escapes keep their raw text, tokens
// starting with '=' are dropped and a token without '=' becomes a key with
// an empty value:
//
//	v := query.Parse("a=1&a=2&flag&=ignored&b=%zz")
//	v.Get("a")    // ["1", "2"]
//	v.Get("flag") // [""]
//	v.Get("b")    // ["%zz"]
package query

import (
	"net/url"
	"strings"
)

const (
	pairSeparator  = "&"
	valueSeparator = "="
)

// Decoded is the outcome of decoding one key or value.
type Decoded struct {
	// Value is the decoded text, or the raw text when Fallback is set.
	Value string

	// Fallback reports that the input held a malformed escape and Value is
	// the undecoded input.
	Fallback bool
}

// Decode form-decodes s as UTF-8: '+' becomes a space and %XX escapes become
// bytes. Byte sequences that do not form valid UTF-8 are replaced with
// U+FFFD. A malformed escape yields the raw input with Fallback set.
func Decode(s string) Decoded {
	decoded, err := url.QueryUnescape(s)
	if err != nil {
		return Decoded{Value: s, Fallback: true}
	}
	return Decoded{Value: strings.ToValidUTF8(decoded, "\uFFFD")}
}

// Parse decodes raw into an ordered multi-map. An empty raw string yields
// an empty Values.
func Parse(raw string) *Values {
	v, _ := ParseWithStats(raw)
	return v
}

// ParseWithStats is Parse that also returns how many keys or values fell
// back to their raw text because of malformed escapes.
func ParseWithStats(raw string) (values *Values, fallbacks int) {
	values = NewValues()

	for _, token := range strings.Split(raw, pairSeparator) {
		if token == "" {
			continue
		}

		var rawKey, rawValue string
		i := strings.Index(token, valueSeparator)
		switch {
		case i > 0:
			rawKey, rawValue = token[:i], token[i+1:]
		case i < 0:
			rawKey = token
		default:
			// A token such as "=value" has no key and is dropped.
			continue
		}

		key := Decode(rawKey)
		if key.Fallback {
			fallbacks++
		}

		value := Decoded{}
		if rawValue != "" {
			value = Decode(rawValue)
			if value.Fallback {
				fallbacks++
			}
		}

		values.Add(key.Value, value.Value)
	}

	return values, fallbacks
}
