package marketo

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// encodeQuery serializes params the way the vendor's reference clients do:
// keys sorted, lists as indexed brackets (id[0]=1&id[1]=2), nested maps as
// named brackets (attrs[name]=x). Brackets are percent-encoded.
func encodeQuery(params map[string]any) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var pairs []string
	for _, k := range keys {
		pairs = appendQuery(pairs, k, params[k])
	}
	return strings.Join(pairs, "&")
}

func appendQuery(pairs []string, key string, v any) []string {
	if v == nil {
		return pairs
	}
	if items, ok := asList(v); ok {
		for i, item := range items {
			pairs = appendQuery(pairs, fmt.Sprintf("%s[%d]", key, i), item)
		}
		return pairs
	}
	if m, ok := asMap(v); ok {
		subkeys := make([]string, 0, len(m))
		for k := range m {
			subkeys = append(subkeys, k)
		}
		sort.Strings(subkeys)
		for _, k := range subkeys {
			pairs = appendQuery(pairs, fmt.Sprintf("%s[%s]", key, k), m[k])
		}
		return pairs
	}
	return append(pairs, url.QueryEscape(key)+"="+url.QueryEscape(formatScalar(v)))
}

// collapseIndexedKeys rewrites name[0]=a&name[1]=b into name=a&name=b for
// each of names, leaving every other pair and the pair order untouched.
func collapseIndexedKeys(rawQuery string, names []string) string {
	if rawQuery == "" || len(names) == 0 {
		return rawQuery
	}

	patterns := make([]*regexp.Regexp, len(names))
	escaped := make([]string, len(names))
	for i, name := range names {
		escaped[i] = url.QueryEscape(name)
		patterns[i] = regexp.MustCompile(`^` + regexp.QuoteMeta(escaped[i]) + `(?i:\[|%5B)\d+(?i:\]|%5D)$`)
	}

	pairs := strings.Split(rawQuery, "&")
	for i, pair := range pairs {
		key, value, _ := strings.Cut(pair, "=")
		for j, re := range patterns {
			if re.MatchString(key) {
				pairs[i] = escaped[j] + "=" + value
				break
			}
		}
	}
	return strings.Join(pairs, "&")
}

// asList reports whether v is a slice or array (other than []byte) and
// returns its elements.
func asList(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, true
	case []byte, string:
		return nil, false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// joinList comma-joins a list value; scalars pass through as strings.
func joinList(v any) string {
	items, ok := asList(v)
	if !ok {
		return formatScalar(v)
	}
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, formatScalar(item))
	}
	return strings.Join(parts, ",")
}

func formatScalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case uint:
		return strconv.FormatUint(uint64(t), 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case time.Time:
		return t.Format(time.RFC3339)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}

// asInt accepts integer kinds, integral floats and decimal strings.
// Unsigned values above math.MaxInt64 are rejected.
func asInt(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int8:
		return int64(t), true
	case int16:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case uint:
		return uintToInt(uint64(t))
	case uint8:
		return int64(t), true
	case uint16:
		return int64(t), true
	case uint32:
		return int64(t), true
	case uint64:
		return uintToInt(t)
	case float32:
		return floatToInt(float64(t))
	case float64:
		return floatToInt(t)
	case json.Number:
		n, err := t.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		return n, err == nil
	}
	return 0, false
}

func uintToInt(u uint64) (int64, bool) {
	if u > math.MaxInt64 {
		return 0, false
	}
	return int64(u), true
}

func floatToInt(f float64) (int64, bool) {
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}
