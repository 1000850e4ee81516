package gateway

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// encodeQuery converts scalar query values into url.Values. nil values are
// dropped; composite values are rejected.
func encodeQuery(query map[string]any) (url.Values, error) {
	if len(query) == 0 {
		return nil, nil
	}

	values := make(url.Values, len(query))
	for key, value := range query {
		var s string
		switch v := value.(type) {
		case nil:
			continue
		case string:
			s = v
		case bool:
			s = strconv.FormatBool(v)
		case int:
			s = strconv.Itoa(v)
		case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			s = fmt.Sprint(v)
		case float32:
			s = strconv.FormatFloat(float64(v), 'f', -1, 32)
		case float64:
			s = strconv.FormatFloat(v, 'f', -1, 64)
		case time.Time:
			s = v.Format(time.RFC3339)
		case fmt.Stringer:
			s = v.String()
		default:
			return nil, fmt.Errorf("query parameter %q has unsupported type %T", key, value)
		}
		values.Set(key, s)
	}
	return values, nil
}

var idSegment = regexp.MustCompile(`^([0-9]+|[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12})$`)

// routeOf replaces identifier segments so metrics and span names keep a
// bounded cardinality: /squads/42/join/ -> /squads/{id}/join/.
func routeOf(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		if idSegment.MatchString(segment) {
			segments[i] = "{id}"
		}
	}
	return strings.Join(segments, "/")
}
