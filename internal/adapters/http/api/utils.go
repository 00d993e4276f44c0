package api

import (
	"net/url"
	"strconv"
	"strings"
)

// listParam collects a query parameter given repeatedly and/or as a comma
// separated list. Blank items are dropped.
func listParam(q url.Values, key string) []string {
	var out []string
	for _, raw := range q[key] {
		for _, item := range strings.Split(raw, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}

// valuesParam collects a repeated query parameter without splitting, since
// filter values such as on-hold reasons may carry commas.
func valuesParam(q url.Values, key string) []string {
	var out []string
	for _, raw := range q[key] {
		if raw = strings.TrimSpace(raw); raw != "" {
			out = append(out, raw)
		}
	}
	return out
}

// intParam parses a non-negative integer; an absent value yields def.
func intParam(q url.Values, key string, def int) (int, bool) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
