package query

import (
	"net/url"
	"strings"
)

// ParseRequest coerces loosely typed parameters, as they arrive from a URL
// query string or CLI flags, into a Request. page and limit accept a leading
// integer ("3", " 20rows"); anything missing, malformed or non-positive falls
// back to the defaults. Both camelCase and snake_case sort keys are accepted.
func ParseRequest(params url.Values) Request {
	req := Request{
		Page:      leadingInt(params.Get("page"), DefaultPage),
		Limit:     leadingInt(params.Get("limit"), DefaultLimit),
		Search:    params.Get("search"),
		SortBy:    first(params, "sortBy", "sort_by"),
		SortOrder: ParseOrder(first(params, "sortOrder", "sort_order")),
	}
	return Normalize(req)
}

// ParseOrder maps any spelling of "desc" to Desc and everything else to Asc.
func ParseOrder(s string) Order {
	if strings.EqualFold(strings.TrimSpace(s), string(Desc)) {
		return Desc
	}
	return Asc
}

func first(params url.Values, keys ...string) string {
	for _, k := range keys {
		if v := params.Get(k); v != "" {
			return v
		}
	}
	return ""
}

// leadingInt parses an optional sign followed by digits, ignoring leading
// whitespace and trailing garbage. Values that do not parse, overflow, or are
// below 1 return def.
func leadingInt(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	neg := false
	switch s[0] {
	case '+':
		s = s[1:]
	case '-':
		neg = true
		s = s[1:]
	}
	n, digits := 0, 0
	for digits < len(s) && s[digits] >= '0' && s[digits] <= '9' {
		if n > (1<<31)/10 {
			return def
		}
		n = n*10 + int(s[digits]-'0')
		digits++
	}
	if digits == 0 || neg || n < 1 {
		return def
	}
	return n
}
