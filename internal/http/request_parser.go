package http

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"findash/internal/core"
	"findash/internal/dashboard"
)

// ParamError names the query parameter that failed to parse.
type ParamError struct {
	Param string
	Err   error
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Param, e.Err)
}

func (e *ParamError) Unwrap() error { return e.Err }

// ParseParams reads the dashboard filters from a query string:
//
//	user=ID  category=NAME (repeatable)  type=All|Income|Expense  from=YYYY-MM-DD  to=YYYY-MM-DD
//
// Absent parameters stay unset so the report falls back to its defaults. A
// category parameter that is present but blank selects no category at all.
func ParseParams(query url.Values) (dashboard.Params, error) {
	var p dashboard.Params

	if v := strings.TrimSpace(query.Get("user")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return p, &ParamError{Param: "user", Err: fmt.Errorf("%q is not a user id", v)}
		}
		p.UserID = id
	}

	if values, ok := query["category"]; ok {
		p.Categories = []string{}
		for _, v := range values {
			if v = strings.TrimSpace(v); v != "" {
				p.Categories = append(p.Categories, v)
			}
		}
	}

	t, err := dashboard.ParseTypeFilter(query.Get("type"))
	if err != nil {
		return p, &ParamError{Param: "type", Err: err}
	}
	p.Type = t

	for _, d := range []struct {
		name string
		dst  *core.Date
	}{{"from", &p.From}, {"to", &p.To}} {
		v := strings.TrimSpace(query.Get(d.name))
		if v == "" {
			continue
		}
		parsed, err := core.ParseDate(v)
		if err != nil {
			return p, &ParamError{Param: d.name, Err: err}
		}
		*d.dst = parsed
	}
	return p, nil
}
