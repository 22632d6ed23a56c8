package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// parseFiscalYear reads the fy query parameter. Absent means no filter (0);
// a malformed value is an error rather than a silent default.
func parseFiscalYear(r *http.Request) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get("fy"))
	if v == "" {
		return 0, nil
	}
	fy, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid fiscal year '%s'", v)
	}
	return fy, nil
}

// parseLimit reads the limit query parameter, falling back to def.
func parseLimit(r *http.Request, def int) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get("limit"))
	if v == "" {
		return def, nil
	}
	limit, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid limit '%s'", v)
	}
	return limit, nil
}

// parseTerm reads and trims the q query parameter.
func parseTerm(r *http.Request) string {
	return strings.TrimSpace(r.URL.Query().Get("q"))
}

// splitEntityPath splits "/api/entities/{id}" or "/api/entities/{id}/{view}"
// into its id and optional view segment.
func splitEntityPath(path string) (id, view string, ok bool) {
	rest := strings.TrimPrefix(path, "/api/entities/")
	if rest == "" || rest == path {
		return "", "", false
	}
	parts := strings.SplitN(rest, "/", 2)
	id = parts[0]
	if len(parts) == 2 {
		view = parts[1]
	}
	return id, view, id != ""
}
