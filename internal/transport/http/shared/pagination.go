package shared

import (
	"net/http"
	"strconv"
)

type Page struct {
	Page     int
	PageSize int
}

// ParsePage reads 1-indexed page/page_size query parameters. Out-of-range
// values fall back to the service defaults (zero here).
func ParsePage(r *http.Request) Page {
	var p Page
	if raw := r.URL.Query().Get("page"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			p.Page = v
		}
	}
	if raw := r.URL.Query().Get("page_size"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			p.PageSize = v
		}
	}
	return p
}

func QueryInt(r *http.Request, key string, fallback int) int {
	if raw := r.URL.Query().Get(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return fallback
}
