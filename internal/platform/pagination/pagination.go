// Package pagination normalizes paging inputs for list endpoints.
package pagination

import "strings"

// PageSizeConfig bounds a list endpoint's page size.
type PageSizeConfig struct {
	Default int
	Max     int
}

// ClampPageSize applies the default and cap to a requested page size.
// Zero and negative requests take the default; the result is always at
// least one.
func ClampPageSize(value int, cfg PageSizeConfig) int {
	pageSize := value
	if pageSize <= 0 {
		pageSize = cfg.Default
	}
	if cfg.Max > 0 && pageSize > cfg.Max {
		pageSize = cfg.Max
	}
	if pageSize <= 0 {
		pageSize = 1
	}
	return pageSize
}

// CleanPageToken folds an absent or whitespace token to empty.
func CleanPageToken(token string) string {
	return strings.TrimSpace(token)
}
