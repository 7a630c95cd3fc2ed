package httpapi

import (
	"net/url"
	"slices"
	"strconv"

	"github.com/pkg/errors"

	"github.com/krisalay/paginated-query-cache/recordapi"
	"github.com/krisalay/paginated-query-cache/types"
)

// Listing defaults, as the patients table starts out.
const (
	defaultPage     = 1
	defaultPageSize = 10
	defaultSortBy   = "nombre"
)

// parseQuery reads a listing query from URL parameters, filling in defaults.
func parseQuery(v url.Values) (types.Query, error) {
	q := types.Query{
		Page:      defaultPage,
		PageSize:  defaultPageSize,
		SortBy:    defaultSortBy,
		SortOrder: types.Asc,
		Search:    v.Get("search"),
	}

	var err error
	if s := v.Get("page"); s != "" {
		if q.Page, err = strconv.Atoi(s); err != nil || q.Page < 1 {
			return q, errors.Errorf("invalid page %q", s)
		}
	}
	if s := v.Get("pageSize"); s != "" {
		if q.PageSize, err = strconv.Atoi(s); err != nil || q.PageSize < 1 {
			return q, errors.Errorf("invalid pageSize %q", s)
		}
	}
	if s := v.Get("sortBy"); s != "" {
		if !slices.Contains(recordapi.SortFields, s) {
			return q, errors.Errorf("cannot sort by %q", s)
		}
		q.SortBy = s
	}
	if s := v.Get("sortOrder"); s != "" {
		switch o := types.SortOrder(s); o {
		case types.Asc, types.Desc:
			q.SortOrder = o
		default:
			return q, errors.Errorf("invalid sortOrder %q", s)
		}
	}
	return q, nil
}
