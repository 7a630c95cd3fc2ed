// Package keys turns a listing query into the string the cache is indexed by.
package keys

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/krisalay/paginated-query-cache/types"
)

/*
Derive returns the cache key for a query.

The key has the same shape as the listing request's query string:

	page=1&pageSize=10&sortBy=nombre&sortOrder=asc&search=

Every field is always present, in a fixed order, and every value is
query-escaped. Because '&' and '=' can never appear unescaped inside a
value, two queries produce the same key only if all five fields are equal.
An empty search is written as "search=", never omitted.
*/
func Derive(q types.Query) string {
	var b strings.Builder
	b.Grow(64 + len(q.SortBy) + len(q.Search))

	b.WriteString("page=")
	b.WriteString(strconv.Itoa(q.Page))
	b.WriteString("&pageSize=")
	b.WriteString(strconv.Itoa(q.PageSize))
	b.WriteString("&sortBy=")
	b.WriteString(url.QueryEscape(q.SortBy))
	b.WriteString("&sortOrder=")
	b.WriteString(url.QueryEscape(string(q.SortOrder)))
	b.WriteString("&search=")
	b.WriteString(url.QueryEscape(q.Search))

	return b.String()
}
