package store

import (
	"strings"
	"time"

	"github.com/09ahmad/lyftr-backend-assignment/internal/models"
)

// whereClause builds the filter conditions shared by the SQL stores.
// placeholder renders the n-th (1-based) bind parameter for the dialect.
func whereClause(filter models.MessageFilter, placeholder func(n int) string) (string, []any) {
	var conditions []string
	var args []any

	if filter.From != "" {
		args = append(args, filter.From)
		conditions = append(conditions, "from_msisdn = "+placeholder(len(args)))
	}
	if filter.Since != "" {
		args = append(args, timestampKey(filter.Since))
		conditions = append(conditions, "ts_key >= "+placeholder(len(args)))
	}
	if filter.Query != "" {
		args = append(args, "%"+escapeLike(strings.ToLower(filter.Query))+"%")
		conditions = append(conditions, "LOWER(text) LIKE "+placeholder(len(args))+` ESCAPE '\'`)
	}

	if len(conditions) == 0 {
		return "1=1", args
	}
	return strings.Join(conditions, " AND "), args
}

// timestampKeyLayout has a fixed-width fraction so keys compare bytewise in
// time order. "10:00:00.5Z" and "10:00:00Z" alone do not.
const timestampKeyLayout = "2006-01-02T15:04:05.000000000Z"

// timestampKey is the sortable form of a UTC ts. The caller's ts is stored
// as supplied and returned unchanged; only ordering and since use the key.
func timestampKey(ts string) string {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return ts
	}
	return t.UTC().Format(timestampKeyLayout)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes LIKE wildcards in s match literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// matchesQuery applies the text filter in application code (Redis store).
func matchesQuery(text *string, query string) bool {
	if query == "" {
		return true
	}
	if text == nil {
		return false
	}
	return strings.Contains(strings.ToLower(*text), strings.ToLower(query))
}
