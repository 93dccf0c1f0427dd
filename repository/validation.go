package repository

import (
	"regexp"
	"strings"

	"github.com/siteplane/siteplane-go-pkg/errors"
)

/* ========================================================================
 * Predicate and identifier guards
 * ========================================================================
 * OrderBy / Select / Joins / aggregate columns are interpolated into SQL
 * and therefore validated against identifier whitelists. Caller-supplied
 * WHERE fragments are parameterised by gorm, but are additionally scanned
 * for references to the tenant column: a caller filtering on the tenant
 * id through a scoped repository is ambiguous intent and is rejected.
 * ======================================================================== */

// columnRegex permits bare identifiers only.
var columnRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// qualifiedColumnRegex additionally permits "table.column" and a trailing
// "AS alias", for Select and OrderBy expressions.
var qualifiedColumnRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*(\.[a-zA-Z_][a-zA-Z0-9_]*)?(\s+[aA][sS]\s+[a-zA-Z_][a-zA-Z0-9_]*)?$`)

var orderDirections = map[string]bool{
	"ASC": true, "DESC": true, "asc": true, "desc": true,
}

// validateColumn checks a bare column identifier (aggregates, group keys).
func validateColumn(column string) error {
	if column == "" {
		return errors.NewValidation("column must not be empty")
	}
	if !columnRegex.MatchString(column) {
		return errors.NewValidation("invalid column name %q", column)
	}
	return nil
}

// ValidateOrderBy checks an ordering expression of the form
// "column [ASC|DESC]" with comma-separated parts.
func ValidateOrderBy(orderBy string) error {
	if strings.TrimSpace(orderBy) == "" {
		return nil
	}
	for _, part := range strings.Split(orderBy, ",") {
		fields := strings.Fields(strings.TrimSpace(part))
		switch len(fields) {
		case 0:
			continue
		case 1:
		case 2:
			if !orderDirections[fields[1]] {
				return errors.NewValidation("order direction must be ASC or DESC, got %q", fields[1])
			}
		default:
			return errors.NewValidation("invalid order expression %q", part)
		}
		if !qualifiedColumnRegex.MatchString(fields[0]) {
			return errors.NewValidation("invalid order column %q", fields[0])
		}
	}
	return nil
}

// ValidateSelect checks selected column expressions. Plain columns,
// "table.column", aliases and the common aggregate functions are allowed.
func ValidateSelect(selects []string) error {
	for _, sel := range selects {
		sel = strings.TrimSpace(sel)
		if sel == "" || isAggregateExpr(sel) {
			continue
		}
		if !qualifiedColumnRegex.MatchString(sel) {
			return errors.NewValidation("invalid select expression %q", sel)
		}
	}
	return nil
}

func isAggregateExpr(sel string) bool {
	upper := strings.ToUpper(sel)
	for _, fn := range []string{"COUNT(", "SUM(", "AVG(", "MAX(", "MIN("} {
		if strings.HasPrefix(upper, fn) {
			return true
		}
	}
	return false
}

// referencesColumn reports whether a raw SQL fragment mentions the given
// column as a whole word. Used to detect caller-supplied tenant filters;
// word-boundary matching keeps "content_id" from tripping on "tenant_id"
// style prefixes and suffixes.
func referencesColumn(fragment, column string) bool {
	if fragment == "" {
		return false
	}
	lower := strings.ToLower(fragment)
	col := strings.ToLower(column)
	for start := 0; ; {
		idx := strings.Index(lower[start:], col)
		if idx < 0 {
			return false
		}
		idx += start
		end := idx + len(col)
		beforeOK := idx == 0 || !isWordChar(lower[idx-1])
		afterOK := end == len(lower) || !isWordChar(lower[end])
		if beforeOK && afterOK {
			return true
		}
		start = idx + 1
	}
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' || c == '_'
}
