package query

import (
	"fmt"
	"strings"
	"time"
)

// WhereSQL renders the clause list as a parameterized WHERE fragment using
// $n placeholders starting at startIndex. now anchors relative intervals.
// An empty clause list yields an empty fragment and no params.
func (o Options) WhereSQL(startIndex int, now time.Time) (string, []interface{}) {
	if len(o.Clauses) == 0 {
		return "", nil
	}
	if startIndex < 1 {
		startIndex = 1
	}

	conditions := make([]string, 0, len(o.Clauses))
	params := make([]interface{}, 0, len(o.Clauses))
	next := startIndex

	placeholder := func() string {
		ph := fmt.Sprintf("$%d", next)
		next++
		return ph
	}

	for _, c := range o.Clauses {
		col := c.Column
		// feature payloads are JSONB; compare their text form
		if col == "user_agent_features" {
			col = "user_agent_features::text"
		}

		switch c.Op {
		case OpEqual:
			conditions = append(conditions, col+" = "+placeholder())
			params = append(params, c.Value)
		case OpNotEqual:
			conditions = append(conditions, col+" != "+placeholder())
			params = append(params, c.Value)
		case OpContains:
			conditions = append(conditions, col+" LIKE "+placeholder())
			params = append(params, containsPattern(c.Value))
		case OpNotContains:
			conditions = append(conditions, col+" NOT LIKE "+placeholder())
			params = append(params, containsPattern(c.Value))
		case OpSince:
			iv, ok := c.Value.(Interval)
			if !ok {
				continue
			}
			conditions = append(conditions, col+" >= "+placeholder())
			params = append(params, iv.Before(now))
		case OpOnOrAfter:
			conditions = append(conditions, col+" >= "+placeholder())
			params = append(params, c.Value)
		case OpOnOrBefore:
			conditions = append(conditions, col+" <= "+placeholder())
			params = append(params, c.Value)
		}
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conditions, " AND "), params
}

// OrderBySQL renders the ORDER BY clause. The secondary sort on id keeps
// paging deterministic when timestamps collide.
func (o Options) OrderBySQL() string {
	column := o.SortColumn
	if !sortableColumns[column] {
		column = defaultSortColumn
	}
	direction := "ASC"
	if o.SortDesc {
		direction = "DESC"
	}
	if column == "id" {
		return "ORDER BY id " + direction
	}
	return fmt.Sprintf("ORDER BY %s %s, id DESC", column, direction)
}

// ClampOffset computes the page offset, pulling a page that would run past
// the end back to the final window (never negative). A zero limit means
// paging is disabled and the offset is always zero.
func ClampOffset(total, limit, page int) int {
	if limit <= 0 {
		return 0
	}
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit
	if offset+limit > total {
		offset = total - limit
		if offset < 0 {
			offset = 0
		}
	}
	return offset
}

// containsPattern wraps a substring value in LIKE wildcards, escaping LIKE
// metacharacters in the value itself.
func containsPattern(value interface{}) string {
	s, _ := value.(string)
	s = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
	return "%" + s + "%"
}
