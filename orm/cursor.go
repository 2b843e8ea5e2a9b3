package orm

import (
	"strings"

	"github.com/relaydb/ormengine/types"
)

// orderField is a single orderBy entry normalized from the JSON envelope's
// {field: "asc"|"desc"} / [{field: "asc"}, ...] shapes.
type orderField struct {
	field string
	desc  bool
}

func normalizeOrderBy(orderBy any) []orderField {
	var fields []orderField

	switch ob := orderBy.(type) {
	case map[string]any:
		for field, direction := range ob {
			if strings.HasPrefix(field, "_") {
				continue // aggregation ordering, not a cursor tiebreak field
			}
			fields = append(fields, orderField{field: field, desc: isDescDirection(direction)})
		}
	case []any:
		for _, item := range ob {
			if m, ok := item.(map[string]any); ok {
				for field, direction := range m {
					fields = append(fields, orderField{field: field, desc: isDescDirection(direction)})
				}
			}
		}
	}

	return fields
}

func isDescDirection(direction any) bool {
	s, ok := direction.(string)
	return ok && strings.ToLower(s) == "desc"
}

func reverseOrderFields(fields []orderField) []orderField {
	reversed := make([]orderField, len(fields))
	for i, f := range fields {
		reversed[i] = orderField{field: f.field, desc: !f.desc}
	}
	return reversed
}

// buildCursorCondition builds "every row strictly after the cursor row, in
// orderFields order" as an OR-of-ANDs lexicographic tuple comparison:
// (a > ca) OR (a = ca AND b > cb) OR (a = ca AND b = cb AND c > cc) ...
// Only PostgreSQL supports native row-value comparison, so this expanded
// form is used for both dialects rather than forking the SQL per driver.
func buildCursorCondition(orderFields []orderField, cursor map[string]any) types.Condition {
	if len(orderFields) == 0 || len(cursor) == 0 {
		return nil
	}

	var clauses []types.Condition
	for i, of := range orderFields {
		cursorValue, ok := cursor[of.field]
		if !ok {
			continue
		}

		var conjunction []types.Condition
		for j := 0; j < i; j++ {
			eqField := orderFields[j].field
			eqValue, ok := cursor[eqField]
			if !ok {
				continue
			}
			conjunction = append(conjunction, types.NewFieldCondition("", eqField).Equals(eqValue))
		}

		fc := types.NewFieldCondition("", of.field)
		if of.desc {
			conjunction = append(conjunction, fc.LessThan(cursorValue))
		} else {
			conjunction = append(conjunction, fc.GreaterThan(cursorValue))
		}

		if len(conjunction) == 1 {
			clauses = append(clauses, conjunction[0])
		} else {
			clauses = append(clauses, types.NewAndCondition(conjunction...))
		}
	}

	if len(clauses) == 0 {
		return nil
	}
	if len(clauses) == 1 {
		return clauses[0]
	}
	return types.NewOrCondition(clauses...)
}

// reverseMaps reverses records in place. A negative take compiles the query
// against reversed orderBy directions so LIMIT grabs the right end of the
// window, then this flips the page back into the caller's requested order.
func reverseMaps(records []map[string]any) {
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
}
