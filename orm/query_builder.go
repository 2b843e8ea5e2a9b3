package orm

import (
	"fmt"
	"strings"

	"github.com/relaydb/ormengine/types"
	"github.com/relaydb/ormengine/utils"
)

// applySimpleWhereConditions applies where conditions to a query
func applySimpleWhereConditions(query any, where any) any {
	condition := BuildCondition(where)
	if condition == nil {
		return query
	}

	switch q := query.(type) {
	case types.SelectQuery:
		return q.WhereCondition(condition)
	case types.UpdateQuery:
		return q.WhereCondition(condition)
	case types.DeleteQuery:
		return q.WhereCondition(condition)
	case types.ModelQuery:
		return q.WhereCondition(condition)
	default:
		return query
	}
}

// BuildCondition builds a condition from a where object
func BuildCondition(where any) types.Condition {
	whereMap, ok := where.(map[string]any)
	if !ok {
		return nil
	}

	var conditions []types.Condition

	for field, value := range whereMap {
		switch field {
		case "OR":
			if orConditions, ok := value.([]any); ok {
				var orConds []types.Condition
				for _, orCond := range orConditions {
					orConds = append(orConds, BuildCondition(orCond))
				}
				if len(orConds) > 0 {
					conditions = append(conditions, types.NewOrCondition(orConds...))
				}
			}
		case "AND":
			if andConditions, ok := value.([]any); ok {
				var andConds []types.Condition
				for _, andCond := range andConditions {
					andConds = append(andConds, BuildCondition(andCond))
				}
				if len(andConds) > 0 {
					conditions = append(conditions, types.NewAndCondition(andConds...))
				}
			}
		case "NOT":
			notCond := BuildCondition(value)
			if notCond != nil {
				conditions = append(conditions, types.NewNotCondition(notCond))
			}
		default:
			fieldCond := buildFieldCondition(field, value)
			if fieldCond != nil {
				conditions = append(conditions, fieldCond)
			}
		}
	}

	if len(conditions) == 0 {
		return nil
	}
	if len(conditions) == 1 {
		return conditions[0]
	}
	return types.NewAndCondition(conditions...)
}

// buildFieldCondition builds a single field condition
func buildFieldCondition(field string, value any) types.Condition {
	fieldCond := types.NewFieldCondition("", field)

	if valueMap, ok := value.(map[string]any); ok {
		var fieldConditions []types.Condition

		for op, val := range valueMap {
			var cond types.Condition
			switch op {
			case "equals":
				cond = fieldCond.Equals(val)
			case "not":
				if val == nil {
					cond = fieldCond.IsNotNull()
				} else {
					cond = fieldCond.NotEquals(val)
				}
			case "in":
				if values, ok := val.([]any); ok {
					cond = fieldCond.In(values...)
				}
			case "notIn":
				if values, ok := val.([]any); ok {
					cond = fieldCond.NotIn(values...)
				}
			case "lt":
				cond = fieldCond.LessThan(val)
			case "lte":
				cond = fieldCond.LessThanOrEqual(val)
			case "gt":
				cond = fieldCond.GreaterThan(val)
			case "gte":
				cond = fieldCond.GreaterThanOrEqual(val)
			case "contains":
				if strVal, ok := val.(string); ok {
					cond = fieldCond.Contains(strVal)
				} else {
					cond = fieldCond.Contains(fmt.Sprintf("%v", val))
				}
			case "startsWith":
				if strVal, ok := val.(string); ok {
					cond = fieldCond.StartsWith(strVal)
				} else {
					cond = fieldCond.StartsWith(fmt.Sprintf("%v", val))
				}
			case "endsWith":
				if strVal, ok := val.(string); ok {
					cond = fieldCond.EndsWith(strVal)
				} else {
					cond = fieldCond.EndsWith(fmt.Sprintf("%v", val))
				}
			}

			if cond != nil {
				fieldConditions = append(fieldConditions, cond)
			}
		}

		if len(fieldConditions) == 0 {
			return nil
		}
		if len(fieldConditions) == 1 {
			return fieldConditions[0]
		}
		return types.NewAndCondition(fieldConditions...)
	}

	if value == nil {
		return fieldCond.IsNull()
	}
	return fieldCond.Equals(value)
}

// applyOrderBy applies orderBy options to a query
func applyOrderBy(query any, orderBy any) any {
	return applyOrderByToQuery(query, orderBy)
}

func applyOrderByToQuery(query any, orderBy any) any {
	if orderMap, ok := orderBy.(map[string]any); ok {
		for field, direction := range orderMap {
			dir := types.ASC
			if dirStr, ok := direction.(string); ok && dirStr == "desc" {
				dir = types.DESC
			}

			switch q := query.(type) {
			case types.SelectQuery:
				query = q.OrderBy(field, dir)
			case types.ModelQuery:
				query = q.OrderBy(field, dir)
			}
		}
		return query
	}

	if orderArray, ok := orderBy.([]any); ok {
		for _, item := range orderArray {
			if orderMap, ok := item.(map[string]any); ok {
				for field, direction := range orderMap {
					dir := types.ASC
					if dirStr, ok := direction.(string); ok && dirStr == "desc" {
						dir = types.DESC
					}

					switch q := query.(type) {
					case types.SelectQuery:
						query = q.OrderBy(field, dir)
					case types.ModelQuery:
						query = q.OrderBy(field, dir)
					}
				}
			}
		}
		return query
	}

	return query
}

// applyInclude applies include options to a select query
func applyInclude(query any, include any) any {
	selectQuery, ok := query.(types.SelectQuery)
	if !ok {
		return query
	}

	if includeMap, ok := include.(map[string]any); ok {
		for relationName, opts := range includeMap {
			switch opts := opts.(type) {
			case bool:
				if opts {
					selectQuery = selectQuery.Include(relationName)
				}
			case map[string]any:
				includeOpts := parseNestedIncludes(relationName, opts)
				for path, opt := range includeOpts {
					selectQuery = applyIncludeOption(selectQuery, path, opt)
				}
			}
		}
	}
	return selectQuery
}

func applyIncludeOption(query types.SelectQuery, path string, opt *types.IncludeOption) types.SelectQuery {
	return query.IncludeWithOptions(path, opt)
}

// parseNestedIncludes parses nested include options
func parseNestedIncludes(relationName string, options map[string]any) map[string]*types.IncludeOption {
	result := make(map[string]*types.IncludeOption)

	includeOpt := &types.IncludeOption{
		Path: relationName,
	}

	if selectFields, hasSelect := options["select"]; hasSelect {
		if selectMap, ok := selectFields.(map[string]any); ok {
			var fields []string
			for field, included := range selectMap {
				if inc, ok := included.(bool); ok && inc {
					fields = append(fields, field)
				}
			}
			includeOpt.Select = fields
		}
	}

	if whereCondition, hasWhere := options["where"]; hasWhere {
		includeOpt.Where = BuildCondition(whereCondition)
	}

	if orderBy, hasOrderBy := options["orderBy"]; hasOrderBy {
		if orderMap, ok := orderBy.(map[string]any); ok {
			var orders []types.OrderByOption
			for field, direction := range orderMap {
				dir := types.ASC
				if dirStr, ok := direction.(string); ok && strings.ToLower(dirStr) == "desc" {
					dir = types.DESC
				}
				orders = append(orders, types.OrderByOption{
					Field:     field,
					Direction: dir,
				})
			}
			includeOpt.OrderBy = orders
		}
	}

	if limit, hasLimit := options["take"]; hasLimit {
		l := utils.ToInt(limit)
		includeOpt.Limit = &l
	}

	if skip, hasSkip := options["skip"]; hasSkip {
		o := utils.ToInt(skip)
		includeOpt.Offset = &o
	}

	if nestedInclude, hasInclude := options["include"]; hasInclude {
		switch nested := nestedInclude.(type) {
		case map[string]any:
			for nestedRelation, nestedOpts := range nested {
				fullPath := relationName + "." + nestedRelation
				switch opts := nestedOpts.(type) {
				case bool:
					if opts {
						result[fullPath] = &types.IncludeOption{
							Path: fullPath,
						}
					}
				case map[string]any:
					deeperIncludes := parseNestedIncludes(fullPath, opts)
					for k, v := range deeperIncludes {
						result[k] = v
					}
				}
			}
		}
	}

	result[relationName] = includeOpt

	return result
}
