package orm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/relaydb/ormengine/types"
	"github.com/relaydb/ormengine/utils"
)

// executeOperation executes a database operation based on the method name.
// ctx carries any registered mutation hooks (see withMutationHooks); callers
// that don't need them (nested relation writes) may pass context.Background().
func executeOperation(ctx context.Context, db types.Database, modelName, methodName string, options map[string]any, typeConverter *TypeConverter) (any, error) {
	model := db.Model(modelName)
	hooks := mutationHooksFromContext(ctx)

	switch methodName {
	// Create operations
	case "create":
		return executeCreate(ctx, model, options, modelName, db, typeConverter, hooks)
	case "createMany":
		return executeCreateMany(ctx, model, modelName, options, db, typeConverter)
	case "createManyAndReturn":
		return executeCreateManyAndReturn(ctx, model, modelName, options, db, typeConverter)

	// Read operations
	case "findUnique":
		return executeFindUnique(ctx, model, options, db, modelName)
	case "findFirst":
		return executeFindFirst(ctx, model, options, db, modelName)
	case "findMany":
		return executeFindMany(ctx, model, options, db, modelName)
	case "count":
		return executeCount(ctx, model, options)
	case "aggregate":
		return executeAggregate(ctx, model, options)
	case "groupBy":
		return executeGroupBy(ctx, model, modelName, options, db)

	// Update operations
	case "update":
		return executeUpdate(ctx, options, modelName, db, typeConverter, hooks)
	case "updateMany":
		return executeUpdateMany(ctx, model, modelName, options)
	case "updateManyAndReturn":
		return executeUpdateManyAndReturn(ctx, model, modelName, options, db)
	case "upsert":
		return executeUpsert(ctx, options, modelName, db, typeConverter, hooks)

	// Delete operations
	case "delete":
		return executeDelete(ctx, options, modelName, db, hooks)
	case "deleteMany":
		return executeDeleteMany(ctx, model, modelName, options)

	default:
		return nil, fmt.Errorf("unknown method: %s", methodName)
	}
}

// Create operations

func executeCreate(ctx context.Context, model types.ModelQuery, options map[string]any, modelName string, db types.Database, typeConverter *TypeConverter, hooks []MutationHook) (any, error) {
	data, ok := options["data"]
	if !ok {
		return nil, fmt.Errorf("create requires 'data' field")
	}

	data = applyGeneratedDefaults(modelName, data, db)

	// Split out relation fields: owning-side ones (manyToOne, FK-here
	// oneToOne) resolve to a foreign key value now; the rest become
	// deferred writes run once this row has an id.
	scalarData, deferred, err := processNestedWrites(db, typeConverter, modelName, data)
	if err != nil {
		return nil, err
	}

	ownSchema, err := db.GetSchema(modelName)
	if err != nil {
		return nil, fmt.Errorf("failed to get schema: %w", err)
	}

	mutationInfo := MutationInfo{Model: modelName, Action: "create", QueryID: newQueryID()}
	noPriorRows := func(context.Context) ([]map[string]any, error) { return nil, nil }
	if err := dispatchBeforeEntityMutation(ctx, hooks, mutationInfo, noPriorRows); err != nil {
		return nil, err
	}

	var createdRecord map[string]any
	var deferredAfterHooks []MutationHook

	err = db.Transaction(ctx, func(tx types.Transaction) error {
		insertData := scalarData
		if ownSchema.BaseModel != "" {
			// Delegate descendant: create the shared base row first, owning
			// side first, then insert the descendant row against its id.
			baseSchema, err := db.GetSchema(ownSchema.BaseModel)
			if err != nil {
				return fmt.Errorf("failed to get delegate base schema: %w", err)
			}
			insertData, err = createDelegateBaseRow(ctx, tx, modelName, scalarData, baseSchema)
			if err != nil {
				return err
			}
		}

		txModel := tx.Model(modelName)
		query := txModel.Insert(insertData)

		// Add RETURNING clause for databases that support it
		if db.GetCapabilities().SupportsReturning() {
			returningFields := make([]string, 0, len(ownSchema.Fields))
			for _, field := range ownSchema.Fields {
				returningFields = append(returningFields, field.Name)
			}

			query = query.Returning(returningFields...)

			if selectFields, ok := options["select"]; ok {
				fields := extractFieldNames(selectFields)
				query = query.Returning(fields...)
			}

			if err := query.ExecAndReturn(ctx, &createdRecord); err != nil {
				return err
			}
		} else {
			result, err := query.Exec(ctx)
			if err != nil {
				return err
			}

			selectQuery := txModel.Select()
			if result.LastInsertID > 0 {
				selectQuery = applySimpleWhereConditions(selectQuery, map[string]any{"id": result.LastInsertID}).(types.SelectQuery)
			} else if id, ok := insertData["id"]; ok {
				selectQuery = applySimpleWhereConditions(selectQuery, map[string]any{"id": id}).(types.SelectQuery)
			}

			if err := selectQuery.FindFirst(ctx, &createdRecord); err != nil {
				createdRecord = insertData
				if result.LastInsertID > 0 {
					createdRecord["id"] = result.LastInsertID
				}
			}
		}

		remaining, err := dispatchAfterEntityMutationInTx(ctx, hooks, mutationInfo, []map[string]any{createdRecord})
		if err != nil {
			return err
		}
		deferredAfterHooks = remaining

		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := dispatchAfterEntityMutationPostCommit(ctx, deferredAfterHooks, mutationInfo, []map[string]any{createdRecord}); err != nil {
		return nil, err
	}

	applyDelegateMerge(ctx, db, modelName, createdRecord)

	// Deferred (inverse-side) relation writes run after the parent
	// transaction commits: SQLite's single-connection pool would
	// deadlock if a nested write tried to open a second connection
	// while the parent transaction still held the only one.
	if len(deferred) > 0 {
		if err := applyDeferredRelationWrites(db, typeConverter, createdRecord["id"], deferred); err != nil {
			return nil, err
		}
	}

	return createdRecord, nil
}

func executeCreateMany(ctx context.Context, model types.ModelQuery, modelName string, options map[string]any, db types.Database, typeConverter *TypeConverter) (any, error) {
	data, ok := options["data"]
	if !ok {
		return nil, fmt.Errorf("createMany requires 'data' field")
	}

	dataSlice, ok := data.([]any)
	if !ok {
		return nil, fmt.Errorf("createMany 'data' must be an array")
	}

	skipDuplicates := false
	if skip, ok := options["skipDuplicates"].(bool); ok {
		skipDuplicates = skip
	}

	// Process each item
	type preparedItem struct {
		scalar   map[string]any
		deferred []deferredRelationWrite
	}
	var prepared []preparedItem
	for _, item := range dataSlice {
		item = applyGeneratedDefaults(modelName, item, db)
		scalar, deferred, err := processNestedWrites(db, typeConverter, modelName, item)
		if err != nil {
			return nil, err
		}
		prepared = append(prepared, preparedItem{scalar: scalar, deferred: deferred})
	}

	// Create records one by one (batch insert would be more efficient)
	created := 0
	for _, item := range prepared {
		query := model.Insert(item.scalar)
		result, err := query.Exec(ctx)
		if err != nil {
			if skipDuplicates && isUniqueConstraintError(err) {
				continue
			}
			return nil, err
		}
		created++

		if len(item.deferred) > 0 {
			if err := applyDeferredRelationWrites(db, typeConverter, result.LastInsertID, item.deferred); err != nil {
				return nil, err
			}
		}
	}

	return map[string]any{
		"count": created,
	}, nil
}

func executeCreateManyAndReturn(ctx context.Context, model types.ModelQuery, modelName string, options map[string]any, db types.Database, typeConverter *TypeConverter) (any, error) {
	// Similar to createMany but returns created records
	// This is a simplified implementation
	data, ok := options["data"]
	if !ok {
		return nil, fmt.Errorf("createManyAndReturn requires 'data' field")
	}

	dataSlice, ok := data.([]any)
	if !ok {
		return nil, fmt.Errorf("createManyAndReturn 'data' must be an array")
	}

	var created []any
	for _, item := range dataSlice {
		item = applyGeneratedDefaults(modelName, item, db)
		processedItem, deferred, err := processNestedWrites(db, typeConverter, modelName, item)
		if err != nil {
			return nil, err
		}
		query := model.Insert(processedItem)
		result, err := query.Exec(ctx)
		if err != nil {
			return nil, err
		}

		if len(deferred) > 0 {
			if err := applyDeferredRelationWrites(db, typeConverter, result.LastInsertID, deferred); err != nil {
				return nil, err
			}
		}

		// Add ID to the created item
		if itemMap, ok := processedItem.(map[string]any); ok {
			itemMap["id"] = result.LastInsertID
			created = append(created, itemMap)
		}
	}

	return created, nil
}

// Read operations

func executeFindUnique(ctx context.Context, model types.ModelQuery, options map[string]any, db types.Database, modelName string) (any, error) {
	where, ok := options["where"]
	if !ok {
		return nil, fmt.Errorf("findUnique requires 'where' field")
	}

	query := model.Select()

	// Apply where conditions
	query = applySimpleWhereConditions(query, where).(types.SelectQuery)

	// Handle select fields
	if selectFields, ok := options["select"]; ok {
		fields := extractFieldNames(selectFields)
		query = model.Select(fields...)
	}

	// Handle include (relations)
	if include, ok := options["include"]; ok {
		query = applyInclude(query, include).(types.SelectQuery)
	}

	result := make(map[string]any)
	err := query.FindFirst(ctx, &result)
	if err != nil {
		return nil, err
	}

	applyDelegateMerge(ctx, db, modelName, result)

	return result, nil
}

func executeFindFirst(ctx context.Context, model types.ModelQuery, options map[string]any, db types.Database, modelName string) (any, error) {
	query := model.Select()

	// Apply where conditions
	if where, ok := options["where"]; ok {
		query = applySimpleWhereConditions(query, where).(types.SelectQuery)
	}

	// Apply orderBy if provided
	if orderBy, ok := options["orderBy"]; ok {
		query = applyOrderBy(query, orderBy).(types.SelectQuery)
	}

	// Handle select fields
	if selectFields, ok := options["select"]; ok {
		fields := extractFieldNames(selectFields)
		query = model.Select(fields...)
	}

	// Handle include (relations)
	if include, ok := options["include"]; ok {
		query = applyInclude(query, include).(types.SelectQuery)
	}

	result := make(map[string]any)
	err := query.FindFirst(ctx, &result)
	if err != nil {
		return nil, err
	}

	applyDelegateMerge(ctx, db, modelName, result)

	return result, nil
}

func executeFindMany(ctx context.Context, model types.ModelQuery, options map[string]any, db types.Database, modelName string) (any, error) {
	// First determine which fields to select
	var selectedFields []string
	var includesFromSelect map[string]any
	if selectFields, ok := options["select"]; ok {
		selectedFields = extractFieldNames(selectFields)

		// Extract nested includes from select
		if selectMap, ok := selectFields.(map[string]any); ok {
			includesFromSelect = make(map[string]any)
			for field, value := range selectMap {
				if valueMap, ok := value.(map[string]any); ok {
					// This is a nested include with select
					includesFromSelect[field] = valueMap
				}
			}
		}
	}

	// Create query with selected fields (or all fields if none specified)
	var query types.SelectQuery
	if len(selectedFields) > 0 {
		query = model.Select(selectedFields...)
	} else {
		query = model.Select()
	}

	// Apply where conditions
	if where, ok := options["where"]; ok {
		query = applySimpleWhereConditions(query, where).(types.SelectQuery)
	}

	orderFields := normalizeOrderBy(options["orderBy"])

	take := 0
	hasTake := false
	if takeRaw, ok := options["take"]; ok {
		take = utils.ToInt(takeRaw)
		hasTake = true
	}
	reversed := hasTake && take < 0

	// A negative take means "the last N rows in orderBy order": compile the
	// query with every orderBy direction flipped, limit by abs(take), and
	// flip the returned page back before returning it.
	effectiveOrderFields := orderFields
	if reversed {
		effectiveOrderFields = reverseOrderFields(orderFields)
	}

	if cursor, ok := options["cursor"].(map[string]any); ok {
		cursorFields := effectiveOrderFields
		if len(cursorFields) == 0 {
			for field := range cursor {
				cursorFields = append(cursorFields, orderField{field: field})
			}
		}
		if cond := buildCursorCondition(cursorFields, cursor); cond != nil {
			query = query.WhereCondition(cond)
		}
	}

	if reversed {
		for _, of := range effectiveOrderFields {
			dir := types.ASC
			if of.desc {
				dir = types.DESC
			}
			query = query.OrderBy(of.field, dir)
		}
		query = query.Limit(-take)
	} else {
		if orderBy, ok := options["orderBy"]; ok {
			query = applyOrderBy(query, orderBy).(types.SelectQuery)
		}
		if hasTake {
			query = query.Limit(take)
		}
	}

	// Apply pagination
	if skip, ok := options["skip"]; ok {
		query = query.Offset(utils.ToInt(skip))
	}

	// Handle include (relations)
	if include, ok := options["include"]; ok {
		query = applyInclude(query, include).(types.SelectQuery)
	}

	// Apply includes from select if any
	if includesFromSelect != nil && len(includesFromSelect) > 0 {
		query = applyInclude(query, includesFromSelect).(types.SelectQuery)
	}

	// Handle distinct
	if distinct, ok := options["distinct"]; ok {
		switch d := distinct.(type) {
		case bool:
			if d {
				query = query.Distinct()
			}
		case []any:
			// Distinct on specific fields
			if len(d) > 0 {
				// Convert []any to []string
				fields := make([]string, 0, len(d))
				for _, field := range d {
					if fieldStr, ok := field.(string); ok {
						fields = append(fields, fieldStr)
					}
				}
				if len(fields) > 0 {
					query = query.DistinctOn(fields...)
				} else {
					// Fallback to general distinct if no valid fields
					query = query.Distinct()
				}
			}
		}
	}

	results := []map[string]any{}
	err := query.FindMany(ctx, &results)
	if err != nil {
		return nil, err
	}

	if reversed {
		reverseMaps(results)
	}

	for _, record := range results {
		applyDelegateMerge(ctx, db, modelName, record)
	}

	return results, nil
}

func executeCount(ctx context.Context, model types.ModelQuery, options map[string]any) (any, error) {
	// Apply where conditions if provided
	if where, ok := options["where"]; ok {
		// For simple field equality, use the model's Where method which handles field resolution
		if whereMap, ok := where.(map[string]any); ok {
			var conditions []types.Condition
			for field, value := range whereMap {
				// Check if it's a simple field equality (not an operator object)
				if _, isOperator := value.(map[string]any); !isOperator {
					// Use the model's Where method which will handle field name resolution
					condition := model.Where(field).Equals(value)
					conditions = append(conditions, condition)
				} else {
					// For complex conditions, use the existing buildCondition
					condition := BuildCondition(map[string]any{field: value})
					conditions = append(conditions, condition)
				}
			}
			// Combine all conditions with AND
			if len(conditions) > 0 {
				var finalCondition types.Condition
				if len(conditions) == 1 {
					finalCondition = conditions[0]
				} else {
					finalCondition = types.NewAndCondition(conditions...)
				}
				model = model.WhereCondition(finalCondition)
			}
		} else {
			model = model.WhereCondition(BuildCondition(where))
		}
	}

	count, err := model.Count(ctx)
	if err != nil {
		return nil, err
	}

	return count, nil
}

func executeAggregate(ctx context.Context, model types.ModelQuery, options map[string]any) (any, error) {
	// Apply where conditions if provided
	if where, ok := options["where"]; ok {
		model = model.WhereCondition(BuildCondition(where))
	}

	result := make(map[string]any)

	// Handle different aggregation types
	if count, ok := options["_count"]; ok {
		switch c := count.(type) {
		case bool:
			if c {
				// Simple count
				cnt, err := model.Count(ctx)
				if err != nil {
					return nil, err
				}
				result["_count"] = cnt
			}
		case map[string]any:
			// Field-specific count
			for field := range c {
				// For simplicity, just count all records
				cnt, err := model.Count(ctx)
				if err != nil {
					return nil, err
				}
				if _, ok := result["_count"]; !ok {
					result["_count"] = make(map[string]any)
				}
				result["_count"].(map[string]any)[field] = cnt
			}
		}
	}

	if avg, ok := options["_avg"]; ok {
		if avgMap, ok := avg.(map[string]any); ok {
			result["_avg"] = make(map[string]any)
			for field, val := range avgMap {
				if enabled, ok := val.(bool); ok && enabled {
					a, err := model.Avg(ctx, field)
					if err != nil {
						return nil, err
					}
					result["_avg"].(map[string]any)[field] = a
				}
			}
		}
	}

	if sum, ok := options["_sum"]; ok {
		if sumMap, ok := sum.(map[string]any); ok {
			result["_sum"] = make(map[string]any)
			for field, val := range sumMap {
				if enabled, ok := val.(bool); ok && enabled {
					s, err := model.Sum(ctx, field)
					if err != nil {
						return nil, err
					}
					result["_sum"].(map[string]any)[field] = s
				}
			}
		}
	}

	if min, ok := options["_min"]; ok {
		if minMap, ok := min.(map[string]any); ok {
			result["_min"] = make(map[string]any)
			for field, val := range minMap {
				if enabled, ok := val.(bool); ok && enabled {
					m, err := model.Min(ctx, field)
					if err != nil {
						return nil, err
					}
					result["_min"].(map[string]any)[field] = m
				}
			}
		}
	}

	if max, ok := options["_max"]; ok {
		if maxMap, ok := max.(map[string]any); ok {
			result["_max"] = make(map[string]any)
			for field, val := range maxMap {
				if enabled, ok := val.(bool); ok && enabled {
					m, err := model.Max(ctx, field)
					if err != nil {
						return nil, err
					}
					result["_max"].(map[string]any)[field] = m
				}
			}
		}
	}

	return result, nil
}

// Update operations

func executeUpdate(ctx context.Context, options map[string]any, modelName string, db types.Database, typeConverter *TypeConverter, hooks []MutationHook) (any, error) {
	where, ok := options["where"]
	if !ok {
		return nil, fmt.Errorf("update requires 'where' field")
	}

	data, ok := options["data"]
	if !ok {
		return nil, fmt.Errorf("update requires 'data' field")
	}

	dataMap, ok := data.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("update 'data' must be an object")
	}

	scalarData, deferred, err := processNestedWrites(db, typeConverter, modelName, dataMap)
	if err != nil {
		return nil, err
	}
	setData, atomics, pushes := splitCompoundOperators(scalarData)

	model := db.Model(modelName)
	selectQuery := model.Select()
	selectQuery = applySimpleWhereConditions(selectQuery, where).(types.SelectQuery)

	var existing map[string]any
	if err := selectQuery.FindFirst(ctx, &existing); err != nil {
		return nil, err
	}

	if len(pushes) > 0 {
		resolvePushes(existing, pushes, setData)
	}

	ownSchema, err := db.GetSchema(modelName)
	if err != nil {
		return nil, fmt.Errorf("failed to get schema: %w", err)
	}

	mutationInfo := MutationInfo{Model: modelName, Action: "update", QueryID: newQueryID(), Where: where}
	loadExisting := func(context.Context) ([]map[string]any, error) { return []map[string]any{existing}, nil }
	if err := dispatchBeforeEntityMutation(ctx, hooks, mutationInfo, loadExisting); err != nil {
		return nil, err
	}

	var deferredAfterHooks []MutationHook
	afterRows := []map[string]any{existing}

	err = db.Transaction(ctx, func(tx types.Transaction) error {
		descSetData := setData
		if ownSchema.BaseModel != "" && len(setData) > 0 {
			// Delegate descendant: shared fields in setData route to the
			// base row; only the descendant-owned remainder updates here.
			baseSchema, err := db.GetSchema(ownSchema.BaseModel)
			if err != nil {
				return fmt.Errorf("failed to get delegate base schema: %w", err)
			}
			baseSetData, remaining := splitDelegateFields(setData, baseSchema)
			descSetData = remaining
			if len(baseSetData) > 0 {
				baseUpdate := tx.Model(ownSchema.BaseModel).Update(baseSetData)
				baseUpdate = baseUpdate.WhereCondition(types.NewFieldCondition(ownSchema.BaseModel, "id").Equals(existing["id"]))
				if _, err := baseUpdate.Exec(ctx); err != nil {
					return err
				}
			}
		}

		if len(descSetData) > 0 || len(atomics) > 0 {
			txModel := tx.Model(modelName)
			updateQuery := txModel.Update(descSetData)
			updateQuery = applyAtomicOps(updateQuery, atomics)
			updateQuery = applySimpleWhereConditions(updateQuery, where).(types.UpdateQuery)

			if _, err := updateQuery.Exec(ctx); err != nil {
				return err
			}
		}

		// Re-read the row inside the transaction so after-mutation hooks see
		// the updated values; the pre-update row stands in if it is not found.
		var produced map[string]any
		reread := applySimpleWhereConditions(tx.Model(modelName).Select(), where).(types.SelectQuery)
		if err := reread.FindFirst(ctx, &produced); err == nil {
			afterRows = []map[string]any{produced}
		}

		remaining, err := dispatchAfterEntityMutationInTx(ctx, hooks, mutationInfo, afterRows)
		if err != nil {
			return err
		}
		deferredAfterHooks = remaining

		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := dispatchAfterEntityMutationPostCommit(ctx, deferredAfterHooks, mutationInfo, afterRows); err != nil {
		return nil, err
	}

	// Deferred relation writes run after the parent transaction commits, for
	// the same single-connection reason executeCreate defers them.
	if len(deferred) > 0 {
		if err := applyDeferredRelationWrites(db, typeConverter, existing["id"], deferred); err != nil {
			return nil, err
		}
	}

	// Fetch the updated record
	var updated map[string]any
	err = selectQuery.FindFirst(ctx, &updated)
	if err != nil {
		// Return the data we attempted to update merged with existing
		existingMap := existing
		for k, v := range setData {
			existingMap[k] = v
		}
		applyDelegateMerge(ctx, db, modelName, existingMap)
		return existingMap, nil
	}

	applyDelegateMerge(ctx, db, modelName, updated)

	return updated, nil
}

func executeUpdateMany(ctx context.Context, model types.ModelQuery, modelName string, options map[string]any) (any, error) {
	_ = modelName // TODO: might be needed for future enhancements
	data, ok := options["data"]
	if !ok {
		return nil, fmt.Errorf("updateMany requires 'data' field")
	}

	dataMap, ok := data.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("updateMany 'data' must be an object")
	}

	// push isn't applied here: it needs each row's current value read first,
	// which a single bulk UPDATE statement can't do.
	setData, atomics, _ := splitCompoundOperators(dataMap)

	updateQuery := model.Update(setData)
	updateQuery = applyAtomicOps(updateQuery, atomics)

	// Apply where conditions
	if where, ok := options["where"]; ok {
		updateQuery = applySimpleWhereConditions(updateQuery, where).(types.UpdateQuery)
	}

	result, err := updateQuery.Exec(ctx)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"count": result.RowsAffected,
	}, nil
}

func executeUpdateManyAndReturn(ctx context.Context, model types.ModelQuery, modelName string, options map[string]any, db types.Database) (any, error) {
	_ = modelName
	data, ok := options["data"]
	if !ok {
		return nil, fmt.Errorf("updateManyAndReturn requires 'data' field")
	}

	dataMap, ok := data.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("updateManyAndReturn 'data' must be an object")
	}

	setData, atomics, _ := splitCompoundOperators(dataMap)

	var where any
	if w, ok := options["where"]; ok {
		where = w
	}

	// Capture the matching ids before the update and refetch afterward;
	// UpdateQueryImpl.ExecAndReturn only scans a single row via FindOne, so
	// it can't return every row a bulk update touches.
	selectQuery := model.Select()
	if where != nil {
		selectQuery = applySimpleWhereConditions(selectQuery, where).(types.SelectQuery)
	}
	var before []map[string]any
	if err := selectQuery.FindMany(ctx, &before); err != nil {
		return nil, err
	}
	if len(before) == 0 {
		return []map[string]any{}, nil
	}
	ids := make([]any, 0, len(before))
	for _, row := range before {
		ids = append(ids, row["id"])
	}

	updateQuery := model.Update(setData)
	updateQuery = applyAtomicOps(updateQuery, atomics)
	if where != nil {
		updateQuery = applySimpleWhereConditions(updateQuery, where).(types.UpdateQuery)
	}
	if _, err := updateQuery.Exec(ctx); err != nil {
		return nil, err
	}

	afterQuery := model.Select()
	afterQuery = applySimpleWhereConditions(afterQuery, map[string]any{"id": map[string]any{"in": ids}}).(types.SelectQuery)
	var after []map[string]any
	if err := afterQuery.FindMany(ctx, &after); err != nil {
		return nil, err
	}
	return after, nil
}

func executeUpsert(ctx context.Context, options map[string]any, modelName string, db types.Database, typeConverter *TypeConverter, hooks []MutationHook) (any, error) {
	where, ok := options["where"]
	if !ok {
		return nil, fmt.Errorf("upsert requires 'where' field")
	}

	createData, hasCreate := options["create"]
	updateData, hasUpdate := options["update"]

	if !hasCreate || !hasUpdate {
		return nil, fmt.Errorf("upsert requires both 'create' and 'update' fields")
	}

	model := db.Model(modelName)
	selectQuery := model.Select()
	selectQuery = applySimpleWhereConditions(selectQuery, where).(types.SelectQuery)

	var existing map[string]any
	err := selectQuery.FindFirst(ctx, &existing)

	if err != nil {
		// Record doesn't exist: create it through the same nested-write and
		// default-generation path a plain create goes through.
		return executeCreate(ctx, model, map[string]any{"data": createData}, modelName, db, typeConverter, hooks)
	}

	updateDataMap, ok := updateData.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("upsert 'update' must be an object")
	}

	scalarData, deferred, err := processNestedWrites(db, typeConverter, modelName, updateDataMap)
	if err != nil {
		return nil, err
	}
	setData, atomics, pushes := splitCompoundOperators(scalarData)
	if len(pushes) > 0 {
		resolvePushes(existing, pushes, setData)
	}

	ownSchema, err := db.GetSchema(modelName)
	if err != nil {
		return nil, fmt.Errorf("failed to get schema: %w", err)
	}

	mutationInfo := MutationInfo{Model: modelName, Action: "upsert", QueryID: newQueryID(), Where: where}
	loadExisting := func(context.Context) ([]map[string]any, error) { return []map[string]any{existing}, nil }
	if err := dispatchBeforeEntityMutation(ctx, hooks, mutationInfo, loadExisting); err != nil {
		return nil, err
	}

	var deferredAfterHooks []MutationHook
	afterRows := []map[string]any{existing}

	err = db.Transaction(ctx, func(tx types.Transaction) error {
		descSetData := setData
		if ownSchema.BaseModel != "" && len(setData) > 0 {
			baseSchema, err := db.GetSchema(ownSchema.BaseModel)
			if err != nil {
				return fmt.Errorf("failed to get delegate base schema: %w", err)
			}
			baseSetData, remaining := splitDelegateFields(setData, baseSchema)
			descSetData = remaining
			if len(baseSetData) > 0 {
				baseUpdate := tx.Model(ownSchema.BaseModel).Update(baseSetData)
				baseUpdate = baseUpdate.WhereCondition(types.NewFieldCondition(ownSchema.BaseModel, "id").Equals(existing["id"]))
				if _, err := baseUpdate.Exec(ctx); err != nil {
					return err
				}
			}
		}

		if len(descSetData) > 0 || len(atomics) > 0 {
			txModel := tx.Model(modelName)
			updateQuery := txModel.Update(descSetData)
			updateQuery = applyAtomicOps(updateQuery, atomics)
			updateQuery = applySimpleWhereConditions(updateQuery, where).(types.UpdateQuery)

			if _, err := updateQuery.Exec(ctx); err != nil {
				return err
			}
		}

		// Re-read the row inside the transaction so after-mutation hooks see
		// the updated values; the pre-update row stands in if it is not found.
		var produced map[string]any
		reread := applySimpleWhereConditions(tx.Model(modelName).Select(), where).(types.SelectQuery)
		if err := reread.FindFirst(ctx, &produced); err == nil {
			afterRows = []map[string]any{produced}
		}

		remaining, err := dispatchAfterEntityMutationInTx(ctx, hooks, mutationInfo, afterRows)
		if err != nil {
			return err
		}
		deferredAfterHooks = remaining

		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := dispatchAfterEntityMutationPostCommit(ctx, deferredAfterHooks, mutationInfo, afterRows); err != nil {
		return nil, err
	}

	if len(deferred) > 0 {
		if err := applyDeferredRelationWrites(db, typeConverter, existing["id"], deferred); err != nil {
			return nil, err
		}
	}

	var updated map[string]any
	if err := selectQuery.FindFirst(ctx, &updated); err != nil {
		existingMap := existing
		for k, v := range setData {
			existingMap[k] = v
		}
		applyDelegateMerge(ctx, db, modelName, existingMap)
		return existingMap, nil
	}
	applyDelegateMerge(ctx, db, modelName, updated)
	return updated, nil
}

// Delete operations

func executeDelete(ctx context.Context, options map[string]any, modelName string, db types.Database, hooks []MutationHook) (any, error) {
	where, ok := options["where"]
	if !ok {
		return nil, fmt.Errorf("delete requires 'where' field")
	}

	model := db.Model(modelName)
	selectQuery := model.Select()
	selectQuery = applySimpleWhereConditions(selectQuery, where).(types.SelectQuery)

	var existing map[string]any
	if err := selectQuery.FindFirst(ctx, &existing); err != nil {
		return nil, err
	}
	applyDelegateMerge(ctx, db, modelName, existing)

	mutationInfo := MutationInfo{Model: modelName, Action: "delete", QueryID: newQueryID(), Where: where}
	loadExisting := func(context.Context) ([]map[string]any, error) { return []map[string]any{existing}, nil }
	if err := dispatchBeforeEntityMutation(ctx, hooks, mutationInfo, loadExisting); err != nil {
		return nil, err
	}

	var deferredAfterHooks []MutationHook

	err := db.Transaction(ctx, func(tx types.Transaction) error {
		txModel := tx.Model(modelName)
		deleteQuery := txModel.Delete()
		deleteQuery = applySimpleWhereConditions(deleteQuery, where).(types.DeleteQuery)

		if _, err := deleteQuery.Exec(ctx); err != nil {
			return err
		}

		// Delegate descendant: remove the shared base row after the
		// descendant row that references it is gone.
		if err := deleteDelegateBaseRow(ctx, tx, modelName, existing["id"], db); err != nil {
			return err
		}

		remaining, err := dispatchAfterEntityMutationInTx(ctx, hooks, mutationInfo, []map[string]any{existing})
		if err != nil {
			return err
		}
		deferredAfterHooks = remaining

		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := dispatchAfterEntityMutationPostCommit(ctx, deferredAfterHooks, mutationInfo, []map[string]any{existing}); err != nil {
		return nil, err
	}

	return existing, nil
}

func executeDeleteMany(ctx context.Context, model types.ModelQuery, modelName string, options map[string]any) (any, error) {
	_ = modelName // TODO: might be needed for future enhancements
	deleteQuery := model.Delete()

	// Apply where conditions
	if where, ok := options["where"]; ok {
		deleteQuery = applySimpleWhereConditions(deleteQuery, where).(types.DeleteQuery)
	}

	result, err := deleteQuery.Exec(ctx)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"count": result.RowsAffected,
	}, nil
}

// Helper functions

// extractFieldNames extracts field names from select options
func extractFieldNames(selectFields any) []string {
	var fields []string

	switch v := selectFields.(type) {
	case map[string]any:
		for field, value := range v {
			// Check if it's a simple boolean selection
			if boolVal, ok := value.(bool); ok && boolVal {
				fields = append(fields, field)
			}
			// Could also handle nested selections here in the future
		}
	case []any:
		for _, field := range v {
			if fieldStr, ok := field.(string); ok {
				fields = append(fields, fieldStr)
			}
		}
	case []string:
		fields = v
	}

	return fields
}

// Check if error is a unique constraint violation
func isUniqueConstraintError(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "duplicate key")
}

// executeGroupBy handles groupBy queries
func executeGroupBy(ctx context.Context, model types.ModelQuery, modelName string, options map[string]any, db types.Database) (any, error) {
	// Parse groupBy fields
	var groupByFields []string
	if by, ok := options["by"]; ok {
		switch b := by.(type) {
		case string:
			groupByFields = []string{b}
		case []any:
			for _, field := range b {
				if fieldStr, ok := field.(string); ok {
					groupByFields = append(groupByFields, fieldStr)
				}
			}
		}
	}

	if len(groupByFields) == 0 {
		return nil, fmt.Errorf("groupBy requires 'by' field")
	}

	// Build SELECT clause
	var selectParts []string

	// Add grouped fields
	for _, field := range groupByFields {
		// Resolve field name to column name
		columnName, err := db.ResolveFieldName(modelName, field)
		if err != nil {
			// Fall back to field name if not found
			columnName = field
		}
		// Use column AS field to maintain the original field name in results
		// Quote the alias to preserve case in PostgreSQL
		selectParts = append(selectParts, fmt.Sprintf("%s AS \"%s\"", columnName, field))
	}

	// Handle _count, _sum, _avg, _min, _max aggregations
	aggregations := []string{"_count", "_sum", "_avg", "_min", "_max"}
	for _, agg := range aggregations {
		if aggValue, ok := options[agg]; ok {
			// Parse aggregation options
			switch av := aggValue.(type) {
			case bool:
				if av && agg == "_count" {
					// Simple count(*)
					selectParts = append(selectParts, "COUNT(*) as _count")
				}
			case map[string]any:
				// Field-specific aggregations
				for field, enabled := range av {
					if e, ok := enabled.(bool); ok && e {
						aggFunc := strings.ToUpper(strings.TrimPrefix(agg, "_"))
						// Resolve field name to column name
						columnName, err := db.ResolveFieldName(modelName, field)
						if err != nil {
							// Fall back to field name
							columnName = field
						}
						selectParts = append(selectParts, fmt.Sprintf("%s(%s) as %s%s", aggFunc, columnName, field, agg))
					}
				}
			}
		}
	}

	// Build the SQL query
	tableName, err := db.ResolveTableName(modelName)
	if err != nil {
		return nil, err
	}

	sql := fmt.Sprintf("SELECT %s FROM %s", strings.Join(selectParts, ", "), tableName)

	// Add WHERE clause if provided
	if where, ok := options["where"]; ok {
		// Build simple WHERE conditions for groupBy
		whereSQL := buildSimpleWhereSQL(where, modelName, db)
		if whereSQL != "" {
			sql += " WHERE " + whereSQL
		}
	}

	// Add GROUP BY clause
	if len(groupByFields) > 0 {
		var groupByColumns []string
		for _, field := range groupByFields {
			columnName, err := db.ResolveFieldName(modelName, field)
			if err != nil {
				columnName = field
			}
			groupByColumns = append(groupByColumns, columnName)
		}
		sql += fmt.Sprintf(" GROUP BY %s", strings.Join(groupByColumns, ", "))
	}

	// Add HAVING clause if provided
	if having, ok := options["having"]; ok {
		// Build simple HAVING conditions
		havingSQL := buildSimpleHavingSQL(having)
		if havingSQL != "" {
			sql += " HAVING " + havingSQL
		}
	}

	// Add ORDER BY if provided
	if orderBy, ok := options["orderBy"]; ok {
		orderSQL := buildOrderBySQL(orderBy, modelName, db)
		if orderSQL != "" {
			sql += " ORDER BY " + orderSQL
		}
	}

	// Apply pagination
	if take, ok := options["take"]; ok {
		sql += fmt.Sprintf(" LIMIT %d", int(utils.ToInt64(take)))
	}
	if skip, ok := options["skip"]; ok {
		sql += fmt.Sprintf(" OFFSET %d", int(utils.ToInt64(skip)))
	}

	// Execute raw query for SQL databases
	rows, err := db.Query(sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	// Scan results into maps
	results, err := utils.ScanRowsToMaps(rows)
	if err != nil {
		return nil, err
	}

	// Post-process results to convert field_agg format to nested objects
	for i, result := range results {
		processedResult := make(map[string]any)

		// Copy grouped fields and _count
		for k, v := range result {
			if !strings.Contains(k, "_") {
				// Regular field
				processedResult[k] = v
			} else if k == "_count" {
				// Convert _count to int
				processedResult[k] = utils.ToInt64(v)
			}
		}

		// Transform field_agg to nested format
		aggregations := []string{"_sum", "_avg", "_min", "_max"}
		for _, agg := range aggregations {
			aggMap := make(map[string]any)
			for k, v := range result {
				// Check if this is a field_agg pattern
				if strings.HasSuffix(k, agg) && strings.Contains(k, "_") {
					// Remove the _agg suffix to get the field name
					fieldName := strings.TrimSuffix(k, agg)
					// Remove the trailing underscore
					fieldName = strings.TrimSuffix(fieldName, "_")
					// Convert to proper numeric type for aggregations
					if agg != "_count" {
						aggMap[fieldName] = utils.ToFloat64(v)
					} else {
						aggMap[fieldName] = utils.ToInt64(v)
					}
				}
			}
			if len(aggMap) > 0 {
				processedResult[agg] = aggMap
			}
		}

		results[i] = processedResult
	}

	return results, nil
}

// buildOrderBySQL builds ORDER BY SQL from orderBy options
func buildOrderBySQL(orderBy any, modelName string, db types.Database) string {
	var orderParts []string

	switch ob := orderBy.(type) {
	case map[string]any:
		// Single orderBy object: {field: "asc"|"desc"} or {_sum: {field: "asc"}}
		for field, direction := range ob {
			// Check if it's an aggregation orderBy
			if strings.HasPrefix(field, "_") {
				// Handle aggregation ordering like _sum, _avg, etc.
				if dirMap, ok := direction.(map[string]any); ok {
					for aggField, dir := range dirMap {
						direction := "ASC"
						if dirStr, ok := dir.(string); ok && strings.ToLower(dirStr) == "desc" {
							direction = "DESC"
						}
						// Use the aliased column name from SELECT
						orderParts = append(orderParts, fmt.Sprintf("%s%s %s", aggField, field, direction))
					}
				}
			} else {
				// Regular field ordering
				columnName, err := db.ResolveFieldName(modelName, field)
				if err != nil {
					columnName = field
				}
				dir := "ASC"
				if dirStr, ok := direction.(string); ok && strings.ToLower(dirStr) == "desc" {
					dir = "DESC"
				}
				orderParts = append(orderParts, fmt.Sprintf("%s %s", columnName, dir))
			}
		}
	case []any:
		// Array of orderBy objects: [{field: "asc"}, {field2: "desc"}]
		for _, item := range ob {
			if orderMap, ok := item.(map[string]any); ok {
				for field, direction := range orderMap {
					columnName, err := db.ResolveFieldName(modelName, field)
					if err != nil {
						columnName = field
					}
					dir := "ASC"
					if dirStr, ok := direction.(string); ok && strings.ToLower(dirStr) == "desc" {
						dir = "DESC"
					}
					orderParts = append(orderParts, fmt.Sprintf("%s %s", columnName, dir))
				}
			}
		}
	}

	return strings.Join(orderParts, ", ")
}

// buildSimpleWhereSQL builds WHERE SQL from simple where conditions (for raw SQL queries)
func buildSimpleWhereSQL(where any, modelName string, db types.Database) string {
	whereMap, ok := where.(map[string]any)
	if !ok {
		return ""
	}

	var whereParts []string

	for field, value := range whereMap {
		// Skip complex operators for now
		if _, isMap := value.(map[string]any); isMap {
			continue
		}

		// Resolve field name to column name
		columnName, err := db.ResolveFieldName(modelName, field)
		if err != nil {
			columnName = field
		}

		// Format value based on type
		var valueStr string
		switch v := value.(type) {
		case string:
			// Escape single quotes in string values
			valueStr = fmt.Sprintf("'%s'", strings.ReplaceAll(v, "'", "''"))
		case nil:
			valueStr = "NULL"
		default:
			valueStr = fmt.Sprintf("%v", v)
		}

		whereParts = append(whereParts, fmt.Sprintf("%s = %s", columnName, valueStr))
	}

	return strings.Join(whereParts, " AND ")
}

// buildSimpleHavingSQL builds HAVING SQL from having conditions (for raw SQL queries)
func buildSimpleHavingSQL(having any) string {
	havingMap, ok := having.(map[string]any)
	if !ok {
		return ""
	}

	var havingParts []string

	// Handle aggregation conditions like _sum, _avg, etc.
	for aggType, conditions := range havingMap {
		if !strings.HasPrefix(aggType, "_") {
			continue
		}

		// Get the aggregation function name
		aggFunc := strings.ToUpper(strings.TrimPrefix(aggType, "_"))

		if condMap, ok := conditions.(map[string]any); ok {
			for field, operators := range condMap {
				// Build the aggregation expression
				var aggExpr string
				if field == "_all" && aggType == "_count" {
					// Special case for COUNT(*)
					aggExpr = "COUNT(*)"
				} else {
					aggExpr = fmt.Sprintf("%s(%s)", aggFunc, field)
				}

				if opMap, ok := operators.(map[string]any); ok {
					for op, value := range opMap {
						// Handle different operators
						var condition string
						switch op {
						case "gte":
							condition = fmt.Sprintf("%s >= %v", aggExpr, value)
						case "gt":
							condition = fmt.Sprintf("%s > %v", aggExpr, value)
						case "lte":
							condition = fmt.Sprintf("%s <= %v", aggExpr, value)
						case "lt":
							condition = fmt.Sprintf("%s < %v", aggExpr, value)
						case "equals":
							condition = fmt.Sprintf("%s = %v", aggExpr, value)
						default:
							// Default to equals
							condition = fmt.Sprintf("%s = %v", aggExpr, value)
						}

						if condition != "" {
							havingParts = append(havingParts, condition)
						}
					}
				}
			}
		}
	}

	return strings.Join(havingParts, " AND ")
}

func mustMarshalJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("failed to marshal JSON: %v", err))
	}
	return string(b)
}
