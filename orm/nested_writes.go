package orm

import (
	"context"
	"fmt"

	"github.com/relaydb/ormengine/schema"
	"github.com/relaydb/ormengine/types"
)

// deferredRelationWrite is a nested write on a has-many/many-to-many/inverse
// one-to-one relation that can only run once the parent row has an id.
type deferredRelationWrite struct {
	fieldName string
	relation  schema.Relation
	payload   map[string]any
}

// processNestedWrites splits a create/update payload into plain scalar
// fields and relation operations. Relation fields where this model owns the
// foreign key (manyToOne, and oneToOne where the FK column lives here) are
// resolved immediately and folded into the returned scalar map, since the FK
// value has to be known before the row itself is written. Relation fields on
// the other side (oneToMany, manyToMany, inverse oneToOne) come back as
// deferred writes to run once the parent id is known.
func processNestedWrites(db types.Database, typeConverter *TypeConverter, modelName string, data any) (map[string]any, []deferredRelationWrite, error) {
	dataMap, ok := data.(map[string]any)
	if !ok {
		return map[string]any{}, nil, nil
	}

	modelSchema, err := db.GetSchema(modelName)
	if err != nil {
		// No schema found; treat the payload as scalar rather than fail the write.
		return dataMap, nil, nil
	}

	scalarData := make(map[string]any)
	var deferred []deferredRelationWrite

	for fieldName, fieldValue := range dataMap {
		relation, isRelation := modelSchema.Relations[fieldName]
		if !isRelation {
			scalarData[fieldName] = fieldValue
			continue
		}

		payload, ok := fieldValue.(map[string]any)
		if !ok {
			continue
		}

		if relationOwnsForeignKeyHere(relation, modelSchema) {
			fkValue, err := resolveOwningSideWrite(db, typeConverter, relation, payload)
			if err != nil {
				return nil, nil, fmt.Errorf("nested write on %s: %w", fieldName, err)
			}
			scalarData[relation.ForeignKey] = fkValue
			continue
		}

		deferred = append(deferred, deferredRelationWrite{fieldName: fieldName, relation: relation, payload: payload})
	}

	return scalarData, deferred, nil
}

// relationOwnsForeignKeyHere reports whether modelSchema itself carries the
// foreign key column for relation (manyToOne always does; oneToOne does only
// when its foreign key names a field on this model rather than the related one).
func relationOwnsForeignKeyHere(relation schema.Relation, modelSchema *schema.Schema) bool {
	switch relation.Type {
	case schema.RelationManyToOne:
		return true
	case schema.RelationOneToOne:
		_, err := modelSchema.GetField(relation.ForeignKey)
		return err == nil
	default:
		return false
	}
}

// resolveOwningSideWrite resolves a nested create/connect/connectOrCreate/
// disconnect payload on a relation this model owns the foreign key for,
// returning the value to store in that foreign key column.
func resolveOwningSideWrite(db types.Database, typeConverter *TypeConverter, relation schema.Relation, payload map[string]any) (any, error) {
	references := relation.References
	if references == "" {
		references = "id"
	}

	if createPayload, ok := payload["create"]; ok {
		created, err := executeOperation(context.Background(), db, relation.Model, "create", map[string]any{"data": createPayload}, typeConverter)
		if err != nil {
			return nil, err
		}
		record, ok := created.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("nested create of %s did not return a record", relation.Model)
		}
		return record[references], nil
	}

	if where, ok := payload["connect"]; ok {
		record, err := findRelatedRecord(db, typeConverter, relation.Model, where)
		if err != nil {
			return nil, fmt.Errorf("connect: no matching %s record: %w", relation.Model, err)
		}
		return record[references], nil
	}

	if connectOrCreate, ok := payload["connectOrCreate"].(map[string]any); ok {
		if where, ok := connectOrCreate["where"]; ok {
			if record, err := findRelatedRecord(db, typeConverter, relation.Model, where); err == nil {
				return record[references], nil
			}
		}
		created, err := executeOperation(context.Background(), db, relation.Model, "create", map[string]any{"data": connectOrCreate["create"]}, typeConverter)
		if err != nil {
			return nil, err
		}
		record, ok := created.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("nested connectOrCreate of %s did not return a record", relation.Model)
		}
		return record[references], nil
	}

	if _, ok := payload["disconnect"]; ok {
		return nil, nil
	}

	return nil, nil
}

// findRelatedRecord looks up a single record on the related model by a
// where clause, used to resolve "connect"-style nested writes.
func findRelatedRecord(db types.Database, typeConverter *TypeConverter, modelName string, where any) (map[string]any, error) {
	result, err := executeOperation(context.Background(), db, modelName, "findFirst", map[string]any{"where": where}, typeConverter)
	if err != nil {
		return nil, err
	}
	record, ok := result.(map[string]any)
	if !ok || len(record) == 0 {
		return nil, fmt.Errorf("no matching record")
	}
	return record, nil
}

// applyDeferredRelationWrites runs the inverse-side (oneToMany/manyToMany/
// inverse oneToOne) nested writes recorded by processNestedWrites, now that
// the parent row has an id to link children against.
func applyDeferredRelationWrites(db types.Database, typeConverter *TypeConverter, parentID any, writes []deferredRelationWrite) error {
	for _, w := range writes {
		if err := applyDeferredRelationWrite(db, typeConverter, parentID, w); err != nil {
			return fmt.Errorf("nested write on %s: %w", w.fieldName, err)
		}
	}
	return nil
}

func applyDeferredRelationWrite(db types.Database, typeConverter *TypeConverter, parentID any, w deferredRelationWrite) error {
	fk := w.relation.ForeignKey
	relatedModel := w.relation.Model

	for opName, opValue := range w.payload {
		switch opName {
		case "create":
			for _, item := range asItemSlice(opValue) {
				itemMap, ok := item.(map[string]any)
				if !ok {
					continue
				}
				itemMap[fk] = parentID
				if _, err := executeOperation(context.Background(), db, relatedModel, "create", map[string]any{"data": itemMap}, typeConverter); err != nil {
					return err
				}
			}

		case "createMany":
			createMany, ok := opValue.(map[string]any)
			if !ok {
				continue
			}
			items := asItemSlice(createMany["data"])
			for _, item := range items {
				if itemMap, ok := item.(map[string]any); ok {
					itemMap[fk] = parentID
				}
			}
			if _, err := executeOperation(context.Background(), db, relatedModel, "createMany", map[string]any{"data": items}, typeConverter); err != nil {
				return err
			}

		case "connect":
			for _, where := range asItemSlice(opValue) {
				if _, err := executeOperation(context.Background(), db, relatedModel, "updateMany", map[string]any{
					"where": where,
					"data":  map[string]any{fk: parentID},
				}, typeConverter); err != nil {
					return err
				}
			}

		case "connectOrCreate":
			for _, entry := range asItemSlice(opValue) {
				entryMap, ok := entry.(map[string]any)
				if !ok {
					continue
				}
				where := entryMap["where"]
				if result, err := findRelatedRecord(db, typeConverter, relatedModel, where); err == nil {
					if _, err := executeOperation(context.Background(), db, relatedModel, "updateMany", map[string]any{
						"where": map[string]any{"id": result["id"]},
						"data":  map[string]any{fk: parentID},
					}, typeConverter); err != nil {
						return err
					}
					continue
				}
				createData, _ := entryMap["create"].(map[string]any)
				if createData == nil {
					createData = map[string]any{}
				}
				createData[fk] = parentID
				if _, err := executeOperation(context.Background(), db, relatedModel, "create", map[string]any{"data": createData}, typeConverter); err != nil {
					return err
				}
			}

		case "disconnect":
			if where, ok := opValue.(map[string]any); ok && len(where) > 0 {
				if _, err := executeOperation(context.Background(), db, relatedModel, "updateMany", map[string]any{
					"where": where,
					"data":  map[string]any{fk: nil},
				}, typeConverter); err != nil {
					return err
				}
				continue
			}
			if _, err := executeOperation(context.Background(), db, relatedModel, "updateMany", map[string]any{
				"where": map[string]any{fk: parentID},
				"data":  map[string]any{fk: nil},
			}, typeConverter); err != nil {
				return err
			}

		case "set":
			// Detach every existing child, then connect exactly the listed ones.
			if _, err := executeOperation(context.Background(), db, relatedModel, "updateMany", map[string]any{
				"where": map[string]any{fk: parentID},
				"data":  map[string]any{fk: nil},
			}, typeConverter); err != nil {
				return err
			}
			for _, where := range asItemSlice(opValue) {
				if _, err := executeOperation(context.Background(), db, relatedModel, "updateMany", map[string]any{
					"where": where,
					"data":  map[string]any{fk: parentID},
				}, typeConverter); err != nil {
					return err
				}
			}

		case "update":
			for _, entry := range asItemSlice(opValue) {
				entryMap, ok := entry.(map[string]any)
				if !ok {
					continue
				}
				where := mergeForeignKeyFilter(entryMap["where"], fk, parentID)
				if _, err := executeOperation(context.Background(), db, relatedModel, "updateMany", map[string]any{
					"where": where,
					"data":  entryMap["data"],
				}, typeConverter); err != nil {
					return err
				}
			}

		case "updateMany":
			updateMany, ok := opValue.(map[string]any)
			if !ok {
				continue
			}
			where := mergeForeignKeyFilter(updateMany["where"], fk, parentID)
			if _, err := executeOperation(context.Background(), db, relatedModel, "updateMany", map[string]any{
				"where": where,
				"data":  updateMany["data"],
			}, typeConverter); err != nil {
				return err
			}

		case "upsert":
			for _, entry := range asItemSlice(opValue) {
				entryMap, ok := entry.(map[string]any)
				if !ok {
					continue
				}
				where := mergeForeignKeyFilter(entryMap["where"], fk, parentID)
				if _, err := findRelatedRecord(db, typeConverter, relatedModel, where); err == nil {
					if _, err := executeOperation(context.Background(), db, relatedModel, "updateMany", map[string]any{
						"where": where,
						"data":  entryMap["update"],
					}, typeConverter); err != nil {
						return err
					}
					continue
				}
				createData, _ := entryMap["create"].(map[string]any)
				if createData == nil {
					createData = map[string]any{}
				}
				createData[fk] = parentID
				if _, err := executeOperation(context.Background(), db, relatedModel, "create", map[string]any{"data": createData}, typeConverter); err != nil {
					return err
				}
			}

		case "delete":
			for _, where := range asItemSlice(opValue) {
				if _, err := executeOperation(context.Background(), db, relatedModel, "deleteMany", map[string]any{
					"where": mergeForeignKeyFilter(where, fk, parentID),
				}, typeConverter); err != nil {
					return err
				}
			}

		case "deleteMany":
			where := mergeForeignKeyFilter(opValue, fk, parentID)
			if _, err := executeOperation(context.Background(), db, relatedModel, "deleteMany", map[string]any{"where": where}, typeConverter); err != nil {
				return err
			}
		}
	}

	return nil
}

// asItemSlice normalizes a nested-write value that may be a single object
// or an array of objects into a slice, the shape Prisma-style APIs accept
// for most nested-write operators.
func asItemSlice(v any) []any {
	switch val := v.(type) {
	case []any:
		return val
	case nil:
		return nil
	default:
		return []any{val}
	}
}

// mergeForeignKeyFilter scopes a nested where clause to the parent row,
// so an "update"/"delete" nested write on a relation can never touch a
// sibling's children.
func mergeForeignKeyFilter(where any, fk string, parentID any) map[string]any {
	merged := map[string]any{fk: parentID}
	if whereMap, ok := where.(map[string]any); ok {
		for k, v := range whereMap {
			merged[k] = v
		}
	}
	return merged
}
