package orm

import (
	"context"

	"github.com/relaydb/ormengine/schema"
	"github.com/relaydb/ormengine/types"
)

// splitDelegateFields partitions data's keys into the subset baseSchema owns
// and the subset the descendant owns.
func splitDelegateFields(data map[string]any, baseSchema *schema.Schema) (baseData, descData map[string]any) {
	baseData = make(map[string]any)
	descData = make(map[string]any)
	for k, v := range data {
		if _, err := baseSchema.GetField(k); err == nil {
			baseData[k] = v
		} else {
			descData[k] = v
		}
	}
	return baseData, descData
}

// createDelegateBaseRow creates the shared-field row on a delegate base
// first (owning-side-first, matching how a manyToOne FK owner is written
// before its dependents), tags it with the discriminator value, and hands
// back the descendant-only fields with "id" set to the base row's id so the
// caller's descendant insert shares it.
func createDelegateBaseRow(ctx context.Context, tx types.Transaction, modelName string, data map[string]any, baseSchema *schema.Schema) (map[string]any, error) {
	baseData, descData := splitDelegateFields(data, baseSchema)
	if baseSchema.DiscriminatorField != "" {
		baseData[baseSchema.DiscriminatorField] = modelName
	}

	result, err := tx.Model(baseSchema.Name).Insert(baseData).Exec(ctx)
	if err != nil {
		return nil, err
	}

	id, ok := baseData["id"]
	if !ok || id == nil {
		id = result.LastInsertID
	}
	descData["id"] = id
	return descData, nil
}

// mergeDelegateUpward pulls the shared base-row fields into record when
// modelName is a delegate descendant, left-joining base and descendant on id.
func mergeDelegateUpward(ctx context.Context, db types.Database, modelName string, record map[string]any) {
	sch, err := db.GetSchema(modelName)
	if err != nil || sch == nil || sch.BaseModel == "" {
		return
	}
	id, ok := record["id"]
	if !ok || id == nil {
		return
	}

	var baseRow map[string]any
	query := db.Model(sch.BaseModel).Select()
	query = query.WhereCondition(types.NewFieldCondition(sch.BaseModel, "id").Equals(id))
	if err := query.FindFirst(ctx, &baseRow); err != nil {
		return
	}
	for k, v := range baseRow {
		if _, exists := record[k]; !exists {
			record[k] = v
		}
	}
}

// mergeDelegateDownward packs the matching descendant's specialized fields
// into record when modelName is a delegate base with descendants, per the
// discriminator column recorded at create time.
func mergeDelegateDownward(ctx context.Context, db types.Database, modelName string, record map[string]any) {
	sch, err := db.GetSchema(modelName)
	if err != nil || sch == nil || sch.DiscriminatorField == "" {
		return
	}
	descName, ok := record[sch.DiscriminatorField].(string)
	if !ok || descName == "" || descName == modelName {
		return
	}
	id, ok := record["id"]
	if !ok || id == nil {
		return
	}

	var descRow map[string]any
	query := db.Model(descName).Select()
	query = query.WhereCondition(types.NewFieldCondition(descName, "id").Equals(id))
	if err := query.FindFirst(ctx, &descRow); err != nil {
		return
	}
	for k, v := range descRow {
		if k == "id" {
			continue
		}
		record[k] = v
	}
}

// applyDelegateMerge runs both the upward base-field pull and downward
// descendant-field pack against record: base↔descendant rows share an id,
// and joining on it is idempotent whichever side modelName names.
func applyDelegateMerge(ctx context.Context, db types.Database, modelName string, record map[string]any) {
	if record == nil {
		return
	}
	mergeDelegateUpward(ctx, db, modelName, record)
	mergeDelegateDownward(ctx, db, modelName, record)
}

// deleteDelegateBaseRow removes modelName's shared base row, run after the
// descendant row itself is deleted so any base->descendant FK is clear first.
func deleteDelegateBaseRow(ctx context.Context, tx types.Transaction, modelName string, id any, db types.Database) error {
	sch, err := db.GetSchema(modelName)
	if err != nil || sch == nil || sch.BaseModel == "" {
		return nil
	}
	_, err = tx.Model(sch.BaseModel).Delete().WhereCondition(
		types.NewFieldCondition(sch.BaseModel, "id").Equals(id),
	).Exec(ctx)
	return err
}
