package orm

import (
	"strings"

	"github.com/google/uuid"

	"github.com/relaydb/ormengine/types"
)

// applyGeneratedDefaults fills in client-side default expressions the
// database itself can't produce (uuid() has no portable SQLite/PostgreSQL
// equivalent, unlike now()/CURRENT_TIMESTAMP which the migrators already
// push into the column DEFAULT clause). Only fields the caller left unset
// are touched.
func applyGeneratedDefaults(modelName string, data any, db types.Database) any {
	dataMap, ok := data.(map[string]any)
	if !ok {
		return data
	}

	schema, err := db.GetSchema(modelName)
	if err != nil {
		return data
	}

	for _, field := range schema.Fields {
		if _, provided := dataMap[field.Name]; provided {
			continue
		}

		defaultExpr, ok := field.Default.(string)
		if !ok {
			continue
		}

		if strings.EqualFold(strings.TrimSpace(defaultExpr), "uuid()") {
			dataMap[field.Name] = uuid.New().String()
		}
	}

	return dataMap
}
