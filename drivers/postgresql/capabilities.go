package postgresql

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/relaydb/ormengine/types"
)

// PostgreSQLCapabilities implements types.DriverCapabilities for PostgreSQL
type PostgreSQLCapabilities struct{}

// NewPostgreSQLCapabilities creates new PostgreSQL capabilities
func NewPostgreSQLCapabilities() *PostgreSQLCapabilities {
	return &PostgreSQLCapabilities{}
}

// SQL dialect features

func (c *PostgreSQLCapabilities) SupportsReturning() bool {
	return true
}

func (c *PostgreSQLCapabilities) SupportsDefaultValues() bool {
	return true
}

func (c *PostgreSQLCapabilities) RequiresLimitForOffset() bool {
	return false
}

func (c *PostgreSQLCapabilities) SupportsDistinctOn() bool {
	return true // PostgreSQL supports DISTINCT ON
}

func (c *PostgreSQLCapabilities) SupportsForeignKeys() bool {
	return true // PostgreSQL supports foreign key constraints
}

// Identifier quoting

func (c *PostgreSQLCapabilities) QuoteIdentifier(name string) string {
	return fmt.Sprintf(`"%s"`, name)
}

func (c *PostgreSQLCapabilities) GetPlaceholder(index int) string {
	return fmt.Sprintf("$%d", index)
}

// Type conversion

func (c *PostgreSQLCapabilities) GetBooleanLiteral(value bool) string {
	if value {
		return "TRUE"
	}
	return "FALSE"
}

func (c *PostgreSQLCapabilities) NeedsTypeConversion() bool {
	return false // PostgreSQL doesn't need special type conversion
}

func (c *PostgreSQLCapabilities) GetNullsOrderingSQL(direction types.Order, nullsFirst bool) string {
	// PostgreSQL supports NULLS FIRST/LAST
	// This method should return only the NULLS ordering part, not the direction
	nullsOrder := " NULLS LAST"
	if nullsFirst {
		nullsOrder = " NULLS FIRST"
	}
	return nullsOrder
}

// Index/Table detection

func (c *PostgreSQLCapabilities) IsSystemIndex(indexName string) bool {
	lower := strings.ToLower(indexName)

	// PostgreSQL system index patterns:
	// - Primary key: tablename_pkey
	// - Unique constraints: tablename_columnname_key
	// - Foreign key: tablename_columnname_fkey
	// - System: pg_*
	return strings.HasSuffix(lower, "_pkey") ||
		strings.HasSuffix(lower, "_key") ||
		strings.HasSuffix(lower, "_fkey") ||
		strings.HasPrefix(lower, "pg_")
}

func (c *PostgreSQLCapabilities) IsSystemTable(tableName string) bool {
	lower := strings.ToLower(tableName)

	// PostgreSQL system tables:
	// - pg_* (system catalogs)
	// - information_schema.*
	// - pg_catalog.*
	return strings.HasPrefix(lower, "pg_") ||
		strings.HasPrefix(lower, "information_schema.") ||
		strings.HasPrefix(lower, "pg_catalog.") ||
		lower == "information_schema" ||
		lower == "pg_catalog"
}

// Driver identification

func (c *PostgreSQLCapabilities) GetDriverType() types.DriverType {
	return types.DriverPostgreSQL
}

func (c *PostgreSQLCapabilities) GetSupportedSchemes() []string {
	return []string{"postgresql", "postgres"}
}

// NoSQL features (PostgreSQL is not a NoSQL database but has some features)

func (c *PostgreSQLCapabilities) IsNoSQL() bool {
	return false
}

func (c *PostgreSQLCapabilities) SupportsTransactions() bool {
	return true
}

func (c *PostgreSQLCapabilities) SupportsNestedDocuments() bool {
	return false // PostgreSQL has JSON/JSONB but not full document support
}

func (c *PostgreSQLCapabilities) SupportsArrayFields() bool {
	return true // PostgreSQL has native array support
}

func (c *PostgreSQLCapabilities) SupportsAggregationPipeline() bool {
	return false
}

// Emulated LIMIT/DEFAULT support

func (c *PostgreSQLCapabilities) SupportsUpdateWithLimit() bool {
	// PostgreSQL has no UPDATE ... LIMIT syntax. The update and delete
	// query builders emit no LIMIT clause, so no emulation is performed.
	return false
}

func (c *PostgreSQLCapabilities) SupportsDeleteWithLimit() bool {
	return false
}

func (c *PostgreSQLCapabilities) SupportsInsertWithDefault() bool {
	return true
}

func (c *PostgreSQLCapabilities) SupportsILike() bool {
	return true
}

func (c *PostgreSQLCapabilities) LikeCaseSensitive() bool {
	return true
}

// Type conversion

func (c *PostgreSQLCapabilities) TransformInput(fieldType string, value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	switch fieldType {
	case "decimal":
		switch v := value.(type) {
		case decimal.Decimal:
			return v.String(), nil
		case string:
			return v, nil
		}
		return fmt.Sprintf("%v", value), nil
	case "json":
		switch value.(type) {
		case string, []byte:
			return value, nil
		}
		b, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal json field: %w", err)
		}
		return string(b), nil
	case "string[]":
		if ss, ok := value.([]string); ok {
			return pq.Array(ss), nil
		}
		return value, nil
	case "int[]":
		if ns, ok := value.([]int); ok {
			return pq.Array(ns), nil
		}
		return value, nil
	default:
		return value, nil
	}
}

func (c *PostgreSQLCapabilities) TransformOutput(fieldType string, value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	switch fieldType {
	case "decimal":
		s, ok := value.(string)
		if !ok {
			s = fmt.Sprintf("%v", value)
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, fmt.Errorf("failed to parse decimal field: %w", err)
		}
		return d, nil
	case "json":
		var b []byte
		switch v := value.(type) {
		case []byte:
			b = v
		case string:
			b = []byte(v)
		default:
			return value, nil
		}
		var out any
		if err := json.Unmarshal(b, &out); err != nil {
			return nil, fmt.Errorf("failed to unmarshal json field: %w", err)
		}
		return out, nil
	default:
		return value, nil
	}
}

// JSON / relation-subquery construction

func (c *PostgreSQLCapabilities) BuildJSONObject(pairs []types.JSONPair) string {
	var b strings.Builder
	b.WriteString("json_build_object(")
	for i, p := range pairs {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(fmt.Sprintf("'%s', %s", p.Key, p.Expr))
	}
	b.WriteString(")")
	return b.String()
}

func (c *PostgreSQLCapabilities) BuildJSONArrayAgg(expr string) string {
	return fmt.Sprintf("COALESCE(json_agg(%s), '[]'::json)", expr)
}

func (c *PostgreSQLCapabilities) BuildArrayLiteral(values []any) (string, []any) {
	placeholders := make([]string, len(values))
	for i := range values {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("ARRAY[%s]", strings.Join(placeholders, ", ")), values
}

func (c *PostgreSQLCapabilities) BuildArrayLength(expr string) string {
	return fmt.Sprintf("COALESCE(array_length(%s, 1), 0)", expr)
}

func (c *PostgreSQLCapabilities) BuildRelationSubquery(opts types.RelationSubqueryOptions) string {
	where := opts.JoinOn
	if opts.Where != "" {
		where = fmt.Sprintf("%s AND %s", where, opts.Where)
	}

	if !opts.ToMany {
		return fmt.Sprintf(
			"(SELECT %s FROM %s AS %s WHERE %s LIMIT 1)",
			opts.SelectJSON, opts.InnerTable, opts.InnerAlias, where,
		)
	}

	inner := fmt.Sprintf("SELECT %s AS v FROM %s AS %s WHERE %s", opts.SelectJSON, opts.InnerTable, opts.InnerAlias, where)
	if opts.OrderBy != "" {
		inner += " ORDER BY " + opts.OrderBy
	}
	if opts.Limit > 0 {
		inner += fmt.Sprintf(" LIMIT %d", opts.Limit)
		if opts.Offset > 0 {
			inner += fmt.Sprintf(" OFFSET %d", opts.Offset)
		}
	}
	return fmt.Sprintf("(SELECT COALESCE(json_agg(v), '[]'::json) FROM (%s) AS agg)", inner)
}
