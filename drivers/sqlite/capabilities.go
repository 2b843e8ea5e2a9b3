package sqlite

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/relaydb/ormengine/types"
)

// SQLiteCapabilities implements types.DriverCapabilities for SQLite
type SQLiteCapabilities struct{}

// NewSQLiteCapabilities creates new SQLite capabilities
func NewSQLiteCapabilities() *SQLiteCapabilities {
	return &SQLiteCapabilities{}
}

// SQL dialect features

func (c *SQLiteCapabilities) SupportsReturning() bool {
	return true
}

func (c *SQLiteCapabilities) SupportsDefaultValues() bool {
	return true
}

func (c *SQLiteCapabilities) RequiresLimitForOffset() bool {
	return true // SQLite requires LIMIT when using OFFSET
}

func (c *SQLiteCapabilities) SupportsDistinctOn() bool {
	return false // SQLite doesn't support DISTINCT ON
}

// Identifier quoting

func (c *SQLiteCapabilities) QuoteIdentifier(name string) string {
	return fmt.Sprintf("`%s`", name)
}

func (c *SQLiteCapabilities) GetPlaceholder(index int) string {
	return "?"
}

// Type conversion

func (c *SQLiteCapabilities) GetBooleanLiteral(value bool) string {
	if value {
		return "1"
	}
	return "0"
}

func (c *SQLiteCapabilities) NeedsTypeConversion() bool {
	return false // SQLite doesn't need special type conversion like MySQL
}

func (c *SQLiteCapabilities) GetNullsOrderingSQL(direction types.Order, nullsFirst bool) string {
	// SQLite supports NULLS FIRST/LAST
	// This method should return only the NULLS ordering part, not the direction
	nullsOrder := " NULLS LAST"
	if nullsFirst {
		nullsOrder = " NULLS FIRST"
	}
	return nullsOrder
}

// Index/Table detection

func (c *SQLiteCapabilities) IsSystemIndex(indexName string) bool {
	lower := strings.ToLower(indexName)

	// SQLite system index patterns:
	// - sqlite_autoindex_*
	// - sqlite_*
	// - pk_*
	return strings.HasPrefix(lower, "sqlite_autoindex_") ||
		strings.HasPrefix(lower, "sqlite_") ||
		strings.HasPrefix(lower, "pk_")
}

func (c *SQLiteCapabilities) IsSystemTable(tableName string) bool {
	lower := strings.ToLower(tableName)

	// SQLite system tables:
	// - sqlite_master
	// - sqlite_sequence
	// - sqlite_stat*
	// - sqlite_*
	return strings.HasPrefix(lower, "sqlite_")
}

// Driver identification

func (c *SQLiteCapabilities) GetDriverType() types.DriverType {
	return types.DriverSQLite
}

func (c *SQLiteCapabilities) GetSupportedSchemes() []string {
	return []string{"sqlite", "sqlite3"}
}

// Emulated LIMIT/DEFAULT support

func (c *SQLiteCapabilities) SupportsUpdateWithLimit() bool {
	// mattn/go-sqlite3 is not guaranteed to be built with SQLITE_ENABLE_UPDATE_DELETE_LIMIT,
	// so this reports false. The update and delete query builders emit no LIMIT
	// clause and do not rewrite one.
	return false
}

func (c *SQLiteCapabilities) SupportsDeleteWithLimit() bool {
	return false
}

func (c *SQLiteCapabilities) SupportsInsertWithDefault() bool {
	return true
}

func (c *SQLiteCapabilities) SupportsILike() bool {
	return false
}

func (c *SQLiteCapabilities) LikeCaseSensitive() bool {
	// SQLite's LIKE is case-insensitive for ASCII by default.
	return false
}

// Type conversion

func (c *SQLiteCapabilities) TransformInput(fieldType string, value any) (any, error) {
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
	case "bool":
		if b, ok := value.(bool); ok {
			if b {
				return 1, nil
			}
			return 0, nil
		}
		return value, nil
	default:
		return value, nil
	}
}

func (c *SQLiteCapabilities) TransformOutput(fieldType string, value any) (any, error) {
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
	case "bool":
		switch v := value.(type) {
		case int64:
			return v != 0, nil
		case int:
			return v != 0, nil
		}
		return value, nil
	default:
		return value, nil
	}
}

// JSON / relation-subquery construction

func (c *SQLiteCapabilities) BuildJSONObject(pairs []types.JSONPair) string {
	var b strings.Builder
	b.WriteString("json_object(")
	for i, p := range pairs {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(fmt.Sprintf("'%s', %s", p.Key, p.Expr))
	}
	b.WriteString(")")
	return b.String()
}

func (c *SQLiteCapabilities) BuildJSONArrayAgg(expr string) string {
	return fmt.Sprintf("json_group_array(%s)", expr)
}

func (c *SQLiteCapabilities) BuildArrayLiteral(values []any) (string, []any) {
	// SQLite has no native array type; arrays are stored and compared as JSON text.
	placeholders := make([]string, len(values))
	for i := range values {
		placeholders[i] = "?"
	}
	return fmt.Sprintf("json_array(%s)", strings.Join(placeholders, ", ")), values
}

func (c *SQLiteCapabilities) BuildArrayLength(expr string) string {
	return fmt.Sprintf("json_array_length(%s)", expr)
}

func (c *SQLiteCapabilities) BuildRelationSubquery(opts types.RelationSubqueryOptions) string {
	where := opts.JoinOn
	if opts.Where != "" {
		where = fmt.Sprintf("%s AND %s", where, opts.Where)
	}

	if !opts.ToMany {
		q := fmt.Sprintf("(SELECT %s FROM %s AS %s WHERE %s", opts.SelectJSON, opts.InnerTable, opts.InnerAlias, where)
		q += " LIMIT 1)"
		return q
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
	return fmt.Sprintf("(SELECT json_group_array(v) FROM (%s))", inner)
}
