package types

import "fmt"

// DriverType represents a database driver type
// It's defined as a string to allow extensibility for new database drivers
type DriverType string

// Well-known driver types (for convenience and documentation)
const (
	DriverSQLite     DriverType = "sqlite"
	DriverPostgreSQL DriverType = "postgresql"
)

// String returns the string representation of the driver type
func (d DriverType) String() string {
	return string(d)
}

// DriverCapabilities defines what a driver supports. It doubles as this
// engine's Dialect surface: every SQL fragment that diverges between SQLite
// and PostgreSQL (JSON construction, relation subqueries, LIMIT on
// UPDATE/DELETE, DISTINCT ON, string-casing) is isolated behind one of
// these methods rather than scattered across the query builder.
type DriverCapabilities interface {
	// SQL dialect features
	SupportsReturning() bool
	SupportsDefaultValues() bool
	RequiresLimitForOffset() bool
	SupportsDistinctOn() bool
	SupportsUpdateWithLimit() bool
	SupportsDeleteWithLimit() bool
	SupportsInsertWithDefault() bool
	SupportsILike() bool
	LikeCaseSensitive() bool

	// Identifier quoting
	QuoteIdentifier(name string) string
	GetPlaceholder(index int) string

	// Type conversion
	GetBooleanLiteral(value bool) string
	NeedsTypeConversion() bool
	GetNullsOrderingSQL(direction Order, nullsFirst bool) string
	TransformInput(fieldType string, value any) (any, error)
	TransformOutput(fieldType string, value any) (any, error)

	// JSON / relation-subquery construction
	BuildJSONObject(pairs []JSONPair) string
	BuildJSONArrayAgg(expr string) string
	BuildArrayLiteral(values []any) (string, []any)
	BuildArrayLength(expr string) string
	BuildRelationSubquery(opts RelationSubqueryOptions) string

	// Index/Table detection
	IsSystemIndex(indexName string) bool
	IsSystemTable(tableName string) bool

	// Driver identification
	GetDriverType() DriverType
	GetSupportedSchemes() []string
}

// JSONPair is one key/expression pair passed to BuildJSONObject.
type JSONPair struct {
	Key  string
	Expr string
}

// RelationSubqueryOptions describes a relation-shaped JSON subquery the
// query builder wants compiled: "SELECT <json of OuterAlias's to-many/
// to-one relation InnerTable> for each row of OuterAlias". Both PostgreSQL
// and SQLite compile this as a correlated scalar subquery; no LATERAL join
// is emitted.
type RelationSubqueryOptions struct {
	OuterAlias   string // alias of the row that owns the relation
	InnerTable   string // table name of the related model
	InnerAlias   string // alias to use for the related table inside the subquery
	JoinOn       string // ON condition joining InnerAlias to OuterAlias, already column-qualified
	SelectJSON   string // the JSON-object-producing expression over InnerAlias's columns
	ToMany       bool   // true: aggregate into a JSON array; false: a single JSON object (or NULL)
	Where        string // optional extra filter on the related rows, already column-qualified
	OrderBy      string // optional ORDER BY fragment applied inside the subquery (to-many only)
	Limit        int    // 0 means unlimited
	Offset       int
}

// ParseDriverType parses a string into a DriverType
// This is primarily used for parsing configuration and maintaining backward compatibility
func ParseDriverType(s string) (DriverType, error) {
	// Allow any string as a driver type for extensibility
	if s == "" {
		return "", fmt.Errorf("driver type cannot be empty")
	}
	return DriverType(s), nil
}
