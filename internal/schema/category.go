// internal/schema/category.go
package schema

import (
	"regexp"
	"strings"
)

// TypeCategory groups SQL types by how their values are transported and
// parsed
type TypeCategory int

const (
	Unknown TypeCategory = iota
	Numeric
	Temporal
	Boolean
	Binary
	Identifier
	Enum
	Complex
	Geo
	Text
)

var categoryNames = [...]string{
	Unknown:    "unknown",
	Numeric:    "numeric",
	Temporal:   "temporal",
	Boolean:    "boolean",
	Binary:     "binary",
	Identifier: "identifier",
	Enum:       "enum",
	Complex:    "complex",
	Geo:        "geo",
	Text:       "text",
}

func (c TypeCategory) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return "unknown"
	}
	return categoryNames[c]
}

// aliases maps engine-specific spellings onto the canonical names the
// category rules and the cast/parse tables are written against
var aliases = map[string]string{
	// 64-bit and wider integers
	"INT8":            "BIGINT",
	"INT64":           "BIGINT",
	"LONG":            "BIGINT",
	"BIGSERIAL":       "BIGINT",
	"SERIAL8":         "BIGINT",
	"INT128":          "HUGEINT",
	"BIGINT UNSIGNED": "UBIGINT",
	"UINT64":          "UBIGINT",

	// narrower integers
	"INT1":               "TINYINT",
	"INT2":               "SMALLINT",
	"INT4":               "INTEGER",
	"INT":                "INTEGER",
	"MEDIUMINT":          "INTEGER",
	"SERIAL":             "INTEGER",
	"SERIAL4":            "INTEGER",
	"SMALLSERIAL":        "SMALLINT",
	"YEAR":               "SMALLINT",
	"INT UNSIGNED":       "UINTEGER",
	"INTEGER UNSIGNED":   "UINTEGER",
	"MEDIUMINT UNSIGNED": "UINTEGER",
	"SMALLINT UNSIGNED":  "USMALLINT",
	"TINYINT UNSIGNED":   "UTINYINT",

	// floating point
	"FLOAT4":           "FLOAT",
	"FLOAT8":           "DOUBLE",
	"DOUBLE PRECISION": "DOUBLE",

	// temporal
	"DATETIME":                    "TIMESTAMP",
	"DATETIME2":                   "TIMESTAMP",
	"TIMESTAMP WITHOUT TIME ZONE": "TIMESTAMP",
	"TIMESTAMP WITH TIME ZONE":    "TIMESTAMPTZ",
	"TIME WITHOUT TIME ZONE":      "TIME",
	"TIME WITH TIME ZONE":         "TIMETZ",

	// text
	"CHARACTER VARYING": "VARCHAR",
	"CHARACTER":         "CHAR",
	"NVARCHAR":          "VARCHAR",
	"TINYTEXT":          "TEXT",
	"MEDIUMTEXT":        "TEXT",
	"LONGTEXT":          "TEXT",
	"CITEXT":            "TEXT",
	"CLOB":              "TEXT",

	// binary
	"BINARY":     "BLOB",
	"VARBINARY":  "BLOB",
	"TINYBLOB":   "BLOB",
	"MEDIUMBLOB": "BLOB",
	"LONGBLOB":   "BLOB",

	"BIT":    "BOOLEAN",
	"SET":    "ENUM",
	"HSTORE": "MAP",
}

var (
	modifierRe   = regexp.MustCompile(`\s*\([^)]*\)`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Canonical upper-cases sqlType, strips length and precision modifiers and
// maps engine-specific aliases to one canonical spelling.
func Canonical(sqlType string) string {
	t := strings.ToUpper(strings.TrimSpace(sqlType))
	if t == "" {
		return ""
	}
	// arrays: "integer[]" and DuckDB's "INTEGER[3]" in DDL, "_int4" in catalogs
	if strings.HasSuffix(t, "]") || (strings.HasPrefix(t, "_") && len(t) > 1) {
		return "ARRAY"
	}
	t = modifierRe.ReplaceAllString(t, "")
	t = whitespaceRe.ReplaceAllString(strings.TrimSpace(t), " ")
	if a, ok := aliases[t]; ok {
		return a
	}
	return t
}

type categoryRule struct {
	re       *regexp.Regexp
	category TypeCategory
}

var categoryRules = []categoryRule{
	{regexp.MustCompile(`^(TINYINT|SMALLINT|INTEGER|BIGINT|HUGEINT|UTINYINT|USMALLINT|UINTEGER|UBIGINT)$`), Numeric},
	{regexp.MustCompile(`^(FLOAT|REAL|DOUBLE|DECIMAL|NUMERIC|MONEY)`), Numeric},
	{regexp.MustCompile(`^(DATE|TIME|TIMESTAMP|TIMESTAMPTZ|TIMESTAMP_S|TIMESTAMP_MS|TIMESTAMP_NS|INTERVAL)`), Temporal},
	{regexp.MustCompile(`^(BOOLEAN|BOOL)$`), Boolean},
	{regexp.MustCompile(`^(BLOB|BYTEA)$`), Binary},
	{regexp.MustCompile(`^UUID$`), Identifier},
	{regexp.MustCompile(`^ENUM`), Enum},
	{regexp.MustCompile(`^(LIST|ARRAY|STRUCT|ROW|MAP|UNION|JSON|JSONB)`), Complex},
	{regexp.MustCompile(`^(GEOMETRY|GEOGRAPHY|POINT|LINESTRING|POLYGON|MULTIPOINT|MULTILINESTRING|MULTIPOLYGON)`), Geo},
	{regexp.MustCompile(`^(VARCHAR|TEXT|CHAR|STRING|NAME|BPCHAR)`), Text},
}

// Categorize returns the category of sqlType. Anything unrecognised is
// Unknown.
func Categorize(sqlType string) TypeCategory {
	t := Canonical(sqlType)
	for _, r := range categoryRules {
		if r.re.MatchString(t) {
			return r.category
		}
	}
	return Unknown
}

// ColumnSchema is a column's name, declared type and derived category
type ColumnSchema struct {
	Name     string
	SQLType  string
	Category TypeCategory
}

// NewColumnSchema builds a ColumnSchema, categorising sqlType
func NewColumnSchema(name, sqlType string) ColumnSchema {
	return ColumnSchema{Name: name, SQLType: sqlType, Category: Categorize(sqlType)}
}

// IsWideInteger reports whether values of the column exceed what a float64
// represents exactly
func (c ColumnSchema) IsWideInteger() bool {
	switch Canonical(c.SQLType) {
	case "BIGINT", "HUGEINT", "UBIGINT":
		return true
	}
	return false
}
