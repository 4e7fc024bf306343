package query

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/nhath/ezgrid/internal/schema"
)

var (
	conditionRe = regexp.MustCompile(`(?i)^\s*([\w.]+)\s*(is\s+not\s+null|is\s+null|<=|>=|<>|!=|=|<|>|like\b|in\b)\s*(.*?)\s*$`)
	andRe       = regexp.MustCompile(`(?i)\s+and\s+`)
)

// ParseFilter parses a filter expression: conditions such as
// `age >= 30 and name like 'A%'` joined with "and". Columns must exist in
// columns. An empty input is the empty filter.
func ParseFilter(input string, columns []schema.ColumnSchema) (Filter, error) {
	var f Filter
	if strings.TrimSpace(input) == "" {
		return f, nil
	}

	known := make(map[string]bool, len(columns))
	for _, c := range columns {
		known[c.Name] = true
	}

	for _, part := range andRe.Split(input, -1) {
		m := conditionRe.FindStringSubmatch(part)
		if m == nil {
			return Filter{}, fmt.Errorf("cannot parse condition %q", strings.TrimSpace(part))
		}
		col, opText, raw := m[1], strings.ToUpper(strings.Join(strings.Fields(m[2]), " ")), m[3]
		if !known[col] {
			return Filter{}, fmt.Errorf("%w: %s", ErrUnknownColumn, col)
		}

		c := Condition{Column: col}
		switch opText {
		case "IS NULL":
			c.Op = OpIsNull
		case "IS NOT NULL":
			c.Op = OpNotNull
		case "!=", "<>":
			c.Op = OpNe
		case "IN":
			c.Op = OpIn
		default:
			c.Op = Op(opText)
		}

		switch c.Op {
		case OpIsNull, OpNotNull:
			if raw != "" {
				return Filter{}, fmt.Errorf("unexpected value after %s: %q", c.Op, raw)
			}
		case OpIn:
			list := strings.TrimSuffix(strings.TrimPrefix(raw, "("), ")")
			var values []any
			for _, item := range strings.Split(list, ",") {
				if item = strings.TrimSpace(item); item != "" {
					values = append(values, parseValue(item))
				}
			}
			if len(values) == 0 {
				return Filter{}, fmt.Errorf("empty IN list for %s", col)
			}
			c.Value = values
		case OpLike:
			if raw == "" {
				return Filter{}, fmt.Errorf("missing pattern for %s", col)
			}
			c.Value = unquote(raw)
		default:
			if raw == "" {
				return Filter{}, fmt.Errorf("missing value for %s", col)
			}
			c.Value = parseValue(raw)
		}
		f.Conditions = append(f.Conditions, c)
	}
	return f, nil
}

// parseValue reads a literal: quoted strings stay strings, then integers,
// floats and booleans, and anything else is taken as text
func parseValue(s string) any {
	if q, ok := quoted(s); ok {
		return q
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil && strings.ContainsAny(s, "tTfF") {
		return b
	}
	return s
}

func quoted(s string) (string, bool) {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1], true
	}
	return "", false
}

func unquote(s string) string {
	if q, ok := quoted(s); ok {
		return q
	}
	return s
}
