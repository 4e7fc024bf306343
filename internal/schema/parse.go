// internal/schema/parse.go
package schema

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// BigInt carries an integer too wide for float64 as its display text and
// exact value
type BigInt struct {
	Display string
	Value   *big.Int
}

func (b BigInt) String() string { return b.Display }

// MarshalJSON writes the exact integer as a JSON number
func (b BigInt) MarshalJSON() ([]byte, error) {
	if b.Value == nil {
		return json.Marshal(b.Display)
	}
	return []byte(b.Value.String()), nil
}

// Decimal carries a fractional number that float64 cannot hold exactly,
// such as a wide NUMERIC, as its display text and exact value
type Decimal struct {
	Display string
	Value   *big.Rat
}

func (d Decimal) String() string { return d.Display }

// MarshalJSON writes the database text unchanged when it is a valid JSON
// number, keeping every digit
func (d Decimal) MarshalJSON() ([]byte, error) {
	if d.Value != nil && json.Valid([]byte(d.Display)) {
		return []byte(d.Display), nil
	}
	return json.Marshal(d.Display)
}

type parseFunc func(raw any, c ColumnSchema) any

var parsers = map[TypeCategory]parseFunc{
	Numeric:    parseNumeric,
	Temporal:   parseTemporal,
	Complex:    parseComplex,
	Boolean:    parseBoolean,
	Binary:     parseBinary,
	Identifier: parseString,
	Enum:       parseString,
	Text:       parseString,
	Geo:        parseString,
}

// Parse converts a raw transport value into the typed value for c. It never
// fails: a value that cannot be converted is returned as it arrived, with
// byte slices turned into strings.
func Parse(raw any, c ColumnSchema) any {
	if raw == nil {
		return nil
	}
	if p, ok := parsers[c.Category]; ok {
		return p(raw, c)
	}
	return parseString(raw, c)
}

func asText(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	}
	return "", false
}

func parseString(raw any, _ ColumnSchema) any {
	if s, ok := asText(raw); ok {
		return s
	}
	return raw
}

func parseBinary(raw any, _ ColumnSchema) any {
	if b, ok := raw.([]byte); ok {
		return append([]byte(nil), b...)
	}
	return raw
}

func parseNumeric(raw any, c ColumnSchema) any {
	if c.IsWideInteger() {
		return parseBigInt(raw)
	}
	s, ok := asText(raw)
	if !ok {
		return raw
	}
	s = strings.TrimSpace(s)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	exact, ok := new(big.Rat).SetString(s)
	if !ok {
		// NaN and Infinity
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
		return s
	}
	// a float64 is only used when it prints back as the same number
	f, _ := exact.Float64()
	if r, ok := new(big.Rat).SetString(strconv.FormatFloat(f, 'g', -1, 64)); ok && r.Cmp(exact) == 0 {
		return f
	}
	return Decimal{Display: s, Value: exact}
}

func parseBigInt(raw any) any {
	var s string
	switch v := raw.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case int64, int32, int, uint64, uint32, uint:
		s = fmt.Sprint(v)
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return raw
	}
	s = strings.TrimSpace(s)
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return s
	}
	return BigInt{Display: s, Value: n}
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	time.DateOnly,
}

func parseTemporal(raw any, c ColumnSchema) any {
	if t, ok := raw.(time.Time); ok {
		return t
	}
	t := Canonical(c.SQLType)
	if t != "DATE" && !strings.HasPrefix(t, "TIMESTAMP") {
		// TIME and INTERVAL arrive as text from the cast
		return parseString(raw, c)
	}
	s, ok := asText(raw)
	if !ok {
		return raw
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	return s
}

func parseComplex(raw any, _ ColumnSchema) any {
	s, ok := asText(raw)
	if !ok {
		return raw
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}

func parseBoolean(raw any, c ColumnSchema) any {
	switch v := raw.(type) {
	case bool:
		return v
	case int64:
		return v != 0
	}
	s, ok := asText(raw)
	if !ok {
		return raw
	}
	// MySQL BIT(1) arrives as a single raw byte
	if len(s) == 1 && (s[0] == 0 || s[0] == 1) {
		return s[0] == 1
	}
	if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
		return b
	}
	return s
}

// ParseRecord parses every column of raw into a Record. Columns missing
// from raw are stored as nil so every record carries the full column set.
func ParseRecord(raw map[string]any, columns []ColumnSchema) Record {
	rec := make(Record, len(columns)+1)
	for _, c := range columns {
		rec[c.Name] = Parse(raw[c.Name], c)
	}
	if oid, ok := raw[PositionalKey]; ok {
		rec[PositionalKey] = parseOid(oid)
	}
	return rec
}

func parseOid(raw any) any {
	switch v := raw.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	if s, ok := asText(raw); ok {
		if i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return i
		}
	}
	return raw
}
