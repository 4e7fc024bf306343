package schema

// CastText is the portable name of the text cast target. SQL dialects
// translate it where the engine spells it differently.
const CastText = "TEXT"

// CastDescriptor records whether a column is coerced to text before it
// leaves the engine. CastTo is empty when the value passes through.
type CastDescriptor struct {
	Column string
	CastTo string
}

// NeedsCast reports whether the column is cast
func (d CastDescriptor) NeedsCast() bool { return d.CastTo != "" }

// types whose values do not survive the result transport intact
var castByType = map[string]string{
	"BIGINT":   CastText,
	"HUGEINT":  CastText,
	"UBIGINT":  CastText,
	"INTERVAL": CastText,
	"TIME":     CastText,
	"TIMETZ":   CastText,
	"JSON":     CastText,
	"JSONB":    CastText,
}

var castByCategory = map[TypeCategory]string{
	Complex: CastText,
}

// CastFor returns the cast decision for a column. Explicit type exceptions
// win over the category table; anything in neither passes through.
func CastFor(c ColumnSchema) CastDescriptor {
	if to, ok := castByType[Canonical(c.SQLType)]; ok {
		return CastDescriptor{Column: c.Name, CastTo: to}
	}
	if to, ok := castByCategory[c.Category]; ok {
		return CastDescriptor{Column: c.Name, CastTo: to}
	}
	return CastDescriptor{Column: c.Name}
}

// CastsFor returns the cast decisions for columns, in order
func CastsFor(columns []ColumnSchema) []CastDescriptor {
	out := make([]CastDescriptor, len(columns))
	for i, c := range columns {
		out[i] = CastFor(c)
	}
	return out
}
